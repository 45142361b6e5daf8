package testsupport

import (
	"testing"

	"shutterpro/internal/config"
	"shutterpro/internal/sessionstore"
)

// MustOpenStore opens a sessionstore.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sessionstore.Store {
	t.Helper()

	store, err := sessionstore.Open(cfg)
	if err != nil {
		t.Fatalf("sessionstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
