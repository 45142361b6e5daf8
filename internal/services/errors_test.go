package services

import (
	"errors"
	"io/fs"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	err := Wrap(ErrTransient, "downloader", "list files", "connection refused", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("marker lost: %v", err)
	}
	want := "transient failure: downloader: list files: connection refused"
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fs.ErrPermission
	err := Wrap(ErrStorage, "analyzer", "append csv", "", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	if !IsFatal(err) {
		t.Fatal("storage errors must be fatal")
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "", "", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected transient default: %v", err)
	}
	if IsFatal(err) {
		t.Fatal("transient errors are not fatal")
	}
}
