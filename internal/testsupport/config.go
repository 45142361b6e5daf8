package testsupport

import (
	"path/filepath"
	"testing"

	"shutterpro/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and timings short enough for fast test loops.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.SaveDir = filepath.Join(base, "images")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Session.ID = "20260830_2100"
	cfg.Trigger.PulseSeconds = 0.001
	cfg.Trigger.SettleSeconds = 0.001
	cfg.Remote.PollIntervalSeconds = 0.001
	cfg.Remote.StabilityAttempts = 3
	cfg.Remote.StabilityIntervalSeconds = 0.001
	cfg.Workflow.SettleDelaySeconds = 0
	cfg.Workflow.DecodeDelaySeconds = 0.001
	cfg.Workflow.DrainPollSeconds = 0.005

	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return cfg
}

// WithEquipment fills in the optical train used by derived-math tests.
func WithEquipment(focalMM, apertureMM, pixelUM float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Equipment.FocalLengthMM = focalMM
		cfg.Equipment.ApertureMM = apertureMM
		cfg.Equipment.PixelSizeUM = pixelUM
	}
}
