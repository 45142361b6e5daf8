package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SaveDir string `toml:"save_dir"`
	LogDir  string `toml:"log_dir"`
}

// Session describes the observation context recorded into every archive entry.
type Session struct {
	ID        string `toml:"id"`
	Objective string `toml:"objective"`
	FrameType string `toml:"frame_type"`
	Timezone  string `toml:"timezone"`
}

// Equipment contains the optical train metadata merged into archive entries.
type Equipment struct {
	Telescope     string  `toml:"telescope"`
	Optics        string  `toml:"optics"`
	Filter        string  `toml:"filter"`
	Camera        string  `toml:"camera"`
	FocalLengthMM float64 `toml:"focal_length_mm"`
	ApertureMM    float64 `toml:"aperture_mm"`
	PixelSizeUM   float64 `toml:"pixel_size_um"`
}

// Trigger contains GPIO shutter timing configuration.
type Trigger struct {
	GPIOPin             int     `toml:"gpio_pin"`
	PulseSeconds        float64 `toml:"pulse_seconds"`
	CompensationSeconds float64 `toml:"compensation_seconds"`
	SettleSeconds       float64 `toml:"settle_seconds"`
	DefaultBulbSeconds  float64 `toml:"default_bulb_seconds"`
}

// Remote contains configuration for the wireless card HTTP interface.
type Remote struct {
	BaseURL                  string   `toml:"base_url"`
	Extensions               []string `toml:"extensions"`
	PollIntervalSeconds      float64  `toml:"poll_interval_seconds"`
	ListTimeoutSeconds       int      `toml:"list_timeout_seconds"`
	FetchTimeoutSeconds      int      `toml:"fetch_timeout_seconds"`
	StabilityAttempts        int      `toml:"stability_attempts"`
	StabilityIntervalSeconds float64  `toml:"stability_interval_seconds"`
}

// Telemetry contains INDI device and property configuration.
type Telemetry struct {
	MountDevice     string `toml:"mount_device"`
	WeatherDevice   string `toml:"weather_device"`
	CoordProperty   string `toml:"coord_property"`
	GeoProperty     string `toml:"geo_property"`
	WeatherProperty string `toml:"weather_property"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
}

// Solver contains plate-solver configuration.
type Solver struct {
	Binary         string  `toml:"binary"`
	WorkDir        string  `toml:"workdir"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	ScaleLow       float64 `toml:"scale_low"`
	ScaleHigh      float64 `toml:"scale_high"`
	AllSky         bool    `toml:"all_sky"`
}

// Workflow contains analyzer timing and retry budgets.
type Workflow struct {
	DecodeAttempts      int     `toml:"decode_attempts"`
	DecodeDelaySeconds  float64 `toml:"decode_delay_seconds"`
	SettleDelaySeconds  float64 `toml:"settle_delay_seconds"`
	DrainPollSeconds    float64 `toml:"drain_poll_seconds"`
	DownloadRetryBudget int     `toml:"download_retry_budget"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shutterpro.
//
// Sections by subsystem:
//   - Paths: image save directory and log/state directory
//   - Session: session identity, target objective, frame type, timezone
//   - Equipment: optical train metadata and derived-math inputs
//   - Trigger: GPIO pin and shutter timing
//   - Remote: wireless card polling and download settings
//   - Telemetry: INDI device and property names
//   - Solver: plate-solver binary and search settings
//   - Workflow: analyzer retry budgets and drain intervals
//   - Logging: log format and level
//
// The value is constructed once at startup and passed into each component's
// constructor; nothing mutates it afterwards.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Session   Session   `toml:"session"`
	Equipment Equipment `toml:"equipment"`
	Trigger   Trigger   `toml:"trigger"`
	Remote    Remote    `toml:"remote"`
	Telemetry Telemetry `toml:"telemetry"`
	Solver    Solver    `toml:"solver"`
	Workflow  Workflow  `toml:"workflow"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/shutterpro/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shutterpro.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the engine needs before running.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.SaveDir, c.Paths.LogDir, c.Solver.WorkDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// IndiGetpropBinary returns the INDI property query executable name.
func (c *Config) IndiGetpropBinary() string {
	return "indi_getprop"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
