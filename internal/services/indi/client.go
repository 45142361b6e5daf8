package indi

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"shutterpro/internal/capture"
	"shutterpro/internal/config"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) (string, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(executor Executor) Option {
	return func(c *Client) {
		if executor != nil {
			c.exec = executor
		}
	}
}

// Client queries the INDI server through indi_getprop. Every query is
// best-effort with a bounded timeout; a missing or unreachable property is
// reported as absent, never as an error.
type Client struct {
	binary  string
	cfg     config.Telemetry
	timeout time.Duration
	exec    Executor
}

// New constructs an INDI telemetry client from configuration.
func New(cfg *config.Config, opts ...Option) *Client {
	client := &Client{
		binary:  cfg.IndiGetpropBinary(),
		cfg:     cfg.Telemetry,
		timeout: time.Duration(cfg.Telemetry.TimeoutSeconds) * time.Second,
		exec:    commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Get fetches a single property element value. The boolean result reports
// whether a value was obtained.
func (c *Client) Get(ctx context.Context, device, property, element string) (string, bool) {
	queryCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	full := fmt.Sprintf("%s.%s.%s", device, property, element)
	out, err := c.exec.Run(queryCtx, c.binary, []string{"-1", full})
	if err != nil {
		return "", false
	}
	_, value, found := strings.Cut(strings.TrimSpace(out), "=")
	if !found {
		return "", false
	}
	return strings.TrimSpace(value), true
}

// Collect aggregates the mount and weather state into a Snapshot. Absent
// properties leave their fields nil; the call itself never fails.
func (c *Client) Collect(ctx context.Context) capture.Snapshot {
	mount := c.cfg.MountDevice
	weather := c.cfg.WeatherDevice

	var snap capture.Snapshot
	snap.RAHours = c.getFloat(ctx, mount, c.cfg.CoordProperty, "RA")
	snap.DecDeg = c.getFloat(ctx, mount, c.cfg.CoordProperty, "DEC")
	if status, ok := c.Get(ctx, mount, c.cfg.CoordProperty, "STATE"); ok {
		snap.MountStatus = status
	}
	if side, ok := c.Get(ctx, mount, "SIDE_OF_PIER", "PIER_SIDE"); ok {
		snap.PierSide = side
	}
	snap.SiteLatDeg = c.getFloat(ctx, mount, c.cfg.GeoProperty, "LAT")
	snap.SiteLonDeg = c.getFloat(ctx, mount, c.cfg.GeoProperty, "LONG")
	snap.SiteElevM = c.getFloat(ctx, mount, c.cfg.GeoProperty, "ELEV")
	snap.TempC = c.getFloat(ctx, weather, c.cfg.WeatherProperty, "WEATHER_TEMPERATURE")
	snap.HumidityPct = c.getFloat(ctx, weather, c.cfg.WeatherProperty, "WEATHER_HUMIDITY")
	snap.PressureHPa = c.getFloat(ctx, weather, c.cfg.WeatherProperty, "WEATHER_BAROMETER")
	snap.DewPointC = c.getFloat(ctx, weather, c.cfg.WeatherProperty, "WEATHER_DEWPOINT")
	snap.CPUTempC = c.getFloat(ctx, weather, c.cfg.WeatherProperty, "WEATHER_CPU_TEMPERATURE")
	return snap
}

func (c *Client) getFloat(ctx context.Context, device, property, element string) *float64 {
	raw, ok := c.Get(ctx, device, property, element)
	if !ok {
		return nil
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil
	}
	return &value
}
