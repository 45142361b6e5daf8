package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTrigger(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateTelemetry(); err != nil {
		return err
	}
	if err := c.validateEquipment(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.SaveDir) == "" {
		return errors.New("paths.save_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateTrigger() error {
	if c.Trigger.GPIOPin < 0 {
		return errors.New("trigger.gpio_pin must not be negative")
	}
	if c.Trigger.PulseSeconds <= 0 {
		return errors.New("trigger.pulse_seconds must be positive")
	}
	if c.Trigger.CompensationSeconds < 0 {
		return errors.New("trigger.compensation_seconds must not be negative")
	}
	if c.Trigger.SettleSeconds < 0 {
		return errors.New("trigger.settle_seconds must not be negative")
	}
	if c.Trigger.DefaultBulbSeconds <= 0 {
		return errors.New("trigger.default_bulb_seconds must be positive")
	}
	return nil
}

func (c *Config) validateRemote() error {
	base := strings.TrimSpace(c.Remote.BaseURL)
	if base == "" {
		return errors.New("remote.base_url must be set")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("remote.base_url %q is not a valid URL", base)
	}
	return nil
}

func (c *Config) validateTelemetry() error {
	if strings.TrimSpace(c.Telemetry.MountDevice) == "" {
		return errors.New("telemetry.mount_device must be set")
	}
	if c.Telemetry.TimeoutSeconds <= 0 {
		return errors.New("telemetry.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateEquipment() error {
	if c.Equipment.FocalLengthMM < 0 {
		return errors.New("equipment.focal_length_mm must not be negative")
	}
	if c.Equipment.ApertureMM < 0 {
		return errors.New("equipment.aperture_mm must not be negative")
	}
	if c.Equipment.PixelSizeUM < 0 {
		return errors.New("equipment.pixel_size_um must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q must be debug, info, warn, or error", c.Logging.Level)
	}
	return nil
}
