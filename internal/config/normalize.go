package config

import (
	"fmt"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSession()
	c.normalizeRemote()
	if err := c.normalizeSolver(); err != nil {
		return err
	}
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.SaveDir, err = expandPath(c.Paths.SaveDir); err != nil {
		return fmt.Errorf("paths.save_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSession() {
	c.Session.ID = strings.TrimSpace(c.Session.ID)
	if c.Session.ID == "" || c.Session.ID == defaultSessionID {
		c.Session.ID = time.Now().Format("20060102_1504")
	}
	if strings.TrimSpace(c.Session.Timezone) == "" {
		c.Session.Timezone = defaultTimezone
	}
}

func (c *Config) normalizeRemote() {
	c.Remote.BaseURL = strings.TrimRight(strings.TrimSpace(c.Remote.BaseURL), "/")
	normalized := make([]string, 0, len(c.Remote.Extensions))
	for _, ext := range c.Remote.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	if len(normalized) == 0 {
		normalized = []string{".dng", ".jpg"}
	}
	c.Remote.Extensions = normalized
	if c.Remote.PollIntervalSeconds <= 0 {
		c.Remote.PollIntervalSeconds = defaultPollIntervalSeconds
	}
	if c.Remote.StabilityAttempts <= 0 {
		c.Remote.StabilityAttempts = defaultStabilityAttempts
	}
	if c.Remote.StabilityIntervalSeconds <= 0 {
		c.Remote.StabilityIntervalSeconds = defaultStabilityInterval
	}
	if c.Remote.ListTimeoutSeconds <= 0 {
		c.Remote.ListTimeoutSeconds = defaultListTimeoutSeconds
	}
	if c.Remote.FetchTimeoutSeconds <= 0 {
		c.Remote.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
}

func (c *Config) normalizeSolver() error {
	var err error
	if strings.TrimSpace(c.Solver.WorkDir) == "" {
		c.Solver.WorkDir = defaultSolverWorkDir
	}
	if c.Solver.WorkDir, err = expandPath(c.Solver.WorkDir); err != nil {
		return fmt.Errorf("solver.workdir: %w", err)
	}
	if strings.TrimSpace(c.Solver.Binary) == "" {
		c.Solver.Binary = defaultSolverBinary
	}
	if c.Solver.TimeoutSeconds <= 0 {
		c.Solver.TimeoutSeconds = defaultSolverTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizeWorkflow() {
	if c.Workflow.DecodeAttempts <= 0 {
		c.Workflow.DecodeAttempts = defaultDecodeAttempts
	}
	if c.Workflow.DecodeDelaySeconds <= 0 {
		c.Workflow.DecodeDelaySeconds = defaultDecodeDelaySeconds
	}
	if c.Workflow.SettleDelaySeconds < 0 {
		c.Workflow.SettleDelaySeconds = defaultSettleDelaySeconds
	}
	if c.Workflow.DrainPollSeconds <= 0 {
		c.Workflow.DrainPollSeconds = defaultDrainPollSeconds
	}
	if c.Workflow.DownloadRetryBudget < 0 {
		c.Workflow.DownloadRetryBudget = defaultDownloadRetryBudget
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// Location resolves the configured session timezone. Invalid or empty values
// fall back to the host's local zone.
func (c *Config) Location() *time.Location {
	name := strings.TrimSpace(c.Session.Timezone)
	if name == "" || strings.EqualFold(name, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}
