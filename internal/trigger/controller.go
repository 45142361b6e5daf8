package trigger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"shutterpro/internal/capture"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services"
)

// TelemetryProvider supplies a telemetry snapshot for a capture.
type TelemetryProvider interface {
	Collect(ctx context.Context) capture.Snapshot
}

// Controller fires the shutter line and produces capture records. One
// telemetry snapshot is taken per shot, immediately after the line drops.
type Controller struct {
	line      Line
	telemetry TelemetryProvider
	cfg       config.Trigger
	location  *time.Location
	logger    *slog.Logger
}

// New constructs a trigger controller.
func New(line Line, telemetry TelemetryProvider, cfg *config.Config, logger *slog.Logger) *Controller {
	return &Controller{
		line:      line,
		telemetry: telemetry,
		cfg:       cfg.Trigger,
		location:  cfg.Location(),
		logger:    logging.NewComponentLogger(logger, "trigger"),
	}
}

// Fire holds the shutter line for one exposure and returns the resulting
// record. In bulb mode the hold runs for bulbSeconds plus the mechanical
// compensation, timed against the monotonic clock; in camera mode the line
// is pulsed for the fixed configured duration and the camera times the
// exposure itself. A context cancellation releases the line immediately.
func (c *Controller) Fire(ctx context.Context, shot int, mode capture.Mode, bulbSeconds float64) (capture.Record, error) {
	now := time.Now()
	record := capture.Record{
		Token:        uuid.New(),
		Shot:         shot,
		Mode:         mode,
		TriggerUTC:   now.UTC(),
		TriggerLocal: now.In(c.location),
	}

	hold := time.Duration(c.cfg.PulseSeconds * float64(time.Second))
	if mode == capture.ModeBulb {
		hold = time.Duration((bulbSeconds + c.cfg.CompensationSeconds) * float64(time.Second))
	}

	start := time.Now()
	if err := c.line.On(); err != nil {
		return record, services.Wrap(services.ErrExternalTool, "trigger", "fire", "raise shutter line", err)
	}
	holdErr := c.hold(ctx, mode, start, hold)
	if err := c.line.Off(); err != nil {
		return record, services.Wrap(services.ErrExternalTool, "trigger", "fire", "release shutter line", err)
	}
	record.ActualHold = time.Since(start)
	if holdErr != nil {
		return record, holdErr
	}

	record.Telemetry = c.telemetry.Collect(ctx)
	c.logger.Info("shutter fired",
		logging.Int("shot", shot),
		logging.String("mode", string(mode)),
		logging.Duration("hold", record.ActualHold),
		logging.String(logging.FieldToken, record.Token.String()))
	return record, nil
}

// hold waits out the exposure. Bulb holds poll the monotonic clock in small
// increments so a long exposure lands within about ten milliseconds of its
// target; camera pulses use a single timer.
func (c *Controller) hold(ctx context.Context, mode capture.Mode, start time.Time, hold time.Duration) error {
	if mode != capture.ModeBulb {
		return sleep(ctx, hold)
	}
	target := start.Add(hold)
	for time.Until(target) > 0 {
		if err := sleep(ctx, 10*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return services.Wrap(services.ErrTransient, "trigger", "fire", "exposure interrupted", ctx.Err())
	case <-timer.C:
		return nil
	}
}
