package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"shutterpro/internal/capture"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services"
)

// Trigger fires one exposure and returns its capture record.
type Trigger interface {
	Fire(ctx context.Context, shot int, mode capture.Mode, bulbSeconds float64) (capture.Record, error)
}

// Worker is a queue-draining background loop with a two-phase shutdown:
// RequestStop lets it finish its backlog before Run returns.
type Worker interface {
	Run(ctx context.Context) error
	RequestStop()
}

// Journal records capture lifecycle transitions.
type Journal interface {
	NewCapture(ctx context.Context, token, sessionID string, shot int, mode string) error
}

// Engine runs one capture session: fire the shutter on cadence, feed the
// correlation queue, and drain the download and analysis workers before
// returning. A file lock enforces a single session per log directory.
type Engine struct {
	cfg        *config.Config
	trigger    Trigger
	downloader Worker
	analyzer   Worker
	pending    *capture.Queue[capture.Record]
	analysis   *capture.Queue[capture.Record]
	journal    Journal
	logger     *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// New constructs a session engine.
func New(cfg *config.Config, trigger Trigger, dl, an Worker, pending, analysis *capture.Queue[capture.Record], journal Journal, logger *slog.Logger) *Engine {
	lockPath := filepath.Join(cfg.Paths.LogDir, "shutterpro.lock")
	return &Engine{
		cfg:        cfg,
		trigger:    trigger,
		downloader: dl,
		analyzer:   an,
		pending:    pending,
		analysis:   analysis,
		journal:    journal,
		logger:     logging.NewComponentLogger(logger, "engine"),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
}

// Run executes the session. shots <= 0 means fire until the context is
// cancelled. Pipeline errors never delay the capture cadence; only a
// cancelled context or a fatal storage failure ends the session early.
func (e *Engine) Run(ctx context.Context, shots int, mode capture.Mode, bulbSeconds float64) error {
	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return errors.New("another capture session is already running")
	}
	defer func() {
		if err := e.lock.Unlock(); err != nil {
			e.logger.Warn("failed to release session lock", logging.Error(err))
		}
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	workerErrs := make(chan error, 2)
	for _, worker := range []Worker{e.downloader, e.analyzer} {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				workerErrs <- err
				if services.IsFatal(err) {
					// Local storage is gone; continuing to fire would
					// only lose captures.
					cancel()
				}
			}
		}(worker)
	}

	e.logger.Info("session started",
		logging.String(logging.FieldSessionID, e.cfg.Session.ID),
		logging.String("objective", e.cfg.Session.Objective),
		logging.Int("shots", shots),
		logging.String("mode", string(mode)))

	captureErr := e.captureLoop(runCtx, shots, mode, bulbSeconds)

	drainErr := e.drain(runCtx)
	e.downloader.RequestStop()
	e.analyzer.RequestStop()
	wg.Wait()
	close(workerErrs)

	for err := range workerErrs {
		e.logger.Error("worker failed", logging.Error(err))
		if captureErr == nil {
			captureErr = err
		}
	}
	if captureErr == nil {
		captureErr = drainErr
	}
	e.logger.Info("session finished", logging.String(logging.FieldSessionID, e.cfg.Session.ID))
	return captureErr
}

func (e *Engine) captureLoop(ctx context.Context, shots int, mode capture.Mode, bulbSeconds float64) error {
	settle := time.Duration(e.cfg.Trigger.SettleSeconds * float64(time.Second))
	for shot := 1; shots <= 0 || shot <= shots; shot++ {
		if ctx.Err() != nil {
			return nil
		}
		record, err := e.trigger.Fire(ctx, shot, mode, bulbSeconds)
		if err != nil {
			if ctx.Err() != nil {
				e.logger.Info("capture loop interrupted", logging.Int("shot", shot))
				return nil
			}
			return fmt.Errorf("fire shot %d: %w", shot, err)
		}
		if e.journal != nil {
			if err := e.journal.NewCapture(ctx, record.Token.String(), e.cfg.Session.ID, shot, string(mode)); err != nil {
				e.logger.Debug("journal insert failed", logging.Error(err))
			}
		}
		e.pending.Push(record)

		if shots > 0 && shot >= shots {
			break
		}
		if !sleepCtx(ctx, settle) {
			return nil
		}
	}
	return nil
}

// drain waits for both queues to be fully acknowledged so every fired
// capture reaches the archive before shutdown. Drained, not Empty: a record
// a worker has popped and is still downloading or analyzing counts as
// outstanding until the worker calls Done.
func (e *Engine) drain(ctx context.Context) error {
	poll := time.Duration(e.cfg.Workflow.DrainPollSeconds * float64(time.Second))
	for {
		if e.pending.Drained() && e.analysis.Drained() {
			return nil
		}
		if !sleepCtx(ctx, poll) {
			return ctx.Err()
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
