package analyzer

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"shutterpro/internal/archive"
	"shutterpro/internal/astro"
	"shutterpro/internal/capture"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/metadata"
	"shutterpro/internal/sessionstore"
	"shutterpro/internal/services"
)

// Journal records capture lifecycle transitions. Satisfied by
// sessionstore.Store; nil-safe wrappers keep the analyzer usable without
// one in tests.
type Journal interface {
	SetStatus(ctx context.Context, token string, status sessionstore.Status) error
	MarkFailed(ctx context.Context, token, cause string) error
}

// Worker drains the analysis queue: decode the image metadata, fuse it
// with the frozen telemetry, derive the pointing math, and persist the
// archive forms. Local storage failures are fatal; everything else
// degrades to a partial record.
type Worker struct {
	queue   *capture.Queue[capture.Record]
	decoder metadata.Decoder
	journal Journal

	cfg         *config.Config
	flat        *archive.FlatLog
	latestPath  string
	historyPath string

	settle       time.Duration
	attempts     int
	attemptDelay time.Duration

	logger   *slog.Logger
	stopping chan struct{}
}

// New constructs an analysis worker.
func New(queue *capture.Queue[capture.Record], decoder metadata.Decoder, journal Journal, cfg *config.Config, logger *slog.Logger) *Worker {
	return &Worker{
		queue:        queue,
		decoder:      decoder,
		journal:      journal,
		cfg:          cfg,
		flat:         archive.NewFlatLog(filepath.Join(cfg.Paths.SaveDir, "shutter_log.csv")),
		latestPath:   filepath.Join(cfg.Paths.SaveDir, "latest_shot.json"),
		historyPath:  filepath.Join(cfg.Paths.SaveDir, "shutter_log.json"),
		settle:       time.Duration(cfg.Workflow.SettleDelaySeconds * float64(time.Second)),
		attempts:     cfg.Workflow.DecodeAttempts,
		attemptDelay: time.Duration(cfg.Workflow.DecodeDelaySeconds * float64(time.Second)),
		logger:       logging.NewComponentLogger(logger, "analyzer"),
		stopping:     make(chan struct{}),
	}
}

// LatestPath returns the latest pointer location.
func (w *Worker) LatestPath() string { return w.latestPath }

// HistoryPath returns the cumulative archive location.
func (w *Worker) HistoryPath() string { return w.historyPath }

// RequestStop asks the worker to finish once the queue has drained.
func (w *Worker) RequestStop() {
	select {
	case <-w.stopping:
	default:
		close(w.stopping)
	}
}

// Run processes records until a stop is requested and the queue is empty,
// the context is cancelled, or local storage fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.stopRequested() && w.queue.Empty() {
			return nil
		}
		record, ok := w.queue.Pop(time.Second)
		if !ok {
			continue
		}
		err := w.process(ctx, record)
		w.queue.Done()
		if err != nil {
			if services.IsFatal(err) {
				return err
			}
			w.logger.Error("record not archived",
				logging.String(logging.FieldToken, record.Token.String()),
				logging.Error(err))
		}
	}
}

func (w *Worker) stopRequested() bool {
	select {
	case <-w.stopping:
		return true
	default:
		return false
	}
}

func (w *Worker) process(ctx context.Context, record capture.Record) error {
	w.journalStatus(ctx, record, sessionstore.StatusAnalyzing)

	// Give the filesystem a moment before the first read; the file was
	// synced but the camera-side write may trail the listing.
	sleepCtx(ctx, w.settle)
	record.Decoded = w.decodeWithRetry(ctx, record.LocalPath)

	entry := w.buildEntry(record)
	if err := w.flat.Append(entry); err != nil {
		w.journalFailed(ctx, record, "flat log write failed")
		return services.Wrap(services.ErrStorage, "analyzer", "archive", "append flat log", err)
	}
	if err := archive.WriteLatest(w.latestPath, entry); err != nil {
		w.journalFailed(ctx, record, "latest pointer write failed")
		return services.Wrap(services.ErrStorage, "analyzer", "archive", "write latest pointer", err)
	}
	if err := archive.AppendHistory(w.historyPath, entry); err != nil {
		w.journalFailed(ctx, record, "archive append failed")
		return services.Wrap(services.ErrStorage, "analyzer", "archive", "append archive", err)
	}

	w.journalStatus(ctx, record, sessionstore.StatusArchived)
	w.logger.Info("capture archived",
		logging.String(logging.FieldFilename, record.Filename),
		logging.String(logging.FieldToken, record.Token.String()))
	return nil
}

// decodeWithRetry attempts the metadata decode a bounded number of times.
// Exhausting the budget is not an error; the record is archived with the
// fields left empty.
func (w *Worker) decodeWithRetry(ctx context.Context, path string) metadata.Fields {
	for attempt := 1; attempt <= w.attempts; attempt++ {
		fields, err := w.decoder.Decode(path)
		if err == nil {
			return fields
		}
		w.logger.Debug("metadata decode failed",
			logging.Int("attempt", attempt),
			logging.Error(err))
		if attempt < w.attempts && !sleepCtx(ctx, w.attemptDelay) {
			break
		}
	}
	w.logger.Warn("metadata never decoded", logging.String("path", path))
	return metadata.Fields{}
}

func (w *Worker) buildEntry(record capture.Record) archive.Entry {
	cfg := w.cfg
	snap := record.Telemetry
	decoded := record.Decoded

	entry := archive.Entry{
		Version:   archive.SchemaVersion,
		SessionID: cfg.Session.ID,
		Objective: cfg.Session.Objective,
		Equipment: archive.Equipment{
			Telescope:     cfg.Equipment.Telescope,
			Optics:        cfg.Equipment.Optics,
			Filter:        cfg.Equipment.Filter,
			Camera:        cfg.Equipment.Camera,
			FocalLengthMM: cfg.Equipment.FocalLengthMM,
			ApertureMM:    cfg.Equipment.ApertureMM,
			PixelSizeUM:   cfg.Equipment.PixelSizeUM,
		},
	}

	actualSec := record.ActualHold.Seconds()
	entry.Record.Meta = archive.Meta{
		TimestampLocal:    record.TriggerLocal.Format("2006-01-02T15:04:05.000-07:00"),
		TimestampUTC:      record.TriggerUTC.Format("2006-01-02T15:04:05.000") + "Z",
		Unixtime:          float64(record.TriggerUTC.UnixMilli()) / 1000.0,
		ExposureActualSec: round3(actualSec),
		ShotMode:          string(record.Mode),
		FrameType:         cfg.Session.FrameType,
	}

	entry.Record.File = archive.File{
		Name:   record.Filename,
		Path:   cfg.Paths.SaveDir,
		Format: record.Format,
		SizeMB: round2(float64(record.SizeBytes) / 1024.0 / 1024.0),
		Width:  positiveInt(decoded.Width),
		Height: positiveInt(decoded.Height),
	}

	shutterSec := round3(actualSec)
	if decoded.ExposureSec != nil {
		shutterSec = *decoded.ExposureSec
	}
	model := decoded.Model
	if model == "" {
		model = cfg.Equipment.Camera
	}
	entry.Record.Exif = archive.Exif{
		ISO:        decoded.ISO,
		ShutterSec: shutterSec,
		Model:      model,
		Lat:        decoded.Latitude,
		Lon:        decoded.Longitude,
		Alt:        decoded.Altitude,
	}

	derived := w.derive(record)

	// Mounts that report no pier side still get one when the hour angle is
	// known; the sign of the hour angle fixes the side of the sky.
	pierSide := snap.PierSide
	if pierSide == "" {
		pierSide = derived.MeridianSide
	}
	entry.Record.Mount = archive.Mount{
		RADeg:      snap.RADeg(),
		DecDeg:     snap.DecDeg,
		Status:     orUnknown(snap.MountStatus),
		SideOfPier: orUnknown(pierSide),
	}
	if snap.RAHours != nil {
		entry.Record.Mount.RAHMS = astro.ToHMS(*snap.RAHours)
	}
	if snap.DecDeg != nil {
		entry.Record.Mount.DecDMS = astro.ToDMS(*snap.DecDeg)
	}

	entry.Record.Location = archive.Location{
		Lat: snap.SiteLatDeg,
		Lon: snap.SiteLonDeg,
		Alt: snap.SiteElevM,
	}
	entry.Record.Environment = archive.Environment{
		TempC:       snap.TempC,
		HumidityPct: snap.HumidityPct,
		PressureHPa: snap.PressureHPa,
		DewPointC:   snap.DewPointC,
		CPUTempC:    snap.CPUTempC,
	}

	entry.Record.Analysis = archive.Analysis{
		SolveStatus: archive.SolvePending,
		Derived:     derived,
	}
	return entry
}

// derive computes the equipment and pointing math possible with the data
// at hand. Missing inputs leave the corresponding outputs nil.
func (w *Worker) derive(record capture.Record) archive.Derived {
	cfg := w.cfg
	snap := record.Telemetry
	var derived archive.Derived

	if record.Decoded.ExposureSec != nil {
		delta := record.ActualHold.Seconds() - *record.Decoded.ExposureSec
		derived.ExposureDeltaSec = &delta
	}
	if cfg.Equipment.FocalLengthMM > 0 && cfg.Equipment.ApertureMM > 0 {
		f := astro.FNumber(cfg.Equipment.FocalLengthMM, cfg.Equipment.ApertureMM)
		derived.FNumber = &f
	}
	if cfg.Equipment.FocalLengthMM > 0 && cfg.Equipment.PixelSizeUM > 0 {
		scale := astro.PixelScale(cfg.Equipment.PixelSizeUM, cfg.Equipment.FocalLengthMM)
		derived.PixelScaleArcsec = &scale
	}

	jd := astro.JulianDate(record.TriggerUTC)
	derived.JulianDate = &jd

	if snap.SiteLonDeg != nil {
		lst := astro.LocalSiderealTime(record.TriggerUTC, *snap.SiteLonDeg)
		derived.LSTHours = &lst
		if snap.RAHours != nil {
			ha := astro.HourAngle(lst, *snap.RAHours)
			derived.HourAngleHours = &ha
			derived.MeridianSide = astro.MeridianSide(ha)
		}
	}
	return derived
}

func (w *Worker) journalStatus(ctx context.Context, record capture.Record, status sessionstore.Status) {
	if w.journal == nil {
		return
	}
	if err := w.journal.SetStatus(ctx, record.Token.String(), status); err != nil {
		w.logger.Debug("journal update failed", logging.Error(err))
	}
}

func (w *Worker) journalFailed(ctx context.Context, record capture.Record, cause string) {
	if w.journal == nil {
		return
	}
	if err := w.journal.MarkFailed(ctx, record.Token.String(), cause); err != nil {
		w.logger.Debug("journal update failed", logging.Error(err))
	}
}

func positiveInt(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}

func orUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
