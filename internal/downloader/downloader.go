package downloader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"shutterpro/internal/capture"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services/flashair"
	"shutterpro/internal/sessionstore"
)

// Store lists and fetches files from the remote camera storage.
type Store interface {
	ListDirectories(ctx context.Context) ([]string, error)
	ListFiles(ctx context.Context, dir string) ([]flashair.FileInfo, error)
	Size(ctx context.Context, dir, name string) (int64, error)
	Fetch(ctx context.Context, dir, name string) ([]byte, error)
}

// Journal records download lifecycle transitions for the status command.
// Updates are best effort; a journal failure never blocks the pipeline.
type Journal interface {
	SetStatus(ctx context.Context, token string, status sessionstore.Status) error
	SetFile(ctx context.Context, token, filename, remotePath string) error
	MarkFailed(ctx context.Context, token, cause string) error
}

// Worker polls the remote store for new image files and pairs each arrival
// with the oldest waiting capture record. Pairing is strictly first in,
// first out; the camera writes files in trigger order.
type Worker struct {
	store    Store
	journal  Journal
	pending  *capture.Queue[capture.Record]
	analysis *capture.Queue[capture.Record]

	saveDir     string
	extensions  []string
	poll        time.Duration
	stability   int
	interval    time.Duration
	retryBudget int
	location    *time.Location
	logger      *slog.Logger

	seen    map[string]struct{}
	primed  bool
	retries map[uuid.UUID]int

	stopping chan struct{}
}

// New constructs a download worker. A nil journal disables lifecycle
// bookkeeping.
func New(store Store, journal Journal, pending, analysis *capture.Queue[capture.Record], cfg *config.Config, logger *slog.Logger) *Worker {
	return &Worker{
		store:       store,
		journal:     journal,
		pending:     pending,
		analysis:    analysis,
		saveDir:     cfg.Paths.SaveDir,
		extensions:  cfg.Remote.Extensions,
		poll:        time.Duration(cfg.Remote.PollIntervalSeconds * float64(time.Second)),
		stability:   cfg.Remote.StabilityAttempts,
		interval:    time.Duration(cfg.Remote.StabilityIntervalSeconds * float64(time.Second)),
		retryBudget: cfg.Workflow.DownloadRetryBudget,
		location:    cfg.Location(),
		logger:      logging.NewComponentLogger(logger, "downloader"),
		seen:        make(map[string]struct{}),
		retries:     make(map[uuid.UUID]int),
		stopping:    make(chan struct{}),
	}
}

// RequestStop asks the worker to finish once every pending capture has been
// paired and handed to the analysis queue.
func (w *Worker) RequestStop() {
	select {
	case <-w.stopping:
	default:
		close(w.stopping)
	}
}

// Run polls until a stop is requested and the pending queue has drained, or
// the context is cancelled. Context cancellation aborts immediately and may
// leave captures unpaired.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.stopRequested() && w.pending.Empty() {
			return nil
		}
		w.pollOnce(ctx)
		if !sleepCtx(ctx, w.poll) {
			return ctx.Err()
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

// pollOnce inspects the newest remote directory and processes any new
// arrivals. Listing failures are transient; the next cycle retries.
func (w *Worker) pollOnce(ctx context.Context) {
	dir, ok := w.newestDirectory(ctx)
	if !ok {
		return
	}
	files, err := w.store.ListFiles(ctx, dir)
	if err != nil {
		w.logger.Debug("file listing failed", logging.String("dir", dir), logging.Error(err))
		return
	}

	// Everything present before the first successful listing predates the
	// session and is never downloaded.
	if !w.primed {
		for _, file := range files {
			if w.wantedExtension(file.Name) {
				w.markSeen(dir, file.Name)
			}
		}
		w.primed = true
		w.logger.Debug("seeded preexisting files", logging.String("dir", dir), logging.Int("count", len(files)))
		return
	}

	for _, file := range files {
		if !w.wantedExtension(file.Name) {
			continue
		}
		if _, done := w.seen[remoteKey(dir, file.Name)]; done {
			continue
		}
		if !w.handleArrival(ctx, dir, file) {
			// A failed fetch requeued its record at the queue front. Stop
			// the pass here so the retry pairs with this same file on the
			// next cycle instead of with the next file in this listing.
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (w *Worker) newestDirectory(ctx context.Context) (string, bool) {
	dirs, err := w.store.ListDirectories(ctx)
	if err != nil {
		w.logger.Debug("directory listing failed", logging.Error(err))
		return "", false
	}
	var candidates []string
	for _, dir := range dirs {
		if strings.Contains(dir, "_") {
			candidates = append(candidates, dir)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	return candidates[len(candidates)-1], true
}

// handleArrival pairs one new remote file with the oldest waiting capture
// record. A file with no waiting record is marked seen and skipped; the
// camera was fired outside this session. The return value reports whether
// the listing pass may continue with the next file.
func (w *Worker) handleArrival(ctx context.Context, dir string, file flashair.FileInfo) bool {
	record, ok := w.pending.TryPop()
	if !ok {
		w.markSeen(dir, file.Name)
		w.logger.Warn("file arrived with no pending capture, skipping",
			logging.String(logging.FieldRemotePath, remoteKey(dir, file.Name)))
		return true
	}

	w.journalStatus(ctx, record, sessionstore.StatusDownloading)
	size := w.waitStable(ctx, dir, file)
	localPath, err := w.fetchToDisk(ctx, dir, file.Name)
	if err != nil {
		w.requeue(ctx, record, dir, file, err)
		w.pending.Done()
		return false
	}

	record.RemotePath = remoteKey(dir, file.Name)
	record.LocalPath = localPath
	record.Filename = filepath.Base(localPath)
	record.Format = strings.ToUpper(strings.TrimPrefix(filepath.Ext(file.Name), "."))
	record.SizeBytes = size
	w.markSeen(dir, file.Name)
	delete(w.retries, record.Token)
	if w.journal != nil {
		if err := w.journal.SetFile(ctx, record.Token.String(), record.Filename, record.RemotePath); err != nil {
			w.logger.Warn("journal update failed", logging.Error(err))
		}
	}

	w.logger.Info("image downloaded",
		logging.String(logging.FieldFilename, record.Filename),
		logging.Int64("size_bytes", record.SizeBytes),
		logging.String(logging.FieldToken, record.Token.String()))
	// Push before Done so the record is never outside both queues while the
	// engine is deciding whether the pipeline has drained.
	w.analysis.Push(record)
	w.pending.Done()
	return true
}

// waitStable polls the listed size until two consecutive readings agree.
// The camera appends as it writes, so a repeated nonzero size means the
// write has finished. The last observed size is returned.
func (w *Worker) waitStable(ctx context.Context, dir string, file flashair.FileInfo) int64 {
	current := file.Size
	for attempt := 0; attempt < w.stability; attempt++ {
		if !sleepCtx(ctx, w.interval) {
			return current
		}
		size, err := w.store.Size(ctx, dir, file.Name)
		if err != nil {
			continue
		}
		if size > 0 && size == current {
			return current
		}
		current = size
	}
	return current
}

func (w *Worker) fetchToDisk(ctx context.Context, dir, name string) (string, error) {
	data, err := w.store.Fetch(ctx, dir, name)
	if err != nil {
		return "", err
	}
	localName := time.Now().In(w.location).Format("060102") + "_" + name
	localPath := filepath.Join(w.saveDir, localName)
	if err := writeDurable(localPath, data); err != nil {
		return "", err
	}
	return localPath, nil
}

// requeue puts a failed record back at the front of the pending queue so
// the same remote file is retried against the same capture. A record that
// exhausts its retry budget is dropped and the file marked seen.
func (w *Worker) requeue(ctx context.Context, record capture.Record, dir string, file flashair.FileInfo, cause error) {
	w.retries[record.Token]++
	if w.retries[record.Token] > w.retryBudget {
		delete(w.retries, record.Token)
		w.markSeen(dir, file.Name)
		if w.journal != nil {
			if err := w.journal.MarkFailed(ctx, record.Token.String(), cause.Error()); err != nil {
				w.logger.Warn("journal update failed", logging.Error(err))
			}
		}
		w.logger.Error("download abandoned after retries",
			logging.String(logging.FieldRemotePath, remoteKey(dir, file.Name)),
			logging.String(logging.FieldToken, record.Token.String()),
			logging.Error(cause))
		return
	}
	w.logger.Warn("download failed, retrying",
		logging.String(logging.FieldRemotePath, remoteKey(dir, file.Name)),
		logging.Error(cause))
	w.pending.PushFront(record)
}

func (w *Worker) wantedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range w.extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func (w *Worker) journalStatus(ctx context.Context, record capture.Record, status sessionstore.Status) {
	if w.journal == nil {
		return
	}
	if err := w.journal.SetStatus(ctx, record.Token.String(), status); err != nil {
		w.logger.Warn("journal update failed", logging.Error(err))
	}
}

func (w *Worker) markSeen(dir, name string) {
	w.seen[remoteKey(dir, name)] = struct{}{}
}

func remoteKey(dir, name string) string {
	return "/DCIM/" + dir + "/" + name
}

// writeDurable writes the file and syncs it to disk before renaming into
// place, so a power loss never leaves a truncated image beside a log entry
// that claims it.
func writeDurable(path string, data []byte) error {
	tmp := path + ".part"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
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
