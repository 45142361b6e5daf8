package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"shutterpro/internal/capture"
	"shutterpro/internal/config"
	"shutterpro/internal/logging"
	"shutterpro/internal/services/flashair"
	"shutterpro/internal/sessionstore"
)

type fakeStore struct {
	dirs      []string
	files     map[string][]flashair.FileInfo
	sizeSeqs  map[string][]int64
	content   map[string][]byte
	fetchErrs map[string]int
	listErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		files:     make(map[string][]flashair.FileInfo),
		sizeSeqs:  make(map[string][]int64),
		content:   make(map[string][]byte),
		fetchErrs: make(map[string]int),
	}
}

func (s *fakeStore) ListDirectories(context.Context) ([]string, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.dirs, nil
}

func (s *fakeStore) ListFiles(_ context.Context, dir string) ([]flashair.FileInfo, error) {
	return s.files[dir], nil
}

func (s *fakeStore) Size(_ context.Context, dir, name string) (int64, error) {
	key := dir + "/" + name
	seq := s.sizeSeqs[key]
	if len(seq) == 0 {
		for _, f := range s.files[dir] {
			if f.Name == name {
				return f.Size, nil
			}
		}
		return 0, nil
	}
	size := seq[0]
	if len(seq) > 1 {
		s.sizeSeqs[key] = seq[1:]
	}
	return size, nil
}

func (s *fakeStore) Fetch(_ context.Context, dir, name string) ([]byte, error) {
	key := dir + "/" + name
	if s.fetchErrs[key] > 0 {
		s.fetchErrs[key]--
		return nil, errors.New("connection reset")
	}
	data, ok := s.content[key]
	if !ok {
		return []byte("image-data"), nil
	}
	return data, nil
}

type fakeJournal struct {
	statuses map[string][]sessionstore.Status
	files    map[string]string
	failed   map[string]string
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{
		statuses: make(map[string][]sessionstore.Status),
		files:    make(map[string]string),
		failed:   make(map[string]string),
	}
}

func (j *fakeJournal) SetStatus(_ context.Context, token string, status sessionstore.Status) error {
	j.statuses[token] = append(j.statuses[token], status)
	return nil
}

func (j *fakeJournal) SetFile(_ context.Context, token, filename, _ string) error {
	j.files[token] = filename
	return nil
}

func (j *fakeJournal) MarkFailed(_ context.Context, token, cause string) error {
	j.failed[token] = cause
	return nil
}

func newTestWorker(t *testing.T, store Store, journal Journal) (*Worker, *capture.Queue[capture.Record], *capture.Queue[capture.Record]) {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SaveDir = t.TempDir()
	cfg.Remote.PollIntervalSeconds = 0.001
	cfg.Remote.StabilityAttempts = 5
	cfg.Remote.StabilityIntervalSeconds = 0.001
	pending := capture.NewQueue[capture.Record]()
	analysis := capture.NewQueue[capture.Record]()
	return New(store, journal, pending, analysis, cfg, logging.NewNop()), pending, analysis
}

func record(shot int) capture.Record {
	return capture.Record{Token: uuid.New(), Shot: shot, Mode: capture.ModeBulb}
}

func TestColdStartSeedsExistingFiles(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "OLD00001.DNG", Size: 100}}
	worker, pending, analysis := newTestWorker(t, store, nil)

	pending.Push(record(1))
	worker.pollOnce(context.Background())

	if pending.Len() != 1 {
		t.Fatal("cold start must not consume a capture record")
	}
	if analysis.Len() != 0 {
		t.Fatal("preexisting file must not be downloaded")
	}

	// A genuinely new file on the next poll pairs normally.
	store.files["100__TSB"] = append(store.files["100__TSB"], flashair.FileInfo{Name: "NEW00002.DNG", Size: 200})
	worker.pollOnce(context.Background())

	got, ok := analysis.TryPop()
	if !ok {
		t.Fatal("expected new file to reach the analysis queue")
	}
	if !strings.HasSuffix(got.RemotePath, "NEW00002.DNG") {
		t.Fatalf("unexpected remote path %q", got.RemotePath)
	}
}

func TestPairingIsFIFO(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, pending, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime on the empty directory

	first, second := record(1), record(2)
	pending.Push(first)
	pending.Push(second)
	store.files["100__TSB"] = []flashair.FileInfo{
		{Name: "DSC00001.DNG", Size: 100},
		{Name: "DSC00002.DNG", Size: 100},
	}
	worker.pollOnce(context.Background())

	a, _ := analysis.TryPop()
	b, _ := analysis.TryPop()
	if a.Token != first.Token || b.Token != second.Token {
		t.Fatal("records paired out of order")
	}
	if !strings.HasSuffix(a.RemotePath, "DSC00001.DNG") || !strings.HasSuffix(b.RemotePath, "DSC00002.DNG") {
		t.Fatalf("files paired out of order: %q %q", a.RemotePath, b.RemotePath)
	}
}

func TestNewestDirectoryWins(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"101__TSB", "100__TSB"}
	worker, _, _ := newTestWorker(t, store, nil)

	dir, ok := worker.newestDirectory(context.Background())
	if !ok || dir != "101__TSB" {
		t.Fatalf("expected newest directory, got %q", dir)
	}
}

func TestStabilityWaitsForSteadySize(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, _, _ := newTestWorker(t, store, nil)
	store.sizeSeqs["100__TSB/DSC00001.DNG"] = []int64{250, 250}

	size := worker.waitStable(context.Background(), "100__TSB", flashair.FileInfo{Name: "DSC00001.DNG", Size: 100})
	if size != 250 {
		t.Fatalf("expected stable size 250, got %d", size)
	}
}

func TestUncorrelatedFileSkipped(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, _, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "MANUAL01.DNG", Size: 100}}
	worker.pollOnce(context.Background())

	if analysis.Len() != 0 {
		t.Fatal("uncorrelated file must not produce an analysis record")
	}
	if _, seen := worker.seen["/DCIM/100__TSB/MANUAL01.DNG"]; !seen {
		t.Fatal("uncorrelated file must be marked seen")
	}
}

func TestDownloadRetriesSameRecord(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, pending, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime
	rec := record(1)
	pending.Push(rec)
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "DSC00001.DNG", Size: 100}}
	store.fetchErrs["100__TSB/DSC00001.DNG"] = 1

	worker.pollOnce(context.Background())
	if analysis.Len() != 0 {
		t.Fatal("failed download must not reach analysis")
	}
	if pending.Len() != 1 {
		t.Fatal("failed record must return to the pending queue")
	}

	worker.pollOnce(context.Background())
	got, ok := analysis.TryPop()
	if !ok {
		t.Fatal("retry should succeed")
	}
	if got.Token != rec.Token {
		t.Fatal("retry paired a different record")
	}
}

func TestRetryRepairsWithSameFile(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, pending, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime
	first, second := record(1), record(2)
	pending.Push(first)
	pending.Push(second)
	store.files["100__TSB"] = []flashair.FileInfo{
		{Name: "DSC00001.DNG", Size: 100},
		{Name: "DSC00002.DNG", Size: 100},
	}
	store.fetchErrs["100__TSB/DSC00001.DNG"] = 1

	// The failed fetch ends the pass; the second file must not steal the
	// requeued record.
	worker.pollOnce(context.Background())
	if analysis.Len() != 0 {
		t.Fatal("no record may advance while the first file is unfetched")
	}

	worker.pollOnce(context.Background())
	a, _ := analysis.TryPop()
	b, _ := analysis.TryPop()
	if a.Token != first.Token || !strings.HasSuffix(a.RemotePath, "DSC00001.DNG") {
		t.Fatalf("retried record paired with %q", a.RemotePath)
	}
	if b.Token != second.Token || !strings.HasSuffix(b.RemotePath, "DSC00002.DNG") {
		t.Fatalf("second record paired with %q", b.RemotePath)
	}
	if !pending.Drained() {
		t.Fatal("pending queue not fully acknowledged after retries")
	}
}

func TestDownloadAbandonedAfterBudget(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, pending, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime
	pending.Push(record(1))
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "DSC00001.DNG", Size: 100}}
	store.fetchErrs["100__TSB/DSC00001.DNG"] = 10

	worker.pollOnce(context.Background()) // initial attempt fails, requeued
	worker.pollOnce(context.Background()) // retry fails, abandoned

	if pending.Len() != 0 {
		t.Fatal("abandoned record must leave the pending queue")
	}
	if analysis.Len() != 0 {
		t.Fatal("abandoned record must not reach analysis")
	}
	if _, seen := worker.seen["/DCIM/100__TSB/DSC00001.DNG"]; !seen {
		t.Fatal("abandoned file must be marked seen")
	}
}

func TestDownloadedFileIsDatePrefixed(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, pending, analysis := newTestWorker(t, store, nil)

	worker.pollOnce(context.Background()) // prime
	pending.Push(record(1))
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "DSC00001.DNG", Size: 9}}
	store.content["100__TSB/DSC00001.DNG"] = []byte("raw-bytes")
	worker.pollOnce(context.Background())

	got, ok := analysis.TryPop()
	if !ok {
		t.Fatal("expected a downloaded record")
	}
	prefix := time.Now().Format("060102") + "_"
	if !strings.HasPrefix(got.Filename, prefix) || !strings.HasSuffix(got.Filename, "DSC00001.DNG") {
		t.Fatalf("unexpected local filename %q", got.Filename)
	}
	if got.Format != "DNG" {
		t.Fatalf("unexpected format %q", got.Format)
	}
	data, err := os.ReadFile(got.LocalPath)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "raw-bytes" {
		t.Fatalf("unexpected file contents %q", data)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(got.LocalPath), got.Filename+".part")); !os.IsNotExist(err) {
		t.Fatal("temporary download file left behind")
	}
}

func TestJournalRecordsDownloadLifecycle(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	journal := newFakeJournal()
	worker, pending, analysis := newTestWorker(t, store, journal)

	worker.pollOnce(context.Background()) // prime
	rec := record(1)
	pending.Push(rec)
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "DSC00001.DNG", Size: 100}}
	worker.pollOnce(context.Background())

	if _, ok := analysis.TryPop(); !ok {
		t.Fatal("expected a downloaded record")
	}
	token := rec.Token.String()
	statuses := journal.statuses[token]
	if len(statuses) != 1 || statuses[0] != sessionstore.StatusDownloading {
		t.Fatalf("unexpected status transitions %v", statuses)
	}
	if !strings.HasSuffix(journal.files[token], "DSC00001.DNG") {
		t.Fatalf("unexpected journaled filename %q", journal.files[token])
	}
}

func TestJournalRecordsAbandonedDownload(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	journal := newFakeJournal()
	worker, pending, _ := newTestWorker(t, store, journal)

	worker.pollOnce(context.Background()) // prime
	rec := record(1)
	pending.Push(rec)
	store.files["100__TSB"] = []flashair.FileInfo{{Name: "DSC00001.DNG", Size: 100}}
	store.fetchErrs["100__TSB/DSC00001.DNG"] = 10

	worker.pollOnce(context.Background())
	worker.pollOnce(context.Background())

	if journal.failed[rec.Token.String()] == "" {
		t.Fatal("abandoned download must be journaled as failed")
	}
}

func TestRunStopsAfterDrain(t *testing.T) {
	store := newFakeStore()
	store.dirs = []string{"100__TSB"}
	worker, _, _ := newTestWorker(t, store, nil)

	done := make(chan error, 1)
	go func() { done <- worker.Run(context.Background()) }()
	worker.RequestStop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after drain")
	}
}
