package analyzer

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"shutterpro/internal/archive"
	"shutterpro/internal/capture"
	"shutterpro/internal/logging"
	"shutterpro/internal/metadata"
	"shutterpro/internal/testsupport"
)

type fakeDecoder struct {
	fields   metadata.Fields
	failures int
	calls    int
}

func (d *fakeDecoder) Decode(string) (metadata.Fields, error) {
	d.calls++
	if d.calls <= d.failures {
		return metadata.Fields{}, errors.New("file still settling")
	}
	return d.fields, nil
}

func newTestWorker(t *testing.T, decoder metadata.Decoder) (*Worker, *capture.Queue[capture.Record]) {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithEquipment(800, 200, 4.88))
	cfg.Session.Objective = "M42"
	queue := capture.NewQueue[capture.Record]()
	return New(queue, decoder, nil, cfg, logging.NewNop()), queue
}

func testRecord() capture.Record {
	ra := 5.588
	dec := -5.39
	lon := 135.0
	return capture.Record{
		Token:        uuid.New(),
		Shot:         1,
		Mode:         capture.ModeBulb,
		TriggerUTC:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		TriggerLocal: time.Date(2026, 8, 30, 21, 0, 0, 0, time.FixedZone("JST", 9*3600)),
		ActualHold:   30350 * time.Millisecond,
		Telemetry: capture.Snapshot{
			RAHours:    &ra,
			DecDeg:     &dec,
			SiteLonDeg: &lon,
			PierSide:   "WEST",
		},
		LocalPath: "/tmp/260830_DSC00001.DNG",
		Filename:  "260830_DSC00001.DNG",
		Format:    "DNG",
		SizeBytes: 25600000,
	}
}

func TestProcessArchivesAllForms(t *testing.T) {
	iso := 800
	exposure := 30.0
	decoder := &fakeDecoder{fields: metadata.Fields{
		Width:       6000,
		Height:      4000,
		ISO:         &iso,
		ExposureSec: &exposure,
		Model:       "ILCE-7M3",
	}}
	worker, _ := newTestWorker(t, decoder)

	if err := worker.process(context.Background(), testRecord()); err != nil {
		t.Fatalf("process: %v", err)
	}

	entry, err := archive.ReadLatest(worker.LatestPath())
	if err != nil {
		t.Fatalf("ReadLatest: %v", err)
	}
	if entry.Record.File.Name != "260830_DSC00001.DNG" {
		t.Fatalf("unexpected latest entry %q", entry.Record.File.Name)
	}
	if entry.Record.Exif.Model != "ILCE-7M3" {
		t.Fatalf("decoded model not archived: %q", entry.Record.Exif.Model)
	}
	if entry.Record.Analysis.SolveStatus != archive.SolvePending {
		t.Fatalf("unexpected solve status %q", entry.Record.Analysis.SolveStatus)
	}

	if entry.Record.Analysis.Derived.FNumber == nil || *entry.Record.Analysis.Derived.FNumber != 4.0 {
		t.Fatalf("unexpected f-number %v", entry.Record.Analysis.Derived.FNumber)
	}
	scale := entry.Record.Analysis.Derived.PixelScaleArcsec
	if scale == nil || math.Abs(*scale-1.258) > 0.01 {
		t.Fatalf("unexpected pixel scale %v", scale)
	}
	delta := entry.Record.Analysis.Derived.ExposureDeltaSec
	if delta == nil || math.Abs(*delta-0.35) > 0.001 {
		t.Fatalf("unexpected exposure delta %v", delta)
	}
	if entry.Record.Analysis.Derived.HourAngleHours == nil {
		t.Fatal("hour angle not derived")
	}
	if entry.Record.Analysis.Derived.MeridianSide == "" {
		t.Fatal("meridian side not derived")
	}

	updated, err := archive.UpdateHistoryByFilename(worker.HistoryPath(), "260830_DSC00001.DNG", func(*archive.Entry) {})
	if err != nil || updated != 1 {
		t.Fatalf("history entry missing: updated=%d err=%v", updated, err)
	}
}

func TestPierSideInferredFromHourAngle(t *testing.T) {
	worker, _ := newTestWorker(t, &fakeDecoder{})
	rec := testRecord()
	rec.Telemetry.PierSide = ""

	entry := worker.buildEntry(rec)
	side := entry.Record.Mount.SideOfPier
	if side == "" || side == "Unknown" {
		t.Fatalf("pier side not inferred: %q", side)
	}
	if side != entry.Record.Analysis.Derived.MeridianSide {
		t.Fatalf("pier side %q disagrees with derived meridian side %q",
			side, entry.Record.Analysis.Derived.MeridianSide)
	}
}

func TestPierSideUnknownWithoutHourAngle(t *testing.T) {
	worker, _ := newTestWorker(t, &fakeDecoder{})
	rec := testRecord()
	rec.Telemetry.PierSide = ""
	rec.Telemetry.SiteLonDeg = nil

	entry := worker.buildEntry(rec)
	if entry.Record.Mount.SideOfPier != "Unknown" {
		t.Fatalf("expected Unknown pier side, got %q", entry.Record.Mount.SideOfPier)
	}
}

func TestDecodeRetriesThenSucceeds(t *testing.T) {
	exposure := 30.0
	decoder := &fakeDecoder{failures: 3, fields: metadata.Fields{ExposureSec: &exposure}}
	worker, _ := newTestWorker(t, decoder)

	fields := worker.decodeWithRetry(context.Background(), "/tmp/image.dng")
	if decoder.calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", decoder.calls)
	}
	if fields.ExposureSec == nil {
		t.Fatal("expected decoded fields after retries")
	}
}

func TestDecodeGivesUpAfterBudget(t *testing.T) {
	decoder := &fakeDecoder{failures: 100}
	worker, _ := newTestWorker(t, decoder)

	fields := worker.decodeWithRetry(context.Background(), "/tmp/image.dng")
	if decoder.calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", decoder.calls)
	}
	if fields.ExposureSec != nil || fields.ISO != nil {
		t.Fatal("expected empty fields after exhausted budget")
	}
}

func TestProcessArchivesUndecodedRecord(t *testing.T) {
	worker, _ := newTestWorker(t, &fakeDecoder{failures: 100})

	if err := worker.process(context.Background(), testRecord()); err != nil {
		t.Fatalf("process: %v", err)
	}
	entry, err := archive.ReadLatest(worker.LatestPath())
	if err != nil {
		t.Fatal(err)
	}
	if entry.Record.Exif.ISO != nil {
		t.Fatal("undecoded record should have no ISO")
	}
	// Shutter falls back to the measured hold.
	if math.Abs(entry.Record.Exif.ShutterSec-30.35) > 0.001 {
		t.Fatalf("unexpected shutter fallback %f", entry.Record.Exif.ShutterSec)
	}
	// Model falls back to the configured camera.
	if entry.Record.Exif.Model != worker.cfg.Equipment.Camera {
		t.Fatalf("unexpected model fallback %q", entry.Record.Exif.Model)
	}
}

func TestRunDrainsQueueOnStop(t *testing.T) {
	worker, queue := newTestWorker(t, &fakeDecoder{})
	queue.Push(testRecord())

	done := make(chan error, 1)
	go func() { done <- worker.Run(context.Background()) }()
	worker.RequestStop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not drain and stop")
	}

	if _, err := archive.ReadLatest(worker.LatestPath()); err != nil {
		t.Fatalf("queued record was not archived before stop: %v", err)
	}
}
