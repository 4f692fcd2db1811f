package sqlite

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yegors/batchscribe/pkg/logger"
)

func newTestStorage(t *testing.T) *RunStorage {
	t.Helper()
	store, err := NewRunStorage(filepath.Join(t.TempDir(), "test.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewRunStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(startedAt time.Time) *RunRecord {
	return &RunRecord{
		StartedAt:         startedAt,
		FinishedAt:        startedAt.Add(90 * time.Second),
		InputDir:          "audios",
		OutputDir:         "transcripts",
		Backend:           "fasterwhisper",
		Model:             "large-v3",
		FilesTotal:        3,
		FilesFailed:       1,
		TotalDurationSecs: 1234.5,
	}
}

func TestStoreAndGetRun(t *testing.T) {
	store := newTestStorage(t)

	startedAt := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	id, err := store.StoreRun(sampleRun(startedAt))
	if err != nil {
		t.Fatalf("StoreRun: %v", err)
	}
	if id <= 0 {
		t.Fatalf("StoreRun returned id %d", id)
	}

	got, err := store.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if !got.StartedAt.Equal(startedAt) {
		t.Errorf("started_at = %v, want %v", got.StartedAt, startedAt)
	}
	if got.Backend != "fasterwhisper" || got.Model != "large-v3" {
		t.Errorf("engine fields = %q/%q", got.Backend, got.Model)
	}
	if got.FilesTotal != 3 || got.FilesFailed != 1 {
		t.Errorf("file counts = %d/%d, want 3/1", got.FilesTotal, got.FilesFailed)
	}
	if got.TotalDurationSecs != 1234.5 {
		t.Errorf("total duration = %v, want 1234.5", got.TotalDurationSecs)
	}
}

func TestGetRunNotFound(t *testing.T) {
	store := newTestStorage(t)

	_, err := store.GetRun(42)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestGetRunsOrderAndPagination(t *testing.T) {
	store := newTestStorage(t)

	base := time.Date(2026, 8, 25, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if _, err := store.StoreRun(sampleRun(base.Add(time.Duration(i) * time.Hour))); err != nil {
			t.Fatalf("StoreRun %d: %v", i, err)
		}
	}

	runs, err := store.GetRuns(2, 0)
	if err != nil {
		t.Fatalf("GetRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if !runs[0].StartedAt.After(runs[1].StartedAt) {
		t.Errorf("runs not in most-recent-first order: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}

	rest, err := store.GetRuns(2, 2)
	if err != nil {
		t.Fatalf("GetRuns offset: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("got %d runs at offset 2, want 1", len(rest))
	}
}

func TestStoreAndGetRunFiles(t *testing.T) {
	store := newTestStorage(t)

	runID, err := store.StoreRun(sampleRun(time.Now().UTC()))
	if err != nil {
		t.Fatalf("StoreRun: %v", err)
	}

	files := []*RunFileRecord{
		{RunID: runID, Position: 2, Name: "2 dos.mp3", OutputBase: "2 - 2 dos", Status: "failed", Error: "decode blew up"},
		{RunID: runID, Position: 1, Name: "1 uno.mp3", OutputBase: "1 - 1 uno", DurationSecs: 10, Status: "ok"},
	}
	for _, f := range files {
		if _, err := store.StoreRunFile(f); err != nil {
			t.Fatalf("StoreRunFile %s: %v", f.Name, err)
		}
	}

	got, err := store.GetRunFiles(runID)
	if err != nil {
		t.Fatalf("GetRunFiles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d files, want 2", len(got))
	}
	// Ordered by position regardless of insertion order.
	if got[0].Name != "1 uno.mp3" || got[1].Name != "2 dos.mp3" {
		t.Fatalf("files out of order: %q then %q", got[0].Name, got[1].Name)
	}
	if got[0].Status != "ok" || got[0].DurationSecs != 10 {
		t.Errorf("first file = %+v", got[0])
	}
	if got[1].Status != "failed" || got[1].Error != "decode blew up" {
		t.Errorf("second file = %+v", got[1])
	}
}

func TestGetRunFilesEmptyRun(t *testing.T) {
	store := newTestStorage(t)

	runID, err := store.StoreRun(sampleRun(time.Now().UTC()))
	if err != nil {
		t.Fatalf("StoreRun: %v", err)
	}
	got, err := store.GetRunFiles(runID)
	if err != nil {
		t.Fatalf("GetRunFiles: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d files for empty run", len(got))
	}
}
