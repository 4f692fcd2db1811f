package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/yegors/batchscribe/internal/storage/sqlite"
	"github.com/yegors/batchscribe/pkg/logger"
)

func newTestServer(t *testing.T) (*httptest.Server, *sqlite.RunStorage) {
	t.Helper()
	store, err := sqlite.NewRunStorage(filepath.Join(t.TempDir(), "test.db"), logger.NewNop())
	if err != nil {
		t.Fatalf("NewRunStorage: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	server := httptest.NewServer(NewRouter(store, logger.NewNop()).Routes())
	t.Cleanup(server.Close)
	return server, store
}

func storeTestRun(t *testing.T, store *sqlite.RunStorage) int64 {
	t.Helper()
	id, err := store.StoreRun(&sqlite.RunRecord{
		StartedAt:         time.Now().UTC(),
		FinishedAt:        time.Now().UTC(),
		InputDir:          "audios",
		OutputDir:         "transcripts",
		Backend:           "stub",
		Model:             "large-v3",
		FilesTotal:        1,
		TotalDurationSecs: 42,
	})
	if err != nil {
		t.Fatalf("StoreRun: %v", err)
	}
	return id
}

func getJSON(t *testing.T, url string, wantStatus int, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func TestGetRuns(t *testing.T) {
	server, store := newTestServer(t)
	storeTestRun(t, store)
	storeTestRun(t, store)

	var body struct {
		Count int                `json:"count"`
		Runs  []sqlite.RunRecord `json:"runs"`
	}
	getJSON(t, server.URL+"/api/runs", http.StatusOK, &body)

	if body.Count != 2 || len(body.Runs) != 2 {
		t.Fatalf("count = %d, runs = %d, want 2/2", body.Count, len(body.Runs))
	}
	if body.Runs[0].Backend != "stub" {
		t.Errorf("backend = %q, want stub", body.Runs[0].Backend)
	}
}

func TestGetRunsPagination(t *testing.T) {
	server, store := newTestServer(t)
	for i := 0; i < 3; i++ {
		storeTestRun(t, store)
	}

	var body struct {
		Count int `json:"count"`
	}
	getJSON(t, server.URL+"/api/runs?limit=2&offset=2", http.StatusOK, &body)
	if body.Count != 1 {
		t.Fatalf("count = %d, want 1", body.Count)
	}
}

func TestGetRunByID(t *testing.T) {
	server, store := newTestServer(t)
	id := storeTestRun(t, store)

	var run sqlite.RunRecord
	getJSON(t, server.URL+"/api/runs/1", http.StatusOK, &run)
	if run.ID != id {
		t.Fatalf("run id = %d, want %d", run.ID, id)
	}
	if run.TotalDurationSecs != 42 {
		t.Errorf("total duration = %v, want 42", run.TotalDurationSecs)
	}
}

func TestGetRunNotFound(t *testing.T) {
	server, _ := newTestServer(t)
	getJSON(t, server.URL+"/api/runs/999", http.StatusNotFound, nil)
}

func TestGetRunInvalidID(t *testing.T) {
	server, _ := newTestServer(t)
	getJSON(t, server.URL+"/api/runs/abc", http.StatusBadRequest, nil)
	getJSON(t, server.URL+"/api/runs/-1", http.StatusBadRequest, nil)
}

func TestGetRunFiles(t *testing.T) {
	server, store := newTestServer(t)
	id := storeTestRun(t, store)

	if _, err := store.StoreRunFile(&sqlite.RunFileRecord{
		RunID:      id,
		Position:   1,
		Name:       "1 uno.mp3",
		OutputBase: "1 - 1 uno",
		Status:     "ok",
	}); err != nil {
		t.Fatalf("StoreRunFile: %v", err)
	}

	var body struct {
		Count int                    `json:"count"`
		Files []sqlite.RunFileRecord `json:"files"`
	}
	getJSON(t, server.URL+"/api/runs/1/files", http.StatusOK, &body)
	if body.Count != 1 || len(body.Files) != 1 {
		t.Fatalf("count = %d, files = %d, want 1/1", body.Count, len(body.Files))
	}
	if body.Files[0].Name != "1 uno.mp3" || body.Files[0].Status != "ok" {
		t.Errorf("file = %+v", body.Files[0])
	}
}
