package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/manpreetbhatti/roomsync/internal/db"
	"github.com/manpreetbhatti/roomsync/internal/room"
	"github.com/manpreetbhatti/roomsync/internal/ws"
)

type testAPI struct {
	*API
	registry *room.Registry
	mux      *http.ServeMux
}

func setupTestAPI(t *testing.T, withJournal bool) (*testAPI, func()) {
	t.Helper()
	log := zaptest.NewLogger(t)

	tmpDir, err := os.MkdirTemp("", "roomsync-api-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	var database *db.Database
	opts := room.Options{GracePeriod: time.Hour, Logger: log}
	if withJournal {
		database, err = db.New(filepath.Join(tmpDir, "test.db"), log)
		if err != nil {
			os.RemoveAll(tmpDir)
			t.Fatalf("Failed to create database: %v", err)
		}
		opts.Recorder = database
	}

	registry := room.NewRegistry(opts)
	hub := ws.NewHub(room.NewRouter(registry, log), log, ws.Options{})

	api := New(registry, hub, database, log)
	mux := http.NewServeMux()
	api.Routes(mux)

	cleanup := func() {
		registry.Close()
		if database != nil {
			database.Close()
		}
		os.RemoveAll(tmpDir)
	}

	return &testAPI{API: api, registry: registry, mux: mux}, cleanup
}

func (a *testAPI) get(t *testing.T, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	a.mux.ServeHTTP(w, req)

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
	}
	return w.Code
}

func TestHealthHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t, false)
	defer cleanup()

	var response map[string]any
	if code := api.get(t, "/health", &response); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", response["status"])
	}
}

func TestStatsHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t, true)
	defer cleanup()

	api.registry.GetOrCreate("abc")
	api.registry.GetOrCreate("xyz")

	var response map[string]any
	if code := api.get(t, "/api/stats", &response); code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", code)
	}

	if response["active_rooms"] != float64(2) {
		t.Errorf("Expected 2 active rooms, got %v", response["active_rooms"])
	}
	if response["occupied_rooms"] != float64(0) {
		t.Errorf("Expected no occupied rooms, got %v", response["occupied_rooms"])
	}
	journal, ok := response["journal"].(map[string]any)
	if !ok {
		t.Fatalf("Expected journal stats, got %v", response["journal"])
	}
	if journal["open_session_count"] != float64(2) {
		t.Errorf("Expected 2 open sessions, got %v", journal["open_session_count"])
	}
}

func TestListRooms(t *testing.T) {
	api, cleanup := setupTestAPI(t, false)
	defer cleanup()

	for _, id := range []string{"c", "a", "e", "b", "d"} {
		api.registry.GetOrCreate(id)
	}

	var response struct {
		Rooms []room.Info `json:"rooms"`
		Total int         `json:"total"`
	}
	if code := api.get(t, "/api/rooms?limit=2&offset=1", &response); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if response.Total != 5 {
		t.Errorf("Expected total 5, got %d", response.Total)
	}
	if len(response.Rooms) != 2 || response.Rooms[0].ID != "b" || response.Rooms[1].ID != "c" {
		t.Errorf("Unexpected page: %+v", response.Rooms)
	}

	if code := api.get(t, "/api/rooms?state=active", &response); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if response.Total != 0 {
		t.Errorf("Expected no active rooms, got %d", response.Total)
	}
}

func TestGetRoom(t *testing.T) {
	api, cleanup := setupTestAPI(t, true)
	defer cleanup()

	api.registry.GetOrCreate("abc")

	var response RoomResponse
	if code := api.get(t, "/api/rooms/abc", &response); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if response.ID != "abc" || response.State != "draining" {
		t.Errorf("Unexpected room: %+v", response)
	}
	if response.Sessions != 1 {
		t.Errorf("Expected 1 journaled session, got %d", response.Sessions)
	}

	if code := api.get(t, "/api/rooms/missing", nil); code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", code)
	}
	if api.registry.Exists("missing") {
		t.Error("Looking up a room must not create it")
	}
}

func TestSessionsHandler(t *testing.T) {
	api, cleanup := setupTestAPI(t, true)
	defer cleanup()

	api.registry.GetOrCreate("abc")
	api.registry.GetOrCreate("xyz")

	var response struct {
		Sessions []db.Session `json:"sessions"`
	}
	if code := api.get(t, "/api/sessions?room_id=abc", &response); code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", code)
	}
	if len(response.Sessions) != 1 || response.Sessions[0].RoomID != "abc" {
		t.Errorf("Unexpected sessions: %+v", response.Sessions)
	}
}

func TestSessionsWithoutJournal(t *testing.T) {
	api, cleanup := setupTestAPI(t, false)
	defer cleanup()

	if code := api.get(t, "/api/sessions", nil); code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	api, cleanup := setupTestAPI(t, false)
	defer cleanup()

	for _, path := range []string{"/api/rooms", "/api/rooms/abc", "/api/stats", "/api/sessions"} {
		req := httptest.NewRequest(http.MethodDelete, path, nil)
		w := httptest.NewRecorder()
		api.mux.ServeHTTP(w, req)

		if w.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s: expected status 405, got %d", path, w.Code)
		}
	}
}
