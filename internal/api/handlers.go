package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/manpreetbhatti/roomsync/internal/db"
	"github.com/manpreetbhatti/roomsync/internal/room"
	"github.com/manpreetbhatti/roomsync/internal/ws"
)

// API is the read-only admin surface: live rooms from the registry and
// past room sessions from the journal. database may be nil when the
// journal is disabled.
type API struct {
	registry *room.Registry
	hub      *ws.Hub
	database *db.Database
	log      *zap.Logger
}

func New(registry *room.Registry, hub *ws.Hub, database *db.Database, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{
		registry: registry,
		hub:      hub,
		database: database,
		log:      log,
	}
}

// Routes mounts every handler on mux.
func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.HealthHandler)
	mux.HandleFunc("/api/stats", a.StatsHandler)
	mux.HandleFunc("/api/rooms", a.RoomsRouter)
	mux.HandleFunc("/api/rooms/", a.RoomsRouter)
	mux.HandleFunc("/api/sessions", a.SessionsHandler)
}

func (a *API) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		a.log.Warn("encoding json response failed", zap.Error(err))
	}
}

func (a *API) errorResponse(w http.ResponseWriter, status int, message string) {
	a.jsonResponse(w, status, map[string]string{"error": message})
}

func pagination(r *http.Request, defaultLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = defaultLimit
	}

	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	a.jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	rooms := a.registry.Rooms()
	occupied := lo.CountBy(rooms, func(info room.Info) bool { return info.State == room.Active.String() })
	stats := map[string]any{
		"active_rooms":   len(rooms),
		"occupied_rooms": occupied,
		"joined_members": lo.SumBy(rooms, func(info room.Info) int { return info.Members }),
		"open_sockets":   a.hub.GetClientCount(),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	if a.database != nil {
		journal, err := a.database.GetStats()
		if err != nil {
			a.log.Warn("journal stats failed", zap.Error(err))
		} else {
			stats["journal"] = journal
		}
	}

	a.jsonResponse(w, http.StatusOK, stats)
}

// Room handlers

func (a *API) ListRoomsHandler(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 20)

	rooms := a.registry.Rooms()
	if state := r.URL.Query().Get("state"); state != "" {
		rooms = lo.Filter(rooms, func(info room.Info, _ int) bool { return info.State == state })
	}

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"rooms":  lo.Subset(rooms, offset, uint(limit)),
		"total":  len(rooms),
		"limit":  limit,
		"offset": offset,
	})
}

type RoomResponse struct {
	room.Info
	Sessions int `json:"sessions,omitempty"`
}

func (a *API) GetRoomHandler(w http.ResponseWriter, r *http.Request) {
	// Extract room ID from path: /api/rooms/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/rooms/")
	roomID := strings.TrimSuffix(path, "/")

	if roomID == "" {
		a.errorResponse(w, http.StatusBadRequest, "Room ID is required")
		return
	}

	// Lookup never creates; asking about a room must not bring it to life
	rm, ok := a.registry.Lookup(roomID)
	if !ok {
		a.errorResponse(w, http.StatusNotFound, "Room not found")
		return
	}

	resp := RoomResponse{Info: rm.Info()}
	if a.database != nil {
		count, err := a.database.GetSessionCount(roomID)
		if err != nil {
			a.log.Warn("session count failed", zap.String("room", roomID), zap.Error(err))
		}
		resp.Sessions = count
	}

	a.jsonResponse(w, http.StatusOK, resp)
}

func (a *API) RoomsRouter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/rooms")

	// /api/rooms or /api/rooms/
	if path == "" || path == "/" {
		a.ListRoomsHandler(w, r)
		return
	}

	// /api/rooms/{id}
	a.GetRoomHandler(w, r)
}

// Session handlers

// SessionsHandler lists journaled room lifetimes, newest first, optionally
// for a single room_id.
func (a *API) SessionsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		a.errorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if a.database == nil {
		a.errorResponse(w, http.StatusServiceUnavailable, "Journal disabled")
		return
	}

	limit, offset := pagination(r, 50)
	roomID := r.URL.Query().Get("room_id")

	sessions, err := a.database.ListSessions(roomID, limit, offset)
	if err != nil {
		a.log.Warn("listing sessions failed", zap.Error(err))
		a.errorResponse(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	a.jsonResponse(w, http.StatusOK, map[string]any{
		"sessions": sessions,
		"room_id":  roomID,
		"limit":    limit,
		"offset":   offset,
	})
}
