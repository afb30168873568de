package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/partyhost/game/config"
	"github.com/wricardo/partyhost/game/minefield"
	"github.com/wricardo/partyhost/game/service"
	"github.com/wricardo/partyhost/game/session"
	"github.com/wricardo/partyhost/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	coordinator *service.Coordinator
	hub         *websocket.Hub
	router      *mux.Router
	logger      *zap.Logger
}

// FieldView is the minefield as served over HTTP.
type FieldView struct {
	Preset string             `json:"preset"`
	Stats  minefield.Stats    `json:"stats"`
	Cells  [][]minefield.Cell `json:"cells"`
}

// RevealResult answers a reveal request.
type RevealResult struct {
	Detonated bool      `json:"detonated"`
	Revealed  int       `json:"revealed"`
	Field     FieldView `json:"field"`
}

// savePresetRequest is a preset plus the id it is stored under. The id
// defaults to the preset name.
type savePresetRequest struct {
	ID string `json:"id"`
	minefield.Preset
}

type cellRequest struct {
	Row *int `json:"row"`
	Col *int `json:"col"`
}

// NewServer creates a new API server. The coordinator is only touched from
// the hub's loop.
func NewServer(coordinator *service.Coordinator, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		coordinator: coordinator,
		hub:         hub,
		router:      mux.NewRouter(),
		logger:      logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.logRequests)

	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Rooms
	api.HandleFunc("/rooms", s.handleListRooms).Methods("GET")
	api.HandleFunc("/rooms/{code}", s.handleGetRoom).Methods("GET")

	// Minefield
	api.HandleFunc("/minefield", s.handleGetField).Methods("GET")
	api.HandleFunc("/minefield/reveal", s.handleReveal).Methods("POST")
	api.HandleFunc("/minefield/flag", s.handleFlag).Methods("POST")
	api.HandleFunc("/minefield/reset", s.handleResetField).Methods("POST")

	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")

	// WebSocket
	s.router.HandleFunc("/ws", s.hub.ServeWS)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// onLoop runs fn on the hub loop, answering 503 if the hub is gone.
func (s *Server) onLoop(w http.ResponseWriter, r *http.Request, fn func()) bool {
	if err := s.hub.Do(r.Context(), fn); err != nil {
		s.logger.Warn("hub unavailable", zap.String("path", r.URL.Path), zap.Error(err))
		respondError(w, http.StatusServiceUnavailable, "server is shutting down")
		return false
	}
	return true
}

func (s *Server) fieldView() FieldView {
	snap := s.coordinator.FieldSnapshot()
	return FieldView{
		Preset: s.coordinator.Stats().Preset,
		Stats:  snap.Stats(),
		Cells:  snap.Cells,
	}
}

// fieldErrorStatus maps minefield rejections to HTTP statuses.
func fieldErrorStatus(err error) int {
	switch {
	case errors.Is(err, minefield.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, minefield.ErrAlreadyRevealed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeCell(r *http.Request) (int, int, bool) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Row == nil || req.Col == nil {
		return 0, 0, false
	}
	return *req.Row, *req.Col, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var stats service.Stats
	var conns int
	if !s.onLoop(w, r, func() {
		stats = s.coordinator.Stats()
		conns = s.hub.Connections()
	}) {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"connections": conns,
		"stats":       stats,
	})
}

// Room Handlers

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	var rooms []session.RoomInfo
	if !s.onLoop(w, r, func() { rooms = s.coordinator.Rooms() }) {
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(rooms),
		"rooms": rooms,
	})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]

	var info session.RoomInfo
	var err error
	if !s.onLoop(w, r, func() { info, err = s.coordinator.Room(code) }) {
		return
	}
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, info)
}

// Minefield Handlers

func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	var view FieldView
	if !s.onLoop(w, r, func() { view = s.fieldView() }) {
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleReveal(w http.ResponseWriter, r *http.Request) {
	row, col, ok := decodeCell(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	var out minefield.Outcome
	var view FieldView
	var err error
	if !s.onLoop(w, r, func() {
		out, err = s.coordinator.RevealCell(row, col)
		view = s.fieldView()
	}) {
		return
	}
	if err != nil {
		respondError(w, fieldErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, RevealResult{
		Detonated: out.Detonated,
		Revealed:  out.Revealed,
		Field:     view,
	})
}

func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	row, col, ok := decodeCell(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "row and col are required")
		return
	}

	var view FieldView
	var err error
	if !s.onLoop(w, r, func() {
		err = s.coordinator.FlagCell(row, col)
		view = s.fieldView()
	}) {
		return
	}
	if err != nil {
		respondError(w, fieldErrorStatus(err), err.Error())
		return
	}

	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetField(w http.ResponseWriter, r *http.Request) {
	var view FieldView
	var err error
	if !s.onLoop(w, r, func() {
		err = s.coordinator.ResetField()
		view = s.fieldView()
	}) {
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("minefield reset over http")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Minefield reset successfully",
		"field":   view,
	})
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	// The catalog is safe for concurrent use, so this stays off the loop.
	presets, err := s.coordinator.Presets()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ID == "" {
		req.ID = req.Name
	}
	if !config.ValidID(req.ID) {
		respondError(w, http.StatusBadRequest, "Preset id may only contain letters, digits, '-' and '_'")
		return
	}
	if err := minefield.ValidatePreset(&req.Preset); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Like listing, saving only touches the catalog and stays off the loop.
	if err := s.coordinator.SavePreset(req.ID, &req.Preset); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to save preset: %v", err))
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Preset saved successfully",
		"preset_id": req.ID,
	})
}
