package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/angel-problem/game/engine"
	"github.com/wricardo/angel-problem/game/service"
	"github.com/wricardo/angel-problem/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
}

// NewServer creates a new API server. State broadcasts reach the hub through
// each table's observer; the server only hands new connections to it.
func NewServer(gameService service.GameService, hub *websocket.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  logger,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Table state
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/moves", s.handleGetLegalMoves).Methods("GET")
	api.HandleFunc("/sessions/{id}/history", s.handleGetHistory).Methods("GET")

	// Table actions
	api.HandleFunc("/sessions/{id}/roadblock", s.handleRoadblock).Methods("POST")
	api.HandleFunc("/sessions/{id}/angel", s.handleMoveAngel).Methods("POST")
	api.HandleFunc("/sessions/{id}/click", s.handleClick).Methods("POST")
	api.HandleFunc("/sessions/{id}/reset", s.handleReset).Methods("POST")
	api.HandleFunc("/sessions/{id}/mode", s.handleSetMode).Methods("PUT")
	api.HandleFunc("/sessions/{id}/power", s.handleSetPower).Methods("PUT")

	// Presets
	api.HandleFunc("/presets", s.handleListPresets).Methods("GET")
	api.HandleFunc("/presets", s.handleSavePreset).Methods("POST")
	api.HandleFunc("/presets/refresh", s.handleRefreshPresets).Methods("POST")
	api.HandleFunc("/presets/{name}", s.handleGetPreset).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
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

// statusFor maps service and engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrPresetNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidPreset),
		errors.Is(err, engine.ErrInvalidMode),
		errors.Is(err, engine.ErrInvalidPower):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrGameOver):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}
	respondError(w, status, err.Error())
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var opts service.CreateSessionOptions

	// An empty body selects the default preset
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	session, err := s.service.CreateSession(r.Context(), opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("preset", session.Preset))

	respondJSON(w, http.StatusCreated, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	opts := service.ListOptions{
		Sort:  query.Get("sort"),
		Order: query.Get("order"),
	}

	if opts.Sort == "" {
		opts.Sort = "accessed"
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}
	if opts.Sort != "created" && opts.Sort != "accessed" {
		respondError(w, http.StatusBadRequest, "sort must be 'created' or 'accessed'")
		return
	}
	if opts.Order != "asc" && opts.Order != "desc" {
		respondError(w, http.StatusBadRequest, "order must be 'asc' or 'desc'")
		return
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	sessions, err := s.service.ListSessions(r.Context(), opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"sessions": sessions,
		"sort":     opts.Sort,
		"order":    opts.Order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger.Info("session deleted", zap.String("session_id", sessionID))

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Table State Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetLegalMoves(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	moves, err := s.service.GetLegalMoves(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(moves),
		"moves": moves,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.HistoryOptions{
		Page:  1,
		Limit: engine.DefaultHistoryPageSize,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetHistory(r.Context(), sessionID, opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Table Action Handlers

type cellRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// decodeCell reads an {x, y} body; both coordinates are required
func decodeCell(r *http.Request) (int, int, error) {
	var req cellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return 0, 0, errors.New("invalid request body")
	}
	if req.X == nil || req.Y == nil {
		return 0, 0, errors.New("x and y are required")
	}
	return *req.X, *req.Y, nil
}

type cellAction func(s *Server, r *http.Request, sessionID string, x, y int) (*service.ActionResponse, error)

func (s *Server) handleCellAction(w http.ResponseWriter, r *http.Request, name string, action cellAction) {
	sessionID := mux.Vars(r)["id"]

	x, y, err := decodeCell(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := action(s, r, sessionID, x, y)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	fields := []zap.Field{
		zap.String("session_id", sessionID),
		zap.String("action", name),
		zap.Int("x", x),
		zap.Int("y", y),
		zap.Bool("accepted", resp.Result.Accepted),
		zap.String("turn", string(resp.Result.Turn)),
	}
	if resp.Result.Reason != "" {
		fields = append(fields, zap.String("reason", string(resp.Result.Reason)))
	}
	s.logger.Debug("table action", fields...)

	// Rule violations are reported in the result, not as HTTP errors
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRoadblock(w http.ResponseWriter, r *http.Request) {
	s.handleCellAction(w, r, "roadblock", func(s *Server, r *http.Request, id string, x, y int) (*service.ActionResponse, error) {
		return s.service.PlaceRoadblock(r.Context(), id, x, y)
	})
}

func (s *Server) handleMoveAngel(w http.ResponseWriter, r *http.Request) {
	s.handleCellAction(w, r, "angel", func(s *Server, r *http.Request, id string, x, y int) (*service.ActionResponse, error) {
		return s.service.MoveAngel(r.Context(), id, x, y)
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	s.handleCellAction(w, r, "click", func(s *Server, r *http.Request, id string, x, y int) (*service.ActionResponse, error) {
		return s.service.Click(r.Context(), id, x, y)
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.Reset(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Game reset successfully",
		"state":   state,
	})
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Mode engine.Mode `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SetMode(r.Context(), sessionID, req.Mode)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetPower(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Power int `json:"power"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SetPower(r.Context(), sessionID, req.Power)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

// Preset Handlers

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.ListPresets(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleRefreshPresets(w http.ResponseWriter, r *http.Request) {
	presets, err := s.service.RefreshPresets(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger.Info("presets refreshed", zap.Int("count", len(presets)))
	respondJSON(w, http.StatusOK, presets)
}

func (s *Server) handleGetPreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	rules, err := s.service.LoadPreset(r.Context(), name)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, rules)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	var rules engine.Rules
	if err := json.NewDecoder(r.Body).Decode(&rules); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(rules.Name) == "" {
		respondError(w, http.StatusBadRequest, "Preset name is required")
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		id = presetIDFromName(rules.Name)
	}

	if err := s.service.SavePreset(r.Context(), id, &rules); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.logger.Info("preset saved", zap.String("preset", id))

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Preset saved successfully",
		"preset_id": id,
	})
}

// presetIDFromName turns "Wide Open" into "wide_open"
func presetIDFromName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket hub not available")
		return
	}

	s.hub.ServeWS(w, r, session.ID, session.State)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
