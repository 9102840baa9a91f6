package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/aretw0/weft"
	"github.com/aretw0/weft/internal/logging"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/ports"
	"github.com/aretw0/weft/pkg/schema"
)

// RequestIDHeader carries the id assigned to every request.
const RequestIDHeader = "X-Request-ID"

// Server exposes a ports.Engine over HTTP.
type Server struct {
	Engine  ports.Engine
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// RenderRequest is the body of POST /threads/{thread}/render.
type RenderRequest struct {
	Mutable bool `json:"mutable,omitempty"`
	Start   int  `json:"start,omitempty"`
	Input   any  `json:"input,omitempty"`
}

// ContinueRequest is the body of POST /threads/{thread}/continue.
type ContinueRequest struct {
	Input any `json:"input,omitempty"`
}

// Action describes an action with its arguments as JSON schema.
type Action struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/threads", func(r chi.Router) {
		r.Get("/", s.ListThreads)
		r.Route("/{thread}", func(r chi.Router) {
			r.Get("/", s.GetThread)
			r.Post("/render", s.Render)
			r.Post("/continue", s.Continue)
			r.Get("/actions", s.ListActions)
			r.Post("/actions/{action}", s.Execute)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "path", r.URL.Path, "err", err)
	}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := http.StatusInternalServerError
	var validation *schema.AggregateError
	switch {
	case errors.Is(err, domain.ErrThreadNotFound), errors.Is(err, domain.ErrActionNotFound):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error(op+" failed", "request_id", w.Header().Get(RequestIDHeader), "err", err)
	} else {
		s.logger.Warn(op+" rejected", "request_id", w.Header().Get(RequestIDHeader), "err", err)
	}
	body := map[string]any{"error": fmt.Sprintf("%s: %v", op, err)}
	if validation != nil {
		body["action"] = validation.Action
		body["fields"] = validation.Fields()
	}
	s.writeJSON(w, r, status, body)
}

// decodeBody decodes an optional JSON body into v.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"app":     "weft-http",
		"version": strings.TrimSpace(weft.Version),
	})
}

// ListThreads handles the GET /threads request.
func (s *Server) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := s.Engine.Threads(r.Context())
	if err != nil {
		s.writeError(w, r, "list threads", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"threads": threads})
}

// GetThread handles the GET /threads/{thread} request.
func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	turn, err := s.Engine.Latest(r.Context(), chi.URLParam(r, "thread"))
	if err != nil {
		s.writeError(w, r, "latest", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, turn)
}

// Render handles the POST /threads/{thread}/render request.
func (s *Server) Render(w http.ResponseWriter, r *http.Request) {
	var body RenderRequest
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	thread := chi.URLParam(r, "thread")
	turn, err := s.Engine.Render(r.Context(), ports.RenderRequest{
		Thread:  thread,
		Mutable: body.Mutable,
		Start:   body.Start,
		Input:   body.Input,
	})
	if err != nil {
		s.writeError(w, r, "render", err)
		return
	}
	s.broadcast(thread, turn)
	s.writeJSON(w, r, http.StatusOK, turn)
}

// Continue handles the POST /threads/{thread}/continue request.
func (s *Server) Continue(w http.ResponseWriter, r *http.Request) {
	var body ContinueRequest
	if err := decodeBody(r, &body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	thread := chi.URLParam(r, "thread")
	turn, err := s.Engine.Continue(r.Context(), thread, body.Input)
	if err != nil {
		s.writeError(w, r, "continue", err)
		return
	}
	s.broadcast(thread, turn)
	s.writeJSON(w, r, http.StatusOK, turn)
}

// ListActions handles the GET /threads/{thread}/actions request.
func (s *Server) ListActions(w http.ResponseWriter, r *http.Request) {
	turn, err := s.Engine.Latest(r.Context(), chi.URLParam(r, "thread"))
	if err != nil {
		s.writeError(w, r, "list actions", err)
		return
	}
	actions := make([]Action, 0, len(turn.Descriptors))
	for _, d := range turn.Descriptors {
		in, err := d.Parameters.JSONSchema()
		if err != nil {
			s.writeError(w, r, "list actions", err)
			return
		}
		actions = append(actions, Action{Name: d.Name, Description: d.Description, InputSchema: in})
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]Action{"actions": actions})
}

// Execute handles the POST /threads/{thread}/actions/{action} request.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	args := map[string]any{}
	if err := decodeBody(r, &args); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := s.Engine.Execute(r.Context(), chi.URLParam(r, "thread"), chi.URLParam(r, "action"), args)
	if err != nil {
		s.writeError(w, r, "execute", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, result)
}

func (s *Server) broadcast(thread string, turn ports.RenderedTurn) {
	bytes, err := json.Marshal(turn.TurnRecord)
	if err != nil {
		s.logger.Error("turn encode failed", "thread", thread, "err", err)
		return
	}
	s.Streams.Broadcast(thread, string(bytes))
}

// SubscribeEvents handles the GET /threads/{thread}/events request (SSE).
// Every turn rendered for the thread is sent as one "turn" event.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	thread := chi.URLParam(r, "thread")
	ch, cancel := s.Streams.Subscribe(thread)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	s.logger.Info("SSE: subscribed", "thread", thread)
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: turn\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan string]struct{} // thread -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
	}
}

// Subscribe registers a buffered channel for thread. The returned function unsubscribes and closes it.
func (sm *StreamManager) Subscribe(thread string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[thread]; !ok {
		sm.subscribers[thread] = make(map[chan string]struct{})
	}
	sm.subscribers[thread][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[thread]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, thread)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of thread, dropping it for slow clients.
func (sm *StreamManager) Broadcast(thread string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	for ch := range sm.subscribers[thread] {
		select {
		case ch <- msg:
		default:
			slog.Warn("SSE: client buffer full, dropping message", "thread", thread)
		}
	}
}

// Subscribers returns the number of subscribers of thread.
func (sm *StreamManager) Subscribers(thread string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[thread])
}
