package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/cabird/gpt-chrome-latex-ext/model"
	"github.com/cabird/gpt-chrome-latex-ext/session"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
	"github.com/cabird/gpt-chrome-latex-ext/usage"
)

// DefaultAddr is where the extension expects the bridge.
const DefaultAddr = "127.0.0.1:8765"

// maxBodyBytes bounds request bodies; selections can be whole documents.
const maxBodyBytes = 8 << 20

// Server exposes a session over HTTP and WebSocket.
type Server struct {
	session *session.Session
	hub     *Hub
	router  *mux.Router
	handler http.Handler
	logger  *slog.Logger

	// notifyMu orders state changes with the events they produce.
	notifyMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server for sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		router:  mux.NewRouter(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.hub = NewHub(s.logger)
	s.routes()
	s.handler = recovery(s.logger)(logging(s.logger)(cors(s.router)))
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/selection", s.handlePostSelection).Methods(http.MethodPost)
	api.HandleFunc("/selection", s.handleGetSelection).Methods(http.MethodGet)
	api.HandleFunc("/fields", s.handlePutFields).Methods(http.MethodPut)
	api.HandleFunc("/summary", s.handleGetSummary).Methods(http.MethodGet)
	api.HandleFunc("/submit", s.handleSubmit).Methods(http.MethodPost)
	api.HandleFunc("/cancel", s.handleCancel).Methods(http.MethodPost)
	api.HandleFunc("/settings", s.handleGetSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.handlePutSettings).Methods(http.MethodPut)
	api.HandleFunc("/usage", s.handleGetUsage).Methods(http.MethodGet)
	s.router.HandleFunc("/ws", s.handleWS).Methods(http.MethodGet)
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Hub returns the event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// ListenAndServe serves on addr, which must be a loopback address, until
// ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("parse address %q: %w", addr, err)
	}
	if !isLoopbackHost(host) {
		return fmt.Errorf("%w: %s", ErrNotLoopback, addr)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.logger.Info("bridge listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.session.Cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// FollowSettings applies settings from updates, typically a FileStore
// watch, and notifies clients. It returns when updates is closed or ctx is
// done.
func (s *Server) FollowSettings(ctx context.Context, updates <-chan *settings.Settings) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			s.update(func() bool {
				s.session.ApplySettings(cfg)
				s.hub.Broadcast(EventSettingsUpdated, cfg.Redacted())
				return true
			})
			s.logger.Info("settings reloaded", slog.Int("profiles", len(cfg.Profiles)))
		}
	}
}

type selectionRequest struct {
	Text string `json:"text"`
}

type selectionResponse struct {
	Text string `json:"text"`

	// Accepted is false when blank text was ignored.
	Accepted bool `json:"accepted"`
}

type fieldsRequest struct {
	Instruction *string `json:"instruction,omitempty"`
	Context     *string `json:"context,omitempty"`
}

// SummaryResponse is a Summary with display values for the popup.
type SummaryResponse struct {
	usage.Summary
	TotalText string `json:"total_text"`
	Warning   bool   `json:"warning"`
	CanSubmit bool   `json:"can_submit"`

	// ContextWillBeCut warns that submitting now would shorten the context
	// to fit the model window.
	ContextWillBeCut bool `json:"context_will_be_cut"`
}

// UsageReport is the body of GET /api/usage.
type UsageReport struct {
	Models           map[model.ModelName]model.Usage `json:"models"`
	Total            model.Usage                     `json:"total"`
	EstimatedCostUSD float64                         `json:"estimated_cost_usd"`
}

func (s *Server) summary() SummaryResponse {
	sum := s.session.Summary()
	total := sum.Total()
	return SummaryResponse{
		Summary:   sum,
		TotalText: total.Text,
		Warning:   total.Warning,
		CanSubmit: s.session.CanSubmit(),

		ContextWillBeCut: s.session.ContextWillBeCut(),
	}
}

// update runs change and, when it reports a change, broadcasts the
// resulting summary. Updates are serialized, so the last USAGE_UPDATED
// event describes the current state.
func (s *Server) update(change func() bool) SummaryResponse {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	changed := change == nil || change()
	sum := s.summary()
	if changed {
		s.hub.Broadcast(EventUsageUpdated, sum)
	}
	return sum
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		sendError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handlePostSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		accepted bool
		text     string
	)
	s.update(func() bool {
		accepted = s.session.SetSelection(req.Text)
		text = s.session.State().Selection
		if accepted {
			s.hub.Broadcast(EventSelectionUpdated, selectionRequest{Text: text})
		}
		return accepted
	})
	sendJSON(w, http.StatusOK, selectionResponse{Text: text, Accepted: accepted})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, selectionRequest{Text: s.session.State().Selection})
}

func (s *Server) handlePutFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !decode(w, r, &req) {
		return
	}
	sum := s.update(func() bool {
		if req.Instruction != nil {
			s.session.SetInstruction(*req.Instruction)
		}
		if req.Context != nil {
			s.session.SetContext(*req.Context)
		}
		return true
	})
	sendJSON(w, http.StatusOK, sum)
}

func (s *Server) handleGetSummary(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, s.summary())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Submit(r.Context())
	if err != nil {
		sendErr(w, err)
		return
	}
	s.update(nil)
	sendJSON(w, http.StatusOK, res)
}

func (s *Server) handleCancel(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]bool{"canceled": s.session.Cancel()})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, s.session.Settings().Redacted())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var cfg settings.Settings
	if !decode(w, r, &cfg) {
		return
	}
	cfg.RestoreSecrets(s.session.Settings())
	if err := s.session.SaveSettings(r.Context(), &cfg); err != nil {
		sendErr(w, err)
		return
	}
	redacted := cfg.Redacted()
	s.update(func() bool {
		s.hub.Broadcast(EventSettingsUpdated, redacted)
		return true
	})
	sendJSON(w, http.StatusOK, redacted)
}

func (s *Server) handleGetUsage(w http.ResponseWriter, _ *http.Request) {
	t := s.session.Tracker()
	sendJSON(w, http.StatusOK, UsageReport{
		Models:           t.Summary(),
		Total:            t.TotalUsage(),
		EstimatedCostUSD: t.EstimatedCost(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	var initial []Event
	if text := s.session.State().Selection; text != "" {
		initial = append(initial, Event{Type: EventSelectionUpdated, Data: selectionRequest{Text: text}})
	}
	initial = append(initial, Event{Type: EventUsageUpdated, Data: s.summary()})
	s.hub.ServeWS(w, r, initial...)
}
