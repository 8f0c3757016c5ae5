package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cabird/gpt-chrome-latex-ext/model"
	"github.com/cabird/gpt-chrome-latex-ext/parser"
	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
	"github.com/cabird/gpt-chrome-latex-ext/truncate"
	"github.com/cabird/gpt-chrome-latex-ext/usage"
)

// envProfileName names the profile built from the environment.
const envProfileName = "env"

// outputReserve is kept free in the context window for the response.
const outputReserve = 4096

// Session is safe for concurrent use.
type Session struct {
	store  settings.Store
	config config

	mu     sync.Mutex
	state  State
	cfg    *settings.Settings
	cancel context.CancelFunc
	status Status
}

// New creates a session backed by store. Settings are read on Reload and
// on every Submit; until the first Reload, summaries use settings.Defaults.
func New(store settings.Store, opts ...Option) *Session {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tracker == nil {
		cfg.tracker = model.NewTracker()
	}
	return &Session{
		store:  store,
		config: cfg,
		cfg:    settings.Defaults(),
		status: StatusIdle,
	}
}

// Reload reads settings from the store.
func (s *Session) Reload(ctx context.Context) error {
	_, err := s.reload(ctx)
	return err
}

func (s *Session) reload(ctx context.Context) (*settings.Settings, error) {
	cfg, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return cfg.Clone(), nil
}

// ApplySettings replaces the cached settings without touching the store.
// Used when settings arrive from a watcher.
func (s *Session) ApplySettings(cfg *settings.Settings) {
	if cfg == nil {
		return
	}
	s.mu.Lock()
	s.cfg = cfg.Clone()
	s.mu.Unlock()
}

// Settings returns a copy of the cached settings.
func (s *Session) Settings() *settings.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// SaveSettings stores cfg, which the store validates, then caches it.
func (s *Session) SaveSettings(ctx context.Context, cfg *settings.Settings) error {
	if err := s.store.Save(ctx, cfg); err != nil {
		return err
	}
	s.ApplySettings(cfg)
	return nil
}

// SetSelection replaces the selection with the trimmed text. Blank text is
// ignored and SetSelection returns false.
func (s *Session) SetSelection(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	s.mu.Lock()
	s.state.Selection = text
	s.mu.Unlock()
	return true
}

// SetInstruction replaces the instruction.
func (s *Session) SetInstruction(text string) {
	s.mu.Lock()
	s.state.Instruction = text
	s.mu.Unlock()
}

// SetContext replaces the context.
func (s *Session) SetContext(text string) {
	s.mu.Lock()
	s.state.Context = text
	s.mu.Unlock()
}

// ClearContext empties the context.
func (s *Session) ClearContext() {
	s.SetContext("")
}

// State returns a snapshot of the session input.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status reports whether a submission is in flight.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// CanSubmit reports whether the current state can be submitted.
func (s *Session) CanSubmit() bool {
	return s.State().CanSubmit()
}

// Summary computes token counts for the current state from scratch.
func (s *Session) Summary() usage.Summary {
	s.mu.Lock()
	state, cfg := s.state, s.cfg
	s.mu.Unlock()
	return s.summarize(state.Fields(), cfg)
}

func (s *Session) summarize(f template.Fields, cfg *settings.Settings) usage.Summary {
	agg := usage.New(
		usage.WithCounter(s.config.counter),
		usage.WithThreshold(cfg.ThresholdOrDefault()),
	)
	return agg.Summarize(f, cfg.Template())
}

// contextLimit is the prompt budget for model: its window minus the space
// kept for the response.
func contextLimit(model string) int {
	return tokens.GetModelLimit(model) - outputReserve
}

// ContextWillBeCut reports whether Submit would cut the current context to
// fit the model window. It is always false unless WithFitContext is on.
// The model comes from the active profile, or the environment when none is
// active; unknown models use the default window.
func (s *Session) ContextWillBeCut() bool {
	if !s.config.fitContext {
		return false
	}
	s.mu.Lock()
	state, cfg := s.state, s.cfg
	s.mu.Unlock()

	_, cut := truncate.FitContext(s.config.counter, cfg.Template(), state.Fields(), contextLimit(s.modelFor(cfg)))
	return cut
}

func (s *Session) modelFor(cfg *settings.Settings) string {
	profile, err := cfg.Active()
	switch {
	case err == nil:
		profile.LoadFromEnv()
	case s.config.envFallback:
		profile = provider.FromEnv(envProfileName)
	}
	return profile.Model()
}

// Tracker returns the tracker that records reconciliations.
func (s *Session) Tracker() *model.Tracker {
	return s.config.tracker
}

// Submit renders the current state and sends it to the active profile.
func (s *Session) Submit(ctx context.Context) (*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	state := s.state
	if !state.CanSubmit() {
		s.mu.Unlock()
		return nil, ErrNothingToSubmit
	}
	if s.status == StatusSubmitting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	s.status = StatusSubmitting
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.status = StatusIdle
		s.cancel = nil
		s.mu.Unlock()
	}()

	cfg, err := s.reload(ctx)
	if err != nil {
		return nil, err
	}
	profile, err := s.resolveProfile(cfg)
	if err != nil {
		return nil, err
	}
	client, err := s.config.factory(profile)
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", profile.Kind, err)
	}
	defer client.Close()

	requestID := uuid.NewString()
	logger := s.config.logger.With(
		slog.String("request_id", requestID),
		slog.String("profile", profile.Name),
		slog.String("provider", string(profile.Kind)),
	)

	fields := state.Fields()
	truncated := false
	if s.config.fitContext {
		limit := contextLimit(profile.Model())
		fields, truncated = truncate.FitContext(s.config.counter, cfg.Template(), fields, limit)
		if truncated {
			logger.Warn("context cut to fit the model window",
				slog.Int("limit", limit),
				slog.Int("context_runes", utf8.RuneCountInString(state.Context)),
				slog.Int("kept_runes", utf8.RuneCountInString(fields.Context)))
		}
	}

	estimate := s.summarize(fields, cfg)
	systemPrompt := cfg.SystemPromptOrDefault()
	prompt := template.Render(cfg.Template(), fields)

	logger.Info("submitting prompt",
		slog.Int("estimated_tokens", estimate.TotalTokens),
		slog.Bool("exceeds_threshold", estimate.ExceedsThreshold))

	start := time.Now()
	resp, err := client.Complete(ctx, provider.NewPromptRequest(systemPrompt, prompt))
	if err != nil {
		logger.Warn("submission failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		return nil, err
	}

	modelName := resp.Model
	if modelName == "" {
		modelName = profile.Model()
	}
	reported := provider.TokenUsage{}
	if resp.HasUsage {
		reported = resp.Usage
	}
	// The service counts the system prompt too.
	estimated := estimate.TotalTokens + s.config.counter.Count(systemPrompt)
	rec := s.config.tracker.Record(modelName, estimated, reported)

	logger.Info("submission complete",
		slog.String("model", modelName),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("reported_input_tokens", rec.Reported),
		slog.Int("output_tokens", reported.OutputTokens),
		slog.Bool("reconciled", rec.Reconciled))

	return &Result{
		RequestID:        requestID,
		Content:          resp.Content,
		LaTeX:            parser.ExtractLaTeX(resp.Content),
		Response:         resp,
		Estimate:         estimate,
		Reconciliation:   rec,
		ContextTruncated: truncated,
	}, nil
}

// resolveProfile picks the active profile, filling blank credentials from
// the environment, and validates it.
func (s *Session) resolveProfile(cfg *settings.Settings) (provider.Profile, error) {
	profile, err := cfg.Active()
	switch {
	case err == nil:
		profile.LoadFromEnv()
	case errors.Is(err, settings.ErrNoActiveProfile) && s.config.envFallback:
		profile = provider.FromEnv(envProfileName)
		if profile.Kind == "" {
			return provider.Profile{}, fmt.Errorf("%w: %w", provider.ErrIncompleteConfig, err)
		}
	case errors.Is(err, settings.ErrNoActiveProfile):
		return provider.Profile{}, fmt.Errorf("%w: %w", provider.ErrIncompleteConfig, err)
	default:
		return provider.Profile{}, fmt.Errorf("%w: %w", provider.ErrInvalidProfile, err)
	}

	if err := profile.Validate(); err != nil {
		return provider.Profile{}, fmt.Errorf("profile %q: %w", profile.Name, err)
	}
	return profile, nil
}

// Cancel aborts the submission in flight. It reports whether there was one.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil {
		return false
	}
	s.cancel()
	return true
}
