package session

import (
	"log/slog"

	"github.com/cabird/gpt-chrome-latex-ext/model"
	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// Option configures a Session.
type Option func(*config)

type config struct {
	factory provider.Factory
	counter tokens.Counter
	tracker *model.Tracker
	logger  *slog.Logger

	// fitContext cuts the context so the prompt fits the model window. Off
	// by default: the heuristic overcounts, so a cut can drop context the
	// model would have accepted.
	fitContext bool

	// envFallback lets the LATEXEXT_* environment stand in for a missing
	// active profile.
	envFallback bool
}

func defaultConfig() config {
	return config{
		factory:     provider.New,
		counter:     tokens.NewHeuristicCounter(),
		logger:      slog.Default(),
		envFallback: true,
	}
}

// WithClientFactory sets how clients are created from the active profile.
// Defaults to provider.New.
func WithClientFactory(f provider.Factory) Option {
	return func(c *config) {
		if f != nil {
			c.factory = f
		}
	}
}

// WithCounter sets the estimator used for summaries.
func WithCounter(counter tokens.Counter) Option {
	return func(c *config) {
		if counter != nil {
			c.counter = counter
		}
	}
}

// WithTracker shares a usage tracker, e.g. across sessions.
func WithTracker(t *model.Tracker) Option {
	return func(c *config) { c.tracker = t }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithEnvFallback controls whether a profile built from LATEXEXT_*
// variables is used when no profile is active. Enabled by default.
func WithEnvFallback(enabled bool) Option {
	return func(c *config) { c.envFallback = enabled }
}

// WithFitContext controls whether Submit cuts the context, oldest lines
// first, when the prompt would not fit the model's context window. Disabled
// by default; the full rendered prompt is sent. Pair it with WithCounter
// and an exact counter (see tokens/vocab) to cut only what must go.
func WithFitContext(enabled bool) Option {
	return func(c *config) { c.fitContext = enabled }
}
