package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/session"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
)

// Configuration keys. Each is a flag and a LATEXEXT_* variable.
const (
	keySettings  = "settings"
	keyThreshold = "threshold"
	keyLogLevel  = "log-level"
	keyAddr      = "addr"
	keyTimeout   = "timeout"
	keyFit       = "fit-context"
)

// app carries per-invocation configuration into commands.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: slog.Default()}

	root := &cobra.Command{
		Use:   "latexext",
		Short: "Token counting and GPT editing for selected LaTeX",
		Long: `latexext estimates prompt tokens for selected LaTeX, renders the prompt
template and submits it to an Azure OpenAI deployment or the OpenAI API.

Run "latexext serve" to start the local bridge used by the browser extension.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.String(keySettings, "", "settings file (.yaml, .toml, .json, or .db for SQLite)")
	flags.Int(keyThreshold, 0, "token warning threshold, overriding settings")
	flags.String(keyLogLevel, "warn", "log level: debug, info, warn, error")
	flags.Duration(keyTimeout, 0, "request timeout, overriding the profile")
	flags.Bool(keyFit, false, "cut the oldest context lines when the estimate exceeds the model window")
	_ = a.v.BindPFlags(flags)

	a.v.SetEnvPrefix("LATEXEXT")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(
		newCountCmd(a),
		newRenderCmd(a),
		newSummarizeCmd(a),
		newSubmitCmd(a),
		newServeCmd(a),
		newSettingsCmd(a),
	)
	return root
}

func (a *app) init(w io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString(keyLogLevel))); err != nil {
		return fmt.Errorf("invalid log level %q", a.v.GetString(keyLogLevel))
	}
	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) settingsPath() (string, error) {
	if p := a.v.GetString(keySettings); p != "" {
		return p, nil
	}
	return settings.DefaultPath()
}

// openStore opens the settings store. The returned close func is never nil.
func (a *app) openStore() (settings.Store, func(), error) {
	path, err := a.settingsPath()
	if err != nil {
		return nil, func() {}, err
	}
	store, err := settings.Open(path, settings.WithLogger(a.logger))
	if err != nil {
		return nil, func() {}, err
	}
	closeFn := func() {}
	if c, ok := store.(io.Closer); ok {
		closeFn = func() {
			if err := c.Close(); err != nil {
				a.logger.Warn("close settings store", slog.Any("error", err))
			}
		}
	}
	return &overrideStore{Store: store, threshold: a.v.GetInt(keyThreshold)}, closeFn, nil
}

// loadSettings loads settings with command-line overrides applied.
func (a *app) loadSettings(ctx context.Context) (*settings.Settings, error) {
	store, closeFn, err := a.openStore()
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return store.Load(ctx)
}

// newSession opens the store and builds a session on it.
func (a *app) newSession(ctx context.Context) (*session.Session, settings.Store, func(), error) {
	store, closeFn, err := a.openStore()
	if err != nil {
		return nil, nil, closeFn, err
	}
	timeout := a.v.GetDuration(keyTimeout)
	factory := func(p provider.Profile) (provider.Client, error) {
		if timeout > 0 {
			p = p.WithTimeout(timeout)
		}
		return provider.New(p)
	}
	sess := session.New(store,
		session.WithClientFactory(factory),
		session.WithLogger(a.logger),
		session.WithFitContext(a.v.GetBool(keyFit)))
	if err := sess.Reload(ctx); err != nil {
		closeFn()
		return nil, nil, func() {}, err
	}
	return sess, store, closeFn, nil
}

// overrideStore applies the --threshold override on load. Saves keep the
// stored threshold when the override is the only difference.
type overrideStore struct {
	settings.Store
	threshold int
}

func (s *overrideStore) Load(ctx context.Context) (*settings.Settings, error) {
	cfg, err := s.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	s.apply(cfg)
	return cfg, nil
}

func (s *overrideStore) apply(cfg *settings.Settings) {
	if s.threshold > 0 {
		cfg.Threshold = s.threshold
	}
}

// follow applies the overrides to watched settings.
func (s *overrideStore) follow(ctx context.Context, in <-chan *settings.Settings) <-chan *settings.Settings {
	out := make(chan *settings.Settings)
	go func() {
		defer close(out)
		for cfg := range in {
			s.apply(cfg)
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (s *overrideStore) Save(ctx context.Context, cfg *settings.Settings) error {
	if s.threshold > 0 && cfg.Threshold == s.threshold {
		stored, err := s.Store.Load(ctx)
		if err != nil {
			return err
		}
		cfg = cfg.Clone()
		cfg.Threshold = stored.Threshold
	}
	return s.Store.Save(ctx, cfg)
}

// unwrap returns the underlying store, e.g. to reach FileStore.Watch.
func (s *overrideStore) unwrap() settings.Store {
	if s == nil {
		return nil
	}
	return s.Store
}

// durationOrZero formats d for display.
func durationOrZero(d time.Duration) string {
	if d == 0 {
		return "default"
	}
	return d.String()
}
