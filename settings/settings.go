package settings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

// Settings is the persisted configuration.
type Settings struct {
	// ActiveProfile names the profile used for submissions.
	ActiveProfile string `json:"active_profile" yaml:"active_profile" toml:"active_profile" mapstructure:"active_profile" jsonschema:"description=Name of the profile used for submissions"`

	Profiles []provider.Profile `json:"profiles" yaml:"profiles" toml:"profiles" mapstructure:"profiles"`

	// PromptTemplate may use {{LATEX_TEXT}}, {{INSTRUCTIONS}} and {{CONTEXT}}.
	// Empty means template.DefaultTemplate.
	PromptTemplate string `json:"prompt_template" yaml:"prompt_template" toml:"prompt_template" mapstructure:"prompt_template" jsonschema:"description=Prompt template with {{LATEX_TEXT}} {{INSTRUCTIONS}} and {{CONTEXT}} placeholders"`

	// SystemPrompt is sent before the rendered prompt. Empty means
	// provider.DefaultSystemPrompt.
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt" mapstructure:"system_prompt"`

	// Threshold is the token count above which the UI warns. 0 means
	// tokens.DefaultThreshold.
	Threshold int `json:"threshold" yaml:"threshold" toml:"threshold" mapstructure:"threshold" jsonschema:"minimum=0"`
}

// Store loads and saves settings.
type Store interface {
	Load(ctx context.Context) (*Settings, error)
	Save(ctx context.Context, s *Settings) error
}

// Defaults returns settings with no profiles and every default filled in.
func Defaults() *Settings {
	return &Settings{
		PromptTemplate: template.DefaultTemplate,
		SystemPrompt:   provider.DefaultSystemPrompt,
		Threshold:      tokens.DefaultThreshold,
	}
}

// DefaultPath returns the settings file under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("get config dir: %w", err)
	}
	return filepath.Join(dir, "latexext", "settings.yaml"), nil
}

// Clone creates a deep copy of the settings.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	clone := *s
	clone.Profiles = make([]provider.Profile, len(s.Profiles))
	for i, p := range s.Profiles {
		clone.Profiles[i] = p.Clone()
	}
	return &clone
}

// Template returns the prompt template, resolving empty to the default.
func (s *Settings) Template() string {
	return template.Resolve(s.PromptTemplate)
}

// SystemPromptOrDefault returns SystemPrompt, or the default when empty.
func (s *Settings) SystemPromptOrDefault() string {
	if strings.TrimSpace(s.SystemPrompt) == "" {
		return provider.DefaultSystemPrompt
	}
	return s.SystemPrompt
}

// ThresholdOrDefault returns Threshold, or tokens.DefaultThreshold when not
// positive.
func (s *Settings) ThresholdOrDefault() int {
	if s.Threshold <= 0 {
		return tokens.DefaultThreshold
	}
	return s.Threshold
}

// Profile returns a copy of the named profile.
func (s *Settings) Profile(name string) (provider.Profile, error) {
	i := s.index(name)
	if i < 0 {
		return provider.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return s.Profiles[i].Clone(), nil
}

// Active returns a copy of the active profile.
func (s *Settings) Active() (provider.Profile, error) {
	if s.ActiveProfile == "" {
		return provider.Profile{}, ErrNoActiveProfile
	}
	return s.Profile(s.ActiveProfile)
}

// ProfileNames lists profile names in stored order.
func (s *Settings) ProfileNames() []string {
	names := make([]string, 0, len(s.Profiles))
	for _, p := range s.Profiles {
		names = append(names, p.Name)
	}
	return names
}

// Upsert adds p or replaces the profile with the same name. The first
// profile added becomes active.
func (s *Settings) Upsert(p provider.Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalidSettings)
	}
	p = p.Clone()
	if i := s.index(p.Name); i >= 0 {
		s.Profiles[i] = p
	} else {
		s.Profiles = append(s.Profiles, p)
	}
	if s.ActiveProfile == "" {
		s.ActiveProfile = p.Name
	}
	return nil
}

// Remove deletes the named profile. Removing the active profile clears
// ActiveProfile.
func (s *Settings) Remove(name string) error {
	i := s.index(name)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.Profiles = slices.Delete(s.Profiles, i, i+1)
	if s.ActiveProfile == name {
		s.ActiveProfile = ""
	}
	return nil
}

// Use makes the named profile active.
func (s *Settings) Use(name string) error {
	if s.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	s.ActiveProfile = name
	return nil
}

// Redacted returns a copy with every API key masked.
func (s *Settings) Redacted() *Settings {
	clone := s.Clone()
	for i, p := range clone.Profiles {
		clone.Profiles[i] = p.Redacted()
	}
	return clone
}

// RestoreSecrets puts back keys that arrive still masked, as when settings
// shown by Redacted are edited and saved. A masked key is matched against
// the profile of the same name and kind in prev.
func (s *Settings) RestoreSecrets(prev *Settings) {
	if prev == nil {
		return
	}
	for i, p := range s.Profiles {
		j := prev.index(p.Name)
		if j < 0 || prev.Profiles[j].Kind != p.Kind {
			continue
		}
		old := prev.Profiles[j]
		if old.IsRedactedKey(p.APIKey()) {
			s.Profiles[i] = p.WithAPIKey(old.APIKey())
		}
	}
}

// Validate checks structural consistency. Profiles may be incomplete.
func (s *Settings) Validate() error {
	seen := make(map[string]bool, len(s.Profiles))
	for _, p := range s.Profiles {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: profile with empty name", ErrInvalidSettings)
		}
		if seen[p.Name] {
			return fmt.Errorf("%w: duplicate profile %q", ErrInvalidSettings, p.Name)
		}
		seen[p.Name] = true

		switch p.Kind {
		case provider.KindAzure, provider.KindOpenAI:
		default:
			return fmt.Errorf("%w: profile %q has unknown kind %q", ErrInvalidSettings, p.Name, p.Kind)
		}
	}
	if s.ActiveProfile != "" && !seen[s.ActiveProfile] {
		return fmt.Errorf("%w: active profile %q does not exist", ErrInvalidSettings, s.ActiveProfile)
	}
	if s.Threshold < 0 {
		return fmt.Errorf("%w: threshold must be >= 0, got %d", ErrInvalidSettings, s.Threshold)
	}
	return nil
}

func (s *Settings) index(name string) int {
	return slices.IndexFunc(s.Profiles, func(p provider.Profile) bool {
		return p.Name == name
	})
}

// Open returns a SQLiteStore for .db, .sqlite and .sqlite3 paths and a
// FileStore otherwise.
func Open(path string, opts ...FileOption) (Store, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	}
	return NewFileStore(path, opts...)
}
