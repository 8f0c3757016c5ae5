package provider

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestProfile_Validate(t *testing.T) {
	tests := []struct {
		name        string
		profile     Profile
		wantErr     error
		wantMissing []string
	}{
		{
			name:    "valid azure",
			profile: NewAzureProfile("a", "https://x.openai.azure.com", "dep", "key"),
		},
		{
			name:    "valid openai",
			profile: NewOpenAIProfile("o", "gpt-4o", "sk-key"),
		},
		{
			name:        "azure missing deployment and key",
			profile:     NewAzureProfile("a", "https://x.openai.azure.com", "", " "),
			wantErr:     ErrIncompleteConfig,
			wantMissing: []string{"azure.deployment", "azure.api_key"},
		},
		{
			name:        "azure without section",
			profile:     Profile{Name: "a", Kind: KindAzure},
			wantErr:     ErrIncompleteConfig,
			wantMissing: []string{"azure.endpoint", "azure.deployment", "azure.api_key"},
		},
		{
			name:        "openai missing model",
			profile:     NewOpenAIProfile("o", "", "sk-key"),
			wantErr:     ErrIncompleteConfig,
			wantMissing: []string{"openai.model"},
		},
		{
			name:    "no kind",
			profile: Profile{Name: "x"},
			wantErr: ErrIncompleteConfig,
		},
		{
			name:    "unknown kind",
			profile: Profile{Name: "x", Kind: "anthropic"},
			wantErr: ErrUnknownProvider,
		},
		{
			name: "both variants",
			profile: Profile{
				Name:   "x",
				Kind:   KindAzure,
				Azure:  &AzureConfig{Endpoint: "e", Deployment: "d", APIKey: "k"},
				OpenAI: &OpenAIConfig{APIKey: "k", Model: "m"},
			},
			wantErr: ErrInvalidProfile,
		},
		{
			name:    "negative timeout",
			profile: NewOpenAIProfile("o", "gpt-4o", "sk").WithTimeout(-time.Second),
			wantErr: ErrInvalidProfile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !IsConfigError(err) {
				t.Errorf("IsConfigError(%v) = false", err)
			}
			for _, field := range tt.wantMissing {
				if !strings.Contains(err.Error(), field) {
					t.Errorf("error %q should name %s", err, field)
				}
			}
		})
	}
}

func TestProfile_Model(t *testing.T) {
	if got := NewAzureProfile("a", "e", "my-deploy", "k").Model(); got != "my-deploy" {
		t.Errorf("azure Model() = %q", got)
	}
	if got := NewOpenAIProfile("o", "gpt-4o", "k").Model(); got != "gpt-4o" {
		t.Errorf("openai Model() = %q", got)
	}
	if got := (Profile{Kind: KindAzure}).Model(); got != "" {
		t.Errorf("empty Model() = %q", got)
	}
}

func TestProfile_Defaults(t *testing.T) {
	var az AzureConfig
	if az.APIVersionOrDefault() != DefaultAzureAPIVersion {
		t.Errorf("APIVersionOrDefault() = %q", az.APIVersionOrDefault())
	}
	az.APIVersion = "2024-06-01"
	if az.APIVersionOrDefault() != "2024-06-01" {
		t.Errorf("APIVersionOrDefault() = %q", az.APIVersionOrDefault())
	}

	var p Profile
	if p.TimeoutOrDefault() != DefaultTimeout {
		t.Errorf("TimeoutOrDefault() = %v", p.TimeoutOrDefault())
	}
}

func TestProfile_LoadFromEnv(t *testing.T) {
	t.Setenv("LATEXEXT_PROVIDER", "azure")
	t.Setenv("LATEXEXT_ENDPOINT", "https://env.openai.azure.com")
	t.Setenv("LATEXEXT_DEPLOYMENT", "env-deploy")
	t.Setenv("LATEXEXT_API_KEY", "env-key")
	t.Setenv("LATEXEXT_API_VERSION", "2024-06-01")
	t.Setenv("LATEXEXT_TIMEOUT", "90s")

	p := Profile{Name: "env", Azure: &AzureConfig{Deployment: "explicit"}}
	p.LoadFromEnv()

	if p.Kind != KindAzure {
		t.Errorf("Kind = %q, want azure", p.Kind)
	}
	if p.Azure.Endpoint != "https://env.openai.azure.com" {
		t.Errorf("Endpoint = %q", p.Azure.Endpoint)
	}
	if p.Azure.Deployment != "explicit" {
		t.Errorf("Deployment = %q, set value should win", p.Azure.Deployment)
	}
	if p.Azure.APIKey != "env-key" || p.Azure.APIVersion != "2024-06-01" {
		t.Errorf("Azure = %+v", *p.Azure)
	}
	if p.Timeout != 90*time.Second {
		t.Errorf("Timeout = %v, want 90s", p.Timeout)
	}
	if p.OpenAI != nil {
		t.Error("openai section should stay nil")
	}
}

func TestFromEnv_OpenAI(t *testing.T) {
	t.Setenv("LATEXEXT_PROVIDER", "openai")
	t.Setenv("LATEXEXT_API_KEY", "sk-env")
	t.Setenv("LATEXEXT_MODEL", "gpt-4o-mini")
	t.Setenv("LATEXEXT_BASE_URL", "http://localhost:8080/v1")

	p := FromEnv("env")
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if p.OpenAI.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("BaseURL = %q", p.OpenAI.BaseURL)
	}
}

func TestProfile_WithMethods(t *testing.T) {
	orig := NewOpenAIProfile("o", "gpt-4o", "old")

	updated := orig.WithAPIKey("new").WithName("renamed").WithTimeout(time.Minute)
	if updated.OpenAI.APIKey != "new" || updated.Name != "renamed" || updated.Timeout != time.Minute {
		t.Errorf("updated = %+v", updated)
	}
	if orig.OpenAI.APIKey != "old" {
		t.Error("WithAPIKey modified the original profile")
	}
}

func TestProfile_Redacted(t *testing.T) {
	p := NewAzureProfile("a", "e", "d", "abcdefghijklmnop")
	r := p.Redacted()

	if r.Azure.APIKey != "abc****mnop" {
		t.Errorf("redacted key = %q", r.Azure.APIKey)
	}
	if p.Azure.APIKey != "abcdefghijklmnop" {
		t.Error("Redacted modified the original profile")
	}
	if got := NewOpenAIProfile("o", "m", "short").Redacted().OpenAI.APIKey; got != "****" {
		t.Errorf("short key redacted to %q", got)
	}
}

func TestProfile_APIKey(t *testing.T) {
	p := NewAzureProfile("a", "e", "d", "abcdefghijklmnop")
	if p.APIKey() != "abcdefghijklmnop" {
		t.Errorf("APIKey() = %q", p.APIKey())
	}
	if !p.IsRedactedKey("abc****mnop") {
		t.Error("expected masked key to be recognized")
	}
	if p.IsRedactedKey("abcdefghijklmnop") {
		t.Error("the real key is not a masked key")
	}
	if (Profile{Kind: KindOpenAI}).IsRedactedKey("") {
		t.Error("empty key never counts as masked")
	}
}
