package provider

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// DefaultSystemPrompt is sent when no system prompt is configured.
const DefaultSystemPrompt = "You are a helpful assistant specialized in LaTeX editing and academic writing. " +
	"The user will provide LaTeX text and instructions for how to modify or improve it."

// DefaultAzureAPIVersion is used when an Azure profile does not set one.
const DefaultAzureAPIVersion = "2024-02-01"

// DefaultTimeout bounds a completion request when the profile sets none.
const DefaultTimeout = 2 * time.Minute

// Kind selects the endpoint variant of a Profile.
type Kind string

// Supported kinds.
const (
	KindAzure  Kind = "azure"
	KindOpenAI Kind = "openai"
)

// AzureConfig addresses an Azure OpenAI deployment.
type AzureConfig struct {
	// Endpoint is the resource URL, e.g. "https://myres.openai.azure.com".
	Endpoint string `json:"endpoint" yaml:"endpoint" toml:"endpoint" mapstructure:"endpoint"`

	// Deployment is the deployment name; it also selects the model.
	Deployment string `json:"deployment" yaml:"deployment" toml:"deployment" mapstructure:"deployment"`

	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key" mapstructure:"api_key"`

	// APIVersion defaults to DefaultAzureAPIVersion.
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty" toml:"api_version,omitempty" mapstructure:"api_version"`
}

// OpenAIConfig addresses the OpenAI API or a compatible endpoint.
type OpenAIConfig struct {
	APIKey string `json:"api_key" yaml:"api_key" toml:"api_key" mapstructure:"api_key"`

	// Model is the model name, e.g. "gpt-4o".
	Model string `json:"model" yaml:"model" toml:"model" mapstructure:"model"`

	// BaseURL overrides the API root. Optional.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" toml:"base_url,omitempty" mapstructure:"base_url"`

	// Organization is sent as the OpenAI-Organization header. Optional.
	Organization string `json:"organization,omitempty" yaml:"organization,omitempty" toml:"organization,omitempty" mapstructure:"organization"`
}

// Profile is a named provider configuration. Exactly the variant matching
// Kind is populated.
type Profile struct {
	Name string `json:"name" yaml:"name" toml:"name" mapstructure:"name"`
	Kind Kind   `json:"kind" yaml:"kind" toml:"kind" mapstructure:"kind" jsonschema:"enum=azure,enum=openai"`

	Azure  *AzureConfig  `json:"azure,omitempty" yaml:"azure,omitempty" toml:"azure,omitempty" mapstructure:"azure"`
	OpenAI *OpenAIConfig `json:"openai,omitempty" yaml:"openai,omitempty" toml:"openai,omitempty" mapstructure:"openai"`

	// Timeout is the maximum duration for a completion request.
	// 0 uses DefaultTimeout.
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" toml:"timeout,omitempty" mapstructure:"timeout"`
}

// NewAzureProfile creates an Azure profile.
func NewAzureProfile(name, endpoint, deployment, apiKey string) Profile {
	return Profile{
		Name: name,
		Kind: KindAzure,
		Azure: &AzureConfig{
			Endpoint:   endpoint,
			Deployment: deployment,
			APIKey:     apiKey,
		},
	}
}

// NewOpenAIProfile creates an OpenAI profile.
func NewOpenAIProfile(name, model, apiKey string) Profile {
	return Profile{
		Name: name,
		Kind: KindOpenAI,
		OpenAI: &OpenAIConfig{
			Model:  model,
			APIKey: apiKey,
		},
	}
}

// Model returns the model the profile addresses: the deployment name for
// Azure, the model name for OpenAI.
func (p Profile) Model() string {
	switch p.Kind {
	case KindAzure:
		if p.Azure != nil {
			return p.Azure.Deployment
		}
	case KindOpenAI:
		if p.OpenAI != nil {
			return p.OpenAI.Model
		}
	}
	return ""
}

// APIVersionOrDefault returns APIVersion, or DefaultAzureAPIVersion when unset.
func (c AzureConfig) APIVersionOrDefault() string {
	if c.APIVersion == "" {
		return DefaultAzureAPIVersion
	}
	return c.APIVersion
}

// TimeoutOrDefault returns Timeout, or DefaultTimeout when unset.
func (p Profile) TimeoutOrDefault() time.Duration {
	if p.Timeout <= 0 {
		return DefaultTimeout
	}
	return p.Timeout
}

// MissingFields lists required fields that are empty, using their
// configuration key names.
func (p Profile) MissingFields() []string {
	var missing []string
	switch p.Kind {
	case KindAzure:
		az := p.Azure
		if az == nil {
			az = &AzureConfig{}
		}
		if strings.TrimSpace(az.Endpoint) == "" {
			missing = append(missing, "azure.endpoint")
		}
		if strings.TrimSpace(az.Deployment) == "" {
			missing = append(missing, "azure.deployment")
		}
		if strings.TrimSpace(az.APIKey) == "" {
			missing = append(missing, "azure.api_key")
		}
	case KindOpenAI:
		oa := p.OpenAI
		if oa == nil {
			oa = &OpenAIConfig{}
		}
		if strings.TrimSpace(oa.APIKey) == "" {
			missing = append(missing, "openai.api_key")
		}
		if strings.TrimSpace(oa.Model) == "" {
			missing = append(missing, "openai.model")
		}
	}
	return missing
}

// Validate checks that the profile can be used to submit a request.
// Missing fields are reported together, wrapped in ErrIncompleteConfig.
func (p Profile) Validate() error {
	switch p.Kind {
	case KindAzure:
		if p.OpenAI != nil {
			return fmt.Errorf("%w: profile %q is azure but has an openai section", ErrInvalidProfile, p.Name)
		}
	case KindOpenAI:
		if p.Azure != nil {
			return fmt.Errorf("%w: profile %q is openai but has an azure section", ErrInvalidProfile, p.Name)
		}
	case "":
		return fmt.Errorf("%w: profile %q has no kind", ErrIncompleteConfig, p.Name)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownProvider, p.Kind)
	}
	if p.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be >= 0, got %v", ErrInvalidProfile, p.Timeout)
	}
	if missing := p.MissingFields(); len(missing) > 0 {
		return fmt.Errorf("%w: profile %q missing %s", ErrIncompleteConfig, p.Name, strings.Join(missing, ", "))
	}
	return nil
}

// LoadFromEnv fills empty fields from environment variables. Values already
// set in the profile win.
//
// Supported variables:
//   - LATEXEXT_PROVIDER: kind ("azure" or "openai")
//   - LATEXEXT_API_KEY: API key for either kind
//   - LATEXEXT_ENDPOINT: Azure resource endpoint
//   - LATEXEXT_DEPLOYMENT: Azure deployment
//   - LATEXEXT_API_VERSION: Azure API version
//   - LATEXEXT_MODEL: OpenAI model
//   - LATEXEXT_BASE_URL: OpenAI base URL
//   - LATEXEXT_ORGANIZATION: OpenAI organization
//   - LATEXEXT_TIMEOUT: request timeout (e.g., "90s")
func (p *Profile) LoadFromEnv() {
	if p.Kind == "" {
		p.Kind = Kind(os.Getenv("LATEXEXT_PROVIDER"))
	}
	if p.Timeout == 0 {
		if d, err := time.ParseDuration(os.Getenv("LATEXEXT_TIMEOUT")); err == nil {
			p.Timeout = d
		}
	}

	switch p.Kind {
	case KindAzure:
		if p.Azure == nil {
			p.Azure = &AzureConfig{}
		}
		setIfEmpty(&p.Azure.Endpoint, "LATEXEXT_ENDPOINT")
		setIfEmpty(&p.Azure.Deployment, "LATEXEXT_DEPLOYMENT")
		setIfEmpty(&p.Azure.APIKey, "LATEXEXT_API_KEY")
		setIfEmpty(&p.Azure.APIVersion, "LATEXEXT_API_VERSION")
	case KindOpenAI:
		if p.OpenAI == nil {
			p.OpenAI = &OpenAIConfig{}
		}
		setIfEmpty(&p.OpenAI.APIKey, "LATEXEXT_API_KEY")
		setIfEmpty(&p.OpenAI.Model, "LATEXEXT_MODEL")
		setIfEmpty(&p.OpenAI.BaseURL, "LATEXEXT_BASE_URL")
		setIfEmpty(&p.OpenAI.Organization, "LATEXEXT_ORGANIZATION")
	}
}

// FromEnv creates a profile named name entirely from environment variables.
func FromEnv(name string) Profile {
	p := Profile{Name: name}
	p.LoadFromEnv()
	return p
}

func setIfEmpty(dst *string, key string) {
	if *dst != "" {
		return
	}
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	if p.Azure != nil {
		az := *p.Azure
		p.Azure = &az
	}
	if p.OpenAI != nil {
		oa := *p.OpenAI
		p.OpenAI = &oa
	}
	return p
}

// Redacted returns a copy with the API key masked, for display.
func (p Profile) Redacted() Profile {
	p = p.Clone()
	if p.Azure != nil {
		p.Azure.APIKey = maskKey(p.Azure.APIKey)
	}
	if p.OpenAI != nil {
		p.OpenAI.APIKey = maskKey(p.OpenAI.APIKey)
	}
	return p
}

// APIKey returns the key of the active variant.
func (p Profile) APIKey() string {
	switch {
	case p.Kind == KindAzure && p.Azure != nil:
		return p.Azure.APIKey
	case p.Kind == KindOpenAI && p.OpenAI != nil:
		return p.OpenAI.APIKey
	}
	return ""
}

// IsRedactedKey reports whether key is what Redacted shows for p's key.
func (p Profile) IsRedactedKey(key string) bool {
	actual := p.APIKey()
	return actual != "" && key == maskKey(actual)
}

func maskKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "****" + key[len(key)-4:]
}

// WithName returns a copy of the profile with the specified name.
func (p Profile) WithName(name string) Profile {
	p = p.Clone()
	p.Name = name
	return p
}

// WithAPIKey returns a copy of the profile with the key of its active
// variant replaced.
func (p Profile) WithAPIKey(key string) Profile {
	p = p.Clone()
	switch {
	case p.Kind == KindAzure && p.Azure != nil:
		p.Azure.APIKey = key
	case p.Kind == KindOpenAI && p.OpenAI != nil:
		p.OpenAI.APIKey = key
	}
	return p
}

// WithTimeout returns a copy of the profile with the specified timeout.
func (p Profile) WithTimeout(d time.Duration) Profile {
	p = p.Clone()
	p.Timeout = d
	return p
}
