package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
)

// codeContextLengthExceeded is the error code both services use when the
// prompt does not fit the model's context window.
const codeContextLengthExceeded = "context_length_exceeded"

// Client implements provider.Client for Azure OpenAI and OpenAI.
type Client struct {
	kind    provider.Kind
	model   string
	timeout time.Duration
	sdk     oai.Client
	logger  *slog.Logger

	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTimeout bounds each Complete call. 0 means provider.DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// NewAzure creates a client for an Azure OpenAI deployment.
func NewAzure(cfg provider.AzureConfig, opts ...Option) (*Client, error) {
	p := provider.Profile{Kind: provider.KindAzure, Azure: &cfg}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := newClient(provider.KindAzure, cfg.Deployment, opts)
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	c.sdk = oai.NewClient(c.requestOptions(
		azure.WithEndpoint(endpoint, cfg.APIVersionOrDefault()),
		azure.WithAPIKey(cfg.APIKey),
	)...)
	return c, nil
}

// NewOpenAI creates a client for the OpenAI API or a compatible endpoint.
func NewOpenAI(cfg provider.OpenAIConfig, opts ...Option) (*Client, error) {
	p := provider.Profile{Kind: provider.KindOpenAI, OpenAI: &cfg}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := newClient(provider.KindOpenAI, cfg.Model, opts)
	sdkOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		sdkOpts = append(sdkOpts, option.WithBaseURL(ensureTrailingSlash(cfg.BaseURL)))
	}
	if cfg.Organization != "" {
		sdkOpts = append(sdkOpts, option.WithOrganization(cfg.Organization))
	}
	c.sdk = oai.NewClient(c.requestOptions(sdkOpts...)...)
	return c, nil
}

func newClient(kind provider.Kind, model string, opts []Option) *Client {
	c := &Client{
		kind:   kind,
		model:  model,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout <= 0 {
		c.timeout = provider.DefaultTimeout
	}
	c.logger = c.logger.With(slog.String("provider", string(kind)))
	return c
}

func (c *Client) requestOptions(extra ...option.RequestOption) []option.RequestOption {
	opts := []option.RequestOption{option.WithMaxRetries(0)}
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	}
	return append(opts, extra...)
}

func ensureTrailingSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}

// Complete implements provider.Client.
func (c *Client) Complete(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params := c.buildParams(req)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	c.logger.Debug("chat completion request",
		slog.String("model", string(params.Model)),
		slog.Int("messages", len(params.Messages)))

	completion, err := c.sdk.Chat.Completions.New(callCtx, params)
	if err != nil {
		mapped := c.mapError(err)
		c.logger.Warn("chat completion failed",
			slog.Any("error", mapped),
			slog.Duration("elapsed", time.Since(start)))
		return nil, mapped
	}
	if len(completion.Choices) == 0 {
		return nil, provider.NewError(string(c.kind), "complete", provider.ErrMalformedResponse, false)
	}

	choice := completion.Choices[0]
	resp := &provider.Response{
		Content:      choice.Message.Content,
		Model:        completion.Model,
		FinishReason: string(choice.FinishReason),
		Duration:     time.Since(start),
		RequestID:    completion.ID,
	}

	u := completion.Usage
	if u.PromptTokens > 0 || u.TotalTokens > 0 {
		resp.HasUsage = true
		resp.Usage = provider.TokenUsage{
			InputTokens:       int(u.PromptTokens),
			OutputTokens:      int(u.CompletionTokens),
			TotalTokens:       int(u.TotalTokens),
			CachedInputTokens: int(u.PromptTokensDetails.CachedTokens),
		}
	}

	c.logger.Debug("chat completion done",
		slog.String("id", resp.RequestID),
		slog.String("finish_reason", resp.FinishReason),
		slog.Int("prompt_tokens", resp.Usage.InputTokens),
		slog.Duration("elapsed", resp.Duration))
	return resp, nil
}

func (c *Client) buildParams(req provider.Request) oai.ChatCompletionNewParams {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, oai.SystemMessage(req.SystemPrompt))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case provider.RoleSystem:
			messages = append(messages, oai.SystemMessage(m.Content))
		case provider.RoleAssistant:
			messages = append(messages, oai.AssistantMessage(m.Content))
		default:
			messages = append(messages, oai.UserMessage(m.Content))
		}
	}

	model := c.model
	if req.Model != "" && c.kind == provider.KindOpenAI {
		model = req.Model
	}

	params := oai.ChatCompletionNewParams{
		Messages: messages,
		Model:    oai.ChatModel(model),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = oai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = oai.Float(req.Temperature)
	}
	return params
}

// mapError converts SDK and transport errors into *provider.Error.
func (c *Client) mapError(err error) error {
	name := string(c.kind)

	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == codeContextLengthExceeded {
			return &provider.Error{
				Provider:   name,
				Op:         "complete",
				StatusCode: apiErr.StatusCode,
				Err:        fmt.Errorf("%w: %w", provider.ErrContextTooLong, err),
			}
		}
		return provider.StatusError(name, "complete", apiErr.StatusCode, err)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return provider.NewError(name, "complete", fmt.Errorf("%w: %w", provider.ErrTimeout, err), true)
	}
	if errors.Is(err, context.Canceled) {
		return provider.NewError(name, "complete", err, false)
	}
	// Connection failures never produced a status.
	return provider.NewError(name, "complete", fmt.Errorf("%w: %w", provider.ErrUnavailable, err), true)
}

// Provider implements provider.Client.
func (c *Client) Provider() string {
	return string(c.kind)
}

// Model returns the deployment or model requests are sent to.
func (c *Client) Model() string {
	return c.model
}

// Close implements provider.Client. The SDK holds no resources.
func (c *Client) Close() error {
	return nil
}

var _ provider.Client = (*Client)(nil)
