// Package provider defines the chat-completion client used to submit prompts.
//
// Two kinds of endpoint are supported: an Azure OpenAI deployment and the
// OpenAI API directly. Which one is used is decided by a Profile, a tagged
// configuration that carries exactly one of AzureConfig or OpenAIConfig.
// Implementations register a Factory per Kind; the openai package registers
// both.
//
// # Usage
//
//	profile := provider.Profile{
//	    Name: "work",
//	    Kind: provider.KindAzure,
//	    Azure: &provider.AzureConfig{
//	        Endpoint:   "https://example.openai.azure.com",
//	        Deployment: "gpt-4o",
//	        APIKey:     key,
//	    },
//	}
//	client, err := provider.New(profile)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	resp, err := client.Complete(ctx, provider.NewPromptRequest(provider.DefaultSystemPrompt, prompt))
//
// Nothing in this package retries. Errors carry a Retryable flag so the
// caller can offer the user a manual retry.
package provider

import "context"

// Client sends chat-completion requests.
// Implementations must be safe for concurrent use.
type Client interface {
	// Complete sends a request and returns the full response.
	// The context controls cancellation and timeouts.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Provider returns the provider kind ("azure", "openai").
	Provider() string

	// Close releases any resources held by the client.
	Close() error
}
