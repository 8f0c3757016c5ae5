package openai

import "github.com/cabird/gpt-chrome-latex-ext/provider"

func init() {
	provider.Register(provider.KindAzure, newAzureFromProfile)
	provider.Register(provider.KindOpenAI, newOpenAIFromProfile)
}

// newAzureFromProfile is the factory registered for provider.KindAzure.
func newAzureFromProfile(p provider.Profile) (provider.Client, error) {
	return NewAzure(*p.Azure, WithTimeout(p.TimeoutOrDefault()))
}

// newOpenAIFromProfile is the factory registered for provider.KindOpenAI.
func newOpenAIFromProfile(p provider.Profile) (provider.Client, error) {
	return NewOpenAI(*p.OpenAI, WithTimeout(p.TimeoutOrDefault()))
}
