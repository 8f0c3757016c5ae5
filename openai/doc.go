// Package openai implements provider.Client on top of the official
// openai-go SDK.
//
// One Client type serves both provider kinds. For Azure the request is sent
// to {endpoint}/openai/deployments/{deployment}/chat/completions with an
// api-version query parameter and an Api-Key header; for OpenAI it goes to
// {base_url}/chat/completions with a bearer token.
//
// Importing the package registers both kinds with the provider registry:
//
//	import _ "github.com/cabird/gpt-chrome-latex-ext/openai"
//
// SDK retries are disabled. A failed request surfaces as a *provider.Error
// and retrying is left to the user.
package openai
