// Package providers registers all known chat-completion providers.
// Import this package to make all providers available via provider.New():
//
//	import _ "github.com/cabird/gpt-chrome-latex-ext/providers"
package providers

import (
	_ "github.com/cabird/gpt-chrome-latex-ext/openai"
)
