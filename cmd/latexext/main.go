// Command latexext is the companion of the LaTeX selection browser
// extension. It counts and renders prompts, submits them to Azure OpenAI or
// OpenAI, manages settings, and serves the local bridge the extension talks
// to.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/cabird/gpt-chrome-latex-ext/providers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
