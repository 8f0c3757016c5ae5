package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
	"github.com/cabird/gpt-chrome-latex-ext/settings"
	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and edit settings",
	}
	cmd.AddCommand(
		newSettingsShowCmd(a),
		newSettingsSetTemplateCmd(a),
		newSettingsAddProfileCmd(a),
		newSettingsUseCmd(a),
		newSettingsRemoveCmd(a),
		newSettingsSchemaCmd(),
	)
	return cmd
}

// update loads settings, applies fn and saves the result.
func (a *app) update(cmd *cobra.Command, fn func(*settings.Settings) error) error {
	store, closeFn, err := a.openStore()
	if err != nil {
		return err
	}
	defer closeFn()

	cfg, err := store.Load(cmd.Context())
	if err != nil {
		return err
	}
	if err := fn(cfg); err != nil {
		return err
	}
	return store.Save(cmd.Context(), cfg)
}

func newSettingsShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print settings with API keys masked",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			cfg = cfg.Redacted()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				defer enc.Close()
				return enc.Encode(cfg)
			case "text":
				path, _ := a.settingsPath()
				printSettings(out, path, cfg)
				return nil
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, yaml, json")
	return cmd
}

func printSettings(w io.Writer, path string, cfg *settings.Settings) {
	fmt.Fprintf(w, "settings:  %s\n", path)
	fmt.Fprintf(w, "threshold: %s tokens\n", tokens.Format(cfg.ThresholdOrDefault()).Text)
	if len(cfg.Profiles) == 0 {
		fmt.Fprintln(w, "profiles:  none (LATEXEXT_* environment is used)")
	} else {
		fmt.Fprintln(w, "profiles:")
	}
	for _, p := range cfg.Profiles {
		marker := " "
		if p.Name == cfg.ActiveProfile {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-12s %-7s %-20s timeout %s", marker, p.Name, p.Kind, p.Model(), durationOrZero(p.Timeout))
		if missing := p.MissingFields(); len(missing) > 0 {
			fmt.Fprintf(w, "  (missing %s)", strings.Join(missing, ", "))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "template:\n%s\n", indent(cfg.Template()))
	fmt.Fprintf(w, "system prompt:\n%s\n", indent(cfg.SystemPromptOrDefault()))
}

func indent(s string) string {
	return "    " + strings.ReplaceAll(s, "\n", "\n    ")
}

func newSettingsSetTemplateCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "set-template <file|->",
		Short: "Replace the prompt template",
		Long: `Replace the prompt template with the contents of a file, or stdin for "-".
The template may use {{LATEX_TEXT}}, {{INSTRUCTIONS}} and {{CONTEXT}}.
An empty template restores the default.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := args[0]
			if arg != "-" {
				arg = "@" + arg
			}
			tmpl, err := readValue(cmd.InOrStdin(), arg)
			if err != nil {
				return err
			}
			tmpl = strings.TrimRight(tmpl, "\n")
			if err := template.Check(tmpl); err != nil && !force {
				return fmt.Errorf("%w (use --force to save anyway)", err)
			}
			return a.update(cmd, func(cfg *settings.Settings) error {
				cfg.PromptTemplate = tmpl
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "save a template without {{LATEX_TEXT}}")
	return cmd
}

func newSettingsAddProfileCmd(a *app) *cobra.Command {
	var (
		kind    string
		azure   provider.AzureConfig
		oa      provider.OpenAIConfig
		apiKey  string
		timeout time.Duration
		use     bool
	)
	cmd := &cobra.Command{
		Use:   "add-profile <name>",
		Short: "Add or replace a provider profile",
		Long: `Add or replace a named profile. Incomplete profiles are saved; submitting
with one fails until the missing fields are set.`,
		Example: `  latexext settings add-profile work --kind azure \
      --endpoint https://example.openai.azure.com --deployment gpt-4o --api-key $KEY
  latexext settings add-profile home --kind openai --model gpt-4o-mini --api-key $KEY`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := provider.Profile{Name: args[0], Kind: provider.Kind(kind), Timeout: timeout}
			switch p.Kind {
			case provider.KindAzure:
				azure.APIKey = apiKey
				p.Azure = &azure
			case provider.KindOpenAI:
				oa.APIKey = apiKey
				p.OpenAI = &oa
			default:
				return fmt.Errorf("%w: %q", provider.ErrUnknownProvider, kind)
			}

			err := a.update(cmd, func(cfg *settings.Settings) error {
				if err := cfg.Upsert(p); err != nil {
					return err
				}
				if use {
					return cfg.Use(p.Name)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if missing := p.MissingFields(); len(missing) > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "profile %q saved but incomplete: missing %s\n",
					p.Name, strings.Join(missing, ", "))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&kind, "kind", string(provider.KindAzure), "provider kind: azure or openai")
	f.StringVar(&apiKey, "api-key", "", "API key")
	f.StringVar(&azure.Endpoint, "endpoint", "", "Azure endpoint URL")
	f.StringVar(&azure.Deployment, "deployment", "", "Azure deployment name")
	f.StringVar(&azure.APIVersion, "api-version", "", "Azure API version (default "+provider.DefaultAzureAPIVersion+")")
	f.StringVar(&oa.Model, "model", "", "OpenAI model")
	f.StringVar(&oa.BaseURL, "base-url", "", "OpenAI-compatible base URL")
	f.StringVar(&oa.Organization, "organization", "", "OpenAI organization")
	f.DurationVar(&timeout, "request-timeout", 0, "request timeout for this profile")
	f.BoolVar(&use, "use", false, "make this the active profile")
	return cmd
}

func newSettingsUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Select the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd, func(cfg *settings.Settings) error {
				return cfg.Use(args[0])
			})
		},
	}
}

func newSettingsRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd, func(cfg *settings.Settings) error {
				return cfg.Remove(args[0])
			})
		},
	}
}

func newSettingsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the settings file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := settings.SchemaJSON()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
