package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cabird/gpt-chrome-latex-ext/template"
	"github.com/cabird/gpt-chrome-latex-ext/tokens"
	"github.com/cabird/gpt-chrome-latex-ext/tokens/vocab"
	"github.com/cabird/gpt-chrome-latex-ext/usage"
)

// promptFlags are the inputs shared by render, summarize and submit.
type promptFlags struct {
	selection    string
	instruction  string
	context      string
	templateFile string
}

func (f *promptFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.selection, "selection", "s", "-", `selected LaTeX, "-" for stdin or "@file"`)
	cmd.Flags().StringVarP(&f.instruction, "instruction", "i", "", `instruction, or "@file"`)
	cmd.Flags().StringVar(&f.context, "context", "", `additional context, or "@file"`)
	cmd.Flags().StringVar(&f.templateFile, "template", "", "template file overriding settings")
}

// fields resolves each flag value: "-" reads stdin, "@path" reads a file.
func (f *promptFlags) fields(cmd *cobra.Command) (template.Fields, error) {
	var out template.Fields
	for _, p := range []struct {
		dst *string
		val string
	}{
		{&out.Selection, f.selection},
		{&out.Instruction, f.instruction},
		{&out.Context, f.context},
	} {
		v, err := readValue(cmd.InOrStdin(), p.val)
		if err != nil {
			return template.Fields{}, err
		}
		*p.dst = v
	}
	out.Selection = strings.TrimSpace(out.Selection)
	return out, nil
}

// templateOr returns the --template file contents, or fallback.
func (f *promptFlags) templateOr(fallback string) (string, error) {
	if f.templateFile == "" {
		return fallback, nil
	}
	data, err := os.ReadFile(f.templateFile)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(data), nil
}

func readValue(stdin io.Reader, v string) (string, error) {
	switch {
	case v == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(v, "@"):
		data, err := os.ReadFile(v[1:])
		if err != nil {
			return "", fmt.Errorf("read %s: %w", v[1:], err)
		}
		return string(data), nil
	}
	return v, nil
}

func newCountCmd(a *app) *cobra.Command {
	var (
		ratio    float64
		exact    bool
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "count [text...]",
		Short: "Estimate the tokens in text",
		Long: `Estimate tokens with the LaTeX-aware heuristic. Text comes from the
arguments, or stdin when there are none.

--exact also counts with a real BPE vocabulary (downloaded on first use) and
reports the heuristic's drift.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				text = string(data)
			}

			var counter tokens.Counter = tokens.NewHeuristicCounter()
			if ratio > 0 {
				counter = tokens.NewEstimatingCounterWithRatio(ratio)
			}
			cfg, err := a.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			n := counter.Count(text)
			out := cmd.OutOrStdout()
			formatted := tokens.FormatWithThreshold(n, cfg.ThresholdOrDefault())
			fmt.Fprintf(out, "%s tokens\n", formatted.Text)
			if formatted.Warning {
				fmt.Fprintf(out, "warning: above the %d token threshold\n", cfg.ThresholdOrDefault())
			}

			if exact {
				ref, err := vocab.New(encoding)
				if err != nil {
					return err
				}
				d := vocab.Compare(counter, ref, text)
				fmt.Fprintf(out, "%s: %s tokens (estimate drift %+.1f%%)\n",
					ref.Encoding(), tokens.Format(d.Reference).Text, d.RelativeError*100)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&ratio, "ratio", 0, "use a plain characters-per-token ratio instead of the heuristic")
	cmd.Flags().BoolVar(&exact, "exact", false, "compare with an exact BPE count")
	cmd.Flags().StringVar(&encoding, "encoding", vocab.DefaultEncoding, "BPE encoding for --exact")
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var pf promptFlags
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the prompt that would be sent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			tmpl, err := pf.templateOr(cfg.Template())
			if err != nil {
				return err
			}
			if err := template.Check(tmpl); err != nil {
				a.logger.Warn("rendering anyway", slog.Any("error", err))
			}
			f, err := pf.fields(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), template.RenderDefault(tmpl, f))
			return nil
		},
	}
	pf.register(cmd)
	return cmd
}

func newSummarizeCmd(a *app) *cobra.Command {
	var (
		pf      promptFlags
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Show per-field and total token estimates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadSettings(cmd.Context())
			if err != nil {
				return err
			}
			tmpl, err := pf.templateOr(cfg.Template())
			if err != nil {
				return err
			}
			f, err := pf.fields(cmd)
			if err != nil {
				return err
			}
			sum := usage.Summarize(f, tmpl, cfg.ThresholdOrDefault())

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sum)
			}
			fmt.Fprintf(out, "context:     %s\n", tokens.Format(sum.ContextTokens).Text)
			fmt.Fprintf(out, "selection:   %s\n", tokens.Format(sum.SelectionTokens).Text)
			fmt.Fprintf(out, "instruction: %s\n", tokens.Format(sum.InstructionTokens).Text)
			fmt.Fprintf(out, "total:       %s\n", sum.Total().Text)
			if sum.ExceedsThreshold {
				fmt.Fprintf(out, "warning: above the %s token threshold\n", tokens.Format(sum.Threshold).Text)
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}
