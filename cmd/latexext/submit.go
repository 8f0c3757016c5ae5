package main

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newSubmitCmd(a *app) *cobra.Command {
	var (
		pf      promptFlags
		raw     bool
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send the prompt to the active profile and print the result",
		Long: `Render the prompt from the selection, instruction and context, send it to
the active profile, and print the LaTeX extracted from the response.

The profile comes from settings; LATEXEXT_* variables fill blank fields and
stand in when no profile is active.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pf.templateFile != "" {
				return fmt.Errorf("--template is not supported by submit; use \"settings set-template\"")
			}
			f, err := pf.fields(cmd)
			if err != nil {
				return err
			}
			sess, _, closeFn, err := a.newSession(cmd.Context())
			defer closeFn()
			if err != nil {
				return err
			}

			sess.SetSelection(f.Selection)
			sess.SetInstruction(f.Instruction)
			sess.SetContext(f.Context)

			res, err := sess.Submit(cmd.Context())
			if err != nil {
				return err
			}

			rec := res.Reconciliation
			if rec.Reconciled {
				a.logger.Info("token estimate reconciled",
					slog.String("model", string(rec.Model)),
					slog.Int("estimated", rec.Estimated),
					slog.Int("reported", rec.Reported),
					slog.Float64("relative_error", rec.RelativeError))
			}

			out := cmd.OutOrStdout()
			switch {
			case jsonOut:
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case raw:
				fmt.Fprintln(out, res.Content)
			default:
				fmt.Fprintln(out, res.LaTeX)
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().BoolVar(&raw, "raw", false, "print the full response instead of the extracted LaTeX")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")
	return cmd
}
