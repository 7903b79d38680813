package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/errmap"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/renderers/tui"
	"github.com/goliatone/go-formflow/pkg/stepper"
	"github.com/goliatone/go-formflow/pkg/submit"
)

func fillCmd(flags *rootFlags) *cobra.Command {
	var (
		src      definitionSource
		recordID string
		format   string
		send     bool
	)

	cmd := &cobra.Command{
		Use:   "fill <definition>",
		Short: "Fill a wizard interactively in the terminal",
		Long: `Fill prompts every step of a definition, validating each answer, and prints
the merged payload. With --submit the payload is sent to the configured
backend; field errors returned by the backend send you back to the first step
that owns them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer a.close()
			ctx := cmd.Context()

			def, err := src.load(ctx, args[0])
			if err != nil {
				return err
			}
			client := a.client()

			method, path := def.SubmitMethod(), def.Endpoint
			var record map[string]any
			if recordID != "" {
				path = def.RecordPath(recordID)
				method = def.UpdateMethod()
				if record, err = client.Fetch(ctx, path); err != nil {
					return err
				}
			}

			st, err := stepper.FromDefinition(def, record, formstate.DefaultConfig(), stepper.WithLogger(a.logger))
			if err != nil {
				return err
			}
			defer st.Close()

			wizard := tui.New(
				tui.WithLogger(a.logger),
				tui.WithOutputFormat(tui.OutputFormat(format)),
				tui.WithRemoteOptions(
					options.WithBaseURL(a.cfg.Backend.BaseURL),
					options.WithHTTPClient(&http.Client{Timeout: a.cfg.Backend.Timeout}),
				),
			)

			for {
				collected, err := wizard.Run(ctx, st)
				if err != nil {
					if errors.Is(err, tui.ErrCancelled) {
						fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled.")
						return nil
					}
					return err
				}
				if !send {
					out, err := wizard.Encode(collected)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
					return err
				}

				resp, err := client.Submit(ctx, method, path, collected)
				if err == nil {
					a.logger.Info("submitted", zap.String("definition", def.ID), zap.String("method", method), zap.String("path", path))
					out, err := tui.Encode(tui.OutputFormatJSON, resp)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
					return err
				}
				fieldErrs, ok := submit.IsFieldErrors(err)
				if !ok {
					return err
				}
				if !routeBack(cmd, def, st, fieldErrs) {
					return err
				}
			}
		},
	}

	src.bind(cmd)
	cmd.Flags().StringVar(&recordID, "record", "", "edit an existing record fetched from the backend")
	cmd.Flags().StringVarP(&format, "format", "f", string(tui.OutputFormatJSON), "output format: json, form or pretty")
	cmd.Flags().BoolVar(&send, "submit", false, "submit the payload to the backend")
	return cmd
}

// routeBack stores backend field errors on their steps and moves the wizard
// to the first flagged step. It reports false when no step owns an error.
func routeBack(cmd *cobra.Command, def model.Definition, st *stepper.Stepper, fieldErrs *submit.FieldErrors) bool {
	routing := errmap.Route(fieldErrs.Payload, make([]any, st.Len()), def.Owners())
	for _, msg := range st.ApplyRouting(routing) {
		fmt.Fprintf(cmd.ErrOrStderr(), "! %s\n", msg)
	}
	for idx, flagged := range routing.Flags {
		if flagged {
			fmt.Fprintln(cmd.ErrOrStderr(), "The backend rejected some answers, please review them.")
			return st.GoTo(idx) == nil
		}
	}
	return false
}
