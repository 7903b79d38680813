package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/render"
)

func renderCmd(flags *rootFlags) *cobra.Command {
	var (
		src          definitionSource
		rendererName string
		recordFile   string
		output       string
		themeName    string
		variant      string
		presetFile   string
		strict       bool
	)

	cmd := &cobra.Command{
		Use:   "render <definition>",
		Short: "Render the first step of a definition",
		Long: `Render draws the first step of a wizard definition with the html or text
renderer. A JSON record file prefills the fields the way an edit page does and
a preset file relabels fields without editing the definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags)
			if err != nil {
				return err
			}
			defer a.close()

			def, err := src.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var record map[string]any
			if recordFile != "" {
				data, err := os.ReadFile(recordFile)
				if err != nil {
					return fmt.Errorf("read record: %w", err)
				}
				if err := json.Unmarshal(data, &record); err != nil {
					return fmt.Errorf("decode record %s: %w", recordFile, err)
				}
			}

			themeCfg, err := a.resolveTheme(themeName, variant)
			if err != nil {
				return err
			}
			registry, err := renderers(a.logger)
			if err != nil {
				return err
			}

			opts := []orchestrator.Option{
				orchestrator.WithRegistry(registry),
				orchestrator.WithLogger(a.logger),
				orchestrator.WithDecorators(model.FillLabels),
			}
			if presetFile != "" {
				data, err := os.ReadFile(presetFile)
				if err != nil {
					return fmt.Errorf("read preset: %w", err)
				}
				preset, err := orchestrator.NewPresetTransformer(data)
				if err != nil {
					return err
				}
				opts = append(opts, orchestrator.WithTransformer(preset))
			}

			body, err := orchestrator.New(opts...).Generate(cmd.Context(), orchestrator.Request{
				Definition: &def,
				Record:     record,
				Renderer:   rendererName,
				RenderOptions: render.RenderOptions{
					StrictWidgets: strict || a.cfg.Render.StrictWidgets,
					Theme:         themeCfg,
					Logger:        a.logger,
				},
			})
			if err != nil {
				return err
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			if err := os.WriteFile(output, body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			a.logger.Info("rendered", zap.String("definition", def.ID), zap.String("output", output))
			return nil
		},
	}

	src.bind(cmd)
	cmd.Flags().StringVarP(&rendererName, "renderer", "r", "html", "renderer: html or text")
	cmd.Flags().StringVar(&recordFile, "record", "", "JSON record used to prefill fields")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().StringVar(&themeName, "theme", "", "theme name (overrides config)")
	cmd.Flags().StringVar(&variant, "variant", "", "theme variant")
	cmd.Flags().StringVar(&presetFile, "preset", "", "JSON or YAML preset applied before rendering")
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on unknown widget kinds")
	return cmd
}
