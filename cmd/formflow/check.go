package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formflow/pkg/definition"
	"github.com/goliatone/go-formflow/pkg/formstate"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/stepper"
)

func checkCmd() *cobra.Command {
	var src definitionSource

	cmd := &cobra.Command{
		Use:   "check <file-or-dir>...",
		Short: "Validate definition files",
		Long: `Check parses definition files (or every definition in a directory), validates
their descriptors and compiles their step schemas. It exits non-zero on the
first invalid definition.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, arg := range args {
				defs, err := src.collect(cmd, arg)
				if err != nil {
					return err
				}
				for _, def := range defs {
					st, err := stepper.FromDefinition(def, nil, formstate.DefaultConfig())
					if err != nil {
						return fmt.Errorf("%s: %w", def.ID, err)
					}
					st.Close()
					fmt.Fprintf(out, "ok  %-20s %d steps, %d fields\n", def.ID, len(def.Steps), len(def.AllFields().Paths()))
				}
			}
			return nil
		},
	}
	src.bind(cmd)
	return cmd
}

func (src definitionSource) collect(cmd *cobra.Command, path string) ([]model.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		def, err := src.load(cmd.Context(), path)
		if err != nil {
			return nil, err
		}
		return []model.Definition{def}, nil
	}
	store, err := definition.LoadDir(path)
	if err != nil {
		return nil, err
	}
	return store.List(), nil
}
