package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newSkillsCmd(wire func(cmd *cobra.Command) (*app, error)) *cobra.Command {
	var runTool string
	var argsJSON string

	cmd := &cobra.Command{
		Use:   "skills",
		Short: "List enabled skills and their tools, or invoke one directly",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wire(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if runTool != "" {
				args := map[string]any{}
				if argsJSON != "" {
					if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
						return fmt.Errorf("parse --args: %w", err)
					}
				}
				result, err := app.mesh.RunSkill(cmd.Context(), runTool, args)
				if err != nil {
					return err
				}
				encoded, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
				return nil
			}

			skills := app.mesh.Registry().ListEnabled()
			if len(skills) == 0 {
				fmt.Fprintln(out, "no skills enabled")
				return nil
			}
			for _, s := range skills {
				fmt.Fprintf(out, "%s (%s)\n  %s\n", s.Name(), s.Category(), s.Description())
				for _, t := range s.Tools() {
					gate := ""
					if app.mesh.Registry().IsConfirmationRequired(t.Name()) {
						gate = " [requires confirmation]"
					}
					fmt.Fprintf(out, "    %s%s: %s\n", t.Name(), gate, t.Description())
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runTool, "run", "", "Tool name to invoke directly instead of listing")
	cmd.Flags().StringVar(&argsJSON, "args", "", "JSON arguments for --run")

	return cmd
}
