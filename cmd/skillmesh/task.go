package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/skillmesh/agent"
)

func newTaskCmd(wire func(cmd *cobra.Command) (*app, error)) *cobra.Command {
	var (
		goals      []string
		sequential bool
	)

	cmd := &cobra.Command{
		Use:   "task",
		Short: "Run a multi-goal task across isolated sub-agents",
		Long:  "Each --goal becomes an isolated sub-agent with its own session history. Goals may be named with a 'name: goal text' prefix. Results are synthesized into one answer.",
		Args: func(_ *cobra.Command, _ []string) error {
			if len(goals) == 0 {
				return fmt.Errorf("task requires at least one --goal")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wire(cmd)
			if err != nil {
				return err
			}

			subs := make([]agent.SubTask, len(goals))
			for i, g := range goals {
				name := fmt.Sprintf("goal-%d", i+1)
				goal := g
				if idx := strings.Index(g, ":"); idx > 0 && !strings.ContainsAny(g[:idx], " \t") {
					name = g[:idx]
					goal = strings.TrimSpace(g[idx+1:])
				}
				subs[i] = agent.SubTask{Name: name, Goal: goal}
			}

			result, err := app.mesh.RunTask(cmd.Context(), !sequential, subs)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, sub := range result.SubResults {
				fmt.Fprintf(out, "## %s\n%s\n\n", sub.Name, sub.Answer)
			}
			fmt.Fprintf(out, "## Synthesis\n%s\n", result.Answer)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&goals, "goal", nil, "Sub-goal, optionally prefixed 'name: text' (repeatable)")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Run sub-goals one after another instead of in parallel")

	return cmd
}
