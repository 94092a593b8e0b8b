package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/skillmesh"
	"github.com/hupe1980/skillmesh/agent"
	"github.com/hupe1980/skillmesh/config"
	"github.com/hupe1980/skillmesh/logging"
)

type app struct {
	cfg  config.Config
	mesh *skillmesh.Mesh
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	rootCmd := &cobra.Command{
		Use:           "skillmesh",
		Short:         "Local-first agent orchestration: chat, skills and multi-goal tasks",
		Long:          "skillmesh runs a tool-calling agent loop against a configured LLM provider, with a skill registry, confirmation gating and three-tier memory. Configuration comes from a YAML file plus SKILLMESH_* environment variables.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	wire := func(cmd *cobra.Command) (*app, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		logger := logging.New(&logging.Config{
			Level:  level,
			Format: "json",
			Output: cmd.ErrOrStderr(),
		})
		mesh, err := skillmesh.New(cfg, func(o *skillmesh.Options) {
			o.Logger = logger
			o.Confirmation = agent.ConfirmationFunc(promptConfirmation(cmd))
		})
		if err != nil {
			return nil, err
		}
		if err := registerBuiltins(mesh); err != nil {
			return nil, err
		}
		return &app{cfg: cfg, mesh: mesh}, nil
	}

	rootCmd.AddCommand(
		newChatCmd(wire),
		newSkillsCmd(wire),
		newTaskCmd(wire),
		newPingCmd(wire),
	)

	return rootCmd
}
