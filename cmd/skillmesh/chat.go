package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/skillmesh/core"
)

func newChatCmd(wire func(cmd *cobra.Command) (*app, error)) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session with the configured agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wire(cmd)
			if err != nil {
				return err
			}
			if err := app.mesh.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("model backend unreachable: %w", err)
			}

			// Ctrl+C aborts the in-flight turn without exiting the loop.
			interrupts := make(chan os.Signal, 1)
			signal.Notify(interrupts, os.Interrupt, syscall.SIGINT)
			defer signal.Stop(interrupts)
			go func() {
				for range interrupts {
					app.mesh.Cancel(sessionID)
				}
			}()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "skillmesh chat. Type 'exit' to quit, '/transcript' to dump the session.")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch {
				case line == "":
					continue
				case line == "exit" || line == "quit":
					return nil
				case line == "/transcript":
					turns, err := app.mesh.Transcript(cmd.Context(), sessionID)
					if err != nil {
						fmt.Fprintln(out, "error:", err)
						continue
					}
					printTranscript(out, turns)
					continue
				}

				_, err := app.mesh.RunTurn(cmd.Context(), sessionID, line, func(delta string) {
					fmt.Fprint(out, delta)
				})
				fmt.Fprintln(out)
				if err != nil {
					fmt.Fprintln(out, "error:", err)
				}
			}
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "default", "Session ID to resume or create")

	return cmd
}

func printTranscript(out io.Writer, turns []core.Turn) {
	for _, t := range turns {
		label := string(t.Role)
		if t.Partial {
			label += " (partial)"
		}
		fmt.Fprintf(out, "[%s] %s\n", label, t.Content)
		for _, call := range t.ToolCalls {
			fmt.Fprintf(out, "  -> %s(%s)\n", call.Name, call.Arguments)
		}
		if t.ToolResult != nil {
			if t.ToolResult.Failed() {
				fmt.Fprintf(out, "  <- %s error (%s): %s\n", t.ToolResult.Name, t.ToolResult.Kind, t.ToolResult.Error)
			} else {
				fmt.Fprintf(out, "  <- %s: %s\n", t.ToolResult.Name, core.Stringify(t.ToolResult.Content))
			}
		}
	}
}
