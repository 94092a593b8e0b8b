package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/skillmesh/core"
)

// promptConfirmation returns a confirmation handler that asks the user on the
// terminal. It blocks until the user answers or the turn is cancelled.
func promptConfirmation(cmd *cobra.Command) func(ctx context.Context, call core.ToolCallRequest) (bool, error) {
	return func(ctx context.Context, call core.ToolCallRequest) (bool, error) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\nAllow tool %s with arguments %s? [y/N] ", call.Name, call.Arguments)

		answers := make(chan string, 1)
		go func() {
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			answers <- strings.ToLower(strings.TrimSpace(line))
		}()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case answer := <-answers:
			return answer == "y" || answer == "yes", nil
		}
	}
}
