package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command text>",
		Short: "Route a free-text command to a single pipeline agent",
		Long: `run sends a free-text command to whichever agent's domain keywords match
first (acquisition, then analysis, then report), defaulting to acquisition.

Examples:
  meetingscribe run "fetch my meetings from 2026-03-01 to 2026-03-07"
  meetingscribe run "generate the excel export"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scribe, err := newScribe(cmd)
			if err != nil {
				return err
			}

			events, unsubscribe := scribe.Subscribe("cli")
			defer unsubscribe()
			done := make(chan struct{})
			go func() {
				defer close(done)
				printEvents(cmd, events)
			}()

			res := scribe.RunCommand(cmd.Context(), strings.Join(args, " "))

			unsubscribe()
			<-done

			if !res.Result.Success {
				return fmt.Errorf("agent %s failed: %s", res.Agent, res.Result.Error)
			}

			cmd.Printf("[%s] %s\n", res.Agent, res.Result.Message)
			return nil
		},
	}

	return cmd
}
