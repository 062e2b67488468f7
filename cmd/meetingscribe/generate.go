package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/websines/meetingscribe"
	"github.com/websines/meetingscribe/core"
	"github.com/websines/meetingscribe/orchestrator"
)

func newGenerateCmd() *cobra.Command {
	var (
		startDate string
		endDate   string
		organizer string
		analyze   bool
		summary   bool
		output    string
		throttle  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the full pipeline and produce an Excel meeting report",
		RunE: func(cmd *cobra.Command, args []string) error {
			scribe, err := newScribe(cmd, func(o *meetingscribe.Options) {
				o.AnalysisThrottle = throttle
			})
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

			result := scribe.GenerateReport(cmd.Context(), orchestrator.ReportRequest{
				StartDate:               startDate,
				EndDate:                 endDate,
				Organizer:               organizer,
				IncludeAnalysis:         analyze,
				IncludeExecutiveSummary: summary,
			})

			unsubscribe()
			<-done

			if !result.Success {
				if result.Error != "" {
					return fmt.Errorf("%s: %s", result.Message, result.Error)
				}
				cmd.Println(result.Message)
				return nil
			}

			cmd.Println(result.Message)
			if result.DownloadURL != "" {
				cmd.Printf("Download: %s\n", result.DownloadURL)
			}

			if output != "" {
				if err := writeArtifact(scribe, output); err != nil {
					return err
				}
				cmd.Printf("Saved to %s\n", output)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&startDate, "start", "", "range start, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&endDate, "end", "", "range end, YYYY-MM-DD, inclusive (required)")
	cmd.Flags().StringVar(&organizer, "organizer", "", "only include meetings organized by this name or email")
	cmd.Flags().BoolVar(&analyze, "analyze", true, "analyze meetings with the model")
	cmd.Flags().BoolVar(&summary, "summary", true, "include an executive summary (implies --analyze)")
	cmd.Flags().StringVar(&output, "output", "", "write the workbook to this path")
	cmd.Flags().DurationVar(&throttle, "throttle", 500*time.Millisecond, "delay between per-meeting analysis calls")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

// writeArtifact copies the most recent workbook from the store to disk.
func writeArtifact(scribe *meetingscribe.Scribe, path string) error {
	artifacts, err := scribe.Store().List()
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		return fmt.Errorf("no report artifact in store")
	}

	latest := artifacts[0]
	for _, a := range artifacts[1:] {
		if a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}

	raw, _, err := scribe.Store().Get(latest.Handle)
	if err != nil {
		return err
	}

	return os.WriteFile(path, raw, 0o644)
}

func printEvents(cmd *cobra.Command, events <-chan core.AgentEvent) {
	for ev := range events {
		switch ev.Type {
		case core.EventThinking:
			cmd.Printf("[%s] %s\n", ev.Agent, ev.Message)
		case core.EventToolCall:
			cmd.Printf("[%s] calling %s\n", ev.Agent, ev.Message)
		case core.EventError:
			cmd.Printf("[%s] error: %s\n", ev.Agent, ev.Message)
		case core.EventComplete:
			cmd.Printf("[%s] done\n", ev.Agent)
		}
	}
}
