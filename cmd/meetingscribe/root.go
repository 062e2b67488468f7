package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/websines/meetingscribe"
	"github.com/websines/meetingscribe/calendar"
	"github.com/websines/meetingscribe/logging"
	"github.com/websines/meetingscribe/model"
	"github.com/websines/meetingscribe/model/anthropic"
	"github.com/websines/meetingscribe/model/openai"
)

var (
	flagProvider   string
	flagModel      string
	flagCalendarID string
	flagVerbose    bool
)

// rootCmd represents the base command for the meetingscribe application
var rootCmd = &cobra.Command{
	Use:   "meetingscribe",
	Short: "Generates Excel meeting reports from your calendar with AI analysis",
	Long: `meetingscribe fetches meetings from Google Calendar, optionally analyzes
them with a language model (summary, category, action items), and assembles
an Excel report.

Credentials are read from the environment (or a .env file):
  GOOGLE_ACCESS_TOKEN   OAuth2 access token with calendar.readonly scope
  OPENAI_API_KEY        when --provider=openai
  ANTHROPIC_API_KEY     when --provider=anthropic`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; real environment variables still apply.
		_ = godotenv.Load()
	},
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "openai", "model provider: openai or anthropic")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model id override for the selected provider")
	rootCmd.PersistentFlags().StringVar(&flagCalendarID, "calendar", "primary", "calendar id to read")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newRunCmd())
}

func newLogger() logging.Logger {
	cfg := logging.DefaultConfig()
	if flagVerbose {
		cfg.Level = logging.LogLevelDebug
	}
	return logging.New(cfg)
}

func newModel() (model.Model, error) {
	switch flagProvider {
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if flagModel != "" {
				o.Model = flagModel
			}
		}), nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if flagModel != "" {
				o.Model = flagModel
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (want openai or anthropic)", flagProvider)
	}
}

func newScribe(cmd *cobra.Command, optFns ...func(o *meetingscribe.Options)) (*meetingscribe.Scribe, error) {
	token := os.Getenv("GOOGLE_ACCESS_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GOOGLE_ACCESS_TOKEN is not set")
	}

	source, err := calendar.NewClient(
		cmd.Context(),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		func(o *calendar.ClientOptions) { o.CalendarID = flagCalendarID },
	)
	if err != nil {
		return nil, err
	}

	llm, err := newModel()
	if err != nil {
		return nil, err
	}

	logger := newLogger()
	optFns = append([]func(o *meetingscribe.Options){func(o *meetingscribe.Options) {
		o.Logger = logger
	}}, optFns...)

	return meetingscribe.New(llm, source, optFns...)
}
