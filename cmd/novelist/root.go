package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kerbaras/novelist/pkg/app"
	"github.com/kerbaras/novelist/pkg/config"
	"github.com/kerbaras/novelist/pkg/logger"
	"github.com/kerbaras/novelist/pkg/providers"
)

var (
	cfg        *config.Config
	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "novelist",
	Short: "Write a whole book with AI",
	Long:  "Generate an outline, chapters, a title and a cover with AI and package them as a text file and an EPUB",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") || loaded.Log.Level == "" {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") || loaded.Log.Format == "" {
			loaded.Log.Format = logFormat
		}
		logger.Init(loaded.Log.Level, loaded.Log.Format, os.Stderr)
		cfg = loaded
		return nil
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	// Without a subcommand, behave like "write" and ask for everything.
	RunE: runWrite,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./novelist.yaml or ~/.novelist/novelist.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	addBookFlags(rootCmd)

	rootCmd.AddCommand(writeCmd)
	rootCmd.AddCommand(outlineCmd)
	rootCmd.AddCommand(assembleCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		slog.Error("run failed", "error", err, "kind", providers.Classify(err).String())
		fmt.Fprintln(os.Stderr, operatorMessage(err))
		os.Exit(1)
	}
}

// operatorMessage turns err into the single line shown to the operator.
func operatorMessage(err error) string {
	if errors.Is(err, app.ErrCancelled) || errors.Is(err, context.Canceled) {
		return "Cancelled."
	}
	switch providers.Classify(err) {
	case providers.KindMissingCredential:
		return "Error: Please make sure the Anthropic and Stability API keys are set in the .env file."
	case providers.KindGenerationService:
		return "Error: An issue occurred while generating the content. Please try again later."
	default:
		return "An unexpected error occurred. Please check the logs for more information."
	}
}
