package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/notion-ai-webhook/internal/app"
	"github.com/yungbote/notion-ai-webhook/internal/config"
	"github.com/yungbote/notion-ai-webhook/internal/platform/logger"
)

var rootCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Notion automation webhooks backed by Gemini",
	Long: `Receives Notion automation webhooks, generates content with Gemini and
writes it back to Notion. Without a subcommand the HTTP server is started.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", os.Getenv("CONFIG_FILE"), "Optional YAML config file (env CONFIG_FILE)")
}

// bootstrap loads configuration and builds the application.
func bootstrap(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := app.New(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}
