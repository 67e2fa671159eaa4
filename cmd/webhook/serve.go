package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook HTTP server",
	Long: `Serves the trigger endpoints until SIGINT or SIGTERM, then stops accepting
requests and waits up to SHUTDOWN_TIMEOUT for background runs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return a.Serve(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
