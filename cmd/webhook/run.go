package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/notion-ai-webhook/internal/automation"
)

var runCmd = &cobra.Command{
	Use:   "run {diary|review|weekly-report} <page-id>",
	Short: "Run one automation synchronously",
	Long: `Runs a pipeline in the foreground against the given page and exits
non-zero when it fails. Nothing is recorded in the run ledger.`,
	Args: cobra.ExactArgs(2),
	ValidArgs: func() []string {
		out := make([]string, 0, len(automation.Kinds))
		for _, k := range automation.Kinds {
			out = append(out, string(k))
		}
		return out
	}(),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := automation.ParseKind(args[0])
		if err != nil {
			return err
		}
		pageID := strings.TrimSpace(args[1])
		if pageID == "" {
			return fmt.Errorf("page id is required")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := bootstrap(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		a.Log.Info("running automation", "automation", kind, "page_id", pageID)
		if err := a.Services.Automation.Run(ctx, kind, pageID); err != nil {
			return fmt.Errorf("%s failed: %w", kind, err)
		}
		a.Log.Info("automation completed", "automation", kind, "page_id", pageID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
