package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry",
		Short: "Re-attempt queued translations whose backoff has elapsed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			queue, err := ctx.openQueue()
			if err != nil {
				return fmt.Errorf("open retry queue: %w", err)
			}
			logger, err := ctx.buildLogger()
			if err != nil {
				return err
			}
			cache, err := ctx.openCache()
			if err != nil {
				return fmt.Errorf("open translation cache: %w", err)
			}
			defer cache.Close()
			chain := ctx.buildChain(cache, logger)

			outcome, err := queue.RetryAll(runCtx, chain, time.Now().UTC())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Attempted == 0 {
				fmt.Fprintln(out, "No requests are eligible for retry")
				return nil
			}
			fmt.Fprintf(out, "Retried %d request(s): %d succeeded, %d rescheduled, %d skipped\n",
				outcome.Attempted, outcome.Succeeded, outcome.Failed, outcome.Skipped)
			if outcome.Skipped > 0 {
				fmt.Fprintln(out, "Skipped requests exhausted their attempt budget and need manual renaming")
			}
			return nil
		},
	}
}
