package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/retryqueue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the translation retry queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(ctx, cmd, statusFlag)
		},
	}

	queueCmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, failed, retry_ready, success, skipped)")

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statusFlag string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued translation requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueueList(ctx, cmd, statusFlag)
		},
	}

	cmd.Flags().StringVar(&statusFlag, "status", "", "Filter by status (pending, failed, retry_ready, success, skipped)")
	return cmd
}

func runQueueList(ctx *commandContext, cmd *cobra.Command, statusFlag string) error {
	queue, err := ctx.openQueue()
	if err != nil {
		return fmt.Errorf("open retry queue: %w", err)
	}
	now := time.Now().UTC()

	var requests []retryqueue.Request
	if trimmed := strings.TrimSpace(statusFlag); trimmed != "" {
		status, err := parseQueueStatus(trimmed)
		if err != nil {
			return err
		}
		requests = queue.ByStatus(status, now)
	} else {
		requests = queue.All()
	}

	out := cmd.OutOrStdout()
	if len(requests) == 0 {
		fmt.Fprintln(out, "Retry queue is empty")
		return nil
	}

	rows := make([][]string, 0, len(requests))
	for _, req := range requests {
		next := "-"
		if !req.Terminal() {
			next = req.NextRetryAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			shortID(req.ID),
			req.OriginalText,
			string(retryqueue.EffectiveStatus(req, now)),
			fmt.Sprintf("%d", req.AttemptCount),
			next,
			req.LastError,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Text", "Status", "Attempts", "Next Retry", "Last Error"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))

	summary := queue.Summarize(now)
	fmt.Fprintf(out, "%d request(s): %d pending, %d failed, %d retry-ready, %d success, %d skipped\n",
		summary.Total(), summary.Pending, summary.Failed, summary.RetryReady, summary.Success, summary.Skipped)
	return nil
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var terminal bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove terminal requests from the queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !terminal {
				return errors.New("refusing to clear active requests; pass --terminal to remove finished ones")
			}
			queue, err := ctx.openQueue()
			if err != nil {
				return fmt.Errorf("open retry queue: %w", err)
			}
			removed, err := queue.ClearTerminal(time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d terminal request(s)\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&terminal, "terminal", false, "Remove requests in success or skipped state")
	return cmd
}

func parseQueueStatus(value string) (retryqueue.Status, error) {
	status := retryqueue.Status(strings.ToLower(value))
	switch status {
	case retryqueue.StatusPending, retryqueue.StatusFailed, retryqueue.StatusRetryReady,
		retryqueue.StatusSuccess, retryqueue.StatusSkipped:
		return status, nil
	default:
		return "", fmt.Errorf("unknown status %q", value)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
