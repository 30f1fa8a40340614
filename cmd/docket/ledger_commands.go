package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docket/internal/config"
	"docket/internal/ledger"
	"docket/internal/services"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	var pathFlag string
	var limit int

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Show the audit ledger of applied operations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var led *ledger.Ledger
			if trimmed := strings.TrimSpace(pathFlag); trimmed != "" {
				expanded, err := config.ExpandPath(trimmed)
				if err != nil {
					return err
				}
				led = ledger.OpenFile(expanded)
			} else {
				var err error
				led, err = ctx.openLedger()
				if err != nil {
					return fmt.Errorf("open ledger: %w", err)
				}
			}
			out := cmd.OutOrStdout()

			entries, err := led.Read()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "Ledger is empty")
				return nil
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[len(entries)-limit:]
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				op := string(entry.Op)
				if entry.Reversal {
					op = "undo " + op
				}
				rows = append(rows, []string{
					entry.Timestamp.UTC().Format(time.RFC3339),
					op,
					entry.OriginalPath,
					entry.NewPath,
					shortID(entry.ContentHash),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Timestamp", "Operation", "From", "To", "Hash"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().StringVar(&pathFlag, "path", "", "Read a specific ledger file instead of the configured one")
	cmd.Flags().IntVar(&limit, "limit", 0, "Show only the most recent N entries")
	return cmd
}

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var pathFlag string
	var sinceFlag string
	var lastFlag int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Reverse ledger operations, newest first",
		Long: "Undo replays the ledger in reverse: renamed files move back to their " +
			"original paths and translated copies are removed. Each reversal verifies " +
			"the file's content hash first and refuses to touch files modified since " +
			"they were filed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := ledger.Filter{Last: lastFlag}
			if trimmed := strings.TrimSpace(pathFlag); trimmed != "" {
				expanded, err := config.ExpandPath(trimmed)
				if err != nil {
					return err
				}
				filter.Path = expanded
			}
			if trimmed := strings.TrimSpace(sinceFlag); trimmed != "" {
				since, err := parseSince(trimmed)
				if err != nil {
					return err
				}
				filter.Since = since
			}

			led, err := ctx.openLedger()
			if err != nil {
				return fmt.Errorf("open ledger: %w", err)
			}
			inverses, err := led.PlanUndo(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(inverses) == 0 {
				fmt.Fprintln(out, "Nothing to undo")
				return nil
			}

			var applied, failed int
			for _, inv := range inverses {
				if dryRun {
					fmt.Fprintf(out, "would %s\n", describeInverse(inv))
					continue
				}
				if err := led.Apply(inv); err != nil {
					failed++
					fmt.Fprintln(out, renderStatusLine(inv.Source.NewPath, statusError,
						undoFailureDetail(err), shouldColorize(out)))
					continue
				}
				applied++
				fmt.Fprintf(out, "%s\n", describeInverse(inv))
			}
			if dryRun {
				fmt.Fprintf(out, "%d operation(s) would be reversed\n", len(inverses))
				return nil
			}
			fmt.Fprintf(out, "Reversed %d operation(s)", applied)
			if failed > 0 {
				fmt.Fprintf(out, ", %d failed", failed)
			}
			fmt.Fprintln(out)
			if failed > 0 {
				return fmt.Errorf("%d undo operation(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&pathFlag, "path", "", "Only reverse operations touching this path")
	cmd.Flags().StringVar(&sinceFlag, "since", "", "Only reverse operations recorded at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&lastFlag, "last", 0, "Only reverse the most recent N operations")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be reversed without touching files")
	return cmd
}

func describeInverse(inv ledger.Inverse) string {
	if inv.Remove {
		return fmt.Sprintf("remove copy %s (original kept at %s)", inv.From, inv.Source.OriginalPath)
	}
	return fmt.Sprintf("move %s back to %s", inv.From, inv.To)
}

func undoFailureDetail(err error) string {
	switch {
	case errors.Is(err, services.ErrIntegrityMismatch):
		return "file changed since it was filed; leaving it in place"
	case errors.Is(err, services.ErrNotFound):
		return "file no longer exists"
	default:
		return err.Error()
	}
}

func parseSince(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (use RFC3339 or YYYY-MM-DD)", value)
}
