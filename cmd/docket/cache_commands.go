package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the translation cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache size and expiry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return fmt.Errorf("open translation cache: %w", err)
			}
			out := cmd.OutOrStdout()
			if cache == nil {
				fmt.Fprintln(out, "Translation cache is disabled")
				return nil
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cache: %s\n", stats.Path)
			fmt.Fprintf(out, "Entries: %d (%d expired)\n", stats.Entries, stats.Expired)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var expiredOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached translations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := ctx.openCache()
			if err != nil {
				return fmt.Errorf("open translation cache: %w", err)
			}
			out := cmd.OutOrStdout()
			if cache == nil {
				fmt.Fprintln(out, "Translation cache is disabled")
				return nil
			}
			defer cache.Close()

			if expiredOnly {
				removed, err := cache.Evict(cmd.Context(), time.Now().UTC())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Evicted %d expired entries\n", removed)
				return nil
			}
			if err := cache.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "Only remove entries past their TTL")
	return cmd
}
