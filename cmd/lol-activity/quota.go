package main

import (
	"fmt"
	"time"

	"github.com/gruposillas/lol-activity/pkg/ratelimit"
	"github.com/spf13/cobra"
)

func newQuotaCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Print the last quota snapshot stored in Redis",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if !cfg.RedisEnabled() {
				return fmt.Errorf("redis.addr is required to read the quota snapshot")
			}

			rdb, err := connectRedis(cmd.Context(), cfg.Redis)
			if err != nil {
				return err
			}
			defer rdb.Close()

			budget, err := ratelimit.NewRedisSnapshotStore(rdb, snapshotTTL).Load(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if budget == nil {
				fmt.Fprintln(out, "No quota snapshot stored.")
				return nil
			}

			fmt.Fprintf(out, "remaining:   %d\n", budget.Remaining)
			fmt.Fprintf(out, "per second:  %d\n", cfg.RateLimit.PerSecond)
			fmt.Fprintf(out, "per minute:  %d\n", cfg.RateLimit.PerMinute)
			if budget.ObservedAt.IsZero() {
				fmt.Fprintln(out, "observed at: never")
			} else {
				fmt.Fprintf(out, "observed at: %s (%s ago)\n",
					budget.ObservedAt.Format(time.RFC3339), time.Since(budget.ObservedAt).Round(time.Second))
			}
			return nil
		},
	}
}
