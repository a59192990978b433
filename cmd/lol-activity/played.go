package main

import (
	"fmt"

	"github.com/gruposillas/lol-activity/pkg/report"
	"github.com/spf13/cobra"
)

func newPlayedCmd(opts *rootOptions) *cobra.Command {
	var (
		days   int
		ranked bool
	)

	cmd := &cobra.Command{
		Use:   "played <player>",
		Short: "Print a player's recent activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			player := args[0]
			if !cmd.Flags().Changed("days") {
				days = opts.cfg.Activity.MaxDays
			}

			a, err := newApp(cmd.Context(), opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			activity, err := a.client.Activity(cmd.Context(), player, days, ranked)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), report.ErrorMessage(err, player))
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), report.Render(activity, opts.cfg.API.Platform))
			return nil
		},
	}

	cmd.Flags().IntVarP(&days, "days", "d", 0, "Number of days to look back (capped at 7)")
	cmd.Flags().BoolVar(&ranked, "ranked", false, "Only ranked games, with the solo-queue standing")

	return cmd
}
