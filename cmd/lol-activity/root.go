package main

import (
	"github.com/gruposillas/lol-activity/internal/config"
	"github.com/gruposillas/lol-activity/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootOptions is shared by every subcommand. cfg is set by PersistentPreRunE.
type rootOptions struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "lol-activity",
		Short: "Match-history activity reports behind a rate-controlled dispatcher",
		Long: `lol-activity reports how much a player has played recently.

Every upstream call passes through one dispatcher that keeps within the
API key's quota and retries throttled calls. Configuration is read from
defaults, an optional YAML file, LOL_* environment variables and flags.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&opts.configFile, "config", "c", "", "Path to YAML configuration file")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.String("log-format", logging.FormatJSON, "Log format (json, console)")
	flags.String("platform", "euw1", "Platform routing value (e.g. euw1, na1)")
	flags.String("region", "europe", "Regional routing value (e.g. europe, americas)")
	flags.String("redis-addr", "", "Redis address; enables the match cache and quota snapshot")

	for key, flag := range map[string]string{
		"logging.level":  "log-level",
		"logging.format": "log-format",
		"api.platform":   "platform",
		"api.region":     "region",
		"redis.addr":     "redis-addr",
	} {
		_ = opts.v.BindPFlag(key, flags.Lookup(flag))
	}

	cmd.AddCommand(
		newServeCmd(opts),
		newPlayedCmd(opts),
		newQuotaCmd(opts),
	)

	return cmd
}

func (o *rootOptions) load() error {
	cfg, err := config.Load(o.v, o.configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Setup(cfg.LoggingSetup())
	o.cfg = cfg
	return nil
}
