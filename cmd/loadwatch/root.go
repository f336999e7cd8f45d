package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/loadflow/internal/config"
)

// newRootCmd creates the root command and its subcommands. The returned app
// is populated before a subcommand runs; the caller closes it afterwards.
func newRootCmd() (*cobra.Command, *app) {
	var cfgFile string
	v := config.New()
	a := &app{}

	cmd := &cobra.Command{
		Use:   "loadwatch",
		Short: "Follow progress-reporting loads as reactive streams",
		Long: `loadwatch bridges callback-style loads into progress streams.
It can replay a scripted load on a schedule, follow a job that another
process reports into Redis, or act as that reporting process.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if err := a.init(cfg); err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("redis-addr", "", "Redis address for job state")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Bool("dev", false, "human-friendly development logging")

	_ = v.BindPFlag("redis.addr", flags.Lookup("redis-addr"))
	_ = v.BindPFlag("metrics.addr", flags.Lookup("metrics-addr"))
	_ = v.BindPFlag("logging.development", flags.Lookup("dev"))

	cmd.AddCommand(newDemoCmd(a), newWatchCmd(a), newReportCmd(a))
	return cmd, a
}
