package main

import (
	"github.com/spf13/cobra"

	"github.com/vnykmshr/loadflow/pkg/loader"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

func newDemoCmd(a *app) *cobra.Command {
	var (
		values      []float64
		schedule    string
		result      string
		cancelAfter int
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Replay a scripted load on a schedule",
		Long: `Replays progress checkpoints one per schedule tick and completes on the
tick after the last one. Checkpoints stop at the first value of 1.`,
		Example: `  loadwatch demo --values 0,0.5,1 --schedule "@every 1s" --result success
  loadwatch demo --schedule "*/1 * * * *" --cancel-after 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			if !flags.Changed("values") {
				values = a.cfg.Demo.Values
			}
			if !flags.Changed("schedule") {
				schedule = a.cfg.Demo.Schedule
			}
			if !flags.Changed("result") {
				result = a.cfg.Demo.Result
			}

			sched, err := loader.ParseSchedule(schedule)
			if err != nil {
				return err
			}
			l, err := loader.NewPacedSafe(loader.PacedConfig[string]{
				Values:   values,
				Result:   result,
				Schedule: sched,
			})
			if err != nil {
				return err
			}
			defer l.Wait()

			pub := progress.NewWithConfigAndMetrics[string](l,
				progress.Config{Name: "demo", Logger: a.logger}, a.metricsConfig)

			return follow[string](cmd.Context(), cmd.OutOrStdout(), a.logger, pub,
				progress.LoadResult[string].String, cancelAfter)
		},
	}

	flags := cmd.Flags()
	flags.Float64SliceVar(&values, "values", nil, "progress checkpoints in [0,1], non-decreasing")
	flags.StringVar(&schedule, "schedule", "", `tick schedule: "@every <duration>" or a cron expression`)
	flags.StringVar(&result, "result", "", "result delivered on completion")
	flags.IntVar(&cancelAfter, "cancel-after", 0, "cancel after this many progress updates (0 = never)")
	return cmd
}
