package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/loadflow/pkg/loader/redisjob"
	"github.com/vnykmshr/loadflow/pkg/streaming/progress"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		job         string
		cancelAfter int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a job reported into Redis",
		Long: `Polls the job hash written by "loadwatch report" (or any redisjob.Reporter)
and prints its progress and JSON result. Cancelling sets the job's cancel flag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			l, err := redisjob.NewLoader[json.RawMessage](a.jobConfig(), job)
			if err != nil {
				return err
			}
			defer l.Wait()

			pub := progress.NewWithConfigAndMetrics[json.RawMessage](l,
				progress.Config{Name: "watch", Logger: a.logger}, a.metricsConfig)

			return follow[json.RawMessage](cmd.Context(), cmd.OutOrStdout(), a.logger, pub, renderJSON, cancelAfter)
		},
	}

	cmd.Flags().StringVar(&job, "job", "", "job id to follow")
	cmd.Flags().IntVar(&cancelAfter, "cancel-after", 0, "cancel after this many progress updates (0 = never)")
	_ = cmd.MarkFlagRequired("job")
	return cmd
}

func renderJSON(item progress.LoadResult[json.RawMessage]) string {
	if raw, ok := item.Value(); ok {
		return fmt.Sprintf("%.0f%% %s", item.Progress*100, raw)
	}
	return item.String()
}
