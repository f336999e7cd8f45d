package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vnykmshr/loadflow/internal/logging"
	lferrors "github.com/vnykmshr/loadflow/pkg/common/errors"
	"github.com/vnykmshr/loadflow/pkg/loader/redisjob"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		job      string
		values   []float64
		interval time.Duration
		result   string
		fail     string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report a scripted job into Redis",
		Long: `Acts as the worker side of a Redis job: writes each progress value, then
the result (or a failure). Stops early when a watcher cancels the job.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if job == "" {
				job = uuid.NewString()
			}

			var payload interface{} = result
			if json.Valid([]byte(result)) {
				payload = json.RawMessage(result)
			}

			rep, err := redisjob.NewReporter(a.jobConfig(), job)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "job %s\n", job)
			return runReport(cmd.Context(), a.logger.With(zap.String("job", job)), rep, values, interval, payload, fail)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&job, "job", "", "job id (default: a random uuid)")
	flags.Float64SliceVar(&values, "values", []float64{0.25, 0.5, 0.75}, "progress values to report")
	flags.DurationVar(&interval, "interval", 200*time.Millisecond, "pause between progress values")
	flags.StringVar(&result, "result", `"done"`, "result; valid JSON is stored as is, anything else as a JSON string")
	flags.StringVar(&fail, "fail", "", "fail the job with this reason instead of completing it")
	return cmd
}

func runReport(ctx context.Context, logger *zap.Logger, rep *redisjob.Reporter, values []float64,
	interval time.Duration, result interface{}, fail string) error {
	if err := rep.Begin(ctx); err != nil {
		return err
	}

	for _, v := range values {
		cancelled, err := rep.CancelRequested(ctx)
		if err != nil {
			return err
		}
		if cancelled {
			logger.Info("job cancelled by consumer")
			if err := rep.Fail(ctx, lferrors.ErrCancelled.Error()); err != nil {
				return err
			}
			return lferrors.ErrCancelled
		}

		if err := rep.Progress(ctx, v); err != nil {
			return err
		}
		logger.Debug("reported", logging.Progress(v))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	if fail != "" {
		return rep.Fail(ctx, fail)
	}
	return rep.Complete(ctx, result)
}
