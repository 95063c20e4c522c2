package jobs

import (
	"context"
	"log/slog"

	"marketplace/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// expirySweepSchedule runs the sweep every five minutes. The expiry windows
// are measured in hours and days, so a tighter schedule buys nothing.
const expirySweepSchedule = "0 */5 * * * *"

// ExpirySweepJob periodically expires stale orders: pending commits past their
// window, scheduled collections the courier never made, and optionally
// collected orders awaiting auto-acceptance.
type ExpirySweepJob struct {
	handler commands.ExpireStaleOrdersCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewExpirySweepJob creates the expiry sweep job.
func NewExpirySweepJob(handler commands.ExpireStaleOrdersCommandHandler, logger *slog.Logger) *ExpirySweepJob {
	return &ExpirySweepJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "expiry_sweep_job"),
	}
}

// Start schedules the sweep.
func (j *ExpirySweepJob) Start() error {
	_, err := j.cron.AddFunc(expirySweepSchedule, func() {
		ctx := context.Background()
		cmd := commands.NewExpireStaleOrdersCommand()

		result, err := j.handler.Handle(ctx, cmd)
		if err != nil {
			j.logger.ErrorContext(ctx, "Expiry sweep failed", "error", err)
			return
		}

		if result.Processed > 0 || result.Errors > 0 {
			j.logger.InfoContext(ctx, "Expiry sweep completed",
				"processed", result.Processed, "errors", result.Errors)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Expiry sweep job started (running every 5 minutes)")
	return nil
}

// Stop stops the expiry sweep job.
func (j *ExpirySweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Expiry sweep job stopped")
}
