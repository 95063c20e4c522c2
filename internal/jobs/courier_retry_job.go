package jobs

import (
	"context"
	"log/slog"

	"marketplace/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// courierRetrySchedule runs once a minute so a courier outage delays
// scheduling by minutes, not hours.
const courierRetrySchedule = "0 * * * * *"

// CourierRetryJob re-drives courier booking for committed orders that never
// got a tracking reference, clearing the partial-success state a failed
// booking leaves behind.
type CourierRetryJob struct {
	handler commands.RetryCourierSchedulingCommandHandler
	cron    *cron.Cron
	logger  *slog.Logger
}

// NewCourierRetryJob creates the courier scheduling retry job.
func NewCourierRetryJob(handler commands.RetryCourierSchedulingCommandHandler, logger *slog.Logger) *CourierRetryJob {
	return &CourierRetryJob{
		handler: handler,
		cron:    cron.New(cron.WithSeconds()),
		logger:  logger.With("component", "courier_retry_job"),
	}
}

// Start schedules the retry pass.
func (j *CourierRetryJob) Start() error {
	_, err := j.cron.AddFunc(courierRetrySchedule, func() {
		ctx := context.Background()
		cmd := commands.NewRetryCourierSchedulingCommand()

		result, err := j.handler.Handle(ctx, cmd)
		if err != nil {
			j.logger.ErrorContext(ctx, "Courier scheduling retry failed", "error", err)
			return
		}

		if result.Scheduled > 0 || result.Errors > 0 {
			j.logger.InfoContext(ctx, "Courier scheduling retry completed",
				"scheduled", result.Scheduled, "errors", result.Errors)
		}
	})

	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Courier retry job started (running every minute)")
	return nil
}

// Stop stops the courier retry job.
func (j *CourierRetryJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Courier retry job stopped")
}
