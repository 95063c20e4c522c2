package jobs

import (
	"fmt"
	"log/slog"

	"marketplace/internal/core/application/usecases/commands"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	expirySweepJob  *ExpirySweepJob
	courierRetryJob *CourierRetryJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	expireHandler commands.ExpireStaleOrdersCommandHandler,
	retryHandler commands.RetryCourierSchedulingCommandHandler,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		expirySweepJob:  NewExpirySweepJob(expireHandler, logger),
		courierRetryJob: NewCourierRetryJob(retryHandler, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.expirySweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start expiry sweep job: %w", err)
	}

	if err := jm.courierRetryJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.expirySweepJob.Stop()
		return fmt.Errorf("failed to start courier retry job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.expirySweepJob.Stop()
	jm.courierRetryJob.Stop()
}
