// Package jobs provides scheduled background tasks for the order lifecycle.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle the periodic maintenance the order flow requires.
//
// # Available Jobs
//
// 1. ExpirySweepJob - Runs every five minutes to expire stale orders: stale
// pending commits are auto-declined and refunded, missed collections move to
// collection_timeout, and collected orders past the auto-deliver window are
// accepted as delivered.
//
// 2. CourierRetryJob - Runs every minute to book couriers for committed
// orders whose original booking failed, so a provider outage only delays
// scheduling instead of stranding orders.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	// Create job manager with required handlers
//	jobManager := jobs.NewJobManager(expireHandler, retryHandler, logger)
//
//	// Start all jobs
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	// Stop all jobs when shutting down
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Both jobs isolate failures per order: one order failing to process never
// aborts the rest of the pass, and the failed order stays a candidate for the
// next tick. Job-level failures are logged, never fatal.
package jobs
