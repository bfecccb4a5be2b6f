// Package worker implements the asynchronous vetting worker: claim by
// advisory lock, four-stage pipeline, terminal job update.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/skregdev/skreg/internal/database"
	"github.com/skregdev/skreg/internal/models"
	"github.com/skregdev/skreg/internal/repository"
)

// Runner subscribes to vetting job notifications and processes claims.
type Runner struct {
	db            *database.Postgres
	jobs          repository.JobRepository
	versions      repository.VersionRepository
	pipeline      *Pipeline
	logger        *slog.Logger
	recoveryGrace time.Duration
}

// NewRunner creates a vetting worker runner.
func NewRunner(
	db *database.Postgres,
	jobs repository.JobRepository,
	versions repository.VersionRepository,
	pipeline *Pipeline,
	logger *slog.Logger,
	recoveryGrace time.Duration,
) *Runner {
	return &Runner{
		db:            db,
		jobs:          jobs,
		versions:      versions,
		pipeline:      pipeline,
		logger:        logger,
		recoveryGrace: recoveryGrace,
	}
}

// Run recovers stale jobs, then blocks on the notification loop until
// ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.recover(ctx); err != nil {
		return err
	}

	conn, err := r.db.Listen(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	r.logger.Info("worker listening", slog.String("channel", database.VettingChannel))

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		jobID, err := uuid.Parse(notification.Payload)
		if err != nil {
			r.logger.Warn("ignoring malformed notification",
				slog.String("payload", notification.Payload))
			continue
		}

		go r.Process(ctx, jobID)
	}
}

// recover re-enqueues pending jobs older than the grace window by
// emitting self-notifications. This reconciles jobs whose original
// notification was lost.
func (r *Runner) recover(ctx context.Context) error {
	stale, err := r.jobs.ListStalePending(ctx, r.recoveryGrace)
	if err != nil {
		return err
	}
	for _, id := range stale {
		recoveredJobs.Inc()
		r.logger.Info("re-enqueueing stale job", slog.String("job_id", id.String()))
		if err := r.db.NotifyVettingJob(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Process claims and runs a single job. Safe to call concurrently and
// from multiple workers: the advisory lock admits exactly one claimant
// and the post-lock status check makes terminal jobs a no-op.
func (r *Runner) Process(ctx context.Context, jobID uuid.UUID) {
	lock, err := r.db.TryLockJob(ctx, jobID)
	if err != nil {
		r.logger.Error("job claim failed", slog.String("job_id", jobID.String()), slog.Any("error", err))
		return
	}
	if lock == nil {
		claimsSkipped.Inc()
		return
	}
	defer lock.Release(ctx)

	status, err := r.jobs.GetStatus(ctx, jobID)
	if err != nil {
		r.logger.Error("job status check failed", slog.String("job_id", jobID.String()), slog.Any("error", err))
		return
	}
	if status != models.JobStatusPending {
		return
	}

	job, err := r.jobs.GetByID(ctx, jobID)
	if err != nil || job == nil {
		r.logger.Error("job load failed", slog.String("job_id", jobID.String()), slog.Any("error", err))
		return
	}

	version, pkgName, nsSlug, err := r.versions.GetWithNames(ctx, job.VersionID)
	if err != nil || version == nil {
		r.logger.Error("version load failed", slog.String("job_id", jobID.String()), slog.Any("error", err))
		return
	}

	started := time.Now()
	outcome := r.pipeline.Run(ctx, version, pkgName)

	if err := r.jobs.Complete(ctx, jobID, outcome.Status, &outcome.Results); err != nil {
		r.logger.Error("job completion write failed", slog.String("job_id", jobID.String()), slog.Any("error", err))
		return
	}

	jobsTotal.WithLabelValues(string(outcome.Status)).Inc()
	r.logger.Info("job completed",
		slog.String("job_id", jobID.String()),
		slog.String("package", nsSlug+"/"+pkgName+"@"+version.Version),
		slog.String("status", string(outcome.Status)),
		slog.Duration("duration", time.Since(started)),
	)
}
