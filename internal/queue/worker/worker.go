package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	dispatchdomain "github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/metrics"
	"github.com/corvusHold/postal/internal/queue/domain"
)

// Worker is the single consumer of the email queue. It claims due jobs
// and feeds them to the same dispatch service the synchronous endpoints
// use, decoupling HTTP lifetime from paced send duration.
type Worker struct {
	repo     domain.Repository
	dispatch dispatchdomain.Service
	interval time.Duration
	lockTTL  time.Duration
	log      zerolog.Logger
}

func New(repo domain.Repository, dispatch dispatchdomain.Service, interval, lockTTL time.Duration, log zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		repo:     repo,
		dispatch: dispatch,
		interval: interval,
		lockTTL:  lockTTL,
		log:      log,
	}
}

// Start blocks until ctx is cancelled. On every tick it drains the
// queue one job at a time.
func (w *Worker) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	w.log.Info().Dur("interval", w.interval).Msg("queue worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("queue worker stopped")
			return
		case <-t.C:
			for {
				ran, err := w.ProcessOne(ctx)
				if err != nil {
					w.log.Error().Err(err).Msg("queue poll failed")
					break
				}
				if !ran {
					break
				}
			}
		}
	}
}

// ProcessOne claims and runs a single job. It reports whether a job was
// available.
func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {
	job, err := w.repo.ClaimNext(ctx, w.lockTTL)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}
	w.log.Info().Str("job_id", job.ID.String()).Int("attempt", job.Attempts).Msg("processing queue job")

	_, runErr := w.dispatch.SendBulkText(ctx, job.UserID, dispatchdomain.BulkTextInput{
		Text:    job.Recipients,
		Subject: job.Subject,
		Message: job.Message,
		Batched: job.Batched,
	})
	if runErr != nil {
		terminal, failErr := w.repo.Fail(ctx, job.ID, runErr.Error())
		if failErr != nil {
			return true, failErr
		}
		if terminal {
			metrics.IncQueueJob(string(domain.StatusFailed))
			w.log.Warn().Err(runErr).Str("job_id", job.ID.String()).Msg("queue job failed permanently")
		} else {
			w.log.Warn().Err(runErr).Str("job_id", job.ID.String()).Msg("queue job failed, will retry")
		}
		return true, nil
	}

	if err := w.repo.Complete(ctx, job.ID); err != nil {
		return true, err
	}
	metrics.IncQueueJob(string(domain.StatusCompleted))
	return true, nil
}
