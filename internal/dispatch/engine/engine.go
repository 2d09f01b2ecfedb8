package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/dispatch/personalize"
	"github.com/corvusHold/postal/internal/metrics"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

// Engine drives per-recipient delivery for one run: one shared
// transport, strictly sequential sends, incremental ledger persistence,
// and pacing between sends.
type Engine struct {
	factory domain.TransportFactory
	repo    domain.Repository
	sched   domain.Scheduler
	clean   domain.Cleaner
	log     zerolog.Logger

	pacing     time.Duration
	batchSize  int
	batchDelay time.Duration
}

func New(factory domain.TransportFactory, repo domain.Repository, sched domain.Scheduler, clean domain.Cleaner, log zerolog.Logger, pacing time.Duration, batchSize int, batchDelay time.Duration) *Engine {
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Engine{
		factory:    factory,
		repo:       repo,
		sched:      sched,
		clean:      clean,
		log:        log,
		pacing:     pacing,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// RunInput carries everything one run needs. Config is an immutable
// per-run value; the stored configuration row is never touched here.
type RunInput struct {
	UserID      uuid.UUID
	ConfigID    uuid.UUID
	Config      senderdomain.ResolvedSenderConfig
	Recipients  []domain.RecipientRecord
	Subject     string
	Message     string
	Attachments []domain.Artifact
	// RecipientFile is the uploaded list itself, cleaned up with the
	// attachments when the run concludes.
	RecipientFile *domain.Artifact
	IsBulk        bool
}

func (in RunInput) artifactPaths() []string {
	paths := make([]string, 0, len(in.Attachments)+1)
	if in.RecipientFile != nil {
		paths = append(paths, in.RecipientFile.Path)
	}
	for _, a := range in.Attachments {
		paths = append(paths, a.Path)
	}
	return paths
}

// Run executes the sequential dispatch loop. Per-recipient transport
// failures land in the ledger and the loop continues; a persistence
// failure aborts the run. Artifacts are removed on every exit path.
func (e *Engine) Run(ctx context.Context, in RunInput) (domain.RunResult, error) {
	defer e.clean.Remove(in.artifactPaths()...)

	if len(in.Recipients) == 0 {
		return domain.RunResult{}, domain.ErrNoRecipients
	}

	start := time.Now()
	tr, err := e.factory.Build(in.Config)
	if err != nil {
		return domain.RunResult{}, err
	}
	defer tr.Close()

	dl := domain.NewDeliveryLog(in.UserID, in.ConfigID, in.Subject, in.IsBulk, in.Recipients)
	if err := e.repo.Create(ctx, dl); err != nil {
		return domain.RunResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	var sample []domain.SendError
	for i, rcpt := range in.Recipients {
		body := personalize.Personalize(in.Message, rcpt.Name)
		sendErr := tr.Send(ctx, domain.Message{
			To:          rcpt,
			Subject:     in.Subject,
			HTMLBody:    body,
			Attachments: in.Attachments,
		})
		now := time.Now()
		if sendErr == nil {
			_ = dl.MarkSuccess(i, now)
			metrics.IncEmailSent(in.Config.Provider, "success")
		} else {
			_ = dl.MarkFailed(i, now, sendErr.Error())
			metrics.IncEmailSent(in.Config.Provider, "failed")
			e.log.Warn().Err(sendErr).Str("email", rcpt.Email).Str("log_id", dl.ID.String()).Msg("send failed")
			if len(sample) < domain.MaxSampledErrors {
				text := sendErr.Error()
				if hint := domain.ErrorHint(sendErr); hint != "" {
					text = hint
				}
				sample = append(sample, domain.SendError{Email: rcpt.Email, Error: text})
			}
		}
		if err := e.repo.Update(ctx, dl); err != nil {
			return domain.RunResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
		}
		if i < len(in.Recipients)-1 {
			if err := e.sched.Delay(ctx, e.pacing); err != nil {
				return domain.RunResult{}, err
			}
		}
	}

	return e.finalize(ctx, dl, sample, "sequential", start)
}

// RunBatched is the less-safe fast path: fixed-size batches with
// bounded concurrency inside each batch and a delay between batches.
// The ledger is persisted only at creation and finalization.
func (e *Engine) RunBatched(ctx context.Context, in RunInput) (domain.RunResult, error) {
	defer e.clean.Remove(in.artifactPaths()...)

	if len(in.Recipients) == 0 {
		return domain.RunResult{}, domain.ErrNoRecipients
	}

	start := time.Now()
	tr, err := e.factory.Build(in.Config)
	if err != nil {
		return domain.RunResult{}, err
	}
	defer tr.Close()

	dl := domain.NewDeliveryLog(in.UserID, in.ConfigID, in.Subject, in.IsBulk, in.Recipients)
	if err := e.repo.Create(ctx, dl); err != nil {
		return domain.RunResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	var (
		mu     sync.Mutex
		sample []domain.SendError
	)
	for lo := 0; lo < len(in.Recipients); lo += e.batchSize {
		hi := lo + e.batchSize
		if hi > len(in.Recipients) {
			hi = len(in.Recipients)
		}
		var wg sync.WaitGroup
		for i := lo; i < hi; i++ {
			wg.Add(1)
			go func(i int, rcpt domain.RecipientRecord) {
				defer wg.Done()
				body := personalize.Personalize(in.Message, rcpt.Name)
				sendErr := tr.Send(ctx, domain.Message{
					To:          rcpt,
					Subject:     in.Subject,
					HTMLBody:    body,
					Attachments: in.Attachments,
				})
				now := time.Now()
				mu.Lock()
				defer mu.Unlock()
				if sendErr == nil {
					_ = dl.MarkSuccess(i, now)
					metrics.IncEmailSent(in.Config.Provider, "success")
					return
				}
				_ = dl.MarkFailed(i, now, sendErr.Error())
				metrics.IncEmailSent(in.Config.Provider, "failed")
				if len(sample) < domain.MaxSampledErrors {
					sample = append(sample, domain.SendError{Email: rcpt.Email, Error: sendErr.Error()})
				}
			}(i, in.Recipients[i])
		}
		wg.Wait()
		if hi < len(in.Recipients) {
			if err := e.sched.Delay(ctx, e.batchDelay); err != nil {
				return domain.RunResult{}, err
			}
		}
	}

	return e.finalize(ctx, dl, sample, "batched", start)
}

func (e *Engine) finalize(ctx context.Context, dl *domain.DeliveryLog, sample []domain.SendError, mode string, start time.Time) (domain.RunResult, error) {
	dl.Status = dl.Aggregate()
	now := time.Now().UTC()
	dl.SentAt = &now
	if err := e.repo.Update(ctx, dl); err != nil {
		return domain.RunResult{}, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}

	succeeded, failed := dl.Counts()
	metrics.IncDispatchRun(mode, string(dl.Status))
	metrics.ObserveDispatchRunDuration(mode, time.Since(start).Seconds())
	e.log.Info().
		Str("log_id", dl.ID.String()).
		Str("status", string(dl.Status)).
		Int("successful", succeeded).
		Int("failed", failed).
		Str("mode", mode).
		Msg("dispatch run finished")

	return domain.RunResult{
		Total:      len(dl.Recipients),
		Successful: succeeded,
		Failed:     failed,
		Errors:     sample,
		LogID:      dl.ID,
	}, nil
}
