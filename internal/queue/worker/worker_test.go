package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	dispatchdomain "github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/logger"
	"github.com/corvusHold/postal/internal/queue/domain"
)

type fakeRepo struct {
	jobs      []*domain.Job
	completed []uuid.UUID
	failed    map[uuid.UUID]string
}

func newFakeRepo(jobs ...*domain.Job) *fakeRepo {
	return &fakeRepo{jobs: jobs, failed: map[uuid.UUID]string{}}
}

func (r *fakeRepo) Enqueue(ctx context.Context, j *domain.Job) error {
	r.jobs = append(r.jobs, j)
	return nil
}

func (r *fakeRepo) ClaimNext(ctx context.Context, lockTTL time.Duration) (*domain.Job, error) {
	for _, j := range r.jobs {
		if j.Status == domain.StatusPending {
			j.Status = domain.StatusProcessing
			j.Attempts++
			return j, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) Complete(ctx context.Context, id uuid.UUID) error {
	r.completed = append(r.completed, id)
	for _, j := range r.jobs {
		if j.ID == id {
			j.Status = domain.StatusCompleted
		}
	}
	return nil
}

func (r *fakeRepo) Fail(ctx context.Context, id uuid.UUID, errText string) (bool, error) {
	r.failed[id] = errText
	for _, j := range r.jobs {
		if j.ID == id {
			if j.Attempts >= j.MaxAttempts {
				j.Status = domain.StatusFailed
				return true, nil
			}
			j.Status = domain.StatusPending
			return false, nil
		}
	}
	return false, domain.ErrJobNotFound
}

func (r *fakeRepo) Cancel(ctx context.Context, userID, id uuid.UUID) error { return nil }

func (r *fakeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Job, error) {
	for _, j := range r.jobs {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

type fakeDispatch struct {
	calls []dispatchdomain.BulkTextInput
	err   error
}

func (f *fakeDispatch) SendSingle(ctx context.Context, userID uuid.UUID, in dispatchdomain.SingleInput) (dispatchdomain.RunResult, error) {
	return dispatchdomain.RunResult{}, nil
}
func (f *fakeDispatch) SendBulkFile(ctx context.Context, userID uuid.UUID, in dispatchdomain.BulkFileInput) (dispatchdomain.BulkSummary, error) {
	return dispatchdomain.BulkSummary{}, nil
}
func (f *fakeDispatch) SendBulkText(ctx context.Context, userID uuid.UUID, in dispatchdomain.BulkTextInput) (dispatchdomain.BulkSummary, error) {
	f.calls = append(f.calls, in)
	return dispatchdomain.BulkSummary{}, f.err
}
func (f *fakeDispatch) Logs(ctx context.Context, userID uuid.UUID, page, pageSize int) (dispatchdomain.LogPage, error) {
	return dispatchdomain.LogPage{}, nil
}
func (f *fakeDispatch) GetLog(ctx context.Context, userID, id uuid.UUID) (*dispatchdomain.DeliveryLog, error) {
	return nil, nil
}

func pendingJob(maxAttempts int) *domain.Job {
	return &domain.Job{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Subject:     "s",
		Message:     "m",
		Recipients:  "a@x.com\nb@x.com",
		Status:      domain.StatusPending,
		MaxAttempts: maxAttempts,
		ScheduledAt: time.Now(),
	}
}

func TestProcessOneCompletes(t *testing.T) {
	job := pendingJob(3)
	repo := newFakeRepo(job)
	d := &fakeDispatch{}
	w := New(repo, d, time.Second, time.Minute, logger.Nop())

	ran, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ran)

	require.Len(t, d.calls, 1)
	require.Equal(t, "a@x.com\nb@x.com", d.calls[0].Text)
	require.Equal(t, domain.StatusCompleted, job.Status)
	require.Equal(t, []uuid.UUID{job.ID}, repo.completed)
}

func TestProcessOneEmptyQueue(t *testing.T) {
	w := New(newFakeRepo(), &fakeDispatch{}, time.Second, time.Minute, logger.Nop())
	ran, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.False(t, ran)
}

func TestProcessOneRetriesThenFailsPermanently(t *testing.T) {
	job := pendingJob(2)
	repo := newFakeRepo(job)
	d := &fakeDispatch{err: errors.New("smtp down")}
	w := New(repo, d, time.Second, time.Minute, logger.Nop())

	// first attempt: back to pending
	ran, err := w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, domain.StatusPending, job.Status)
	require.Equal(t, "smtp down", repo.failed[job.ID])

	// second attempt hits max_attempts: terminal
	ran, err = w.ProcessOne(context.Background())
	require.NoError(t, err)
	require.True(t, ran)
	require.Equal(t, domain.StatusFailed, job.Status)
}
