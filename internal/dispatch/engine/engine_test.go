package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/logger"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

type fakeRepo struct {
	mu           sync.Mutex
	creates      int
	updates      int
	failUpdateAt int // 1-based update count that errors, 0 = never
	last         *domain.DeliveryLog
}

func (r *fakeRepo) Create(ctx context.Context, d *domain.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	r.last = snapshot(d)
	return nil
}

func (r *fakeRepo) Update(ctx context.Context, d *domain.DeliveryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	if r.failUpdateAt > 0 && r.updates >= r.failUpdateAt {
		return errors.New("log store unreachable")
	}
	r.last = snapshot(d)
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.DeliveryLog, error) {
	return r.last, nil
}

func (r *fakeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int32) ([]*domain.DeliveryLog, int64, error) {
	return nil, 0, nil
}

func (r *fakeRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func snapshot(d *domain.DeliveryLog) *domain.DeliveryLog {
	cp := *d
	cp.Recipients = append([]domain.LedgerRow(nil), d.Recipients...)
	return &cp
}

type fakeTransport struct {
	mu     sync.Mutex
	sent   []domain.Message
	failOn map[string]error
	// updatesAtStart records the repo update count observed when each
	// send began, to check persistence happens-before the next send.
	updatesAtStart []int
	repo           *fakeRepo
	closed         bool
}

func (t *fakeTransport) Send(ctx context.Context, msg domain.Message) error {
	t.mu.Lock()
	if t.repo != nil {
		t.updatesAtStart = append(t.updatesAtStart, t.repo.updateCount())
	}
	t.sent = append(t.sent, msg)
	err := t.failOn[msg.To.Email]
	t.mu.Unlock()
	return err
}

func (t *fakeTransport) Close() error {
	t.closed = true
	return nil
}

type fakeFactory struct {
	tr     *fakeTransport
	err    error
	builds int
}

func (f *fakeFactory) Build(cfg senderdomain.ResolvedSenderConfig) (domain.Transport, error) {
	f.builds++
	if f.err != nil {
		return nil, f.err
	}
	return f.tr, nil
}

type recordingScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingScheduler) Delay(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

type fakeCleaner struct {
	mu      sync.Mutex
	removed []string
	calls   int
}

func (c *fakeCleaner) Remove(paths ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.removed = append(c.removed, paths...)
}

func recipients(emails ...string) []domain.RecipientRecord {
	out := make([]domain.RecipientRecord, len(emails))
	for i, e := range emails {
		out[i] = domain.RecipientRecord{Email: e}
	}
	return out
}

func testEngine(repo *fakeRepo, f *fakeFactory, sched domain.Scheduler, clean domain.Cleaner, pacing time.Duration) *Engine {
	return New(f, repo, sched, clean, logger.Nop(), pacing, 2, time.Millisecond)
}

func baseInput(recs []domain.RecipientRecord) RunInput {
	return RunInput{
		UserID:     uuid.New(),
		ConfigID:   uuid.New(),
		Config:     senderdomain.ResolvedSenderConfig{Provider: "gmail", Email: "me@x.com"},
		Recipients: recs,
		Subject:    "hello",
		Message:    "Hi {{name}},",
		IsBulk:     true,
	}
}

func TestRunAllSuccess(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{repo: repo}
	sched := &recordingScheduler{}
	clean := &fakeCleaner{}
	e := testEngine(repo, &fakeFactory{tr: tr}, sched, clean, 30*time.Second)

	in := baseInput([]domain.RecipientRecord{
		{Email: "alice@x.com", Name: "Alice"},
		{Email: "bob@x.com"},
	})
	res, err := e.Run(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, 2, res.Total)
	require.Equal(t, 2, res.Successful)
	require.Equal(t, 0, res.Failed)
	require.Empty(t, res.Errors)

	require.Equal(t, domain.StatusSuccess, repo.last.Status)
	require.NotNil(t, repo.last.SentAt)
	for _, row := range repo.last.Recipients {
		require.Equal(t, domain.StatusSuccess, row.Status)
		require.NotNil(t, row.SentAt)
	}

	// personalization reached the transport
	require.Equal(t, "Hi Alice,", tr.sent[0].HTMLBody)
	require.Equal(t, "Hi Valued Customer,", tr.sent[1].HTMLBody)

	// one pacing delay between two sends, none after the last
	require.Equal(t, []time.Duration{30 * time.Second}, sched.delays)

	// create once, update per row plus finalize
	require.Equal(t, 1, repo.creates)
	require.Equal(t, 3, repo.updates)
	require.True(t, tr.closed)
}

func TestRunLedgerCompleteness(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{repo: repo, failOn: map[string]error{"r3@x.com": errors.New("550 rejected")}}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, &fakeCleaner{}, 0)

	recs := recipients("r1@x.com", "r2@x.com", "r3@x.com", "r4@x.com", "r5@x.com")
	_, err := e.Run(context.Background(), baseInput(recs))
	require.NoError(t, err)

	require.Len(t, repo.last.Recipients, 5)
	for _, row := range repo.last.Recipients {
		require.NotEqual(t, domain.StatusPending, row.Status)
	}
}

func TestRunPartialFailureTimeout(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{
		repo:   repo,
		failOn: map[string]error{"r2@x.com": fmt.Errorf("dial tcp 1.2.3.4:587: i/o timeout")},
	}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, &fakeCleaner{}, 0)

	res, err := e.Run(context.Background(), baseInput(recipients("r1@x.com", "r2@x.com", "r3@x.com")))
	require.NoError(t, err)

	require.Equal(t, 2, res.Successful)
	require.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	require.Equal(t, "r2@x.com", res.Errors[0].Email)
	require.Contains(t, res.Errors[0].Error, "timed out")

	require.Equal(t, domain.StatusPartial, repo.last.Status)
	// ledger row keeps the provider text verbatim
	require.Contains(t, repo.last.Recipients[1].Error, "i/o timeout")
}

func TestRunAllFailedAggregate(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{repo: repo, failOn: map[string]error{
		"r1@x.com": errors.New("535 auth"),
		"r2@x.com": errors.New("535 auth"),
	}}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, &fakeCleaner{}, 0)

	res, err := e.Run(context.Background(), baseInput(recipients("r1@x.com", "r2@x.com")))
	require.NoError(t, err)
	require.Equal(t, 0, res.Successful)
	require.Equal(t, domain.StatusFailed, repo.last.Status)
}

func TestRunSequentialNonOverlap(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{repo: repo}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, &fakeCleaner{}, 0)

	recs := recipients("r1@x.com", "r2@x.com", "r3@x.com")
	_, err := e.Run(context.Background(), baseInput(recs))
	require.NoError(t, err)

	// sends happen in recipient order
	for i, m := range tr.sent {
		require.Equal(t, recs[i].Email, m.To.Email)
	}
	// row i's persistence happened before send i+1 started
	require.Equal(t, []int{0, 1, 2}, tr.updatesAtStart)
}

func TestRunErrorSampleCapped(t *testing.T) {
	repo := &fakeRepo{}
	failOn := map[string]error{}
	var recs []domain.RecipientRecord
	for i := 0; i < 15; i++ {
		email := fmt.Sprintf("r%d@x.com", i)
		recs = append(recs, domain.RecipientRecord{Email: email})
		failOn[email] = errors.New("550 rejected")
	}
	tr := &fakeTransport{repo: repo, failOn: failOn}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, &fakeCleaner{}, 0)

	res, err := e.Run(context.Background(), baseInput(recs))
	require.NoError(t, err)
	require.Equal(t, 15, res.Failed)
	require.Len(t, res.Errors, domain.MaxSampledErrors)
}

func TestRunPersistenceErrorAbortsAndCleansUp(t *testing.T) {
	repo := &fakeRepo{failUpdateAt: 2}
	tr := &fakeTransport{repo: repo}
	clean := &fakeCleaner{}
	e := testEngine(repo, &fakeFactory{tr: tr}, &recordingScheduler{}, clean, 0)

	in := baseInput(recipients("r1@x.com", "r2@x.com", "r3@x.com"))
	in.RecipientFile = &domain.Artifact{Name: "list.csv", Path: "/tmp/list.csv"}
	in.Attachments = []domain.Artifact{{Name: "a.pdf", Path: "/tmp/a.pdf"}}

	_, err := e.Run(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrPersistence)

	// aborted after the failing persist: recipient 3 never attempted
	require.Len(t, tr.sent, 2)

	// artifacts removed exactly once regardless
	require.Equal(t, 1, clean.calls)
	require.ElementsMatch(t, []string{"/tmp/list.csv", "/tmp/a.pdf"}, clean.removed)
}

func TestRunTransportBuildError(t *testing.T) {
	repo := &fakeRepo{}
	clean := &fakeCleaner{}
	f := &fakeFactory{err: fmt.Errorf("%w: unknown provider", domain.ErrTransportBuild)}
	e := testEngine(repo, f, &recordingScheduler{}, clean, 0)

	in := baseInput(recipients("r1@x.com"))
	in.RecipientFile = &domain.Artifact{Path: "/tmp/list.csv"}
	_, err := e.Run(context.Background(), in)
	require.ErrorIs(t, err, domain.ErrTransportBuild)

	// nothing persisted, cleanup still ran
	require.Equal(t, 0, repo.creates)
	require.Equal(t, 1, clean.calls)
}

func TestRunNoRecipients(t *testing.T) {
	e := testEngine(&fakeRepo{}, &fakeFactory{tr: &fakeTransport{}}, &recordingScheduler{}, &fakeCleaner{}, 0)
	_, err := e.Run(context.Background(), baseInput(nil))
	require.ErrorIs(t, err, domain.ErrNoRecipients)
}

func TestRunCancelledDuringPacing(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{repo: repo}
	e := testEngine(repo, &fakeFactory{tr: tr}, TimeScheduler{}, &fakeCleaner{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := e.Run(ctx, baseInput(recipients("r1@x.com", "r2@x.com")))
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, tr.sent, 1)
}

func TestRunBatched(t *testing.T) {
	repo := &fakeRepo{}
	tr := &fakeTransport{failOn: map[string]error{"r4@x.com": errors.New("boom")}}
	sched := &recordingScheduler{}
	e := testEngine(repo, &fakeFactory{tr: tr}, sched, &fakeCleaner{}, 0)

	res, err := e.RunBatched(context.Background(), baseInput(recipients("r1@x.com", "r2@x.com", "r3@x.com", "r4@x.com", "r5@x.com")))
	require.NoError(t, err)

	require.Equal(t, 4, res.Successful)
	require.Equal(t, 1, res.Failed)
	require.Equal(t, domain.StatusPartial, repo.last.Status)

	// no incremental row persistence: create plus single finalize
	require.Equal(t, 1, repo.creates)
	require.Equal(t, 1, repo.updates)

	// batch size 2 over 5 recipients: delays between 3 batches
	require.Len(t, sched.delays, 2)
}
