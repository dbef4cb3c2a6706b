package runner

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	journalsvc "webhook_bot/internal/modules/journal/service"
	"webhook_bot/internal/notify/notifytest"
	"webhook_bot/internal/runner/blackout"
	"webhook_bot/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { logger.InitNop() }

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After сразу «проматывает» часы на d.
func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

type processed struct {
	body string
	at   time.Time
}

type fakeProcessor struct {
	clock *fakeClock
	err   error

	mu   sync.Mutex
	seen []processed
}

func (p *fakeProcessor) Process(_ context.Context, body []byte) (Result, error) {
	p.mu.Lock()
	p.seen = append(p.seen, processed{body: string(body), at: p.clock.Now()})
	p.mu.Unlock()
	if p.err != nil {
		return Result{Ticker: "SBER"}, p.err
	}
	return Result{Ticker: "SBER", Message: "done " + string(body)}, nil
}

func (p *fakeProcessor) Seen() []processed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]processed(nil), p.seen...)
}

type memJournal struct {
	mu      sync.Mutex
	entries []journalsvc.Entry
}

func (j *memJournal) Record(_ context.Context, e journalsvc.Entry) error {
	j.mu.Lock()
	j.entries = append(j.entries, e)
	j.mu.Unlock()
	return nil
}

func (j *memJournal) Close() error { return nil }

func (j *memJournal) Entries() []journalsvc.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journalsvc.Entry(nil), j.entries...)
}

type countTracker struct {
	mu       sync.Mutex
	deferred int
	signals  int
}

func (c *countTracker) TouchSignal(time.Time) {
	c.mu.Lock()
	c.signals++
	c.mu.Unlock()
}

func (c *countTracker) AddDeferred(d int) {
	c.mu.Lock()
	c.deferred += d
	c.mu.Unlock()
}

func startRunner(t *testing.T, r *Runner) func() {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()
	return func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("runner did not stop")
		}
	}
}

func TestRunnerOneMessagePerSignal(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)}
	proc := &fakeProcessor{clock: clock}
	rec := &notifytest.Recorder{}
	j := &memJournal{}
	r := New(proc, rec, j, &countTracker{}, nil, 8)
	r.now = clock.Now

	stop := startRunner(t, r)
	require.NoError(t, r.Enqueue([]byte("a")))
	require.NoError(t, r.Enqueue([]byte("b")))
	require.Eventually(t, func() bool { return len(rec.Messages()) == 2 }, time.Second, time.Millisecond)
	stop()

	assert.Equal(t, []string{"done a", "done b"}, rec.Messages())
	require.Len(t, j.Entries(), 2)
	assert.Equal(t, "ok", j.Entries()[0].Result)
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 11, 5, 12, 0, 0, 0, time.UTC)}
	proc := &fakeProcessor{clock: clock, err: &ExecError{Kind: KindNothingToClose, Ticker: "SBER", Op: "close", Msg: "balance 0"}}
	rec := &notifytest.Recorder{}
	j := &memJournal{}
	r := New(proc, rec, j, nil, nil, 8)
	r.now = clock.Now

	stop := startRunner(t, r)
	require.NoError(t, r.Enqueue([]byte("a")))
	require.NoError(t, r.Enqueue([]byte("b")))
	require.Eventually(t, func() bool { return len(rec.Messages()) == 2 }, time.Second, time.Millisecond)
	stop()

	assert.Contains(t, rec.Messages()[0], "Нечего закрывать")
	assert.Equal(t, "NothingToClose", j.Entries()[1].Result)
}

func TestRunnerDefersBlackoutSignal(t *testing.T) {
	windows, err := blackout.ParseAll([]string{"22:36-22:39"})
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 11, 5, 22, 37, 0, 0, time.UTC)}
	proc := &fakeProcessor{clock: clock}
	rec := &notifytest.Recorder{}
	tracker := &countTracker{}
	r := New(proc, rec, nil, tracker, windows, 8)
	r.now = clock.Now
	r.after = clock.After

	stop := startRunner(t, r)
	require.NoError(t, r.Enqueue([]byte("late")))
	require.Eventually(t, func() bool { return len(proc.Seen()) == 1 }, time.Second, time.Millisecond)
	stop()

	seen := proc.Seen()[0]
	assert.Equal(t, "late", seen.body)
	assert.False(t, seen.at.Before(time.Date(2024, 11, 5, 22, 39, 0, 0, time.UTC)), seen.at)
	assert.Equal(t, 0, tracker.deferred)
	assert.Len(t, rec.Messages(), 1)
}

func TestRunnerDropsDeferredOnShutdown(t *testing.T) {
	windows, err := blackout.ParseAll([]string{"22:36-22:39"})
	require.NoError(t, err)

	clock := &fakeClock{now: time.Date(2024, 11, 5, 22, 37, 0, 0, time.UTC)}
	proc := &fakeProcessor{clock: clock}
	r := New(proc, &notifytest.Recorder{}, nil, nil, windows, 8)
	r.now = clock.Now
	block := make(chan time.Time)
	r.after = func(time.Duration) <-chan time.Time { return block }

	stop := startRunner(t, r)
	require.NoError(t, r.Enqueue([]byte("late")))
	require.Eventually(t, func() bool { return r.QueueLen() == 0 }, time.Second, time.Millisecond)
	stop()
	assert.Empty(t, proc.Seen())
}

func TestEnqueueQueueFull(t *testing.T) {
	r := New(&fakeProcessor{clock: &fakeClock{}}, &notifytest.Recorder{}, nil, nil, nil, 1)
	require.NoError(t, r.Enqueue([]byte("a")))
	assert.True(t, errors.Is(r.Enqueue([]byte("b")), ErrQueueFull))
}

func TestFormatErrorCoversEveryKind(t *testing.T) {
	for k := KindBadPayload; k <= KindGateway; k++ {
		assert.NotEqual(t, k.String(), title(k), "kind %d has no operator title", int(k))
		assert.NotContains(t, k.String(), "Kind(")
	}
	msg := FormatError(Result{Ticker: "SBER"}, errors.New("raw"))
	assert.Contains(t, msg, "Ошибка брокера")
}

func TestStatusText(t *testing.T) {
	r := New(&fakeProcessor{clock: &fakeClock{}}, &notifytest.Recorder{}, nil, nil, nil, 4)
	require.NoError(t, r.Enqueue([]byte("a")))

	got := r.Status(120, 2, 90*time.Minute+1500*time.Millisecond)
	assert.Equal(t, "🩺 STATUS | catalog=120 | queue=1 | deferred=2 | uptime=1h30m1s", got)
}
