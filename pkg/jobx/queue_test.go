package jobx

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maix-platform/maix/pkg/errx"
	"github.com/maix-platform/maix/pkg/notifx"
)

// fakeClock lets tests drive the retry timeline without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// scriptedDeliverer returns canned results per call, in order. The last
// script entry repeats once the script runs out.
type scriptedDeliverer struct {
	mu     sync.Mutex
	calls  int
	events []notifx.EntityUpdateEvent
	script []func() (*notifx.DeliveryResult, error)
}

func (d *scriptedDeliverer) Deliver(_ context.Context, event *notifx.EntityUpdateEvent) (*notifx.DeliveryResult, error) {
	d.mu.Lock()
	step := d.calls
	if step >= len(d.script) {
		step = len(d.script) - 1
	}
	d.calls++
	d.events = append(d.events, *event)
	fn := d.script[step]
	d.mu.Unlock()
	return fn()
}

func (d *scriptedDeliverer) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func succeed(delivered, skipped int) func() (*notifx.DeliveryResult, error) {
	return func() (*notifx.DeliveryResult, error) {
		return &notifx.DeliveryResult{Success: true, Delivered: delivered, Skipped: skipped}, nil
	}
}

func failWith(err error) func() (*notifx.DeliveryResult, error) {
	return func() (*notifx.DeliveryResult, error) {
		return nil, err
	}
}

func testEvent(entityID string) *notifx.EntityUpdateEvent {
	return &notifx.EntityUpdateEvent{
		EntityID:   entityID,
		EntityType: notifx.EntityProject,
		UpdateType: notifx.UpdateProject,
		Title:      "Project Updated",
		Message:    "m",
	}
}

func newTestQueue(t *testing.T, deliverer notifx.Deliverer, clock *fakeClock, opts ...QueueOption) *Queue {
	t.Helper()
	opts = append([]QueueOption{WithNow(clock.Now), WithManualProcessing()}, opts...)
	q, err := NewQueue(deliverer, opts...)
	require.NoError(t, err)
	return q
}

func TestNewQueueRequiresDeliverer(t *testing.T) {
	_, err := NewQueue(nil)
	require.Error(t, err)

	var rich *errx.Error
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "JOBX_NO_DELIVERER", rich.Code)
}

func TestEnqueueIsPendingAndCountsAreConsistent(t *testing.T) {
	clock := newFakeClock()
	q := newTestQueue(t, &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}, clock)

	ids := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		ids = append(ids, q.Enqueue(testEvent("project-123")))
	}

	stats := q.Stats()
	assert.Equal(t, QueueStats{Total: 4, Pending: 4}, stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.Processing+stats.Completed+stats.Failed)

	for _, id := range ids {
		job, err := q.GetJob(id)
		require.NoError(t, err)
		assert.Equal(t, JobStatusPending, job.Status)
		assert.Equal(t, 0, job.Attempts)
		assert.Equal(t, 3, job.MaxAttempts)
		assert.Equal(t, JobTypeEntityUpdate, job.Type)
		assert.True(t, job.ScheduledAt.Equal(job.CreatedAt))
	}
}

func TestJobIDsAreUniqueWithinSameMillisecond(t *testing.T) {
	clock := newFakeClock()
	q := newTestQueue(t, &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}, clock)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := q.Enqueue(testEvent("project-123"))
		require.False(t, seen[id], "duplicate job id %s", id)
		seen[id] = true
	}
}

func TestGetJobNotFound(t *testing.T) {
	clock := newFakeClock()
	q := newTestQueue(t, &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}, clock)

	_, err := q.GetJob("job_0_nope")

	var rich *errx.Error
	require.True(t, errx.As(err, &rich))
	assert.Equal(t, "JOBX_JOB_NOT_FOUND", rich.Code)
	assert.Equal(t, errx.TypeNotFound, rich.Type)
}

func TestProcessNowCompletesJob(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(2, 1)}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"))
	q.ProcessNow(context.Background())

	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Result)
	assert.Equal(t, 2, job.Result.Delivered)
	assert.Equal(t, 1, job.Result.Skipped)
	assert.Equal(t, 1, deliverer.callCount())
}

func TestDelayedJobWaitsForItsScheduledTime(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"), WithDelay(60*time.Second))

	q.ProcessNow(context.Background())
	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Attempts)
	assert.Equal(t, 0, deliverer.callCount())

	clock.Advance(61 * time.Second)
	q.ProcessNow(context.Background())
	job, err = q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.Attempts)
}

func TestFailedAttemptReschedulesWithFixedDelay(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){
		failWith(errors.New("smtp down")),
		succeed(1, 0),
	}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"))
	q.ProcessNow(context.Background())

	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "smtp down")
	assert.True(t, job.ScheduledAt.Equal(clock.Now().Add(30*time.Second)),
		"retry should be scheduled exactly one retry delay out")

	// Too early: nothing happens.
	clock.Advance(10 * time.Second)
	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, 1, job.Attempts)

	// Past the retry delay the second attempt succeeds.
	clock.Advance(25 * time.Second)
	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Attempts)
}

func TestJobFailsPermanentlyAtAttemptLimit(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){
		failWith(errors.New("boom")),
	}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"), WithMaxAttempts(2))

	q.ProcessNow(context.Background())
	clock.Advance(31 * time.Second)
	q.ProcessNow(context.Background())

	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 2, job.Attempts)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "boom")

	// Terminal: further passes never touch it again.
	clock.Advance(time.Hour)
	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, 2, deliverer.callCount())
}

func TestSingleAttemptJobFailsImmediately(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){
		failWith(errors.New("boom")),
	}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"), WithMaxAttempts(1))
	q.ProcessNow(context.Background())

	job, _ := q.GetJob(id)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempts)
}

func TestReportedFailureIsRetriedLikeAnError(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){
		func() (*notifx.DeliveryResult, error) {
			return &notifx.DeliveryResult{
				Success:   false,
				Delivered: 1,
				Failed:    1,
				Errors:    []string{"user-7: insert failed"},
			}, nil
		},
	}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"))
	q.ProcessNow(context.Background())

	job, _ := q.GetJob(id)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "user-7: insert failed")
}

func TestDelivererPanicOnlyFailsItsOwnJob(t *testing.T) {
	clock := newFakeClock()
	deliverer := notifx.DelivererFunc(func(_ context.Context, event *notifx.EntityUpdateEvent) (*notifx.DeliveryResult, error) {
		if event.EntityID == "bad" {
			panic("deliverer blew up")
		}
		return &notifx.DeliveryResult{Success: true, Delivered: 1}, nil
	})
	q := newTestQueue(t, deliverer, clock)

	badID := q.Enqueue(testEvent("bad"))
	goodID := q.Enqueue(testEvent("good"))
	q.ProcessNow(context.Background())

	bad, _ := q.GetJob(badID)
	assert.Equal(t, JobStatusPending, bad.Status)
	require.NotNil(t, bad.Error)
	assert.Contains(t, *bad.Error, "deliverer blew up")

	good, _ := q.GetJob(goodID)
	assert.Equal(t, JobStatusCompleted, good.Status)
}

func TestCanceledPassReschedulesSelectedJobs(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.ProcessNow(ctx)

	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status, "aborted attempt must not strand the job in processing")
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "aborted")
	assert.True(t, job.ScheduledAt.Equal(clock.Now().Add(30*time.Second)))
	assert.Equal(t, 0, deliverer.callCount())

	clock.Advance(31 * time.Second)
	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.Equal(t, 2, job.Attempts)
	assert.Equal(t, 1, deliverer.callCount())
}

func TestCanceledPassFailsJobAtAttemptLimit(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	id := q.Enqueue(testEvent("project-123"), WithMaxAttempts(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.ProcessNow(ctx)

	job, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, 1, job.Attempts)
	require.NotNil(t, job.Error)
	assert.Contains(t, *job.Error, "aborted")
}

func TestGetJobSnapshotDoesNotAliasQueueState(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){
		func() (*notifx.DeliveryResult, error) {
			return &notifx.DeliveryResult{Success: true, Delivered: 2, Skipped: 1,
				Errors: []string{"user-3: mailbox full"}}, nil
		},
	}}
	q := newTestQueue(t, deliverer, clock)

	event := testEvent("project-123")
	event.Metadata = map[string]interface{}{"milestone": "v1"}
	id := q.Enqueue(event)
	q.ProcessNow(context.Background())

	snapshot, err := q.GetJob(id)
	require.NoError(t, err)
	snapshot.Result.Delivered = 99
	snapshot.Result.Errors[0] = "tampered"
	snapshot.Payload.Metadata["milestone"] = "tampered"

	fresh, err := q.GetJob(id)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Result.Delivered)
	assert.Equal(t, "user-3: mailbox full", fresh.Result.Errors[0])
	assert.Equal(t, "v1", fresh.Payload.Metadata["milestone"])
}

func TestPassIsBoundedByMaxConcurrent(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock, WithMaxConcurrent(5))

	for i := 0; i < 7; i++ {
		q.Enqueue(testEvent("project-123"))
	}

	q.ProcessNow(context.Background())
	stats := q.Stats()
	assert.Equal(t, 5, stats.Completed)
	assert.Equal(t, 2, stats.Pending)

	q.ProcessNow(context.Background())
	stats = q.Stats()
	assert.Equal(t, 7, stats.Completed)
	assert.Equal(t, 0, stats.Pending)
}

func TestSelectionFollowsEnqueueOrder(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock, WithMaxConcurrent(1))

	q.Enqueue(testEvent("first"))
	q.Enqueue(testEvent("second"))

	q.ProcessNow(context.Background())
	q.ProcessNow(context.Background())

	deliverer.mu.Lock()
	defer deliverer.mu.Unlock()
	require.Len(t, deliverer.events, 2)
	assert.Equal(t, "first", deliverer.events[0].EntityID)
	assert.Equal(t, "second", deliverer.events[1].EntityID)
}

func TestClearCompletedRemovesOnlyOldTerminalJobs(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	oldID := q.Enqueue(testEvent("old"))
	q.ProcessNow(context.Background())

	clock.Advance(25 * time.Hour)
	freshDoneID := q.Enqueue(testEvent("fresh-done"))
	q.ProcessNow(context.Background())
	pendingID := q.Enqueue(testEvent("fresh-pending"), WithDelay(time.Hour))

	removed := q.ClearCompleted(24 * time.Hour)
	assert.Equal(t, 1, removed)

	_, err := q.GetJob(oldID)
	assert.Error(t, err)
	_, err = q.GetJob(freshDoneID)
	assert.NoError(t, err)
	_, err = q.GetJob(pendingID)
	assert.NoError(t, err)

	// Second call right away removes nothing.
	assert.Equal(t, 0, q.ClearCompleted(24*time.Hour))
}

func TestClearAllEmptiesTheQueue(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	q.Enqueue(testEvent("a"))
	q.Enqueue(testEvent("b"))
	q.ProcessNow(context.Background())
	q.Enqueue(testEvent("c"))

	q.ClearAll()
	assert.Equal(t, QueueStats{}, q.Stats())
}

func TestManualModeIgnoresStartProcessing(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q := newTestQueue(t, deliverer, clock)

	q.StartProcessing()
	id := q.Enqueue(testEvent("project-123"))

	// Inert: only ProcessNow drives it.
	time.Sleep(20 * time.Millisecond)
	job, _ := q.GetJob(id)
	assert.Equal(t, 0, job.Attempts)

	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestProcessNowIsNoopWhileLoopRuns(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q, err := NewQueue(deliverer, WithNow(clock.Now), WithTickInterval(time.Hour))
	require.NoError(t, err)
	defer q.StopProcessing()

	q.StartProcessing()
	q.StartProcessing() // idempotent

	id := q.Enqueue(testEvent("project-123"))
	q.ProcessNow(context.Background())

	job, _ := q.GetJob(id)
	assert.Equal(t, 0, job.Attempts, "manual pass must not run while the loop owns processing")

	q.StopProcessing()
	q.StopProcessing() // idempotent

	q.ProcessNow(context.Background())
	job, _ = q.GetJob(id)
	assert.Equal(t, JobStatusCompleted, job.Status)
}

func TestTimerLoopProcessesJobs(t *testing.T) {
	clock := newFakeClock()
	deliverer := &scriptedDeliverer{script: []func() (*notifx.DeliveryResult, error){succeed(1, 0)}}
	q, err := NewQueue(deliverer, WithNow(clock.Now), WithTickInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer q.StopProcessing()

	id := q.Enqueue(testEvent("project-123"))
	q.StartProcessing()

	require.Eventually(t, func() bool {
		job, err := q.GetJob(id)
		return err == nil && job.Status == JobStatusCompleted
	}, time.Second, 5*time.Millisecond)
}
