// Package jobx implements the in-memory notification job queue: enqueued
// entity-update events are delivered asynchronously in bounded-concurrency
// passes, with fixed-delay retries up to a per-job attempt limit.
//
// Queue contents live only in process memory. This is a deliberate scope
// decision, not a missing feature: a restart drops all buffered jobs.
package jobx

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/maix-platform/maix/pkg/asyncx"
	"github.com/maix-platform/maix/pkg/logx"
	"github.com/maix-platform/maix/pkg/notifx"
	"github.com/maix-platform/maix/pkg/ptrx"
)

// DefaultCleanupAge is the age past which terminal jobs are removed by a
// zero-valued ClearCompleted call.
const DefaultCleanupAge = 24 * time.Hour

// Queue buffers notification jobs and processes them on a timer. All state
// is guarded by a single mutex; delivery calls run outside it.
type Queue struct {
	deliverer notifx.Deliverer
	opts      QueueOptions

	mu      sync.Mutex
	jobs    map[string]*Job
	nextSeq uint64

	running    bool
	stopCh     chan struct{}
	passActive bool
}

// NewQueue creates a queue that hands every job to deliverer.
func NewQueue(deliverer notifx.Deliverer, options ...QueueOption) (*Queue, error) {
	if deliverer == nil {
		return nil, jobxErrors.New(ErrNoDeliverer)
	}

	opts := defaultQueueOptions()
	for _, o := range options {
		o(&opts)
	}

	return &Queue{
		deliverer: deliverer,
		opts:      opts,
		jobs:      make(map[string]*Job),
	}, nil
}

// Enqueue stores a new pending job for the event and returns its ID. It
// never blocks on delivery.
func (q *Queue) Enqueue(event *notifx.EntityUpdateEvent, options ...EnqueueOption) string {
	opts := EnqueueOptions{MaxAttempts: q.opts.DefaultMaxAttempts}
	for _, o := range options {
		o(&opts)
	}

	q.mu.Lock()
	now := q.opts.Now()
	job := &Job{
		ID:          newJobID(now),
		Type:        JobTypeEntityUpdate,
		Payload:     *event,
		Status:      JobStatusPending,
		MaxAttempts: opts.MaxAttempts,
		CreatedAt:   now,
		ScheduledAt: now.Add(opts.Delay),
		seq:         q.nextSeq,
	}
	q.nextSeq++
	q.jobs[job.ID] = job
	q.mu.Unlock()

	logx.WithFields(logx.Fields{
		"job_id":       job.ID,
		"entity_id":    event.EntityID,
		"update_type":  string(event.UpdateType),
		"scheduled_at": job.ScheduledAt.Format(time.RFC3339),
	}).Info("jobx: job enqueued")

	return job.ID
}

// StartProcessing begins the periodic processing loop. Calling it while the
// loop already runs is a no-op. In manual mode the queue stays inert and
// must be driven through ProcessNow.
func (q *Queue) StartProcessing() {
	if q.opts.ManualOnly {
		logx.Debug("jobx: manual mode, processing loop not started")
		return
	}

	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.stopCh = make(chan struct{})
	stopCh := q.stopCh
	q.mu.Unlock()

	logx.Infof("jobx: processing loop started (every %s)", q.opts.TickInterval)

	go func() {
		ticker := time.NewTicker(q.opts.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				q.runPass(context.Background())
			}
		}
	}()
}

// StopProcessing cancels the processing loop. Safe to call when not running.
// In-flight delivery attempts are not interrupted.
func (q *Queue) StopProcessing() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}
	close(q.stopCh)
	q.running = false
	logx.Info("jobx: processing loop stopped")
}

// ProcessNow runs one synchronous processing pass. While the automatic loop
// is running it is a no-op; the loop already owns processing.
func (q *Queue) ProcessNow(ctx context.Context) {
	q.mu.Lock()
	running := q.running
	q.mu.Unlock()

	if running {
		return
	}
	q.runPass(ctx)
}

// GetJob returns a snapshot of the job with the given ID. The snapshot
// shares no mutable state with the stored job; changing it has no effect on
// the queue.
func (q *Queue) GetJob(id string) (*Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[id]
	if !ok {
		return nil, jobxErrors.New(ErrJobNotFound).WithDetail("job_id", id)
	}

	copied := *job
	copied.Payload.Metadata = maps.Clone(job.Payload.Metadata)
	if job.Result != nil {
		result := *job.Result
		result.Errors = slices.Clone(job.Result.Errors)
		copied.Result = &result
	}
	if job.Error != nil {
		copied.Error = ptrx.String(*job.Error)
	}
	return &copied, nil
}

// Stats returns per-status job counts.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := QueueStats{Total: len(q.jobs)}
	for _, job := range q.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusProcessing:
			stats.Processing++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// ClearCompleted removes terminal jobs created more than olderThan ago and
// returns how many were removed. A zero or negative olderThan uses
// DefaultCleanupAge.
func (q *Queue) ClearCompleted(olderThan time.Duration) int {
	if olderThan <= 0 {
		olderThan = DefaultCleanupAge
	}

	q.mu.Lock()
	cutoff := q.opts.Now().Add(-olderThan)
	removed := 0
	for id, job := range q.jobs {
		if job.Status.Terminal() && job.CreatedAt.Before(cutoff) {
			delete(q.jobs, id)
			removed++
		}
	}
	q.mu.Unlock()

	if removed > 0 {
		logx.Infof("jobx: cleared %d finished jobs older than %s", removed, olderThan)
	}
	return removed
}

// ClearAll unconditionally removes every job. Meant for test isolation.
func (q *Queue) ClearAll() {
	q.mu.Lock()
	removed := len(q.jobs)
	q.jobs = make(map[string]*Job)
	q.mu.Unlock()

	if removed > 0 {
		logx.Infof("jobx: cleared all %d jobs", removed)
	}
}

// runPass executes one processing pass: select due pending jobs, bounded by
// MaxConcurrent, and attempt delivery for each concurrently. A pass that
// would overlap another pass is a no-op.
func (q *Queue) runPass(ctx context.Context) {
	q.mu.Lock()
	if q.passActive {
		q.mu.Unlock()
		return
	}
	q.passActive = true

	now := q.opts.Now()
	var due []*Job
	for _, job := range q.jobs {
		if job.Status == JobStatusPending && !job.ScheduledAt.After(now) {
			due = append(due, job)
		}
	}
	// Deterministic selection: enqueue order. Jobs beyond the concurrency
	// budget wait for the next pass.
	sort.Slice(due, func(i, j int) bool { return due[i].seq < due[j].seq })
	if len(due) > q.opts.MaxConcurrent {
		due = due[:q.opts.MaxConcurrent]
	}

	for _, job := range due {
		job.Status = JobStatusProcessing
		job.Attempts++
	}
	total := len(q.jobs)
	q.mu.Unlock()

	if len(due) > 0 {
		_, _ = asyncx.Pool(ctx, q.opts.MaxConcurrent, due, func(ctx context.Context, job *Job) (struct{}, error) {
			q.attempt(ctx, job)
			return struct{}{}, nil
		})

		// Workers skip their attempt when the pass context is canceled.
		// Settle any job still marked processing through the normal failure
		// path so a later pass can pick it up again.
		for _, job := range due {
			q.mu.Lock()
			aborted := job.Status == JobStatusProcessing
			q.mu.Unlock()
			if aborted {
				q.recordFailure(job, nil, abortMessage(ctx))
			}
		}

		logx.WithFields(logx.Fields{
			"processed": len(due),
			"total":     total,
		}).Debug("jobx: processing pass finished")
	}

	q.mu.Lock()
	q.passActive = false
	q.mu.Unlock()
}

// attempt runs one delivery attempt and applies the retry bookkeeping. A
// failing job never affects other jobs in the pass or the timer.
func (q *Queue) attempt(ctx context.Context, job *Job) {
	result, err := q.deliver(ctx, job)

	if err == nil && result != nil && result.Success {
		q.mu.Lock()
		job.Status = JobStatusCompleted
		job.Result = result
		q.mu.Unlock()

		logx.WithFields(logx.Fields{
			"job_id":    job.ID,
			"delivered": result.Delivered,
			"skipped":   result.Skipped,
		}).Info("jobx: job completed")
		return
	}

	q.recordFailure(job, result, failureMessage(result, err))
}

// recordFailure applies the retry bookkeeping for one failed attempt:
// permanent failure once the attempt limit is reached, otherwise back to
// pending after the fixed retry delay.
func (q *Queue) recordFailure(job *Job, result *notifx.DeliveryResult, errMsg string) {
	q.mu.Lock()
	job.Error = ptrx.String(errMsg)
	if result != nil {
		job.Result = result
	}

	if job.Attempts >= job.MaxAttempts {
		job.Status = JobStatusFailed
		q.mu.Unlock()

		logx.WithFields(logx.Fields{
			"job_id":   job.ID,
			"attempts": job.Attempts,
			"error":    errMsg,
		}).Error("jobx: job failed permanently")
		return
	}

	retryAt := q.opts.Now().Add(q.opts.RetryDelay)
	job.Status = JobStatusPending
	job.ScheduledAt = retryAt
	q.mu.Unlock()

	logx.WithFields(logx.Fields{
		"job_id":   job.ID,
		"attempts": job.Attempts,
		"retry_at": retryAt.Format(time.RFC3339),
		"error":    errMsg,
	}).Warn("jobx: job attempt failed, rescheduled")
}

// abortMessage derives the error string for an attempt that never ran.
func abortMessage(ctx context.Context) string {
	if err := ctx.Err(); err != nil {
		return "attempt aborted: " + err.Error()
	}
	return "attempt aborted before delivery"
}

// deliver invokes the deliverer, converting a panic into an ordinary error
// so a misbehaving deliverer cannot take down the loop.
func (q *Queue) deliver(ctx context.Context, job *Job) (result *notifx.DeliveryResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("deliverer panic: %v", r)
		}
	}()
	return q.deliverer.Deliver(ctx, &job.Payload)
}

// failureMessage derives the error string recorded on a failed attempt.
func failureMessage(result *notifx.DeliveryResult, err error) string {
	if err != nil {
		return err.Error()
	}
	if result != nil && len(result.Errors) > 0 {
		return strings.Join(result.Errors, "; ")
	}
	return "delivery reported failure"
}

// newJobID builds a unique job ID from the enqueue time plus a random
// suffix, so two jobs in the same millisecond never collide.
func newJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("job_%d_%s", now.UnixMilli(), suffix)
}
