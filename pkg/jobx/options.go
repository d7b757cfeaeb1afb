package jobx

import "time"

// QueueOptions configures a Queue.
type QueueOptions struct {
	TickInterval       time.Duration
	MaxConcurrent      int
	RetryDelay         time.Duration
	DefaultMaxAttempts int
	ManualOnly         bool
	Now                func() time.Time
}

func defaultQueueOptions() QueueOptions {
	return QueueOptions{
		TickInterval:       5 * time.Second,
		MaxConcurrent:      5,
		RetryDelay:         30 * time.Second,
		DefaultMaxAttempts: 3,
		Now:                time.Now,
	}
}

// QueueOption is a functional option for configuring the queue.
type QueueOption func(*QueueOptions)

// WithTickInterval sets the interval between automatic processing passes.
func WithTickInterval(d time.Duration) QueueOption {
	return func(o *QueueOptions) {
		if d > 0 {
			o.TickInterval = d
		}
	}
}

// WithMaxConcurrent sets how many jobs one pass may process at once.
func WithMaxConcurrent(n int) QueueOption {
	return func(o *QueueOptions) {
		if n > 0 {
			o.MaxConcurrent = n
		}
	}
}

// WithRetryDelay sets the fixed delay before a failed job runs again.
func WithRetryDelay(d time.Duration) QueueOption {
	return func(o *QueueOptions) {
		if d > 0 {
			o.RetryDelay = d
		}
	}
}

// WithDefaultMaxAttempts sets the attempt limit for jobs that do not
// override it.
func WithDefaultMaxAttempts(n int) QueueOption {
	return func(o *QueueOptions) {
		if n > 0 {
			o.DefaultMaxAttempts = n
		}
	}
}

// WithManualProcessing makes StartProcessing a no-op, so passes only run
// through ProcessNow. Used in test environments.
func WithManualProcessing() QueueOption {
	return func(o *QueueOptions) {
		o.ManualOnly = true
	}
}

// WithNow replaces the clock. Tests use this to drive the retry timeline
// without sleeping.
func WithNow(now func() time.Time) QueueOption {
	return func(o *QueueOptions) {
		if now != nil {
			o.Now = now
		}
	}
}

// EnqueueOptions configures a single enqueued job.
type EnqueueOptions struct {
	MaxAttempts int
	Delay       time.Duration
}

// EnqueueOption is a functional option for Enqueue.
type EnqueueOption func(*EnqueueOptions)

// WithMaxAttempts overrides the attempt limit for this job.
func WithMaxAttempts(n int) EnqueueOption {
	return func(o *EnqueueOptions) {
		if n > 0 {
			o.MaxAttempts = n
		}
	}
}

// WithDelay schedules the job for now+delay instead of immediately.
func WithDelay(d time.Duration) EnqueueOption {
	return func(o *EnqueueOptions) {
		if d > 0 {
			o.Delay = d
		}
	}
}
