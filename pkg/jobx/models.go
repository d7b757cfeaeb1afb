package jobx

import (
	"time"

	"github.com/maix-platform/maix/pkg/notifx"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether a job in this status will never run again.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobTypeEntityUpdate is the only job kind the queue currently carries.
const JobTypeEntityUpdate = "entity_update"

// Job is one unit of scheduled notification work. The queue owns every Job
// it stores; callers only ever see copies.
type Job struct {
	ID          string                    `json:"id"`
	Type        string                    `json:"type"`
	Payload     notifx.EntityUpdateEvent  `json:"payload"`
	Status      JobStatus                 `json:"status"`
	Attempts    int                       `json:"attempts"`
	MaxAttempts int                       `json:"max_attempts"`
	CreatedAt   time.Time                 `json:"created_at"`
	ScheduledAt time.Time                 `json:"scheduled_at"`
	Result      *notifx.DeliveryResult    `json:"result,omitempty"`
	Error       *string                   `json:"error,omitempty"`

	// seq orders jobs by enqueue time within the same pass.
	seq uint64
}

// QueueStats summarizes the queue contents by status.
type QueueStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}
