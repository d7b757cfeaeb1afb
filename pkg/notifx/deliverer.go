package notifx

import "context"

// DeliveryResult reports what happened to a single delivery attempt across
// all recipients of the event.
type DeliveryResult struct {
	Success   bool     `json:"success"`
	Delivered int      `json:"delivered"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

// Deliverer attempts to deliver one entity-update event to its recipients.
// A returned error means the attempt as a whole failed; a result with
// Success == false reports per-recipient failures. Both are treated the same
// by the queue's retry bookkeeping.
type Deliverer interface {
	Deliver(ctx context.Context, event *EntityUpdateEvent) (*DeliveryResult, error)
}

// DelivererFunc adapts a function to the Deliverer interface.
type DelivererFunc func(ctx context.Context, event *EntityUpdateEvent) (*DeliveryResult, error)

// Deliver implements Deliverer.
func (f DelivererFunc) Deliver(ctx context.Context, event *EntityUpdateEvent) (*DeliveryResult, error) {
	return f(ctx, event)
}
