package notifxpg

import (
	"context"
	"time"

	"github.com/maix-platform/maix/pkg/asyncx"
	"github.com/maix-platform/maix/pkg/logx"
	"github.com/maix-platform/maix/pkg/notifx"
)

// DelivererOption configures a Deliverer.
type DelivererOption func(*Deliverer)

// WithUnreadCounter attaches a best-effort unread counter. Counter failures
// are logged, never surfaced to the delivery result.
func WithUnreadCounter(counter UnreadCounter) DelivererOption {
	return func(d *Deliverer) {
		d.counter = counter
	}
}

// WithEmailClient enables the email channel for followers that opted in.
func WithEmailClient(client *notifx.Client) DelivererOption {
	return func(d *Deliverer) {
		d.email = client
	}
}

// WithSendTimeout bounds each email send. Zero disables the bound.
func WithSendTimeout(timeout time.Duration) DelivererOption {
	return func(d *Deliverer) {
		d.sendTimeout = timeout
	}
}

// Deliverer fans one entity-update event out to the entity's followers:
// an in-app notification row per follower, plus an email for followers that
// opted in. It implements notifx.Deliverer.
type Deliverer struct {
	store       Store
	counter     UnreadCounter
	email       *notifx.Client
	sendTimeout time.Duration
	now         func() time.Time
}

// NewDeliverer creates a follower-store deliverer.
func NewDeliverer(store Store, opts ...DelivererOption) *Deliverer {
	d := &Deliverer{
		store: store,
		now:   time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Deliver writes one notification per follower and reports per-recipient
// counts. The actor that caused the event and muted followers are skipped.
func (d *Deliverer) Deliver(ctx context.Context, event *notifx.EntityUpdateEvent) (*notifx.DeliveryResult, error) {
	followers, err := d.store.ListFollowers(ctx, event.EntityType, event.EntityID)
	if err != nil {
		return nil, err
	}

	result := &notifx.DeliveryResult{}

	for _, follower := range followers {
		if follower.Muted || follower.UserID.String() == event.CreatedBy {
			result.Skipped++
			continue
		}

		if err := d.deliverTo(ctx, follower, event); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Delivered++
	}

	result.Success = result.Failed == 0
	return result, nil
}

func (d *Deliverer) deliverTo(ctx context.Context, follower Follower, event *notifx.EntityUpdateEvent) error {
	n, err := NewNotification(follower.UserID, event, d.now().UTC())
	if err != nil {
		return err
	}

	if err := d.store.InsertNotification(ctx, n); err != nil {
		return err
	}

	if d.counter != nil {
		if err := d.counter.Incr(ctx, follower.UserID); err != nil {
			logx.WithError(err).
				WithField("user_id", follower.UserID.String()).
				Warn("notifx/pg: unread counter update failed")
		}
	}

	if d.email != nil && follower.EmailEnabled && follower.Email != "" {
		return d.sendEmail(ctx, follower, event)
	}
	return nil
}

func (d *Deliverer) sendEmail(ctx context.Context, follower Follower, event *notifx.EntityUpdateEvent) error {
	send := func(ctx context.Context) (struct{}, error) {
		return struct{}{}, d.email.SendEntityUpdateEmail(ctx, follower.Email, event)
	}

	var err error
	if d.sendTimeout > 0 {
		_, err = asyncx.WithTimeout(ctx, d.sendTimeout, send)
	} else {
		_, err = send(ctx)
	}
	return err
}

var _ notifx.Deliverer = (*Deliverer)(nil)
