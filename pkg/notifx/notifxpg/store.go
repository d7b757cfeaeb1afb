// Package notifxpg implements notification delivery against the MAIX
// follower tables in Postgres, with per-user unread counters in Redis.
//
// Expected schema:
//
//	followers(user_id, entity_type, entity_id, muted, email_enabled)
//	users(id, email)
//	notifications(id, user_id, entity_id, entity_type, update_type,
//	              title, message, metadata, created_by, created_at)
package notifxpg

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/maix-platform/maix/pkg/kernel"
	"github.com/maix-platform/maix/pkg/notifx"
	"github.com/maix-platform/maix/pkg/ptrx"
)

// Follower is one subscriber of an entity.
type Follower struct {
	UserID       kernel.UserID `db:"user_id"`
	Email        string        `db:"email"`
	Muted        bool          `db:"muted"`
	EmailEnabled bool          `db:"email_enabled"`
}

// Notification is one in-app notification row.
type Notification struct {
	ID         string        `db:"id"`
	UserID     kernel.UserID `db:"user_id"`
	EntityID   string        `db:"entity_id"`
	EntityType string        `db:"entity_type"`
	UpdateType string        `db:"update_type"`
	Title      string        `db:"title"`
	Message    string        `db:"message"`
	Metadata   []byte        `db:"metadata"`
	CreatedBy  *string       `db:"created_by"`
	CreatedAt  time.Time     `db:"created_at"`
}

// NewNotification builds a notification row for one recipient of an event.
func NewNotification(recipient kernel.UserID, event *notifx.EntityUpdateEvent, now time.Time) (*Notification, error) {
	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(event.Metadata)
		if err != nil {
			return nil, pgErrors.NewWithCause(ErrBadMetadata, err)
		}
	}

	n := &Notification{
		ID:         uuid.New().String(),
		UserID:     recipient,
		EntityID:   event.EntityID,
		EntityType: string(event.EntityType),
		UpdateType: string(event.UpdateType),
		Title:      event.Title,
		Message:    event.Message,
		Metadata:   metadata,
		CreatedAt:  now,
	}
	if event.CreatedBy != "" {
		n.CreatedBy = ptrx.String(event.CreatedBy)
	}
	return n, nil
}

// Store provides the persistence operations the deliverer needs.
type Store interface {
	ListFollowers(ctx context.Context, entityType notifx.EntityType, entityID string) ([]Follower, error)
	InsertNotification(ctx context.Context, n *Notification) error
}

// PGStore implements Store on Postgres via sqlx.
type PGStore struct {
	db *sqlx.DB
}

// NewPGStore creates a new Postgres-backed store.
func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db}
}

// ListFollowers returns every follower of the given entity along with their
// notification preferences.
func (s *PGStore) ListFollowers(ctx context.Context, entityType notifx.EntityType, entityID string) ([]Follower, error) {
	const query = `
		SELECT f.user_id, u.email, f.muted, f.email_enabled
		  FROM followers f
		  JOIN users u ON u.id = f.user_id
		 WHERE f.entity_type = $1 AND f.entity_id = $2
		 ORDER BY f.user_id`

	var followers []Follower
	if err := s.db.SelectContext(ctx, &followers, query, string(entityType), entityID); err != nil {
		return nil, pgErrors.NewWithCause(ErrListFollowers, err).
			WithDetail("entity_type", string(entityType)).
			WithDetail("entity_id", entityID)
	}
	return followers, nil
}

// InsertNotification stores one in-app notification row.
func (s *PGStore) InsertNotification(ctx context.Context, n *Notification) error {
	const query = `
		INSERT INTO notifications
			(id, user_id, entity_id, entity_type, update_type, title, message, metadata, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		n.ID, n.UserID.String(), n.EntityID, n.EntityType, n.UpdateType,
		n.Title, n.Message, n.Metadata, n.CreatedBy, n.CreatedAt,
	)
	if err != nil {
		return pgErrors.NewWithCause(ErrInsertFailed, err).
			WithDetail("user_id", n.UserID.String())
	}
	return nil
}

var _ Store = (*PGStore)(nil)
