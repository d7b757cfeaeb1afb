package jobx

import (
	"context"

	"github.com/maix-platform/maix/pkg/kernel"
	"github.com/maix-platform/maix/pkg/notifx"
)

// Helper constructors for the event kinds the application enqueues. Each
// builds the payload for one entity type and enqueues it, defaulting
// CreatedBy to the actor carried by the context.

// NotifyOrganizationUpdate enqueues an update notification for an organization.
func NotifyOrganizationUpdate(ctx context.Context, q *Queue, id kernel.OrganizationID, title, message string, metadata map[string]interface{}, opts ...EnqueueOption) string {
	return enqueueUpdate(ctx, q, id.String(), notifx.EntityOrganization, notifx.UpdateOrganization, title, message, metadata, opts...)
}

// NotifyProjectUpdate enqueues an update notification for a project.
func NotifyProjectUpdate(ctx context.Context, q *Queue, id kernel.ProjectID, title, message string, metadata map[string]interface{}, opts ...EnqueueOption) string {
	return enqueueUpdate(ctx, q, id.String(), notifx.EntityProject, notifx.UpdateProject, title, message, metadata, opts...)
}

// NotifyProductUpdate enqueues an update notification for a product.
func NotifyProductUpdate(ctx context.Context, q *Queue, id kernel.ProductID, title, message string, metadata map[string]interface{}, opts ...EnqueueOption) string {
	return enqueueUpdate(ctx, q, id.String(), notifx.EntityProduct, notifx.UpdateProduct, title, message, metadata, opts...)
}

func enqueueUpdate(ctx context.Context, q *Queue, entityID string, entityType notifx.EntityType, updateType notifx.UpdateType, title, message string, metadata map[string]interface{}, opts ...EnqueueOption) string {
	event := &notifx.EntityUpdateEvent{
		EntityID:   entityID,
		EntityType: entityType,
		UpdateType: updateType,
		Title:      title,
		Message:    message,
		Metadata:   metadata,
	}
	if actor, ok := kernel.ActorFromContext(ctx); ok {
		event.CreatedBy = actor.String()
	}
	return q.Enqueue(event, opts...)
}
