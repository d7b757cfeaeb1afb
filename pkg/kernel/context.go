package kernel

import "context"

// ContextKey is the type used for all kernel context keys
type ContextKey string

// ActorContextKey stores the UserID performing the current operation
const ActorContextKey ContextKey = "actor_id"

// WithActor returns a context carrying the acting user's ID
func WithActor(ctx context.Context, actor UserID) context.Context {
	return context.WithValue(ctx, ActorContextKey, actor)
}

// ActorFromContext returns the acting user's ID, if one was set
func ActorFromContext(ctx context.Context) (UserID, bool) {
	actor, ok := ctx.Value(ActorContextKey).(UserID)
	if !ok || actor.IsEmpty() {
		return "", false
	}
	return actor, true
}
