package shared

import "context"

// SystemActorID identifies transitions performed by automation.
const SystemActorID int64 = 0

type actorContextKey struct{}

// ContextWithActor stores the acting user id in context.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actorID)
}

// ActorFromContext extracts the acting user id, falling back to the system actor.
func ActorFromContext(ctx context.Context) int64 {
	id, ok := ctx.Value(actorContextKey{}).(int64)
	if !ok {
		return SystemActorID
	}
	return id
}
