package utils

import "context"

type contextKey string

const (
	ContextKeyUserId        contextKey = "user_id"
	ContextKeyUserName      contextKey = "user_name"
	ContextKeyCorrelationId contextKey = "correlation_id"
)

func SetUserIdInContext(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, ContextKeyUserId, userId)
}

func GetUserIdFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(ContextKeyUserId).(int)
	return id, ok
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ContextKeyUserName, username)
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(ContextKeyUserName).(string)
	return name, ok
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ContextKeyCorrelationId, correlationId)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	cid, ok := ctx.Value(ContextKeyCorrelationId).(string)
	return cid, ok
}
