package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// UserIDHeader is the metadata key the gateway sets for the authenticated caller.
const UserIDHeader = "x-user-id"

type contextKey string

const userIDKey contextKey = "user_id"

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserID returns the caller placed on the context by the interceptor,
// falling back to incoming metadata.
func GetUserID(ctx context.Context) string {
	if val, ok := ctx.Value(userIDKey).(string); ok && val != "" {
		return val
	}

	md, ok := metadata.FromIncomingContext(ctx)
	if ok {
		if val := md.Get(UserIDHeader); len(val) > 0 {
			return val[0]
		}
	}
	return ""
}
