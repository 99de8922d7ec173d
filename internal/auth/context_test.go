package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/metadata"
)

func TestGetUserID(t *testing.T) {
	t.Run("from context value", func(t *testing.T) {
		ctx := WithUserID(context.Background(), "tech-1")
		assert.Equal(t, "tech-1", GetUserID(ctx))
	})

	t.Run("from metadata", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDHeader, "tech-2"))
		assert.Equal(t, "tech-2", GetUserID(ctx))
	})

	t.Run("context value wins", func(t *testing.T) {
		ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(UserIDHeader, "tech-2"))
		ctx = WithUserID(ctx, "tech-1")
		assert.Equal(t, "tech-1", GetUserID(ctx))
	})

	t.Run("anonymous", func(t *testing.T) {
		assert.Equal(t, "", GetUserID(context.Background()))
	})
}
