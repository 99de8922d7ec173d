package middleware

import (
	"context"
	"testing"

	"github.com/labcare/pmc-service/internal/auth"
	"github.com/labcare/pmc-service/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/pmc.v1.MaintenanceService/SubmitMaintenanceReport"}

func TestContextInterceptor_PropagatesUserID(t *testing.T) {
	interceptor := ContextInterceptor(logger.NewNop())
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(auth.UserIDHeader, "tech-1"))

	var seen string
	resp, err := interceptor(ctx, "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = auth.GetUserID(ctx)
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
	assert.Equal(t, "tech-1", seen)
}

func TestContextInterceptor_PassesErrorsThrough(t *testing.T) {
	interceptor := ContextInterceptor(logger.NewNop())

	_, err := interceptor(context.Background(), "req", info, func(ctx context.Context, req interface{}) (interface{}, error) {
		assert.Equal(t, "", auth.GetUserID(ctx))
		return nil, status.Error(codes.NotFound, "missing")
	})

	assert.Equal(t, codes.NotFound, status.Code(err))
}
