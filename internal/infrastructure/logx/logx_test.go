package logx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestContextIDs(t *testing.T) {
	ctx := WithTraceID(WithRequestID(context.Background(), "rid"), "tid")
	require.Equal(t, "rid", RequestID(ctx))
	require.Equal(t, "tid", TraceID(ctx))
	require.Empty(t, RequestID(context.Background()))
	require.NotNil(t, WithFields(ctx))
}

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("info") }()
	require.NoError(t, SetLevel("DEBUG"))
	require.True(t, L().Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, SetLevel(""))
	require.Error(t, SetLevel("loud"))
}
