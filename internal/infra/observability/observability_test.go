package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetupTracing_EmptyEndpointIsNoop(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("dev")
	require.NotNil(t, l)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	p := NewLogger("prod")
	assert.False(t, p.Core().Enabled(zapcore.DebugLevel))
}
