package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTickLogsOncePerInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	now := time.Unix(0, 0)
	p := NewProfiler(
		WithLogger(zap.New(core)),
		WithInterval(time.Second),
		WithClock(func() time.Time { return now }),
	)

	for range 19 {
		now = now.Add(50 * time.Millisecond)
		assert.False(t, p.Tick())
	}
	now = now.Add(50 * time.Millisecond)
	assert.True(t, p.Tick())

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.InDelta(t, 20.0, fields["fps"], 0.01)
	assert.InDelta(t, 20.0, p.FPS(), 0.01)
	assert.Contains(t, fields, "heap_mb")
}
