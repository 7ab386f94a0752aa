package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/mason/internal/adapters/telemetry"
)

func TestTimings_RecordsSpanDurations(t *testing.T) {
	timings := telemetry.NewTimings()
	tracer := telemetry.Setup(timings)

	_, span := tracer.Start(context.Background(), "Generating JSON projects")
	span.End()

	d, ok := timings.Duration("Generating JSON projects")
	require.True(t, ok)
	assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))

	_, ok = timings.Duration("never started")
	assert.False(t, ok)
}
