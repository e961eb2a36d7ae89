package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntervalTickerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	ticker := NewIntervalTicker(10 * time.Millisecond)
	require.NoError(t, ticker.Start(context.Background(), func(context.Context) { runs.Add(1) }))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, ticker.Stop(ctx))

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load())
}

func TestIntervalTickerStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	ticker := NewIntervalTicker(time.Hour)
	require.NoError(t, ticker.Start(ctx, func(context.Context) { started <- struct{}{} }))

	<-started
	cancel()
	require.NoError(t, ticker.Stop(context.Background()))
}

func TestIntervalTickerStopWithoutStart(t *testing.T) {
	t.Parallel()
	assert.NoError(t, NewIntervalTicker(0).Stop(context.Background()))
	assert.NoError(t, NewIntervalTicker(time.Second).Start(context.Background(), nil))
}
