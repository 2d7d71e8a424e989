package workerpool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/workerpool"
)

func TestPool_SubmitCtxRunsAll(t *testing.T) {
	pool := workerpool.New(4)

	const n = 100
	var count atomic.Int64
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitCtx(context.Background(), func() { count.Add(1) }))
	}
	pool.Shutdown()

	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ErrPoolFull(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		close(started)
		<-blocker
	}))
	<-started

	// Queue holds two.
	require.NoError(t, pool.Submit(func() {}))
	require.NoError(t, pool.Submit(func() {}))
	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolFull)

	close(blocker)
}

func TestPool_SubmitCtxHonoursCancel(t *testing.T) {
	pool := workerpool.New(1)
	defer pool.Shutdown()

	blocker := make(chan struct{})
	defer close(blocker)
	for i := 0; i < 3; i++ {
		_ = pool.Submit(func() { <-blocker })
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, pool.SubmitCtx(ctx, func() {}), context.Canceled)
}

func TestPool_ClosedRejects(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.Submit(func() {}), workerpool.ErrPoolClosed)
	assert.ErrorIs(t, pool.SubmitCtx(context.Background(), func() {}), workerpool.ErrPoolClosed)
}

func TestPool_PanicDoesNotKillWorker(t *testing.T) {
	pool := workerpool.New(1)

	var wg sync.WaitGroup
	wg.Add(1)
	require.NoError(t, pool.SubmitCtx(context.Background(), func() { panic("boom") }))
	require.NoError(t, pool.SubmitCtx(context.Background(), wg.Done))
	wg.Wait()
	pool.Shutdown()
}
