package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := New(4)
	defer p.Shutdown()

	var count atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func() { count.Add(1) }))
	}
	p.Wait()
	require.EqualValues(t, 100, count.Load())
}

func TestPoolWaitIsABarrier(t *testing.T) {
	p := New(2)
	defer p.Shutdown()

	release := make(chan struct{})
	var finished atomic.Bool
	require.NoError(t, p.Submit(func() {
		<-release
		finished.Store(true)
	}))

	close(release)
	p.Wait()
	require.True(t, finished.Load(), "Wait returned before the task finished")
}

func TestSubmitAfterShutdownFails(t *testing.T) {
	p := New(1)
	p.Shutdown()
	require.Error(t, p.Submit(func() {}))
}

func TestShutdownIsIdempotent(t *testing.T) {
	p := New(1)
	require.NoError(t, p.Submit(func() {}))
	p.Shutdown()
	p.Shutdown()
}

func TestSingleWorkerPoolSerializes(t *testing.T) {
	p := New(1)
	defer p.Shutdown()

	var order []int
	for i := 0; i < 10; i++ {
		i := i
		require.NoError(t, p.Submit(func() { order = append(order, i) }))
	}
	p.Wait()
	require.Len(t, order, 10)
	for i, v := range order {
		require.Equal(t, i, v, "single worker executed tasks out of order")
	}
}
