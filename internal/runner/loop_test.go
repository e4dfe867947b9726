package runner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) (*Loop, context.CancelFunc) {
	t.Helper()
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(cancel)
	return l, cancel
}

func TestLoopRunsTasksInOrder(t *testing.T) {
	l, _ := startLoop(t)

	var got []int
	for i := 0; i < 50; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	var snapshot []int
	require.NoError(t, l.Call(context.Background(), func() {
		snapshot = append(snapshot, got...)
	}))
	require.Len(t, snapshot, 50)
	for i, v := range snapshot {
		require.Equal(t, i, v)
	}
}

func TestLoopSerializesConcurrentPosters(t *testing.T) {
	l, _ := startLoop(t)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = l.Call(context.Background(), func() { counter++ })
			}
		}()
	}
	wg.Wait()

	var total int
	require.NoError(t, l.Call(context.Background(), func() { total = counter }))
	require.Equal(t, 2000, total)
}

func TestLoopRejectsAfterStop(t *testing.T) {
	l, cancel := startLoop(t)
	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	require.False(t, l.Post(func() {}))
	require.ErrorIs(t, l.Call(context.Background(), func() {}), ErrStopped)
}

func TestLoopCallHonoursContext(t *testing.T) {
	l, _ := startLoop(t)

	block := make(chan struct{})
	require.True(t, l.Post(func() { <-block }))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Call(ctx, func() {})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
