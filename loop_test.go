package msglisten

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"
)

func waitStop[T any](t *testing.T, l *EventLoop[T]) {
	t.Helper()
	select {
	case <-l.StopD():
	case <-time.After(time.Second):
		t.Fatal("event loop stop")
	}
}

func TestEventLoopConcurrentProducers(t *testing.T) {
	const (
		producers = 10
		perProd   = 100
	)

	var got []int
	h := func(ctx context.Context, m int) error {
		got = append(got, m)
		return nil
	}

	l := NewEventLoop[int](ProcessorFunc[int](h))

	var g errgroup.Group
	for p := 0; p < producers; p++ {
		p := p
		g.Go(func() error {
			for i := 1; i <= perProd; i++ {
				l.PushMessage(p*perProd + i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Eventually(t, func() bool {
		return l.Statistics().ProcessedCount == producers*perProd
	}, 5*time.Second, time.Millisecond)

	l.Dispose()

	require.Len(t, got, producers*perProd)

	seen := make(map[int]bool)
	last := make([]int, producers)
	for _, m := range got {
		require.False(t, seen[m], "duplicate %d", m)
		seen[m] = true

		p := (m - 1) / perProd
		require.Greater(t, m, last[p], "producer %d out of order", p)
		last[p] = m
	}
	for m := 1; m <= producers*perProd; m++ {
		require.True(t, seen[m], "missing %d", m)
	}

	stat := l.Statistics()
	require.EqualValues(t, producers*perProd, stat.PushedCount)
	require.EqualValues(t, producers*perProd, stat.ReceivedCount)
	require.Zero(t, stat.FailedCount)
}

func TestEventLoopFIFO(t *testing.T) {
	gotC := make(chan string, 3)
	h := func(ctx context.Context, m string) error {
		gotC <- m
		return nil
	}

	l := NewEventLoop[string](ProcessorFunc[string](h))
	defer l.Dispose()

	l.PushMessage("m1")
	l.PushMessage("m2")
	l.PushMessage("m3")

	for _, want := range []string{"m1", "m2", "m3"} {
		select {
		case m := <-gotC:
			require.Equal(t, want, m)
		case <-time.After(time.Second):
			t.Fatal("process", want)
		}
	}
}

func TestEventLoopFailureIsolation(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	var (
		locker   sync.Mutex
		failures []Failure
	)
	onFailure := func(f Failure) {
		locker.Lock()
		failures = append(failures, f)
		locker.Unlock()
	}

	errBad := errors.New("bad message")
	var processed []int
	h := func(ctx context.Context, m int) error {
		switch m {
		case 3:
			return errBad
		case 5:
			panic("crash")
		}
		processed = append(processed, m)
		return nil
	}

	l := NewEventLoop[int](ProcessorFunc[int](h),
		WithLogger(zap.New(core)), WithFailureFunc(onFailure))

	for i := 1; i <= 10; i++ {
		l.PushMessage(i)
	}

	require.Eventually(t, func() bool {
		s := l.Statistics()
		return s.ProcessedCount+s.FailedCount == 10
	}, time.Second, time.Millisecond)

	l.Dispose()

	require.Equal(t, []int{1, 2, 4, 6, 7, 8, 9, 10}, processed)
	require.EqualValues(t, 2, l.Statistics().FailedCount)
	require.NoError(t, l.Err())

	require.Len(t, failures, 2)
	require.Equal(t, ProcessingFailure, failures[0].Kind)
	require.Equal(t, 3, failures[0].Message)
	require.ErrorIs(t, failures[0].Err, errBad)
	require.Equal(t, ProcessingFailure, failures[1].Kind)
	require.Equal(t, 5, failures[1].Message)
	require.Contains(t, failures[1].Err.Error(), "crash")

	require.Equal(t, 2, logs.FilterMessage("unexpected error during message loop").Len())
}

func TestEventLoopSequential(t *testing.T) {
	var inflight, maxInflight atomic.Int32
	h := func(ctx context.Context, m int) error {
		n := inflight.Inc()
		if n > maxInflight.Load() {
			maxInflight.Store(n)
		}
		time.Sleep(time.Millisecond)
		inflight.Dec()
		return nil
	}

	l := NewEventLoop[int](ProcessorFunc[int](h))

	var g errgroup.Group
	for p := 0; p < 4; p++ {
		g.Go(func() error {
			for i := 0; i < 10; i++ {
				l.PushMessage(i)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Eventually(t, func() bool {
		return l.Statistics().ProcessedCount == 40
	}, 5*time.Second, time.Millisecond)
	l.Dispose()

	require.EqualValues(t, 1, maxInflight.Load())
}

func TestEventLoopSkipsNil(t *testing.T) {
	var got []int
	h := func(ctx context.Context, m *int) error {
		got = append(got, *m)
		return nil
	}

	l := NewEventLoop[*int](ProcessorFunc[*int](h))

	v := 7
	l.PushMessage(nil)
	l.PushMessage(&v)

	require.Eventually(t, func() bool {
		return l.Statistics().ProcessedCount == 1
	}, time.Second, time.Millisecond)
	l.Dispose()

	require.Equal(t, []int{7}, got)
	require.EqualValues(t, 1, l.Statistics().SkippedCount)
}

func TestEventLoopZeroValueIsMessage(t *testing.T) {
	l := NewEventLoop[int](ProcessorFunc[int](func(ctx context.Context, m int) error {
		return nil
	}))

	l.PushMessage(0)

	require.Eventually(t, func() bool {
		return l.Statistics().ProcessedCount == 1
	}, time.Second, time.Millisecond)
	l.Dispose()
}

func TestEventLoopDispose(t *testing.T) {
	l := NewEventLoop[int](ProcessorFunc[int](func(ctx context.Context, m int) error {
		return nil
	}))

	l.Dispose()
	require.True(t, l.Stopped())
	l.Dispose()
	l.Stop()

	require.NoError(t, l.Err())

	l.PushMessage(1)
	require.EqualValues(t, 1, l.Statistics().DroppedCount)
	require.Zero(t, l.Statistics().PushedCount)
}

func TestEventLoopStopResponsive(t *testing.T) {
	l := NewEventLoop[int](ProcessorFunc[int](func(ctx context.Context, m int) error {
		return nil
	}))

	time.Sleep(10 * time.Millisecond)
	l.Stop()
	waitStop(t, l)
	require.NoError(t, l.Err())
}

func TestEventLoopParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	l := NewEventLoop[int](ProcessorFunc[int](func(ctx context.Context, m int) error {
		return nil
	}), WithContext(ctx))

	cancel()
	waitStop(t, l)
	require.NoError(t, l.Err())
}

func TestEventLoopStopAbandonsQueued(t *testing.T) {
	startedC := make(chan struct{})
	releaseC := make(chan struct{})
	h := func(ctx context.Context, m int) error {
		if m == 1 {
			close(startedC)
			<-releaseC
		}
		return nil
	}

	l := NewEventLoop[int](ProcessorFunc[int](h))
	l.PushMessage(1)
	l.PushMessage(2)
	l.PushMessage(3)

	<-startedC
	l.Stop()
	close(releaseC)
	waitStop(t, l)

	stat := l.Statistics()
	require.EqualValues(t, 1, stat.ProcessedCount)
	require.EqualValues(t, 3, stat.PushedCount)
	require.Equal(t, 2, l.Queue().Len())
}

func TestEventLoopInterruptedIsNotFailure(t *testing.T) {
	startedC := make(chan struct{})
	h := func(ctx context.Context, m int) error {
		close(startedC)
		<-ctx.Done()
		return ctx.Err()
	}

	var failed atomic.Int32
	l := NewEventLoop[int](ProcessorFunc[int](h),
		WithFailureFunc(func(Failure) { failed.Inc() }))
	l.PushMessage(1)

	<-startedC
	l.Dispose()

	require.Zero(t, failed.Load())
	require.Zero(t, l.Statistics().FailedCount)
}

func TestEventLoopQueueFault(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)

	faultC := make(chan Failure, 1)
	l := NewEventLoop[int](ProcessorFunc[int](func(ctx context.Context, m int) error {
		return nil
	}), WithLogger(zap.New(core)), WithFailureFunc(func(f Failure) { faultC <- f }))

	l.Queue().Close()
	waitStop(t, l)

	require.ErrorIs(t, l.Err(), ErrQueueClosed)

	f := <-faultC
	require.Equal(t, QueueFault, f.Kind)
	require.ErrorIs(t, f, ErrQueueClosed)
	require.Nil(t, f.Message)

	require.Equal(t, 1, logs.FilterMessage("event loop broken").Len())
}
