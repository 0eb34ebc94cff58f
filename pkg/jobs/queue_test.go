package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 2})
	done := make(chan string, 1)
	q.Register("release", func(_ context.Context, job Job) error {
		done <- job.Payload.(string)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "1", Type: "release", Payload: "token"}))
	select {
	case got := <-done:
		require.Equal(t, "token", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRejectsUnknownTypeAndUnstarted(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	require.ErrorIs(t, q.Enqueue(Job{Type: "release"}), ErrNotStarted)

	q.Start(context.Background())
	defer q.Stop()
	require.Error(t, q.Enqueue(Job{Type: "unknown"}))
}

func TestQueueRetriesFailedJobs(t *testing.T) {
	q := NewQueue("test", QueueConfig{MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	var calls int32
	succeeded := make(chan struct{})
	q.Register("flaky", func(context.Context, Job) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("transient")
		}
		close(succeeded)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "f", Type: "flaky"}))
	select {
	case <-succeeded:
	case <-time.After(2 * time.Second):
		t.Fatal("job never succeeded")
	}
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestQueueStopIsIdempotent(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Stop()
	q.Start(context.Background())
	q.Stop()
	q.Stop()
	require.ErrorIs(t, q.Enqueue(Job{Type: "x"}), ErrNotStarted)
}
