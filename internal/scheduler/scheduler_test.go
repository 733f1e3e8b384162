package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	s := New(time.UTC, time.Second, zerolog.Nop())
	err := s.Add("every now and then", "alerts", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.ErrorContains(t, err, `schedule alerts "every now and then"`)

	require.NoError(t, s.Add(DefaultAlertSchedule, "alerts", func(context.Context) error { return nil }))
	require.NoError(t, s.Add("@every 1m", "alerts", func(context.Context) error { return nil }))
}

func TestScheduledJobRuns(t *testing.T) {
	t.Parallel()

	s := New(time.UTC, time.Second, zerolog.Nop())
	var runs atomic.Int32
	require.NoError(t, s.Add("@every 1s", "tick", func(context.Context) error {
		runs.Add(1)
		return nil
	}))

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestRunNowLogsFailures(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	s := New(time.UTC, time.Second, zerolog.New(&out))

	s.RunNow("alerts", func(context.Context) error { return errors.New("service down") })

	assert.Contains(t, out.String(), "scheduled job failed")
	assert.Contains(t, out.String(), "service down")
	assert.Contains(t, out.String(), `"job":"alerts"`)
}

func TestRunNowAppliesTimeout(t *testing.T) {
	t.Parallel()

	s := New(time.UTC, 10*time.Millisecond, zerolog.Nop())

	var deadline atomic.Bool
	s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})

	assert.True(t, deadline.Load())
}

func TestRunReturnsWhenContextEnds(t *testing.T) {
	t.Parallel()

	s := New(time.UTC, time.Second, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
