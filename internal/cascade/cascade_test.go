package cascade

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/rajivgeraev/barterhub/internal/metrics"
)

func TestRunner_RunsAllStepsAndCountsFailures(t *testing.T) {
	log, hook := test.NewNullLogger()
	runner := NewRunner(log)

	var order []string
	before := testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues("cascade_test_fail"))

	failed := runner.Run(context.Background(), logrus.Fields{"exchange_id": "e-1"},
		Step{Name: "first", Run: func(ctx context.Context) error {
			order = append(order, "first")
			return nil
		}},
		Step{Name: "cascade_test_fail", Run: func(ctx context.Context) error {
			order = append(order, "second")
			return errors.New("store down")
		}},
		Step{Name: "third", Run: func(ctx context.Context) error {
			order = append(order, "third")
			return nil
		}},
	)

	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"first", "second", "third"}, order)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.CascadeFailures.WithLabelValues("cascade_test_fail")))

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.WarnLevel, entry.Level)
		assert.Equal(t, "cascade_test_fail", entry.Data["step"])
		assert.Equal(t, "e-1", entry.Data["exchange_id"])
	}
}

func TestRunner_RecoversPanics(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := NewRunner(log)

	ran := false
	failed := runner.Run(context.Background(), nil,
		Step{Name: "panics", Run: func(ctx context.Context) error { panic("boom") }},
		Step{Name: "after", Run: func(ctx context.Context) error { ran = true; return nil }},
	)

	assert.Equal(t, 1, failed)
	assert.True(t, ran)
}

func TestRunner_IgnoresRequestCancellation(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := NewRunner(log)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	failed := runner.Run(ctx, nil, Step{Name: "ctx", Run: func(ctx context.Context) error {
		return ctx.Err()
	}})
	assert.Zero(t, failed)
}

func TestRunner_GoDoesNotWaitForStalledStep(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := NewRunner(log)

	release := make(chan struct{})
	var order []string
	var mu sync.Mutex
	record := func(name string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, name)
	}

	start := time.Now()
	runner.Go(logrus.Fields{"exchange_id": "e-2"},
		Step{Name: "stalled", Run: func(ctx context.Context) error {
			<-release
			record("stalled")
			return nil
		}},
		Step{Name: "after", Run: func(ctx context.Context) error {
			record("after")
			return nil
		}},
	)
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, runner.Shutdown(ctx), context.DeadlineExceeded)

	close(release)
	runner.Wait()
	assert.Equal(t, []string{"stalled", "after"}, order)
	assert.NoError(t, runner.Shutdown(context.Background()))
}

func TestRunner_GoWithoutStepsIsNoop(t *testing.T) {
	log, _ := test.NewNullLogger()
	runner := NewRunner(log)

	runner.Go(nil)
	runner.Wait()
}
