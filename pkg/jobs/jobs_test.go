package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func echoHandler(_ context.Context, payload json.RawMessage) (json.RawMessage, error) {
	return payload, nil
}

func TestDirectRunnerFinishes(t *testing.T) {
	store := NewMemoryStore()
	runner := NewDirectRunner(store, map[string]Handler{
		QueueImageAnalysis: echoHandler,
	}, nil, testLogger())

	id, err := runner.Submit(context.Background(), QueueImageAnalysis, map[string]string{"query": "q"})
	require.NoError(t, err)

	job, err := runner.Await(context.Background(), id, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, job.Status)
	assert.JSONEq(t, `{"query":"q"}`, string(job.Result))
	require.NotNil(t, job.StartedAt)
	require.NotNil(t, job.EndedAt)
}

func TestDirectRunnerRecordsFailure(t *testing.T) {
	store := NewMemoryStore()
	runner := NewDirectRunner(store, map[string]Handler{
		QueueFullQuery: func(context.Context, json.RawMessage) (json.RawMessage, error) {
			return nil, errors.New("model unavailable")
		},
	}, nil, testLogger())

	id, err := runner.Submit(context.Background(), QueueFullQuery, nil)
	require.NoError(t, err)

	job, err := runner.Status(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, job.Status)
	assert.Equal(t, "model unavailable", job.Error)
}

func TestDirectRunnerUnknownQueue(t *testing.T) {
	runner := NewDirectRunner(NewMemoryStore(), map[string]Handler{}, nil, testLogger())
	_, err := runner.Submit(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrUnknownQueue)
}

func newQueuedFixture(t *testing.T, handlers map[string]Handler) (*QueuedRunner, *Worker, func()) {
	t.Helper()
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	store := NewMemoryStore()

	runner := NewQueuedRunner(pubSub, store, nil, testLogger())
	runner.SetPollInterval(10 * time.Millisecond)

	worker := NewWorker(pubSub, store, handlers, 2, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go worker.Run(ctx)

	return runner, worker, func() {
		cancel()
		pubSub.Close()
	}
}

func TestQueuedRunnerEndToEnd(t *testing.T) {
	runner, _, stop := newQueuedFixture(t, map[string]Handler{
		QueueImageAnalysis: echoHandler,
	})
	defer stop()

	id, err := runner.Submit(context.Background(), QueueImageAnalysis, map[string]string{"session_id": "s1"})
	require.NoError(t, err)

	job, err := runner.Await(context.Background(), id, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, job.Status)
	assert.JSONEq(t, `{"session_id":"s1"}`, string(job.Result))
}

func TestQueuedCancelBeforeStartPreventsExecution(t *testing.T) {
	var executed atomic.Bool
	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	defer pubSub.Close()
	store := NewMemoryStore()

	runner := NewQueuedRunner(pubSub, store, nil, testLogger())
	runner.SetPollInterval(10 * time.Millisecond)

	// Submit and cancel with no worker running yet.
	id, err := runner.Submit(context.Background(), QueueImageAnalysis, nil)
	require.NoError(t, err)
	require.NoError(t, runner.Cancel(context.Background(), id))

	worker := NewWorker(pubSub, store, map[string]Handler{
		QueueImageAnalysis: func(context.Context, json.RawMessage) (json.RawMessage, error) {
			executed.Store(true)
			return nil, nil
		},
	}, 1, nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	job, err := runner.Await(context.Background(), id, time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, job.Status)

	time.Sleep(100 * time.Millisecond)
	assert.False(t, executed.Load(), "cancelled job must not run")
}

func TestQueuedCancelInterruptsStartedJob(t *testing.T) {
	started := make(chan struct{})
	runner, _, stop := newQueuedFixture(t, map[string]Handler{
		QueueAnswerGeneration: func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	})
	defer stop()

	id, err := runner.Submit(context.Background(), QueueAnswerGeneration, nil)
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("handler never started")
	}

	require.NoError(t, runner.Cancel(context.Background(), id))

	job, err := runner.Await(context.Background(), id, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, job.Status)
}

func TestAwaitTimeoutLeavesJobRunning(t *testing.T) {
	release := make(chan struct{})
	runner, _, stop := newQueuedFixture(t, map[string]Handler{
		QueueFullQuery: func(ctx context.Context, _ json.RawMessage) (json.RawMessage, error) {
			select {
			case <-release:
				return json.RawMessage(`"done"`), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})
	defer stop()

	id, err := runner.Submit(context.Background(), QueueFullQuery, nil)
	require.NoError(t, err)

	_, err = runner.Await(context.Background(), id, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrAwaitTimeout)

	// The job keeps running and can still finish after the await gave up.
	close(release)
	job, err := runner.Await(context.Background(), id, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusFinished, job.Status)
}

func TestStatusUnknownJob(t *testing.T) {
	runner := NewQueuedRunner(
		gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{}),
		NewMemoryStore(), nil, testLogger(),
	)
	_, err := runner.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestQueueBudgetsAndCeilings(t *testing.T) {
	assert.Equal(t, 10*time.Minute, QueueBudget(QueueImageAnalysis))
	assert.Equal(t, 10*time.Minute, QueueBudget(QueueAnswerGeneration))
	assert.Equal(t, 15*time.Minute, QueueBudget(QueueFullQuery))
	assert.Equal(t, 300*time.Second, AwaitCeiling(QueueImageAnalysis))
	assert.Equal(t, 900*time.Second, AwaitCeiling(QueueFullQuery))
}
