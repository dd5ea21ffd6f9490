package queue

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newJob(id string, op Operation) *Job {
	job := &Job{
		ID:          id,
		Operation:   op,
		BlockHandle: "block",
		KeyHandle:   "key",
	}
	if op == OpKeySwitch {
		job.NewKeyHandle = "key2"
	}
	return job
}

func TestJobValidate(t *testing.T) {
	require.NoError(t, newJob("a", OpEncrypt).Validate())
	require.NoError(t, newJob("a", OpKeySwitch).Validate())

	require.ErrorIs(t, (&Job{}).Validate(), ErrInvalidJob)
	require.ErrorIs(t, (&Job{ID: "a", BlockHandle: "b"}).Validate(), ErrInvalidJob)

	ks := newJob("a", OpKeySwitch)
	ks.NewKeyHandle = ""
	require.ErrorIs(t, ks.Validate(), ErrInvalidJob)

	require.ErrorIs(t, newJob("a", Operation(9)).Validate(), ErrUnknownOp)
	require.Equal(t, "keyswitch", OpKeySwitch.String())
	require.Equal(t, "failed", StatusFailed.String())
}

// testQueue exercises a queue that starts empty.
func testQueue(t *testing.T, q Queue) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, q.Push(ctx, newJob("job-1", OpEncrypt)))
	require.NoError(t, q.Push(ctx, newJob("job-2", OpKeySwitch)))

	first, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, "job-1", first.ID)
	require.Equal(t, StatusPending, first.Status)

	first.Status = StatusCompleted
	first.ResultHandle = "result"
	require.NoError(t, q.Update(ctx, first))

	got, err := q.Get(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, got.Status)
	require.Equal(t, "result", got.ResultHandle)

	second, err := q.Pop(ctx)
	require.NoError(t, err)
	require.Equal(t, OpKeySwitch, second.Operation)

	_, err = q.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrJobNotFound)

	require.ErrorIs(t, q.Push(ctx, &Job{ID: "bad"}), ErrInvalidJob)

	short, cancelShort := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancelShort()
	_, err = q.Pop(short)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMemoryQueue(t *testing.T) {
	q := NewMemoryQueue(8)
	testQueue(t, q)

	require.NoError(t, q.Close())
	_, err := q.Pop(context.Background())
	require.ErrorIs(t, err, ErrQueueClosed)
	require.ErrorIs(t, q.Push(context.Background(), newJob("late", OpDecrypt)), ErrQueueClosed)
}

func TestRedisQueue(t *testing.T) {
	addr := os.Getenv("CRYPTOBIT_REDIS_ADDR")
	if addr == "" {
		t.Skip("CRYPTOBIT_REDIS_ADDR not set")
	}

	q, err := NewRedisQueue(RedisConfig{Addr: addr}, "test-"+time.Now().Format("150405.000000"))
	require.NoError(t, err)
	defer q.Close()

	testQueue(t, q)
}
