package mq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	block  bool // 阻塞直到 ctx 结束，模拟 broker 不可达
	closed bool
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.block {
		<-ctx.Done()
		return ctx.Err()
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestKafkaNotifier_NotifyUser(t *testing.T) {
	w := &fakeWriter{}
	n := NewKafkaNotifier(w, zap.NewNop())
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	err := n.NotifyUser(context.Background(), "user-7", EventListingSubmitted, map[string]string{"listing_id": "l-1"})
	require.NoError(t, err)
	// Close 会等待队列发完
	require.NoError(t, n.Close())
	assert.True(t, w.closed)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "user-7", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventListingSubmitted, string(msg.Headers[0].Value))

	var evt struct {
		Event      string            `json:"event"`
		UserID     string            `json:"user_id"`
		OccurredAt time.Time         `json:"occurred_at"`
		Data       map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg.Value, &evt))
	assert.Equal(t, EventListingSubmitted, evt.Event)
	assert.True(t, fixed.Equal(evt.OccurredAt))
	assert.Equal(t, "l-1", evt.Data["listing_id"])

	assert.ErrorIs(t, n.NotifyUser(context.Background(), "user-7", EventListingSubmitted, nil), ErrNotifierClosed)
	assert.NoError(t, n.Close())
}

func TestKafkaNotifier_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	n := NewKafkaNotifier(w, zap.NewNop())

	// 写失败只记日志，不影响调用方
	require.NoError(t, n.NotifyUser(context.Background(), "u", EventListingFailed, nil))
	require.NoError(t, n.Close())
	assert.Empty(t, w.msgs)
}

func TestKafkaNotifier_UnreachableBrokerDoesNotBlockCaller(t *testing.T) {
	w := &fakeWriter{block: true}
	n := NewKafkaNotifier(w, zap.NewNop())
	n.writeTimeout = 50 * time.Millisecond

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, n.NotifyUser(context.Background(), "u", EventListingSubmitted, nil))
	}
	assert.Less(t, time.Since(start), 40*time.Millisecond, "NotifyUser 不应等待 broker")

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

func TestKafkaNotifier_QueueFull(t *testing.T) {
	w := &fakeWriter{block: true}
	n := NewKafkaNotifier(w, zap.NewNop())
	n.writeTimeout = time.Millisecond

	var full error
	for i := 0; i < defaultQueueSize*4; i++ {
		if err := n.NotifyUser(context.Background(), "u", EventListingSubmitted, nil); err != nil {
			full = err
			break
		}
	}
	assert.ErrorIs(t, full, ErrQueueFull)
	require.NoError(t, n.Close())
}

func TestNewNotifier_UnconfiguredIsNoop(t *testing.T) {
	n := NewNotifier(Config{}, zap.NewNop())
	_, ok := n.(NoopNotifier)
	assert.True(t, ok)
	assert.NoError(t, n.NotifyUser(context.Background(), "u", EventListingSubmitted, nil))
	assert.NoError(t, n.Close())
}
