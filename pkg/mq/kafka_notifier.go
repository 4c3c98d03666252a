package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// 事件名
const (
	EventListingSubmitted = "listing.submitted"
	EventListingFailed    = "listing.submission_failed"
)

const (
	defaultQueueSize    = 256
	defaultWriteTimeout = 5 * time.Second
)

var (
	ErrNotifierClosed = errors.New("notifier closed")
	ErrQueueFull      = errors.New("notify queue full")
)

// Config Kafka 配置，Brokers 为空时不发送
type Config struct {
	Brokers []string
	Topic   string
}

// Event 发往 Kafka 的消息体
type Event struct {
	Event      string      `json:"event"`
	UserID     string      `json:"user_id"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Notifier 用户事件通知
type Notifier interface {
	NotifyUser(ctx context.Context, userID, event string, data interface{}) error
	Close() error
}

// MessageWriter kafka.Writer 的最小接口，便于测试替换
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewNotifier 未配置 broker 或 topic 时返回空实现
func NewNotifier(cfg Config, log *zap.Logger) Notifier {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" {
		log.Info("kafka 未配置，提交通知已禁用")
		return NoopNotifier{}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           5 * time.Millisecond,
		WriteTimeout:           defaultWriteTimeout,
		MaxAttempts:            3,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaNotifier(w, log)
}

// ==================== Kafka 实现 ====================

// KafkaNotifier 以用户 ID 作为消息 key，同一用户的事件有序
// NotifyUser 只入队，由后台协程写 Kafka，不阻塞调用方；Close 时发完队列再退出
type KafkaNotifier struct {
	w            MessageWriter
	log          *zap.Logger
	now          func() time.Time
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	wg     sync.WaitGroup
}

// NewKafkaNotifier 使用给定 writer 创建通知器并启动发送协程
func NewKafkaNotifier(w MessageWriter, log *zap.Logger) *KafkaNotifier {
	n := &KafkaNotifier{
		w:            w,
		log:          log,
		now:          time.Now,
		writeTimeout: defaultWriteTimeout,
		queue:        make(chan kafka.Message, defaultQueueSize),
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *KafkaNotifier) NotifyUser(ctx context.Context, userID, event string, data interface{}) error {
	body, err := json.Marshal(Event{
		Event:      event,
		UserID:     userID,
		OccurredAt: n.now().UTC(),
		Data:       data,
	})
	if err != nil {
		return fmt.Errorf("序列化事件失败: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(userID),
		Value: body,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(event)},
		},
	}

	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return ErrNotifierClosed
	}
	select {
	case n.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: 事件 %s 被丢弃", ErrQueueFull, event)
	}
}

// run 逐条发送，每条有独立超时
func (n *KafkaNotifier) run() {
	defer n.wg.Done()
	for msg := range n.queue {
		ctx, cancel := context.WithTimeout(context.Background(), n.writeTimeout)
		err := n.w.WriteMessages(ctx, msg)
		cancel()

		event := string(msg.Headers[0].Value)
		if err != nil {
			n.log.Warn("发送事件失败", zap.String("event", event), zap.String("user_id", string(msg.Key)), zap.Error(err))
			continue
		}
		n.log.Debug("事件已发送", zap.String("event", event), zap.String("user_id", string(msg.Key)))
	}
}

// Close 停止接收，等待队列发完后关闭 writer
func (n *KafkaNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	n.wg.Wait()
	return n.w.Close()
}

// ==================== 空实现 ====================

// NoopNotifier 丢弃所有事件
type NoopNotifier struct{}

func (NoopNotifier) NotifyUser(context.Context, string, string, interface{}) error { return nil }
func (NoopNotifier) Close() error                                                   { return nil }
