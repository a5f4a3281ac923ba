package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/pkg/logger"
)

// DefaultRedisChannel is the pub/sub channel shared by all instances.
const DefaultRedisChannel = "visitors:realtime"

const publishTimeout = 5 * time.Second

// redisEnvelope is the payload exchanged between instances.
type redisEnvelope struct {
	Origin string          `json:"origin"`
	Stream string          `json:"stream"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Meta   map[string]any  `json:"meta,omitempty"`
	At     int64           `json:"at"`
}

// RedisBridge delivers messages to the local hub and relays them to other
// instances through Redis pub/sub. Messages received from Redis are
// broadcast locally unless this instance published them.
type RedisBridge struct {
	client  redis.UniversalClient
	hub     *Hub
	channel string
	origin  string
	log     *zap.Logger

	mu     sync.Mutex
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisBridge creates a bridge publishing on channel (DefaultRedisChannel when empty).
func NewRedisBridge(client redis.UniversalClient, hub *Hub, channel string) *RedisBridge {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisBridge{
		client:  client,
		hub:     hub,
		channel: channel,
		origin:  uuid.NewString(),
		log:     logger.WithModule("realtime.redis"),
	}
}

// Start subscribes to the channel and relays remote messages until ctx is
// cancelled or Close is called.
func (b *RedisBridge) Start(ctx context.Context) error {
	if b.client == nil {
		return errors.New("redis bridge: client is required")
	}

	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		cancel()
		_ = pubsub.Close()
		return fmt.Errorf("redis bridge: subscribe %s: %w", b.channel, err)
	}

	done := make(chan struct{})
	b.mu.Lock()
	b.pubsub = pubsub
	b.cancel = cancel
	b.done = done
	b.mu.Unlock()

	ch := pubsub.Channel()
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				b.handlePayload([]byte(msg.Payload))
			}
		}
	}()

	b.log.Info("redis bridge subscribed", zap.String("channel", b.channel))
	return nil
}

// Publish broadcasts locally, then relays the message to other instances.
func (b *RedisBridge) Publish(ctx context.Context, stream string, message Message) error {
	b.hub.BroadcastStream(stream, message)

	body, err := b.encode(stream, message)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := b.client.Publish(ctx, b.channel, body).Err(); err != nil {
		return fmt.Errorf("redis bridge: publish: %w", err)
	}
	return nil
}

// Close stops the subscription loop and releases the pub/sub connection.
func (b *RedisBridge) Close() error {
	b.mu.Lock()
	pubsub, cancel, done := b.pubsub, b.cancel, b.done
	b.pubsub, b.cancel, b.done = nil, nil, nil
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done

	ctx, stop := context.WithTimeout(context.Background(), publishTimeout)
	defer stop()
	return multierr.Combine(
		pubsub.Unsubscribe(ctx, b.channel),
		pubsub.Close(),
	)
}

func (b *RedisBridge) encode(stream string, message Message) ([]byte, error) {
	env := redisEnvelope{
		Origin: b.origin,
		Stream: normalizeStream(stream),
		Event:  message.Event,
		Meta:   message.Meta,
		At:     time.Now().Unix(),
	}
	if message.Data != nil {
		data, err := json.Marshal(message.Data)
		if err != nil {
			return nil, fmt.Errorf("redis bridge: marshal data: %w", err)
		}
		env.Data = data
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("redis bridge: marshal envelope: %w", err)
	}
	return body, nil
}

func (b *RedisBridge) handlePayload(payload []byte) {
	var env redisEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		b.log.Debug("discarding malformed payload", zap.Error(err))
		return
	}
	if env.Origin == b.origin || env.Stream == "" {
		return
	}

	msg := Message{Event: env.Event, Meta: env.Meta}
	if len(env.Data) > 0 {
		msg.Data = env.Data
	}
	b.hub.BroadcastStream(env.Stream, msg)
}
