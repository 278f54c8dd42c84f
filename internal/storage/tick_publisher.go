package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/lumina-dashboard/internal/logging"
	"github.com/lumina-dashboard/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultTickChannel is the pub/sub channel ticks are published on
const DefaultTickChannel = "market:ticks"

// TickPublisher fans market ticks out over Redis pub/sub. Nothing is stored.
type TickPublisher struct {
	cache   *RedisCache
	channel string
	logger  *logging.Logger

	published atomic.Uint64
	failed    atomic.Uint64
}

// NewTickPublisher creates a publisher on channel
func NewTickPublisher(cache *RedisCache, channel string, logger *logging.Logger) *TickPublisher {
	if channel == "" {
		channel = DefaultTickChannel
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &TickPublisher{
		cache:   cache,
		channel: channel,
		logger:  logger.WithFields(map[string]interface{}{"component": "tick_publisher", "channel": channel}),
	}
}

// OnTick publishes the tick as JSON. Failures are logged and dropped.
func (p *TickPublisher) OnTick(ctx context.Context, tick models.MarketTick) {
	if err := p.Publish(ctx, tick); err != nil {
		p.failed.Add(1)
		p.logger.WithError(err).WithField("sequence", tick.Sequence).Warn("failed to publish tick")
		return
	}
	p.published.Add(1)
}

// Publish sends one tick and returns the error, if any
func (p *TickPublisher) Publish(ctx context.Context, tick models.MarketTick) error {
	payload, err := json.Marshal(tick)
	if err != nil {
		return fmt.Errorf("failed to encode tick: %w", err)
	}
	return p.cache.Client().Publish(ctx, p.channel, payload).Err()
}

// Counts returns how many ticks were published and how many failed
func (p *TickPublisher) Counts() (published, failed uint64) {
	return p.published.Load(), p.failed.Load()
}

// TickSubscription receives ticks published on a channel
type TickSubscription struct {
	pubsub *redis.PubSub
	ticks  chan models.MarketTick
}

// SubscribeTicks subscribes to channel and decodes each message into a tick.
// The returned channel closes when ctx is done or the subscription is closed.
func SubscribeTicks(ctx context.Context, cache *RedisCache, channel string) (*TickSubscription, error) {
	if channel == "" {
		channel = DefaultTickChannel
	}

	pubsub := cache.Client().Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &TickSubscription{pubsub: pubsub, ticks: make(chan models.MarketTick)}
	go sub.forward(ctx)
	return sub, nil
}

// Ticks returns the decoded tick stream
func (s *TickSubscription) Ticks() <-chan models.MarketTick {
	return s.ticks
}

// Close ends the subscription
func (s *TickSubscription) Close() error {
	return s.pubsub.Close()
}

func (s *TickSubscription) forward(ctx context.Context) {
	defer close(s.ticks)

	msgs := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var tick models.MarketTick
			if err := json.Unmarshal([]byte(msg.Payload), &tick); err != nil {
				logging.WithError(err).Warn("dropping undecodable tick")
				continue
			}
			select {
			case s.ticks <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}
