package redis

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/raksha360/preparedness-hub/internal/infrastructure/messaging"
)

// PubSub adapts go-redis Pub/Sub to messaging.RedisClient.
type PubSub struct {
	client *Client

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewPubSub creates the adapter.
func NewPubSub(client *Client) *PubSub {
	return &PubSub{client: client}
}

var _ messaging.RedisClient = (*PubSub)(nil)

// Publish sends a message to a channel.
func (p *PubSub) Publish(ctx context.Context, channel string, message []byte) error {
	if channel == "" {
		return ErrKeyEmpty
	}
	return p.client.rdb.Publish(ctx, channel, message).Err()
}

// Subscribe subscribes to channels and forwards messages until ctx is done
// or the subscription is closed.
func (p *PubSub) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	sub := p.client.rdb.Subscribe(ctx, channels...)

	// Wait for the subscription confirmation so errors surface here.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	out := make(chan messaging.RedisMessage)
	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- messaging.RedisMessage{Channel: msg.Channel, Payload: msg.Payload}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes all subscriptions. The underlying client stays open.
func (p *PubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil
	return firstErr
}
