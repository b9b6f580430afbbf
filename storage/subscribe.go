package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"taskboard/domain"
)

var errNoRedis = errors.New("redis is not configured")

// Subscribe streams the changes published for projectID until ctx ends. The
// returned channel is closed when the subscription stops.
func (c *Cache) Subscribe(ctx context.Context, projectID string) (<-chan []byte, error) {
	if c.redis == nil {
		return nil, errNoRedis
	}
	sub, err := confirmed(ctx, c.redis.Subscribe(ctx, BoardChannel(projectID)))
	if err != nil {
		return nil, err
	}
	out := make(chan []byte)
	go forward(ctx, sub, out, func(msg *redis.Message) ([]byte, bool) {
		return []byte(msg.Payload), true
	})
	return out, nil
}

// SubscribeChanges streams the decoded changes of every project until ctx
// ends. Payloads that do not decode are skipped.
func (c *Cache) SubscribeChanges(ctx context.Context) (<-chan domain.Change, error) {
	if c.redis == nil {
		return nil, errNoRedis
	}
	sub, err := confirmed(ctx, c.redis.PSubscribe(ctx, BoardChannel("*")))
	if err != nil {
		return nil, err
	}
	out := make(chan domain.Change)
	go forward(ctx, sub, out, func(msg *redis.Message) (domain.Change, bool) {
		var change domain.Change
		if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
			return domain.Change{}, false
		}
		return change, true
	})
	return out, nil
}

// confirmed waits for the subscription confirmation so no publish is missed.
func confirmed(ctx context.Context, sub *redis.PubSub) (*redis.PubSub, error) {
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}
	return sub, nil
}

func forward[T any](ctx context.Context, sub *redis.PubSub, out chan<- T, decode func(*redis.Message) (T, bool)) {
	defer close(out)
	defer sub.Close()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			v, ok := decode(msg)
			if !ok {
				continue
			}
			select {
			case out <- v:
			case <-ctx.Done():
				return
			}
		}
	}
}
