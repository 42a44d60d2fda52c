package changefeed

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Stream hands published events to long-lived client connections (SSE).
// The returned channel is closed when ctx ends.
type Stream interface {
	Listen(ctx context.Context) (<-chan Event, error)
}

// ── Hub ──────────────────────────────────────────────────────────────────────

// Hub is an in-process Publisher and Stream. It is used when no broker is
// configured and in tests.
type Hub struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
	buffer    int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{listeners: make(map[chan Event]struct{}), buffer: buffer}
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("event", ev.Name).Msg("changefeed: slow listener, event dropped")
		}
	}
	return nil
}

func (h *Hub) Listen(ctx context.Context) (<-chan Event, error) {
	ch := make(chan Event, h.buffer)
	h.mu.Lock()
	h.listeners[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.listeners, ch)
		h.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

// ── Redis subscriber ─────────────────────────────────────────────────────────

// RedisStream relays the Pub/Sub channel written by RedisPublisher, so every
// replica's clients see every replica's events.
type RedisStream struct {
	rdb     *redis.Client
	channel string
}

func NewRedisStream(rdb *redis.Client, channel string) *RedisStream {
	return &RedisStream{rdb: rdb, channel: channel}
}

func (s *RedisStream) Listen(ctx context.Context) (<-chan Event, error) {
	ps := s.rdb.Subscribe(ctx, s.channel)
	// Wait for the subscription confirmation so errors surface to the caller.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan Event, 64)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Msg("changefeed: undecodable event on channel")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
