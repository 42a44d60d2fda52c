package changefeed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Publisher delivers an event to clients. Failures are reported, never retried.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// ── Redis Pub/Sub ────────────────────────────────────────────────────────────

type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, data).Err()
}

// ── AMQP fanout ──────────────────────────────────────────────────────────────

// AMQPSender is satisfied by *infra.AMQPFanout.
type AMQPSender interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

type AMQPPublisher struct {
	sender AMQPSender
}

func NewAMQPPublisher(sender AMQPSender) *AMQPPublisher {
	return &AMQPPublisher{sender: sender}
}

// Publish routes by event name so consumers can bind selectively.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.sender.Publish(ctx, ev.Name, data)
}

// ── Log only ─────────────────────────────────────────────────────────────────

type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	log.Info().Str("event", ev.Name).Interface("data", ev.Data).Msg("changefeed: event")
	return nil
}

// ── Combinators ──────────────────────────────────────────────────────────────

// MultiPublisher publishes to every target and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GuardedPublisher fails fast while the downstream is known to be unhealthy.
type GuardedPublisher struct {
	next Publisher
	cb   *infra.CircuitBreaker
}

func NewGuardedPublisher(next Publisher, cb *infra.CircuitBreaker) *GuardedPublisher {
	return &GuardedPublisher{next: next, cb: cb}
}

func (g *GuardedPublisher) Publish(ctx context.Context, ev Event) error {
	return g.cb.Execute(func() error { return g.next.Publish(ctx, ev) })
}

// State exposes the breaker state for the health endpoint.
func (g *GuardedPublisher) State() infra.CBState { return g.cb.State() }
