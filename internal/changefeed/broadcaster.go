package changefeed

import (
	"context"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"

	"github.com/rs/zerolog/log"
)

const (
	minResubscribeBackoff = 100 * time.Millisecond
	maxResubscribeBackoff = 30 * time.Second
)

// Broadcaster follows every watched collection on a Bus, sanitizes each
// change and hands it to a Publisher.
type Broadcaster struct {
	bus        Bus
	pub        Publisher
	minBackoff time.Duration
	maxBackoff time.Duration
	timeout    time.Duration
}

func NewBroadcaster(bus Bus, pub Publisher) *Broadcaster {
	return &Broadcaster{
		bus:        bus,
		pub:        pub,
		minBackoff: minResubscribeBackoff,
		maxBackoff: maxResubscribeBackoff,
		timeout:    5 * time.Second,
	}
}

// Run blocks until ctx is canceled. One goroutine watches each collection and
// re-subscribes with exponential backoff when its subscription is torn down.
func (b *Broadcaster) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, coll := range Watched {
		wg.Add(1)
		go func(coll Collection) {
			defer wg.Done()
			b.watch(ctx, coll)
		}(coll)
	}
	log.Info().Int("collections", len(Watched)).Msg("changefeed: broadcaster started")
	wg.Wait()
	log.Info().Msg("changefeed: broadcaster stopped")
}

func (b *Broadcaster) watch(ctx context.Context, coll Collection) {
	backoff := b.minBackoff
	for {
		started := time.Now()
		sub := b.bus.Subscribe(coll, func(c Change) { b.handle(ctx, c) })

		select {
		case <-ctx.Done():
			sub.Unsubscribe()
			return
		case <-sub.Done():
		}

		if time.Since(started) > b.maxBackoff {
			backoff = b.minBackoff
		}
		log.Warn().Str("collection", string(coll)).Dur("retry_in", backoff).Msg("changefeed: subscription lost, resubscribing")

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > b.maxBackoff {
			backoff = b.maxBackoff
		}
	}
}

func (b *Broadcaster) handle(ctx context.Context, c Change) {
	ev, ok := Sanitize(c)
	if !ok {
		return
	}
	pctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if err := b.pub.Publish(pctx, ev); err != nil {
		metrics.RecordFeedEvent(ev.Name, "failed")
		log.Error().Err(err).Str("event", ev.Name).Msg("changefeed: publish failed")
		return
	}
	metrics.RecordFeedEvent(ev.Name, "published")
}
