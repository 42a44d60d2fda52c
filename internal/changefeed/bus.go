// Package changefeed observes committed writes on products, orders and tables
// and pushes sanitized events to subscribers out of band.
package changefeed

import (
	"fmt"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Collection names a watched document collection.
type Collection string

const (
	Products Collection = "products"
	Orders   Collection = "orders"
	Tables   Collection = "tables"
)

// Watched lists every collection the broadcaster follows.
var Watched = []Collection{Products, Orders, Tables}

// Op is the kind of write that produced a change.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// Change is one committed write. Document is a private copy owned by the bus.
type Change struct {
	Collection Collection
	Op         Op
	Document   any
	At         time.Time
}

// Handler receives changes for a single subscription. A panicking handler
// tears its subscription down.
type Handler func(Change)

// Subscription is a live registration on a Bus.
type Subscription interface {
	// Done is closed once the subscription has been torn down.
	Done() <-chan struct{}
	Unsubscribe()
}

// Bus fans committed changes out to subscribers.
// Publish never blocks the writer.
type Bus interface {
	Publish(c Change)
	Subscribe(coll Collection, h Handler) Subscription
}

// ── LocalBus ─────────────────────────────────────────────────────────────────

const defaultBuffer = 256

// LocalBus is an in-process Bus. Each subscription owns a buffered channel and
// a goroutine; a full buffer drops the change.
type LocalBus struct {
	mu     sync.RWMutex
	subs   map[Collection]map[*localSub]struct{}
	buffer int
}

func NewLocalBus(buffer int) *LocalBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &LocalBus{subs: make(map[Collection]map[*localSub]struct{}), buffer: buffer}
}

type localSub struct {
	bus  *LocalBus
	coll Collection
	ch   chan Change
	done chan struct{}
	once sync.Once
}

func (s *localSub) Done() <-chan struct{} { return s.done }

func (s *localSub) Unsubscribe() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs[s.coll], s)
		s.bus.mu.Unlock()
		close(s.done)
	})
}

func (b *LocalBus) Subscribe(coll Collection, h Handler) Subscription {
	s := &localSub{bus: b, coll: coll, ch: make(chan Change, b.buffer), done: make(chan struct{})}
	b.mu.Lock()
	if b.subs[coll] == nil {
		b.subs[coll] = make(map[*localSub]struct{})
	}
	b.subs[coll][s] = struct{}{}
	b.mu.Unlock()

	go s.run(h)
	return s
}

func (s *localSub) run(h Handler) {
	for {
		select {
		case <-s.done:
			return
		case c := <-s.ch:
			if err := deliver(h, c); err != nil {
				log.Error().Err(err).Str("collection", string(s.coll)).Msg("changefeed: handler failed, dropping subscription")
				s.Unsubscribe()
				return
			}
		}
	}
}

func deliver(h Handler, c Change) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	h(c)
	return nil
}

func (b *LocalBus) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now().UTC()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs[c.Collection] {
		select {
		case s.ch <- c:
		default:
			metrics.RecordFeedEvent(string(c.Collection), "dropped")
			log.Warn().Str("collection", string(c.Collection)).Str("op", string(c.Op)).Msg("changefeed: subscriber buffer full, change dropped")
		}
	}
}
