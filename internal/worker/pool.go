package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	QueueRegisterSale  = "jobs:register_sale"
	QueueClosingReport = "jobs:closing_report"

	// MaxJobAttempts is how many times a job runs before it is dead-lettered.
	MaxJobAttempts = 3
)

// Queues lists every queue the pool consumes, in priority order.
var Queues = []string{QueueRegisterSale, QueueClosingReport}

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Handler processes one job payload. A returned error schedules a retry.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// Handlers maps a queue name to the handler consuming it.
type Handlers map[string]Handler

// ListClient is the subset of the Redis client the queue needs.
// *redis.Client satisfies it.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
	LLen(ctx context.Context, key string) *redis.IntCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	RPop(ctx context.Context, key string) *redis.StringCmd
}

// ── Dispatcher ───────────────────────────────────────────────────────────────

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb ListClient
}

func NewDispatcher(rdb ListClient) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// RegisterSalePayload asks a worker to record a finalized order on the open
// register.
type RegisterSalePayload struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
}

// ClosingReportPayload asks a worker to render and mail a closing report.
type ClosingReportPayload struct {
	RegisterID string `json:"register_id"`
}

func (d *Dispatcher) EnqueueRegisterSale(ctx context.Context, orderID uuid.UUID, amount decimal.Decimal, method string) error {
	return d.enqueue(ctx, QueueRegisterSale, "register_sale", RegisterSalePayload{
		OrderID:       orderID.String(),
		Amount:        amount,
		PaymentMethod: method,
	})
}

func (d *Dispatcher) EnqueueClosingReport(ctx context.Context, registerID uuid.UUID) error {
	return d.enqueue(ctx, QueueClosingReport, "closing_report", ClosingReportPayload{RegisterID: registerID.String()})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return push(ctx, d.rdb, queue, Job{Type: jobType, Payload: data})
}

func push(ctx context.Context, rdb ListClient, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// ── Pool ─────────────────────────────────────────────────────────────────────

// StartWorkerPool launches numWorkers goroutines consuming every queue that
// has a handler. The returned WaitGroup is done once all of them have exited
// after ctx is canceled.
func StartWorkerPool(ctx context.Context, rdb ListClient, handlers Handlers, numWorkers int) *sync.WaitGroup {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	var queues []string
	for _, q := range Queues {
		if _, ok := handlers[q]; ok {
			queues = append(queues, q)
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runWorker(ctx, rdb, handlers, queues, id)
		}(i)
	}
	log.Info().Int("workers", numWorkers).Strs("queues", queues).Msg("worker pool started")
	return &wg
}

func runWorker(ctx context.Context, rdb ListClient, handlers Handlers, queues []string, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Int("worker", id).Msg("worker shutting down")
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

// processJob runs one job. Failures are re-queued with an incremented attempt
// count until MaxJobAttempts, then dead-lettered.
func processJob(ctx context.Context, rdb ListClient, handlers Handlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		deadLetter(ctx, rdb, queue, Job{Type: "unknown", Payload: json.RawMessage(raw)}, "undecodable job: "+err.Error())
		metrics.RecordJob(queue, "dead")
		return
	}

	h, ok := handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}

	job.Attempts++
	err := h.Process(ctx, job.Payload)
	if err == nil {
		metrics.RecordJob(queue, "done")
		log.Debug().Str("queue", queue).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job processed")
		return
	}

	if job.Attempts >= MaxJobAttempts {
		metrics.RecordJob(queue, "dead")
		deadLetter(ctx, rdb, queue, job, err.Error())
		return
	}

	metrics.RecordJob(queue, "retry")
	log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, re-queued")
	if perr := push(ctx, rdb, queue, job); perr != nil {
		log.Error().Err(perr).Str("queue", queue).Msg("failed to re-queue job")
	}
}
