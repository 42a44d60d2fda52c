package worker

// dlq.go
// Jobs that keep failing are parked on dlq:<queue> with the reason of their
// last failure. ReplayDLQ moves them back once the cause is fixed.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DeadJob is one dead-lettered job.
type DeadJob struct {
	Queue  string    `json:"queue"`
	Job    Job       `json:"job"`
	Reason string    `json:"reason"`
	DeadAt time.Time `json:"dead_at"`
}

// deadLetter parks job on its queue's DLQ. Failures are logged only: the job
// is already lost to the main queue.
func deadLetter(ctx context.Context, rdb ListClient, queue string, job Job, reason string) {
	if !json.Valid(job.Payload) {
		job.Payload, _ = json.Marshal(string(job.Payload))
	}
	data, err := json.Marshal(DeadJob{Queue: queue, Job: job, Reason: reason, DeadAt: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to encode job")
		return
	}
	if err := rdb.LPush(ctx, DLQPrefix+queue, data).Err(); err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: push failed")
		return
	}
	log.Warn().
		Str("queue", queue).
		Str("type", job.Type).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("dlq: job dead-lettered")
}

// DLQLength returns the number of parked jobs for queue.
func DLQLength(ctx context.Context, rdb ListClient, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// ReplayDLQ moves up to limit parked jobs (oldest first) back onto queue with
// their attempt count reset. Entries that cannot be decoded stay parked.
// limit <= 0 replays everything.
func ReplayDLQ(ctx context.Context, rdb ListClient, queue string, limit int) (int, error) {
	key := DLQPrefix + queue
	var skipped []string
	replayed := 0
	defer func() {
		for _, raw := range skipped {
			if err := rdb.LPush(ctx, key, raw).Err(); err != nil {
				log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to restore undecodable entry")
			}
		}
	}()

	for limit <= 0 || replayed < limit {
		raw, err := rdb.RPop(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			return replayed, err
		}

		var dead DeadJob
		if err := json.Unmarshal([]byte(raw), &dead); err != nil || dead.Job.Type == "" {
			skipped = append(skipped, raw)
			continue
		}
		dead.Job.Attempts = 0
		if err := push(ctx, rdb, queue, dead.Job); err != nil {
			// Put it back where it was.
			_ = rdb.RPush(ctx, key, raw).Err()
			return replayed, err
		}
		replayed++
	}
	if replayed > 0 {
		log.Info().Str("queue", queue).Int("replayed", replayed).Msg("dlq: jobs replayed")
	}
	return replayed, nil
}
