// cmd/dlq inspects and replays dead-lettered jobs.
// Usage: go run ./cmd/dlq [-replay] [-queue jobs:register_sale] [-max 0]
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/config"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/infra"
	"github.com/reginaldo-miranda/barAppAdmin-sub000/internal/worker"

	"github.com/rs/zerolog/log"
)

func main() {
	queue := flag.String("queue", "", "queue to act on (default: all)")
	replay := flag.Bool("replay", false, "move parked jobs back onto their queue")
	limit := flag.Int("max", 0, "replay at most this many jobs per queue (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	ctx := context.Background()
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if rdb == nil {
		log.Fatal().Msg("REDIS_URL is not set")
	}
	defer rdb.Close()

	queues := worker.Queues
	if *queue != "" {
		queues = []string{*queue}
	}
	for _, q := range queues {
		if *replay {
			n, err := worker.ReplayDLQ(ctx, rdb, q, *limit)
			if err != nil {
				log.Fatal().Err(err).Str("queue", q).Msg("replay failed")
			}
			fmt.Printf("%s: replayed %d\n", q, n)
			continue
		}
		n, err := worker.DLQLength(ctx, rdb, q)
		if err != nil {
			log.Fatal().Err(err).Str("queue", q).Msg("failed to read dlq")
		}
		fmt.Printf("%s: %d parked\n", q, n)
	}
}
