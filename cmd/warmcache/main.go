// Command warmcache warms the optical power cache for monitored ports,
// either inline or by enqueueing tasks for the worker pool. Useful right
// after a deploy, before user traffic arrives.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mapspro/mapspro/cache"
	"github.com/mapspro/mapspro/internal/config"
	"github.com/mapspro/mapspro/internal/jobs"
	"github.com/mapspro/mapspro/internal/warm"
	"github.com/mapspro/mapspro/inventory"
	"github.com/mapspro/mapspro/zabbix"
)

func main() {
	deviceID := flag.Int64("device-id", 0, "limit warming to one device")
	async := flag.Bool("async", false, "enqueue tasks for the worker instead of warming inline")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error:", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database:", err)
	}
	defer pool.Close()
	store := inventory.NewStore(pool)

	ports, err := store.ListPorts(ctx, *deviceID)
	if err != nil {
		log.Fatal("list ports:", err)
	}
	if len(ports) == 0 {
		log.Println("no monitored ports found")
		return
	}

	if *async {
		client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = client.Close() }()

		queued := 0
		for _, port := range ports {
			payload, err := json.Marshal(jobs.WarmPortPayload{PortID: port.ID})
			if err != nil {
				continue
			}
			if _, err := client.EnqueueContext(ctx, asynq.NewTask(jobs.TaskWarmPort, payload), asynq.Queue("warm")); err != nil {
				log.Printf("enqueue port=%d: %v", port.ID, err)
				continue
			}
			queued++
		}
		log.Printf("enqueued %d of %d port warm tasks", queued, len(ports))
		return
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	sc := cache.NewSafe(cache.NewRedisBackend(rdb), logger)
	zbx := zabbix.NewClient(cfg.Zabbix.URL, cfg.Zabbix.User, cfg.Zabbix.Password)

	byID := make(map[int64]inventory.Port, len(ports))
	ids := make([]int64, 0, len(ports))
	for _, port := range ports {
		byID[port.ID] = port
		ids = append(ids, port.ID)
	}

	sum := warm.All(ctx, sc, logger, ids, cache.PortOpticalKey, cfg.CacheTTL,
		func(ctx context.Context, id int64) (zabbix.Snapshot, error) {
			port := byID[id]
			return zbx.PortOpticalSnapshot(ctx, port.HostID, port.Name, port.RXItemKey, port.TXItemKey)
		})
	log.Printf("cache warmed: %d ok, %d failed", sum.Warmed, sum.Failed)
}
