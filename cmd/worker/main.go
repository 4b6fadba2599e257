package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
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
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config error:", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal("unable to connect to database:", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})

	w := &worker{
		store:  inventory.NewStore(pool),
		cache:  cache.NewSafe(cache.NewRedisBackend(rdb), logger),
		zbx:    zabbix.NewClient(cfg.Zabbix.URL, cfg.Zabbix.User, cfg.Zabbix.Password),
		client: asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr}),
		ttl:    cfg.CacheTTL,
		log:    logger,
	}
	defer func() { _ = w.client.Close() }()

	// Periodic warm-all keeps optical snapshots from expiring before user
	// traffic arrives.
	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, nil)
	spec := fmt.Sprintf("@every %s", cfg.PrewarmInterval)
	if _, err := scheduler.Register(spec, asynq.NewTask(jobs.TaskWarmAll, nil), asynq.Queue("warm")); err != nil {
		log.Fatal("register prewarm schedule:", err)
	}
	go func() {
		if err := scheduler.Run(); err != nil {
			log.Fatal("scheduler:", err)
		}
	}()

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency:    8,
		StrictPriority: false,
		Queues: map[string]int{
			"warm":    10, // higher priority
			"default": 5,  // default priority
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(jobs.TaskWarmPort, w.handleWarmPort)
	mux.HandleFunc(jobs.TaskWarmAll, w.handleWarmAll)

	log.Println("Worker running...")
	log.Fatal(srv.Run(mux))
}

type worker struct {
	store  *inventory.Store
	cache  *cache.Safe
	zbx    *zabbix.Client
	client *asynq.Client
	ttl    time.Duration
	log    zerolog.Logger
}

func (w *worker) handleWarmPort(ctx context.Context, t *asynq.Task) error {
	var p jobs.WarmPortPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		log.Printf("[warm] bad payload: %v", err)
		return nil // malformed payloads never succeed, drop them
	}

	start := time.Now()
	err := w.warmPort(ctx, p.PortID)
	duration := time.Since(start)

	if err != nil {
		if isRetryableError(err) {
			log.Printf("[warm] retryable error port=%d duration=%v: %v", p.PortID, duration, err)
			return err // allow retry
		}
		log.Printf("[warm] permanent error port=%d duration=%v: %v (dropping job)", p.PortID, duration, err)
		return nil // don't retry permanent failures
	}
	log.Printf("[warm] done port=%d duration=%v", p.PortID, duration)
	return nil
}

// handleWarmAll warms one device's ports inline when a device id is given,
// otherwise fans out a per-port task so the pool spreads the work.
func (w *worker) handleWarmAll(ctx context.Context, t *asynq.Task) error {
	var p jobs.WarmAllPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			log.Printf("[warm] bad payload: %v", err)
			return nil
		}
	}

	if p.DeviceID != 0 {
		ports, err := w.store.ListPorts(ctx, p.DeviceID)
		if err != nil {
			return err
		}
		byID := make(map[int64]inventory.Port, len(ports))
		ids := make([]int64, 0, len(ports))
		for _, port := range ports {
			byID[port.ID] = port
			ids = append(ids, port.ID)
		}
		sum := warm.All(ctx, w.cache, w.log, ids, cache.PortOpticalKey, w.ttl,
			func(ctx context.Context, id int64) (zabbix.Snapshot, error) {
				return w.snapshot(ctx, byID[id])
			})
		log.Printf("[warm] device=%d warmed=%d failed=%d", p.DeviceID, sum.Warmed, sum.Failed)
		return nil
	}

	ids, err := w.store.ListPortIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		payload, err := json.Marshal(jobs.WarmPortPayload{PortID: id})
		if err != nil {
			continue
		}
		if _, err := w.client.EnqueueContext(ctx, asynq.NewTask(jobs.TaskWarmPort, payload), asynq.Queue("warm")); err != nil {
			log.Printf("[warm] enqueue port=%d: %v", id, err)
		}
	}
	log.Printf("[warm] fanned out %d port tasks", len(ids))
	return nil
}

func (w *worker) warmPort(ctx context.Context, portID int64) error {
	port, err := w.store.GetPort(ctx, portID)
	if errors.Is(err, inventory.ErrNotFound) {
		log.Printf("[warm] port=%d no longer exists, skipping", portID)
		return nil
	}
	if err != nil {
		return err
	}

	snap, err := cache.GetOrCompute(ctx, w.cache, cache.PortOpticalKey(portID), w.ttl, func(ctx context.Context) (zabbix.Snapshot, error) {
		return w.snapshot(ctx, port)
	})
	if err != nil {
		return err
	}

	if snap.KeysDiscovered {
		if err := w.store.UpdateOpticalKeys(ctx, portID, snap.RXKey, snap.TXKey); err != nil {
			log.Printf("[warm] could not persist discovered keys port=%d: %v", portID, err)
		}
	}
	return nil
}

func (w *worker) snapshot(ctx context.Context, port inventory.Port) (zabbix.Snapshot, error) {
	return w.zbx.PortOpticalSnapshot(ctx, port.HostID, port.Name, port.RXItemKey, port.TXItemKey)
}

// isRetryableError determines if an error should trigger a job retry
func isRetryableError(err error) bool {
	errStr := strings.ToLower(err.Error())

	// Network/connectivity issues - should retry
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "dns") {
		return true
	}

	// Temporary server errors - should retry
	if strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "504") {
		return true
	}

	// Expired sessions refresh on the next attempt
	if strings.Contains(errStr, "session terminated") ||
		strings.Contains(errStr, "not authorised") {
		return true
	}

	// Everything else (bad config, missing host, etc.) - don't retry
	return false
}
