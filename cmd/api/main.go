// cmd/api/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/mapspro/mapspro/cache"
	"github.com/mapspro/mapspro/internal/config"
	"github.com/mapspro/mapspro/internal/http/routes"
	"github.com/mapspro/mapspro/inventory"
	"github.com/mapspro/mapspro/ratelimit"
	"github.com/mapspro/mapspro/zabbix"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	log.Printf("starting api on :%s", cfg.Port)

	// DB
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()
	ports := inventory.NewStore(pool)

	// Cache. Short timeouts keep a degraded Redis from stalling requests;
	// the facade turns any failure into a miss.
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  500 * time.Millisecond,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
	sc := cache.NewSafe(cache.NewRedisBackend(rdb), logger)

	// Monitoring server
	zbx := zabbix.NewClient(cfg.Zabbix.URL, cfg.Zabbix.User, cfg.Zabbix.Password)

	// Task queue
	queue := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() { _ = queue.Close() }()

	// Sessions
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode

	// Router / server
	s := routes.New(routes.ServerOptions{
		Sess:  sess,
		Cache: sc,
		Ports: ports,
		Zbx:   zbx,
		Gate:  ratelimit.NewGate(sc, logger),
		Queue: queue,
		Cfg:   cfg,
		Log:   logger,
	})
	h := hlog.NewHandler(logger)(s.Router)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: sess.LoadAndSave(h)}
	log.Fatal(srv.ListenAndServe())
}
