package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/mapspro/mapspro/cache"
	"github.com/mapspro/mapspro/internal/config"
	appmw "github.com/mapspro/mapspro/internal/http/middleware"
	"github.com/mapspro/mapspro/internal/jobs"
	"github.com/mapspro/mapspro/inventory"
	"github.com/mapspro/mapspro/ratelimit"
	"github.com/mapspro/mapspro/zabbix"
)

// PortSource is the slice of the inventory store the handlers need.
type PortSource interface {
	GetPort(ctx context.Context, id int64) (inventory.Port, error)
	UpdateOpticalKeys(ctx context.Context, portID int64, rxKey, txKey string) error
}

// SnapshotFetcher reads optical power from the monitoring server.
type SnapshotFetcher interface {
	PortOpticalSnapshot(ctx context.Context, hostID, portName, rxKey, txKey string) (zabbix.Snapshot, error)
}

// TaskEnqueuer is the asynq client surface used by the warm endpoints.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type Server struct {
	Router *chi.Mux
	Sess   *scs.SessionManager
	Cache  *cache.Safe
	Ports  PortSource
	Zbx    SnapshotFetcher
	Gate   *ratelimit.Gate
	Queue  TaskEnqueuer
	Cfg    config.Config
	Log    zerolog.Logger
}

type ServerOptions struct {
	Sess  *scs.SessionManager
	Cache *cache.Safe
	Ports PortSource
	Zbx   SnapshotFetcher
	Gate  *ratelimit.Gate
	Queue TaskEnqueuer
	Cfg   config.Config
	Log   zerolog.Logger
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	s := &Server{Router: r, Sess: opts.Sess, Cache: opts.Cache, Ports: opts.Ports, Zbx: opts.Zbx, Gate: opts.Gate, Queue: opts.Queue, Cfg: opts.Cfg, Log: opts.Log}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			s.Log.Debug().Err(err).Msg("error writing health check response")
		}
	})

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/ports/{portID}/optical", s.handlePortOptical)
		ar.Delete("/ports/{portID}/optical", s.handleInvalidateOptical)

		ar.Group(func(pr chi.Router) {
			pr.Use(appmw.RateLimit(s.Gate, s.actor, "enqueue_warm", s.Cfg.RateLimitMax, s.Cfg.RateLimitWindow))
			pr.Post("/ports/{portID}/warm", s.handleWarmPort)
			pr.Post("/warm", s.handleWarmAll)
		})
	})

	return s
}

// actor is the rate-limit identity of a request: the session user when one
// is logged in, the client IP otherwise.
func (s *Server) actor(r *http.Request) string {
	if s.Sess != nil {
		if user := s.Sess.GetString(r.Context(), "user"); user != "" {
			return user
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// handlePortOptical serves a port's optical power snapshot, cached under
// port:<id>:optical for the configured TTL. A degraded cache backend turns
// every request into a monitoring-server query; a failing monitoring
// server stays visible as a 502.
func (s *Server) handlePortOptical(w http.ResponseWriter, r *http.Request) {
	portID, err := strconv.ParseInt(chi.URLParam(r, "portID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port id")
		return
	}

	ctx := r.Context()
	port, err := s.Ports.GetPort(ctx, portID)
	if errors.Is(err, inventory.ErrNotFound) {
		writeError(w, http.StatusNotFound, "port not found")
		return
	}
	if err != nil {
		s.Log.Error().Int64("port", portID).Err(err).Msg("inventory lookup failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	snap, err := cache.GetOrCompute(ctx, s.Cache, cache.PortOpticalKey(portID), s.Cfg.CacheTTL, func(ctx context.Context) (zabbix.Snapshot, error) {
		return s.Zbx.PortOpticalSnapshot(ctx, port.HostID, port.Name, port.RXItemKey, port.TXItemKey)
	})
	if err != nil {
		s.Log.Warn().Int64("port", portID).Err(err).Msg("optical snapshot fetch failed")
		writeError(w, http.StatusBadGateway, "monitoring server unavailable")
		return
	}

	if snap.KeysDiscovered {
		// Best-effort: persisting discovered keys only spares future discovery.
		if err := s.Ports.UpdateOpticalKeys(ctx, portID, snap.RXKey, snap.TXKey); err != nil {
			s.Log.Debug().Int64("port", portID).Err(err).Msg("could not persist discovered item keys")
		}
	}

	writeJSON(w, http.StatusOK, snap)
}

// handleInvalidateOptical drops a port's cached snapshot so the next read
// recomputes, e.g. after a fiber splice.
func (s *Server) handleInvalidateOptical(w http.ResponseWriter, r *http.Request) {
	portID, err := strconv.ParseInt(chi.URLParam(r, "portID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port id")
		return
	}

	s.Cache.SafeDelete(r.Context(), cache.PortOpticalKey(portID))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWarmPort(w http.ResponseWriter, r *http.Request) {
	portID, err := strconv.ParseInt(chi.URLParam(r, "portID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid port id")
		return
	}

	payload, err := json.Marshal(jobs.WarmPortPayload{PortID: portID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	opID := uuid.NewString()
	if _, err := s.Queue.EnqueueContext(r.Context(), asynq.NewTask(jobs.TaskWarmPort, payload), asynq.Queue("warm")); err != nil {
		s.Log.Error().Str("op", opID).Int64("port", portID).Err(err).Msg("enqueue warm task failed")
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	s.Log.Info().Str("op", opID).Str("actor", s.actor(r)).Str("action", "enqueue_warm").Int64("port", portID).Msg("admin operation")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "operation_id": opID})
}

func (s *Server) handleWarmAll(w http.ResponseWriter, r *http.Request) {
	payload, err := json.Marshal(jobs.WarmAllPayload{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	opID := uuid.NewString()
	if _, err := s.Queue.EnqueueContext(r.Context(), asynq.NewTask(jobs.TaskWarmAll, payload), asynq.Queue("warm")); err != nil {
		s.Log.Error().Str("op", opID).Err(err).Msg("enqueue warm-all task failed")
		writeError(w, http.StatusServiceUnavailable, "queue unavailable")
		return
	}

	s.Log.Info().Str("op", opID).Str("actor", s.actor(r)).Str("action", "enqueue_warm_all").Msg("admin operation")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "operation_id": opID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
