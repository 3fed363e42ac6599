// cmd/jobtracker/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"jobtracker/internal/api"
	"jobtracker/internal/common/auth"
	"jobtracker/internal/common/aws"
	"jobtracker/internal/common/config"
	"jobtracker/internal/common/database"
	"jobtracker/internal/common/logger"
	"jobtracker/internal/common/observability"
	"jobtracker/internal/coordinator"
	"jobtracker/internal/notify"
	"jobtracker/internal/remote"
	"jobtracker/internal/search"
	"jobtracker/internal/store"
)

const probeTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting jobtracker",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
		zap.Bool("offlineOnly", cfg.Sync.OfflineOnly),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Local snapshot (Redis) ---
	rdb := database.NewRedis(cfg.Database.Redis)
	if err := database.ConnectWithBackoff(ctx, rdb.Ping, 10, 2*time.Second, log, "Redis connection"); err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()

	st := store.New(store.NewRedisPersister(rdb.Client, cfg.Sync.SnapshotKey), log)
	if err := st.Load(ctx); err != nil {
		zapLog.Fatal("failed to restore local snapshot", zap.Error(err))
	}

	// --- Notices ---
	notices := notify.NewMemoryNotifier(cfg.Notifications.QueueSize)
	var sink coordinator.Notifier = notices
	if cfg.Notifications.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.SNS.Region)
		if err != nil {
			zapLog.Warn("sns notices disabled", zap.Error(err))
		} else {
			sink = notify.Multi{notices, notify.NewSNSNotifier(snsClient, cfg.Notifications.SNS.TopicARN, log)}
		}
	}

	// --- Remote backend, realtime feed and auth ---
	var (
		backend  coordinator.Backend
		provider coordinator.AuthProvider
		authSvc  api.AuthService
		session  *auth.Session
		pg       *database.PostgresClient
		feed     *remote.Realtime
	)
	if !cfg.Sync.OfflineOnly {
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			zapLog.Fatal("postgres open failed", zap.Error(err))
		}
		if err := database.ConnectWithBackoff(ctx, pg.Ping, 15, 2*time.Second, log, "PostgreSQL connection"); err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()

		if err := remote.Migrate(ctx, pg.DB, cfg.Sync.RealtimeChannel); err != nil {
			zapLog.Fatal("schema migration failed", zap.Error(err))
		}

		feed = remote.NewRealtime(cfg.Database.Postgres.GetDSN(), cfg.Sync.RealtimeChannel, log)
		if err := feed.Start(ctx); err != nil {
			zapLog.Fatal("realtime listener failed", zap.Error(err))
		}
		defer feed.Close()
		backend = remote.NewPostgresBackend(pg.DB, feed, log)

		kc := cfg.Auth.Keycloak
		session = auth.NewSession(
			auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret, config.GetDuration(kc.Timeout)),
			log,
		)
		provider = session
		authSvc = session
	}

	coord := coordinator.New(st, backend, provider, sink, coordinator.Config{
		FetchLimit:    cfg.Sync.FetchLimit,
		RemoteTimeout: config.GetDuration(cfg.Sync.RemoteTimeout),
	}, log, coordinator.WithObservability(obs))
	defer coord.Close()

	if session != nil {
		session.OnAuthStateChange(func(e auth.Event) {
			evt := coordinator.AuthEvent{Type: coordinator.AuthEventType(e.Type), User: e.User}
			if err := coord.HandleAuthEvent(ctx, evt); err != nil {
				zapLog.Warn("auth transition not fully applied", zap.String("event", string(e.Type)), zap.Error(err))
			}
		})
	}
	if feed != nil {
		feed.OnReconnect(func() {
			if err := coord.Resync(ctx); err != nil {
				zapLog.Warn("resync after reconnect failed", zap.Error(err))
			}
		})
	}

	if err := coord.Start(ctx); err != nil {
		zapLog.Warn("initial sync failed, serving local data", zap.Error(err))
	}

	// --- Search mirror ---
	mirror := search.NewMirror(newSearchIndex(ctx, cfg.Search.Elasticsearch, log, zapLog), st, log)
	mirror.Start(ctx)
	defer mirror.Close()

	// --- Connectivity probe ---
	if backend != nil {
		go probe(ctx, backend, coord, config.GetDuration(cfg.Sync.ProbeInterval), zapLog)
	}

	// --- HTTP ---
	server := api.NewServer(api.Deps{
		Store:   st,
		Sync:    coord,
		Auth:    authSvc,
		Search:  mirror,
		Notices: notices,
		Ready: func(ctx context.Context) error {
			if err := rdb.Ping(ctx); err != nil {
				return err
			}
			if pg != nil {
				return pg.Ping(ctx)
			}
			return nil
		},
	}, log)

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping HTTP server", zap.Error(err))
	}

	zapLog.Info("jobtracker stopped gracefully")
}

// newSearchIndex returns the Elasticsearch index when it is enabled and
// reachable, and a no-op index otherwise.
func newSearchIndex(ctx context.Context, cfg config.ElasticsearchConfig, log logger.Logger, zapLog *zap.Logger) search.Index {
	if !cfg.Enabled {
		return search.NopIndex{}
	}
	es, err := database.NewElasticsearch(cfg)
	if err == nil {
		err = database.PingElasticsearch(ctx, es)
	}
	if err != nil {
		zapLog.Warn("search index unavailable, using local scan", zap.Error(err))
		return search.NopIndex{}
	}

	idx := search.NewElasticIndex(es, cfg.Index, log)
	if err := idx.EnsureIndex(ctx); err != nil {
		zapLog.Warn("search index setup failed, using local scan", zap.Error(err))
		return search.NopIndex{}
	}
	return idx
}

type pinger interface {
	Ping(ctx context.Context) error
}

// probe pings the backend on a fixed interval and reports connectivity to
// the coordinator, which refetches on an offline to online transition.
func probe(ctx context.Context, p pinger, coord *coordinator.Coordinator, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, probeTimeout)
			err := p.Ping(pctx)
			cancel()
			if err := coord.SetOnline(ctx, err == nil); err != nil {
				log.Warn("refetch after reconnect failed", zap.Error(err))
			}
		}
	}
}
