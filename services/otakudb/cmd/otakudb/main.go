package main

import (
	"context"
	"net"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/example/otakudb/internal/platform/analytics"
	"github.com/example/otakudb/internal/platform/config"
	"github.com/example/otakudb/internal/platform/db"
	"github.com/example/otakudb/internal/platform/httpserver"
	"github.com/example/otakudb/internal/platform/logging"
	"github.com/example/otakudb/internal/platform/natsconn"
	"github.com/example/otakudb/internal/platform/run"
	"github.com/example/otakudb/services/otakudb/internal/grpcapi"
	"github.com/example/otakudb/services/otakudb/internal/handlers"
	"github.com/example/otakudb/services/otakudb/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}

	animes, closePool := initStore(cfg, log)
	events, closeNATS := initEvents(cfg, log)

	deps := handlers.Deps{Store: animes, Log: log, Events: events}

	r := chi.NewRouter()
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		Logger: log,
		ReadyFunc: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return animes.Ping(ctx)
		},
	})
	r.Route("/api/animes", func(r chi.Router) {
		if cfg.RateLimit.RPS > 0 {
			if cfg.RateLimit.TrustProxy {
				r.Use(middleware.RealIP)
			}
			r.Use(httpserver.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst).Middleware)
		}
		r.Get("/", handlers.ListAnime(deps))
		r.Post("/", handlers.CreateAnime(deps))
		r.Patch("/", handlers.UpdateAnime(deps))
		r.Delete("/", handlers.DeleteAnime(deps))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, Router: r})

	// gRPC health + reflection
	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.Error("grpc listen", zap.Error(err))
		run.Exit(1)
	}
	grpcSrv := grpc.NewServer()
	health := grpcapi.NewHealth(cfg.ServiceName, animes, log)
	health.Register(grpcSrv)
	go func() {
		log.Info("grpc server starting", zap.String("addr", cfg.GRPC.Addr))
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error("grpc serve", zap.Error(err))
		}
	}()

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go health.Watch(ctx)
		serveErr := make(chan error, 1)
		go func() { serveErr <- srv.Start(log) }()

		select {
		case err := <-serveErr:
			return err
		case <-ctx.Done():
		}
		runner.Graceful("grpc", func(c context.Context) error {
			stopped := make(chan struct{})
			go func() {
				grpcSrv.GracefulStop()
				close(stopped)
			}()
			select {
			case <-stopped:
				return nil
			case <-c.Done():
				grpcSrv.Stop()
				return c.Err()
			}
		})
		runner.Graceful("http", srv.Shutdown)
		return <-serveErr
	})

	// run.Exit skips deferred calls, so release resources here.
	if closeNATS != nil {
		closeNATS()
	}
	if closePool != nil {
		closePool()
	}
	log.Info("exit", zap.Int("code", code))
	_ = log.Sync()
	run.Exit(code)
}

// initStore selects the AnimeStore backend.
// In production (APP_ENV=production) it requires a working Postgres connection
// and terminates the process otherwise.
func initStore(cfg config.AppConfig, log *zap.Logger) (store.AnimeStore, func()) {
	if cfg.DB.URL == "" {
		log.Warn("DATABASE_URL not set, using in-memory anime store (development only)")
		return store.NewInMemoryAnimeStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := db.Open(ctx, cfg.DB.URL, cfg.DB.MaxConns)
	if err != nil {
		if cfg.IsProduction() {
			log.Error("postgres is required in production but unavailable", zap.Error(err))
			_ = log.Sync()
			run.Exit(1)
		}
		log.Warn("postgres unavailable, falling back to in-memory anime store", zap.Error(err))
		return store.NewInMemoryAnimeStore(), nil
	}

	log.Info("anime store: postgres", zap.Int32("max_conns", cfg.DB.MaxConns))
	return store.NewPostgresAnimeStore(pool), pool.Close
}

// initEvents connects the catalog event publisher. Without NATS the returned
// publisher drops every event.
func initEvents(cfg config.AppConfig, log *zap.Logger) (*analytics.Publisher, func()) {
	if cfg.NATSURL == "" {
		log.Info("NATS_URL not set, catalog events disabled")
		return analytics.New(nil, log), nil
	}

	nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: cfg.ServiceName, Logger: log})
	if err != nil {
		log.Warn("nats connect failed, catalog events disabled", zap.Error(err))
		return analytics.New(nil, log), nil
	}
	js, err := nc.JetStream(nats.PublishAsyncMaxPending(256))
	if err != nil {
		log.Warn("jetstream unavailable, catalog events disabled", zap.Error(err))
		nc.Close()
		return analytics.New(nil, log), nil
	}
	if err := analytics.EnsureStream(js); err != nil {
		log.Warn("ensure catalog stream", zap.Error(err))
	}
	return analytics.New(js, log), func() {
		select {
		case <-js.PublishAsyncComplete():
		case <-time.After(5 * time.Second):
		}
		nc.Close()
	}
}
