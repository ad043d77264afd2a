package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/indexer/watcher"
	ingesthandler "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/ingestion/handler"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/cache"
	searchhandler "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/boolean-retrieval/pkg/redis"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search HTTP service",
		Long: `Run the search service. Documents come from PostgreSQL when enabled,
otherwise from corpus.dir (or the sample corpus). Redis adds a shared result
cache and Kafka fans ingested documents out to every replica.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (defaults plus BR_* environment when empty)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting search service",
		"port", cfg.Server.Port,
		"postgres", cfg.Postgres.Enabled,
		"kafka", cfg.Kafka.Enabled,
		"redis", cfg.Redis.Enabled,
	)

	m := metrics.New(prometheus.DefaultRegisterer)

	checker := health.NewChecker()

	var (
		source corpus.Source
		store  *corpus.PostgresStore
		dir    *corpus.DirSource
	)
	switch {
	case cfg.Postgres.Enabled:
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer db.Close()
		store = corpus.NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		source = store
		checker.Register("postgres", health.PingCheck(db.Ping, false))
	case cfg.Corpus.Sample:
		source = corpus.NewStaticSource(corpus.Sample())
	default:
		dir = corpus.NewDirSource(cfg.Corpus.Dir)
		source = dir
	}

	engine := indexer.NewEngine(source,
		indexer.WithMinDocuments(cfg.Corpus.MinDocuments),
		indexer.WithMetrics(m),
	)
	if _, err := engine.Reload(ctx); err != nil {
		slog.Warn("initial index build failed, not ready until a rebuild succeeds", "error", err)
	}
	checker.Register("index", func(context.Context) health.ComponentHealth {
		snap := engine.Current()
		if snap == nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: "index not built"}
		}
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("generation %d, %d documents", snap.Generation, len(snap.Corpus)),
		}
	})

	var remote cache.RemoteStore
	if cfg.Redis.Enabled {
		rc, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, shared result cache disabled", "error", err)
		} else {
			defer rc.Close()
			remote = rc
			checker.Register("redis", health.PingCheck(rc.Ping, true))
			slog.Info("shared result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}
	queryCache, err := cache.New(cfg.Cache.LocalSize, remote, cfg.Redis.CacheTTL, m)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	searchhandler.New(engine, queryCache, cfg.Search).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Enabled {
		g.Go(func() error { return metrics.Serve(gctx, cfg.Metrics.Port, prometheus.DefaultGatherer) })
	}

	if store != nil {
		var (
			producer publisher.EventProducer
			reloader publisher.Reloader
		)
		if cfg.Kafka.Enabled {
			p := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest)
			defer p.Close()
			producer = p
			checker.Register("kafka", health.PingCheck(func(ctx context.Context) error {
				return kafka.Ping(ctx, cfg.Kafka.Brokers)
			}, true))

			kc := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, replicaGroupID(cfg.Kafka.ConsumerGroup), consumer.HandleMessage(engine))
			defer kc.Close()
			ic := consumer.New(kc)
			g.Go(func() error { return ic.Start(gctx) })
		} else {
			reloader = engine
		}
		ingesthandler.New(publisher.New(store, producer, reloader, m)).Register(mux)
		slog.Info("document ingestion enabled", "kafka", cfg.Kafka.Enabled)
	}

	if cfg.Corpus.Watch && dir != nil {
		w := watcher.New(dir.Dir(), cfg.Corpus.WatchDebounce, engine)
		g.Go(func() error { return w.Run(gctx) })
	}

	mws := []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.Logging,
		middleware.Metrics(m),
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		mws = append(mws, middleware.CORS(cfg.Server.CORSOrigins))
	}
	if cfg.Server.RateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.Server.RateLimit, time.Minute)
		g.Go(func() error { return limiter.Run(gctx, 5*time.Minute) })
		mws = append(mws, middleware.RateLimit(limiter))
	}
	mws = append(mws, middleware.Timeout(cfg.Server.RequestTimeout))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middleware.Chain(mux, mws...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	slog.Info("search service stopped")
	return nil
}

// replicaGroupID gives each replica its own consumer group so that every
// replica sees every document event.
func replicaGroupID(base string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return base
	}
	return base + "-" + host
}
