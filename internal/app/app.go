package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarkd/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarkd/internal/config"
	"github.com/MrSnakeDoc/bookmarkd/internal/enrich"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver"
	"github.com/MrSnakeDoc/bookmarkd/internal/httpserver/deps"
	"github.com/MrSnakeDoc/bookmarkd/internal/logger"
	"github.com/MrSnakeDoc/bookmarkd/internal/realtime"
	"github.com/MrSnakeDoc/bookmarkd/internal/redis"
	"github.com/MrSnakeDoc/bookmarkd/internal/scheduler"
	"github.com/MrSnakeDoc/bookmarkd/internal/search"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/memory"
	"github.com/MrSnakeDoc/bookmarkd/internal/store/postgres"
	redisstore "github.com/MrSnakeDoc/bookmarkd/internal/store/redis"
	"github.com/MrSnakeDoc/bookmarkd/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	db          *sql.DB
	redisClient *goredis.Client
	meili       *search.Meili
	registry    *realtime.Registry
	dispatcher  *realtime.Dispatcher
	importer    *scheduler.Importer
	heartbeat   *scheduler.Heartbeat
	reindexer   *scheduler.Reindexer
}

func New() (*App, error) {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	a := &App{cfg: cfg, logger: loggerClient}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}

	// Redis is optional: without it suggestions are simply not cached
	var cache enrich.Cache
	var suggestions *redisstore.SuggestionCache
	if cfg.RedisAddr != "" {
		loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis unavailable, suggestion cache disabled", logger.Error(err))
		} else {
			a.redisClient = client
			suggestions = redisstore.NewSuggestionCache(client, cfg.SuggestionTTL)
			cache = suggestions
			loggerClient.Info("Redis initialized successfully")
		}
	}

	var classifier enrich.TextClassifier
	if cfg.LLMAPIKey != "" {
		llm, err := enrich.NewOpenAIClassifier(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel)
		if err != nil {
			loggerClient.Warn("classifier disabled", logger.Error(err))
		} else {
			classifier = llm
			loggerClient.Info("classifier enabled", logger.String("model", cfg.LLMModel))
		}
	}

	fetcher := enrich.NewFetcher(enrich.FetcherOptions{
		Timeout:    cfg.EnrichTimeout,
		RatePerSec: float64(cfg.FetchRate),
	})
	enricher := enrich.NewEnricher(fetcher, classifier, cache, loggerClient)

	var engine search.Engine
	if cfg.MeiliURL != "" {
		a.meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliAPIKey, loggerClient)
		engine = a.meili
	}
	searchSvc := search.NewService(engine, store, loggerClient)

	a.registry = realtime.NewRegistry()
	a.dispatcher = realtime.NewDispatcher(a.registry, loggerClient, cfg.DispatchBuffer)

	opts := bookmarks.Options{
		Titles:        enricher,
		Classifier:    enricher,
		EnrichTimeout: cfg.EnrichTimeout,
	}
	if engine != nil {
		opts.Indexer = searchSvc
		opts.Searcher = searchSvc
		a.reindexer = scheduler.NewReindexer(store, searchSvc, loggerClient)
	}
	svc := bookmarks.NewService(store, a.dispatcher, loggerClient, opts)

	var importTrigger chan struct{}
	if cfg.ImportFile != "" {
		loggerClient.Info("import file configured, initializing importer",
			logger.String("file", cfg.ImportFile))
		importTrigger = make(chan struct{}, 1)
		a.importer = scheduler.NewImporter(cfg.ImportFile, svc, loggerClient, cfg.ImportInterval, importTrigger)
	} else {
		loggerClient.Info("import file not configured, import disabled")
	}

	a.heartbeat = scheduler.NewHeartbeat(a.registry, loggerClient, cfg.WSHeartbeat)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: cfg.AllowedHosts,
		AllowedCIDRS: cfg.AllowedCIDRS,
		TrustProxy:   cfg.TrustProxy,
		CORSOrigins:  cfg.CORSOrigins,
		RateBurst:    cfg.RateBurst,
		RatePerMin:   cfg.RatePerMin,

		Bookmarks:   svc,
		Registry:    a.registry,
		Dispatcher:  a.dispatcher,
		WSQueueSize: cfg.WSQueueSize,

		Search:            searchSvc,
		RedisClient:       a.redisClient,
		Suggestions:       suggestions,
		ClassifierEnabled: classifier != nil,
		Importer:          a.importer,
		ImportTrigger:     importTrigger,
	}

	a.server = httpserver.New(cfg, loggerClient, d)
	return a, nil
}

func (a *App) openStore() (bookmarks.Store, error) {
	if a.cfg.StoreKind == config.StoreMemory {
		a.logger.Warn("using the in-memory store, bookmarks are lost on restart")
		return memory.New(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxOpenConns)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applied, err := postgres.ApplyMigrations(ctx, db, postgres.Migrations())
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	a.logger.Info("database ready", logger.Int("migrations_applied", applied))
	a.db = db
	return postgres.NewStore(db), nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting bookmarkd v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// stopped explicitly after the server, so late mutations never block on it
	a.dispatcher.Start(context.Background())

	if a.reindexer != nil {
		go func() {
			n, err := a.reindexer.Reindex(ctx)
			if err != nil {
				a.logger.Warn("startup reindex failed", logger.Error(err))
				return
			}
			a.logger.Info("startup reindex done", logger.Int("bookmarks", n))
		}()
	}

	if a.importer != nil {
		if err := a.importer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start importer: %w", err)
		}
		a.logger.Info("importer started",
			logger.Duration("interval", a.cfg.ImportInterval))
	}

	a.heartbeat.Start(ctx)
	a.logger.Info("heartbeat started",
		logger.Duration("interval", a.cfg.WSHeartbeat))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	if a.importer != nil {
		a.importer.Stop()
	}
	a.heartbeat.Stop()

	// hijacked websocket connections are not tracked by Shutdown
	a.registry.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	a.dispatcher.Stop()

	if a.meili != nil {
		a.meili.Close()
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnf("failed to close database: %v", err)
		} else {
			a.logger.Info("✅ Database closed cleanly")
		}
	}

	a.logger.Info("✅ bookmarkd stopped cleanly")
	return nil
}
