package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/db"
	"github.com/gokatarajesh/trivia-api/internal/bankfeed"
	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/db/store"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/question"
	"github.com/gokatarajesh/trivia-api/internal/question/external"
	"github.com/gokatarajesh/trivia-api/internal/server"
	ws "github.com/gokatarajesh/trivia-api/pkg/http/ws"
)

// Application aggregates shared infrastructure (record store, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	closeStore func()
	redis      *redis.Client
	http       *http.Server

	importWorker    *question.ImportWorker
	bankBroadcaster *bankfeed.Broadcaster
	bgCancels       []context.CancelFunc
}

// New bootstraps logger, record store, Redis and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Str("store", cfg.Store.Driver).Msg("starting application bootstrap")

	questionRepo, db, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var (
		redisClient *redis.Client
		cache       question.CategoryCache = question.NopCache{}
	)
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		cache = question.NewCache(redisClient, cfg.Cache.CategoryTTL)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; category cache disabled")
	}

	questionSvc := question.NewService(questionRepo, cache, question.ServiceOptions{
		Metrics: question.NewMetrics(prometheus.DefaultRegisterer),
	}, logger)

	wsHub := ws.NewHub(logger)
	playHandler := question.NewPlayHandler(questionSvc, wsHub, server.NewWSUpgrader(cfg.CORS.AllowedOrigins), logger)

	// with Redis, bank changes fan out to every instance through Pub/Sub
	var (
		notifier        question.BankNotifier = playHandler
		bankBroadcaster *bankfeed.Broadcaster
	)
	if redisClient != nil {
		notifier = bankfeed.NewPublisher(redisClient, bankfeed.DefaultChannel, logger)
		bankBroadcaster = bankfeed.NewBroadcaster(redisClient, wsHub, bankfeed.DefaultChannel, logger)
	}

	var importWorker *question.ImportWorker
	if cfg.Import.Enabled {
		importWorker = newImportWorker(cfg.Import, questionRepo, cache, notifier, logger)
	} else {
		logger.Warn().Msg("question import disabled")
	}
	questionHandlers := question.NewHTTPHandlers(questionSvc, importWorker, notifier, logger)

	apiServer := server.NewHTTPServer(
		cfg,
		logger,
		db,
		redisClient,
		questionHandlers,
		playHandler.HandleWebSocket,
		server.NewMetrics(prometheus.DefaultRegisterer),
		prometheus.DefaultGatherer,
	)

	return &Application{
		cfg:             cfg,
		logger:          logger,
		closeStore:      closeStore,
		redis:           redisClient,
		http:            apiServer,
		importWorker:    importWorker,
		bankBroadcaster: bankBroadcaster,
		bgCancels:       make([]context.CancelFunc, 0, 2),
	}, nil
}

func openStore(ctx context.Context, cfg *config.App) (*repository.QuestionRepository, server.Pinger, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		lite, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Store.SQLiteSeed {
			if _, err := lite.SeedIfEmpty(ctx, db.SeedSQL); err != nil {
				_ = lite.Close()
				return nil, nil, nil, fmt.Errorf("seed sqlite: %w", err)
			}
		}
		return repository.NewQuestionRepository(lite), lite, func() { _ = lite.Close() }, nil
	case config.DriverPostgres:
		connString := fmt.Sprintf("%s pool_max_conns=%d", cfg.Postgres.DSN(), cfg.Postgres.MaxConns)
		pool, err := pgxpool.New(ctx, connString)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		return repository.NewQuestionRepository(store.New(pool)), pool, pool.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newImportWorker(cfg config.Import, repo *repository.QuestionRepository, cache question.CategoryCache, notifier question.BankNotifier, logger zerolog.Logger) *question.ImportWorker {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var (
		opentdb question.OpenTDBProvider
		trivia  question.TriviaProvider
	)
	if !cfg.OpenTDBOff {
		opentdb = external.NewOpenTDBClient(cfg.OpenTDBBaseURL, httpClient)
	}
	if !cfg.TriviaAPIOff {
		trivia = external.NewTriviaAPIClient(cfg.TriviaAPIURL, cfg.TriviaAPIKey, httpClient)
	}

	importer := question.NewImporter(repo, cache, opentdb, trivia, question.ImporterOptions{
		MaxAmount: cfg.MaxAmount,
		Notifier:  notifier,
	}, logger)
	return question.NewImportWorker(importer, cfg.QueueSize, cfg.Timeout, logger)
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		runErr = fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}

	a.closeStore()
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
		}
	}

	a.logger.Info().Msg("shutdown complete")
	return runErr
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	if a.importWorker != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.importWorker.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("import worker stopped")
			}
		}()
	}

	if a.bankBroadcaster != nil {
		bgCtx, cancel := context.WithCancel(ctx)
		a.bgCancels = append(a.bgCancels, cancel)
		go func() {
			if err := a.bankBroadcaster.Run(bgCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().Err(err).Msg("bank broadcaster stopped")
			}
		}()
	}
}
