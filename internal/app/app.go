package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"NewsAggregator/internal/classify"
	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/infrastructure/cache"
	"NewsAggregator/internal/infrastructure/httpapi"
	"NewsAggregator/internal/infrastructure/parser"
	"NewsAggregator/internal/infrastructure/queue"
	"NewsAggregator/internal/infrastructure/scheduler"
	"NewsAggregator/internal/infrastructure/storage"
	"NewsAggregator/internal/infrastructure/telegram"
	"NewsAggregator/internal/logging"
	"NewsAggregator/internal/ports"
	"NewsAggregator/internal/scanner"
	"NewsAggregator/internal/summarize"
	"NewsAggregator/internal/tasks"
	"NewsAggregator/internal/usecase"
	stdlogger "NewsAggregator/pkg/logger"
)

// Role names a long-running part of the service.
type Role string

const (
	RoleWorker    Role = "worker"
	RoleScheduler Role = "scheduler"
	RoleHTTP      Role = "http"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger

	pool    *pgxpool.Pool
	redis   *redis.Client
	closers []func() error

	Registry     *scanner.Registry
	Tasks        *tasks.Client
	Fetcher      *usecase.FetchService
	Orchestrator *usecase.Orchestrator
	Maintenance  *usecase.Maintenance
	Scheduler    *usecase.Scheduler
	Worker       *tasks.Worker
	HTTP         *httpapi.Server
}

// New connects to Postgres and Redis and builds every component.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	pool, err := storage.Open(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	redisClient, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		pool.Close()
		return nil, err
	}

	a := &Application{
		cfg:    cfg,
		logger: baseLogger,
		pool:   pool,
		redis:  redisClient,
	}
	a.closers = append(a.closers, redisClient.Close)

	repo := storage.NewPostgresRepository(pool)
	jobQueue := queue.NewRedisQueue(redisClient, "")
	a.Tasks = tasks.NewClient(jobQueue)
	a.Registry = parser.NewRegistry(cfg.Sources, baseLogger.With("component", "sources"))

	summaryDelegate, biasDelegate, closeDelegates := buildDelegates(ctx, cfg.AI, baseLogger)
	if closeDelegates != nil {
		a.closers = append(a.closers, closeDelegates)
	}

	summarizer := summarize.New(summaryDelegate, cache.NewRedisCache(redisClient), summarize.Config{
		ShortTextLength:   cfg.Summarizer.ShortTextLength,
		TruncateLength:    cfg.Summarizer.TruncateLength,
		FingerprintLength: cfg.Summarizer.FingerprintLength,
		CacheTTL:          cfg.Summarizer.CacheTTL,
		MaxLength:         cfg.Summarizer.MaxLength,
		MinLength:         cfg.Summarizer.MinLength,
	}, baseLogger.With("component", "summarizer"))

	classifier := classify.NewBiasClassifier(biasDelegate, classify.BiasConfig{
		Threshold:     cfg.Bias.Threshold,
		MinTextLength: cfg.Bias.MinTextLength,
	}, baseLogger.With("component", "bias"))

	var onCreated func(context.Context, domain.Article)
	if cfg.Queue.EnrichOnCreateEnabled() {
		onCreated = func(ctx context.Context, article domain.Article) {
			if err := a.Tasks.Enrich(ctx, article.ID, domain.QueueMedium); err != nil {
				baseLogger.Warn("enqueue enrichment for new article failed", "article_id", article.ID, "error", err)
			}
		}
	}

	a.Fetcher = usecase.NewFetchService(usecase.FetchDeps{
		Registry:    a.Registry,
		Repository:  repo,
		Categorizer: classify.NewKeywordCategorizer(nil),
		OnCreated:   onCreated,
		Logger:      baseLogger,
	})
	a.Orchestrator = usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Repository:     repo,
		Summarizer:     summarizer,
		Classifier:     classifier,
		FallbackLength: cfg.Summarizer.TruncateLength,
		Logger:         baseLogger,
	})
	a.Maintenance = usecase.NewMaintenance(repo, a.Tasks, baseLogger)

	cron := scheduler.NewCronScheduler(cfg.Scheduler.Location(), stdlogger.New("cron"))
	a.Scheduler = usecase.NewScheduler(cron, a.Tasks, usecase.Schedule{
		Fetch:   cfg.Scheduler.FetchCron,
		Sweep:   cfg.Scheduler.SweepCron,
		Cleanup: cfg.Scheduler.CleanupCron,
		Sources: a.Registry.Names(),
	}, baseLogger)

	a.Worker = tasks.NewWorker(jobQueue, buildNotifier(cfg.Notifications.Telegram, baseLogger), tasks.Config{
		Workers:    cfg.Queue.Workers,
		MaxRetries: cfg.Queue.MaxRetries,
		Backoff: tasks.Backoff{
			Base: cfg.Queue.RetryBaseDelay,
			Max:  cfg.Queue.RetryMaxDelay,
		},
		PollTimeout: cfg.Queue.PollTimeout,
		JobTimeout:  cfg.Queue.JobTimeout,
	}, baseLogger)
	a.registerHandlers()

	a.HTTP = httpapi.New(cfg.HTTP.Addr, httpapi.Deps{
		Tasks:       a.Tasks,
		Reprocessor: a.Maintenance,
		Sources:     a.Registry.Names(),
		Health:      a.health,
		QueueDepth:  jobQueue.Depth,
		Logger:      baseLogger,
	})

	return a, nil
}

func (a *Application) registerHandlers() {
	a.Worker.Handle(domain.JobEnrich, func(ctx context.Context, job domain.Job) error {
		_, err := a.Orchestrator.Process(ctx, job.ArticleID)
		return err
	})
	a.Worker.Handle(domain.JobFetch, func(ctx context.Context, job domain.Job) error {
		a.Fetcher.Fetch(ctx, job.Source)
		return nil
	})
	a.Worker.Handle(domain.JobSweep, func(ctx context.Context, _ domain.Job) error {
		_, err := a.Maintenance.Sweep(ctx, a.cfg.Scheduler.SweepBatch)
		return err
	})
	a.Worker.Handle(domain.JobCleanup, func(ctx context.Context, _ domain.Job) error {
		_, err := a.Maintenance.Cleanup(ctx, a.cfg.Retention.Window())
		return err
	})
}

// Run starts the requested roles and blocks until ctx is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context, roles ...Role) error {
	if len(roles) == 0 {
		roles = []Role{RoleWorker, RoleScheduler, RoleHTTP}
	}

	runners := make([]func(context.Context) error, 0, len(roles))
	for _, role := range roles {
		switch role {
		case RoleWorker:
			runners = append(runners, a.Worker.Run)
		case RoleScheduler:
			runners = append(runners, a.runScheduler)
		case RoleHTTP:
			runners = append(runners, a.HTTP.Run)
		default:
			return fmt.Errorf("unknown role %q", role)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, run := range runners {
		g.Go(func() error { return run(ctx) })
	}
	a.logger.Info("application started", "roles", roles)
	return g.Wait()
}

func (a *Application) runScheduler(ctx context.Context) error {
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	<-ctx.Done()
	return a.Scheduler.Stop(context.WithoutCancel(ctx))
}

func (a *Application) health(ctx context.Context) error {
	if err := a.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := a.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	return nil
}

// Close releases connections.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.pool.Close()
	return errors.Join(errs...)
}

// Migrate creates the schema without starting the rest of the application.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	pool, err := storage.Open(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		return err
	}
	if logger != nil {
		logger.Info("schema migrated")
	}
	return nil
}

func buildNotifier(cfg config.TelegramConfig, logger *slog.Logger) ports.Notifier {
	n := telegram.NewNotifier(cfg.BaseURL, cfg.BotToken, cfg.ChatID)
	if !n.Configured() {
		logger.Info("telegram alerts disabled")
		return nil
	}
	return n
}
