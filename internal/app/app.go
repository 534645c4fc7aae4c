package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/waplane/waplane/config"
	"github.com/waplane/waplane/internal/database"
	"github.com/waplane/waplane/internal/domain"
	"github.com/waplane/waplane/internal/notifier"
	"github.com/waplane/waplane/internal/queue"
	"github.com/waplane/waplane/internal/repository"
	"github.com/waplane/waplane/internal/service/campaign"
	"github.com/waplane/waplane/internal/service/meta"
	"github.com/waplane/waplane/internal/service/webhook"
	"github.com/waplane/waplane/pkg/logger"
)

// App encapsulates the worker's dependencies: database, Redis, the
// Cloud API client and the campaign delivery services built on top.
type App struct {
	config *config.Config
	logger logger.Logger

	db          *sql.DB
	redisClient redis.UniversalClient

	store    domain.Store
	queue    domain.Queue
	events   domain.EventSink
	provider domain.ProviderClient

	trackers  *campaign.TrackerRegistry
	lifecycle *campaign.LifecycleService
	sender    *campaign.SenderService
	feeder    *campaign.FeederService
	consumers *campaign.ConsumerManager
	campaigns *campaign.Service
	sweep     *campaign.SweepService
	webhooks  *webhook.StatusHandler
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use an existing database handle
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithProvider overrides the outbound provider client
func WithProvider(provider domain.ProviderClient) AppOption {
	return func(a *App) {
		a.provider = provider
	}
}

// WithRedisClient configures the app to use an existing Redis client
func WithRedisClient(client redis.UniversalClient) AppOption {
	return func(a *App) {
		a.redisClient = client
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) *App {
	app := &App{
		config: cfg,
		logger: logger.NewLogger(cfg.LogLevel),
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// InitDB opens the database connection and makes sure the schema exists
func (a *App) InitDB() error {
	if a.db == nil {
		db, err := database.Connect(&a.config.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.db = db
	}

	if err := database.InitializeDatabase(a.db); err != nil {
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	a.store = repository.NewStore(a.db)
	a.logger.WithField("database", a.config.Database.DBName).Info("Database initialized")
	return nil
}

// InitRedis connects to Redis and wires the queue and event sink on it
func (a *App) InitRedis() error {
	if a.redisClient == nil {
		a.redisClient = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	a.queue = queue.NewRedisQueue(a.redisClient, a.config.Redis.ConsumerGroup, a.config.Redis.ConsumerName)
	a.events = notifier.NewRedisNotifier(a.redisClient, a.logger)
	a.logger.WithField("addr", a.config.Redis.Addr).Info("Redis initialized")
	return nil
}

// InitProvider builds the Cloud API client unless one was injected
func (a *App) InitProvider() error {
	if a.provider == nil {
		httpClient := &http.Client{Timeout: 30 * time.Second}
		a.provider = meta.NewClient(httpClient, &a.config.Meta, a.logger)
	}
	return nil
}

// InitServices assembles the delivery pipeline
func (a *App) InitServices() error {
	senderCfg := a.config.Sender

	a.trackers = campaign.NewTrackerRegistry()
	a.lifecycle = campaign.NewLifecycleService(a.store, a.trackers, a.events, a.logger)
	a.sender = campaign.NewSenderService(a.store, a.provider, a.lifecycle, a.trackers, a.events, a.logger)
	a.feeder = campaign.NewFeederService(a.store, a.queue, senderCfg.FeederPageSize, a.logger)

	globalLimiter := rate.NewLimiter(rate.Limit(senderCfg.MessagesPerSecond), 1)
	a.consumers = campaign.NewConsumerManager(a.store, a.queue, a.sender, a.feeder, a.lifecycle, a.trackers,
		globalLimiter, campaign.NewCampaignRateLimiter(), senderCfg.BatchSize, senderCfg.FetchTimeout, a.logger)

	a.campaigns = campaign.NewService(a.lifecycle, a.feeder, a.consumers, a.logger)
	a.sweep = campaign.NewSweepService(a.store, a.campaigns, a.lifecycle, senderCfg.SweepInterval, a.logger)
	a.webhooks = webhook.NewStatusHandler(a.store, campaign.NewStatsService(a.logger), a.events, a.logger)
	return nil
}

// Initialize runs all initialization steps in order
func (a *App) Initialize() error {
	if err := a.InitDB(); err != nil {
		return err
	}
	if err := a.InitRedis(); err != nil {
		return err
	}
	if err := a.InitProvider(); err != nil {
		return err
	}
	if err := a.InitServices(); err != nil {
		return err
	}
	a.logger.WithField("version", a.config.Version).Info("Worker initialized")
	return nil
}

// Start runs the worker until ctx is cancelled. An immediate sweep on
// startup picks running campaigns back up after a restart.
func (a *App) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.sweep.Sweep(ctx)
		return a.sweep.Run(ctx)
	})

	err := g.Wait()
	a.consumers.StopAll()
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// Shutdown stops consumers and releases connections
func (a *App) Shutdown() error {
	if a.consumers != nil {
		a.consumers.StopAll()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error(fmt.Sprintf("Failed to close redis client: %v", err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	a.logger.Info("Worker shut down")
	return nil
}

// CampaignService exposes the campaign control surface
func (a *App) CampaignService() *campaign.Service {
	return a.campaigns
}

// WebhookHandler exposes the webhook reconciliation surface
func (a *App) WebhookHandler() *webhook.StatusHandler {
	return a.webhooks
}
