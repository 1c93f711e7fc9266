package di

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/background"
	"github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/notification"
	storagegateway "github.com/YoshitsuguKoike/loopkit/internal/adapter/gateway/storage"
	"github.com/YoshitsuguKoike/loopkit/internal/adapter/presenter"
	"github.com/YoshitsuguKoike/loopkit/internal/app"
	appconfig "github.com/YoshitsuguKoike/loopkit/internal/app/config"
	"github.com/YoshitsuguKoike/loopkit/internal/application/port/output"
	"github.com/YoshitsuguKoike/loopkit/internal/application/service"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/execution"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/model"
	"github.com/YoshitsuguKoike/loopkit/internal/domain/repository"
	infraconfig "github.com/YoshitsuguKoike/loopkit/internal/infra/config"
	repoimpl "github.com/YoshitsuguKoike/loopkit/internal/infrastructure/repository"
	"github.com/YoshitsuguKoike/loopkit/internal/pkg/clock"
)

// Container is the DI container that holds all dependencies
// This implements manual dependency injection for Clean Architecture
type Container struct {
	// Infrastructure Layer - Persistence
	store  output.KeyValueStore
	closer io.Closer // set when the store holds a database handle

	// Infrastructure Layer - Repositories (KV implementations)
	stateRepo    repository.ExecutionStateRepository
	historyRepo  repository.HistoryRepository
	scheduleRepo repository.ScheduleRepository
	prefsRepo    repository.PreferencesRepository
	loopCatalog  *repoimpl.LoopCatalogImpl

	// Infrastructure Layer - Gateways
	notifier   *notification.ConsoleGateway
	background *background.TickerGateway

	// Application Layer - Services
	engine    *service.ExecutionEngine
	scheduler *service.SchedulerService
	poller    *service.SchedulePoller

	// Adapter Layer - Presenters
	presenter output.LoopPresenter

	// Configuration
	config Config
}

// Config holds configuration for the container
type Config struct {
	App          appconfig.Config // Loaded settings (required)
	Fs           afero.Fs         // Filesystem for file store and loop catalog (default: OS)
	OutputFormat string           // Output format (cli, json)
	OutputWriter io.Writer        // Presenter output (default: stdout)
	NotifyWriter io.Writer        // Console notifications (default: stderr)
	Clock        clock.Clock      // Time source (default: system clock)
	Logger       app.Logger       // Logger (default: process logger)

	// S3Client replaces the AWS client for the s3 store (tests)
	S3Client storagegateway.S3API
}

// NewContainer creates and initializes the DI container
func NewContainer(config Config) (*Container, error) {
	if config.App == nil {
		return nil, fmt.Errorf("container requires a configuration")
	}
	c := &Container{
		config: config,
	}

	// Set defaults
	if c.config.Fs == nil {
		c.config.Fs = afero.NewOsFs()
	}
	if c.config.OutputWriter == nil {
		c.config.OutputWriter = os.Stdout
	}
	if c.config.NotifyWriter == nil {
		c.config.NotifyWriter = os.Stderr
	}
	if c.config.Clock == nil {
		c.config.Clock = clock.SystemClock{}
	}
	if c.config.Logger == nil {
		c.config.Logger = app.GetLogger()
	}

	// Initialize dependencies in dependency order
	if err := c.initializeInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	c.initializeApplication()
	c.initializeAdapters()

	return c, nil
}

// initializeInfrastructure opens the configured store and builds repositories and gateways
func (c *Container) initializeInfrastructure() error {
	cfg := c.config.App

	// 1. Open the key-value store
	switch cfg.Store() {
	case infraconfig.StoreMemory:
		c.store = storagegateway.NewMemoryStore()

	case infraconfig.StoreFile:
		fileStore, err := storagegateway.NewFileStore(c.config.Fs, cfg.Home())
		if err != nil {
			return fmt.Errorf("failed to create file store: %w", err)
		}
		c.store = fileStore

	case infraconfig.StoreSQLite:
		if err := c.config.Fs.MkdirAll(cfg.Home(), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
		sqliteStore, err := storagegateway.OpenSQLiteStore(cfg.DBPath())
		if err != nil {
			return fmt.Errorf("failed to open sqlite store: %w", err)
		}
		c.store = sqliteStore
		c.closer = sqliteStore

	case infraconfig.StoreS3:
		if cfg.S3Bucket() == "" {
			return fmt.Errorf("S3 bucket name is required for S3 storage")
		}
		if c.config.S3Client != nil {
			c.store = storagegateway.NewS3StoreWithClient(c.config.S3Client, cfg.S3Bucket(), cfg.S3Prefix())
			break
		}
		s3Store, err := storagegateway.NewS3Store(context.Background(), storagegateway.S3Config{
			BucketName: cfg.S3Bucket(),
			Prefix:     cfg.S3Prefix(),
			Region:     cfg.S3Region(),
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 store: %w", err)
		}
		c.store = s3Store

	default:
		return fmt.Errorf("unknown storage type: %s", cfg.Store())
	}

	// 2. Repositories over the store
	c.stateRepo = repoimpl.NewStateRepositoryImpl(c.store)
	c.historyRepo = repoimpl.NewHistoryRepositoryImpl(c.store)
	c.scheduleRepo = repoimpl.NewScheduleRepositoryImpl(c.store)
	c.prefsRepo = repoimpl.NewPreferencesRepositoryImpl(c.store)
	c.loopCatalog = repoimpl.NewLoopCatalogImpl(c.config.Fs, cfg.LoopsFile())

	// 3. Gateways
	c.notifier = notification.NewConsoleGateway(c.config.NotifyWriter, c.config.Clock, c.config.Logger, cfg.NotificationsEnabled())
	c.background = background.NewTickerGateway(c.config.Clock, cfg.BackgroundTick(), cfg.BackgroundSupported(), c.config.Logger)

	return nil
}

// initializeApplication wires the engine, scheduler and poller
func (c *Container) initializeApplication() {
	cfg := c.config.App

	defaults := execution.Preferences{
		ForegroundTick:       cfg.ForegroundTick(),
		BackgroundTick:       cfg.BackgroundTick(),
		SaveInterval:         cfg.SaveInterval(),
		HistoryLimit:         cfg.HistoryLimit(),
		NotificationsEnabled: cfg.NotificationsEnabled(),
	}

	c.engine = service.NewExecutionEngine(service.EngineDeps{
		States:      c.stateRepo,
		History:     c.historyRepo,
		Preferences: c.prefsRepo,
		Notifier:    c.notifier,
		Background:  c.background,
		Clock:       c.config.Clock,
		IDs:         model.ULIDGenerator{},
		Logger:      c.config.Logger,
		Defaults:    &defaults,
	})
	c.background.SetWakeHandler(c.engine.HandleBackgroundWake)

	c.scheduler = service.NewSchedulerService(service.SchedulerDeps{
		Schedules: c.scheduleRepo,
		Loops:     c.loopCatalog,
		Clock:     c.config.Clock,
		IDs:       model.ULIDGenerator{},
		Logger:    c.config.Logger,
	})

	c.poller = service.NewSchedulePoller(
		c.scheduler,
		c.engine,
		c.notifier,
		c.config.Clock,
		c.config.Logger,
		service.SchedulePollerConfig{Interval: cfg.SchedulePoll()},
	)
}

// initializeAdapters initializes adapter layer components
func (c *Container) initializeAdapters() {
	switch c.config.OutputFormat {
	case "json":
		c.presenter = presenter.NewJSONPresenter(c.config.OutputWriter)
	default: // "cli"
		c.presenter = presenter.NewCLILoopPresenter(c.config.OutputWriter)
	}
}

// GetEngine returns the execution engine
func (c *Container) GetEngine() *service.ExecutionEngine {
	return c.engine
}

// GetScheduler returns the scheduler service
func (c *Container) GetScheduler() *service.SchedulerService {
	return c.scheduler
}

// GetPoller returns the schedule poller
func (c *Container) GetPoller() *service.SchedulePoller {
	return c.poller
}

// GetLoopCatalog returns the YAML loop catalog
func (c *Container) GetLoopCatalog() *repoimpl.LoopCatalogImpl {
	return c.loopCatalog
}

// GetStateRepository returns the execution state repository
func (c *Container) GetStateRepository() repository.ExecutionStateRepository {
	return c.stateRepo
}

// GetStore returns the key-value store
func (c *Container) GetStore() output.KeyValueStore {
	return c.store
}

// GetNotifier returns the notification gateway
func (c *Container) GetNotifier() *notification.ConsoleGateway {
	return c.notifier
}

// GetBackground returns the background task gateway
func (c *Container) GetBackground() *background.TickerGateway {
	return c.background
}

// GetPresenter returns the presenter
func (c *Container) GetPresenter() output.LoopPresenter {
	return c.presenter
}

// Start initializes the engine, which recovers any interrupted execution
func (c *Container) Start(ctx context.Context) error {
	if err := c.engine.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	return nil
}

// StartScheduler starts polling for due schedules
func (c *Container) StartScheduler(ctx context.Context) error {
	if err := c.poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start schedule poller: %w", err)
	}
	return nil
}

// Close stops background services, persists the live execution and
// releases the store
func (c *Container) Close() error {
	ctx := context.Background()

	// Stop the poller first so it cannot start a loop during shutdown
	if c.poller != nil {
		if err := c.poller.Stop(); err != nil {
			c.config.Logger.Warn("failed to stop schedule poller: %v", err)
		}
	}
	if c.engine != nil {
		if err := c.engine.Close(ctx); err != nil {
			c.config.Logger.Warn("failed to close engine: %v", err)
		}
	}
	if c.background != nil {
		if err := c.background.EndBackgroundTask(ctx); err != nil {
			c.config.Logger.Warn("failed to end background task: %v", err)
		}
	}

	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
