package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/Ramsey-B/fern/config"
	providerrepo "github.com/Ramsey-B/fern/internal/repositories/provider"
	mappingrepo "github.com/Ramsey-B/fern/internal/repositories/servicemapping"
	suggestionrepo "github.com/Ramsey-B/fern/internal/repositories/suggestion"
	taxonomyrepo "github.com/Ramsey-B/fern/internal/repositories/taxonomy"
	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/logging"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/middleware"
	"github.com/Ramsey-B/fern/pkg/pipeline"
	"github.com/Ramsey-B/fern/pkg/routes"
	healthroutes "github.com/Ramsey-B/fern/pkg/routes/health"
	mappingroutes "github.com/Ramsey-B/fern/pkg/routes/mapping"
	pipelineroutes "github.com/Ramsey-B/fern/pkg/routes/pipeline"
	suggestionroutes "github.com/Ramsey-B/fern/pkg/routes/suggestion"
	"github.com/Ramsey-B/fern/pkg/startup"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/tracing/exporters"
)

const version = "1.0.0"

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger, flushLogs, err := logging.New(cfg.LogLevel, cfg.PrettyLogs)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer flushLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(&exporters.ConsoleExporter{}))
	otel.SetTracerProvider(tp)
	tracing.SetTracer(tp.Tracer(cfg.AppName))
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	sqlxDB, err := connectDatabase(cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to database")
		os.Exit(1)
	}
	defer sqlxDB.Close()

	if err := runMigrations(cfg, logger, sqlxDB); err != nil {
		logger.WithError(err).Error("Failed to run migrations")
		os.Exit(1)
	}

	db := database.NewDatabaseInstance(sqlxDB, logger)

	providerRepo := providerrepo.NewRepository(db, logger)
	taxonomyRepo := taxonomyrepo.NewRepository(db, logger)
	mappingRepo := mappingrepo.NewRepository(db, logger)
	suggestionRepo := suggestionrepo.NewRepository(db, logger)

	producer := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.KafkaBrokers,
		Topic:        cfg.KafkaOutputTopic,
		BatchSize:    cfg.KafkaBatchSize,
		BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: cfg.KafkaRequiredAcks,
		Compression:  cfg.KafkaCompression,
	}, logger)
	defer producer.Close()

	emitter := events.NewEmitter(producer, logger)

	scorer := matching.NewScorer(cfg.HighMatchThreshold, cfg.MediumMatchThreshold)
	runner := pipeline.NewRunner(logger, providerRepo, taxonomyRepo, mappingRepo, suggestionRepo, emitter, scorer, pipeline.Config{
		AutoAcceptThreshold: cfg.AutoAcceptThreshold,
		ChunkSize:           cfg.PersistChunkSize,
		WriteTimeout:        cfg.PersistWriteTimeout,
		MaxSuggestions:      cfg.MaxSuggestions,
	})

	if err := registerDependencies(logger, runner, mappingRepo, suggestionRepo); err != nil {
		logger.WithError(err).Error("Failed to register dependencies")
		os.Exit(1)
	}

	checker := healthroutes.NewChecker(sqlxDB, version)
	e := buildServer(cfg, logger, checker)

	var consumer *kafka.Consumer
	if cfg.KafkaConsumerEnabled {
		consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:       cfg.KafkaBrokers,
			Topic:         cfg.KafkaInputTopic,
			ConsumerGroup: cfg.KafkaConsumerGroup,
		}, logger, providerImportHandler(logger, runner))
	}

	boot := startup.New(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&serverDependency{echo: e, cfg: cfg, logger: logger})
	if consumer != nil {
		boot.AddDependency(&consumerDependency{consumer: consumer})
	}

	if err := boot.Start(ctx); err != nil {
		logger.WithError(err).Error("Failed to start service")
		os.Exit(1)
	}
	checker.SetReady(true)

	logger.WithFields(map[string]any{
		"app":  cfg.AppName,
		"port": cfg.Port,
	}).Info("Service started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown did not finish cleanly")
	}
}

func connectDatabase(cfg config.Config) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName, cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	return db, nil
}

func runMigrations(cfg config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return migrations.Migrate(cfg.DatabaseName, driver)
}

func registerDependencies(
	logger ectologger.Logger,
	runner *pipeline.Runner,
	mappingRepo *mappingrepo.Repository,
	suggestionRepo *suggestionrepo.Repository,
) error {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return err
	}

	if err := ectoinject.RegisterInstance[ectologger.Logger](container, logger); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*pipeline.Runner](container, runner); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*mappingrepo.Repository](container, mappingRepo); err != nil {
		return err
	}
	if err := ectoinject.RegisterInstance[*suggestionrepo.Repository](container, suggestionRepo); err != nil {
		return err
	}

	return nil
}

func buildServer(cfg config.Config, logger ectologger.Logger, checker *healthroutes.Checker) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = routes.NewRequestValidator()
	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	pipelineroutes.Register(api.Group("/pipeline"))
	suggestionroutes.Register(api.Group("/suggestions"))
	mappingroutes.Register(api.Group("/mappings"))

	return e
}

// providerImportHandler triggers a mapping run whenever the upstream CRM
// finishes importing a provider. ErrRunInProgress is not an error here: the
// running pass will pick up the imported data on the next trigger.
func providerImportHandler(logger ectologger.Logger, runner *pipeline.Runner) kafka.MessageHandler {
	return func(ctx context.Context, msg *kafka.IncomingMessage) error {
		if !msg.IsProviderImported() {
			return nil
		}

		evt, err := msg.ParseProviderImported()
		if err != nil {
			logger.WithContext(ctx).WithError(err).Error("Failed to parse provider.imported event")
			return nil
		}

		logger.WithContext(ctx).WithField("provider_id", evt.ProviderID).Info("Provider import detected, starting mapping run")

		if _, err := runner.Run(ctx); err != nil {
			if err == pipeline.ErrRunInProgress {
				logger.WithContext(ctx).Warn("Mapping run already in progress, skipping trigger")
				return nil
			}
			return err
		}

		return nil
	}
}

type serverDependency struct {
	echo   *echo.Echo
	cfg    config.Config
	logger ectologger.Logger
}

func (d *serverDependency) GetName() string     { return "http-server" }
func (d *serverDependency) DependsOn() []string { return nil }

func (d *serverDependency) Start(ctx context.Context) error {
	d.echo.Server.ReadTimeout = time.Duration(d.cfg.HttpServerReadTimeoutSeconds) * time.Second
	d.echo.Server.WriteTimeout = time.Duration(d.cfg.HttpServerWriteTimeoutSeconds) * time.Second
	d.echo.Server.IdleTimeout = time.Duration(d.cfg.HttpServerIdleTimeoutSeconds) * time.Second
	d.echo.Server.ReadHeaderTimeout = time.Duration(d.cfg.ReadHeaderTimeoutSeconds) * time.Second
	d.echo.Server.MaxHeaderBytes = d.cfg.MaxHeaderBytes

	go func() {
		if err := d.echo.Start(fmt.Sprintf(":%d", d.cfg.Port)); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()

	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	return d.echo.Shutdown(ctx)
}

type consumerDependency struct {
	consumer *kafka.Consumer
}

func (d *consumerDependency) GetName() string     { return "kafka-consumer" }
func (d *consumerDependency) DependsOn() []string { return nil }

func (d *consumerDependency) Start(ctx context.Context) error {
	return d.consumer.Start(ctx)
}

func (d *consumerDependency) Stop(ctx context.Context) error {
	return d.consumer.Stop()
}
