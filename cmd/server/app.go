package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/zspirit/aihm-back/internal/config"
	"github.com/zspirit/aihm-back/internal/events"
	"github.com/zspirit/aihm-back/internal/notify"
	"github.com/zspirit/aihm-back/internal/pipeline"
	"github.com/zspirit/aihm-back/internal/platform/gemini"
	"github.com/zspirit/aihm-back/internal/platform/postgres"
	"github.com/zspirit/aihm-back/internal/service"
	"github.com/zspirit/aihm-back/internal/storage"
	"github.com/zspirit/aihm-back/internal/store"
	"github.com/zspirit/aihm-back/internal/task"
	"github.com/zspirit/aihm-back/internal/telephony"
	"github.com/zspirit/aihm-back/internal/transcribe"
	"github.com/zspirit/aihm-back/internal/webhook"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	candidateStore    store.CandidateStore
	positionStore     store.PositionStore
	interviewStore    store.InterviewStore
	consentStore      store.ConsentStore
	artifactStore     store.ArtifactStore
	bulkImportStore   store.BulkImportStore
	subscriptionStore store.WebhookSubscriptionStore
	notificationStore store.NotificationStore
	taskStore         task.TaskStore

	// Platform services
	blobStore   storage.BlobStore
	generator   *gemini.Generator
	provider    telephony.Provider
	transcriber transcribe.Transcriber
	emailSender notify.EmailSender
	dispatcher  webhook.Dispatcher

	// Domain services
	candidateService service.CandidateService
	consentService   service.ConsentService
	interviewService service.InterviewService
	importService    service.ImportService

	// Event system and background processing
	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner
	reconciler   *telephony.Reconciler
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Stores
	app.candidateStore = postgres.NewPostgresCandidateStore(db, logger)
	app.positionStore = postgres.NewPostgresPositionStore(db, logger)
	app.interviewStore = postgres.NewPostgresInterviewStore(db, logger)
	app.consentStore = postgres.NewPostgresConsentStore(db, logger)
	app.artifactStore = postgres.NewPostgresArtifactStore(db, logger)
	app.bulkImportStore = postgres.NewPostgresBulkImportStore(db, logger)
	app.subscriptionStore = postgres.NewPostgresWebhookStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db)

	txRunner := store.NewTxRunner(db, logger)

	// LLM generator
	var err error
	app.generator, err = gemini.NewGenerator(ctx, cfg.LLM, logger.With("component", "llm_generator"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.Model)

	// Blob storage
	app.blobStore, err = storage.NewS3Store(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	logger.Info("Blob storage initialized", "bucket", cfg.Storage.Bucket)

	// Outbound integrations
	app.provider = telephony.NewTwilioProvider(cfg.Telephony, logger)
	app.transcriber = transcribe.NewHTTPTranscriber(cfg.Transcription, logger)
	app.emailSender = notify.NewResendSender(cfg.Email, logger)
	app.dispatcher = webhook.NewHTTPDispatcher(app.subscriptionStore, cfg.Webhook, logger)

	// Event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Pipeline stage registry
	registry, err := pipeline.NewRegistry(
		pipeline.NewCVProcessStage(
			app.candidateStore, app.positionStore, app.blobStore,
			app.generator, app.dispatcher, logger),
		pipeline.NewQuestionsStage(
			app.candidateStore, app.positionStore, app.generator, logger),
		pipeline.NewConsentNotifyStage(
			app.candidateStore, app.positionStore, app.consentStore,
			app.emailSender, cfg.Server.PublicBaseURL, cfg.Email.SenderName, logger),
		pipeline.NewCallInitiateStage(
			app.interviewStore, app.candidateStore, app.positionStore,
			app.consentStore, app.generator, app.provider,
			cfg.Server.PublicBaseURL, logger),
		pipeline.NewTranscribeStage(
			app.interviewStore, app.artifactStore, app.blobStore,
			app.transcriber, logger),
		pipeline.NewAnalyzeStage(
			app.interviewStore, app.candidateStore, app.positionStore,
			app.artifactStore, app.generator, logger),
		pipeline.NewReportStage(
			app.interviewStore, app.candidateStore, app.positionStore,
			app.artifactStore, app.generator, app.blobStore,
			app.dispatcher, cfg.Pipeline.CleanupAudio, logger),
		pipeline.NewNotifyFanoutStage(
			app.interviewStore, app.candidateStore, app.positionStore,
			app.notificationStore, app.emailSender,
			cfg.Email.NotificationsAddress, logger),
		pipeline.NewImportStage(
			app.bulkImportStore, app.candidateStore, app.consentStore,
			app.blobStore, logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build stage registry: %w", err)
	}

	factory := pipeline.NewFactory(registry, app.eventEmitter, logger)

	// Task runner with crash recovery
	app.taskRunner = task.NewTaskRunner(app.taskStore, factory, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMin) * time.Minute,
	}, logger)
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	if err := app.taskRunner.Recover(); err != nil {
		logger.Error("Task recovery failed; continuing without recovered tasks", "error", err)
	}

	// Bridge stage-request events into the task runner.
	app.eventEmitter.RegisterHandler(
		task.NewStageEventHandler(factory, app.taskRunner, logger))

	// Surface permanent stage failures on the owning entity's status.
	failureMarker := pipeline.NewFailureMarker(
		app.candidateStore, app.interviewStore, app.bulkImportStore, logger)
	app.taskRunner.SetErrorHandler(failureMarker.OnTaskFailure)

	// Call reconciler for provider callbacks and stale interviews.
	app.reconciler = telephony.NewReconciler(
		app.interviewStore, app.candidateStore, app.provider,
		app.blobStore, app.dispatcher, app.eventEmitter, logger)

	// Domain services
	app.candidateService, err = service.NewCandidateService(
		app.candidateStore, app.positionStore, app.consentStore,
		app.blobStore, txRunner, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create candidate service: %w", err)
	}

	app.consentService, err = service.NewConsentService(
		app.consentStore, app.candidateStore, app.positionStore,
		txRunner, app.dispatcher, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create consent service: %w", err)
	}

	app.interviewService, err = service.NewInterviewService(
		app.interviewStore, app.candidateStore, app.consentStore,
		txRunner, app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create interview service: %w", err)
	}

	app.importService, err = service.NewImportService(
		app.bulkImportStore, app.positionStore, app.blobStore,
		app.eventEmitter, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create import service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Reconcile interviews stuck in progress against the provider.
	if interval := app.config.Telephony.ReconcileIntervalMin; interval > 0 {
		loopCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go app.reconciler.RunReconcileLoop(loopCtx, time.Duration(interval)*time.Minute)
	}

	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
