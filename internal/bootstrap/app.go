package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"teamsync-backend/internal/assistant"
	"teamsync-backend/internal/calendar"
	"teamsync-backend/internal/extract"
	"teamsync-backend/internal/jobs"
	"teamsync-backend/internal/llm"
	"teamsync-backend/internal/llm/provider"
	"teamsync-backend/internal/processing"
	"teamsync-backend/internal/services/health"
	"teamsync-backend/internal/shared/auth"
	"teamsync-backend/internal/shared/config"
	"teamsync-backend/internal/shared/server"
	"teamsync-backend/internal/shared/server/middleware"
	"teamsync-backend/internal/shared/storage/db"
	"teamsync-backend/internal/shared/storage/object"
	localstore "teamsync-backend/internal/shared/storage/object/local"
	miniostore "teamsync-backend/internal/shared/storage/object/minio"
	s3store "teamsync-backend/internal/shared/storage/object/s3"
	"teamsync-backend/internal/shared/telemetry"
	"teamsync-backend/internal/status"
	"teamsync-backend/internal/todos"
	"teamsync-backend/internal/transcripts"
	"teamsync-backend/internal/users"
)

// App holds shared dependencies for the API, worker and CLI binaries.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Redis  *redis.Client
	Store  object.ObjectStore
	LLM    llm.Client
	Signer *auth.Signer
	Health *health.Service

	TranscriptsRepo transcripts.Repo
	TodosRepo       todos.Repo
	EventsRepo      calendar.Repo
	UsersRepo       users.Repo
	Results         processing.ResultsStore

	Extractor          *extract.Pipeline
	TranscriptsService *transcripts.Service
	TodosService       *todos.Service
	CalendarService    *calendar.Service
	ProcessingService  *processing.Service
	AssistantService   *assistant.Service
	StatusService      *status.Service
	UsersService       *users.Service

	Jobs     *jobs.Handler
	Enqueuer transcripts.Enqueuer
	Inline   *jobs.InlineEnqueuer
	Asynq    *jobs.AsynqEnqueuer

	closers []func() error
}

// Build prepares shared dependencies and the HTTP router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.SetLevel(cfg.LogLevel)

	app := &App{
		Config: cfg,
		Signer: auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL),
		Health: health.NewService(),
	}

	var err error
	if app.DB, err = buildDB(ctx, cfg); err != nil {
		return nil, err
	}
	if app.DB != nil {
		app.closers = append(app.closers, app.DB.Close)
		app.Health.Register("database", app.DB.PingContext)
	}

	if app.Redis, err = buildRedis(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}
	if app.Redis != nil {
		app.closers = append(app.closers, app.Redis.Close)
		client := app.Redis
		app.Health.Register("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	if app.Store, err = buildStore(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}

	if app.LLM, err = provider.New(ctx, cfg); err != nil {
		app.Close()
		return nil, err
	}

	if err := buildServices(app); err != nil {
		app.Close()
		return nil, err
	}

	var limiter middleware.Limiter = middleware.NewMemoryLimiter(nil)
	if app.Redis != nil {
		limiter = middleware.NewRedisLimiter(app.Redis)
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		Signer:      app.Signer,
		Health:      app.Health,
		Limiter:     limiter,
		Users:       users.NewHandler(app.UsersService, app.Signer),
		Transcripts: transcripts.NewHandler(app.TranscriptsService),
		Todos:       todos.NewHandler(app.TodosService),
		Calendar:    calendar.NewHandler(app.CalendarService),
		Assistant:   assistant.NewHandler(app.AssistantService),
		Status:      status.NewHandler(app.StatusService),
	})

	return app, nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Wait blocks until in-process extraction started by this app has finished
// or ctx is done. Close cancels whatever is still running.
func (a *App) Wait(ctx context.Context) {
	if a.Inline == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		a.Inline.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if !cfg.IsProduction() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if !cfg.IsProduction() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func buildRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		if !cfg.IsProduction() {
			telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"error": err})
			return nil, nil
		}
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.TranscriptsRepo = &transcripts.PGRepo{DB: app.DB}
		todoRepo := &todos.PGRepo{DB: app.DB}
		eventRepo := &calendar.PGRepo{DB: app.DB}
		app.TodosRepo = todoRepo
		app.EventsRepo = eventRepo
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.Results = &processing.PGResultsStore{DB: app.DB, Todos: todoRepo, Events: eventRepo}
	} else {
		app.TranscriptsRepo = transcripts.NewMemoryRepo()
		todoRepo := todos.NewMemoryRepo()
		eventRepo := calendar.NewMemoryRepo()
		app.TodosRepo = todoRepo
		app.EventsRepo = eventRepo
		app.UsersRepo = users.NewMemoryRepo()
		app.Results = processing.NewMemoryResultsStore(app.TranscriptsRepo, todoRepo, eventRepo)
	}

	app.Extractor = extract.New(app.LLM)
	app.ProcessingService = &processing.Service{
		Transcripts: app.TranscriptsRepo,
		Extractor:   app.Extractor,
		Results:     app.Results,
		ScanDates:   cfg.ScanTranscriptDates,
	}

	app.TranscriptsService = &transcripts.Service{
		Repo:     app.TranscriptsRepo,
		Store:    app.Store,
		Results:  app.Results,
		MaxBytes: cfg.UploadMaxBytes,
	}

	app.Jobs = &jobs.Handler{
		Processor:     app.ProcessingService,
		Cleaner:       app.TranscriptsService,
		RetentionDays: cfg.RetentionDays,
	}

	if app.Redis != nil {
		opt, err := jobs.RedisOpt(cfg.RedisURL)
		if err != nil {
			return err
		}
		app.Asynq = jobs.NewAsynqEnqueuer(asynq.NewClient(opt))
		app.closers = append(app.closers, app.Asynq.Close)
		app.Enqueuer = app.Asynq
	} else {
		app.Inline = jobs.NewInlineEnqueuer(app.Jobs)
		app.closers = append(app.closers, app.Inline.Close)
		app.Enqueuer = app.Inline
	}
	app.TranscriptsService.Enqueuer = app.Enqueuer

	app.TodosService = &todos.Service{Repo: app.TodosRepo, Transcripts: app.TranscriptsService}
	app.CalendarService = &calendar.Service{Repo: app.EventsRepo, Transcripts: app.TranscriptsService}

	var history assistant.History = assistant.NewMemoryHistory()
	if app.Redis != nil {
		history = assistant.NewRedisHistory(app.Redis)
	}
	app.AssistantService = &assistant.Service{
		Transcripts: app.TranscriptsService,
		LLM:         app.LLM,
		History:     history,
	}

	app.StatusService = &status.Service{
		Transcripts: app.TranscriptsService,
		Todos:       app.TodosService,
		Events:      app.CalendarService,
	}

	app.UsersService = users.NewService(app.UsersRepo)
	return nil
}
