package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"lms/internal/api/v1/handler"
	"lms/internal/cache"
	"lms/internal/config"
	"lms/internal/event"
	"lms/internal/middleware"
	"lms/internal/pubsub"
	"lms/internal/repository"
	"lms/internal/secrets"
	"lms/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires the whole application: DB pool, S3 client, cache, event plugins,
// repositories, services and handlers. It returns the root handler, the DB
// handle for the caller to close, and the tenant sync scheduler.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *sql.DB, *service.SyncScheduler, error) {
	// 1. Open DB connection (connection pooling)
	dsn := cfg.DBConnectionString
	// In a development environment, we want to ensure that SSL is disabled for
	// local testing. In production, the connection string should be provided
	// with the correct SSL settings.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := " "
		if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
			if strings.Contains(dsn, "?") {
				separator = "&"
			} else {
				separator = "?"
			}
		}
		dsn += separator + "sslmode=disable"
	}
	// For non-development environments that use a transaction pooler like pgbouncer,
	// we must use the simple query protocol to avoid issues with server-side prepared statements.
	if cfg.Environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		separator := "&"
		if !strings.Contains(dsn, "?") {
			separator = "?"
		}
		dsn += separator + "prefer_simple_protocol=true"
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, nil, err
	}
	if err := db.Ping(); err != nil {
		logger.Error().Err(err).Msg("Failed to ping DB")
		return nil, nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// 2. Initialize S3 client
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Validator and cache
	validate := validator.New(validator.WithRequiredStructEnabled())
	memCache := cache.New(
		time.Duration(cfg.CacheTTLSec)*time.Second,
		time.Duration(cfg.CacheSweepSec)*time.Second,
	)

	// 4. Event emitter, with an optional Pub/Sub relay
	emitter := event.NewEmitter(logger)
	if cfg.GCPProjectID != "" && cfg.EventTopic != "" {
		publisher, err := pubsub.NewPublisher(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create Pub/Sub publisher")
			return nil, nil, nil, err
		}
		emitter = emitter.WithRelay(publisher, cfg.EventTopic)
	}

	// 5. Secret store is optional; without it webhooks go out unsigned and
	// secret rotation is rejected.
	var secretStore secrets.Store
	if cfg.GCPProjectID != "" {
		secretStore, err = secrets.NewStore(context.Background(), cfg)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to create secret store")
			return nil, nil, nil, err
		}
	} else {
		logger.Warn().Msg("GCP project not set, secret store disabled")
	}

	// 6. Repositories
	tenantRepo := repository.NewTenantRepo(db)
	courseRepo := repository.NewCourseRepo(db)
	moduleRepo := repository.NewModuleRepo(db)
	lessonRepo := repository.NewLessonRepo(db)
	mediaRepo := repository.NewMediaRepo(db)
	enrollmentRepo := repository.NewEnrollmentRepo(db)
	trackRepo := repository.NewTrackRepo(db)

	// 7. Services
	tenantSvc := service.NewTenantService(
		tenantRepo, memCache, secretStore, emitter,
		cfg.ConfigServiceBaseURL, cfg.ConfigServiceAPIKey, cfg.TenantDefaultsPath,
		time.Duration(cfg.ConfigServiceTimeoutSec)*time.Second,
		logger,
	)
	courseSvc := service.NewCourseService(courseRepo, lessonRepo, memCache, logger)
	moduleSvc := service.NewModuleService(moduleRepo, courseRepo, logger)
	lessonSvc := service.NewLessonService(lessonRepo, moduleRepo, mediaRepo, logger)
	mediaSvc := service.NewMediaService(
		mediaRepo, tenantSvc, s3Client, cfg.S3Bucket,
		time.Duration(cfg.PresignExpirySec)*time.Second,
		emitter, logger,
	)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, courseRepo, emitter, logger)
	trackingSvc := service.NewTrackingService(trackRepo, lessonRepo, enrollmentRepo, tenantSvc, courseRepo, emitter, logger)
	syncScheduler := service.NewSyncScheduler(tenantSvc, logger)

	// 8. Event plugins
	registry := event.NewRegistry(logger)
	registry.Register(event.NewAuditPlugin(logger))
	registry.Register(event.NewWebhookPlugin(tenantSvc, secretStore, logger))
	if cfg.SendGridAPIKey != "" {
		registry.Register(event.NewNotifierPlugin(tenantSvc, cfg.SendGridAPIKey, cfg.SenderEmail, cfg.SenderName, logger))
	}
	registry.Attach(emitter)
	pluginNames := make([]string, 0, len(registry.Plugins()))
	for _, p := range registry.Plugins() {
		pluginNames = append(pluginNames, p.Name())
	}
	logger.Info().Strs("plugins", pluginNames).Msg("Event plugins attached")

	// 9. Handlers
	courseHandler := handler.NewCourseHandler(courseSvc, moduleSvc, enrollmentSvc, trackingSvc, validate)
	moduleHandler := handler.NewModuleHandler(moduleSvc, lessonSvc, validate)
	lessonHandler := handler.NewLessonHandler(lessonSvc, trackingSvc, validate)
	mediaHandler := handler.NewMediaHandler(mediaSvc, validate)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc, validate)
	tenantHandler := handler.NewTenantHandler(tenantSvc, validate, logger)

	// 10. Middleware: JWT auth, then tenant resolution on every request
	jwtMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	tenantMiddleware := middleware.TenantMiddleware(tenantSvc, logger)
	authMiddleware := func(next http.Handler) http.Handler {
		return jwtMiddleware(tenantMiddleware(next))
	}
	isLocalDev := cfg.Environment == "development"
	pushAuthMiddleware := middleware.PushAuthMiddleware(isLocalDev, cfg.PushAudienceURL, cfg.PushServiceAccountEmail, logger)

	// 11. Routes
	apiV1Mux := http.NewServeMux()
	courseHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	moduleHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	lessonHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	mediaHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	enrollmentHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	tenantHandler.RegisterRoutes(apiV1Mux, authMiddleware, pushAuthMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Swagger documentation
	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	// 12. CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), db, syncScheduler, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
