package router

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"stepable/internal/api/v1/handler"
	"stepable/internal/config"
	"stepable/internal/middleware"
	"stepable/internal/pgmq"
	"stepable/internal/pubsub"
	"stepable/internal/repository"
	"stepable/internal/service"
	"stepable/internal/storage"
	"stepable/internal/supabase"
	"stepable/internal/util"

	"github.com/go-playground/validator/v10"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// App bundles the HTTP handler with the resources main has to release.
type App struct {
	Handler   http.Handler
	DB        *sql.DB
	publisher *pubsub.PubSubPublisher
}

func (a *App) Close() {
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.DB != nil {
		a.DB.Close()
	}
}

// PrepareDSN adjusts the connection string for the environment. Development
// gets sslmode=disable unless set; elsewhere a transaction pooler sits in
// front of the database, which requires the simple query protocol.
func PrepareDSN(dsn, environment string) string {
	if environment == "development" && !strings.Contains(dsn, "sslmode") {
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
	if environment != "development" && !strings.Contains(dsn, "prefer_simple_protocol") {
		separator := "&"
		if !strings.Contains(dsn, "?") {
			separator = "?"
		}
		dsn += separator + "prefer_simple_protocol=true"
	}
	return dsn
}

// OpenDB opens and pings the pool.
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", PrepareDSN(cfg.DBConnectionString, cfg.Environment))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	ctx := context.Background()
	logger.Info().Str("environment", cfg.Environment).Msg("App environment loaded")
	logger.Info().Str("db_connection_string_port_check", getPortFromDSN(cfg.DBConnectionString)).Msg("DB connection string port")

	// 1. Open DB connection (connection pooling)
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info().Msg("Database connection successful")
	app := &App{DB: db}

	// 2. Initialize S3 client
	s3Client, err := storage.NewS3Client(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	// 3. Initialize validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 4. Initialize Pub/Sub publisher, queue and secrets
	publisher, err := pubsub.NewPublisher(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create Pub/Sub publisher: %w", err)
	}
	app.publisher = publisher
	queue := pgmq.New(db)
	secrets, err := service.NewSecretManagerService(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create secret manager client: %w", err)
	}

	// 5. Hosted auth client
	supabaseClient := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	messages := service.NewAuthMessages(cfg.DefaultLanguage)
	demo := service.DemoLogin{
		Enabled:  cfg.DemoLoginEnabled,
		Email:    cfg.DemoEmail,
		Password: cfg.DemoPassword,
		Secret:   cfg.JWTSecret,
	}
	if demo.Enabled && util.IsPEMKey(cfg.JWTSecret) {
		logger.Warn().Msg("Demo login disabled: SUPABASE_JWT_SECRET is a public key")
		demo.Enabled = false
	}

	// 6. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(db)
	projectRepo := repository.NewProjectRepo(db, logger)
	moduleRepo := repository.NewModuleRepo(db)
	progressRepo := repository.NewProgressRepo(db)
	achievementRepo := repository.NewAchievementRepo(db)
	documentRepo := repository.NewDocumentRepo(db, logger)
	integrationRepo := repository.NewIntegrationRepo(db)
	assistantRepo := repository.NewAssistantRepo(db)
	dlqRepo := repository.NewDLQRepository(db)

	authSvc := service.NewAuthService(supabaseClient, messages, demo, cfg.AuthRedirectURL, logger)
	userSvc := service.NewUserService(userRepo, cfg.DefaultLanguage)
	projectSvc := service.NewProjectService(projectRepo, logger)
	journeySvc := service.NewJourneyService(projectSvc, moduleRepo, progressRepo, achievementRepo, logger)
	lessonSvc := service.NewLessonService(projectSvc, moduleRepo, progressRepo)
	progressSvc := service.NewProgressService(projectSvc, moduleRepo, progressRepo, publisher, cfg.PubSubProgressTopic, queue, cfg.AchievementQueueName, logger)
	documentSvc := service.NewDocumentService(projectSvc, documentRepo, storage.NewS3Store(s3Client, cfg.S3Bucket), logger)
	integrationSvc := service.NewIntegrationService(projectSvc, integrationRepo, secrets, logger)
	assistantSvc := service.NewAssistantService(assistantRepo, nil, logger)
	dashboardSvc := service.NewDashboardService(userRepo, projectRepo, moduleRepo, progressRepo, journeySvc)
	dlqSvc := service.NewDLQService(dlqRepo, logger)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret, logger)
	isLocalDev := cfg.PubSubEmulatorHost != ""
	pubsubAuthMiddleware := middleware.PubSubAuthMiddleware(isLocalDev, cfg.DLQEndpointURL, cfg.PubSubPushServiceAccountEmail, logger)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	apiV1Mux := http.NewServeMux()
	handler.NewAuthHandler(authSvc, messages, validate, logger).RegisterRoutes(apiV1Mux)
	handler.NewUserHandler(userSvc, validate).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewProjectHandler(projectSvc, validate, logger).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewJourneyHandler(journeySvc, lessonSvc).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewLessonHandler(lessonSvc, progressSvc, validate).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewDocumentHandler(documentSvc, validate, logger).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewIntegrationHandler(integrationSvc, validate).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewAssistantHandler(assistantSvc, validate).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewDashboardHandler(dashboardSvc).RegisterRoutes(apiV1Mux, authMiddleware)
	handler.NewDLQHandler(dlqSvc, logger).RegisterRoutes(apiV1Mux, pubsubAuthMiddleware, authMiddleware)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Swagger documentation
	mux.HandleFunc("/swagger/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./docs/swagger/swagger.json")
	})
	mux.Handle("/swagger/", http.StripPrefix("/swagger/", http.FileServer(http.Dir("./docs/swagger/swagger-ui"))))

	// Redirect /api/* to /v1/* for backward compatibility
	mux.HandleFunc("/api/", redirectAPI)

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	app.Handler = middleware.LoggerMiddleware(logger)(c.Handler(mux))
	logger.Info().Msg("Router initialized")
	return app, nil
}

// getPortFromDSN extracts the port from a DSN string for debugging.
func getPortFromDSN(dsn string) string {
	parts := strings.Split(dsn, ":")
	for i, part := range parts {
		if strings.Contains(part, "@") {
			if len(parts) > i+1 {
				portAndDB := strings.Split(parts[i+1], "/")
				if len(portAndDB) > 0 {
					return portAndDB[0]
				}
			}
		}
	}
	return "not_found"
}

// redirectAPI keeps the method and body (308) and the query string.
func redirectAPI(w http.ResponseWriter, r *http.Request) {
	target := "/v1/" + strings.TrimPrefix(r.URL.Path, "/api/")
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusPermanentRedirect)
}
