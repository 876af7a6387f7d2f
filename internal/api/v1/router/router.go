package router

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"clientzap/internal/api/v1/handler"
	"clientzap/internal/config"
	"clientzap/internal/middleware"
	"clientzap/internal/migrations"
	"clientzap/internal/repository"
	"clientzap/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// New wires repositories, services and handlers into the HTTP handler tree.
// The returned pool must be closed by the caller on shutdown.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	dsn := cfg.DBConnectionString
	// Local postgres typically runs without TLS.
	if cfg.Environment == "development" && !strings.Contains(dsn, "sslmode") {
		separator := "?"
		if strings.Contains(dsn, "?") {
			separator = "&"
		}
		dsn += separator + "sslmode=disable"
	}

	// Migrations go through database/sql: golang-migrate's postgres driver
	// wants a *sql.DB. The handle is closed once the schema is current.
	migrateDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.Up(migrateDB); err != nil {
		migrateDB.Close()
		return nil, nil, err
	}
	if err := migrateDB.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close migration connection")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info().Msg("Database connection successful")

	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
	)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepo(pool)
	formRepo := repository.NewFormRepo(pool)
	submissionRepo := repository.NewSubmissionRepo(pool)
	contractRepo := repository.NewContractRepo(pool)

	entitlementSvc := service.NewEntitlementService()
	userSvc := service.NewUserService(userRepo, logger)
	stripeSvc := service.NewStripeService(cfg, userRepo, logger)
	formSvc := service.NewFormService(formRepo, submissionRepo, userRepo, entitlementSvc, logger)
	contractSvc := service.NewContractService(contractRepo, userRepo, entitlementSvc, s3Client, cfg.S3Bucket, logger)

	userHandler := handler.NewUserHandler(userSvc, logger)
	billingHandler := handler.NewBillingHandler(stripeSvc, formSvc, validate, logger)
	formHandler := handler.NewFormHandler(formSvc, validate, logger)
	contractHandler := handler.NewContractHandler(contractSvc, validate, logger)

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	apiV1Mux := http.NewServeMux()
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	billingHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	formHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	contractHandler.RegisterRoutes(apiV1Mux, authMiddleware)

	mux := http.NewServeMux()
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.LoggerMiddleware(logger, c.Handler(mux)), pool, nil
}
