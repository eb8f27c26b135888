package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appAuth "github.com/ozan/classpoint/internal/app/auth"
	appControllers "github.com/ozan/classpoint/internal/app/controllers"
	appMigrations "github.com/ozan/classpoint/internal/app/migrations"
	appRepos "github.com/ozan/classpoint/internal/app/repositories"
	appRoutes "github.com/ozan/classpoint/internal/app/routes"
	appServices "github.com/ozan/classpoint/internal/app/services"
	"github.com/ozan/classpoint/internal/config"
	"github.com/ozan/classpoint/internal/db"
	appMiddleware "github.com/ozan/classpoint/internal/middleware"
	pkgAuth "github.com/ozan/classpoint/internal/pkg/auth"
	"github.com/ozan/classpoint/internal/pkg/email"
	"github.com/ozan/classpoint/internal/pkg/filestorage"
	"github.com/ozan/classpoint/internal/pkg/helpers"
	"github.com/ozan/classpoint/internal/pkg/logger"
	"github.com/ozan/classpoint/internal/pkg/meeting"
	"github.com/ozan/classpoint/internal/pkg/otp"
	"github.com/ozan/classpoint/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService          *appServices.AuthService
	CourseService        *appServices.CourseService
	SessionService       *appServices.SessionService
	AttendanceService    *appServices.AttendanceService
	AssignmentService    *appServices.AssignmentService
	SubmissionService    *appServices.SubmissionService
	AuthController       *appControllers.AuthController
	CourseController     *appControllers.CourseController
	SessionController    *appControllers.SessionController
	AttendanceController *appControllers.AttendanceController
	AssignmentController *appControllers.AssignmentController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	Repos                *appRepos.Repositories
	JWTService           *pkgAuth.JWTService
	AuthzService         *appAuth.AuthorizationService
	Logger               zerolog.Logger
	FileStorage          *filestorage.LocalStorage
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default accounts.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(context.Background(), migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// SetupRedis establishes the Redis connection used for one-time codes.
func SetupRedis(cfg *config.Config, lgr zerolog.Logger) (*redis.Client, error) {
	lgr.Info().Str("addr", cfg.Redis.Addr).Msg("Establishing Redis connection...")
	client, err := db.NewRedisClient(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to Redis")
		return nil, err
	}
	lgr.Info().Msg("Redis connection successfully established.")
	return client, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, redisClient *redis.Client, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(dbPool)

	// File storage baseURL must match the static file serving endpoint
	fileStorageBaseURL := cfg.Server.BaseURL + "/uploads"
	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.AuthzService = appAuth.NewAuthorizationService(
		deps.Repos.UserRepository,
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.Repos.SessionRepository,
	)

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	otpStore := otp.NewStore(redisClient, helpers.ParseDuration(cfg.OTP.CodeTTL, 15*time.Minute))

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
	}, lgr)

	linkProvider := meeting.NewRoomProvider(cfg.Meeting.BaseURL)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.JWTService,
		otpStore,
		emailService,
		lgr,
	)

	deps.CourseService = appServices.NewCourseService(
		deps.Repos.CourseRepository,
		deps.Repos.EnrollmentRepository,
		deps.Repos.UserRepository,
		deps.AuthzService,
		lgr,
	)

	deps.AttendanceService = appServices.NewAttendanceService(
		deps.Repos.AttendanceRepository,
		deps.Repos.SessionRepository,
		deps.AuthzService,
		lgr,
	)

	deps.SessionService = appServices.NewSessionService(
		deps.Repos.SessionRepository,
		deps.Repos.CourseRepository,
		deps.AttendanceService,
		linkProvider,
		deps.AuthzService,
		lgr,
	)

	deps.AssignmentService = appServices.NewAssignmentService(
		deps.Repos.AssignmentRepository,
		deps.AuthzService,
		lgr,
	)

	deps.SubmissionService = appServices.NewSubmissionService(
		deps.Repos.SubmissionRepository,
		deps.Repos.AssignmentRepository,
		deps.FileStorage,
		deps.AuthzService,
		lgr,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.CourseController = appControllers.NewCourseController(deps.CourseService)
	deps.SessionController = appControllers.NewSessionController(deps.SessionService)
	deps.AttendanceController = appControllers.NewAttendanceController(deps.AttendanceService)
	deps.AssignmentController = appControllers.NewAssignmentController(deps.AssignmentService, deps.SubmissionService)

	appMiddleware.SetDebugErrors(cfg.Server.DebugErrors)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.Default()

	// Serve uploaded submission files
	router.Static("/uploads", cfg.Server.StoragePath)

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CourseController,
		deps.SessionController,
		deps.AttendanceController,
		deps.AssignmentController,
		deps.AuthMiddleware,
	)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
