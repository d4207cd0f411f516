// Package bootstrap wires configuration, database, repositories, services
// and controllers into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/pkontaxis/thesisdesk/internal/app/controllers"
	appMigrations "github.com/pkontaxis/thesisdesk/internal/app/migrations"
	appRepos "github.com/pkontaxis/thesisdesk/internal/app/repositories"
	appRoutes "github.com/pkontaxis/thesisdesk/internal/app/routes"
	appServices "github.com/pkontaxis/thesisdesk/internal/app/services"
	"github.com/pkontaxis/thesisdesk/internal/config"
	"github.com/pkontaxis/thesisdesk/internal/db"
	appMiddleware "github.com/pkontaxis/thesisdesk/internal/middleware"
	pkgAuth "github.com/pkontaxis/thesisdesk/internal/pkg/auth"
	"github.com/pkontaxis/thesisdesk/internal/pkg/filestorage"
	"github.com/pkontaxis/thesisdesk/internal/pkg/helpers"
	"github.com/pkontaxis/thesisdesk/internal/pkg/logger"
	"github.com/pkontaxis/thesisdesk/internal/pkg/validation"
	"github.com/pkontaxis/thesisdesk/internal/seed"
)

// Dependencies holds every constructed application component.
type Dependencies struct {
	Repos       *appRepos.Repositories
	FileStorage *filestorage.LocalStorage
	JWTService  *pkgAuth.JWTService
	Logger      zerolog.Logger

	AuthService         appServices.AuthService
	TopicService        appServices.TopicService
	ThesisService       appServices.ThesisService
	InvitationService   appServices.InvitationService
	AttachmentService   appServices.AttachmentService
	PresentationService appServices.PresentationService
	GradeService        appServices.GradeService
	SecretaryService    appServices.SecretaryService

	AuthController         *appControllers.AuthController
	TopicController        *appControllers.TopicController
	ThesisController       *appControllers.ThesisController
	InvitationController   *appControllers.InvitationController
	AttachmentController   *appControllers.AttachmentController
	PresentationController *appControllers.PresentationController
	GradeController        *appControllers.GradeController
	SecretaryController    *appControllers.SecretaryController

	AuthMiddleware *appMiddleware.AuthMiddleware
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.Config{
		Level:  strings.ToLower(cfg.Logging.Level),
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default secretary account.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := database.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection established")

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool)
	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations applied")

	if err := seed.CreateDefaultData(context.Background(), database.Pool, lgr); err != nil {
		// Seeding failure is not fatal; an operator can create accounts by hand.
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway")
	}

	return database, nil
}

// BuildDependencies initializes repositories, services and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, "")
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 8*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.AuthService = appServices.NewAuthService(deps.Repos.User, deps.JWTService)
	deps.TopicService = appServices.NewTopicService(deps.Repos.Topic, deps.Repos.Thesis, deps.FileStorage)
	deps.ThesisService = appServices.NewThesisService(
		database,
		deps.Repos.Thesis,
		deps.Repos.Topic,
		deps.Repos.User,
		deps.Repos.Committee,
		deps.Repos.Attachment,
		deps.Repos.Presentation,
	)
	deps.InvitationService = appServices.NewInvitationService(
		database,
		deps.Repos.Invitation,
		deps.Repos.Committee,
		deps.Repos.Thesis,
		deps.Repos.User,
	)
	deps.AttachmentService = appServices.NewAttachmentService(
		deps.Repos.Attachment,
		deps.Repos.Thesis,
		deps.Repos.Committee,
		deps.FileStorage,
		cfg,
	)
	deps.PresentationService = appServices.NewPresentationService(deps.Repos.Presentation, deps.Repos.Thesis, deps.Repos.Committee)
	deps.GradeService = appServices.NewGradeService(deps.Repos.Grade, deps.Repos.Thesis, deps.Repos.Committee)
	deps.SecretaryService = appServices.NewSecretaryService(
		database,
		deps.Repos.Thesis,
		deps.Repos.Topic,
		deps.Repos.User,
		deps.GradeService,
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.User)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.TopicController = appControllers.NewTopicController(deps.TopicService, lgr)
	deps.ThesisController = appControllers.NewThesisController(deps.ThesisService, lgr)
	deps.InvitationController = appControllers.NewInvitationController(deps.InvitationService, lgr)
	deps.AttachmentController = appControllers.NewAttachmentController(deps.AttachmentService, lgr)
	deps.PresentationController = appControllers.NewPresentationController(deps.PresentationService, lgr)
	deps.GradeController = appControllers.NewGradeController(deps.GradeService, lgr)
	deps.SecretaryController = appControllers.NewSecretaryController(deps.SecretaryService, lgr)

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

	validation.RegisterBindingRules()

	router := gin.New()
	router.Use(appMiddleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(appMiddleware.RequestLogger())
	router.Use(gin.Recovery())

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.TopicController,
		deps.ThesisController,
		deps.InvitationController,
		deps.AttachmentController,
		deps.PresentationController,
		deps.GradeController,
		deps.SecretaryController,
		deps.AuthMiddleware,
	)

	return router
}
