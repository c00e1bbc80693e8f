package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lshigami/mockdrive/config"
	"github.com/lshigami/mockdrive/database"
	adminctrl "github.com/lshigami/mockdrive/internal/controller/admin"
	userctrl "github.com/lshigami/mockdrive/internal/controller/user"
	"github.com/lshigami/mockdrive/internal/generator"
	"github.com/lshigami/mockdrive/internal/interview"
	"github.com/lshigami/mockdrive/internal/judge"
	"github.com/lshigami/mockdrive/internal/middleware"
	"github.com/lshigami/mockdrive/internal/repository"
	"github.com/lshigami/mockdrive/internal/retry"
	"github.com/lshigami/mockdrive/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// coreModule provides configuration, storage and the external collaborators.
var coreModule = fx.Options(
	fx.Provide(
		config.NewConfig,
		database.NewDatabase,
		service.NewClock,
		NewExecutor,
		interview.NewGeminiInterviewer,
		generator.NewGeminiGenerator,
		retry.DefaultConfig,
	),
	fx.Invoke(database.AutoMigrate),
)

var repositoryModule = fx.Provide(
	repository.NewMockDriveRepository,
	repository.NewAttemptRepository,
	repository.NewQuestionRepository,
	repository.NewProblemRepository,
	repository.NewBankRepository,
	repository.NewSubmissionRepository,
	repository.NewInterviewRepository,
	repository.NewResultRepository,
)

var serviceModule = fx.Provide(
	service.NewAttemptGuard,
	service.NewQuestionSource,
	service.NewProblemSource,
	service.NewAptitudeService,
	service.NewCodingService,
	service.NewInterviewService,
	service.NewResultService,
	service.NewAttemptService,
	service.NewMigrationService,
	service.NewReaper,
)

// NewExecutor builds the Judge0 client from configuration.
func NewExecutor(cfg *config.Config) judge.Executor {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = cfg.Judge.MaxRetries
	return judge.NewJudge0Client(judge.Judge0Config{
		BaseURL:      cfg.Judge.BaseURL,
		AuthToken:    cfg.Judge.AuthToken,
		PollInterval: cfg.Judge.PollInterval,
		MaxPolls:     cfg.Judge.MaxPolls,
		Retry:        rc,
	})
}

func NewGinEngine(cfg *config.Config) *gin.Engine {
	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// URL: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

// RegisterRoutesAndStartServer mounts the API and ties the HTTP server to the fx lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	attemptCtrl *userctrl.AttemptController,
	contentCtrl *adminctrl.ContentController,
) {
	api := router.Group("/api/v1", middleware.Auth(cfg.Auth.JWTSecret))
	attemptCtrl.RegisterRoutes(api)
	contentCtrl.RegisterRoutes(api.Group("/admin", middleware.RequireAdmin()))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Mock drive API starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			return server.Shutdown(ctx)
		},
	})
}

// RunReaper sweeps expired attempts for as long as the app runs.
func RunReaper(lc fx.Lifecycle, reaper *service.Reaper) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			reaper.Start()
			return nil
		},
		OnStop: reaper.Stop,
	})
}

// CloseDatabase releases the connection pool on shutdown.
func CloseDatabase(lc fx.Lifecycle, db *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
}

// runOnce builds the dependency graph, runs fn and shuts everything down again.
func runOnce(ctx context.Context, fn any) error {
	app := fx.New(
		coreModule,
		repositoryModule,
		serviceModule,
		fx.Invoke(CloseDatabase),
		fx.NopLogger,
		fx.Invoke(fn),
	)
	if err := app.Err(); err != nil {
		return err
	}
	if err := app.Start(ctx); err != nil {
		return err
	}
	return app.Stop(ctx)
}
