package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/ai"
	"github.com/xxxsen/accord/internal/backend"
	"github.com/xxxsen/accord/internal/cache"
	"github.com/xxxsen/accord/internal/config"
	"github.com/xxxsen/accord/internal/db"
	"github.com/xxxsen/accord/internal/filestore"
	"github.com/xxxsen/accord/internal/handler"
	"github.com/xxxsen/accord/internal/job"
	"github.com/xxxsen/accord/internal/metrics"
	"github.com/xxxsen/accord/internal/middleware"
	"github.com/xxxsen/accord/internal/repo"
	"github.com/xxxsen/accord/internal/schedule"
	"github.com/xxxsen/accord/internal/service"
)

const (
	unreadCacheTTL = 10 * time.Minute
	commentWindow  = 2 * time.Second
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "accord",
		Short: "accord agreement collaboration server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run accord server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	log := logutil.GetLogger(ctx)
	log.Info("starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("backend", cfg.Backend.URL),
	)

	userRepo := repo.NewUserRepo(conn)
	docRepo := repo.NewDocumentRepo(conn)
	commentRepo := repo.NewCommentRepo(conn)
	notificationRepo := repo.NewNotificationRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	redisClient, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("init redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	fallback, err := newClauseAnalyzer(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	registry := metrics.New()
	backendClient := backend.New(cfg.Backend)

	notificationService := service.NewNotificationService(notificationRepo, cache.NewUnreadCounter(redisClient, unreadCacheTTL))
	mailService := service.NewMailService(service.NewEmailSender(cfg.Mail))
	witnessService := service.NewWitnessService(docRepo, backendClient, store, notificationService, registry)
	witnessService.SetStaleAge(2 * time.Duration(cfg.Backend.Timeout) * time.Second)
	documentService := service.NewDocumentService(service.DocumentServiceDeps{
		Docs:          docRepo,
		Store:         store,
		Witness:       witnessService,
		Notifications: notificationService,
		Mail:          mailService,
		MaxUpload:     cfg.UploadMaxBytes,
	})
	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Hour*time.Duration(cfg.JWTTTLHours))
	commentService := service.NewCommentService(commentRepo, docRepo)
	analysisService := service.NewAnalysisService(documentService, backendClient, fallback, registry)
	generationService := service.NewGenerationService(backendClient)
	exportService := service.NewExportService(documentService)

	deps := handler.RouterDeps{
		Auth:          handler.NewAuthHandler(authService),
		Documents:     handler.NewDocumentHandler(documentService),
		Files:         handler.NewFileHandler(documentService, store, cfg.UploadMaxBytes),
		Export:        handler.NewExportHandler(exportService),
		Comments:      handler.NewCommentHandler(commentService),
		Witness:       handler.NewWitnessHandler(witnessService),
		AI:            handler.NewAIHandler(analysisService, generationService),
		Notifications: handler.NewNotificationHandler(notificationService),
		Mail:          handler.NewMailHandler(mailService),
		Metrics:       registry,
		JWTSecret:     []byte(cfg.JWTSecret),
		CommentWindow: commentWindow,
	}

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewWitnessRetryJob(witnessService), cfg.Jobs.WitnessRetrySpec); err != nil {
		return err
	}
	keep := time.Duration(cfg.Jobs.NotificationKeepDays) * 24 * time.Hour
	if err := scheduler.AddJob(job.NewNotificationCleanupJob(notificationService, keep), cfg.Jobs.NotificationCleanupSpec); err != nil {
		return err
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			registry.Middleware(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	log.Info("http server listening", zap.String("addr", addr))

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server stopping...")
	return nil
}

// newClauseAnalyzer builds the optional LLM fallback. It returns nil when no
// provider is configured.
func newClauseAnalyzer(cfg config.AIConfig) (service.ClauseAnalyzer, error) {
	if cfg.Provider == "" {
		return nil, nil
	}
	args := cfg.Data
	if args == nil {
		args = map[string]interface{}{}
	}
	provider, err := ai.NewProvider(cfg.Provider, args)
	if err != nil {
		return nil, err
	}
	generator := ai.NewGroupGenerator([]ai.GeneratorEntry{{
		Name:      provider.Name(),
		Generator: ai.NewGenerator(provider, cfg.Model),
	}})
	return ai.NewAnalyzer(generator, ai.AnalyzerConfig{
		Timeout:       cfg.Timeout,
		MaxInputChars: cfg.MaxInputChars,
	}), nil
}
