package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/catalog"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/config"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/handler"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/imagedata"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/llm"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/oracle"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/prompt"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/repository"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "configs/config.yml", "path to the YAML config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Starting Lost and Found matching service...")

	// Initialize oracle. Without one the service still accepts reports and
	// every match request fails with a configuration error.
	var matchOracle llm.Oracle
	if providers := cfg.OracleProviders(); len(providers) > 0 {
		matchOracle, err = oracle.New(providers, cfg.MaxFailuresBeforeSwitch, logger)
		if err != nil {
			logger.Warn("Failed to initialize matching oracle", zap.Error(err))
			matchOracle = nil
		} else {
			defer matchOracle.Close()
		}
	}
	if matchOracle == nil {
		logger.Warn("No matching oracle configured. Set GEMINI_API_KEY or configure providers in " + *configPath)
	}

	// Initialize repository
	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	repo, err := repository.NewMatchRepository(cfg.Database.Path, logger)
	if err != nil {
		logger.Fatal("Failed to initialize repository", zap.Error(err))
	}
	defer repo.Close()

	// Initialize catalog
	cat := catalog.New(logger)
	if cfg.Catalog.SeedDemoData {
		cat.SeedDemoData()
		logger.Info("Demo reports loaded")
	}

	// Initialize services
	normalizer := imagedata.NewNormalizer(imagedata.Config{
		FetchTimeout: cfg.Images.FetchTimeout,
		MaxBytes:     cfg.Images.MaxBytes,
	}, logger)

	builder := prompt.NewBuilder(normalizer, prompt.Config{
		MaxCandidates:    cfg.Matching.MaxCandidates,
		ImageConcurrency: cfg.Images.Concurrency,
	}, logger)

	matcher := service.NewMatcher(builder, matchOracle, repo, logger)
	sessions := service.NewSessionManager(matcher, cfg.Matching.SessionTTL, logger)
	notifier := service.NewNotifier(repo, logger)

	metrics.Register()

	// Initialize HTTP handler
	apiHandler := handler.NewHandler(cat, matcher, sessions, notifier, repo, logger)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// Add CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register routes
	apiHandler.RegisterRoutes(router)

	// Background session expiry
	ctx, stop := context.WithCancel(context.Background())
	sweeperDone := make(chan struct{})
	go func() {
		sessions.Run(ctx)
		close(sweeperDone)
	}()

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	// Graceful shutdown
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	modelName := "none"
	if m, ok := matcher.ModelInfo()["model"].(string); ok {
		modelName = m
	}

	logger.Info("Matching service is running",
		zap.String("port", cfg.Server.Port),
		zap.String("model", modelName),
		zap.Int("max_candidates", builder.MaxCandidates()))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stop()
	<-sweeperDone

	logger.Info("Server exited")
}

func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
