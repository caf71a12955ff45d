package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"soltax/internal/chain"
	"soltax/internal/client"
	"soltax/internal/config"
	"soltax/internal/pkg/utils"
	"soltax/internal/restapi"
	"soltax/internal/retry"
	"soltax/internal/service"
	"soltax/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()

	slogHandler := zapslog.NewHandler(zapLogger.Core(), &zapslog.HandlerOptions{})
	stdLogger := slog.New(slogHandler)
	slog.SetDefault(stdLogger)

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		log.Warnf("Invalid log level in config: %s. Defaulting to Info.", cfg.Logging.Level)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			log.SetOutput(file)
		} else {
			log.Infof("Failed to log to file, using default stdout: %v", err)
		}
	}

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	chainClient := chain.NewSolanaClient(cfg, zapLogger)
	zapLogger.Info("Solana RPC client initialized", zap.String("endpoint", cfg.RPC.Endpoint))

	priceRequestTimeout := time.Duration(cfg.PriceSvc.RequestTimeoutMillis) * time.Millisecond
	priceClient := client.NewJupiterPriceClient(
		cfg.PriceSvc.BaseURL,
		priceRequestTimeout,
		zapLogger,
		cfg.PriceSvc.MaxMintsPerBatch,
	)
	zapLogger.Info("Jupiter price client initialized")

	tokenListTimeout := time.Duration(cfg.TokenList.RequestTimeoutMillis) * time.Millisecond
	tokenListClient := client.NewJupiterTokenListClient(cfg.TokenList.URL, tokenListTimeout, zapLogger)

	retryPolicy := retry.Policy{
		MaxAttempts: cfg.RPC.MaxRetries,
		BaseDelay:   time.Duration(cfg.RPC.RetryBaseDelayMs) * time.Millisecond,
		Multiplier:  cfg.RPC.RetryBackoffMultiplier,
		MaxDelay:    time.Duration(cfg.RPC.MaxRetryDelayMs) * time.Millisecond,
	}

	priceSvc := service.NewPriceService(zapLogger, cfg, priceClient)
	metaSvc := service.NewMetadataService(zapLogger, chainClient, tokenListClient)
	fetcher := service.NewTransactionFetcher(zapLogger, chainClient, retryPolicy, cfg.Fetcher.MaxConcurrentFetches)
	classifier := service.NewClassifier(zapLogger, priceSvc, metaSvc)
	reportSvc := service.NewReportService(zapLogger, chainClient, fetcher, classifier, priceSvc, metaSvc, cfg, retryPolicy)
	zapLogger.Info("ReportService initialized")

	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true // Adjust for production
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	router.Use(restapi.ZapLoggerMiddleware(zapLogger))
	router.Use(gin.Recovery())

	handler := restapi.NewReportHandler(reportSvc, cfg.RPC.Endpoint, zapLogger)
	restapi.RegisterRoutes(router, handler)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	zapLogger.Info("Prometheus metrics endpoint enabled", zap.String("path", "/metrics"))

	// Protect these in a production environment.
	pprofRouter := router.Group("/debug/pprof")
	{
		pprofRouter.GET("/", gin.WrapF(pprof.Index))
		pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
		pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
		pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
		pprofRouter.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
		pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	}
	zapLogger.Info("Pprof endpoints enabled under /debug/pprof")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on port %s", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting")
}
