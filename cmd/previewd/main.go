package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/config"
	"portfolio_preview/internal/connector"
	"portfolio_preview/internal/infrastructure/balancecache"
	"portfolio_preview/internal/infrastructure/chains"
	"portfolio_preview/internal/infrastructure/httpclient"
	evmclient "portfolio_preview/internal/infrastructure/network/client"
	"portfolio_preview/internal/infrastructure/restapi"
	"portfolio_preview/internal/pkg/logger"
	"portfolio_preview/internal/pkg/metrics"
)

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	cfgPath := getEnv("CONFIG_PATH", "config/config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.InitZap(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize zap logger: %v", err)
	}
	defer zapLogger.Sync()
	appLogger := logger.NewSlogAdapter()

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	chainReg := chains.NewRegistry()

	var indexer port.ChainScanner
	if cfg.Providers.HasIndexer() {
		indexer = httpclient.NewIndexerClient(
			cfg.Providers.Indexer.BaseURL,
			cfg.Providers.Indexer.APIKey,
			time.Duration(cfg.Providers.Indexer.RequestTimeoutMillis)*time.Millisecond,
			cfg.Providers.Indexer.MaxPages,
			cfg.Providers.Indexer.MaxRetries,
			time.Duration(cfg.Providers.Indexer.RetryDelayMillis)*time.Millisecond,
			zapLogger,
		)
		zapLogger.Info("Indexer provider configured")
	}

	var explorer port.ChainScanner
	if cfg.Providers.HasExplorer() {
		explorerClient := httpclient.NewExplorerClient(
			cfg.Providers.Explorer.APIKey,
			time.Duration(cfg.Providers.Explorer.RequestTimeoutMillis)*time.Millisecond,
			cfg.Providers.Explorer.MaxRetries,
			time.Duration(cfg.Providers.Explorer.RetryDelayMillis)*time.Millisecond,
			zapLogger,
		)
		explorer = service.NewExplorerScanner(
			explorerClient,
			cfg.Providers.Explorer.PageSize,
			cfg.Providers.Explorer.MaxTransferWindow,
		)
		zapLogger.Info("Explorer provider configured")
	}

	var priceRegistry port.PriceRegistry
	if cfg.Providers.HasRegistry() {
		priceRegistry = httpclient.NewRegistryClient(
			cfg.Providers.Registry.BaseURL,
			cfg.Providers.Registry.APIKey,
			time.Duration(cfg.Providers.Registry.RequestTimeoutMillis)*time.Millisecond,
			cfg.Providers.Registry.MaxRetries,
			time.Duration(cfg.Providers.Registry.RetryDelayMillis)*time.Millisecond,
			cfg.Providers.Registry.MaxSymbolsPerRequest,
			zapLogger,
		)
		zapLogger.Info("Price registry configured")
	} else {
		zapLogger.Warn("Price registry not configured, enrichment disabled")
	}

	rpcProvider := evmclient.NewEVMClientProvider(10*time.Second, appLogger)
	cache := balancecache.New(time.Duration(cfg.Scan.BalanceCacheTTLMinutes) * time.Minute)

	scanners := service.ResolveScanners(cfg, indexer, explorer)
	scanSvc := service.NewScanService(scanners, rpcProvider, cache, cfg, appLogger)

	enrichSvc := service.NewEnrichService(priceRegistry, chainReg, appLogger)
	filterSvc := service.NewFilterService(&cfg.Filter, appLogger)
	assembleSvc := service.NewAssembleService(appLogger)

	registry := connector.NewRegistry(
		connector.NewCSVConnector(enrichSvc, filterSvc, assembleSvc, cfg.Debug, appLogger),
		connector.NewJSONConnector(enrichSvc, filterSvc, assembleSvc, cfg.Debug, appLogger),
		connector.NewWalletConnector(scanSvc, chainReg, cfg, enrichSvc, filterSvc, assembleSvc, appLogger),
	)
	zapLogger.Info("Connectors registered", zap.Strings("ids", registry.IDs()))

	previewHandler := restapi.NewPreviewHandler(registry)
	router := restapi.SetupRouter(previewHandler, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info(fmt.Sprintf("Server starting on %s", cfg.Server.Port))
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
