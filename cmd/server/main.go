package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wekeepgrowing/billsync/internal/config"
	"github.com/wekeepgrowing/billsync/internal/extraction"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/database"
	httpServer "github.com/wekeepgrowing/billsync/internal/infrastructure/http"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/pdftext"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/portal"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/storage"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/streaming"
	"github.com/wekeepgrowing/billsync/internal/infrastructure/supplier"
	"github.com/wekeepgrowing/billsync/internal/usecase"
	appLogger "github.com/wekeepgrowing/billsync/pkg/logger"
	"github.com/wekeepgrowing/billsync/pkg/messaging"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := appLogger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger = logger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
	)

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, logger); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, logger)

	cipher, err := crypto.NewAESEncryptionService(cfg.Crypto.EncryptionKey)
	if err != nil {
		logger.Fatal("Failed to initialize credential encryption", zap.Error(err))
	}
	vault := crypto.NewCredentialVault(repos.Credential, cipher)

	catalog, err := supplier.LoadDir(cfg.Sync.SupplierDir, logger)
	if err != nil {
		logger.Fatal("Failed to load supplier configurations", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var attachments usecase.AttachmentStore
	if cfg.Storage.Bucket != "" {
		client, err := storage.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			logger.Fatal("Failed to initialize attachment storage", zap.Error(err))
		}
		attachments = storage.NewS3AttachmentStore(client, cfg.Storage.Bucket, cfg.Storage.KeyPrefix, logger)
	} else {
		logger.Warn("storage.bucket not set, bill PDFs will not be stored")
	}

	var pdfText usecase.PDFTextExtractor
	if cfg.PDFText.Enabled {
		pdfText = pdftext.NewClient(cfg.PDFText.BaseURL, cfg.PDFText.APIKey, cfg.PDFText.Timeout, logger)
	}

	var relay *streaming.RedisRelay
	if cfg.Redis.Enabled {
		redisClient, err := messaging.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		relay = streaming.NewRedisRelay(redisClient, cfg.Redis.Channel, logger)
	}

	timeouts := cfg.Sync.Timeouts
	sessions := portal.NewFactory(portal.Timeouts{
		Connect:        timeouts.Connect,
		Read:           timeouts.Read,
		Write:          timeouts.Write,
		TLSHandshake:   timeouts.TLSHandshake,
		ResponseHeader: timeouts.ResponseHeader,
	}, logger)

	dedup := usecase.NewDedupService(repos.Property, repos.Bill, repos.Currency, attachments, cfg.Sync.DefaultCurrency, logger)
	syncService := usecase.NewSyncService(usecase.SyncDependencies{
		Properties:  repos.Property,
		Catalog:     catalog,
		Credentials: vault,
		Sessions:    sessions,
		Extractor:   extraction.NewExtractor(nil, logger),
		Resolver:    usecase.NewBillResolver(),
		Dedup:       dedup,
		PDFText:     pdfText,
		Registry:    usecase.NewSessionRegistry(),
	}, usecase.SyncOptions{
		MaxConcurrentSessions: cfg.Sync.MaxConcurrentSessions,
		SupplierTimeout:       timeouts.SupplierCeiling,
	}, logger)

	httpSrv := httpServer.NewServer(cfg, logger, syncService, relay)

	go func() {
		if err := httpSrv.Start(); err != nil {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	logger.Info("Server shut down successfully")
}
