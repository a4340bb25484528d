package main

import (
	"context"
	"log"
	"os"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OlsenSM91/arrange-it/config"
	"github.com/OlsenSM91/arrange-it/services"
	"github.com/OlsenSM91/arrange-it/storage"
)

// prune räumt abgelaufene Batches auf und rotiert die Archive im S3-Bucket.
// Gedacht für einen externen Scheduler (z.B. Kubernetes CronJob).
func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	failed := false

	// 1. Lokale Batches aufräumen
	if cfg.BatchRetention > 0 {
		var store services.BatchStore = storage.NewMemoryBatchStore()
		if cfg.DatabaseEnabled() {
			db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
				Logger: logger.Default.LogMode(logger.Silent),
			})
			if err != nil {
				logging.Fatal("Failed to connect to batch database", zap.Error(err))
			}
			store = storage.NewGormBatchStore(db)
		}
		svc := services.NewBatchService(cfg.UploadDir, store, storage.ZipArchiver{}, nil, logging)
		removed, err := svc.Reap(ctx, cfg.BatchRetention)
		if err != nil {
			logging.Error("Batch cleanup failed", zap.Error(err))
			failed = true
		} else {
			logging.Info("Batch cleanup completed", zap.Int("removed", removed), zap.Duration("retention", cfg.BatchRetention))
		}
	}

	// 2. Alte Archive im Bucket rotieren
	if cfg.S3Enabled() {
		client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		mirror := storage.NewArchiveMirror(client, cfg, logging)
		deleted, err := mirror.Rotate(ctx, cfg.KeepArchives)
		if err != nil {
			logging.Error("Archive rotation failed", zap.Error(err))
			failed = true
		} else {
			logging.Info("Archive rotation completed", zap.Int("deleted", deleted), zap.Int("keep", cfg.KeepArchives))
		}
	}

	if failed {
		logging.Sync()
		os.Exit(1)
	}
}
