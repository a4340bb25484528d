package main

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OlsenSM91/arrange-it/config"
	"github.com/OlsenSM91/arrange-it/models"
	"github.com/OlsenSM91/arrange-it/services"
	"github.com/OlsenSM91/arrange-it/storage"
)

var (
	batchesCounter    *prometheus.CounterVec
	movedFilesCounter prometheus.Counter
	unresolvedCounter prometheus.Counter
	reapedCounter     prometheus.Counter
)

func init() {
	batchesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "arrangeit_batches_total",
			Help: "Total number of upload batches by outcome.",
		},
		[]string{"outcome"},
	)
	movedFilesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arrangeit_files_moved_total",
			Help: "Total number of files sorted into group directories.",
		},
	)
	unresolvedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arrangeit_rows_unresolved_total",
			Help: "Total number of manifest rows whose file could not be resolved.",
		},
	)
	reapedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "arrangeit_batches_reaped_total",
			Help: "Total number of expired batches removed by the cleanup job.",
		},
	)
	prometheus.MustRegister(batchesCounter, movedFilesCounter, unresolvedCounter, reapedCounter)
}

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

	store, err := openBatchStore(cfg, logging)
	if err != nil {
		logging.Fatal("Failed to set up batch registry", zap.Error(err))
	}

	var mirror services.Mirror
	if cfg.S3Enabled() {
		s3Client, err := storage.NewS3Client(cfg)
		if err != nil {
			logging.Fatal("S3 client creation failed", zap.Error(err))
		}
		mirror = storage.NewArchiveMirror(s3Client, cfg, logging)
		logging.Info("Archive mirror enabled", zap.String("bucket", cfg.S3Bucket))
	}

	batchService := services.NewBatchService(cfg.UploadDir, store, storage.ZipArchiver{}, mirror, logging)
	router := newRouter(cfg, batchService, logging)

	// Setup Cron
	if cfg.BatchRetention > 0 {
		cronScheduler := cron.New()
		_, err := cronScheduler.AddFunc(cfg.CleanupSchedule, func() {
			logging.Info("Running scheduled batch cleanup...")
			count, err := batchService.Reap(context.Background(), cfg.BatchRetention)
			if err != nil {
				logging.Error("Cleanup job failed", zap.Error(err))
			} else {
				logging.Info("Cleanup job completed", zap.Int("removed", count))
				reapedCounter.Add(float64(count))
			}
		})
		if err != nil {
			logging.Fatal("Invalid cleanup schedule", zap.String("schedule", cfg.CleanupSchedule), zap.Error(err))
		}
		cronScheduler.Start()
		defer cronScheduler.Stop()
	}

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort), zap.String("upload_dir", cfg.UploadDir))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       10 * time.Minute,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

// openBatchStore wählt Postgres, falls konfiguriert, sonst die In-Memory-Registry.
func openBatchStore(cfg *config.Config, logging *zap.Logger) (services.BatchStore, error) {
	if !cfg.DatabaseEnabled() {
		logging.Info("No DB_HOST configured, using in-memory batch registry.")
		return storage.NewMemoryBatchStore(), nil
	}
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	logging.Info("Successfully connected to batch database.")

	store := storage.NewGormBatchStore(db)
	logging.Info("Running database auto-migration...")
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func newRouter(cfg *config.Config, svc *services.BatchService, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	router.MaxMultipartMemory = 32 << 20
	router.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(uploadFormHTML))
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "arrange-it"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/")
	setupUploadRoutes(api, cfg, svc, log)
	setupBatchRoutes(api, svc, log)
	return router
}

func setupUploadRoutes(rg *gin.RouterGroup, cfg *config.Config, svc *services.BatchService, log *zap.Logger) {
	// POST - Manifest und Bilder hochladen, sortieren und als ZIP bereitstellen
	rg.POST("/upload/", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadBytes())

		form, err := c.MultipartForm()
		if maxErr := new(http.MaxBytesError); errors.As(err, &maxErr) {
			log.Warn("Upload exceeds size limit", zap.Int64("limit_bytes", maxErr.Limit))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "upload exceeds size limit"})
			return
		}
		if err != nil {
			log.Warn("Invalid multipart upload", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
			return
		}
		manifestHeaders := form.File["csv_file"]
		imageHeaders := form.File["image_files"]
		if len(manifestHeaders) != 1 || len(imageHeaders) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one csv_file and at least one image_files entry are required"})
			return
		}

		manifest, closers, err := openUploads(manifestHeaders)
		defer closeAll(closers)
		if err != nil {
			log.Error("Failed to open uploaded manifest", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
			return
		}
		images, imageClosers, err := openUploads(imageHeaders)
		defer closeAll(imageClosers)
		if err != nil {
			log.Error("Failed to open uploaded images", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
			return
		}

		batch, report, err := svc.Process(c.Request.Context(), manifest[0], images)
		if err != nil {
			batchesCounter.WithLabelValues("failed").Inc()
			status := statusFor(err)
			fields := []zap.Field{zap.Error(err), zap.Int("status", status)}
			if batch != nil {
				fields = append(fields, zap.String("batch_id", batch.ID))
			}
			log.Error("Batch processing failed", fields...)
			body := gin.H{"error": err.Error()}
			if batch != nil {
				body["batch_id"] = batch.ID
			}
			c.JSON(status, body)
			return
		}

		batchesCounter.WithLabelValues("archived").Inc()
		movedFilesCounter.Add(float64(report.MovedCount))
		unresolvedCounter.Add(float64(len(report.Unresolved)))

		c.JSON(http.StatusOK, gin.H{
			"filename":   batch.ArchiveName,
			"batch_id":   batch.ID,
			"moved":      report.MovedCount,
			"groups":     report.Groups,
			"unresolved": report.Unresolved,
		})
	})

	// GET - Archiv herunterladen
	rg.GET("/uploads/:name", func(c *gin.Context) {
		name := c.Param("name")
		id := strings.TrimSuffix(name, ".zip")
		if id == name {
			c.JSON(http.StatusNotFound, gin.H{"error": "archive not found"})
			return
		}
		batch, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": "archive not found"})
			return
		}
		if batch.State != models.BatchArchived {
			c.JSON(http.StatusConflict, gin.H{"error": "batch is not archived", "state": batch.State})
			return
		}
		c.FileAttachment(batch.ArchivePath, batch.ArchiveName)
	})
}

func setupBatchRoutes(rg *gin.RouterGroup, svc *services.BatchService, log *zap.Logger) {
	batches := rg.Group("/batches")

	batches.GET("/:id", func(c *gin.Context) {
		batch, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		body := gin.H{"batch": batch}
		if report, err := svc.Report(c.Request.Context(), batch.ID); err == nil {
			body["report"] = report
		}
		c.JSON(http.StatusOK, body)
	})

	// DELETE - expliziter Aufräumschritt
	batches.DELETE("/:id", func(c *gin.Context) {
		id := c.Param("id")
		if err := svc.Delete(c.Request.Context(), id); err != nil {
			if !errors.Is(err, services.ErrBatchNotFound) {
				log.Error("Batch delete failed", zap.String("batch_id", id), zap.Error(err))
			}
			c.JSON(statusFor(err), gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// statusFor bildet die Fehlertaxonomie auf HTTP-Status ab.
func statusFor(err error) int {
	var (
		mce *services.MissingColumnError
		mre *services.MalformedRowError
	)
	switch {
	case errors.As(err, &mce), errors.As(err, &mre), errors.Is(err, services.ErrInvalidUploadName):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBatchNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func openUploads(headers []*multipart.FileHeader) ([]services.Upload, []io.Closer, error) {
	uploads := make([]services.Upload, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return nil, closers, err
		}
		closers = append(closers, f)
		uploads = append(uploads, services.Upload{Name: h.Filename, Reader: f})
	}
	return uploads, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}
