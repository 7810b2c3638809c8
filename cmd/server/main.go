package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-count/internal/archive"
	"stock-count/internal/auth"
	"stock-count/internal/cache"
	"stock-count/internal/config"
	h "stock-count/internal/http"
	"stock-count/internal/handlers"
	"stock-count/internal/health"
	"stock-count/internal/middleware"
	"stock-count/internal/monitoring"
	"stock-count/internal/services"
	"stock-count/internal/session"
	"stock-count/internal/timeutil"
)

func main() {
	// Load configuration
	cfg := config.Load()
	timeutil.SetLocation(cfg.Server.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis is optional; exports are rebuilt on every request without it
	var redisProbe health.Probe
	if cfg.Redis.Enabled {
		if err := cache.Init(cfg.RedisAddr(), cfg.Redis.Password); err != nil {
			log.Printf("[Redis] Cache unavailable: %v (exports will not be cached)", err)
		} else {
			log.Println("[Redis] Cache connected successfully")
		}
		redisProbe = cache.Ping
	}
	defer cache.Close()

	archiver, err := archive.New(ctx, cfg)
	if err != nil {
		log.Printf("[Archive] Disabled: %v", err)
		archiver = nil
	}
	var archiveProbe health.Probe
	if archiver.Enabled() {
		log.Printf("[Archive] Uploading exports to bucket %s", cfg.Archive.Bucket)
		archiveProbe = archiver.Check
	}

	// Session store and idle sweeper
	store := session.NewStore(cfg.SessionTTL())
	store.OnExpire(func(id string) {
		cache.InvalidateSessionCaches(context.Background(), id)
	})
	store.StartSweeper(ctx, cfg.SweepInterval())

	healthChecker := health.NewHealthChecker(store, redisProbe, archiveProbe)

	// Monitoring dashboard receives import, count and export events
	var events services.EventPublisher
	if cfg.Monitoring.Enabled {
		monitor := monitoring.NewMonitoringServer(healthChecker, cfg.Monitoring.Port, cfg.Monitoring.PasswordHash)
		events = monitor
		go monitor.Start(ctx)
	}

	// Initialize services
	importService := services.NewImportService(events)
	countService := services.NewCountService(cfg.Counting.Locations, events)
	searchService := services.NewSearchService()
	exportService := services.NewExportService(archiver, cfg.ExportTTL(), events)
	reportService := services.NewReportService(countService, archiver, cfg.ExportTTL())

	// Initialize middleware
	jwtManager := auth.NewJWTManager(cfg)
	sessionMiddleware := middleware.NewSessionMiddleware(jwtManager, store, cfg.Session.CookieName, cfg.Session.SecureCookie)
	requestLogger := middleware.NewRequestLogger()
	defer requestLogger.Close()
	corsMiddleware := middleware.NewCORS(cfg)

	// Initialize handlers
	importHandler := handlers.NewImportHandler(importService, cfg.UploadLimit())
	productHandler := handlers.NewProductHandler(countService)
	countHandler := handlers.NewCountHandler(countService)
	sessionHandler := handlers.NewSessionHandler(countService, store, sessionMiddleware, events)
	searchHandler := handlers.NewSearchHandler(searchService)
	reportHandler := handlers.NewReportHandler(reportService)
	exportHandler := handlers.NewExportHandler(exportService)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	router := h.NewRouter(
		importHandler,
		productHandler,
		countHandler,
		sessionHandler,
		searchHandler,
		reportHandler,
		exportHandler,
		healthHandler,
		sessionMiddleware,
		requestLogger,
	)

	// Wrap with panic recovery and CORS
	handler := middleware.PanicRecovery(corsMiddleware(router))

	timeout := time.Duration(cfg.Server.RequestTimeoutSeconds) * time.Second
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server running on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}
