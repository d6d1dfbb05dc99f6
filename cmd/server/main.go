// @title           simreg API
// @version         1.0
// @description     Backend-for-frontend hosting eKYC SIM registration wizards.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"simreg/internal/capture"
	"simreg/internal/config"
	"simreg/internal/ekyc"
	"simreg/internal/handler"
	"simreg/internal/metrics"
	"simreg/internal/port"
	"simreg/internal/repository/postgres"
	redisrepo "simreg/internal/repository/redis"
	"simreg/internal/router"
	"simreg/internal/secure"
	"simreg/internal/service"
	"simreg/internal/session"
	s3storage "simreg/internal/storage/s3"
	"simreg/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sealer, err := secure.NewSealer(cfg.Session.SealKey)
	if err != nil {
		return fmt.Errorf("failed to initialize session sealer: %w", err)
	}
	if sealer == nil {
		log.Println("WARNING: SIMREG_SESSION_SEAL_KEY not set; session ids are persisted unsealed")
	}

	// Initialize session slot backend
	checks := make(map[string]handler.Pinger)
	slot, closeSlot, err := newSessionSlot(ctx, cfg, checks)
	if err != nil {
		return err
	}
	defer func() { _ = closeSlot.Close() }()

	// Initialize preview storage
	previews, err := newPreviewStore(cfg)
	if err != nil {
		return err
	}

	// Initialize eKYC client
	client, err := ekyc.NewClient(&cfg.Ekyc, ekyc.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to initialize eKYC client: %w", err)
	}
	log.Printf("eKYC service: %s%s (processing mode %s)", cfg.Ekyc.BaseURL, cfg.Ekyc.BasePath, cfg.Processing.Mode)

	// Initialize services
	wizardSvc := service.NewWizardService(service.WizardDeps{
		Client:   client,
		Slot:     slot,
		Sealer:   sealer,
		Previews: previews,
		Waiter:   wizard.NewWaiter(cfg.Processing, client),
		Metrics:  m,
	}, cfg)

	janitor := service.NewWizardJanitor(wizardSvc, cfg.Wizard.SweepInterval)
	go janitor.Start(ctx)

	// Initialize handlers
	wizardH := handler.NewWizardHandler(wizardSvc)
	reportH := handler.NewReportHandler(wizardSvc)
	healthH := handler.NewHealthHandler(checks)

	if cfg.Admin.APIKey == "" {
		log.Println("WARNING: SIMREG_ADMIN_API_KEY not set; report endpoints are disabled")
	}

	// Setup router
	r := router.Setup(wizardSvc, wizardH, reportH, healthH, m,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), cfg.CORS.AllowedOrigins, cfg.Admin.APIKey)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Println("Server stopped")
	return nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// newSessionSlot selects the backend that persists sealed session ids and
// registers its readiness check.
func newSessionSlot(ctx context.Context, cfg *config.Config, checks map[string]handler.Pinger) (port.SessionSlot, io.Closer, error) {
	switch cfg.Session.Backend {
	case "redis":
		rc, err := redisrepo.New(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		if rc == nil {
			return nil, nil, errors.New("session.backend=redis requires SIMREG_REDIS_URL")
		}
		checks["redis"] = handler.PingFunc(rc.Health)
		log.Println("Session backend: redis")
		return redisrepo.NewSessionSlotRepo(rc.Client), rc, nil

	case "postgres":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		checks["database"] = db
		log.Println("Session backend: postgres")
		return postgres.NewSessionSlotRepo(db), db, nil

	default:
		log.Println("Session backend: memory")
		return session.NewMemorySlot(), closerFunc(func() error { return nil }), nil
	}
}

func newPreviewStore(cfg *config.Config) (port.PreviewStore, error) {
	if cfg.Wizard.PreviewBackend != "s3" {
		return capture.NewMemoryPreviewStore(), nil
	}
	store, err := s3storage.NewPreviewStore(&cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize S3 preview store: %w", err)
	}
	log.Printf("Preview backend: s3 (bucket %s)", cfg.S3.Bucket)
	return store, nil
}
