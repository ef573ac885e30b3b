package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/ppmimesir/wisuda/internal/config"
	"github.com/ppmimesir/wisuda/internal/db"
	"github.com/ppmimesir/wisuda/internal/document"
	"github.com/ppmimesir/wisuda/internal/google"
	"github.com/ppmimesir/wisuda/internal/handlers"
	"github.com/ppmimesir/wisuda/internal/jobs"
	"github.com/ppmimesir/wisuda/internal/logger"
	"github.com/ppmimesir/wisuda/internal/metrics"
	"github.com/ppmimesir/wisuda/internal/services"
	"github.com/ppmimesir/wisuda/internal/storage"
	"github.com/ppmimesir/wisuda/internal/web"
	"github.com/ppmimesir/wisuda/internal/whatsapp"
)

func main() {
	cfg := config.Load()
	lg, err := logger.New(cfg.Production())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(cfg, lg); err != nil {
		lg.Fatalw("server stopped", "err", err)
	}
}

func run(cfg config.Config, lg *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(cfg.DBDriver, cfg.DBDSN, lg)
	if err != nil {
		return err
	}
	objects, err := storage.New(ctx, cfg)
	if err != nil {
		return err
	}

	var queue jobs.Queue = jobs.NewMemory(0)
	if cfg.RedisURL != "" {
		if queue, err = jobs.NewRedis(ctx, cfg.RedisURL); err != nil {
			return err
		}
		lg.Infow("confirmation queue on redis")
	}
	defer queue.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	store := services.NewStore(conn, lg)
	quota := services.NewQuotaGate(conn, lg)
	media := services.NewMediaService(conn, objects, lg)
	validator := services.NewValidator(services.Policy{
		NameMinTokens: cfg.NameMinTokens,
		Passport:      services.PassportRule(cfg.PassportRule),
	})
	registrants := services.NewRegistrants(store, quota, media, validator, queue, lg,
		services.WithCountryCode(cfg.DefaultCountryCode), services.WithMetrics(m))

	renderer := document.NewRenderer(document.NewPDFCPU(), document.Options{
		TemplateURL: cfg.PDFTemplateURL,
		FontURL:     cfg.PDFFontURL,
	}, lg)
	notifier := whatsapp.NewClient(cfg.WhatsApp)
	confirmations := services.NewConfirmations(store, media, renderer, notifier, m, lg)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := jobs.Run(ctx, queue, cfg.Workers, confirmations.Process, lg); err != nil {
			lg.Errorw("workers stopped", "err", err)
		}
	}()
	if cfg.SweepEnabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jobs.RunSweeper(ctx, store, queue, cfg.SweepInterval, lg)
		}()
	}

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: web.Router(web.Deps{
			Config:      cfg,
			Log:         lg,
			DB:          conn,
			Registrants: registrants,
			Quota:       quota,
			Media:       media,
			Settings:    services.NewSettings(conn),
			Google:      google.New(cfg.Google, conn, lg),
			Auth:        handlers.NewAdminAuth(cfg),
			Gatherer:    reg,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Infow("wisuda listening", "addr", cfg.Addr, "env", cfg.AppEnv, "db", cfg.DBDriver, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stop()
		wg.Wait()
		return err
	case <-ctx.Done():
	}

	lg.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warnw("http shutdown", "err", err)
	}
	wg.Wait()
	return nil
}
