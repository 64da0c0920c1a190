package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ZenDevMaster/barcodecentral/internal/api"
	"github.com/ZenDevMaster/barcodecentral/internal/api/handlers"
	"github.com/ZenDevMaster/barcodecentral/internal/api/middleware"
	"github.com/ZenDevMaster/barcodecentral/internal/config"
	"github.com/ZenDevMaster/barcodecentral/internal/db"
	"github.com/ZenDevMaster/barcodecentral/internal/history"
	"github.com/ZenDevMaster/barcodecentral/internal/job"
	"github.com/ZenDevMaster/barcodecentral/internal/logging"
	"github.com/ZenDevMaster/barcodecentral/internal/preview"
	"github.com/ZenDevMaster/barcodecentral/internal/printer"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func runServer() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting barcodecentral", zap.String("version", version))

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		return fmt.Errorf("failed to open registry: %w", err)
	}
	defer db.Close()

	histStore, err := history.NewStore(cfg.History.Path, cfg.History.MaxEntries, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}

	prevStore, err := preview.NewStore(cfg.Previews.Dir, logger)
	if err != nil {
		return fmt.Errorf("failed to open preview store: %w", err)
	}

	generator := preview.NewGenerator(cfg.Render.BaseURL, cfg.Render.Timeout, logger)
	policy := preview.NewPolicy(prevStore, generator)
	dispatcher := printer.NewDispatcher(cfg.Printer.DialTimeout, cfg.Printer.SendTimeout, logger)
	renderer := job.RegistryRenderer{}

	orchestrator := job.NewOrchestrator(job.Deps{
		Renderer:    renderer,
		Policy:      policy,
		Transport:   dispatcher,
		History:     histStore,
		Printers:    lookupPrinter,
		RecordPrint: db.Printers.IncrementPrintCount,
		Logger:      logger,
	})

	auth, err := middleware.NewAuthMiddleware(logger)
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	router := api.NewRouter(api.Deps{
		Auth:      auth,
		Print:     handlers.NewPrintHandler(orchestrator, histStore, logger),
		Preview:   handlers.NewPreviewHandler(prevStore, policy, renderer, logger),
		History:   handlers.NewHistoryHandler(histStore, orchestrator, logger),
		Printers:  handlers.NewPrinterHandler(dispatcher, logger),
		Templates: handlers.NewTemplateHandler(logger),
		Logger:    logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// lookupPrinter adapts a registry row into the dispatch target the job
// pipeline works with.
func lookupPrinter(ctx context.Context, id int64) (*job.Target, error) {
	p, err := db.Printers.GetPrinterByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", job.ErrPrinterNotFound, id)
		}
		return nil, err
	}
	return &job.Target{
		ID:      p.ID,
		Name:    p.Name,
		Host:    p.IPAddress,
		Port:    p.Port,
		DPI:     p.DPI,
		Sizes:   p.SupportedSizes(),
		Enabled: p.Enabled,
	}, nil
}
