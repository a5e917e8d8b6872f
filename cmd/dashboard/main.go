// Command dashboard runs the HTTP API of the personal finance dashboard.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/cache"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/config"
	apphttp "github.com/spanexx/personal-finance-dashboard-sub003/internal/http"
	applog "github.com/spanexx/personal-finance-dashboard-sub003/internal/log"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets"
	gsheet "github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets/google"
	mem "github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets/memory"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

func main() {
	// Missing .env is fine; the environment may be set another way.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var writer sheets.ReportWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
		})
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		writer = client
		logger.Info("Report export backend", "backend", "sheets")
	} else {
		writer = mem.New()
		logger.Info("Report export backend", "backend", "memory")
	}

	reportCache := cache.NewLRUCache[any](256, 5*time.Minute)
	reports := services.NewReportService(repo, reportCache, writer, cfg.GoogleSheetName)
	files, err := services.NewFileService(repo, cfg.UploadDir, cfg.MaxUploadBytes, cfg.ThumbnailMaxPx)
	if err != nil {
		logger.Error("Failed to initialize file service", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories:   services.NewCategoryService(repo),
		Transactions: services.NewTransactionService(repo, reports),
		Reports:      reports,
		Passwords:    services.NewPasswordService(repo, []byte(cfg.ResetTokenSecret), cfg.ResetTokenTTL, cfg.PasswordHistory),
		Files:        files,
		Budgets:      services.NewBudgetService(repo, reports),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		slog.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting dashboard server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
