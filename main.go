package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/api/handlers"
	"github.com/linesmerrill/civic-report-api/config"
)

func main() {
	a := handlers.App{}
	a.Config = *config.New()
	defer zap.L().Sync() //nolint:errcheck

	if err := a.Initialize(); err != nil { //initialize database and router
		zap.S().Fatalw("failed to initialize civic-report-api", "error", err)
	}

	if err := a.Scheduler.Start(a.Config.OrphanSweepSchedule); err != nil {
		zap.S().Warnw("orphaned upload sweep disabled", "schedule", a.Config.OrphanSweepSchedule, "error", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%v", a.Config.Port),
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zap.S().Infow("civic-report-api is up and running",
			"port", a.Config.Port,
			"url", a.Config.BaseURL,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Fatalw("server stopped unexpectedly", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down civic-report-api")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorw("failed to shut down server cleanly", "error", err)
	}
	if err := a.Close(ctx); err != nil {
		zap.S().Errorw("failed to disconnect from database", "error", err)
	}
}
