package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/yukikurage/taskflow-api/internal/app"
	"github.com/yukikurage/taskflow-api/internal/config"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg := config.Load()

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	r, err := a.NewRouter()
	if err != nil {
		a.Log.Fatal("Failed to build router", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.SchedulerEnabled {
		jobs := a.Scheduler()
		jobs.Start(ctx)
		defer jobs.Wait()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		a.Log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	a.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Log.Error("Server forced to shutdown", zap.Error(err))
	}
}
