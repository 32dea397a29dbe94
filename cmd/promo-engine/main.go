package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rankop88888/promo-sim-go/internal/api"
	"github.com/rankop88888/promo-sim-go/internal/config"
	"github.com/rankop88888/promo-sim-go/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	listen := flag.String("listen", "", "override listen address")
	flag.Parse()

	logger := log.New(os.Stdout, "[promo-engine] ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	var db store.DB
	if cfg.DatabasePath != "" {
		sqliteDB, err := store.NewSQLiteDB(cfg.DatabasePath)
		if err != nil {
			logger.Fatalf("failed to open run database: %v", err)
		}
		if err := sqliteDB.Migrate(); err != nil {
			logger.Fatalf("failed to migrate run database: %v", err)
		}
		db = sqliteDB
		defer db.Close()
	} else {
		logger.Println("persistence disabled: no database_path configured")
	}

	server := api.NewServer(db, api.Options{
		MaxTrials:      cfg.MaxTrials,
		RequestTimeout: cfg.RequestTimeout(),
		Workers:        cfg.Workers,
	})

	httpServer := &http.Server{
		Addr:         cfg.Listen,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout() + 15*time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Printf("listening addr=%s max_trials=%d", cfg.Listen, cfg.MaxTrials)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown error: %v", err)
	}
}
