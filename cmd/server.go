package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/queue"
	"github.com/brk3/fifty/internal/server"
	"github.com/brk3/fifty/internal/storage"
	"github.com/brk3/fifty/internal/storage/bolt"
	"github.com/brk3/fifty/internal/storage/firestore"
)

var debugLogs bool

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return startServer()
	},
}

func init() {
	serverCmd.Flags().BoolVar(&debugLogs, "debug", false, "enable debug logging")
	rootCmd.AddCommand(serverCmd)
}

func openStore(ctx context.Context) (storage.Store, error) {
	if cfg.FirestoreProject != "" {
		logger.Info("Using Firestore backend", "project", cfg.FirestoreProject)
		return firestore.Open(ctx, cfg.FirestoreProject)
	}
	logger.Info("Using bolt backend", "path", cfg.DBPath)
	return bolt.Open(cfg.DBPath)
}

func startServer() error {
	level := slog.LevelInfo
	if debugLogs {
		level = slog.LevelDebug
	}
	logger.InitJSON(level)

	ctx := context.Background()
	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	q, err := queue.Open(cfg.QueuePath)
	if err != nil {
		return fmt.Errorf("open pending queue: %w", err)
	}
	defer q.Close()

	s, err := server.New(ctx, cfg, store, q)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: s.Router(),
	}

	go func() {
		logger.Info("Listening", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
