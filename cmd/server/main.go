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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danijoha94/vintertour/internal/config"
	"github.com/danijoha94/vintertour/internal/db"
	"github.com/danijoha94/vintertour/internal/handlers"
	"github.com/danijoha94/vintertour/internal/logging"
	"github.com/danijoha94/vintertour/internal/store"
)

var (
	// Global flags
	configPath string
	dbPath     string
	memory     bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vintertour",
	Short: "Scorekeeping for the vintertour golf matches",
	Long: `vintertour keeps track of two-against-two golf matches: who played
which hole for each team, the final score, and a summary ready to mail.

Run "vintertour serve" to start the JSON API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Storage.DatabasePath = dbPath
		}
		if memory {
			cfg.Storage.Memory = true
		}

		logger, err = logging.New(cfg.Logging, verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the match API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serve,
}

// backend is a store.Backend that must be closed when done.
type backend interface {
	store.Backend
	Close() error
}

func openStore() (*store.MatchStore, func(), error) {
	var b backend
	if cfg.Storage.Memory {
		logger.Warn("Using in-memory storage; matches are lost on exit")
		b = db.NewMemory()
	} else {
		sqlite, err := db.Open(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug("Opened database", zap.String("path", cfg.Storage.DatabasePath))
		b = sqlite
	}
	closeFn := func() {
		if err := b.Close(); err != nil {
			logger.Warn("Failed to close storage", zap.Error(err))
		}
	}
	return store.New(b, logger), closeFn, nil
}

func serve(cmd *cobra.Command, args []string) error {
	s, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	mux := http.NewServeMux()
	handlers.New(s, logger, cfg.Mail.Recipient).Register(mux)
	if cfg.Server.StaticDir != "" {
		fs := http.FileServer(http.Dir(cfg.Server.StaticDir))
		mux.Handle("/static/", http.StripPrefix("/static/", fs))
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handlers.NoCache(handlers.WithRequestLog(logger, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server started", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "vintertour.yaml", "Path to the config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "Keep matches in memory only")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, listCmd, showCmd, deleteCmd, mailCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
