package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tasktracker/internal/codec"
	"tasktracker/internal/config"
	"tasktracker/internal/handlers"
	"tasktracker/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()

	root := &cobra.Command{
		Use:          "tasktracker",
		Short:        "Track tasks, epics and subtasks in a snapshot file",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfg.Backend, "backend", cfg.Backend, "snapshot backend: file or sqlite")
	root.PersistentFlags().StringVar(&cfg.DataPath, "data", cfg.DataPath, "path of the snapshot file")
	root.PersistentFlags().StringVar(&cfg.SQLitePath, "sqlite", cfg.SQLitePath, "path of the sqlite database")
	root.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: info or debug")

	root.AddCommand(newServeCmd(cfg), newShowCmd(cfg))
	return root
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Port, "port", cfg.Port, "port to listen on")
	return cmd
}

func newShowCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored entities and view history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
}

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openBackend creates the data directory and the configured backend.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath()), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFileBackend(cfg.DataPath), nil
	case config.BackendSQLite:
		return store.NewSQLiteBackend(ctx, cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// openStore opens the configured backend and loads its snapshot. The backend
// is closed again when the snapshot cannot be loaded.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.FileBackedStore, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("failed to open backend", zap.Error(err))
		return nil, err
	}
	s, err := store.NewFileBackedStore(ctx, backend, logger)
	if err != nil {
		if cerr := backend.Close(); cerr != nil {
			logger.Warn("failed to close backend", zap.Error(cerr))
		}
		logger.Error("failed to load snapshot", zap.String("path", cfg.StoragePath()), zap.Error(err))
		return nil, err
	}
	return s, nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	// Make zap available to packages that log through zap.L().
	zap.ReplaceGlobals(logger)
	defer func() {
		_ = logger.Sync()
	}()

	// Initialize store
	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	h := handlers.New(s, logger)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(handlers.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Mount("/", h.Routes())

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("backend", cfg.Backend),
		zap.String("path", cfg.StoragePath()),
	)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Error("server failed", zap.Error(err))
		return err
	}
	return nil
}

func show(ctx context.Context, cfg *config.Config, out io.Writer) error {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	data, err := backend.Load(ctx)
	if err != nil {
		return err
	}
	snap, err := codec.Decode(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%d tasks, %d epics, %d subtasks, last id %d\n",
		len(snap.Tasks), len(snap.Epics), len(snap.Subtasks), snap.MaxID)

	if sb, ok := backend.(*store.SQLiteBackend); ok {
		savedAt, err := sb.SavedAt(ctx)
		if err != nil {
			return err
		}
		if !savedAt.IsZero() {
			fmt.Fprintf(out, "saved at %s\n", savedAt.Format("2006-01-02 15:04:05"))
		}
	}

	// Restore through the store so the output shows derived epic fields.
	mem := store.NewMemoryStore(nil)
	if err := mem.Restore(snap); err != nil {
		return err
	}
	encoded, err := codec.Encode(mem.Snapshot())
	if err != nil {
		return err
	}
	_, err = out.Write(append(encoded, '\n'))
	return err
}
