package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"discuss/internal/api"
	"discuss/internal/auth"
	"discuss/internal/config"
	"discuss/internal/db"
	"discuss/internal/mentions"
	"discuss/internal/notify"
	"discuss/internal/search"
)

func newServeCommand(s *settings) *cobra.Command {
	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Runs the HTTP API and MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	flags := serveCommand.Flags()
	flags.String("port", "8080", "HTTP listen port")
	flags.Int("pool-size", 0, "Concurrent mention scans (0 keeps the default)")
	flags.Int("search-rate", 0, "Searches allowed per client address per minute (0 disables)")
	s.v.BindPFlag("port", flags.Lookup("port"))
	s.v.BindPFlag("mentions.pool_size", flags.Lookup("pool-size"))
	s.v.BindPFlag("search.rate_per_minute", flags.Lookup("search-rate"))
	return serveCommand
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	database, err := db.OpenMigrated(cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	store := db.NewStore(database)
	index, err := db.NewIndex(database, indexOptions(cfg.Search)...)
	if err != nil {
		return err
	}
	engine, err := search.NewEngine(index, engineOptions(cfg.Search, logger)...)
	if err != nil {
		return err
	}

	resolver, err := mentions.NewResolver(store)
	if err != nil {
		return err
	}
	dispatcher, err := notify.NewDispatcher(store, store, store, notify.WithLogger(logger.With("component", "notify")))
	if err != nil {
		return err
	}
	workerOpts := []mentions.WorkerOption{
		mentions.WithLogger(logger.With("component", "mentions")),
		mentions.WithQueueSize(cfg.Mentions.QueueSize),
	}
	if cfg.Mentions.PoolSize > 0 {
		workerOpts = append(workerOpts, mentions.WithPoolSize(cfg.Mentions.PoolSize))
	}
	worker, err := mentions.NewWorker(resolver, store, dispatcher, workerOpts...)
	if err != nil {
		return err
	}
	defer worker.Release()

	keyHash := auth.ConfiguredHash(cfg.APIKey, cfg.APIKeyHash)
	if keyHash == "" {
		logger.Warn("no api key configured, the API is open")
	}
	mux := api.NewRouter(api.Options{
		Database:        database,
		Search:          engine,
		Mentions:        worker,
		Version:         Version,
		APIKeyHash:      keyHash,
		SearchPerMinute: cfg.Search.RatePerMinute,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "err", err)
		}
	}()

	logger.Info("discuss-server listening", "addr", server.Addr, "database", cfg.Database)
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-shutdownDone
	worker.Wait()
	logger.Info("discuss-server stopped")
	return nil
}

// indexOptions and engineOptions leave zero settings at the package defaults.
func indexOptions(cfg config.SearchConfig) []db.IndexOption {
	opts := []db.IndexOption{db.WithSuggestScanLimit(cfg.SuggestScanLimit)}
	if cfg.MaxEdits != 0 {
		opts = append(opts, db.WithMaxEdits(cfg.MaxEdits))
	}
	return opts
}

func engineOptions(cfg config.SearchConfig, logger *slog.Logger) []search.Option {
	opts := []search.Option{search.WithLogger(logger.With("component", "search"))}
	if cfg.DefaultPerPage != 0 {
		opts = append(opts, search.WithDefaultPerPage(cfg.DefaultPerPage))
	}
	return opts
}
