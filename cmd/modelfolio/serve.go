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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"modelfolio/internal/common/fsutil"
	"modelfolio/internal/config"
	"modelfolio/internal/dispatch"
	"modelfolio/internal/hfapi"
	"modelfolio/internal/httpapi"
	"modelfolio/internal/listing"
	"modelfolio/internal/logging"
	"modelfolio/internal/service"
)

type serveFlags struct {
	configPath  string
	addr        string
	dbPath      string
	seedFile    string
	logLevel    string
	corsOrigins string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Run the HTTP API",
		Example: "  modelfolio serve --config ~/.modelfolio/config.yaml\n  modelfolio serve --addr :9090 --seed listings.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
	bindServeFlags(cmd, &f)
	return cmd
}

func bindServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "Config file (.yaml, .json or .toml)")
	cmd.Flags().StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8080")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "SQLite database path (\":memory:\" for ephemeral)")
	cmd.Flags().StringVar(&f.seedFile, "seed", "", "Listings file to upsert on startup")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.Flags().StringVar(&f.corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
}

// resolveConfig layers defaults, the config file, environment, then flags.
func resolveConfig(cmd *cobra.Command, f serveFlags) (config.Config, error) {
	var cfg config.Config
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	cfg = config.ApplyEnv(config.ApplyDefaults(cfg), os.Getenv)
	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = f.addr
	}
	if flags.Changed("db") {
		cfg.DBPath = f.dbPath
	}
	if flags.Changed("seed") {
		cfg.SeedFile = f.seedFile
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if origins := splitCSV(f.corsOrigins); len(origins) > 0 {
		cfg.CORSEnabled = true
		cfg.CORSAllowedOrigins = origins
	}
	return cfg, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer closeLog()

	dbPath, err := fsutil.EnsureParentDir(cfg.DBPath)
	if err != nil {
		return err
	}
	store, err := listing.OpenSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("open listings: %w", err)
	}
	defer store.Close()
	if cfg.SeedFile != "" {
		if err := seedStore(ctx, store, cfg.SeedFile, logger); err != nil {
			return err
		}
	}

	defaults, err := cfg.DemoDefaults()
	if err != nil {
		return err
	}
	up := hfapi.New(hfapi.Options{
		BaseURL:        cfg.HFBaseURL,
		RequestTimeout: cfg.RequestTimeout(),
		ConnectTimeout: cfg.ConnectTimeout(),
		MaxImageBytes:  cfg.MaxImageBytes,
	})
	token := cfg.TokenSource(os.Getenv)
	if token() == "" {
		logger.Warn().Msg("HUGGINGFACE_API_TOKEN is not set; demo requests will fail until it is")
	}
	disp := dispatch.New(dispatch.Config{
		Upstream:      up,
		Token:         token,
		DefaultModels: defaults,
		Logger:        &logger,
	})

	httpapi.SetLogger(logger)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetInferTimeout(cfg.DemoTimeout())
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	httpapi.SetBaseContext(ctx)

	svc := service.New(store, disp)
	if cfg.MaxInflight > 0 {
		svc.WithAdmission(service.NewAdmission(cfg.MaxInflight, cfg.MaxQueue, cfg.QueueWait()))
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("db", dbPath).Str("upstream", up.BaseURL()).Msg("modelfolio listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	// Graceful shutdown (Ctrl+C / SIGTERM)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func seedStore(ctx context.Context, store *listing.SQLiteStore, path string, logger zerolog.Logger) error {
	ls, err := listing.LoadSeed(path)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	n, err := listing.Seed(ctx, store, ls)
	if err != nil {
		return err
	}
	logger.Info().Int("listings", n).Str("file", path).Msg("seeded listings")
	return nil
}
