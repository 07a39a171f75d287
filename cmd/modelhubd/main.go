package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/cache"
	"modelhub/internal/config"
	"modelhub/internal/httpapi"
	"modelhub/internal/provider/httpdemo"
	"modelhub/internal/provider/localecho"
	"modelhub/internal/runtime"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML/JSON/TOML config file (optional)")
	addr := flag.String("addr", "", "HTTP listen address, e.g. :8080 (overrides config file and MODELHUB_ADDR)")
	catalogPath := flag.String("catalog", "", "Path to the alias catalog JSON file")
	flag.Parse()

	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	cfg := config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			zlog.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
		cfg = loaded
	}
	cfg = cfg.ApplyDefaults()
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *catalogPath != "" {
		cfg.CatalogPath = *catalogPath
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		zlog.Warn().Str("log_level", cfg.LogLevel).Msg("unrecognized log level, defaulting to info")
		level = zerolog.InfoLevel
	}
	zlog = zlog.Level(level)

	if cfg.CacheDir != "" {
		os.Setenv(cache.RootEnv, cfg.CacheDir)
	}
	cacheDir := cache.Root()
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		zlog.Fatal().Err(err).Str("cache_dir", cacheDir).Msg("failed to prepare cache dir")
	}
	zlog.Info().Str("cache_dir", cacheDir).Msg("resolved cache directory")

	runtime.SetLogger(zlog)
	httpapi.SetLogger(zlog)
	httpdemo.SetLogger(zlog)

	events := runtime.NewMemoryPublisher()

	builder := runtime.NewBuilder().
		WithProvider(localecho.New()).
		WithProvider(httpdemo.New()).
		WithEvents(events)

	if cfg.CatalogPath != "" {
		builder = builder.CatalogFromFile(cfg.CatalogPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	rt, err := builder.Build(ctx)
	cancel()
	if err != nil {
		zlog.Fatal().Err(err).Msg("failed to build runtime")
	}

	svc := httpapi.NewService(rt, nil)
	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		zlog.Info().Str("addr", cfg.Addr).Msg("modelhubd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("graceful shutdown error")
	}
}
