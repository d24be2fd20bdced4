package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/common/fsutil"
	"inferd/internal/config"
	"inferd/internal/httpapi"
	"inferd/internal/llm"
	"inferd/internal/registry"
	"inferd/internal/runner"
	"inferd/internal/scheduler"
	"inferd/pkg/types"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	var (
		cfgPath          string
		addr             string
		modelsDir        string
		defaultModel     string
		idleTimeoutSec   int
		sweepIntervalSec int
		contextSize      int
		threads          int
		logLevel         string
	)
	root := &cobra.Command{
		Use:           "inferd",
		Short:         "Serialized local LLM inference daemon with an idle-evicting model cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{}
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			// Flags override file values when set.
			if cmd.Flags().Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("models-dir") || cfg.ModelsDir == "" {
				cfg.ModelsDir = modelsDir
			}
			if cmd.Flags().Changed("default-model") {
				cfg.DefaultModel = defaultModel
			}
			if cmd.Flags().Changed("model-idle-timeout-sec") || cfg.ModelIdleTimeoutSec == 0 {
				cfg.ModelIdleTimeoutSec = idleTimeoutSec
			}
			if cmd.Flags().Changed("sweep-interval-sec") || cfg.SweepIntervalSec == 0 {
				cfg.SweepIntervalSec = sweepIntervalSec
			}
			if cmd.Flags().Changed("context-size") || cfg.ContextSize == 0 {
				cfg.ContextSize = contextSize
			}
			if cmd.Flags().Changed("threads") || cfg.Threads == 0 {
				cfg.Threads = threads
			}
			if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = logLevel
			}
			return serve(cfg)
		},
	}
	root.Flags().StringVar(&cfgPath, "config", "", "Path to a yaml/json/toml config file")
	root.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address, e.g. :8080")
	root.Flags().StringVar(&modelsDir, "models-dir", "~/models/llm", "Directory to scan for *.gguf model files")
	root.Flags().StringVar(&defaultModel, "default-model", "", "Default model id when request omits model")
	root.Flags().IntVar(&idleTimeoutSec, "model-idle-timeout-sec", 60, "Seconds a cached model may sit unused before eviction")
	root.Flags().IntVar(&sweepIntervalSec, "sweep-interval-sec", 5, "Sweeper wake interval in seconds")
	root.Flags().IntVar(&contextSize, "context-size", 2048, "llama context size")
	root.Flags().IntVar(&threads, "threads", 4, "llama worker threads")
	root.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	return root
}

func serve(cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	scanDir, err := fsutil.ExpandHome(cfg.ModelsDir)
	if err != nil {
		return err
	}
	var models []types.Model
	if fsutil.PathExists(scanDir) {
		models, err = registry.LoadDir(scanDir)
		if err != nil {
			logger.Error().Err(err).Str("dir", scanDir).Msg("failed to scan models dir")
			return err
		}
		logger.Info().Int("models", len(models)).Str("dir", scanDir).Msg("model registry loaded")
	} else {
		logger.Warn().Str("dir", scanDir).Msg("models dir does not exist; starting with an empty registry")
	}

	disp := runner.NewDispatcher(nil)
	q := scheduler.New(scheduler.Config{
		IdleTimeout:   time.Duration(cfg.ModelIdleTimeoutSec) * time.Second,
		SweepInterval: time.Duration(cfg.SweepIntervalSec) * time.Second,
		Logger:        &logger,
		Publisher:     disp,
	})
	svc := runner.New(q, llm.NewAdapter(), disp, runner.Config{
		Registry:         models,
		DefaultModel:     cfg.DefaultModel,
		ContextSize:      cfg.ContextSize,
		Threads:          cfg.Threads,
		VocabIdleTimeout: time.Duration(cfg.VocabIdleTimeoutSec) * time.Second,
		Logger:           &logger,
	})
	defer svc.Close()

	httpapi.SetLogger(logger)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins,
		[]string{"GET", "POST"}, []string{"Content-Type", "X-Log-Level"})
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(svc)}
	go func() {
		logger.Info().Str("addr", cfg.Addr).Bool("llama_built", llm.Built()).Msg("inferd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
