package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"admin-portal/internal/app"
	"admin-portal/internal/config"
	"admin-portal/pkg/logger"
	"admin-portal/pkg/password"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const (
	serviceName        = "admin-portal"
	defaultEnvFilePath = ".env"
	signalBufferSize   = 1
)

var shutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var envFile, hashPassword string

	flagSet := pflag.NewFlagSet("adminportal", pflag.ContinueOnError)
	flagSet.StringVar(&envFile, "env-file", defaultEnvFilePath, "dotenv file loaded before reading the environment")
	flagSet.StringVar(&hashPassword, "hash-password", "", "print the bcrypt hash of the given password (for DEV_USERS) and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if hashPassword != "" {
		hash, err := password.Hash(hashPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Println(hash)
		return nil
	}

	if err := godotenv.Load(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s not loaded, using environment variables\n", envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, serviceName)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("configuration loaded",
		zap.Bool("remote_backend", cfg.UsesBackend()),
		zap.Bool("redis_cache", cfg.Cache.RedisURL != ""),
		zap.Bool("profiling", cfg.Server.ProfilingEnabled),
	)

	service, err := app.InitializeService(cfg, log)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- service.Start()
	}()

	quit := make(chan os.Signal, signalBufferSize)
	signal.Notify(quit, shutdownSignals...)

	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			_ = service.Shutdown(context.Background())
			return fmt.Errorf("server error: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := service.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exited gracefully")
	return nil
}
