// Command admin runs maintenance tasks against the configured store:
//
//	admin migrate     create tables/collections and indexes
//	admin seed        create or repair the bootstrap admin account
//	admin propagate   replay pending comment identity rewrites
//	admin pending     list pending rewrites
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"mangazone-api/internal/app"
	"mangazone-api/internal/core/config"
	"mangazone-api/internal/core/logger"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to the yaml config")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall deadline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] migrate|seed|propagate|pending\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, cleanup := logger.New(cfg.Log)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, cfg, log, flag.Arg(0)); err != nil {
		log.Error("admin command failed", zap.String("cmd", flag.Arg(0)), zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger, cmd string) error {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	switch cmd {
	case "migrate":
		if err := a.Store.Migrate(ctx); err != nil {
			return err
		}
		log.Info("migration done", zap.String("driver", cfg.DB.Driver))
	case "seed":
		u, err := a.Bootstrap.Ensure(ctx)
		if err != nil {
			return err
		}
		log.Info("bootstrap account ready", zap.String("user_id", u.ID), zap.String("username", u.Username))
	case "propagate":
		report, err := a.Propagator.RetryPending(ctx)
		if err != nil {
			return err
		}
		log.Info("propagations replayed",
			zap.Int("retried", report.Retried),
			zap.Int("failed", report.Failed),
			zap.Int("pending", report.Pending))
	case "pending":
		jobs, err := a.Propagator.Pending(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(jobs)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}
