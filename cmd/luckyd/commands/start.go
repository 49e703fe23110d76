package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/config"
	"github.com/luchenqun/lucky-dog/pkg/coordinator"
	"github.com/luchenqun/lucky-dog/pkg/coordinator/api"
	"github.com/luchenqun/lucky-dog/pkg/found"
	"github.com/luchenqun/lucky-dog/pkg/stats"
	"github.com/luchenqun/lucky-dog/pkg/store"
	"github.com/luchenqun/lucky-dog/pkg/wallet"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the coordinator",
	Long: `Start the coordinator: open the candidate store, load the wallet
descriptor, start the stale-lease sweeper and serve the HTTP API.

The store file must exist; seed it with "luckyd import" first.
A first Ctrl-C triggers graceful shutdown, a second forces exit.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return err
	}

	st, err := store.Open(cfg.Database.Path())
	if err != nil {
		logger.Error("Failed to open candidate store", "error", err)
		return err
	}
	defer func() { _ = st.Close() }()

	latch, err := found.Open(cfg.Database.MarkerPath())
	if err != nil {
		logger.Error("Failed to open found marker", "error", err)
		return err
	}

	descriptor, err := wallet.Load(cfg.Wallet.Path)
	if err != nil {
		logger.Error("Failed to load wallet descriptor", "error", err)
		return err
	}

	startup, err := stats.LoadStartupTime(cfg.Database.StartupTimePath())
	if err != nil {
		logger.Error("Failed to load startup time", "error", err)
		return err
	}

	coord := coordinator.New(st, latch, descriptor, cfg.Auth.Token,
		cfg.Database.SampleName, startup)
	sweeper := coordinator.NewSweeper(coord, coordinator.DefaultSweepInterval)
	server := api.NewServer(api.ServerConfig{Addr: cfg.Server.Addr()}, coord, sweeper)

	if cfg.Auth.Token == "" {
		logger.Warn("No API token configured: all mutating endpoints are disabled")
	}
	logger.Info("Coordinator starting",
		"database", st.Name(),
		"resetAllowed", coord.ResetAllowed(),
		"passwordFound", latch.IsSet(),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// First signal: graceful shutdown. Second signal: force exit.
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("Shutdown signal received")
		cancel()
		<-sigChan
		logger.Error("Second signal received, forcing exit")
		os.Exit(1)
	}()

	go sweeper.Run(ctx)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	logger.Info("Coordinator stopped")
	return nil
}
