package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/apiclient"
	"github.com/luchenqun/lucky-dog/pkg/config"
	"github.com/luchenqun/lucky-dog/pkg/worker"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the worker loop",
	Long: `Start the lease/verify/report loop against the configured
coordinator. The loop exits cleanly once the password is found.`,
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

	clientID := cfg.Worker.ClientID
	if clientID == "" {
		clientID = defaultClientID()
	}

	client := apiclient.New(cfg.Worker.ServerURL, cfg.Auth.Token)
	loop := &worker.Loop{
		Client:   client,
		ClientID: clientID,
		CPUCount: runtime.NumCPU(),
		Workers:  cfg.Worker.Parallelism(),
	}

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

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("worker loop failed: %w", err)
	}
	logger.Info("Worker stopped", "client", clientID)
	return nil
}

// defaultClientID derives a stable-enough opaque worker identity from
// the hostname plus a short random suffix.
func defaultClientID() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "worker"
	}
	return fmt.Sprintf("%s-%s", hostname, uuid.NewString()[:8])
}
