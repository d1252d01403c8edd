package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	scanapp "github.com/topicfeed/scan-orchestrator/internal/app"
	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/telemetry"
	"github.com/topicfeed/scan-orchestrator/internal/versions"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scan orchestrator server",
	Long: `Start the scan orchestrator server.

The server requires a configuration file (--config) that specifies:
- The topic and its search keywords
- The source platforms to scan and their credentials
- Coordination settings (interval, priority, content balancing)

See examples/ directory for sample configurations.`,
	RunE: runServe,
}

// defaultGracefulTimeout leaves room for an in-flight scan to finish
const defaultGracefulTimeout = 30 * time.Second

func init() {
	serveCmd.Flags().String("address", "", "Address to listen on (overrides config)")
	serveCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := viper.BindPFlag("address", serveCmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
		os.Exit(1)
	}
	if err := viper.BindPFlag("config", serveCmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
		os.Exit(1)
	}

	if err := serveCmd.MarkFlagRequired("config"); err != nil {
		slog.Error("Failed to mark config flag as required", "error", err)
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath := viper.GetString("config")
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"topic", cfg.Topic.Name,
		"sources", len(cfg.Sources))

	tel, err := telemetry.New(ctx,
		telemetry.WithMetricsEnabled(cfg.MetricsEnabled()),
		telemetry.WithServiceName("tfscand"),
		telemetry.WithServiceVersion(versions.GetVersionInfo().Version),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	opts := []scanapp.ScanAppOptions{
		scanapp.WithConfig(cfg),
		scanapp.WithConfigPath(configPath),
		scanapp.WithMeterProvider(tel.MeterProvider()),
	}
	if address := viper.GetString("address"); address != "" {
		opts = append(opts, scanapp.WithAddress(address))
	}

	application, err := scanapp.NewScanApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- application.Start()
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig.String())
		if err := application.Stop(defaultGracefulTimeout); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		slog.Error("Telemetry shutdown failed", "error", err)
	}

	return nil
}
