package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	scanapp "github.com/topicfeed/scan-orchestrator/internal/app"
	"github.com/topicfeed/scan-orchestrator/internal/config"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run one coordinated scan cycle and print the unified result",
	Long: `Run one coordinated scan cycle across all configured sources and print
the unified result as JSON on stdout. The command exits after the cycle
completes; no server is started.`,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := scanCmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as required: %v", err))
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}
	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	application, err := scanapp.NewScanApp(ctx, scanapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	result, err := application.GetComponents().Orchestrator.RunCoordinatedScan(ctx)
	if err != nil {
		return fmt.Errorf("coordinated scan failed: %w", err)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format scan result: %w", err)
	}
	fmt.Println(string(output))

	return nil
}
