package app

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	scanapp "github.com/topicfeed/scan-orchestrator/internal/app"
	"github.com/topicfeed/scan-orchestrator/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print unified cross-source statistics",
	Long: `Print aggregated scan statistics across all configured sources as JSON
on stdout, based on the accumulated scan history.`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := statsCmd.MarkFlagRequired("config"); err != nil {
		panic(fmt.Sprintf("failed to mark config flag as required: %v", err))
	}
}

func runStats(cmd *cobra.Command, _ []string) error {
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

	unified := application.GetComponents().Stats.GetUnifiedStats(ctx)

	output, err := json.MarshalIndent(unified, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format statistics: %w", err)
	}
	fmt.Println(string(output))

	return nil
}
