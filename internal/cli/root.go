// Package cli 实现 plan-cli 命令
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ideaplan-api/internal/config"
	"ideaplan-api/pkg/logger"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "plan-cli",
	Short: "Generate and inspect startup business plans",
	Long: `plan-cli runs the plan generation pipeline from the terminal.

Commands:
  generate    Generate a business plan for an idea
  render      Render a saved plan JSON file
  migrate     Create the plans and llm_usage_events tables`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", config.DefaultDir, "Directory containing config.yaml")
}

// Execute 运行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return nil, err
	}
	// 命令行输出保持干净，日志只输出告警以上
	logger.InitWithWriter(os.Stderr, "warn", "text")
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
