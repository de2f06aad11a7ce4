package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ideaplan-api/internal/application/planning"
	"ideaplan-api/internal/wire"
)

var (
	generateMarket       string
	generateCountry      string
	generateBusinessType string
	generateJSON         bool
	generateWidth        int
)

var generateCmd = &cobra.Command{
	Use:   "generate <idea>",
	Short: "Generate a business plan for an idea",
	Long: `Generate a business plan using the configured default LLM provider.

Examples:
  plan-cli generate "A subscription box for specialty coffee"
  plan-cli generate "Dog walking marketplace" --market "Urban pet owners" --country Germany
  plan-cli generate "Meal kits for students" --json > plan.json`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateMarket, "market", "", "Target market hint")
	generateCmd.Flags().StringVar(&generateCountry, "country", "", "Country hint")
	generateCmd.Flags().StringVar(&generateBusinessType, "business-type", "", "Business type hint")
	generateCmd.Flags().BoolVar(&generateJSON, "json", false, "Print the plan as JSON")
	generateCmd.Flags().IntVar(&generateWidth, "width", 100, "Wrap width for rendered output")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	generator, err := wire.InitializeGenerator(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize generator: %w", err)
	}

	res := generator.Generate(ctx, planning.PlanRequest{
		IdeaDescription: args[0],
		TargetMarket:    generateMarket,
		Country:         generateCountry,
		BusinessType:    generateBusinessType,
	})
	if !res.OK() {
		return fmt.Errorf("%s", res.Message())
	}

	out := cmd.OutOrStdout()
	if generateJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Data())
	}
	_, err = fmt.Fprint(out, RenderPlan(res.Data(), generateWidth))
	return err
}
