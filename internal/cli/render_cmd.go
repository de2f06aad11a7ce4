package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ideaplan-api/internal/application/planning"
)

var renderWidth int

var renderCmd = &cobra.Command{
	Use:   "render [plan.json]",
	Short: "Render a plan JSON file",
	Long: `Validate and render a plan produced by "generate --json".
Reads from stdin when no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().IntVar(&renderWidth, "width", 100, "Wrap width for rendered output")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	var candidate any
	if err := json.NewDecoder(r).Decode(&candidate); err != nil {
		return fmt.Errorf("invalid plan JSON: %w", err)
	}
	plan, verr := planning.Validate(candidate)
	if verr != nil {
		return fmt.Errorf("invalid plan: %s", strings.Join(verr.Paths(), ", "))
	}

	_, err := fmt.Fprint(cmd.OutOrStdout(), RenderPlan(plan, renderWidth))
	return err
}
