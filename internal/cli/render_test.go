package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaplan-api/internal/domain/entity"
)

func testPlan() entity.PlanData {
	return entity.PlanData{
		Overview:               "Dog walking marketplace",
		StartupNameSuggestions: []string{"Walkr", "Pawly", "Leash"},
		TargetAudience:         "Busy pet owners",
		UIDesignSuggestions:    "Map-first",
		DatabaseSchema:         entity.TableSchema(entity.Table{Name: "users", Fields: []string{"id", "email"}}),
		TypographySuggestions:  "Inter, Poppins",
		ColorPalette:           []string{"#111111", "#222222", "#333333"},
		UserPainPoints:         "Unreliable walkers\nNo tracking",
		RequiredFeatures:       "Booking",
		Competitors:            "1) Rover - Marketplace",
		IndustryInsights:       "Growing",
	}
}

func TestRenderPlan_ContainsSections(t *testing.T) {
	out := RenderPlan(testPlan(), 0)

	for _, want := range []string{
		"Overview", "Dog walking marketplace", "Walkr", "users", "email",
		"Inter", "#222222", "• Unreliable walkers", "Rover", "Industry Insights",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Target Audience"), strings.Index(out, "Competitive Landscape"))
}

func TestRenderCommand_ValidatesInput(t *testing.T) {
	var out bytes.Buffer
	renderCmd.SetOut(&out)
	renderCmd.SetIn(strings.NewReader(`{"overview": "x"}`))

	err := runRender(renderCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "competitors")
}
