package planning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/service"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const samplePlanJSON = `{
  "overview": "A monthly box of small-batch coffee from independent roasters.",
  "startup_name_suggestions": ["BeanCrate", "RoastRoute", "CupCurate", "GrindBox", "BrewBound", "Origin Club"],
  "target_audience": "Coffee Enthusiasts, Remote Workers, Gift Buyers, Home Baristas, Foodies",
  "ui_design_suggestions": "Modern Minimalist, Card-based Layout, Warm Color Scheme, Product Photography Focus",
  "database_schema": {"tables": [{"name": "Users", "fields": ["id", "name", "email"]}, {"name": "Subscriptions", "fields": ["id", "user_id", "plan", "status"]}]},
  "typography_suggestions": "Playfair Display, Inter, Lora, Montserrat, Poppins, Roboto",
  "color_palette": ["#4B2E2B", "#C08552", "#FFF8F0", "#8C5A3C", "#2D2D2D"],
  "user_pain_points": "• Hard to discover good roasters\n• Stale supermarket beans\n• Expensive specialty cafes\n• Too many choices",
  "required_features": "• Taste quiz: Personalise boxes\n• Subscription management: Pause or skip\n• Roaster stories: Origin details\n• Ratings: Rate each bag\n• Gifting: Send a box",
  "competitors": "1) Trade Coffee - Roaster marketplace subscription\n2) Atlas Coffee Club - Single origin world tour\n3) Bean Box - Seattle roasters sampler\n4) Blue Bottle - Roaster-owned subscription",
  "industry_insights": "Specialty coffee continues to grow while direct-to-consumer subscriptions consolidate."
}`

func samplePlan(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(samplePlanJSON), &m))
	return m
}

func expectedSamplePlan() entity.PlanData {
	return entity.PlanData{
		Overview:               "A monthly box of small-batch coffee from independent roasters.",
		StartupNameSuggestions: []string{"BeanCrate", "RoastRoute", "CupCurate", "GrindBox", "BrewBound", "Origin Club"},
		TargetAudience:         "Coffee Enthusiasts, Remote Workers, Gift Buyers, Home Baristas, Foodies",
		UIDesignSuggestions:    "Modern Minimalist, Card-based Layout, Warm Color Scheme, Product Photography Focus",
		DatabaseSchema: entity.TableSchema(
			entity.Table{Name: "Users", Fields: []string{"id", "name", "email"}},
			entity.Table{Name: "Subscriptions", Fields: []string{"id", "user_id", "plan", "status"}},
		),
		TypographySuggestions: "Playfair Display, Inter, Lora, Montserrat, Poppins, Roboto",
		ColorPalette:          []string{"#4B2E2B", "#C08552", "#FFF8F0", "#8C5A3C", "#2D2D2D"},
		UserPainPoints:        "• Hard to discover good roasters\n• Stale supermarket beans\n• Expensive specialty cafes\n• Too many choices",
		RequiredFeatures:      "• Taste quiz: Personalise boxes\n• Subscription management: Pause or skip\n• Roaster stories: Origin details\n• Ratings: Rate each bag\n• Gifting: Send a box",
		Competitors:           "1) Trade Coffee - Roaster marketplace subscription\n2) Atlas Coffee Club - Single origin world tour\n3) Bean Box - Seattle roasters sampler\n4) Blue Bottle - Roaster-owned subscription",
		IndustryInsights:      "Specialty coffee continues to grow while direct-to-consumer subscriptions consolidate.",
	}
}

// fakeCompleter 记录调用次数并返回预设响应
type fakeCompleter struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	text    string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeCompleter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// ---- prompt ----

func TestBuildPrompt_ContainsIdeaAndPresentHints(t *testing.T) {
	idea := "A subscription box for artisanal coffee"

	full := BuildPrompt(PlanRequest{
		IdeaDescription: idea,
		TargetMarket:    "Millennials",
		Country:         "Germany",
		BusinessType:    "B2C",
	})
	assert.Contains(t, full, idea)
	assert.Contains(t, full, "\nTarget Market: Millennials\n")
	assert.Contains(t, full, "\nCountry: Germany\n")
	assert.Contains(t, full, "\nBusiness Type: B2C\n")
	assert.Less(t, strings.Index(full, "Target Market:"), strings.Index(full, "Country:"))
	assert.Less(t, strings.Index(full, "Country:"), strings.Index(full, "Business Type:"))

	partial := BuildPrompt(PlanRequest{IdeaDescription: idea, Country: "Kenya", BusinessType: "  "})
	assert.Contains(t, partial, "Country: Kenya")
	assert.NotContains(t, partial, "Target Market:")
	assert.NotContains(t, partial, "Business Type:")
}

func TestBuildPrompt_TemplateNamesEveryField(t *testing.T) {
	p := BuildPrompt(PlanRequest{IdeaDescription: "x"})
	for _, r := range planRules {
		assert.Contains(t, p, `"`+r.field+`"`)
	}
	assert.Contains(t, p, `"tables"`)
	assert.Contains(t, p, "single descriptive string")
	assert.Equal(t, p, BuildPrompt(PlanRequest{IdeaDescription: "x"}))
}

// ---- repair ----

func TestRepair_StripsFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Repair("```json\n{\"a\":1}\n```"))
}

func TestRepair_TrimsProse(t *testing.T) {
	assert.Equal(t, `{"a":1}`, Repair(`Here is your plan: {"a":1} Hope this helps!`))
	assert.Equal(t, `{"a":{"b":2}}`, Repair("```\n{\"a\":{\"b\":2}}\n``` thanks"))
	assert.Equal(t, "no json here", Repair("  no json here "))
}

func TestRepair_Idempotent(t *testing.T) {
	inputs := []string{
		"```json\n{\"a\":1}\n```",
		`prefix {"a": [1, 2]} suffix`,
		"}{",
		"{",
		"}",
		"",
		"   ",
		"Sorry, I cannot help with that.",
		"````` `",
		"``" + "```json" + "`{\"x\":1}",
		"text { unterminated",
	}
	for _, in := range inputs {
		once := Repair(in)
		assert.Equal(t, once, Repair(once), "input %q", in)
	}
}

// ---- validate ----

func TestValidate_WellFormed(t *testing.T) {
	plan, verr := Validate(samplePlan(t))
	require.Nil(t, verr)
	assert.Equal(t, expectedSamplePlan(), plan)
	assert.Len(t, plan.ColorPalette, 5)
	assert.Len(t, plan.StartupNameSuggestions, 6)
}

func TestValidate_MissingCompetitorsReportsAllIssues(t *testing.T) {
	m := samplePlan(t)
	delete(m, "competitors")
	m["overview"] = ""
	m["color_palette"] = []any{"#fff"}

	_, verr := Validate(m)
	require.NotNil(t, verr)
	assert.ElementsMatch(t, []string{"overview", "color_palette", "competitors"}, verr.Paths())
}

func TestValidate_WhitespaceOnlyStringIsEmpty(t *testing.T) {
	m := samplePlan(t)
	m["industry_insights"] = " \n\t "

	_, verr := Validate(m)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"industry_insights"}, verr.Paths())
}

func TestSample_TruncatesOnRunes(t *testing.T) {
	short := "短文本"
	assert.Equal(t, short, sample(short))

	long := strings.Repeat("计划", logSampleLen)
	got := sample(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, logSampleLen, utf8.RuneCountInString(got))
}

func TestValidate_DatabaseSchemaShapes(t *testing.T) {
	m := samplePlan(t)

	m["database_schema"] = "Users table: id, name"
	plan, verr := Validate(m)
	require.Nil(t, verr)
	assert.Equal(t, entity.TextSchema("Users table: id, name"), plan.DatabaseSchema)

	m["database_schema"] = map[string]any{"tables": []any{
		map[string]any{"name": "Users", "fields": []any{"id", "name"}},
	}}
	plan, verr = Validate(m)
	require.Nil(t, verr)
	assert.Equal(t, entity.TableSchema(entity.Table{Name: "Users", Fields: []string{"id", "name"}}), plan.DatabaseSchema)

	m["database_schema"] = map[string]any{"tables": "Users"}
	_, verr = Validate(m)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"database_schema"}, verr.Paths())

	m["database_schema"] = map[string]any{"tables": []any{
		map[string]any{"name": "Users", "fields": []any{"id", 7}},
	}}
	_, verr = Validate(m)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"database_schema.tables.0.fields.1"}, verr.Paths())

	m["database_schema"] = 12.0
	_, verr = Validate(m)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"database_schema"}, verr.Paths())
}

func TestValidate_ListBounds(t *testing.T) {
	m := samplePlan(t)
	names := make([]any, 11)
	for i := range names {
		names[i] = fmt.Sprintf("n%d", i)
	}
	m["startup_name_suggestions"] = names
	m["color_palette"] = []any{"#000", 1.0, "#222"}

	_, verr := Validate(m)
	require.NotNil(t, verr)
	assert.Equal(t, []string{"startup_name_suggestions", "color_palette.1"}, verr.Paths())
}

func TestValidate_NonObject(t *testing.T) {
	_, verr := Validate([]any{"x"})
	require.NotNil(t, verr)
	assert.Len(t, verr.Paths(), len(planRules))
}

// ---- generate ----

func TestGenerate_ProseWrappedSuccess(t *testing.T) {
	fc := &fakeCompleter{text: "Sure! Here is the plan:\n```json\n" + samplePlanJSON + "\n```\nLet me know if you need more."}
	g := NewGenerator(fc)

	res := g.Generate(context.Background(), PlanRequest{IdeaDescription: "A subscription box for artisanal coffee"})

	require.True(t, res.OK(), res.Message())
	assert.Nil(t, res.Failure())
	assert.Equal(t, expectedSamplePlan(), res.Data())
	assert.Equal(t, 1, fc.Calls())
	assert.Contains(t, fc.prompts[0], "A subscription box for artisanal coffee")
}

func TestGenerate_EmptyIdeaSkipsCompletion(t *testing.T) {
	fc := &fakeCompleter{text: samplePlanJSON}
	g := NewGenerator(fc)

	for _, idea := range []string{"", "   \n\t"} {
		res := g.Generate(context.Background(), PlanRequest{IdeaDescription: idea})
		require.False(t, res.OK())
		assert.Equal(t, KindInvalidInput, res.Failure().Kind)
	}
	assert.Equal(t, 0, fc.Calls())
}

func TestGenerate_NoJSONIsMalformed(t *testing.T) {
	g := NewGenerator(&fakeCompleter{text: "Sorry, I cannot help with that."})

	res := g.Generate(context.Background(), PlanRequest{IdeaDescription: "idea"})
	require.False(t, res.OK())
	assert.Equal(t, KindMalformedJSON, res.Failure().Kind)
	assert.Equal(t, "The AI returned invalid JSON. Please try again.", res.Message())
	assert.Equal(t, entity.PlanData{}, res.Data())
}

func TestGenerate_EmptyResponse(t *testing.T) {
	for _, fc := range []*fakeCompleter{
		{text: ""},
		{text: "  \n"},
		{err: fmt.Errorf("plan completion: %w", service.ErrEmptyCompletion)},
	} {
		res := NewGenerator(fc).Generate(context.Background(), PlanRequest{IdeaDescription: "idea"})
		require.False(t, res.OK())
		assert.Equal(t, KindEmptyResponse, res.Failure().Kind)
		assert.Equal(t, "No response from AI. Please try again.", res.Message())
	}
}

func TestGenerate_SchemaViolationMessage(t *testing.T) {
	m := samplePlan(t)
	delete(m, "competitors")
	delete(m, "industry_insights")
	raw, err := json.Marshal(m)
	require.NoError(t, err)

	res := NewGenerator(&fakeCompleter{text: string(raw)}).Generate(context.Background(), PlanRequest{IdeaDescription: "idea"})
	require.False(t, res.OK())
	f := res.Failure()
	assert.Equal(t, KindSchemaViolation, f.Kind)
	assert.Equal(t, []string{"competitors", "industry_insights"}, f.FieldPaths)
	assert.Equal(t, "The AI response is missing or has invalid fields: competitors, industry_insights. Please try again.", f.Message)
}

func TestGenerate_UpstreamClassification(t *testing.T) {
	cases := []struct {
		name    string
		err     error
		cause   UpstreamCause
		message string
	}{
		{
			name:    "rate limit",
			err:     fmt.Errorf("plan completion: %w", errors.New("429: rate limit reached for model")),
			cause:   UpstreamRateLimit,
			message: "Rate limit exceeded. Please try again in a few moments.",
		},
		{
			name:    "api key",
			err:     errors.New("401: Invalid API Key"),
			cause:   UpstreamAuth,
			message: "Invalid API key. Please check your API key configuration.",
		},
		{
			name:    "deadline",
			err:     fmt.Errorf("plan completion: %w", context.DeadlineExceeded),
			cause:   UpstreamGeneric,
			message: "The AI took too long to respond. Please try again.",
		},
		{
			name:    "generic",
			err:     fmt.Errorf("plan completion: %w", errors.New("connection reset by peer")),
			cause:   UpstreamGeneric,
			message: "connection reset by peer",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewGenerator(&fakeCompleter{err: tc.err}).Generate(context.Background(), PlanRequest{IdeaDescription: "idea"})
			require.False(t, res.OK())
			f := res.Failure()
			assert.Equal(t, KindUpstreamError, f.Kind)
			assert.Equal(t, tc.cause, f.Cause)
			assert.Equal(t, tc.message, f.Message)
			assert.ErrorIs(t, f, tc.err)
		})
	}
}

func TestGenerate_ConcurrentCallsAreIndependent(t *testing.T) {
	g := NewGenerator(service.CompleterFunc(func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "bad") {
			return "not json", nil
		}
		return samplePlanJSON, nil
	}))

	var wg sync.WaitGroup
	results := make([]Result, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idea := "good idea"
			if i%2 == 1 {
				idea = "bad idea"
			}
			results[i] = g.Generate(context.Background(), PlanRequest{IdeaDescription: idea})
		}(i)
	}
	wg.Wait()

	for i, res := range results {
		if i%2 == 1 {
			assert.Equal(t, KindMalformedJSON, res.Failure().Kind)
			continue
		}
		require.True(t, res.OK())
		assert.Equal(t, expectedSamplePlan(), res.Data())
	}
}

func TestResult_DataIsCopied(t *testing.T) {
	res := Success(expectedSamplePlan())
	d := res.Data()
	d.ColorPalette[0] = "#changed"
	assert.Equal(t, "#4B2E2B", res.Data().ColorPalette[0])
}
