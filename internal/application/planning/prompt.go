// Package planning 把创业想法转成经过校验的商业计划
package planning

import (
	"strings"
)

// PlanRequest 一次生成请求
type PlanRequest struct {
	IdeaDescription string
	TargetMarket    string
	Country         string
	BusinessType    string
}

const promptPreamble = "You are a business planning AI assistant. Generate a comprehensive business plan analysis in VALID JSON format ONLY."

const promptInstructions = `CRITICAL INSTRUCTIONS:
1. Return ONLY a JSON object, no markdown, no code blocks, no explanations
2. Use EXACTLY these field names with underscores (not spaces or hyphens)
3. All fields are required and must follow the specified format
4. "database_schema" should use the object form below; a single descriptive string (e.g. "Users table: id, name, email") is also accepted`

const promptExample = `{
  "overview": "2-3 paragraph executive summary of the business idea, market opportunity, and value proposition",
  "startup_name_suggestions": ["name1", "name2", "name3", "name4", "name5", "name6"],
  "target_audience": "Home Cooks, Foodies, Families, Cooking Enthusiasts, Healthconscious Individuals, Professional Chefs, Recipe Bloggers (Provide 5-8 specific audience segments as comma-separated values)",
  "ui_design_suggestions": "Modern Minimalist, Material Design, Flat Design, Card-based Layout, Bottom Navigation, Bright Color Scheme, Food Photography Focus, Recipe Cards, Dark Mode Option (Provide 6-10 specific design style keywords or UI patterns as comma-separated values)",
  "database_schema": {
    "tables": [
      {
        "name": "Users",
        "fields": ["id", "name", "email", "password", "created_at", "updated_at"]
      },
      {
        "name": "Products",
        "fields": ["id", "name", "description", "price", "stock", "category_id"]
      },
      {
        "name": "Orders",
        "fields": ["id", "user_id", "total", "status", "created_at"]
      },
      {
        "name": "Categories",
        "fields": ["id", "name", "description"]
      }
    ]
  },
  "typography_suggestions": "Open Sans, Roboto, Lato, Montserrat, Poppins, Inter, Helvetica, Georgia (Provide 6-8 Google Font names as comma-separated values)",
  "color_palette": ["#1E40AF", "#8B5CF6", "#10B981", "#F59E0B", "#EF4444"],
  "user_pain_points": "• First major pain point\n• Second pain point\n• Third pain point\n• Fourth pain point\n(Use bullet points with • symbol)",
  "required_features": "• Feature 1: Description\n• Feature 2: Description\n• Feature 3: Description\n• Feature 4: Description\n• Feature 5: Description\n(Use bullet points with • symbol, 5-8 features)",
  "competitors": "1) Company Name 1 - Brief description\n2) Company Name 2 - Brief description\n3) Company Name 3 - Brief description\n4) Company Name 4 - Brief description\n(Provide 4-5 specific competitor names)",
  "industry_insights": "Market trends, growth projections, and key industry developments"
}`

// BuildPrompt 构造发给模型的用户消息
// 提示行顺序固定为 市场、国家、业务类型；空白提示不输出
func BuildPrompt(req PlanRequest) string {
	var b strings.Builder
	b.Grow(len(promptPreamble) + len(promptInstructions) + len(promptExample) + len(req.IdeaDescription) + 256)

	b.WriteString(promptPreamble)
	b.WriteString("\n\nStartup Idea: ")
	b.WriteString(req.IdeaDescription)
	b.WriteString("\n")

	for _, hint := range req.hints() {
		b.WriteString(hint.label)
		b.WriteString(": ")
		b.WriteString(hint.value)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptInstructions)
	b.WriteString("\n\n")
	b.WriteString(promptExample)
	return b.String()
}

type promptHint struct {
	label string
	value string
}

func (r PlanRequest) hints() []promptHint {
	candidates := []promptHint{
		{label: "Target Market", value: r.TargetMarket},
		{label: "Country", value: r.Country},
		{label: "Business Type", value: r.BusinessType},
	}
	out := make([]promptHint, 0, len(candidates))
	for _, h := range candidates {
		v := strings.TrimSpace(h.value)
		if v == "" {
			continue
		}
		out = append(out, promptHint{label: h.label, value: v})
	}
	return out
}
