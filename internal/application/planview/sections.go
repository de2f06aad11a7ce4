// Package planview 把计划映射为分组的展示区块，供接口与命令行渲染
package planview

import (
	"regexp"
	"strings"

	"ideaplan-api/internal/domain/entity"
)

// DisplayType 区块展示形态
type DisplayType string

const (
	DisplayText        DisplayType = "text"
	DisplayNames       DisplayType = "names"
	DisplayColors      DisplayType = "colors"
	DisplaySchema      DisplayType = "schema"
	DisplayFonts       DisplayType = "fonts"
	DisplayList        DisplayType = "list"
	DisplayCompetitors DisplayType = "competitors"
)

// Competitor 竞品条目
type Competitor struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Section 单个展示区块
type Section struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Icon        string         `json:"icon"`
	Display     DisplayType    `json:"display"`
	Text        string         `json:"text,omitempty"`
	Items       []string       `json:"items,omitempty"`
	Tables      []entity.Table `json:"tables,omitempty"`
	Competitors []Competitor   `json:"competitors,omitempty"`
}

// Group 区块分组
type Group struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

type sectionSpec struct {
	id    string
	title string
	icon  string
	group string
	build func(p entity.PlanData) Section
}

var groupOrder = []struct{ id, title string }{
	{"overview", "Overview"},
	{"audience", "Target Audience"},
	{"website", "Website"},
	{"dynamics", "User Dynamics"},
	{"competitive", "Competitive Landscape"},
	{"industry", "Industry Insights"},
}

var sectionSpecs = []sectionSpec{
	{"overview", "Overview", "📋", "overview", func(p entity.PlanData) Section { return textSection(p.Overview) }},
	{"name-suggestions", "Name Suggestions", "💡", "overview", func(p entity.PlanData) Section {
		return Section{Display: DisplayNames, Items: append([]string(nil), p.StartupNameSuggestions...)}
	}},
	{"target-audience", "Target Audience", "👥", "audience", func(p entity.PlanData) Section { return textSection(p.TargetAudience) }},
	{"ui-design", "UI Design", "🎨", "website", func(p entity.PlanData) Section { return textSection(p.UIDesignSuggestions) }},
	{"database-schema", "Database Schema", "🗄️", "website", func(p entity.PlanData) Section { return schemaSection(p.DatabaseSchema) }},
	{"typography", "Typography", "🔤", "website", func(p entity.PlanData) Section { return fontSection(p.TypographySuggestions) }},
	{"color-palette", "Color Palette", "🎨", "website", func(p entity.PlanData) Section {
		return Section{Display: DisplayColors, Items: append([]string(nil), p.ColorPalette...)}
	}},
	{"pain-points", "User Pain Points", "⚠️", "dynamics", func(p entity.PlanData) Section { return listSection(p.UserPainPoints) }},
	{"features", "Required Features", "✨", "dynamics", func(p entity.PlanData) Section { return listSection(p.RequiredFeatures) }},
	{"competitors", "Competitors", "🏢", "competitive", func(p entity.PlanData) Section { return competitorSection(p.Competitors) }},
	{"industry-insights", "Industry Insights", "📊", "industry", func(p entity.PlanData) Section { return textSection(p.IndustryInsights) }},
}

// Build 按固定分组顺序生成全部区块
func Build(plan entity.PlanData) []Group {
	groups := make([]Group, 0, len(groupOrder))
	index := make(map[string]int, len(groupOrder))
	for _, g := range groupOrder {
		index[g.id] = len(groups)
		groups = append(groups, Group{ID: g.id, Title: g.title, Sections: []Section{}})
	}

	for _, spec := range sectionSpecs {
		s := spec.build(plan)
		s.ID = spec.id
		s.Title = spec.title
		s.Icon = spec.icon
		gi := index[spec.group]
		groups[gi].Sections = append(groups[gi].Sections, s)
	}
	return groups
}

func textSection(text string) Section {
	return Section{Display: DisplayText, Text: strings.TrimSpace(text)}
}

func schemaSection(schema entity.DatabaseSchema) Section {
	if schema.IsStructured() {
		return Section{Display: DisplaySchema, Tables: schema.Clone().Tables}
	}
	if tables := ParseSchemaText(schema.Text); len(tables) > 0 {
		return Section{Display: DisplaySchema, Tables: tables}
	}
	return textSection(schema.Text)
}

func fontSection(text string) Section {
	if fonts := SplitFonts(text); len(fonts) > 0 {
		return Section{Display: DisplayFonts, Items: fonts}
	}
	return textSection(text)
}

func listSection(text string) Section {
	if items := SplitItems(text); len(items) > 1 {
		return Section{Display: DisplayList, Items: items}
	}
	return textSection(text)
}

func competitorSection(text string) Section {
	if comps := ParseCompetitors(text); len(comps) > 0 {
		return Section{Display: DisplayCompetitors, Competitors: comps}
	}
	return listSection(text)
}

var (
	tableSuffix     = regexp.MustCompile(`(?i)\s+table$`)
	bulletPrefix    = regexp.MustCompile(`^\s*(?:[-*•]\s*)`)
	competitorIndex = regexp.MustCompile(`^\d+\)`)
	competitorEntry = regexp.MustCompile(`^\d+\)\s*(.+?)\s*-\s*(.+)$`)
)

// ParseSchemaText 解析 "Users: id, email" 形式的表描述
// 冒号后为空时，后续不含冒号的行作为该表字段
func ParseSchemaText(text string) []entity.Table {
	var tables []entity.Table
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if name, rest, ok := strings.Cut(line, ":"); ok {
			name = tableSuffix.ReplaceAllString(strings.TrimSpace(bulletPrefix.ReplaceAllString(name, "")), "")
			if name == "" {
				continue
			}
			tables = append(tables, entity.Table{Name: name, Fields: splitTrim(rest, ",")})
			continue
		}

		if len(tables) == 0 {
			continue
		}
		field := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if field != "" {
			last := &tables[len(tables)-1]
			last.Fields = append(last.Fields, field)
		}
	}
	return tables
}

// SplitFonts 拆分逗号分隔的字体名，丢弃过短或带括号说明的片段
func SplitFonts(text string) []string {
	var fonts []string
	for _, f := range splitTrim(text, ",") {
		if len(f) > 2 && !strings.Contains(f, "(") {
			fonts = append(fonts, f)
		}
	}
	return fonts
}

// SplitItems 按 "•"、换行、句号的优先级拆分条目
func SplitItems(text string) []string {
	var sep string
	switch {
	case strings.Contains(text, "•"):
		sep = "•"
	case strings.Contains(text, "\n"):
		sep = "\n"
	default:
		sep = "."
	}

	var items []string
	for _, item := range splitTrim(text, sep) {
		if item = strings.TrimSpace(bulletPrefix.ReplaceAllString(item, "")); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// ParseCompetitors 提取 "1) Name - description" 形式的竞品
func ParseCompetitors(text string) []Competitor {
	var comps []Competitor
	for _, item := range SplitItems(text) {
		if !competitorIndex.MatchString(item) {
			continue
		}
		if m := competitorEntry.FindStringSubmatch(item); m != nil {
			comps = append(comps, Competitor{Name: strings.TrimSpace(m[1]), Description: strings.TrimSpace(m[2])})
			continue
		}
		comps = append(comps, Competitor{Name: strings.TrimSpace(competitorIndex.ReplaceAllString(item, ""))})
	}
	return comps
}

func splitTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
