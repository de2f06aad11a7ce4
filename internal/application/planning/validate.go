package planning

import (
	"fmt"
	"strings"

	"ideaplan-api/internal/domain/entity"
)

// IssueTag 校验问题类型
type IssueTag string

const (
	IssueRequired     IssueTag = "required"
	IssueInvalidType  IssueTag = "invalid_type"
	IssueEmpty        IssueTag = "empty"
	IssueTooFew       IssueTag = "too_few"
	IssueTooMany      IssueTag = "too_many"
	IssueInvalidShape IssueTag = "invalid_shape"
)

// Issue 单个字段问题
type Issue struct {
	Path string   `json:"path"`
	Tag  IssueTag `json:"tag"`
}

// ValidationError 列出所有不合格字段
type ValidationError struct {
	Issues []Issue
}

func (e *ValidationError) Error() string {
	return "plan validation failed: " + strings.Join(e.Paths(), ", ")
}

// Paths 返回去重后的字段路径，保持出现顺序
func (e *ValidationError) Paths() []string {
	if e == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(e.Issues))
	out := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		if _, ok := seen[is.Path]; ok {
			continue
		}
		seen[is.Path] = struct{}{}
		out = append(out, is.Path)
	}
	return out
}

// checkFunc 检查 path 处的值，返回发现的问题；present 为 false 表示字段缺失
type checkFunc func(path string, v any, present bool) []Issue

type fieldRule struct {
	field string
	check checkFunc
}

// planRules 每个字段一条规则，按字段声明顺序报告问题
var planRules = []fieldRule{
	{field: "overview", check: nonEmptyString},
	{field: "startup_name_suggestions", check: stringList(3, 10)},
	{field: "target_audience", check: nonEmptyString},
	{field: "ui_design_suggestions", check: nonEmptyString},
	{field: "database_schema", check: databaseSchema},
	{field: "typography_suggestions", check: nonEmptyString},
	{field: "color_palette", check: stringList(3, 10)},
	{field: "user_pain_points", check: nonEmptyString},
	{field: "required_features", check: nonEmptyString},
	{field: "competitors", check: nonEmptyString},
	{field: "industry_insights", check: nonEmptyString},
}

// Validate 按规则表校验解析后的 JSON 值
// 校验通过时返回完整的 PlanData；否则返回所有问题字段
func Validate(candidate any) (entity.PlanData, *ValidationError) {
	obj, ok := candidate.(map[string]any)
	if !ok {
		issues := make([]Issue, 0, len(planRules))
		for _, r := range planRules {
			issues = append(issues, Issue{Path: r.field, Tag: IssueRequired})
		}
		return entity.PlanData{}, &ValidationError{Issues: issues}
	}

	var issues []Issue
	for _, r := range planRules {
		v, present := obj[r.field]
		issues = append(issues, r.check(r.field, v, present)...)
	}
	if len(issues) > 0 {
		return entity.PlanData{}, &ValidationError{Issues: issues}
	}

	return entity.PlanData{
		Overview:               obj["overview"].(string),
		StartupNameSuggestions: toStrings(obj["startup_name_suggestions"]),
		TargetAudience:         obj["target_audience"].(string),
		UIDesignSuggestions:    obj["ui_design_suggestions"].(string),
		DatabaseSchema:         toDatabaseSchema(obj["database_schema"]),
		TypographySuggestions:  obj["typography_suggestions"].(string),
		ColorPalette:           toStrings(obj["color_palette"]),
		UserPainPoints:         obj["user_pain_points"].(string),
		RequiredFeatures:       obj["required_features"].(string),
		Competitors:            obj["competitors"].(string),
		IndustryInsights:       obj["industry_insights"].(string),
	}, nil
}

// nonEmptyString 仅含空白的字符串按空处理
func nonEmptyString(path string, v any, present bool) []Issue {
	if !present || v == nil {
		return []Issue{{Path: path, Tag: IssueRequired}}
	}
	s, ok := v.(string)
	if !ok {
		return []Issue{{Path: path, Tag: IssueInvalidType}}
	}
	if strings.TrimSpace(s) == "" {
		return []Issue{{Path: path, Tag: IssueEmpty}}
	}
	return nil
}

func stringList(min, max int) checkFunc {
	return func(path string, v any, present bool) []Issue {
		if !present || v == nil {
			return []Issue{{Path: path, Tag: IssueRequired}}
		}
		items, ok := v.([]any)
		if !ok {
			return []Issue{{Path: path, Tag: IssueInvalidType}}
		}

		var issues []Issue
		for i, item := range items {
			if _, ok := item.(string); !ok {
				issues = append(issues, Issue{Path: fmt.Sprintf("%s.%d", path, i), Tag: IssueInvalidType})
			}
		}
		switch {
		case len(items) < min:
			issues = append(issues, Issue{Path: path, Tag: IssueTooFew})
		case len(items) > max:
			issues = append(issues, Issue{Path: path, Tag: IssueTooMany})
		}
		return issues
	}
}

// databaseSchema 接受非空字符串或 {tables: [{name, fields[]}]}
// tables 为数组时报告内部路径，其余形态统一报告 database_schema
func databaseSchema(path string, v any, present bool) []Issue {
	if !present || v == nil {
		return []Issue{{Path: path, Tag: IssueRequired}}
	}

	switch val := v.(type) {
	case string:
		if strings.TrimSpace(val) == "" {
			return []Issue{{Path: path, Tag: IssueEmpty}}
		}
		return nil
	case map[string]any:
		tables, ok := val["tables"].([]any)
		if !ok {
			return []Issue{{Path: path, Tag: IssueInvalidShape}}
		}
		var issues []Issue
		for i, t := range tables {
			tablePath := fmt.Sprintf("%s.tables.%d", path, i)
			table, ok := t.(map[string]any)
			if !ok {
				issues = append(issues, Issue{Path: tablePath, Tag: IssueInvalidType})
				continue
			}
			if _, ok := table["name"].(string); !ok {
				issues = append(issues, Issue{Path: tablePath + ".name", Tag: IssueInvalidType})
			}
			fields, ok := table["fields"].([]any)
			if !ok {
				issues = append(issues, Issue{Path: tablePath + ".fields", Tag: IssueInvalidType})
				continue
			}
			for j, f := range fields {
				if _, ok := f.(string); !ok {
					issues = append(issues, Issue{Path: fmt.Sprintf("%s.fields.%d", tablePath, j), Tag: IssueInvalidType})
				}
			}
		}
		return issues
	default:
		return []Issue{{Path: path, Tag: IssueInvalidShape}}
	}
}

func toStrings(v any) []string {
	items, _ := v.([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.(string))
	}
	return out
}

func toDatabaseSchema(v any) entity.DatabaseSchema {
	if s, ok := v.(string); ok {
		return entity.TextSchema(s)
	}
	raw := v.(map[string]any)["tables"].([]any)
	tables := make([]entity.Table, 0, len(raw))
	for _, t := range raw {
		table := t.(map[string]any)
		tables = append(tables, entity.Table{
			Name:   table["name"].(string),
			Fields: toStrings(table["fields"]),
		})
	}
	return entity.TableSchema(tables...)
}
