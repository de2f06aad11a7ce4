// Package entity 定义领域实体
package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Table 结构化数据库设计中的一张表
type Table struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
}

// DatabaseSchema 数据库设计建议，取值为自由文本或 {tables: [...]} 两种形态之一
type DatabaseSchema struct {
	Text   string
	Tables []Table
}

// TextSchema 构造文本形态
func TextSchema(text string) DatabaseSchema {
	return DatabaseSchema{Text: text}
}

// TableSchema 构造结构化形态
func TableSchema(tables ...Table) DatabaseSchema {
	if tables == nil {
		tables = []Table{}
	}
	return DatabaseSchema{Tables: tables}
}

// IsStructured 是否为 {tables: [...]} 形态
func (s DatabaseSchema) IsStructured() bool {
	return s.Tables != nil
}

// MarshalJSON 按原形态输出
func (s DatabaseSchema) MarshalJSON() ([]byte, error) {
	if s.IsStructured() {
		return json.Marshal(struct {
			Tables []Table `json:"tables"`
		}{Tables: s.Tables})
	}
	return json.Marshal(s.Text)
}

// UnmarshalJSON 接受字符串或 {tables: [...]}；null 保持原值
func (s *DatabaseSchema) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = TextSchema(text)
		return nil
	}

	var obj struct {
		Tables []Table `json:"tables"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("database_schema: %w", err)
	}
	if obj.Tables == nil {
		return fmt.Errorf("database_schema: expected string or object with tables")
	}
	*s = TableSchema(obj.Tables...)
	return nil
}

// Clone 深拷贝
func (s DatabaseSchema) Clone() DatabaseSchema {
	if !s.IsStructured() {
		return s
	}
	tables := make([]Table, len(s.Tables))
	for i, t := range s.Tables {
		tables[i] = Table{Name: t.Name, Fields: append([]string(nil), t.Fields...)}
	}
	return DatabaseSchema{Tables: tables}
}

// PlanData 通过校验的商业计划
// 只由校验器构造；对外传递时使用 Clone 避免共享切片
type PlanData struct {
	Overview               string         `json:"overview"`
	StartupNameSuggestions []string       `json:"startup_name_suggestions"`
	TargetAudience         string         `json:"target_audience"`
	UIDesignSuggestions    string         `json:"ui_design_suggestions"`
	DatabaseSchema         DatabaseSchema `json:"database_schema"`
	TypographySuggestions  string         `json:"typography_suggestions"`
	ColorPalette           []string       `json:"color_palette"`
	UserPainPoints         string         `json:"user_pain_points"`
	RequiredFeatures       string         `json:"required_features"`
	Competitors            string         `json:"competitors"`
	IndustryInsights       string         `json:"industry_insights"`
}

// Clone 深拷贝
func (p PlanData) Clone() PlanData {
	cp := p
	cp.StartupNameSuggestions = append([]string(nil), p.StartupNameSuggestions...)
	cp.ColorPalette = append([]string(nil), p.ColorPalette...)
	cp.DatabaseSchema = p.DatabaseSchema.Clone()
	return cp
}

// StoredPlan 已保存的计划记录
type StoredPlan struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID          string    `json:"user_id" gorm:"type:uuid;index:idx_plans_user_created,priority:1;not null"`
	IdeaDescription string    `json:"idea_description" gorm:"type:text;not null"`
	GeneratedData   PlanData  `json:"generated_data" gorm:"type:jsonb;serializer:json;not null"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime;index:idx_plans_user_created,priority:2,sort:desc"`
}

// TableName 指定表名
func (StoredPlan) TableName() string {
	return "plans"
}

// NewStoredPlan 创建待保存的计划记录
func NewStoredPlan(userID, idea string, plan PlanData) *StoredPlan {
	return &StoredPlan{
		ID:              uuid.NewString(),
		UserID:          userID,
		IdeaDescription: idea,
		GeneratedData:   plan.Clone(),
		CreatedAt:       time.Now().UTC(),
	}
}

// IsPlanID 计划 ID 必须是 UUID，其余取值按不存在处理
func IsPlanID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsOwnedBy 检查记录归属
func (p *StoredPlan) IsOwnedBy(userID string) bool {
	return p != nil && userID != "" && p.UserID == userID
}
