package dto

import (
	"encoding/json"
	"time"

	"ideaplan-api/internal/application/planview"
	"ideaplan-api/internal/domain/entity"
)

// GeneratePlanRequest 生成计划请求
type GeneratePlanRequest struct {
	IdeaDescription string `json:"ideaDescription"`
	TargetMarket    string `json:"targetMarket,omitempty"`
	Country         string `json:"country,omitempty"`
	BusinessType    string `json:"businessType,omitempty"`
}

// GeneratePlanResponse 生成计划响应
type GeneratePlanResponse struct {
	Success bool             `json:"success"`
	Data    *entity.PlanData `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// SavePlanRequest 保存计划请求；generatedData 保持原始 JSON，交给校验器判断形态
type SavePlanRequest struct {
	IdeaDescription string          `json:"ideaDescription"`
	GeneratedData   json.RawMessage `json:"generatedData"`
}

// SavePlanResponse 保存计划响应
type SavePlanResponse struct {
	Success bool   `json:"success,omitempty"`
	PlanID  string `json:"planId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PlanSummaryResponse 列表项
type PlanSummaryResponse struct {
	ID              string `json:"id"`
	IdeaDescription string `json:"idea_description"`
	Overview        string `json:"overview"`
	CreatedAt       string `json:"created_at"`
}

// PlanResponse 计划详情
type PlanResponse struct {
	ID              string          `json:"id"`
	IdeaDescription string          `json:"idea_description"`
	GeneratedData   entity.PlanData `json:"generated_data"`
	CreatedAt       string          `json:"created_at"`
}

// PlanSectionsResponse 计划展示区块
type PlanSectionsResponse struct {
	ID              string           `json:"id"`
	IdeaDescription string           `json:"idea_description"`
	Groups          []planview.Group `json:"groups"`
}

// ToPlanSummaryResponse 转换列表项
func ToPlanSummaryResponse(p *entity.StoredPlan) *PlanSummaryResponse {
	if p == nil {
		return nil
	}
	return &PlanSummaryResponse{
		ID:              p.ID,
		IdeaDescription: p.IdeaDescription,
		Overview:        p.GeneratedData.Overview,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToPlanSummaryResponses 批量转换
func ToPlanSummaryResponses(plans []*entity.StoredPlan) []*PlanSummaryResponse {
	out := make([]*PlanSummaryResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, ToPlanSummaryResponse(p))
	}
	return out
}

// ToPlanResponse 转换详情
func ToPlanResponse(p *entity.StoredPlan) *PlanResponse {
	if p == nil {
		return nil
	}
	return &PlanResponse{
		ID:              p.ID,
		IdeaDescription: p.IdeaDescription,
		GeneratedData:   p.GeneratedData.Clone(),
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToPlanSectionsResponse 转换展示区块
func ToPlanSectionsResponse(p *entity.StoredPlan) *PlanSectionsResponse {
	return &PlanSectionsResponse{
		ID:              p.ID,
		IdeaDescription: p.IdeaDescription,
		Groups:          planview.Build(p.GeneratedData),
	}
}
