package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/repository"
	"ideaplan-api/internal/domain/service"
	apperrors "ideaplan-api/pkg/errors"
	"ideaplan-api/pkg/metrics"
)

// PlanRepository 基于 PostgREST 的计划仓储
// 请求带上调用方令牌时由 Supabase 的 RLS 负责隔离，查询条件同样带上 user_id
type PlanRepository struct {
	client *Client
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository 创建计划仓储
func NewPlanRepository(client *Client) *PlanRepository {
	return &PlanRepository{client: client}
}

type insertPlan struct {
	UserID          string          `json:"user_id"`
	IdeaDescription string          `json:"idea_description"`
	GeneratedData   entity.PlanData `json:"generated_data"`
}

// Save 保存计划，返回 PostgREST 回显的新记录
func (r *PlanRepository) Save(ctx context.Context, userID, ideaDescription string, plan entity.PlanData) (*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "supabase.PlanRepository.Save")
	defer span.End()

	body, err := json.Marshal(insertPlan{UserID: userID, IdeaDescription: ideaDescription, GeneratedData: plan})
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	rows, err := request[[]*entity.StoredPlan](ctx, r.client, reqConfig{
		Method: http.MethodPost,
		Path:   r.client.tablePath(),
		Token:  service.AccessTokenFromContext(ctx),
		Prefer: "return=representation",
		Body:   body,
	}, http.StatusCreated)
	if err != nil {
		span.RecordError(err)
		metrics.PlansSavedTotal.WithLabelValues("supabase", "error").Inc()
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	if len(*rows) == 0 {
		metrics.PlansSavedTotal.WithLabelValues("supabase", "error").Inc()
		return nil, fmt.Errorf("failed to save plan: empty representation")
	}
	metrics.PlansSavedTotal.WithLabelValues("supabase", "success").Inc()
	return (*rows)[0], nil
}

// ListByUser 按创建时间倒序列出用户的计划
func (r *PlanRepository) ListByUser(ctx context.Context, userID string) ([]*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "supabase.PlanRepository.ListByUser")
	defer span.End()

	q := url.Values{}
	q.Set("select", "*")
	q.Set("user_id", "eq."+userID)
	q.Set("order", "created_at.desc")

	rows, err := request[[]*entity.StoredPlan](ctx, r.client, reqConfig{
		Method: http.MethodGet,
		Path:   r.client.tablePath(),
		Query:  q.Encode(),
		Token:  service.AccessTokenFromContext(ctx),
	}, http.StatusOK)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return *rows, nil
}

// GetByID 获取用户的单个计划
// 非 UUID 的 ID 不发请求，PostgREST 对其返回 400
func (r *PlanRepository) GetByID(ctx context.Context, planID, userID string) (*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "supabase.PlanRepository.GetByID")
	defer span.End()

	if !entity.IsPlanID(planID) {
		return nil, apperrors.ErrPlanNotFound
	}

	rows, err := request[[]*entity.StoredPlan](ctx, r.client, reqConfig{
		Method: http.MethodGet,
		Path:   r.client.tablePath(),
		Query:  ownedQuery(planID, userID, true),
		Token:  service.AccessTokenFromContext(ctx),
	}, http.StatusOK)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if len(*rows) == 0 || !(*rows)[0].IsOwnedBy(userID) {
		return nil, apperrors.ErrPlanNotFound
	}
	return (*rows)[0], nil
}

// Delete 删除用户的单个计划
func (r *PlanRepository) Delete(ctx context.Context, planID, userID string) error {
	ctx, span := tracer.Start(ctx, "supabase.PlanRepository.Delete")
	defer span.End()

	if !entity.IsPlanID(planID) {
		return apperrors.ErrPlanNotFound
	}

	rows, err := request[[]map[string]any](ctx, r.client, reqConfig{
		Method: http.MethodDelete,
		Path:   r.client.tablePath(),
		Query:  ownedQuery(planID, userID, false),
		Token:  service.AccessTokenFromContext(ctx),
		Prefer: "return=representation",
	}, http.StatusOK)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if len(*rows) == 0 {
		return apperrors.ErrPlanNotFound
	}
	return nil
}

func ownedQuery(planID, userID string, selectAll bool) string {
	q := url.Values{}
	if selectAll {
		q.Set("select", "*")
	} else {
		q.Set("select", "id")
	}
	q.Set("id", "eq."+planID)
	q.Set("user_id", "eq."+userID)
	return q.Encode()
}
