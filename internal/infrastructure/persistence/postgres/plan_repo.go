// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/repository"
	apperrors "ideaplan-api/pkg/errors"
	"ideaplan-api/pkg/metrics"
)

// PlanRepository 计划仓储实现
// 每个操作都在设置了 app.current_user_id 的事务中执行，并在查询条件中带上 user_id
type PlanRepository struct {
	client *Client
	owner  repository.OwnerContextManager
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

// NewPlanRepository 创建计划仓储
func NewPlanRepository(client *Client, owner repository.OwnerContextManager) *PlanRepository {
	return &PlanRepository{client: client, owner: owner}
}

// Save 保存计划
func (r *PlanRepository) Save(ctx context.Context, userID, ideaDescription string, plan entity.PlanData) (*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "postgres.PlanRepository.Save")
	defer span.End()

	record := entity.NewStoredPlan(userID, ideaDescription, plan)
	err := r.owner.WithOwner(ctx, userID, func(ctx context.Context) error {
		return getDB(ctx, r.client.db).Create(record).Error
	})
	if err != nil {
		span.RecordError(err)
		metrics.PlansSavedTotal.WithLabelValues("postgres", "error").Inc()
		return nil, fmt.Errorf("failed to save plan: %w", err)
	}
	metrics.PlansSavedTotal.WithLabelValues("postgres", "success").Inc()
	return record, nil
}

// ListByUser 按创建时间倒序列出用户计划
func (r *PlanRepository) ListByUser(ctx context.Context, userID string) ([]*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "postgres.PlanRepository.ListByUser")
	defer span.End()

	var plans []*entity.StoredPlan
	err := r.owner.WithOwner(ctx, userID, func(ctx context.Context) error {
		return getDB(ctx, r.client.db).
			Where("user_id = ?", userID).
			Order("created_at DESC").
			Find(&plans).Error
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// GetByID 获取用户的单个计划
func (r *PlanRepository) GetByID(ctx context.Context, planID, userID string) (*entity.StoredPlan, error) {
	ctx, span := tracer.Start(ctx, "postgres.PlanRepository.GetByID")
	defer span.End()

	if !entity.IsPlanID(planID) {
		return nil, apperrors.ErrPlanNotFound
	}

	var plan entity.StoredPlan
	err := r.owner.WithOwner(ctx, userID, func(ctx context.Context) error {
		return getDB(ctx, r.client.db).First(&plan, "id = ? AND user_id = ?", planID, userID).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// Delete 删除用户的单个计划
func (r *PlanRepository) Delete(ctx context.Context, planID, userID string) error {
	ctx, span := tracer.Start(ctx, "postgres.PlanRepository.Delete")
	defer span.End()

	if !entity.IsPlanID(planID) {
		return apperrors.ErrPlanNotFound
	}

	var affected int64
	err := r.owner.WithOwner(ctx, userID, func(ctx context.Context) error {
		res := getDB(ctx, r.client.db).Delete(&entity.StoredPlan{}, "id = ? AND user_id = ?", planID, userID)
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPlanNotFound
	}
	return nil
}
