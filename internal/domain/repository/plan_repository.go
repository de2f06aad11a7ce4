// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ideaplan-api/internal/domain/entity"
)

// PlanRepository 计划仓储接口
// 所有操作都按所属用户隔离；记录不存在或不属于该用户时返回 errors.ErrPlanNotFound
type PlanRepository interface {
	// Save 保存计划，返回新记录
	Save(ctx context.Context, userID, ideaDescription string, plan entity.PlanData) (*entity.StoredPlan, error)

	// ListByUser 按创建时间倒序列出用户的计划
	ListByUser(ctx context.Context, userID string) ([]*entity.StoredPlan, error)

	// GetByID 获取用户的单个计划
	GetByID(ctx context.Context, planID, userID string) (*entity.StoredPlan, error)

	// Delete 删除用户的单个计划
	Delete(ctx context.Context, planID, userID string) error
}

// HealthChecker 存储后端连通性检查
type HealthChecker interface {
	Ping(ctx context.Context) error
}
