// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"ideaplan-api/internal/domain/entity"
)

type LLMUsageEventRepository interface {
	Create(ctx context.Context, event *entity.LLMUsageEvent) error
}
