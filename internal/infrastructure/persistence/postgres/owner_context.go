// Package postgres 提供 PostgreSQL 数据库访问层实现
package postgres

import (
	"context"
	"fmt"

	"ideaplan-api/internal/domain/repository"
)

// OwnerContext 行级安全上下文：在事务内设置 app.current_user_id，供 plans 表的 RLS 策略使用
type OwnerContext struct {
	client *Client
	tx     repository.Transactor
}

var (
	_ repository.OwnerContextManager = (*OwnerContext)(nil)
	_ repository.Transactor          = (*TxManager)(nil)
)

// NewOwnerContext 创建所属用户上下文管理器
func NewOwnerContext(client *Client, tx repository.Transactor) *OwnerContext {
	return &OwnerContext{client: client, tx: tx}
}

// SetOwner 设置当前事务的所属用户
func (oc *OwnerContext) SetOwner(ctx context.Context, userID string) error {
	db := getDB(ctx, oc.client.db)
	if err := db.Exec("SELECT set_config('app.current_user_id', ?, TRUE)", userID).Error; err != nil {
		return fmt.Errorf("failed to set owner context: %w", err)
	}
	return nil
}

// WithOwner 开启事务、设置所属用户后执行 fn
func (oc *OwnerContext) WithOwner(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	return oc.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := oc.SetOwner(ctx, userID); err != nil {
			return err
		}
		return fn(ctx)
	})
}
