// Package repository 定义数据访问层接口
package repository

import "context"

// OwnerContextManager 行级安全上下文管理（用于 PostgreSQL RLS）
type OwnerContextManager interface {
	// SetOwner 设置当前事务的所属用户
	SetOwner(ctx context.Context, userID string) error
	// WithOwner 在设置了所属用户的事务中执行 fn
	WithOwner(ctx context.Context, userID string, fn func(ctx context.Context) error) error
}
