package service

import (
	"context"
	"errors"
)

// ErrEmptyCompletion 模型未返回任何内容
var ErrEmptyCompletion = errors.New("llm returned empty content")

// Completer 单次补全：发送提示，返回模型原始文本
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc 函数适配器
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
