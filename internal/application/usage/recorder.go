// Package usage 记录模型调用用量流水
package usage

import (
	"context"
	"fmt"
	"strings"

	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/repository"
	"ideaplan-api/internal/domain/service"
)

// LLMUsageRecorder 把一次模型调用写成 llm_usage_events 记录
type LLMUsageRecorder struct {
	usageRepo repository.LLMUsageEventRepository
}

var _ service.LLMUsageRecorder = (*LLMUsageRecorder)(nil)

func NewLLMUsageRecorder(usageRepo repository.LLMUsageEventRepository) *LLMUsageRecorder {
	return &LLMUsageRecorder{usageRepo: usageRepo}
}

func (r *LLMUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	if r == nil || r.usageRepo == nil {
		return nil
	}
	if in.PromptTokens < 0 || in.CompletionTokens < 0 {
		return fmt.Errorf("invalid token usage")
	}

	evt := &entity.LLMUsageEvent{
		Provider:         strings.TrimSpace(in.Provider),
		Model:            strings.TrimSpace(in.Model),
		Workflow:         strings.TrimSpace(in.Workflow),
		TokensPrompt:     in.PromptTokens,
		TokensCompletion: in.CompletionTokens,
		DurationMs:       in.DurationMs,
	}
	if userID := strings.TrimSpace(in.UserID); userID != "" {
		evt.UserID = &userID
	}
	return r.usageRepo.Create(ctx, evt)
}
