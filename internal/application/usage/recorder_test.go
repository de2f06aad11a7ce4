package usage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaplan-api/internal/domain/entity"
	"ideaplan-api/internal/domain/service"
)

type memoryUsageRepo struct {
	events []*entity.LLMUsageEvent
}

func (m *memoryUsageRepo) Create(_ context.Context, e *entity.LLMUsageEvent) error {
	m.events = append(m.events, e)
	return nil
}

func TestLLMUsageRecorder_Record(t *testing.T) {
	repo := &memoryUsageRepo{}
	r := NewLLMUsageRecorder(repo)

	require.NoError(t, r.Record(context.Background(), service.LLMUsageInput{
		UserID:           "user-1",
		Workflow:         service.WorkflowPlanGeneration,
		Provider:         " groq ",
		Model:            "llama-3.3-70b-versatile",
		PromptTokens:     10,
		CompletionTokens: 20,
		DurationMs:       1500,
	}))
	require.NoError(t, r.Record(context.Background(), service.LLMUsageInput{Provider: "groq"}))

	require.Len(t, repo.events, 2)
	require.NotNil(t, repo.events[0].UserID)
	assert.Equal(t, "user-1", *repo.events[0].UserID)
	assert.Equal(t, "groq", repo.events[0].Provider)
	assert.Equal(t, 20, repo.events[0].TokensCompletion)
	assert.Nil(t, repo.events[1].UserID)
}

func TestLLMUsageRecorder_RejectsNegativeTokens(t *testing.T) {
	r := NewLLMUsageRecorder(&memoryUsageRepo{})
	assert.Error(t, r.Record(context.Background(), service.LLMUsageInput{PromptTokens: -1}))

	var nilRecorder *LLMUsageRecorder
	assert.NoError(t, nilRecorder.Record(context.Background(), service.LLMUsageInput{}))
}
