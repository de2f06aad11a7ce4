package callback

import (
	"context"
	"errors"
	"testing"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ideaplan-api/internal/domain/service"
)

type recordingRecorder struct {
	inputs []service.LLMUsageInput
}

func (r *recordingRecorder) Record(_ context.Context, in service.LLMUsageInput) error {
	r.inputs = append(r.inputs, in)
	return errors.New("ignored")
}

func TestChatModelHandler_RecordsUsage(t *testing.T) {
	rec := &recordingRecorder{}
	h := newChatModelCallbackHandler(rec)

	ctx := service.WithProvider(service.WithWorkflow(context.Background(), service.WorkflowPlanGeneration), "groq")
	ctx = service.WithUser(ctx, "user-1")
	info := &einocb.RunInfo{Name: "plan.llm", Type: "OpenAI"}

	ctx = h.OnStart(ctx, info, &model.CallbackInput{Config: &model.Config{Model: "llama-3.3-70b-versatile"}})
	h.OnEnd(ctx, info, &model.CallbackOutput{
		Config:     &model.Config{Model: "llama-3.3-70b-versatile"},
		TokenUsage: &model.TokenUsage{PromptTokens: 900, CompletionTokens: 1100, TotalTokens: 2000},
	})

	require.Len(t, rec.inputs, 1)
	got := rec.inputs[0]
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, service.WorkflowPlanGeneration, got.Workflow)
	assert.Equal(t, "groq", got.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", got.Model)
	assert.Equal(t, 900, got.PromptTokens)
	assert.Equal(t, 1100, got.CompletionTokens)
	assert.GreaterOrEqual(t, got.DurationMs, 0)
}

func TestChatModelHandler_NoUsageNoRecord(t *testing.T) {
	rec := &recordingRecorder{}
	h := newChatModelCallbackHandler(rec)

	ctx := h.OnStart(context.Background(), nil, nil)
	h.OnEnd(ctx, nil, &model.CallbackOutput{})
	h.OnError(ctx, nil, errors.New("boom"))

	assert.Empty(t, rec.inputs)
}
