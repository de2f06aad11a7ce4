package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"ideaplan-api/internal/config"
	llmctx "ideaplan-api/internal/domain/service"
)

// fakeChatModel 按顺序返回预设结果，并记录收到的消息与选项
type fakeChatModel struct {
	responses []fakeResponse
	calls     int
	messages  [][]*schema.Message
	options   []*model.Options
	optCounts []int
}

type fakeResponse struct {
	msg *schema.Message
	err error
}

func (f *fakeChatModel) Generate(_ context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.messages = append(f.messages, input)
	f.options = append(f.options, model.GetCommonOptions(&model.Options{}, opts...))
	f.optCounts = append(f.optCounts, len(opts))
	r := f.responses[f.calls]
	f.calls++
	return r.msg, r.err
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

type staticFactory struct {
	m model.BaseChatModel
}

func (s staticFactory) Get(context.Context, string) (model.BaseChatModel, error) {
	return s.m, nil
}

func testLLMConfig(jsonMode bool) *config.LLMConfig {
	return &config.LLMConfig{
		DefaultProvider: "groq",
		Providers: map[string]config.ProviderConfig{
			"groq": {
				Type:        "openai",
				Model:       "llama-3.3-70b-versatile",
				MaxTokens:   2048,
				Temperature: 0.4,
				JSONMode:    jsonMode,
			},
		},
	}
}

func TestChainCompleter_SendsSystemAndUserMessages(t *testing.T) {
	fm := &fakeChatModel{responses: []fakeResponse{{msg: schema.AssistantMessage(`{"ok":true}`, nil)}}}
	c, err := NewChainCompleter(staticFactory{m: fm}, testLLMConfig(true), "")
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "build me a plan")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	require.Len(t, fm.messages, 1)
	msgs := fm.messages[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, SystemInstruction, msgs[0].Content)
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Equal(t, "build me a plan", msgs[1].Content)

	opts := fm.options[0]
	require.NotNil(t, opts.Temperature)
	assert.InDelta(t, 0.4, *opts.Temperature, 1e-6)
	require.NotNil(t, opts.MaxTokens)
	assert.Equal(t, 2048, *opts.MaxTokens)
	require.NotNil(t, opts.Model)
	assert.Equal(t, "llama-3.3-70b-versatile", *opts.Model)
}

func TestChainCompleter_FallsBackWithoutResponseFormat(t *testing.T) {
	fm := &fakeChatModel{responses: []fakeResponse{
		{err: errors.New("400: 'response_format' is not supported by this model")},
		{msg: schema.AssistantMessage(`{"ok":true}`, nil)},
	}}
	c, err := NewChainCompleter(staticFactory{m: fm}, testLLMConfig(true), "groq")
	require.NoError(t, err)

	text, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)
	require.Equal(t, 2, fm.calls)
	assert.Equal(t, fm.optCounts[0]-1, fm.optCounts[1])
}

func TestChainCompleter_EmptyAndUpstreamErrors(t *testing.T) {
	empty := &fakeChatModel{responses: []fakeResponse{{msg: schema.AssistantMessage("", nil)}}}
	c, err := NewChainCompleter(staticFactory{m: empty}, testLLMConfig(false), "")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, llmctx.ErrEmptyCompletion)

	failing := &fakeChatModel{responses: []fakeResponse{{err: errors.New("429 rate limit reached")}}}
	c, err = NewChainCompleter(staticFactory{m: failing}, testLLMConfig(true), "")
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
	assert.Equal(t, 1, failing.calls)
}

func TestNewChainCompleter_UnknownProvider(t *testing.T) {
	_, err := NewChainCompleter(staticFactory{}, testLLMConfig(true), "missing")
	assert.Error(t, err)
}

func TestIsResponseFormatUnsupportedError(t *testing.T) {
	assert.True(t, IsResponseFormatUnsupportedError(errors.New("unknown parameter: response_format")))
	assert.True(t, IsResponseFormatUnsupportedError(errors.New("json_object mode not supported")))
	assert.False(t, IsResponseFormatUnsupportedError(errors.New("Invalid API Key")))
	assert.False(t, IsResponseFormatUnsupportedError(nil))
}

// ---- genai ----

type fakeGenAI struct {
	configs []*genai.GenerateContentConfig
	resp    *genai.GenerateContentResponse
	err     error
}

func (f *fakeGenAI) GenerateContent(_ context.Context, _ string, _ []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.configs = append(f.configs, cfg)
	return f.resp, f.err
}

type recordingRecorder struct {
	inputs []llmctx.LLMUsageInput
}

func (r *recordingRecorder) Record(_ context.Context, in llmctx.LLMUsageInput) error {
	r.inputs = append(r.inputs, in)
	return nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: text}}},
		}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 120, CandidatesTokenCount: 80},
	}
}

func TestGenAICompleter_Complete(t *testing.T) {
	fake := &fakeGenAI{resp: textResponse(`{"ok":true}`)}
	rec := &recordingRecorder{}
	c := newGenAICompleter(fake, "gemini", config.ProviderConfig{MaxTokens: 2048, Temperature: 0.4, JSONMode: true}, rec)

	ctx := llmctx.WithUser(llmctx.WithWorkflow(context.Background(), llmctx.WorkflowPlanGeneration), "user-1")
	text, err := c.Complete(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	require.Len(t, fake.configs, 1)
	cfg := fake.configs[0]
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
	assert.Equal(t, int32(2048), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, SystemInstruction, cfg.SystemInstruction.Parts[0].Text)

	require.Len(t, rec.inputs, 1)
	assert.Equal(t, "user-1", rec.inputs[0].UserID)
	assert.Equal(t, llmctx.WorkflowPlanGeneration, rec.inputs[0].Workflow)
	assert.Equal(t, 120, rec.inputs[0].PromptTokens)
	assert.Equal(t, 80, rec.inputs[0].CompletionTokens)
	assert.Equal(t, "gemini-2.0-flash", rec.inputs[0].Model)
}

func TestGenAICompleter_EmptyAndError(t *testing.T) {
	c := newGenAICompleter(&fakeGenAI{resp: &genai.GenerateContentResponse{}}, "gemini", config.ProviderConfig{}, nil)
	_, err := c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, llmctx.ErrEmptyCompletion)

	upstream := errors.New("API key not valid")
	c = newGenAICompleter(&fakeGenAI{err: upstream}, "gemini", config.ProviderConfig{}, nil)
	_, err = c.Complete(context.Background(), "p")
	assert.ErrorIs(t, err, upstream)
}
