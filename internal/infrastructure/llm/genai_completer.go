package llm

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"ideaplan-api/internal/config"
	llmctx "ideaplan-api/internal/domain/service"
	"ideaplan-api/pkg/logger"
	"ideaplan-api/pkg/metrics"
	"ideaplan-api/pkg/tracer"
)

// contentGenerator genai.Models 的最小依赖
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAICompleter 通过 Google GenAI SDK 调用 Gemini 完成计划补全
// Eino 回调不覆盖该路径，指标与用量在此直接上报
type GenAICompleter struct {
	models   contentGenerator
	provider string
	cfg      config.ProviderConfig
	recorder llmctx.LLMUsageRecorder
}

var _ llmctx.Completer = (*GenAICompleter)(nil)

// NewGenAICompleter 创建 Gemini 补全客户端
func NewGenAICompleter(ctx context.Context, provider string, cfg config.ProviderConfig, recorder llmctx.LLMUsageRecorder) (*GenAICompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required for provider %s", provider)
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return newGenAICompleter(client.Models, provider, cfg, recorder), nil
}

func newGenAICompleter(models contentGenerator, provider string, cfg config.ProviderConfig, recorder llmctx.LLMUsageRecorder) *GenAICompleter {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &GenAICompleter{models: models, provider: provider, cfg: cfg, recorder: recorder}
}

// Complete 发送系统指令与用户提示，返回模型原始文本
func (c *GenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	ctx = llmctx.WithProvider(ctx, c.provider)
	workflow := llmctx.WorkflowFromContext(ctx)

	ctx, span := tracer.Start(ctx, "llm.genai.generate")
	defer span.End()

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), c.generateConfig(c.cfg.JSONMode))
	if err != nil && c.cfg.JSONMode && IsResponseFormatUnsupportedError(err) {
		logger.Warn(ctx, "genai json mime type not supported, fallback to prompt-only",
			"provider", c.provider,
			"model", c.cfg.Model,
			"error", err.Error(),
		)
		resp, err = c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), c.generateConfig(false))
	}
	elapsed := time.Since(start)
	metrics.LLMCallDuration.WithLabelValues(workflow, c.provider, c.cfg.Model).Observe(elapsed.Seconds())

	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(workflow, c.provider, c.cfg.Model, "error").Inc()
		span.RecordError(err)
		return "", fmt.Errorf("plan completion: %w", err)
	}
	metrics.LLMCallTotal.WithLabelValues(workflow, c.provider, c.cfg.Model, "success").Inc()

	c.recordUsage(ctx, workflow, resp, elapsed)

	text := ""
	if resp != nil {
		text = resp.Text()
	}
	if text == "" {
		return "", llmctx.ErrEmptyCompletion
	}
	return text, nil
}

func (c *GenAICompleter) generateConfig(jsonMode bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		Temperature:       ptrFloat32(float32(c.cfg.Temperature)),
	}
	if c.cfg.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}
	if jsonMode {
		cfg.ResponseMIMEType = "application/json"
	}
	return cfg
}

func (c *GenAICompleter) recordUsage(ctx context.Context, workflow string, resp *genai.GenerateContentResponse, elapsed time.Duration) {
	if resp == nil || resp.UsageMetadata == nil {
		return
	}
	promptTokens := int(resp.UsageMetadata.PromptTokenCount)
	completionTokens := int(resp.UsageMetadata.CandidatesTokenCount)

	metrics.LLMTokensUsed.WithLabelValues(workflow, c.provider, c.cfg.Model, "prompt").Add(float64(promptTokens))
	metrics.LLMTokensUsed.WithLabelValues(workflow, c.provider, c.cfg.Model, "completion").Add(float64(completionTokens))

	if c.recorder == nil {
		return
	}
	if err := c.recorder.Record(ctx, llmctx.LLMUsageInput{
		UserID:           llmctx.UserFromContext(ctx),
		Workflow:         workflow,
		Provider:         c.provider,
		Model:            c.cfg.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		DurationMs:       int(elapsed.Milliseconds()),
	}); err != nil {
		logger.Warn(ctx, "failed to record llm usage", "error", err.Error())
	}
}
