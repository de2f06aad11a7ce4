package llm

import (
	"context"
	"fmt"

	"ideaplan-api/internal/config"
	llmctx "ideaplan-api/internal/domain/service"
)

// NewCompleter 按默认提供商类型选择补全实现
func NewCompleter(ctx context.Context, cfg *config.Config, factory ChatModelFactory, recorder llmctx.LLMUsageRecorder) (llmctx.Completer, error) {
	name := cfg.LLM.DefaultProvider
	providerCfg, ok := cfg.LLM.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	switch providerCfg.Type {
	case "gemini":
		return NewGenAICompleter(ctx, name, providerCfg, recorder)
	case "", "openai":
		return NewChainCompleter(factory, &cfg.LLM, name)
	default:
		return nil, fmt.Errorf("provider %s: unsupported type %q", name, providerCfg.Type)
	}
}
