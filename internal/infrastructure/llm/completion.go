package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"ideaplan-api/internal/config"
	llmctx "ideaplan-api/internal/domain/service"
	"ideaplan-api/pkg/logger"
)

// SystemInstruction 随每次补全请求发送的系统消息
const SystemInstruction = "You are a business planning expert. Always respond with valid JSON only, no markdown or explanations."

// ChainCompleter 通过 Eino Chain 调用 OpenAI 兼容模型完成一次计划补全
type ChainCompleter struct {
	factory  ChatModelFactory
	provider string
	cfg      config.ProviderConfig

	chainOnce sync.Once
	chain     compose.Runnable[string, *schema.Message]
	chainErr  error
}

var _ llmctx.Completer = (*ChainCompleter)(nil)

// NewChainCompleter 创建补全客户端；provider 为空时使用默认提供商
func NewChainCompleter(factory ChatModelFactory, llmCfg *config.LLMConfig, provider string) (*ChainCompleter, error) {
	if provider == "" {
		provider = llmCfg.DefaultProvider
	}
	cfg, ok := llmCfg.Providers[provider]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", provider)
	}
	return &ChainCompleter{factory: factory, provider: provider, cfg: cfg}, nil
}

// Complete 发送系统消息与用户提示，返回模型原始文本
func (c *ChainCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.factory == nil {
		return "", fmt.Errorf("llm factory not configured")
	}

	chain, err := c.getChain()
	if err != nil {
		return "", err
	}

	ctx = llmctx.WithProvider(ctx, c.provider)
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	out, err := chain.Invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("plan completion: %w", err)
	}
	if out == nil || out.Content == "" {
		return "", llmctx.ErrEmptyCompletion
	}
	return out.Content, nil
}

func (c *ChainCompleter) getChain() (compose.Runnable[string, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *ChainCompleter) buildChain(ctx context.Context) (compose.Runnable[string, *schema.Message], error) {
	chain := compose.NewChain[string, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, prompt string) ([]*schema.Message, error) {
			return planMessages(prompt), nil
		}),
		compose.WithNodeName("plan.messages"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
			chatModel, err := c.factory.Get(ctx, c.provider)
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, msgs, c.modelOptions(c.cfg.JSONMode)...)
			if err != nil && c.cfg.JSONMode && IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_object not supported, fallback to prompt-only",
					"provider", c.provider,
					"model", c.cfg.Model,
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, msgs, c.modelOptions(false)...)
			}
			if err != nil {
				return nil, err
			}
			return outMsg, nil
		}),
		compose.WithNodeName("plan.llm"),
	)

	return chain.Compile(ctx)
}

func planMessages(prompt string) []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(SystemInstruction),
		schema.UserMessage(prompt),
	}
}

func (c *ChainCompleter) modelOptions(jsonMode bool) []model.Option {
	opts := make([]model.Option, 0, 4)
	opts = append(opts, model.WithTemperature(float32(c.cfg.Temperature)))
	if c.cfg.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(c.cfg.MaxTokens))
	}
	if m := strings.TrimSpace(c.cfg.Model); m != "" {
		opts = append(opts, model.WithModel(m))
	}
	if jsonMode {
		opts = append(opts, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{"type": "json_object"},
		}))
	}
	return opts
}
