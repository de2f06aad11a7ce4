package planning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ideaplan-api/internal/domain/service"
	"ideaplan-api/pkg/logger"
	"ideaplan-api/pkg/metrics"
	"ideaplan-api/pkg/tracer"
)

const logSampleLen = 500

// Generator 计划生成编排：提示构造 -> 补全 -> 解析/修复 -> 校验
// 只持有注入的补全客户端，可被并发调用
type Generator struct {
	completer service.Completer
}

// NewGenerator 创建生成器
func NewGenerator(completer service.Completer) *Generator {
	return &Generator{completer: completer}
}

// Generate 执行一次生成，所有失败都收敛为 Result，不向外返回 error
func (g *Generator) Generate(ctx context.Context, req PlanRequest) Result {
	ctx, span := tracer.Start(ctx, "planning.Generate")
	defer span.End()

	start := time.Now()
	res := g.generate(ctx, req)

	outcome := "success"
	if f := res.Failure(); f != nil {
		outcome = string(f.Kind)
		span.SetStatus(codes.Error, f.Message)
		span.SetAttributes(attribute.String("plan.failure_kind", outcome))
		if f.Err != nil {
			span.RecordError(f.Err)
		}
	}
	metrics.PlanGenerationTotal.WithLabelValues(outcome).Inc()
	if outcome != string(KindInvalidInput) {
		metrics.PlanGenerationDuration.Observe(time.Since(start).Seconds())
	}
	return res
}

func (g *Generator) generate(ctx context.Context, req PlanRequest) Result {
	if strings.TrimSpace(req.IdeaDescription) == "" {
		return Fail(invalidInput())
	}

	ctx = service.WithWorkflow(ctx, service.WorkflowPlanGeneration)
	prompt := BuildPrompt(req)

	logger.Info(ctx, "generating plan", "idea_len", len(req.IdeaDescription), "prompt_len", len(prompt))

	text, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		if errors.Is(err, service.ErrEmptyCompletion) {
			logger.Warn(ctx, "completion returned no content")
			return Fail(emptyResponse(err))
		}
		f := classifyUpstream(err)
		logger.Error(ctx, "plan completion failed", err, "cause", string(f.Cause))
		return Fail(f)
	}
	if strings.TrimSpace(text) == "" {
		logger.Warn(ctx, "completion returned no content")
		return Fail(emptyResponse(nil))
	}

	logger.Debug(ctx, "completion received", "length", len(text))

	parsed, err := decode(ctx, text)
	if err != nil {
		logger.Error(ctx, "plan response is not valid JSON", err, "sample", sample(text))
		return Fail(malformedJSON(err))
	}

	plan, verr := Validate(parsed)
	if verr != nil {
		for _, p := range verr.Paths() {
			field, _, _ := strings.Cut(p, ".")
			metrics.ValidationIssuesTotal.WithLabelValues(field).Inc()
		}
		logger.Warn(ctx, "plan response failed validation", "paths", verr.Paths(), "keys", objectKeys(parsed))
		return Fail(schemaViolation(verr))
	}

	logger.Info(ctx, "plan generated",
		"names", len(plan.StartupNameSuggestions),
		"colors", len(plan.ColorPalette),
		"structured_schema", plan.DatabaseSchema.IsStructured(),
	)
	return Success(plan)
}

// decode 先直接解析，失败后修复再解析一次
func decode(ctx context.Context, text string) (any, error) {
	var parsed any
	firstErr := json.Unmarshal([]byte(text), &parsed)
	if firstErr == nil {
		return parsed, nil
	}

	logger.Debug(ctx, "initial parse failed, attempting repair", "error", firstErr.Error())
	if err := json.Unmarshal([]byte(Repair(text)), &parsed); err != nil {
		metrics.PlanRepairTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	metrics.PlanRepairTotal.WithLabelValues("recovered").Inc()
	return parsed, nil
}

// sample 按字符截断，避免在日志中切开多字节字符
func sample(s string) string {
	if utf8.RuneCountInString(s) <= logSampleLen {
		return s
	}
	return string([]rune(s)[:logSampleLen])
}

func objectKeys(v any) []string {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}
