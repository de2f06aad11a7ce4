package planning

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ideaplan-api/internal/domain/entity"
)

// Kind 生成失败类别
type Kind string

const (
	KindInvalidInput    Kind = "invalid_input"
	KindEmptyResponse   Kind = "empty_response"
	KindMalformedJSON   Kind = "malformed_json"
	KindSchemaViolation Kind = "schema_violation"
	KindUpstreamError   Kind = "upstream_error"
)

// UpstreamCause 上游错误细分
type UpstreamCause string

const (
	UpstreamRateLimit UpstreamCause = "rate_limit"
	UpstreamAuth      UpstreamCause = "auth"
	UpstreamGeneric   UpstreamCause = "generic"
)

// 面向用户的错误文案
const (
	msgInvalidInput    = "Idea description is required"
	msgEmptyResponse   = "No response from AI. Please try again."
	msgMalformedJSON   = "The AI returned invalid JSON. Please try again."
	msgSchemaViolation = "The AI response is missing or has invalid fields: %s. Please try again."
	msgRateLimit       = "Rate limit exceeded. Please try again in a few moments."
	msgAuth            = "Invalid API key. Please check your API key configuration."
	msgTimeout         = "The AI took too long to respond. Please try again."
	msgGeneric         = "Failed to generate plan. Please try again."
)

// Failure 一次失败的生成
type Failure struct {
	Kind       Kind
	Cause      UpstreamCause
	Message    string
	FieldPaths []string
	Err        error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Kind, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result 生成结果：成功时携带 PlanData，失败时携带 Failure
type Result struct {
	ok      bool
	data    entity.PlanData
	failure *Failure
}

// Success 构造成功结果
func Success(data entity.PlanData) Result {
	return Result{ok: true, data: data.Clone()}
}

// Fail 构造失败结果
func Fail(f *Failure) Result {
	return Result{failure: f}
}

// OK 是否成功
func (r Result) OK() bool {
	return r.ok
}

// Data 返回计划副本；失败结果返回零值
func (r Result) Data() entity.PlanData {
	if !r.ok {
		return entity.PlanData{}
	}
	return r.data.Clone()
}

// Failure 失败详情；成功结果返回 nil
func (r Result) Failure() *Failure {
	return r.failure
}

// Message 面向用户的错误文案
func (r Result) Message() string {
	if r.failure == nil {
		return ""
	}
	return r.failure.Message
}

func invalidInput() *Failure {
	return &Failure{Kind: KindInvalidInput, Message: msgInvalidInput}
}

func emptyResponse(err error) *Failure {
	return &Failure{Kind: KindEmptyResponse, Message: msgEmptyResponse, Err: err}
}

func malformedJSON(err error) *Failure {
	return &Failure{Kind: KindMalformedJSON, Message: msgMalformedJSON, Err: err}
}

func schemaViolation(verr *ValidationError) *Failure {
	paths := verr.Paths()
	return &Failure{
		Kind:       KindSchemaViolation,
		Message:    fmt.Sprintf(msgSchemaViolation, strings.Join(paths, ", ")),
		FieldPaths: paths,
		Err:        verr,
	}
}

// classifyUpstream 按错误文本细分上游错误
func classifyUpstream(err error) *Failure {
	f := &Failure{Kind: KindUpstreamError, Cause: UpstreamGeneric, Err: err}

	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "rate_limit"):
		f.Cause = UpstreamRateLimit
		f.Message = msgRateLimit
	case strings.Contains(lower, "api key") || strings.Contains(lower, "api_key"):
		f.Cause = UpstreamAuth
		f.Message = msgAuth
	case errors.Is(err, context.DeadlineExceeded):
		f.Message = msgTimeout
	case strings.TrimSpace(msg) != "":
		f.Message = upstreamMessage(err)
	default:
		f.Message = msgGeneric
	}
	return f
}

// upstreamMessage 取最内层错误文本，去掉本服务添加的包装前缀
func upstreamMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return msgGeneric
}
