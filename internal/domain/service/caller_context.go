package service

import "context"

type accessTokenKey struct{}

// WithAccessToken 携带调用方的原始访问令牌，托管存储据此以该用户身份执行 RLS
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext 读取调用方令牌，未认证时为空
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}
