/*
 * @Description: 操作员令牌校验中间件
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 10:40:12
 * @LastEditors: 安知鱼
 */
package middleware

import (
	"log"
	"net/http"

	"github.com/anzhiyu-c/anheyu-fm-console/internal/pkg/auth"
	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"

	"github.com/gin-gonic/gin"
)

type Middleware struct {
	secret []byte
}

// NewMiddleware 创建中间件集合，secret 为空时不做令牌校验。
func NewMiddleware(secret string) *Middleware {
	return &Middleware{secret: []byte(secret)}
}

// Enabled 表示是否配置了签名密钥。
func (m *Middleware) Enabled() bool {
	return len(m.secret) > 0
}

// JWTAuth 在配置了密钥时强制要求有效的 Bearer Token，否则直接放行。
func (m *Middleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Fail(c, http.StatusUnauthorized, "请求未携带Token，无权限访问")
			c.Abort()
			return
		}

		tokenString := auth.BearerToken(authHeader)
		if tokenString == "" {
			response.Fail(c, http.StatusUnauthorized, "Token格式不正确")
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(tokenString, m.secret)
		if err != nil {
			log.Printf("[JWTAuth] JWT token解析失败: %v", err)
			response.Fail(c, http.StatusUnauthorized, "无效或过期的Token")
			c.Abort()
			return
		}

		c.Set(auth.ClaimsKey, claims)
		c.Next()
	}
}

// Operator 返回当前请求的操作员，未认证时为空串。
func Operator(c *gin.Context) string {
	v, ok := c.Get(auth.ClaimsKey)
	if !ok {
		return ""
	}
	if claims, ok := v.(*auth.CustomClaims); ok {
		return claims.Operator
	}
	return ""
}
