/*
 * @Description: 控制台访问令牌的签发与解析
 * @Author: 安知鱼
 * @Date: 2025-06-28 00:21:55
 * @LastEditTime: 2026-10-19 10:33:48
 * @LastEditors: 安知鱼
 */
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret 表示未配置签名密钥。
var ErrEmptySecret = errors.New("JWT Secret 不能为空")

// GenerateToken 为操作员签发 HS256 令牌，ttl <= 0 时默认 12 小时。
func GenerateToken(operator, facility string, secretKey []byte, ttl time.Duration) (string, error) {
	if len(secretKey) == 0 {
		return "", ErrEmptySecret
	}
	if strings.TrimSpace(operator) == "" {
		return "", fmt.Errorf("操作员不能为空")
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	now := time.Now()
	claims := CustomClaims{
		Operator: operator,
		Facility: facility,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken 校验签名、签发方和有效期后返回 Claims。
func ParseToken(tokenStr string, secretKey []byte) (*CustomClaims, error) {
	if len(secretKey) == 0 {
		return nil, ErrEmptySecret
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	}, jwt.WithIssuer(Issuer))
	if err != nil {
		return nil, fmt.Errorf("解析token失败: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("无效或过期Token")
	}
	return claims, nil
}

// BearerToken 从 Authorization 头中取出令牌，格式不对时返回空串。
func BearerToken(header string) string {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
