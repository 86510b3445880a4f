/*
 * @Description: 控制台访问令牌的 Claims 定义
 * @Author: 安知鱼
 * @Date: 2025-08-11 18:38:27
 * @LastEditTime: 2026-10-19 10:31:05
 * @LastEditors: 安知鱼
 */
package auth

import "github.com/golang-jwt/jwt/v5"

// ClaimsKey 是 gin.Context 中存放 *CustomClaims 的键。
const ClaimsKey = "operator_claims"

// Issuer 是签发方标识。
const Issuer = "anheyu-fm-console"

// CustomClaims 标识一个控制台操作员。
type CustomClaims struct {
	Operator string `json:"operator"`
	Facility string `json:"facility,omitempty"`
	jwt.RegisteredClaims
}
