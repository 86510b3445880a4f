package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateToken("ops-01", "tower-a", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "ops-01", claims.Operator)
	assert.Equal(t, "tower-a", claims.Facility)
	assert.Equal(t, Issuer, claims.Issuer)
}

func TestParseTokenErrors(t *testing.T) {
	secret := []byte("test-secret")
	valid, err := GenerateToken("ops-01", "", secret, time.Hour)
	require.NoError(t, err)
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		Operator: "ops-01",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString(secret)
	require.NoError(t, err)
	otherIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, CustomClaims{
		Operator:         "ops-01",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "someone-else"},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{name: "密钥不匹配", token: valid, secret: []byte("other")},
		{name: "空密钥", token: valid, secret: nil},
		{name: "格式错误", token: "not-a-jwt", secret: secret},
		{name: "已过期", token: expired, secret: secret},
		{name: "签发方不符", token: otherIssuer, secret: secret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "标准格式", header: "Bearer abc", want: "abc"},
		{name: "小写前缀", header: "bearer abc", want: "abc"},
		{name: "缺少前缀", header: "abc", want: ""},
		{name: "其它方案", header: "Basic abc", want: ""},
		{name: "空值", header: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BearerToken(tt.header))
		})
	}
}
