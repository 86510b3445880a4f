/*
 * @Description: 频率限制中间件
 * @Author: 安知鱼
 * @Date: 2025-11-08 00:00:00
 * @LastEditTime: 2026-10-19 10:47:55
 * @LastEditors: 安知鱼
 */
package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anzhiyu-c/anheyu-fm-console/pkg/response"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// staleAfter 之后未访问的限流器会被清理
const staleAfter = 10 * time.Minute

// ipRateLimiter 为每个 IP 维护一个令牌桶
type ipRateLimiter struct {
	mu                sync.Mutex
	limiters          map[string]*limiterInfo
	requestsPerMinute int
	burst             int
	now               func() time.Time
}

type limiterInfo struct {
	limiter      *rate.Limiter
	lastAccessed time.Time
}

func newIPRateLimiter(requestsPerMinute, burst int) *ipRateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	if burst <= 0 {
		burst = 1
	}
	return &ipRateLimiter{
		limiters:          make(map[string]*limiterInfo),
		requestsPerMinute: requestsPerMinute,
		burst:             burst,
		now:               time.Now,
	}
}

// allow 取出该 IP 的限流器并尝试消费一个令牌，顺带清理过期条目
func (i *ipRateLimiter) allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	info, exists := i.limiters[ip]
	if !exists {
		info = &limiterInfo{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(i.requestsPerMinute)), i.burst),
		}
		i.limiters[ip] = info
		i.sweep(now)
	}
	info.lastAccessed = now
	return info.limiter.AllowN(now, 1)
}

func (i *ipRateLimiter) sweep(now time.Time) {
	for ip, info := range i.limiters {
		if now.Sub(info.lastAccessed) > staleAfter && !info.lastAccessed.IsZero() {
			delete(i.limiters, ip)
		}
	}
}

// getClientIP 依次取 X-Real-IP、X-Forwarded-For 第一个地址和 RemoteAddr
func getClientIP(c *gin.Context) string {
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	if fwd := c.GetHeader("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if host, _, err := net.SplitHostPort(first); err == nil {
			return host
		}
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(c.Request.RemoteAddr); err == nil {
		return host
	}
	return c.Request.RemoteAddr
}

// RateLimit 按客户端 IP 限流，超出时返回 429。
// 用在上传和提交这类会触发解码或上游请求的接口上。
func RateLimit(requestsPerMinute, burst int) gin.HandlerFunc {
	limiter := newIPRateLimiter(requestsPerMinute, burst)

	return func(c *gin.Context) {
		if !limiter.allow(getClientIP(c)) {
			response.Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}
		c.Next()
	}
}
