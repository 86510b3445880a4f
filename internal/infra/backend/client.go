/*
 * @Description: 内容后端的 REST 客户端，以 multipart 方式提交表单
 * @Author: 安知鱼
 * @Date: 2026-10-18 11:02:37
 * @LastEditTime: 2026-10-18 15:40:12
 * @LastEditors: 安知鱼
 */
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// 响应体读取上限
const maxResponseBytes = 4 << 20

// Field 是一个文本表单字段
type Field struct {
	Name  string
	Value string
}

// File 是一个文件表单字段
type File struct {
	Field    string
	Name     string
	MimeType string
	Data     []byte
}

// Form 按添加顺序保存字段，写出时先文本后文件
type Form struct {
	Fields []Field
	Files  []File
}

// Add 添加文本字段
func (f *Form) Add(name, value string) {
	f.Fields = append(f.Fields, Field{Name: name, Value: value})
}

// AddFile 添加文件字段
func (f *Form) AddFile(field, name, mimeType string, data []byte) {
	f.Files = append(f.Files, File{Field: field, Name: name, MimeType: mimeType, Data: data})
}

// Value 返回第一个同名文本字段的值
func (f *Form) Value(name string) (string, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field.Value, true
		}
	}
	return "", false
}

// encode 写出 multipart 请求体，返回 body 和 Content-Type
func (f *Form) encode() (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, field := range f.Fields {
		if err := writer.WriteField(field.Name, field.Value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range f.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, escapeQuotes(file.Field), escapeQuotes(file.Name)))
		mimeType := file.MimeType
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		h.Set("Content-Type", mimeType)
		part, err := writer.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// Result 是后端成功响应
type Result struct {
	Status int
	Body   map[string]interface{}
}

// ID 返回响应中的记录ID（如果有）
func (r *Result) ID() string {
	if r == nil || r.Body == nil {
		return ""
	}
	switch v := r.Body["id"].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	}
	return ""
}

// UpstreamError 是后端返回的非 2xx 响应
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("上游服务返回状态码 %d", e.Status)
	}
	return fmt.Sprintf("上游服务返回状态码 %d: %s", e.Status, e.Message)
}

// AsUpstreamError 从错误链中取出 UpstreamError
func AsUpstreamError(err error) (*UpstreamError, bool) {
	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		return upstream, true
	}
	return nil, false
}

// Options 是客户端配置
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RequestsPerSecond 为 0 表示不限速
	RequestsPerSecond float64
	Burst             int
}

// Client 是内容后端客户端，不做重试
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// rateLimitedTransport 在每个请求前等待限速器许可
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.base.RoundTrip(req)
}

// NewClient 创建客户端。Token 非空时通过 oauth2 Transport 附加 Bearer 头。
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("未配置上游服务地址")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	var transport http.RoundTripper = http.DefaultTransport
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		transport = &rateLimitedTransport{base: transport, limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)}
	}
	if opts.Token != "" {
		transport = &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token, TokenType: "Bearer"}),
			Base:   transport,
		}
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Transport: transport, Timeout: opts.Timeout},
	}, nil
}

// URL 返回 path 对应的完整地址
func (c *Client) URL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// Submit 以 multipart 方式发送表单。非 2xx 响应返回 *UpstreamError。
func (c *Client) Submit(ctx context.Context, method, path string, form *Form) (*Result, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return nil, fmt.Errorf("构建表单失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求上游服务失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("读取上游响应失败: %w", err)
	}

	var payload map[string]interface{}
	if len(bytes.TrimSpace(raw)) > 0 {
		// 非 JSON 响应体只在出错时作为消息使用
		_ = json.Unmarshal(raw, &payload)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: errorMessage(payload)}
	}
	return &Result{Status: resp.StatusCode, Body: payload}, nil
}

// errorMessage 依次取 message、error 字段
func errorMessage(payload map[string]interface{}) string {
	for _, key := range []string{"message", "error"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case []interface{}:
			parts := make([]string, 0, len(v))
			for _, item := range v {
				parts = append(parts, fmt.Sprint(item))
			}
			if len(parts) > 0 {
				return strings.Join(parts, ", ")
			}
		}
	}
	return ""
}
