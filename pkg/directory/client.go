package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ==================== 错误定义 ====================

// ErrListingNotFound 列表不存在
var ErrListingNotFound = errors.New("listing not found")

// APIError 后端返回的非 2xx 响应
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("directory api error [%d]: %s", e.StatusCode, e.Message)
}

// StatusCodeOf 提取错误中的 HTTP 状态码，非 APIError 返回 0
func StatusCodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// ==================== 客户端 ====================

// TokenFunc 从请求上下文取 Bearer 令牌
type TokenFunc func(ctx context.Context) string

// ClientConfig 客户端配置
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	FetchRetries int // 仅作用于读请求，写请求从不自动重试
	UserAgent    string
	Debug        bool
}

// Client 目录后端客户端
type Client struct {
	reader *resty.Client
	writer *resty.Client
	token  TokenFunc
}

// NewClient 创建目录后端客户端
func NewClient(cfg ClientConfig, token TokenFunc) *Client {
	reader := newRestyClient(cfg).
		SetRetryCount(cfg.FetchRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= http.StatusInternalServerError)
		})

	writer := newRestyClient(cfg).SetRetryCount(0)

	return &Client{reader: reader, writer: writer, token: token}
}

// newRestyClient 统一的 Resty 客户端构建
func newRestyClient(cfg ClientConfig) *resty.Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "bizdir-listing/1.0"
	}

	return resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetDebug(cfg.Debug).
		SetTimeout(timeout).
		SetHeader("User-Agent", ua).
		SetHeader("Accept", "application/json")
}

// request 带鉴权的请求
func (c *Client) request(ctx context.Context, rc *resty.Client) *resty.Request {
	req := rc.R().SetContext(ctx)
	if c.token != nil {
		if tok := c.token(ctx); tok != "" {
			req.SetAuthToken(tok)
		}
	}
	return req
}

// GetListing 获取已持久化的列表
func (c *Client) GetListing(ctx context.Context, id string) (*PersistedListing, error) {
	var out PersistedListing
	resp, err := c.request(ctx, c.reader).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/listing/{id}")
	if err != nil {
		return nil, fmt.Errorf("get listing %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, ErrListingNotFound
	}
	if resp.IsError() {
		return nil, toAPIError(resp)
	}
	return &out, nil
}

// CreateListing 创建列表，返回后端响应码
func (c *Client) CreateListing(ctx context.Context, body *CreateListingReq) (*ListingMutationResp, int, error) {
	var out ListingMutationResp
	resp, err := c.request(ctx, c.writer).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&out).
		Post("/listing")
	if err != nil {
		return nil, 0, fmt.Errorf("create listing: %w", err)
	}
	if resp.IsError() {
		return nil, resp.StatusCode(), toAPIError(resp)
	}
	return &out, resp.StatusCode(), nil
}

// UpdateListing 更新列表
func (c *Client) UpdateListing(ctx context.Context, id string, body *UpdateListingReq) (*ListingMutationResp, int, error) {
	var out ListingMutationResp
	resp, err := c.request(ctx, c.writer).
		SetHeader("Content-Type", "application/json").
		SetPathParam("id", id).
		SetBody(body).
		SetResult(&out).
		Patch("/listing/{id}")
	if err != nil {
		return nil, 0, fmt.Errorf("update listing %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, resp.StatusCode(), ErrListingNotFound
	}
	if resp.IsError() {
		return nil, resp.StatusCode(), toAPIError(resp)
	}
	if out.ID == "" {
		out.ID = id
	}
	return &out, resp.StatusCode(), nil
}

// toAPIError 解析错误响应体
func toAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode()}

	var body ErrorResp
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		apiErr.Message = body.Message
		if apiErr.Message == "" {
			apiErr.Message = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resp.Body()))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode())
	}
	return apiErr
}
