// Package peer 是访问其他物流服务 REST 接口的 HTTP 客户端。
//
// 每次调用只发起一次 GET，自动携带当前工作单元的 Bearer 凭证，受超时约束。
// 非 2xx 响应返回 *StatusError，其余失败原样返回；客户端不做重试，也不对
// 错误分类，分类由 resilient 包统一完成。
package peer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stellarcargo/peercall/clog"
	"github.com/stellarcargo/peercall/config"
	"github.com/stellarcargo/peercall/credential"
	"github.com/stellarcargo/peercall/trace"
	"github.com/stellarcargo/peercall/xerrors"
)

const (
	maxBodyBytes  = 1 << 20
	maxErrorBytes = 512
)

// Config 单个依赖的连接配置
type Config struct {
	BaseURL string        `json:"baseUrl" yaml:"baseUrl" mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout" validate:"gt=0"`
}

// Client 单个依赖的 HTTP 客户端，可并发使用
type Client struct {
	dependency string
	baseURL    *url.URL
	http       *http.Client
	carrier    credential.Carrier
	logger     clog.Logger
}

// New 创建依赖客户端
func New(dependency string, cfg *Config, opts ...Option) (*Client, error) {
	if dependency == "" {
		return nil, xerrors.Wrap(xerrors.ErrInvalidConfig, "peer: dependency name is required")
	}
	if cfg == nil {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidConfig, "peer %s: config is nil", dependency)
	}
	if err := config.ValidateStruct(cfg); err != nil {
		return nil, xerrors.Wrapf(err, "peer %s", dependency)
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, xerrors.Wrapf(xerrors.ErrInvalidConfig, "peer %s: base url: %v", dependency, err)
	}

	o := applyOptions(opts)
	return &Client{
		dependency: dependency,
		baseURL:    base,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: trace.Transport(o.transport),
		},
		carrier: o.carrier,
		logger:  o.logger.With(clog.String("dependency", dependency)),
	}, nil
}

// Dependency 返回依赖名
func (c *Client) Dependency() string {
	return c.dependency
}

// GetJSON 对 path 发起 GET，2xx 时把响应体解码到 out
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	target := c.baseURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return xerrors.Wrapf(err, "peer %s: create request", c.dependency)
	}
	req.Header.Set("Accept", "application/json")

	if c.carrier != nil {
		if cred, ok := c.carrier.From(ctx); ok {
			req.Header.Set("Authorization", cred.Header())
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "peer request failed",
			clog.String("url", target.String()), clog.Duration("elapsed", time.Since(start)), clog.Error(err))
		return xerrors.Wrapf(err, "peer %s: GET %s", c.dependency, target.Path)
	}
	defer resp.Body.Close()

	c.logger.DebugContext(ctx, "peer request completed",
		clog.String("url", target.String()), clog.Int("status", resp.StatusCode),
		clog.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		return &StatusError{
			Dependency: c.dependency,
			Method:     http.MethodGet,
			URL:        target.String(),
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return &DecodeError{Dependency: c.dependency, URL: target.String(), Err: err}
	}
	return nil
}

// StatusError 对端返回了非 2xx 响应
type StatusError struct {
	Dependency string
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("peer %s: %s %s: status %d", e.Dependency, e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// DecodeError 2xx 响应体无法解码
type DecodeError struct {
	Dependency string
	URL        string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("peer %s: decode response from %s: %v", e.Dependency, e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StatusCode 返回错误链上的 HTTP 状态码
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if xerrors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}
