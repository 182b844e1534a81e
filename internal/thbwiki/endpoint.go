// Package thbwiki 封装 THBWiki 的 MediaWiki API：带缓存与重试的 GET 端点，以及音乐室相关的三个查询。
package thbwiki

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/John-Robertt/thbost/internal/infra/cache"
)

const (
	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// ErrCacheMiss 表示 offline 模式下请求未命中缓存。
var ErrCacheMiss = errors.New("cache miss in offline mode")

// HTTPStatusError 表示端点返回了非 2xx 的 HTTP 状态码。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Endpoint 是一个带内容寻址缓存的 GET 端点。
// ProxyURL 只参与缓存指纹，代理本身由 Client 负责。
//
// 约束：
// - 同一组参数只会真正请求一次：成功的响应体写入缓存，之后直接命中
// - 只对网络错误、429、5xx 做有界重试（指数退避）；ctx 取消立即返回
// - 失败的响应不写缓存
type Endpoint struct {
	URL       string
	UserAgent string
	ProxyURL  string
	Client    *http.Client
	Cache     cache.Store

	// Offline 为 true 时只读缓存，未命中返回 ErrCacheMiss。
	Offline bool

	// Attempts 是总尝试次数（含首次）；0 表示 3。
	Attempts uint
	// Delay 是首次重试前的等待；0 表示 500ms。
	Delay time.Duration

	Logger *slog.Logger
}

// requestKey 是参与缓存指纹计算的请求描述。
type requestKey struct {
	Transport struct {
		URL       string `json:"url"`
		UserAgent string `json:"user_agent"`
		Proxy     string `json:"proxy"`
	} `json:"transport"`
	Request map[string]string `json:"request"`
	Method  string            `json:"method"`
}

// Get 以 params 作为查询参数请求端点，返回响应体文本。
func (e *Endpoint) Get(ctx context.Context, params map[string]string) (string, error) {
	logger := e.logger()

	var rk requestKey
	rk.Transport.URL = e.URL
	rk.Transport.UserAgent = e.UserAgent
	rk.Transport.Proxy = e.ProxyURL
	rk.Request = params
	rk.Method = http.MethodGet
	key, raw, err := cache.Fingerprint(rk)
	if err != nil {
		return "", err
	}

	entry, ok, err := e.Cache.Read(key)
	switch {
	case err != nil:
		// 坏缓存：忽略，走网络（成功后会覆盖）。
		logger.Warn("缓存读取失败", "key", key, "err", err)
	case ok:
		logger.Debug("缓存命中", "key", key, "action", params["action"])
		return entry.Resp.Body, nil
	}
	if e.Offline {
		return "", fmt.Errorf("%w: action=%s key=%s", ErrCacheMiss, params["action"], key)
	}

	logger.Debug("缓存未命中，请求端点", "key", key, "action", params["action"])
	body, err := retry.DoWithData(
		func() (string, error) { return e.fetch(ctx, params) },
		retry.Context(ctx),
		retry.Attempts(e.attempts()),
		retry.Delay(e.delay()),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("请求失败，准备重试", "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		return "", err
	}

	var out cache.Entry
	out.Request = raw
	out.Resp.Body = body
	if err := e.Cache.Write(key, out); err != nil && !errors.Is(err, cache.ErrReadOnly) {
		logger.Warn("缓存写入失败", "key", key, "err", err)
	}
	return body, nil
}

func (e *Endpoint) fetch(ctx context.Context, params map[string]string) (string, error) {
	u, err := url.Parse(e.URL)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", retry.Unrecoverable(err)
	}
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}

	c := e.Client
	if c == nil {
		c = http.DefaultClient
	}
	resp, err := c.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &HTTPStatusError{URL: e.URL, StatusCode: resp.StatusCode}
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return "", errors.New("empty response body")
	}
	return string(b), nil
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *HTTPStatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests || se.StatusCode >= 500
	}
	return true
}

func (e *Endpoint) attempts() uint {
	if e.Attempts == 0 {
		return defaultAttempts
	}
	return e.Attempts
}

func (e *Endpoint) delay() time.Duration {
	if e.Delay <= 0 {
		return defaultDelay
	}
	return e.Delay
}

func (e *Endpoint) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}
