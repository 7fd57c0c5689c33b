package testkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// FakePeer 模拟一个物流依赖服务，响应 GET /api/<collection>/<id> 与 /api/<collection>/<id>/exists
//
// 实体表示为 {"id", "name", "username"}：name 为 "<collection>-<id>"，
// username 为调用方 Bearer 凭证中的 token（没有凭证时同 name）。
type FakePeer struct {
	URL string

	hits    atomic.Int64
	status  atomic.Int32
	delay   atomic.Int64
	mu      sync.RWMutex
	missing map[int64]bool
	auth    []string
}

// NewFakePeer 启动模拟服务，测试结束时关闭；missing 中的 id 返回 404
func NewFakePeer(t *testing.T, missing ...int64) *FakePeer {
	t.Helper()
	p := &FakePeer{missing: make(map[int64]bool)}
	p.Remove(missing...)
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)
	p.URL = srv.URL
	return p
}

// SetDown 为 true 时所有请求返回 503
func (p *FakePeer) SetDown(down bool) {
	if down {
		p.status.Store(http.StatusServiceUnavailable)
	} else {
		p.status.Store(0)
	}
}

// SetStatus 所有请求返回指定状态码，0 恢复正常
func (p *FakePeer) SetStatus(code int) {
	p.status.Store(int32(code))
}

// SetDelay 每个请求先等待 d（调用方断开时提前返回）
func (p *FakePeer) SetDelay(d time.Duration) {
	p.delay.Store(int64(d))
}

// Remove 将 id 标记为不存在
func (p *FakePeer) Remove(ids ...int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range ids {
		p.missing[id] = true
	}
}

// Hits 已收到的请求数
func (p *FakePeer) Hits() int64 {
	return p.hits.Load()
}

// Authorizations 按到达顺序返回收到的 Authorization 头
func (p *FakePeer) Authorizations() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.auth...)
}

func (p *FakePeer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.hits.Add(1)
	authz := r.Header.Get("Authorization")
	p.mu.Lock()
	p.auth = append(p.auth, authz)
	p.mu.Unlock()

	if d := time.Duration(p.delay.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-r.Context().Done():
			return
		}
	}
	if code := int(p.status.Load()); code != 0 {
		http.Error(w, http.StatusText(code), code)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if r.Method != http.MethodGet || len(parts) < 3 || len(parts) > 4 || parts[0] != "api" {
		http.NotFound(w, r)
		return
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	p.mu.RLock()
	gone := p.missing[id]
	p.mu.RUnlock()
	if gone {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if len(parts) == 4 {
		if parts[3] != "exists" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(true)
		return
	}

	name := parts[1] + "-" + parts[2]
	username := name
	if token, ok := strings.CutPrefix(authz, "Bearer "); ok && token != "" {
		username = token
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":       id,
		"name":     name,
		"username": username,
	})
}
