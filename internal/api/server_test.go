package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"jobboard/internal/pkg/notify"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(t, s, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
	}
	decodeBody(t, w, &resp)
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := doRequest(t, s, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

// TestEndToEnd 走一遍完整的招聘流程：
// 注册 → 登录 → 填资料 → 另一用户建公司发职位 → 投递 → 查看我的投递。
func TestEndToEnd(t *testing.T) {
	s := newTestServer(t, testConfig())

	candTok := registerAndLogin(t, s, "a@x.com", "password123")

	w := doRequest(t, s, http.MethodPut, "/profile/", candTok, gin.H{
		"full_name": "Alice",
		"age":       23,
		"gender":    "female",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("profile: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	ownerTok := setupCompanyOwner(t, s, "boss@x.com", "X Corp")
	jobID := createJob(t, s, ownerTok, 450, "backend")

	// 未登录也能浏览职位
	w = doRequest(t, s, http.MethodGet, "/jobs/", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("public jobs: expected 200, got %d", w.Code)
	}

	w = doRequest(t, s, http.MethodPost, "/applications/", candTok, gin.H{"job_id": jobID})
	if w.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/applications/me", candTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my applications: expected 200, got %d", w.Code)
	}
	var list []struct {
		JobID  uint   `json:"job_id"`
		Status string `json:"status"`
	}
	decodeBody(t, w, &list)
	if len(list) != 1 || list[0].JobID != jobID || list[0].Status != "applied" {
		t.Fatalf("unexpected applications: %s", w.Body.String())
	}
}

// slowNotifier 延迟后才记录发送，用来验证关闭顺序。
type slowNotifier struct {
	delay time.Duration
	sent  atomic.Int32
}

func (n *slowNotifier) SendApplicationReceived(ctx context.Context, notice notify.Notice, toEmail string) error {
	time.Sleep(n.delay)
	n.sent.Add(1)
	return nil
}

func TestClose_DrainsNotifications(t *testing.T) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	mailer := &slowNotifier{delay: 50 * time.Millisecond}
	s := newServer(testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)), db, rdb, mailer)

	ownerTok := setupCompanyOwner(t, s, "drain-owner@example.com", "Drain Corp")
	jobID := createJob(t, s, ownerTok, 500, "backend")
	candTok := setupCandidate(t, s, "drain-cand@example.com")

	w := doRequest(t, s, http.MethodPost, "/applications/", candTok, gin.H{"job_id": jobID})
	if w.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	// Close 必须等通知 goroutine 结束后才断开连接
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := mailer.sent.Load(); got != 1 {
		t.Fatalf("expected notification drained before close, got %d sends", got)
	}
}

func TestAuthRateLimit(t *testing.T) {
	cfg := testConfig()
	// 每 10 秒才补一个令牌，桶容量 2：第三次请求必被拒
	cfg.App.RateLimit = 0.1
	cfg.App.RateBurst = 2
	s := newTestServer(t, cfg)

	body := gin.H{"email": "nobody@example.com", "password": "wrong-password"}
	for i := 0; i < 2; i++ {
		w := doRequest(t, s, http.MethodPost, "/auth/login", "", body)
		if w.Code == http.StatusTooManyRequests {
			t.Fatalf("request %d throttled within burst", i+1)
		}
	}

	w := doRequest(t, s, http.MethodPost, "/auth/login", "", body)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst exhausted, got %d", w.Code)
	}
}
