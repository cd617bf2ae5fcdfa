package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobboard/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Env:      "test",
			LogLevel: "error",
			// 限流在通用测试里关闭，专门的限流测试自己开
			RateLimit: 0,
			RateBurst: 0,
		},
		Security: config.SecurityConfig{
			JWTSecret:        "test-secret",
			TokenTTLMinutes:  60,
			AdminEmail:       "admin@test.local",
			AdminPassword:    "admin-password",
			MinPasswordChars: 6,
		},
	}
}

// newTestServer 用内存 sqlite 和 miniredis 装配一个完整的服务器。
func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
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
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := newServer(cfg, logger, db, rdb, nil)
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Fatalf("close server: %v", err)
		}
	})
	return s
}

// doRequest 发送一个 JSON 请求，body 为 nil 时不带请求体。
func doRequest(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// registerAndLogin 注册一个用户并返回其令牌。
func registerAndLogin(t *testing.T, s *Server, email, password string) string {
	t.Helper()

	w := doRequest(t, s, http.MethodPost, "/auth/register", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d (%s)", email, w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (%s)", email, w.Code, w.Body.String())
	}

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeBody(t, w, &resp)
	if resp.AccessToken == "" || resp.TokenType != "bearer" {
		t.Fatalf("unexpected token response: %s", w.Body.String())
	}
	return resp.AccessToken
}

// setupCompanyOwner 注册用户、建公司，返回令牌。
func setupCompanyOwner(t *testing.T, s *Server, email, companyName string) string {
	t.Helper()
	tok := registerAndLogin(t, s, email, "password123")
	w := doRequest(t, s, http.MethodPost, "/companies/", tok, gin.H{"name": companyName})
	if w.Code != http.StatusCreated {
		t.Fatalf("create company: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	return tok
}

// setupCandidate 注册用户并填写资料，返回令牌。
func setupCandidate(t *testing.T, s *Server, email string) string {
	t.Helper()
	tok := registerAndLogin(t, s, email, "password123")
	w := doRequest(t, s, http.MethodPut, "/profile/", tok, gin.H{
		"full_name": "Test Candidate",
		"age":       28,
		"gender":    "female",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upsert profile: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	return tok
}

// createJob 以 owner 的身份发布一个职位，返回职位 ID。
func createJob(t *testing.T, s *Server, ownerToken string, salary int, position string) uint {
	t.Helper()
	w := doRequest(t, s, http.MethodPost, "/jobs/", ownerToken, gin.H{
		"title":         "Engineer",
		"position":      position,
		"based_in_code": 0,
		"description":   "Build things.",
		"salary":        salary,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create job: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var resp struct {
		ID uint `json:"id"`
	}
	decodeBody(t, w, &resp)
	return resp.ID
}
