package api

import (
	"net/http"
	"testing"

	"jobboard/internal/model"

	"github.com/gin-gonic/gin"
)

func TestCompany_CreateAndConflict(t *testing.T) {
	s := newTestServer(t, testConfig())
	tok := registerAndLogin(t, s, "owner@example.com", "password123")

	w := doRequest(t, s, http.MethodPost, "/companies/", tok, gin.H{"name": "Acme", "website": "https://acme.example"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", w.Code, w.Body.String())
	}
	var created struct {
		ID      uint   `json:"id"`
		OwnerID uint   `json:"owner_id"`
		Name    string `json:"name"`
	}
	decodeBody(t, w, &created)
	if created.ID == 0 || created.Name != "Acme" {
		t.Fatalf("unexpected response: %s", w.Body.String())
	}

	// 一个用户只能拥有一家公司
	w = doRequest(t, s, http.MethodPost, "/companies/", tok, gin.H{"name": "Second Corp"})
	if w.Code != http.StatusConflict {
		t.Fatalf("second create: expected 409, got %d", w.Code)
	}

	var count int64
	if err := s.db.Model(&model.Company{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one company row, got %d", count)
	}

	// 冲突后第一家公司仍可读取
	w = doRequest(t, s, http.MethodGet, "/companies/me", tok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("getMine: expected 200, got %d", w.Code)
	}
}

func TestCompany_GetMineNotFound(t *testing.T) {
	s := newTestServer(t, testConfig())
	tok := registerAndLogin(t, s, "nocompany@example.com", "password123")

	w := doRequest(t, s, http.MethodGet, "/companies/me", tok, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCompany_StatsAggregation(t *testing.T) {
	s := newTestServer(t, testConfig())
	ownerTok := setupCompanyOwner(t, s, "statsowner@example.com", "Stats Inc")

	job1 := createJob(t, s, ownerTok, 500, "backend")
	createJob(t, s, ownerTok, 600, "frontend")

	candidateTok := setupCandidate(t, s, "statscand@example.com")
	w := doRequest(t, s, http.MethodPost, "/applications/", candidateTok, gin.H{"job_id": job1})
	if w.Code != http.StatusCreated {
		t.Fatalf("apply: expected 201, got %d (%s)", w.Code, w.Body.String())
	}

	w = doRequest(t, s, http.MethodGet, "/companies/me", ownerTok, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("getMine: expected 200, got %d (%s)", w.Code, w.Body.String())
	}

	var resp struct {
		Company struct {
			Name string `json:"name"`
		} `json:"company"`
		Stats struct {
			Jobs         int64 `json:"jobs"`
			Applications int64 `json:"applications"`
		} `json:"stats"`
	}
	decodeBody(t, w, &resp)
	if resp.Company.Name != "Stats Inc" {
		t.Fatalf("unexpected company: %s", w.Body.String())
	}
	if resp.Stats.Jobs != 2 || resp.Stats.Applications != 1 {
		t.Fatalf("expected stats jobs=2 applications=1, got %+v", resp.Stats)
	}
}
