package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/cache"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets/memory"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	repo, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	reportCache := cache.NewLRUCache[any](16, time.Minute)
	reports := services.NewReportService(repo, reportCache, memory.New(), "Reports")
	files, err := services.NewFileService(repo, t.TempDir(), 1<<20, 64)
	if err != nil {
		t.Fatalf("file service: %v", err)
	}

	srv := NewServer(":0", Deps{
		Categories:   services.NewCategoryService(repo),
		Transactions: services.NewTransactionService(repo, reports),
		Reports:      reports,
		Passwords:    services.NewPasswordService(repo, []byte("secret"), 30*time.Minute, 5),
		Files:        files,
		Budgets:      services.NewBudgetService(repo, reports),
	})

	userID := "u1"
	now := time.Now().UTC()
	if err := repo.CreateUser(context.Background(), core.User{
		ID: userID, Email: "u1@example.com", PasswordHash: "x", CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return srv, userID
}

func doJSON(t *testing.T, srv *Server, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestMissingUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)
	rec := doJSON(t, srv, http.MethodGet, "/api/categories", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCategoryAndTransactionFlow(t *testing.T) {
	srv, userID := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/categories", userID,
		`{"name":"Food","type":"expense"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create category status = %d: %s", rec.Code, rec.Body)
	}
	var cat struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	// Duplicate name conflicts.
	rec = doJSON(t, srv, http.MethodPost, "/api/categories", userID,
		`{"name":"Food","type":"expense"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate category status = %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/transactions", userID,
		`{"type":"expense","amount":"54.30","date":"2025-06-01","description":"Groceries","category_id":"`+cat.ID+`"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction status = %d: %s", rec.Code, rec.Body)
	}
	var tx struct {
		AmountCents int64 `json:"amount_cents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	if tx.AmountCents != 5430 {
		t.Fatalf("amount = %d, want 5430", tx.AmountCents)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/transactions?from=2025-06-01&to=2025-06-30", userID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body)
	}
	var page struct {
		Total int64 `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 1 {
		t.Fatalf("total = %d, want 1", page.Total)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/spending?from=2025-06-01&to=2025-06-30", userID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d: %s", rec.Code, rec.Body)
	}

	// Unknown transaction is a 404.
	rec = doJSON(t, srv, http.MethodGet, "/api/transactions/nope", userID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing transaction status = %d, want 404", rec.Code)
	}
}
