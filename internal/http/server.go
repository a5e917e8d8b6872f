package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
)

// Server wires the service layer to HTTP routes. Routing is plain net/http;
// the handlers are controllers only, all logic lives in services.
type Server struct {
	http.Server

	categories   *services.CategoryService
	transactions *services.TransactionService
	reports      *services.ReportService
	passwords    *services.PasswordService
	files        *services.FileService
	budgets      *services.BudgetService
}

// Deps carries the service dependencies of the server.
type Deps struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Reports      *services.ReportService
	Passwords    *services.PasswordService
	Files        *services.FileService
	Budgets      *services.BudgetService
}

func NewServer(addr string, deps Deps) *Server {
	s := &Server{
		categories:   deps.Categories,
		transactions: deps.Transactions,
		reports:      deps.Reports,
		passwords:    deps.Passwords,
		files:        deps.Files,
		budgets:      deps.Budgets,
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           withObservability(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/categories", s.handleCategoryCreate)
	mux.HandleFunc("GET /api/categories", s.handleCategoryList)
	mux.HandleFunc("GET /api/categories/tree", s.handleCategoryTree)
	mux.HandleFunc("GET /api/categories/{id}", s.handleCategoryGet)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleCategoryUpdate)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleCategoryDelete)
	mux.HandleFunc("PUT /api/categories/{id}/keywords", s.handleCategoryKeywords)

	mux.HandleFunc("POST /api/transactions", s.handleTransactionCreate)
	mux.HandleFunc("GET /api/transactions", s.handleTransactionList)
	mux.HandleFunc("GET /api/transactions/analysis", s.handleTransactionAnalysis)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleTransactionGet)
	mux.HandleFunc("PATCH /api/transactions/{id}", s.handleTransactionUpdate)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleTransactionDelete)
	mux.HandleFunc("POST /api/transactions/bulk-delete", s.handleTransactionBulkDelete)
	mux.HandleFunc("POST /api/transactions/import", s.handleTransactionImport)

	mux.HandleFunc("GET /api/reports/spending", s.handleReportSpending)
	mux.HandleFunc("GET /api/reports/spending/chart", s.handleReportSpendingChart)
	mux.HandleFunc("POST /api/reports/spending/export", s.handleReportSpendingExport)
	mux.HandleFunc("GET /api/reports/income", s.handleReportIncome)
	mux.HandleFunc("GET /api/reports/cashflow", s.handleReportCashFlow)
	mux.HandleFunc("GET /api/reports/cashflow/chart", s.handleReportCashFlowChart)
	mux.HandleFunc("GET /api/reports/budgets", s.handleReportBudgets)

	mux.HandleFunc("POST /api/password/strength", s.handlePasswordStrength)
	mux.HandleFunc("POST /api/password/change", s.handlePasswordChange)
	mux.HandleFunc("POST /api/password/reset-request", s.handlePasswordResetRequest)
	mux.HandleFunc("POST /api/password/reset", s.handlePasswordReset)

	mux.HandleFunc("POST /api/uploads", s.handleUploadCreate)
	mux.HandleFunc("GET /api/uploads", s.handleUploadList)
	mux.HandleFunc("GET /api/uploads/{id}", s.handleUploadGet)
	mux.HandleFunc("DELETE /api/uploads/{id}", s.handleUploadDelete)

	mux.HandleFunc("POST /api/budgets", s.handleBudgetCreate)
	mux.HandleFunc("GET /api/budgets", s.handleBudgetList)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleBudgetDelete)
	mux.HandleFunc("POST /api/goals", s.handleGoalCreate)
	mux.HandleFunc("GET /api/goals", s.handleGoalList)
	mux.HandleFunc("POST /api/goals/{id}/progress", s.handleGoalProgress)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
