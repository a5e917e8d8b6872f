package http

import (
	"net/http"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

type transactionRequest struct {
	Type        string   `json:"type"`
	Amount      string   `json:"amount"` // decimal string, e.g. "12.34"
	Date        string   `json:"date"`   // YYYY-MM-DD
	Description string   `json:"description"`
	Merchant    string   `json:"merchant"`
	CategoryID  string   `json:"category_id"`
	Tags        []string `json:"tags"`
}

type transactionResponse struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	AmountCents int64    `json:"amount_cents"`
	Amount      string   `json:"amount"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Merchant    string   `json:"merchant,omitempty"`
	CategoryID  string   `json:"category_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Amount:      t.Amount.String(),
		Date:        t.Date.Format("2006-01-02"),
		Description: t.Description,
		Merchant:    t.Merchant,
		CategoryID:  t.CategoryID,
		Tags:        t.Tags,
	}
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, core.Validationf("invalid amount %q", req.Amount))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, r, core.Validationf("invalid date %q, want YYYY-MM-DD", req.Date))
		return
	}

	created, err := s.transactions.Create(r.Context(), core.Transaction{
		UserID:      uid,
		Type:        core.TransactionType(req.Type),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Description: req.Description,
		Merchant:    req.Merchant,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleTransactionList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	filter := storage.TransactionFilter{
		UserID:     uid,
		Type:       core.TransactionType(r.URL.Query().Get("type")),
		CategoryID: r.URL.Query().Get("category_id"),
		Search:     r.URL.Query().Get("search"),
	}
	if filter.From, err = queryDate(r, "from", time.Time{}); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.To, err = queryDate(r, "to", time.Time{}); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.MinCents, err = queryInt64(r, "min_cents"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.MaxCents, err = queryInt64(r, "max_cents"); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Page, err = queryInt(r, "page", 1); err != nil {
		writeError(w, r, err)
		return
	}
	if filter.Limit, err = queryInt(r, "limit", 0); err != nil {
		writeError(w, r, err)
		return
	}

	list, total, err := s.transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]transactionResponse, len(list))
	for i, t := range list {
		items[i] = toTransactionResponse(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
		"page":  filter.Page,
	})
}

func (s *Server) handleTransactionGet(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.transactions.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(t))
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Amount      *string   `json:"amount"`
		Date        *string   `json:"date"`
		Description *string   `json:"description"`
		Merchant    *string   `json:"merchant"`
		CategoryID  *string   `json:"category_id"`
		Tags        *[]string `json:"tags"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	upd := services.TransactionUpdate{
		Description: req.Description,
		Merchant:    req.Merchant,
		CategoryID:  req.CategoryID,
		Tags:        req.Tags,
	}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			writeError(w, r, core.Validationf("invalid amount %q", *req.Amount))
			return
		}
		upd.Amount = &core.Money{Cents: cents}
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			writeError(w, r, core.Validationf("invalid date %q, want YYYY-MM-DD", *req.Date))
			return
		}
		upd.Date = &date
	}

	updated, err := s.transactions.Update(r.Context(), uid, r.PathValue("id"), upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(updated))
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transactions.Delete(r.Context(), uid, r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTransactionBulkDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, r, core.Validationf("no transaction ids given"))
		return
	}

	res, err := s.transactions.BulkDelete(r.Context(), uid, req.IDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"succeeded": res.Succeeded,
		"failed":    res.Failed,
		"errors":    res.Errors,
	})
}

// handleTransactionImport parses a previously uploaded statement file and
// imports its rows.
func (s *Server) handleTransactionImport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		UploadID string `json:"upload_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.UploadID == "" {
		writeError(w, r, core.Validationf("missing upload_id"))
		return
	}

	parsed, err := s.files.ParseStatement(r.Context(), uid, req.UploadID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.transactions.Import(r.Context(), uid, parsed.Rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	// Parse-stage row errors are reported alongside the import tallies.
	for _, re := range parsed.Errors {
		res.Failed++
		res.Errors = append(res.Errors, services.ImportError{Line: re.Line, Err: re.Err.Error()})
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransactionAnalysis(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defaultFrom, defaultTo := monthRange(time.Now().UTC())
	from, err := queryDate(r, "from", defaultFrom)
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := queryDate(r, "to", defaultTo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	typ := core.TransactionType(r.URL.Query().Get("type"))
	if typ == "" {
		typ = core.Expense
	}

	analysis, err := s.transactions.Analyze(r.Context(), uid, typ, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}
