package http

import (
	"net/http"
	"time"
)

func (s *Server) reportRange(r *http.Request) (time.Time, time.Time, error) {
	defaultFrom, defaultTo := monthRange(time.Now().UTC())
	from, err := queryDate(r, "from", defaultFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryDate(r, "to", defaultTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (s *Server) handleReportSpending(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := s.reportRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.Spending(r.Context(), uid, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportIncome(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := s.reportRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.Income(r.Context(), uid, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportCashFlow(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "months", 6)
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.reports.CashFlow(r.Context(), uid, months, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportBudgets(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	perfs, err := s.reports.BudgetReport(r.Context(), uid, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perfs)
}

func (s *Server) handleReportSpendingChart(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := s.reportRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := s.reports.SpendingChart(r.Context(), uid, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleReportCashFlowChart(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	months, err := queryInt(r, "months", 6)
	if err != nil {
		writeError(w, r, err)
		return
	}
	png, err := s.reports.CashFlowChart(r.Context(), uid, months, time.Now().UTC())
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (s *Server) handleReportSpendingExport(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := s.reportRange(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.reports.ExportSpending(r.Context(), uid, from, to); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "exported"})
}
