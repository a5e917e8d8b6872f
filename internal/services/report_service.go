package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/cache"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/charts"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/sheets"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/storage"
)

// trendWindow is the moving-average window (in months) behind trend
// directions and projections.
const trendWindow = 3

// CategoryShare is one category's slice of a report total.
type CategoryShare struct {
	CategoryID  string  `json:"category_id,omitempty"`
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Percent     float64 `json:"percent"`
	Count       int64   `json:"count"`
}

// SpendingReport breaks down expenses over a period.
type SpendingReport struct {
	From               time.Time       `json:"from"`
	To                 time.Time       `json:"to"`
	TotalCents         int64           `json:"total_cents"`
	DailyAverageCents  int64           `json:"daily_average_cents"`
	ByCategory         []CategoryShare `json:"by_category"`
	TopCategory        string          `json:"top_category,omitempty"`
	MonthOverMonthPct  float64         `json:"month_over_month_pct"`
	Trend              string          `json:"trend"`
	ProjectedNextCents int64           `json:"projected_next_month_cents"`
}

// IncomeReport breaks down income sources over a period.
type IncomeReport struct {
	From                time.Time       `json:"from"`
	To                  time.Time       `json:"to"`
	TotalCents          int64           `json:"total_cents"`
	Sources             []CategoryShare `json:"sources"`
	Diversification     float64         `json:"diversification"`
	PrimarySourcePct    float64         `json:"primary_source_pct"`
	SingleSourceReliant bool            `json:"single_source_reliant"`
}

// CashFlowMonth is one month of inflow versus outflow.
type CashFlowMonth struct {
	Month           string  `json:"month"` // YYYY-MM
	InflowCents     int64   `json:"inflow_cents"`
	OutflowCents    int64   `json:"outflow_cents"`
	NetCents        int64   `json:"net_cents"`
	CumulativeCents int64   `json:"cumulative_cents"`
	SavingsRate     float64 `json:"savings_rate"` // percent of inflow kept
}

// CashFlowReport is a month-by-month inflow/outflow series.
type CashFlowReport struct {
	Months            []CashFlowMonth `json:"months"`
	AvgSavingsRate    float64         `json:"avg_savings_rate"`
	ProjectedNetCents int64           `json:"projected_net_cents"`
}

// BudgetPerformance compares one budget against actual spend in its current
// period.
type BudgetPerformance struct {
	BudgetID            string  `json:"budget_id"`
	CategoryID          string  `json:"category_id,omitempty"`
	CategoryName        string  `json:"category_name,omitempty"`
	Period              string  `json:"period"`
	BudgetCents         int64   `json:"budget_cents"`
	SpentCents          int64   `json:"spent_cents"`
	RemainingCents      int64   `json:"remaining_cents"` // negative when over
	PercentUsed         float64 `json:"percent_used"`
	Status              string  `json:"status"`
	ProjectedSpendCents int64   `json:"projected_spend_cents"`
}

// singleSourcePct marks an income mix as reliant on one source.
const singleSourcePct = 70.0

// ReportService computes the dashboard reports, memoizing results per user
// in the LRU cache.
type ReportService struct {
	storage   *storage.Repository
	cache     *cache.LRUCache[any]
	writer    sheets.ReportWriter
	sheetName string
}

// NewReportService builds the service. writer may be nil when spreadsheet
// export is not configured.
func NewReportService(storage *storage.Repository, c *cache.LRUCache[any], writer sheets.ReportWriter, sheetName string) *ReportService {
	return &ReportService{storage: storage, cache: c, writer: writer, sheetName: sheetName}
}

var reportKinds = []string{"spending", "income", "cashflow", "budget"}

// InvalidateUser drops every cached report for the user. Called by the
// transaction service after writes.
func (s *ReportService) InvalidateUser(userID string) {
	if s.cache == nil {
		return
	}
	n := 0
	for _, kind := range reportKinds {
		n += s.cache.DeletePrefix(kind + ":" + userID + ":")
	}
	if n > 0 {
		slog.Debug("Report cache invalidated", "user_id", userID, "entries", n)
	}
}

func (s *ReportService) cached(key string) (any, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(key)
}

func (s *ReportService) store(key string, v any) {
	if s.cache != nil {
		s.cache.Set(key, v)
	}
}

func validateRange(from, to time.Time) error {
	if from.IsZero() || to.IsZero() {
		return core.Validationf("report range requires both from and to dates")
	}
	if to.Before(from) {
		return core.Validationf("report range end %s precedes start %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}
	return nil
}

func toShares(sums []storage.CategorySum, totalCents int64) []CategoryShare {
	total := core.Money{Cents: totalCents}
	shares := make([]CategoryShare, len(sums))
	for i, sum := range sums {
		name := sum.Name
		if name == "" {
			name = "Uncategorized"
		}
		shares[i] = CategoryShare{
			CategoryID:  sum.CategoryID,
			Name:        name,
			AmountCents: sum.Cents,
			Percent:     core.Money{Cents: sum.Cents}.PercentOf(total),
			Count:       sum.Count,
		}
	}
	return shares
}

// Spending builds the expense breakdown for [from, to].
func (s *ReportService) Spending(ctx context.Context, userID string, from, to time.Time) (SpendingReport, error) {
	if err := validateRange(from, to); err != nil {
		return SpendingReport{}, err
	}

	key := fmt.Sprintf("spending:%s:%s:%s", userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if v, ok := s.cached(key); ok {
		return v.(SpendingReport), nil
	}

	total, err := s.storage.SumInRange(ctx, userID, core.Expense, from, to)
	if err != nil {
		return SpendingReport{}, fmt.Errorf("sum spending: %w", err)
	}
	sums, err := s.storage.SumByCategory(ctx, userID, core.Expense, from, to)
	if err != nil {
		return SpendingReport{}, fmt.Errorf("spending by category: %w", err)
	}
	months, err := s.storage.SumByMonth(ctx, userID, core.Expense, from, to)
	if err != nil {
		return SpendingReport{}, fmt.Errorf("spending by month: %w", err)
	}

	days := int64(to.Sub(from).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	report := SpendingReport{
		From:              from,
		To:                to,
		TotalCents:        total,
		DailyAverageCents: total / days,
		ByCategory:        toShares(sums, total),
	}
	if len(report.ByCategory) > 0 {
		report.TopCategory = report.ByCategory[0].Name
	}

	// Fill calendar gaps with zero months so month-over-month and trend
	// always compare adjacent months.
	byMonth := make(map[string]int64, len(months))
	for _, m := range months {
		byMonth[monthLabel(m.Year, m.Month)] = m.Cents
	}
	first := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	var series []int64
	for cursor := first; !cursor.After(to); cursor = cursor.AddDate(0, 1, 0) {
		series = append(series, byMonth[monthLabel(cursor.Year(), int(cursor.Month()))])
	}
	if len(series) >= 2 {
		report.MonthOverMonthPct = percentChange(series[len(series)-2], series[len(series)-1])
	}
	report.Trend = trendDirection(series, trendWindow)
	report.ProjectedNextCents = projectNextMonth(series)

	s.store(key, report)
	return report, nil
}

// Income builds the income-source breakdown for [from, to], including the
// diversification score (1 minus the sum of squared source shares).
func (s *ReportService) Income(ctx context.Context, userID string, from, to time.Time) (IncomeReport, error) {
	if err := validateRange(from, to); err != nil {
		return IncomeReport{}, err
	}

	key := fmt.Sprintf("income:%s:%s:%s", userID, from.Format("2006-01-02"), to.Format("2006-01-02"))
	if v, ok := s.cached(key); ok {
		return v.(IncomeReport), nil
	}

	total, err := s.storage.SumInRange(ctx, userID, core.Income, from, to)
	if err != nil {
		return IncomeReport{}, fmt.Errorf("sum income: %w", err)
	}
	sums, err := s.storage.SumByCategory(ctx, userID, core.Income, from, to)
	if err != nil {
		return IncomeReport{}, fmt.Errorf("income by source: %w", err)
	}

	report := IncomeReport{
		From:       from,
		To:         to,
		TotalCents: total,
		Sources:    toShares(sums, total),
	}

	percents := make([]float64, len(report.Sources))
	for i, src := range report.Sources {
		percents[i] = src.Percent
		if src.Percent > report.PrimarySourcePct {
			report.PrimarySourcePct = src.Percent
		}
	}
	if len(percents) > 0 {
		report.Diversification = diversificationScore(percents)
	}
	report.SingleSourceReliant = report.PrimarySourcePct >= singleSourcePct

	s.store(key, report)
	return report, nil
}

// CashFlow builds the month-by-month inflow/outflow series for the last
// monthsBack calendar months ending with the month of asOf.
func (s *ReportService) CashFlow(ctx context.Context, userID string, monthsBack int, asOf time.Time) (CashFlowReport, error) {
	if monthsBack < 1 {
		return CashFlowReport{}, core.Validationf("cash flow needs at least one month, got %d", monthsBack)
	}

	end := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0).Add(-time.Nanosecond)
	start := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, -(monthsBack - 1), 0)

	key := fmt.Sprintf("cashflow:%s:%s:%d", userID, start.Format("2006-01"), monthsBack)
	if v, ok := s.cached(key); ok {
		return v.(CashFlowReport), nil
	}

	inflow, err := s.storage.SumByMonth(ctx, userID, core.Income, start, end)
	if err != nil {
		return CashFlowReport{}, fmt.Errorf("income by month: %w", err)
	}
	outflow, err := s.storage.SumByMonth(ctx, userID, core.Expense, start, end)
	if err != nil {
		return CashFlowReport{}, fmt.Errorf("expenses by month: %w", err)
	}

	inByMonth := make(map[string]int64, len(inflow))
	for _, m := range inflow {
		inByMonth[monthLabel(m.Year, m.Month)] = m.Cents
	}
	outByMonth := make(map[string]int64, len(outflow))
	for _, m := range outflow {
		outByMonth[monthLabel(m.Year, m.Month)] = m.Cents
	}

	var report CashFlowReport
	var cumulative int64
	var rateSum float64
	var rateMonths int
	nets := make([]int64, 0, monthsBack)

	for cursor := start; !cursor.After(end); cursor = cursor.AddDate(0, 1, 0) {
		label := monthLabel(cursor.Year(), int(cursor.Month()))
		in := inByMonth[label]
		out := outByMonth[label]
		net := in - out
		cumulative += net

		month := CashFlowMonth{
			Month:           label,
			InflowCents:     in,
			OutflowCents:    out,
			NetCents:        net,
			CumulativeCents: cumulative,
		}
		// Months without income are excluded from the savings rate average
		// so a quiet month does not read as a negative rate.
		if in > 0 {
			month.SavingsRate = core.Money{Cents: net}.PercentOf(core.Money{Cents: in})
			rateSum += month.SavingsRate
			rateMonths++
		}
		report.Months = append(report.Months, month)
		nets = append(nets, net)
	}

	if rateMonths > 0 {
		report.AvgSavingsRate = rateSum / float64(rateMonths)
	}
	report.ProjectedNetCents = projectNextMonth(nets)

	s.store(key, report)
	return report, nil
}

// BudgetReport evaluates every budget of the user against actual spend in the
// period containing asOf.
func (s *ReportService) BudgetReport(ctx context.Context, userID string, asOf time.Time) ([]BudgetPerformance, error) {
	key := fmt.Sprintf("budget:%s:%s", userID, asOf.Format("2006-01-02"))
	if v, ok := s.cached(key); ok {
		return v.([]BudgetPerformance), nil
	}

	budgets, err := s.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]BudgetPerformance, 0, len(budgets))
	for _, b := range budgets {
		perf, err := s.evaluateBudget(ctx, b, asOf)
		if err != nil {
			return nil, err
		}
		out = append(out, perf)
	}

	s.store(key, out)
	return out, nil
}

func (s *ReportService) evaluateBudget(ctx context.Context, b core.Budget, asOf time.Time) (BudgetPerformance, error) {
	from, to := periodWindow(string(b.Period), asOf)

	spent, err := s.storage.SumForBudget(ctx, b.UserID, b.CategoryID, from, to)
	if err != nil {
		return BudgetPerformance{}, fmt.Errorf("sum for budget %s: %w", b.ID, err)
	}

	perf := BudgetPerformance{
		BudgetID:       b.ID,
		CategoryID:     b.CategoryID,
		Period:         string(b.Period),
		BudgetCents:    b.Amount.Cents,
		SpentCents:     spent,
		RemainingCents: b.Amount.Cents - spent,
		PercentUsed:    core.Money{Cents: spent}.PercentOf(b.Amount),
	}
	perf.Status = budgetStatus(perf.PercentUsed)
	perf.ProjectedSpendCents = projectPeriodSpend(spent, asOf.Sub(from), to.Sub(from))

	if b.CategoryID != "" {
		cat, err := s.storage.GetCategory(ctx, b.UserID, b.CategoryID)
		if err == nil {
			perf.CategoryName = cat.Name
		} else if !core.IsNotFound(err) {
			return BudgetPerformance{}, fmt.Errorf("resolve budget category: %w", err)
		}
	}
	return perf, nil
}

// SpendingChart renders the spending breakdown as a donut chart PNG.
func (s *ReportService) SpendingChart(ctx context.Context, userID string, from, to time.Time) ([]byte, error) {
	report, err := s.Spending(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}
	if len(report.ByCategory) == 0 {
		return nil, core.NotFoundf("no spending between %s and %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	labels := make([]string, len(report.ByCategory))
	values := make([]float64, len(report.ByCategory))
	for i, share := range report.ByCategory {
		labels[i] = share.Name
		values[i] = share.Percent
	}
	title := fmt.Sprintf("Spending %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	return charts.SpendingDonut(title, labels, values)
}

// CashFlowChart renders the monthly net series as a bar chart PNG.
func (s *ReportService) CashFlowChart(ctx context.Context, userID string, monthsBack int, asOf time.Time) ([]byte, error) {
	report, err := s.CashFlow(ctx, userID, monthsBack, asOf)
	if err != nil {
		return nil, err
	}
	if len(report.Months) == 0 {
		return nil, core.NotFoundf("no cash flow data")
	}

	labels := make([]string, len(report.Months))
	values := make([]float64, len(report.Months))
	for i, m := range report.Months {
		labels[i] = m.Month
		values[i] = float64(m.NetCents) / 100.0
	}
	return charts.MonthlyBars("Monthly net cash flow", labels, values)
}

// ExportSpending appends the spending breakdown to the configured
// spreadsheet, one row per category.
func (s *ReportService) ExportSpending(ctx context.Context, userID string, from, to time.Time) error {
	if s.writer == nil {
		return core.Validationf("spreadsheet export is not configured")
	}

	report, err := s.Spending(ctx, userID, from, to)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(report.ByCategory)+1)
	rows = append(rows, []string{
		from.Format("2006-01-02"),
		to.Format("2006-01-02"),
		"TOTAL",
		core.Money{Cents: report.TotalCents}.String(),
		"100.00",
	})
	for _, share := range report.ByCategory {
		rows = append(rows, []string{
			from.Format("2006-01-02"),
			to.Format("2006-01-02"),
			share.Name,
			core.Money{Cents: share.AmountCents}.String(),
			fmt.Sprintf("%.2f", share.Percent),
		})
	}

	if err := s.writer.AppendRows(ctx, s.sheetName, rows); err != nil {
		return fmt.Errorf("export spending report: %w", err)
	}
	slog.InfoContext(ctx, "Spending report exported",
		"user_id", userID,
		"rows", len(rows),
		"sheet", s.sheetName)
	return nil
}
