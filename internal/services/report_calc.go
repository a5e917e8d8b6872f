package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Budget consumption bands.
const (
	StatusOnTrack    = "on_track"
	StatusWarning    = "warning"
	StatusOverBudget = "over_budget"
)

// budgetStatus maps the percentage of budget used to its status band:
// under 90 on_track, 90 to 100 warning, above 100 over_budget.
func budgetStatus(percentUsed float64) string {
	switch {
	case percentUsed < 90:
		return StatusOnTrack
	case percentUsed <= 100:
		return StatusWarning
	default:
		return StatusOverBudget
	}
}

// diversificationScore is 1 minus the sum of squared income-source shares
// (shares given as percentages). A single source scores 0; many evenly sized
// sources approach 1. Rounded to four decimals.
func diversificationScore(sharePercents []float64) float64 {
	sum := decimal.Zero
	for _, p := range sharePercents {
		frac := decimal.NewFromFloat(p).Div(decimal.NewFromInt(100))
		sum = sum.Add(frac.Mul(frac))
	}
	score := decimal.NewFromInt(1).Sub(sum).Round(4)
	f, _ := score.Float64()
	if f < 0 {
		return 0
	}
	return f
}

// percentChange returns the change from prev to curr as a percentage,
// rounded to two decimals. A zero prev reports 0.
func percentChange(prev, curr int64) float64 {
	if prev == 0 {
		return 0
	}
	p := decimal.New(curr-prev, 0).
		Div(decimal.New(prev, 0)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	f, _ := p.Float64()
	return f
}

// movingAverage computes the trailing window average at every index. Early
// indexes average over however many points exist so far.
func movingAverage(cents []int64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(cents))
	var sum int64
	for i, v := range cents {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= cents[i-window]
		}
		out[i] = float64(sum) / float64(n)
	}
	return out
}

// trendDirection compares the latest month against the trailing moving
// average. Within five percent of the average counts as flat.
func trendDirection(cents []int64, window int) string {
	if len(cents) < 2 {
		return "flat"
	}
	avgs := movingAverage(cents, window)
	avg := avgs[len(avgs)-1]
	if avg == 0 {
		return "flat"
	}
	latest := float64(cents[len(cents)-1])
	delta := (latest - avg) / avg * 100
	switch {
	case delta > 5:
		return "up"
	case delta < -5:
		return "down"
	default:
		return "flat"
	}
}

// projectNextMonth extends the last month-over-month difference linearly.
// Projections never go below zero.
func projectNextMonth(cents []int64) int64 {
	switch len(cents) {
	case 0:
		return 0
	case 1:
		return cents[0]
	}
	last := cents[len(cents)-1]
	prev := cents[len(cents)-2]
	projected := last + (last - prev)
	if projected < 0 {
		return 0
	}
	return projected
}

// projectPeriodSpend extrapolates spend over the full budget period from the
// pace so far. Before any time has elapsed it returns the spend unchanged.
func projectPeriodSpend(spentCents int64, elapsed, total time.Duration) int64 {
	if elapsed <= 0 || total <= 0 {
		return spentCents
	}
	if elapsed >= total {
		return spentCents
	}
	p := decimal.New(spentCents, 0).
		Mul(decimal.NewFromInt(int64(total))).
		Div(decimal.NewFromInt(int64(elapsed))).
		Round(0)
	return p.IntPart()
}

// periodWindow returns the budget period containing asOf: the calendar month
// for monthly budgets, the calendar year for yearly ones.
func periodWindow(period string, asOf time.Time) (time.Time, time.Time) {
	switch period {
	case "yearly":
		start := time.Date(asOf.Year(), time.January, 1, 0, 0, 0, 0, asOf.Location())
		return start, start.AddDate(1, 0, 0).Add(-time.Nanosecond)
	default:
		start := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
		return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	}
}

func monthLabel(year, month int) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}
