package services

import (
	"testing"
	"time"
)

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		percent float64
		want    string
	}{
		{0, StatusOnTrack},
		{81.25, StatusOnTrack},
		{89.99, StatusOnTrack},
		{90, StatusWarning},
		{100, StatusWarning},
		{100.01, StatusOverBudget},
		{150, StatusOverBudget},
	}
	for _, tt := range tests {
		if got := budgetStatus(tt.percent); got != tt.want {
			t.Errorf("budgetStatus(%.2f) = %s, want %s", tt.percent, got, tt.want)
		}
	}
}

func TestDiversificationScore(t *testing.T) {
	tests := []struct {
		name   string
		shares []float64
		want   float64
	}{
		{"single source", []float64{100}, 0},
		{"two even sources", []float64{50, 50}, 0.5},
		{"four even sources", []float64{25, 25, 25, 25}, 0.75},
		{"dominant source", []float64{80, 20}, 0.32},
		{"no sources", nil, 1}, // callers guard the empty case
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := diversificationScore(tt.shares); got != tt.want {
				t.Errorf("diversificationScore(%v) = %v, want %v", tt.shares, got, tt.want)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		prev, curr int64
		want       float64
	}{
		{10000, 12500, 25},
		{10000, 7500, -25},
		{0, 5000, 0},
		{5000, 5000, 0},
	}
	for _, tt := range tests {
		if got := percentChange(tt.prev, tt.curr); got != tt.want {
			t.Errorf("percentChange(%d, %d) = %v, want %v", tt.prev, tt.curr, got, tt.want)
		}
	}
}

func TestMovingAverageAndTrend(t *testing.T) {
	avgs := movingAverage([]int64{100, 200, 300, 400}, 3)
	want := []float64{100, 150, 200, 300}
	for i := range want {
		if avgs[i] != want[i] {
			t.Fatalf("movingAverage[%d] = %v, want %v", i, avgs[i], want[i])
		}
	}

	if got := trendDirection([]int64{100, 100, 100, 200}, 3); got != "up" {
		t.Errorf("rising series trend = %s, want up", got)
	}
	if got := trendDirection([]int64{200, 200, 200, 100}, 3); got != "down" {
		t.Errorf("falling series trend = %s, want down", got)
	}
	if got := trendDirection([]int64{100, 100, 100, 100}, 3); got != "flat" {
		t.Errorf("flat series trend = %s, want flat", got)
	}
	if got := trendDirection([]int64{100}, 3); got != "flat" {
		t.Errorf("single point trend = %s, want flat", got)
	}
}

func TestProjectNextMonth(t *testing.T) {
	tests := []struct {
		series []int64
		want   int64
	}{
		{nil, 0},
		{[]int64{5000}, 5000},
		{[]int64{5000, 7000}, 9000},
		{[]int64{9000, 2000}, 0}, // never negative
	}
	for _, tt := range tests {
		if got := projectNextMonth(tt.series); got != tt.want {
			t.Errorf("projectNextMonth(%v) = %d, want %d", tt.series, got, tt.want)
		}
	}
}

func TestProjectPeriodSpend(t *testing.T) {
	// Half the month elapsed, spend should double.
	got := projectPeriodSpend(40000, 15*24*time.Hour, 30*24*time.Hour)
	if got != 80000 {
		t.Errorf("projected spend = %d, want 80000", got)
	}
	// Period over: report actuals.
	if got := projectPeriodSpend(40000, 31*24*time.Hour, 30*24*time.Hour); got != 40000 {
		t.Errorf("finished period projection = %d, want 40000", got)
	}
	if got := projectPeriodSpend(40000, 0, 30*24*time.Hour); got != 40000 {
		t.Errorf("zero elapsed projection = %d, want 40000", got)
	}
}

func TestPeriodWindow(t *testing.T) {
	asOf := time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

	from, to := periodWindow("monthly", asOf)
	if from.Day() != 1 || from.Month() != time.June || to.Month() != time.June || to.Day() != 30 {
		t.Errorf("monthly window = %v .. %v", from, to)
	}

	from, to = periodWindow("yearly", asOf)
	if from.Month() != time.January || from.Day() != 1 || to.Month() != time.December {
		t.Errorf("yearly window = %v .. %v", from, to)
	}
}
