// Package charts renders report data as PNG images.
package charts

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var palette = []drawing.Color{
	{R: 91, G: 155, B: 213, A: 255},
	{R: 237, G: 125, B: 49, A: 255},
	{R: 165, G: 165, B: 165, A: 255},
	{R: 255, G: 192, B: 0, A: 255},
	{R: 68, G: 114, B: 196, A: 255},
	{R: 112, G: 173, B: 71, A: 255},
	{R: 158, G: 72, B: 14, A: 255},
	{R: 99, G: 99, B: 99, A: 255},
}

// SpendingDonut renders category shares as a donut chart. Labels and values
// must be the same length.
func SpendingDonut(title string, labels []string, values []float64) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("labels and values length mismatch: %d vs %d", len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no data to chart")
	}

	chartValues := make([]chart.Value, 0, len(values))
	for i, v := range values {
		if v <= 0 {
			continue
		}
		chartValues = append(chartValues, chart.Value{
			Label: fmt.Sprintf("%s (%.1f%%)", labels[i], v),
			Value: v,
			Style: chart.Style{FillColor: palette[i%len(palette)]},
		})
	}
	if len(chartValues) == 0 {
		return nil, fmt.Errorf("no positive values to chart")
	}

	donut := chart.DonutChart{
		Title:  title,
		Width:  600,
		Height: 500,
		Values: chartValues,
	}

	var buf bytes.Buffer
	if err := donut.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render donut chart: %w", err)
	}
	return buf.Bytes(), nil
}

// MonthlyBars renders a month-by-month series as a bar chart. Values are in
// currency units.
func MonthlyBars(title string, labels []string, values []float64) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("labels and values length mismatch: %d vs %d", len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("no data to chart")
	}

	bars := make([]chart.Value, len(values))
	for i, v := range values {
		bars[i] = chart.Value{
			Label: labels[i],
			Value: v,
			Style: chart.Style{FillColor: palette[i%len(palette)]},
		}
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    max(600, 90*len(bars)),
		Height:   400,
		BarWidth: 50,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}
