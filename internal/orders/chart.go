package orders

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/threadline/threadline-backend/pkg/enums"
)

const (
	dayLabelLayout   = "2006-01-02"
	monthLabelLayout = "2006-01"
)

type chartWindow struct {
	since  time.Time
	labels []string
	label  func(time.Time) string
}

func newChartWindow(period enums.RevenuePeriod, now time.Time) (*chartWindow, error) {
	now = now.UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case enums.RevenuePeriodWeek, enums.RevenuePeriodMonth:
		days := 7
		if period == enums.RevenuePeriodMonth {
			days = 30
		}
		since := today.AddDate(0, 0, -(days - 1))
		labels := make([]string, 0, days)
		for i := 0; i < days; i++ {
			labels = append(labels, since.AddDate(0, 0, i).Format(dayLabelLayout))
		}
		return &chartWindow{
			since:  since,
			labels: labels,
			label:  func(t time.Time) string { return t.UTC().Format(dayLabelLayout) },
		}, nil
	case enums.RevenuePeriodYear:
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		since := firstOfMonth.AddDate(0, -11, 0)
		labels := make([]string, 0, 12)
		for i := 0; i < 12; i++ {
			labels = append(labels, since.AddDate(0, i, 0).Format(monthLabelLayout))
		}
		return &chartWindow{
			since:  since,
			labels: labels,
			label:  func(t time.Time) string { return t.UTC().Format(monthLabelLayout) },
		}, nil
	}
	return nil, fmt.Errorf("unknown period %q", period)
}

// fill sums rows into the window's buckets; rows outside the window are dropped.
func (w *chartWindow) fill(rows []RevenueRow) []RevenuePoint {
	index := make(map[string]int, len(w.labels))
	points := make([]RevenuePoint, len(w.labels))
	for i, label := range w.labels {
		index[label] = i
		points[i] = RevenuePoint{Label: label, Revenue: decimal.Zero}
	}
	for _, row := range rows {
		i, ok := index[w.label(row.CreatedAt)]
		if !ok {
			continue
		}
		points[i].Revenue = points[i].Revenue.Add(row.TotalAmount)
		points[i].Orders++
	}
	for i := range points {
		points[i].Revenue = points[i].Revenue.Round(2)
	}
	return points
}
