package models

import (
	"math"
	"sort"
)

// OrderStatistics is an aggregate over a set of orders for a date range.
type OrderStatistics struct {
	TotalOrders       int            `json:"total_orders"`
	TotalRevenue      float64        `json:"total_revenue"`
	AverageOrderValue float64        `json:"average_order_value"`
	TotalItems        int            `json:"total_items"`
	StatusBreakdown   map[string]int `json:"status_breakdown"`
}

// MonthlySalesRow is one month's aggregate in a yearly sales report.
type MonthlySalesRow struct {
	Month             int     `json:"month"`
	TotalOrders       int     `json:"total_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeStatistics folds a slice of orders into summary statistics.
// Average order value is rounded to 2 decimals.
func ComputeStatistics(orders []Order) OrderStatistics {
	stats := OrderStatistics{
		StatusBreakdown: make(map[string]int),
	}
	for _, o := range orders {
		stats.TotalOrders++
		stats.TotalRevenue += o.Pricing.Total
		stats.TotalItems += o.TotalItems()
		stats.StatusBreakdown[o.Status]++
	}
	if stats.TotalOrders > 0 {
		stats.AverageOrderValue = round2(stats.TotalRevenue / float64(stats.TotalOrders))
	}
	return stats
}

// ComputeMonthlySales groups orders of the given calendar year by month,
// excluding cancelled orders, sorted ascending by month. Months with no
// orders are omitted.
func ComputeMonthlySales(orders []Order, year int) []MonthlySalesRow {
	byMonth := make(map[int]*MonthlySalesRow)
	for _, o := range orders {
		if o.Status == OrderStatusCancelled {
			continue
		}
		if o.CreatedAt.Year() != year {
			continue
		}
		month := int(o.CreatedAt.Month())
		row, ok := byMonth[month]
		if !ok {
			row = &MonthlySalesRow{Month: month}
			byMonth[month] = row
		}
		row.TotalOrders++
		row.TotalRevenue += o.Pricing.Total
	}

	rows := make([]MonthlySalesRow, 0, len(byMonth))
	for _, row := range byMonth {
		row.AverageOrderValue = round2(row.TotalRevenue / float64(row.TotalOrders))
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Month < rows[j].Month })
	return rows
}
