package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func statsOrder(month int, total float64, status string, quantity int) Order {
	return Order{
		Status:    status,
		Pricing:   Pricing{Total: total},
		Items:     []OrderItem{{Quantity: quantity}},
		CreatedAt: time.Date(2024, time.Month(month), 15, 12, 0, 0, 0, time.UTC),
	}
}

func TestComputeStatistics(t *testing.T) {
	orders := []Order{
		statsOrder(1, 500, OrderStatusDelivered, 2),
		statsOrder(1, 300, OrderStatusCancelled, 1),
		statsOrder(2, 200, OrderStatusPending, 4),
	}

	stats := ComputeStatistics(orders)

	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 1000.0, stats.TotalRevenue)
	assert.Equal(t, 333.33, stats.AverageOrderValue)
	assert.Equal(t, 7, stats.TotalItems)
	assert.Equal(t, 1, stats.StatusBreakdown[OrderStatusDelivered])
	assert.Equal(t, 1, stats.StatusBreakdown[OrderStatusCancelled])
	assert.Equal(t, 1, stats.StatusBreakdown[OrderStatusPending])
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)

	assert.Equal(t, 0, stats.TotalOrders)
	assert.Equal(t, 0.0, stats.AverageOrderValue)
	assert.Empty(t, stats.StatusBreakdown)
}

func TestComputeMonthlySalesExcludesCancelled(t *testing.T) {
	orders := []Order{
		statsOrder(1, 500, OrderStatusDelivered, 1),
		statsOrder(1, 300, OrderStatusCancelled, 1),
	}

	rows := ComputeMonthlySales(orders, 2024)

	assert.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Month)
	assert.Equal(t, 1, rows[0].TotalOrders)
	assert.Equal(t, 500.0, rows[0].TotalRevenue)
	assert.Equal(t, 500.0, rows[0].AverageOrderValue)
}

func TestComputeMonthlySalesSortedAscending(t *testing.T) {
	orders := []Order{
		statsOrder(11, 100, OrderStatusDelivered, 1),
		statsOrder(3, 250, OrderStatusDelivered, 1),
		statsOrder(3, 150, OrderStatusShipped, 1),
		statsOrder(7, 400, OrderStatusConfirmed, 1),
	}

	rows := ComputeMonthlySales(orders, 2024)

	assert.Len(t, rows, 3)
	assert.Equal(t, 3, rows[0].Month)
	assert.Equal(t, 2, rows[0].TotalOrders)
	assert.Equal(t, 400.0, rows[0].TotalRevenue)
	assert.Equal(t, 200.0, rows[0].AverageOrderValue)
	assert.Equal(t, 7, rows[1].Month)
	assert.Equal(t, 11, rows[2].Month)
}

func TestComputeMonthlySalesIgnoresOtherYears(t *testing.T) {
	orders := []Order{
		{
			Status:    OrderStatusDelivered,
			Pricing:   Pricing{Total: 900},
			CreatedAt: time.Date(2023, time.December, 31, 23, 0, 0, 0, time.UTC),
		},
	}

	rows := ComputeMonthlySales(orders, 2024)

	assert.Empty(t, rows)
}
