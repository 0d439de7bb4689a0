package analytics

import "github.com/shopspring/decimal"

// KPIs are the headline dashboard counters.
type KPIs struct {
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TotalOrders         int64           `json:"totalOrders"`
	ActiveCustomers     int64           `json:"activeCustomers"`
	LowStockItems       int64           `json:"lowStockItems"`
	ExpiredOrNearExpiry int64           `json:"expiredOrNearExpiry"`
}

// CategoryRevenue is one slice of the popular-categories chart.
type CategoryRevenue struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// DailySales is one point of the 30-day sales chart.
type DailySales struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Orders int64           `json:"orders"`
}

// DailyRevenue is one point of the 90-day revenue trend.
type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

// Dashboard is the full analytics payload.
type Dashboard struct {
	KPIs              KPIs              `json:"kpis"`
	PopularCategories []CategoryRevenue `json:"popularCategories"`
	SalesByDay        []DailySales      `json:"salesByDay"`
	RevenueTrend      []DailyRevenue    `json:"revenueTrend"`
}
