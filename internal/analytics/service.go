package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/config"
	pkgerrors "github.com/retaildesk/retaildesk-backend/pkg/errors"
	"github.com/retaildesk/retaildesk-backend/pkg/logger"
)

const (
	salesWindowDays   = 30
	revenueWindowDays = 90
)

// Service computes the dashboard aggregates.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	db   *gorm.DB
	cfg  config.AnalyticsConfig
	logg *logger.Logger
}

// NewService builds the analytics service.
func NewService(db *gorm.DB, cfg config.AnalyticsConfig, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.ExpiryWindowDays <= 0 {
		cfg.ExpiryWindowDays = 30
	}
	return &service{db: db, cfg: cfg, logg: logg}, nil
}

// Dashboard runs the KPI counters and the three chart queries. Date cutoffs
// are computed here so the SQL stays portable across postgres and sqlite.
func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	kpis, err := s.kpis(ctx)
	if err != nil {
		return nil, err
	}

	categories, err := s.popularCategories(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	salesByDay, err := s.salesByDay(ctx, now.AddDate(0, 0, -salesWindowDays))
	if err != nil {
		return nil, err
	}
	revenueTrend, err := s.revenueTrend(ctx, now.AddDate(0, 0, -revenueWindowDays))
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		KPIs:              *kpis,
		PopularCategories: categories,
		SalesByDay:        salesByDay,
		RevenueTrend:      revenueTrend,
	}, nil
}

func (s *service) kpis(ctx context.Context) (*KPIs, error) {
	var kpis KPIs

	var revenue struct {
		Value decimal.Decimal
	}
	err := s.db.WithContext(ctx).
		Raw("SELECT COALESCE(SUM(total_amount), 0) AS value FROM orders").
		Scan(&revenue).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "total revenue")
	}
	kpis.TotalRevenue = revenue.Value

	err = s.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM orders").
		Scan(&kpis.TotalOrders).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "total orders")
	}

	err = s.db.WithContext(ctx).
		Raw("SELECT COUNT(DISTINCT customer_id) FROM orders").
		Scan(&kpis.ActiveCustomers).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "active customers")
	}

	err = s.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM inventory_records WHERE stock > 0 AND stock < ?", s.cfg.LowStockThreshold).
		Scan(&kpis.LowStockItems).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "low stock")
	}

	expiryCutoff := time.Now().UTC().AddDate(0, 0, s.cfg.ExpiryWindowDays)
	err = s.db.WithContext(ctx).
		Raw(`SELECT COUNT(DISTINCT p.id) FROM products p
			LEFT JOIN inventory_records i ON i.product_id = p.id
			WHERE p.expiry_date IS NOT NULL AND p.expiry_date <= ?
			AND (i.stock IS NULL OR i.stock > 0)`, expiryCutoff).
		Scan(&kpis.ExpiredOrNearExpiry).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expiry counter")
	}

	return &kpis, nil
}

func (s *service) popularCategories(ctx context.Context) ([]CategoryRevenue, error) {
	var rows []CategoryRevenue
	err := s.db.WithContext(ctx).
		Raw(`SELECT c.name AS name, COALESCE(SUM(oi.quantity * oi.price), 0) AS total
			FROM categories c
			LEFT JOIN products p ON p.category_id = c.id
			LEFT JOIN order_items oi ON oi.product_id = p.id
			GROUP BY c.id, c.name
			ORDER BY total DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "popular categories")
	}
	if rows == nil {
		rows = []CategoryRevenue{}
	}
	return rows, nil
}

func (s *service) salesByDay(ctx context.Context, since time.Time) ([]DailySales, error) {
	var rows []DailySales
	err := s.db.WithContext(ctx).
		Raw(`SELECT CAST(DATE(created_at) AS TEXT) AS date, SUM(total_amount) AS amount, COUNT(id) AS orders
			FROM orders
			WHERE created_at >= ?
			GROUP BY DATE(created_at)
			ORDER BY date`, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sales by day")
	}
	if rows == nil {
		rows = []DailySales{}
	}
	return rows, nil
}

func (s *service) revenueTrend(ctx context.Context, since time.Time) ([]DailyRevenue, error) {
	var rows []DailyRevenue
	err := s.db.WithContext(ctx).
		Raw(`SELECT CAST(DATE(created_at) AS TEXT) AS date, SUM(total_amount) AS revenue
			FROM orders
			WHERE created_at >= ?
			GROUP BY DATE(created_at)
			ORDER BY date`, since).
		Scan(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revenue trend")
	}
	if rows == nil {
		rows = []DailyRevenue{}
	}
	return rows, nil
}
