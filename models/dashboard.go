package models

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DashboardStats struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	TotalOrders    int64           `json:"total_orders"`
	TotalProducts  int64           `json:"total_products"`
	TotalCustomers int64           `json:"total_customers"`
	RecentOrders   []Order         `json:"recent_orders"`
}

// GetDashboardStats aggregates the admin dashboard counters. Cancelled
// orders do not count toward revenue.
func GetDashboardStats(db *gorm.DB, ctx context.Context) (*DashboardStats, error) {
	stats := DashboardStats{TotalRevenue: decimal.Zero}

	var revenue decimal.NullDecimal
	err := db.WithContext(ctx).Model(&Order{}).
		Where("status <> ?", OrderStatusCancelled).
		Select("SUM(total_amount)").
		Scan(&revenue).Error
	if err != nil {
		return nil, err
	}
	if revenue.Valid {
		stats.TotalRevenue = revenue.Decimal
	}

	if err := db.WithContext(ctx).Model(&Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Customer{}).Count(&stats.TotalCustomers).Error; err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).
		Preload("Customer").
		Order("created_at DESC").
		Limit(5).
		Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, err
	}

	return &stats, nil
}
