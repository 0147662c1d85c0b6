package models

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestGetDashboardStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "50.00", 10)
	seedCustomer(t, db, "Amina")

	if _, err := CreateOrder(db, ctx, &NewOrder{
		Lines:       []CartLine{{Product: *product, Quantity: 1}},
		TotalAmount: decimal.RequireFromString("50.00"),
		Type:        OrderTypePOS,
		Status:      OrderStatusDelivered,
	}); err != nil {
		t.Fatalf("delivered order: %v", err)
	}
	cancelled, err := CreateOrder(db, ctx, &NewOrder{
		Lines:       []CartLine{{Product: *product, Quantity: 2}},
		TotalAmount: decimal.RequireFromString("100.00"),
		Type:        OrderTypeOnline,
		Status:      OrderStatusPending,
	})
	if err != nil {
		t.Fatalf("pending order: %v", err)
	}
	if _, err := UpdateOrderStatus(db, ctx, cancelled.ID, OrderStatusCancelled); err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	stats, err := GetDashboardStats(db, ctx)
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if want := decimal.RequireFromString("50.00"); !stats.TotalRevenue.Equal(want) {
		t.Errorf("revenue = %s, want %s (cancelled orders excluded)", stats.TotalRevenue, want)
	}
	if stats.TotalOrders != 2 {
		t.Errorf("total orders = %d, want 2", stats.TotalOrders)
	}
	if stats.TotalProducts != 1 {
		t.Errorf("total products = %d, want 1", stats.TotalProducts)
	}
	if stats.TotalCustomers != 1 {
		t.Errorf("total customers = %d, want 1", stats.TotalCustomers)
	}
	if len(stats.RecentOrders) != 2 {
		t.Errorf("recent orders = %d, want 2", len(stats.RecentOrders))
	}
}

func TestGetDashboardStatsEmpty(t *testing.T) {
	db := newTestDB(t)

	stats, err := GetDashboardStats(db, context.Background())
	if err != nil {
		t.Fatalf("GetDashboardStats: %v", err)
	}
	if !stats.TotalRevenue.IsZero() {
		t.Errorf("revenue = %s, want 0", stats.TotalRevenue)
	}
}
