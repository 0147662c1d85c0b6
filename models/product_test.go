package models

import (
	"context"
	"errors"
	"testing"

	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
)

func TestCreateProductWithDenominations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	product, err := CreateProduct(db, ctx, &NewProduct{
		Name:          "Dates",
		Category:      "Dried Fruit",
		Price:         decimal.RequireFromString("40.00"),
		Unit:          "500g",
		StockQuantity: 8,
		Denominations: []NewProductDenomination{
			{Weight: decimal.RequireFromString("1"), Unit: "kg", Price: decimal.RequireFromString("75.00"), StockQuantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	reloaded, err := GetProduct(db, ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if len(reloaded.Denominations) != 1 {
		t.Fatalf("denominations = %d, want 1", len(reloaded.Denominations))
	}
	if !reloaded.Denominations[0].Price.Equal(decimal.RequireFromString("75.00")) {
		t.Errorf("denomination price = %s, want 75.00", reloaded.Denominations[0].Price)
	}
}

func TestCreateProductRejectsNegatives(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if _, err := CreateProduct(db, ctx, &NewProduct{Name: "X", Category: "Y", Price: decimal.RequireFromString("-1")}); err == nil {
		t.Error("expected error for negative price")
	}
	if _, err := CreateProduct(db, ctx, &NewProduct{Name: "X", Category: "Y", StockQuantity: -1}); err == nil {
		t.Error("expected error for negative stock")
	}
}

func TestUpdateProductReplacesDenominations(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	product, err := CreateProduct(db, ctx, &NewProduct{
		Name:     "Dates",
		Category: "Dried Fruit",
		Price:    decimal.RequireFromString("40.00"),
		Denominations: []NewProductDenomination{
			{Weight: decimal.RequireFromString("1"), Unit: "kg", Price: decimal.RequireFromString("75.00")},
			{Weight: decimal.RequireFromString("2"), Unit: "kg", Price: decimal.RequireFromString("140.00")},
		},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	updated, err := UpdateProduct(db, ctx, product.ID, &NewProduct{
		Name:     "Dates",
		Category: "Dried Fruit",
		Price:    decimal.RequireFromString("40.00"),
		Denominations: []NewProductDenomination{
			{Weight: decimal.RequireFromString("5"), Unit: "kg", Price: decimal.RequireFromString("320.00")},
		},
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if len(updated.Denominations) != 1 {
		t.Fatalf("denominations after replace = %d, want 1", len(updated.Denominations))
	}
	if !updated.Denominations[0].Weight.Equal(decimal.RequireFromString("5")) {
		t.Errorf("denomination weight = %s, want 5", updated.Denominations[0].Weight)
	}
}

func TestGetPosProductsExcludesOutOfStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	seedProduct(t, db, "50.00", 10)
	if _, err := CreateProduct(db, ctx, &NewProduct{
		Name:     "Sold Out",
		Category: "Sweets",
		Price:    decimal.RequireFromString("10.00"),
	}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	products, err := GetPosProducts(db, ctx)
	if err != nil {
		t.Fatalf("GetPosProducts: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("pos products = %d, want 1", len(products))
	}
	if products[0].Name == "Sold Out" {
		t.Error("out-of-stock product listed for sale")
	}
}

func TestDecrementStockClampsAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "50.00", 3)

	if err := DecrementStock(db, ctx, product.ID, 5); err != nil {
		t.Fatalf("DecrementStock: %v", err)
	}
	reloaded, err := GetProduct(db, ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if reloaded.StockQuantity != 0 {
		t.Errorf("stock = %d, want 0 (clamped)", reloaded.StockQuantity)
	}

	if err := DecrementStock(db, ctx, 9999, 1); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Errorf("expected record-not-found for missing product, got %v", err)
	}
}

func TestDecrementDenominationStock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	product, err := CreateProduct(db, ctx, &NewProduct{
		Name:     "Dates",
		Category: "Dried Fruit",
		Price:    decimal.RequireFromString("40.00"),
		Denominations: []NewProductDenomination{
			{Weight: decimal.RequireFromString("1"), Unit: "kg", Price: decimal.RequireFromString("75.00"), StockQuantity: 2},
		},
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	denomId := product.Denominations[0].ID

	if err := DecrementDenominationStock(db, ctx, denomId, 5); err != nil {
		t.Fatalf("DecrementDenominationStock: %v", err)
	}
	denoms, err := GetProductDenominations(db, ctx, product.ID)
	if err != nil {
		t.Fatalf("GetProductDenominations: %v", err)
	}
	if denoms[0].StockQuantity != 0 {
		t.Errorf("denomination stock = %d, want 0 (clamped)", denoms[0].StockQuantity)
	}
}

func TestDeleteProduct(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	product := seedProduct(t, db, "50.00", 10)

	if err := DeleteProduct(db, ctx, product.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := GetProduct(db, ctx, product.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Errorf("expected record-not-found after delete, got %v", err)
	}
	if err := DeleteProduct(db, ctx, product.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Errorf("expected record-not-found on double delete, got %v", err)
	}
}
