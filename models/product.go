package models

import (
	"context"
	"errors"
	"time"

	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID            int                   `gorm:"primary_key" json:"id"`
	Name          string                `gorm:"size:100;not null" json:"name" binding:"required"`
	Description   string                `gorm:"type:text" json:"description"`
	Category      string                `gorm:"index;size:100;not null" json:"category" binding:"required"`
	Price         decimal.Decimal       `gorm:"type:decimal(20,4);default:0" json:"price"`
	Unit          string                `gorm:"size:20" json:"unit"`
	StockQuantity int                   `gorm:"not null;default:0" json:"stock_quantity"`
	ImageUrl      string                `gorm:"size:255" json:"image_url"`
	Denominations []ProductDenomination `gorm:"foreignKey:ProductId" json:"denominations"`
	CreatedAt     time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductDenomination is an alternate sellable unit of a product (a
// different package weight) with its own price and stock.
type ProductDenomination struct {
	ID            int             `gorm:"primary_key" json:"id"`
	ProductId     int             `gorm:"index;not null" json:"product_id"`
	Weight        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"weight"`
	Unit          string          `gorm:"size:20" json:"unit"`
	Price         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	StockQuantity int             `gorm:"not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewProduct struct {
	Name          string                   `json:"name" binding:"required"`
	Description   string                   `json:"description"`
	Category      string                   `json:"category" binding:"required"`
	Price         decimal.Decimal          `json:"price"`
	Unit          string                   `json:"unit"`
	StockQuantity int                      `json:"stock_quantity"`
	ImageUrl      string                   `json:"image_url"`
	Denominations []NewProductDenomination `json:"denominations"`
}

type NewProductDenomination struct {
	Weight        decimal.Decimal `json:"weight"`
	Unit          string          `json:"unit"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
}

func (input *NewProduct) validate() error {
	if input.Price.IsNegative() {
		return errors.New("product price must not be negative")
	}
	if input.StockQuantity < 0 {
		return errors.New("stock quantity must not be negative")
	}
	for _, d := range input.Denominations {
		if d.Price.IsNegative() {
			return errors.New("denomination price must not be negative")
		}
		if d.StockQuantity < 0 {
			return errors.New("denomination stock quantity must not be negative")
		}
	}
	return nil
}

func CreateProduct(db *gorm.DB, ctx context.Context, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	product := Product{
		Name:          input.Name,
		Description:   input.Description,
		Category:      input.Category,
		Price:         input.Price,
		Unit:          input.Unit,
		StockQuantity: input.StockQuantity,
		ImageUrl:      input.ImageUrl,
	}
	for _, d := range input.Denominations {
		product.Denominations = append(product.Denominations, ProductDenomination{
			Weight:        d.Weight,
			Unit:          d.Unit,
			Price:         d.Price,
			StockQuantity: d.StockQuantity,
		})
	}

	if err := db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func UpdateProduct(db *gorm.DB, ctx context.Context, id int, input *NewProduct) (*Product, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var product Product
	if err := db.WithContext(ctx).Take(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"name":           input.Name,
		"description":    input.Description,
		"category":       input.Category,
		"price":          input.Price,
		"unit":           input.Unit,
		"stock_quantity": input.StockQuantity,
		"image_url":      input.ImageUrl,
	}
	if err := db.WithContext(ctx).Model(&product).Updates(updates).Error; err != nil {
		return nil, err
	}

	// Denominations are replaced wholesale on edit.
	if input.Denominations != nil {
		if err := db.WithContext(ctx).Where("product_id = ?", id).Delete(&ProductDenomination{}).Error; err != nil {
			return nil, err
		}
		for _, d := range input.Denominations {
			denom := ProductDenomination{
				ProductId:     id,
				Weight:        d.Weight,
				Unit:          d.Unit,
				Price:         d.Price,
				StockQuantity: d.StockQuantity,
			}
			if err := db.WithContext(ctx).Create(&denom).Error; err != nil {
				return nil, err
			}
		}
	}

	return GetProduct(db, ctx, id)
}

func DeleteProduct(db *gorm.DB, ctx context.Context, id int) error {
	result := db.WithContext(ctx).Delete(&Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return db.WithContext(ctx).Where("product_id = ?", id).Delete(&ProductDenomination{}).Error
}

func GetProduct(db *gorm.DB, ctx context.Context, id int) (*Product, error) {
	var product Product
	err := db.WithContext(ctx).Preload("Denominations").Take(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}

func ListProducts(db *gorm.DB, ctx context.Context) ([]Product, error) {
	var products []Product
	err := db.WithContext(ctx).Preload("Denominations").Order("name").Find(&products).Error
	return products, err
}

// GetPosProducts returns sellable products for the POS screen: in
// stock, denominations preloaded, ordered by name.
func GetPosProducts(db *gorm.DB, ctx context.Context) ([]Product, error) {
	var products []Product
	err := db.WithContext(ctx).
		Preload("Denominations").
		Where("stock_quantity > 0").
		Order("name").
		Find(&products).Error
	return products, err
}

func GetProductDenominations(db *gorm.DB, ctx context.Context, productId int) ([]ProductDenomination, error) {
	var denominations []ProductDenomination
	err := db.WithContext(ctx).
		Where("product_id = ?", productId).
		Order("weight").
		Find(&denominations).Error
	return denominations, err
}

// DecrementStock reduces a product's stock by qty, clamped at zero.
// The sale completes even when stock drifts; the caller treats a
// failure here as a warning, not an abort.
func DecrementStock(db *gorm.DB, ctx context.Context, productId int, qty int) error {
	var product Product
	if err := db.WithContext(ctx).Select("id", "stock_quantity").Take(&product, productId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	newQty := product.StockQuantity - qty
	if newQty < 0 {
		newQty = 0
	}
	return db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", productId).
		Updates(map[string]interface{}{
			"stock_quantity": newQty,
			"updated_at":     time.Now(),
		}).Error
}

func DecrementDenominationStock(db *gorm.DB, ctx context.Context, denominationId int, qty int) error {
	var denom ProductDenomination
	if err := db.WithContext(ctx).Select("id", "stock_quantity").Take(&denom, denominationId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.ErrorRecordNotFound
		}
		return err
	}

	newQty := denom.StockQuantity - qty
	if newQty < 0 {
		newQty = 0
	}
	return db.WithContext(ctx).Model(&ProductDenomination{}).
		Where("id = ?", denominationId).
		Update("stock_quantity", newQty).Error
}
