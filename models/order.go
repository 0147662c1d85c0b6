package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Order struct {
	ID              int             `gorm:"primary_key" json:"id"`
	OrderCode       string          `gorm:"size:20;uniqueIndex;not null" json:"order_code"`
	CustomerId      int             `gorm:"index;default:null" json:"customer_id"`
	Customer        *Customer       `gorm:"foreignKey:CustomerId" json:"customer,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	Status          OrderStatus     `gorm:"size:20;not null;default:'Pending'" json:"status"`
	Type            OrderType       `gorm:"size:20;not null" json:"type"`
	CashbackEarned  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"cashback_earned"`
	StoreCreditUsed decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"store_credit_used"`
	Items           []OrderItem     `gorm:"foreignKey:OrderId" json:"items,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItem snapshots price and quantity at sale time; later product
// price edits never rewrite history.
type OrderItem struct {
	ID             int             `gorm:"primary_key" json:"id"`
	OrderId        int             `gorm:"index;not null" json:"order_id"`
	ProductId      int             `gorm:"index;not null" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductId" json:"product,omitempty"`
	DenominationId int             `gorm:"default:null" json:"denomination_id"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TotalPrice     decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"total_price"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

// CartLine is a resolved cart entry: the product row as read at
// checkout time, plus the chosen denomination when the sale is for an
// alternate package size.
type CartLine struct {
	Product      Product
	Denomination *ProductDenomination
	Quantity     int
}

// ResolvedUnitPrice is the denomination's price when one is chosen,
// otherwise the product's base price.
func (l CartLine) ResolvedUnitPrice() decimal.Decimal {
	if l.Denomination != nil {
		return l.Denomination.Price
	}
	return l.Product.Price
}

type NewOrder struct {
	CustomerId      int
	Lines           []CartLine
	TaxAmount       decimal.Decimal
	TotalAmount     decimal.Decimal
	StoreCreditUsed decimal.Decimal
	Type            OrderType
	Status          OrderStatus
}

// Order assembly failure modes. These are the only errors that abort a
// checkout once validation has passed.
var (
	ErrorOrderCreationFailed = errors.New("failed to create order")
	ErrorOrderItemsFailed    = errors.New("failed to create order items")
)

const codeAttempts = 5

const cashbackRate = 0.10

// CreateOrder persists the order header and its item rows. The backing
// store gives us single-row atomicity only, so a failed item insert is
// compensated by deleting the just-created header instead of relying on
// a cross-table transaction.
func CreateOrder(db *gorm.DB, ctx context.Context, input *NewOrder) (*Order, error) {
	if len(input.Lines) == 0 {
		return nil, utils.NewValidationError("no items in cart")
	}

	// Cashback accrues on the tendered (post-credit) total, and only
	// for identified customers. Guests always earn zero.
	cashback := decimal.Zero
	if input.CustomerId > 0 {
		cashback = input.TotalAmount.Mul(decimal.NewFromFloat(cashbackRate)).Round(2)
	}

	order := Order{
		OrderCode:       utils.GenerateOrderCode(time.Now()),
		CustomerId:      input.CustomerId,
		TotalAmount:     input.TotalAmount,
		TaxAmount:       input.TaxAmount,
		Status:          input.Status,
		Type:            input.Type,
		CashbackEarned:  cashback,
		StoreCreditUsed: input.StoreCreditUsed,
	}

	for attempt := 0; ; attempt++ {
		err := db.WithContext(ctx).Create(&order).Error
		if err == nil {
			break
		}
		// The 4-digit suffix is random; retry with a fresh code on a
		// unique-index collision.
		if isDuplicateKeyError(err) && attempt < codeAttempts-1 {
			order.ID = 0
			order.OrderCode = utils.GenerateOrderCode(time.Now())
			continue
		}
		return nil, fmt.Errorf("%w: %v", ErrorOrderCreationFailed, err)
	}

	items := make([]OrderItem, 0, len(input.Lines))
	for _, line := range input.Lines {
		unitPrice := line.ResolvedUnitPrice()
		item := OrderItem{
			OrderId:    order.ID,
			ProductId:  line.Product.ID,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2),
		}
		if line.Denomination != nil {
			item.DenominationId = line.Denomination.ID
		}
		items = append(items, item)
	}

	if err := db.WithContext(ctx).Create(&items).Error; err != nil {
		// Compensating delete: the header alone must not survive.
		if delErr := db.WithContext(ctx).Delete(&Order{}, order.ID).Error; delErr != nil {
			return nil, fmt.Errorf("%w: %v (orphaned order %s: cleanup failed: %v)", ErrorOrderItemsFailed, err, order.OrderCode, delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrorOrderItemsFailed, err)
	}

	order.Items = items
	return &order, nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

func GetOrders(db *gorm.DB, ctx context.Context) ([]Order, error) {
	var orders []Order
	err := db.WithContext(ctx).
		Preload("Customer").
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func GetOrder(db *gorm.DB, ctx context.Context, id int) (*Order, error) {
	var order Order
	err := db.WithContext(ctx).
		Preload("Customer").
		Preload("Items").
		Preload("Items.Product").
		Take(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}

func GetOrderByCode(db *gorm.DB, ctx context.Context, orderCode string) (*Order, error) {
	var order Order
	err := db.WithContext(ctx).
		Preload("Items").
		Where("order_code = ?", orderCode).
		Take(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &order, nil
}

func UpdateOrderStatus(db *gorm.DB, ctx context.Context, id int, status OrderStatus) (*Order, error) {
	if !status.IsValid() {
		return nil, errors.New("invalid order status")
	}
	result := db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return GetOrder(db, ctx, id)
}
