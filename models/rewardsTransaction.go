package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RewardsTransaction is the append-only store-credit audit log. Amount
// is signed: positive = earned, negative = redeemed. BalanceAfter
// snapshots the customer's store_credit right after this entry; the
// customer row carries the cached running total.
type RewardsTransaction struct {
	ID           int                    `gorm:"primary_key" json:"id"`
	CustomerId   int                    `gorm:"index;not null" json:"customer_id"`
	OrderId      int                    `gorm:"index;default:null" json:"order_id"`
	Amount       decimal.Decimal        `gorm:"type:decimal(20,4);not null" json:"amount"`
	Type         RewardsTransactionType `gorm:"size:20;not null" json:"type"`
	BalanceAfter decimal.Decimal        `gorm:"type:decimal(20,4);default:0" json:"balance_after"`
	CreatedAt    time.Time              `gorm:"autoCreateTime" json:"created_at"`
}

func ListCustomerRewards(db *gorm.DB, ctx context.Context, customerId int) ([]RewardsTransaction, error) {
	var entries []RewardsTransaction
	err := db.WithContext(ctx).
		Where("customer_id = ?", customerId).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
