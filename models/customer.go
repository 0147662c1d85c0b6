package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Customer struct {
	ID            int             `gorm:"primary_key" json:"id"`
	CustomerCode  string          `gorm:"size:20;uniqueIndex;not null" json:"customer_code"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Email         string          `gorm:"size:100" json:"email"`
	Phone         string          `gorm:"index;size:20" json:"phone"`
	Status        CustomerStatus  `gorm:"size:20;not null;default:'New'" json:"status"`
	StoreCredit   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"store_credit"`
	RewardsEarned decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"rewards_earned"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCustomer struct {
	Name   string         `json:"name" binding:"required"`
	Email  string         `json:"email"`
	Phone  string         `json:"phone"`
	Status CustomerStatus `json:"status"`
}

func (input *NewCustomer) validate() error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("email is not valid")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return fmt.Errorf("phone number is not valid: %s", input.Phone)
		}
	}
	if input.Status != "" && !input.Status.IsValid() {
		return errors.New("invalid customer status")
	}
	return nil
}

// CreateCustomer registers a customer from the admin screen or ad-hoc
// during POS checkout. The human-readable code is random; creation
// retries on a code collision.
func CreateCustomer(db *gorm.DB, ctx context.Context, input *NewCustomer) (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = CustomerStatusNew
	}

	customer := Customer{
		CustomerCode:  utils.GenerateCustomerCode(),
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		Status:        status,
		StoreCredit:   decimal.Zero,
		RewardsEarned: decimal.Zero,
	}

	for attempt := 0; ; attempt++ {
		err := db.WithContext(ctx).Create(&customer).Error
		if err == nil {
			return &customer, nil
		}
		if isDuplicateKeyError(err) && attempt < codeAttempts-1 {
			customer.ID = 0
			customer.CustomerCode = utils.GenerateCustomerCode()
			continue
		}
		return nil, err
	}
}

func UpdateCustomer(db *gorm.DB, ctx context.Context, id int, input *NewCustomer) (*Customer, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var customer Customer
	if err := db.WithContext(ctx).Take(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{
		"name":  input.Name,
		"email": input.Email,
		"phone": input.Phone,
	}
	if input.Status != "" {
		updates["status"] = input.Status
	}
	if err := db.WithContext(ctx).Model(&customer).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func GetCustomer(db *gorm.DB, ctx context.Context, id int) (*Customer, error) {
	var customer Customer
	err := db.WithContext(ctx).Take(&customer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func ListCustomers(db *gorm.DB, ctx context.Context) ([]Customer, error) {
	var customers []Customer
	err := db.WithContext(ctx).Order("name").Find(&customers).Error
	return customers, err
}

// SearchCustomersByPhone does a partial match so the cashier can key in
// the last digits and pick from the candidates. Capped at
// config.SearchLimit matches; an empty result is not an error.
func SearchCustomersByPhone(db *gorm.DB, ctx context.Context, phone string) ([]Customer, error) {
	var customers []Customer
	err := db.WithContext(ctx).
		Where("phone LIKE ?", "%"+phone+"%").
		Limit(config.SearchLimit).
		Find(&customers).Error
	return customers, err
}

// LedgerResult reports a balance mutation. EntryErr carries a failed
// audit-row append: the balance write already happened and is not
// rolled back, so balance and ledger can drift under failure. Callers
// surface EntryErr as a warning.
type LedgerResult struct {
	BalanceAfter decimal.Decimal
	EntryErr     error
}

// CreditStoreCredit adds spendable balance (manual adjustment or
// refund) and appends an audit row.
func CreditStoreCredit(db *gorm.DB, ctx context.Context, customerId int, amount decimal.Decimal, reason string) (LedgerResult, error) {
	if !amount.IsPositive() {
		return LedgerResult{}, utils.ErrorInvalidAmount
	}

	result := db.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", customerId).
		Updates(map[string]interface{}{
			"store_credit": gorm.Expr("store_credit + ?", amount),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return LedgerResult{}, result.Error
	}
	if result.RowsAffected == 0 {
		return LedgerResult{}, utils.ErrorRecordNotFound
	}

	return appendLedgerEntry(db, ctx, customerId, 0, amount, RewardsTransactionTypeEarned)
}

// DebitStoreCredit redeems store credit against an order. The balance
// check and the decrement are one conditional update, so two registers
// cannot both spend the same balance.
func DebitStoreCredit(db *gorm.DB, ctx context.Context, customerId int, orderId int, amount decimal.Decimal) (LedgerResult, error) {
	if !amount.IsPositive() {
		return LedgerResult{}, utils.ErrorInvalidAmount
	}

	result := db.WithContext(ctx).Model(&Customer{}).
		Where("id = ? AND store_credit >= ?", customerId, amount).
		Updates(map[string]interface{}{
			"store_credit": gorm.Expr("store_credit - ?", amount),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return LedgerResult{}, result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing customer from a balance shortfall.
		var count int64
		if err := db.WithContext(ctx).Model(&Customer{}).Where("id = ?", customerId).Count(&count).Error; err != nil {
			return LedgerResult{}, err
		}
		if count == 0 {
			return LedgerResult{}, utils.ErrorRecordNotFound
		}
		return LedgerResult{}, utils.ErrorInsufficientBalance
	}

	return appendLedgerEntry(db, ctx, customerId, orderId, amount.Neg(), RewardsTransactionTypeRedeemed)
}

// RecordCashbackEarned credits cashback for an order: the cumulative
// rewards counter and the spendable balance both grow by amount.
func RecordCashbackEarned(db *gorm.DB, ctx context.Context, customerId int, orderId int, amount decimal.Decimal) (LedgerResult, error) {
	if !amount.IsPositive() {
		return LedgerResult{}, utils.ErrorInvalidAmount
	}

	result := db.WithContext(ctx).Model(&Customer{}).
		Where("id = ?", customerId).
		Updates(map[string]interface{}{
			"store_credit":   gorm.Expr("store_credit + ?", amount),
			"rewards_earned": gorm.Expr("rewards_earned + ?", amount),
			"updated_at":     time.Now(),
		})
	if result.Error != nil {
		return LedgerResult{}, result.Error
	}
	if result.RowsAffected == 0 {
		return LedgerResult{}, utils.ErrorRecordNotFound
	}

	return appendLedgerEntry(db, ctx, customerId, orderId, amount, RewardsTransactionTypeEarned)
}

// appendLedgerEntry reads the post-mutation balance and writes the
// immutable audit row. An append failure is reported in EntryErr, never
// as a hard error: the balance write is already durable.
func appendLedgerEntry(db *gorm.DB, ctx context.Context, customerId int, orderId int, amount decimal.Decimal, txnType RewardsTransactionType) (LedgerResult, error) {
	var customer Customer
	if err := db.WithContext(ctx).Select("id", "store_credit").Take(&customer, customerId).Error; err != nil {
		return LedgerResult{EntryErr: err}, nil
	}

	entry := RewardsTransaction{
		CustomerId:   customerId,
		OrderId:      orderId,
		Amount:       amount,
		Type:         txnType,
		BalanceAfter: customer.StoreCredit,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return LedgerResult{BalanceAfter: customer.StoreCredit, EntryErr: err}, nil
	}
	return LedgerResult{BalanceAfter: customer.StoreCredit}, nil
}
