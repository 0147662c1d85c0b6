package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gifthouse/pos_backend/config"
	"github.com/gifthouse/pos_backend/models"
	"github.com/gifthouse/pos_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrorCheckoutInFlight signals a duplicate fire (double-click, retried
// request) while a checkout is still running on the same terminal. The
// duplicate is a no-op.
var ErrorCheckoutInFlight = errors.New("a checkout is already in progress on this terminal")

const DefaultTerminalId = "pos-1"

// CheckoutWorkflow sequences a POS sale: order assembly, inventory
// decrement, store-credit redemption, cashback accrual. Only order
// assembly is fatal; everything downstream degrades into warnings.
type CheckoutWorkflow struct {
	db       *gorm.DB
	logger   *logrus.Logger
	inFlight sync.Map // terminal id -> struct{}
}

func NewCheckoutWorkflow(db *gorm.DB, logger *logrus.Logger) *CheckoutWorkflow {
	return &CheckoutWorkflow{
		db:     db,
		logger: logger,
	}
}

type CheckoutLine struct {
	ProductId      int `json:"product_id" binding:"required"`
	DenominationId int `json:"denomination_id"`
	Quantity       int `json:"quantity" binding:"required"`
}

type CheckoutInput struct {
	TerminalId      string          `json:"terminal_id"`
	CustomerId      int             `json:"customer_id"`
	Lines           []CheckoutLine  `json:"lines" binding:"required"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	TaxAmount       decimal.Decimal `json:"tax_amount"`
	Total           decimal.Decimal `json:"total"`
	StoreCreditUsed decimal.Decimal `json:"store_credit_used"`
}

// CheckoutWarning records a secondary effect that failed after the sale
// itself was durably recorded.
type CheckoutWarning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

type CheckoutResult struct {
	Order    *models.Order     `json:"order"`
	Warnings []CheckoutWarning `json:"warnings,omitempty"`
}

// Checkout runs the full POS sale. On success the returned order is the
// durable record; Warnings lists any inventory/ledger effects that did
// not land. A validation or order-assembly error means nothing was
// sold.
func (w *CheckoutWorkflow) Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutResult, error) {
	terminal := input.TerminalId
	if terminal == "" {
		terminal = DefaultTerminalId
	}

	// Reentrancy latch, per terminal session. Set before any work,
	// cleared on every exit path.
	if _, loaded := w.inFlight.LoadOrStore(terminal, struct{}{}); loaded {
		return nil, ErrorCheckoutInFlight
	}
	defer w.inFlight.Delete(terminal)

	if err := w.validate(input); err != nil {
		return nil, err
	}

	lines, err := w.resolveLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	if input.CustomerId > 0 {
		if _, err := models.GetCustomer(w.db, ctx, input.CustomerId); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("customer not found")
			}
			return nil, err
		}
	}

	// Step 1: order assembly. The only step whose failure aborts the
	// checkout; the assembler compensates its own partial state.
	order, err := models.CreateOrder(w.db, ctx, &models.NewOrder{
		CustomerId:      input.CustomerId,
		Lines:           lines,
		TaxAmount:       input.TaxAmount,
		TotalAmount:     input.Total,
		StoreCreditUsed: input.StoreCreditUsed,
		Type:            models.OrderTypePOS,
		Status:          models.OrderStatusDelivered,
	})
	if err != nil {
		return nil, err
	}

	result := CheckoutResult{Order: order}

	// Step 2: inventory decrement, per line, best effort. Completing
	// the sale outranks stock accuracy.
	for _, line := range lines {
		var adjErr error
		if line.Denomination != nil {
			adjErr = models.DecrementDenominationStock(w.db, ctx, line.Denomination.ID, line.Quantity)
		} else {
			adjErr = models.DecrementStock(w.db, ctx, line.Product.ID, line.Quantity)
		}
		if adjErr != nil {
			config.LogError(w.logger, "workflow", "Checkout", "inventory adjustment", line.Product.ID, adjErr)
			result.Warnings = append(result.Warnings, CheckoutWarning{
				Step:    "inventory",
				Message: fmt.Sprintf("stock not adjusted for product %d: %s", line.Product.ID, adjErr.Error()),
			})
		}
	}

	// Step 3: redeem store credit. The sale stands even when the
	// deduction fails; the shortfall is reported, not rolled back.
	if input.StoreCreditUsed.IsPositive() && input.CustomerId > 0 {
		res, debitErr := models.DebitStoreCredit(w.db, ctx, input.CustomerId, order.ID, input.StoreCreditUsed)
		if debitErr != nil {
			config.LogError(w.logger, "workflow", "Checkout", "store credit debit", input.CustomerId, debitErr)
			result.Warnings = append(result.Warnings, CheckoutWarning{
				Step:    "store_credit",
				Message: "store credit not deducted: " + debitErr.Error(),
			})
		} else if res.EntryErr != nil {
			config.LogError(w.logger, "workflow", "Checkout", "store credit ledger entry", input.CustomerId, res.EntryErr)
			result.Warnings = append(result.Warnings, CheckoutWarning{
				Step:    "store_credit_ledger",
				Message: "store credit deducted but audit entry not recorded: " + res.EntryErr.Error(),
			})
		}
	}

	// Step 4: cashback accrual for identified customers.
	if input.CustomerId > 0 && order.CashbackEarned.IsPositive() {
		res, rewardErr := models.RecordCashbackEarned(w.db, ctx, input.CustomerId, order.ID, order.CashbackEarned)
		if rewardErr != nil {
			config.LogError(w.logger, "workflow", "Checkout", "cashback accrual", input.CustomerId, rewardErr)
			result.Warnings = append(result.Warnings, CheckoutWarning{
				Step:    "cashback",
				Message: "cashback not credited: " + rewardErr.Error(),
			})
		} else if res.EntryErr != nil {
			config.LogError(w.logger, "workflow", "Checkout", "cashback ledger entry", input.CustomerId, res.EntryErr)
			result.Warnings = append(result.Warnings, CheckoutWarning{
				Step:    "cashback_ledger",
				Message: "cashback credited but audit entry not recorded: " + res.EntryErr.Error(),
			})
		}
	}

	return &result, nil
}

// validate rejects bad input before any side effect.
func (w *CheckoutWorkflow) validate(input *CheckoutInput) error {
	if len(input.Lines) == 0 {
		return utils.NewValidationError("no items in cart")
	}
	if !input.Total.IsPositive() {
		return utils.NewValidationError("invalid order total")
	}
	if input.StoreCreditUsed.IsNegative() {
		return utils.NewValidationError("invalid store credit amount")
	}
	if input.StoreCreditUsed.IsPositive() && input.CustomerId <= 0 {
		return utils.NewValidationError("store credit requires an identified customer")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return utils.NewValidationError("item quantity must be greater than zero")
		}
	}
	// total = subtotal + tax - store credit, to the cent.
	expected := input.Subtotal.Add(input.TaxAmount).Sub(input.StoreCreditUsed).Round(2)
	if !input.Total.Round(2).Equal(expected) {
		return utils.NewValidationError("order total does not reconcile with subtotal, tax and store credit")
	}
	return nil
}

// resolveLines loads each cart line's product (and denomination, when
// chosen) so prices are snapshotted server-side.
func (w *CheckoutWorkflow) resolveLines(ctx context.Context, lines []CheckoutLine) ([]models.CartLine, error) {
	resolved := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := models.GetProduct(w.db, ctx, line.ProductId)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError(fmt.Sprintf("product %d not found", line.ProductId))
			}
			return nil, err
		}

		cartLine := models.CartLine{Product: *product, Quantity: line.Quantity}
		if line.DenominationId > 0 {
			var found bool
			for i := range product.Denominations {
				if product.Denominations[i].ID == line.DenominationId {
					cartLine.Denomination = &product.Denominations[i]
					found = true
					break
				}
			}
			if !found {
				return nil, utils.NewValidationError(fmt.Sprintf("denomination %d does not belong to product %d", line.DenominationId, line.ProductId))
			}
		}

		if !cartLine.ResolvedUnitPrice().IsPositive() {
			return nil, utils.NewValidationError(fmt.Sprintf("product %d has no valid price", line.ProductId))
		}
		resolved = append(resolved, cartLine)
	}
	return resolved, nil
}
