package ziina

// PaymentIntentStatus is the gateway's state set. The two requires_*
// states mean the payer has not acted yet and are treated like pending.
type PaymentIntentStatus string

const (
	StatusPending                   PaymentIntentStatus = "pending"
	StatusProcessing                PaymentIntentStatus = "processing"
	StatusCompleted                 PaymentIntentStatus = "completed"
	StatusFailed                    PaymentIntentStatus = "failed"
	StatusCancelled                 PaymentIntentStatus = "cancelled"
	StatusRequiresPaymentInstrument PaymentIntentStatus = "requires_payment_instrument"
	StatusRequiresUserAction        PaymentIntentStatus = "requires_user_action"
)

// IsTerminal reports whether polling can stop.
func (s PaymentIntentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// PaymentIntent is the gateway's response shape, passed through to the
// UI verbatim. Amount is in minor currency units (fils).
type PaymentIntent struct {
	ID           string              `json:"id"`
	Object       string              `json:"object"`
	Amount       int64               `json:"amount"`
	CurrencyCode string              `json:"currency_code"`
	Status       PaymentIntentStatus `json:"status"`
	RedirectUrl  string              `json:"redirect_url,omitempty"`
	Message      string              `json:"message,omitempty"`
	CreatedAt    string              `json:"created_at,omitempty"`
}

// CreatePaymentIntentRequest is the gateway's create payload. Amount is
// in minor currency units.
type CreatePaymentIntentRequest struct {
	Amount            int64  `json:"amount"`
	CurrencyCode      string `json:"currency_code"`
	Message           string `json:"message,omitempty"`
	Test              bool   `json:"test"`
	TransactionSource string `json:"transaction_source,omitempty"`
}

// WebhookEvent is the callback body the gateway posts on status
// changes.
type WebhookEvent struct {
	ID       string              `json:"id"`
	Status   PaymentIntentStatus `json:"status"`
	Amount   int64               `json:"amount"`
	Currency string              `json:"currency_code"`
}
