package paymentbackend

import (
	"time"

	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
)

type Config struct {
	ClientKey       string
	WidgetScriptURL string
	// Expiry is how long a new payment stays payable.
	Expiry time.Duration
}

type Payment struct {
	PaymentToken    string
	OrderID         string
	Amount          int64
	Currency        string
	Status          sessioninfo.Status
	ClientKey       string
	WidgetScriptURL string
	CheckoutToken   string
	CreatedAt       time.Time
	ExpiredAt       time.Time
	LastModified    time.Time
}

// SessionInfo is the view of the payment the checkout client consumes.
func (p Payment) SessionInfo() sessioninfo.SessionInfo {
	expiredAt := p.ExpiredAt
	return sessioninfo.SessionInfo{
		Payment: sessioninfo.Payment{
			ClientKey:       p.ClientKey,
			WidgetScriptURL: p.WidgetScriptURL,
		},
		Transaction: sessioninfo.Transaction{
			OrderID:       p.OrderID,
			Amount:        p.Amount,
			Status:        p.Status,
			ExpiredAt:     &expiredAt,
			CheckoutToken: p.CheckoutToken,
		},
	}
}

type CreatePaymentRequest struct {
	OrderID  string `form:"orderId"`
	Amount   int64  `form:"amount"`
	Currency string `form:"currency"`
}

type paymentResponse struct {
	Success      bool                     `json:"success"`
	Message      string                   `json:"message,omitempty"`
	PaymentToken string                   `json:"paymentToken,omitempty"`
	Data         *sessioninfo.SessionInfo `json:"data,omitempty"`
}
