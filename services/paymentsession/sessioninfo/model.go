package sessioninfo

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusExpired Status = "EXPIRED"
)

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusExpired
}

func (s Status) IsValid() bool {
	return s == StatusPending || s.IsTerminal()
}

type SessionInfo struct {
	Payment     Payment     `json:"payment"`
	Transaction Transaction `json:"transaction"`
}

type Payment struct {
	ClientKey       string `json:"clientKey"`
	WidgetScriptURL string `json:"widgetScriptUrl"`
}

type Transaction struct {
	OrderID       string     `json:"orderId"`
	Amount        int64      `json:"amount"`
	Status        Status     `json:"status"`
	ExpiredAt     *time.Time `json:"expiredAt,omitempty"`
	CheckoutToken string     `json:"checkoutToken"`
}

// ScriptReady tells whether the info carries everything needed to load the widget script.
func (i SessionInfo) ScriptReady() bool {
	return i.Payment.ClientKey != "" && i.Payment.WidgetScriptURL != ""
}

// Response is the envelope of GET /payments/{paymentToken}.
type Response struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *SessionInfo `json:"data,omitempty"`
}

// ValidToken rejects tokens that cannot be a single path segment.
func ValidToken(token string) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	return !strings.ContainsAny(token, "/?# \t\r\n")
}
