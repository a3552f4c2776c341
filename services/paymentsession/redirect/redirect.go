// Package redirect leaves the payment screen for the order status page, at most once.
package redirect

import (
	"errors"
	"fmt"
	"net/url"
	"sync/atomic"

	formcodec "github.com/go-playground/form/v4"
)

const DefaultStatusPath = "/payment-status"

var ErrMissingOrderID = errors.New("order id missing")

type Result string

const (
	ResultSuccess Result = "success"
	ResultPending Result = "pending"
	ResultError   Result = "error"
	ResultClose   Result = "close"
	ResultFailed  Result = "failed"
	ResultExpired Result = "expired"
)

func (r Result) IsValid() bool {
	switch r {
	case ResultSuccess, ResultPending, ResultError, ResultClose, ResultFailed, ResultExpired:
		return true
	default:
		return false
	}
}

// StatusQuery is the query string of the status page.
type StatusQuery struct {
	OrderID string `form:"order_id"`
	Result  Result `form:"result"`
}

//go:generate mockgen -source=redirect.go -package redirect -destination navigator_mock.go Navigator
type Navigator interface {
	// Replace navigates without leaving a history entry back to the payment screen.
	Replace(target string)
}

// Target builds the status page url for an order. There is no target without an order id.
func Target(statusPath string, orderID string, result Result) (string, error) {
	if orderID == "" {
		return "", ErrMissingOrderID
	}

	values, err := formcodec.NewEncoder().Encode(StatusQuery{OrderID: orderID, Result: result})
	if err != nil {
		return "", fmt.Errorf("error encoding status query: %w", err)
	}

	u, err := url.Parse(statusPath)
	if err != nil {
		return "", fmt.Errorf("error parsing status path %s: %w", statusPath, err)
	}
	u.RawQuery = values.Encode()

	return u.String(), nil
}

func ParseStatusQuery(values url.Values) (StatusQuery, error) {
	query := StatusQuery{}
	err := formcodec.NewDecoder().Decode(&query, values)
	if err != nil {
		return query, fmt.Errorf("error decoding status query: %w", err)
	}
	if query.OrderID == "" {
		return query, ErrMissingOrderID
	}
	if !query.Result.IsValid() {
		return query, fmt.Errorf("unknown result %q", query.Result)
	}
	return query, nil
}

// Latch lets the first of several racing producers navigate; every later claim is a no-op.
type Latch struct {
	claimed atomic.Bool
}

func (l *Latch) Claim() bool {
	return l.claimed.CompareAndSwap(false, true)
}

func (l *Latch) Claimed() bool {
	return l.claimed.Load()
}
