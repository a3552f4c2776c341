package paymentbackend

import (
	"context"
	"fmt"
	"regexp"

	"github.com/MarcGrol/paymentsession/lib/myerrors"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/lib/mystore"
	"github.com/MarcGrol/paymentsession/lib/mytime"
	"github.com/MarcGrol/paymentsession/lib/myuuid"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

type service struct {
	cfg          Config
	paymentStore mystore.Store[Payment]
	nower        mytime.Nower
	uuider       myuuid.UUIDer
	logger       mylog.Logger
}

// Use dependency injection to isolate the infrastructure and easy testing
func newService(cfg Config, store mystore.Store[Payment], nower mytime.Nower, uuider myuuid.UUIDer, logger mylog.Logger) *service {
	return &service{
		cfg:          cfg,
		paymentStore: store,
		nower:        nower,
		uuider:       uuider,
		logger:       logger,
	}
}

func (s *service) createPayment(c context.Context, req CreatePaymentRequest) (Payment, error) {
	if req.OrderID == "" {
		return Payment{}, myerrors.NewInvalidInputErrorf("missing orderId")
	}
	if req.Amount <= 0 {
		return Payment{}, myerrors.NewInvalidInputErrorf("invalid amount %d", req.Amount)
	}
	if !currencyPattern.MatchString(req.Currency) {
		return Payment{}, myerrors.NewInvalidInputErrorf("invalid currency '%s'", req.Currency)
	}

	now := s.nower.Now()
	payment := Payment{
		PaymentToken:    s.uuider.Create(),
		OrderID:         req.OrderID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Status:          sessioninfo.StatusPending,
		ClientKey:       s.cfg.ClientKey,
		WidgetScriptURL: s.cfg.WidgetScriptURL,
		CheckoutToken:   s.uuider.Create(),
		CreatedAt:       now,
		ExpiredAt:       now.Add(s.cfg.Expiry),
		LastModified:    now,
	}

	err := s.paymentStore.Put(c, payment.PaymentToken, payment)
	if err != nil {
		return Payment{}, myerrors.NewInternalError(fmt.Errorf("error storing payment %s: %w", payment.PaymentToken, err))
	}

	s.logger.Log(c, payment.OrderID, mylog.SeverityInfo, "Created payment %s for order %s (%d %s)", payment.PaymentToken, payment.OrderID, payment.Amount, payment.Currency)

	return payment, nil
}

// getPayment reports a pending payment past its expiry as expired.
func (s *service) getPayment(c context.Context, paymentToken string) (Payment, error) {
	if !sessioninfo.ValidToken(paymentToken) {
		return Payment{}, myerrors.NewInvalidInputErrorf("invalid payment token '%s'", paymentToken)
	}

	payment, found, err := s.paymentStore.Get(c, paymentToken)
	if err != nil {
		return Payment{}, myerrors.NewInternalError(fmt.Errorf("error fetching payment %s: %w", paymentToken, err))
	}
	if !found {
		return Payment{}, myerrors.NewNotFoundError(fmt.Errorf("payment %s not found", paymentToken))
	}

	if payment.Status == sessioninfo.StatusPending && !s.nower.Now().Before(payment.ExpiredAt) {
		payment.Status = sessioninfo.StatusExpired
	}

	return payment, nil
}

// updateStatus moves the payment forward. A terminal status is never left again.
func (s *service) updateStatus(c context.Context, paymentToken string, status sessioninfo.Status) (Payment, error) {
	if !status.IsValid() {
		return Payment{}, myerrors.NewInvalidInputErrorf("invalid status '%s'", status)
	}

	var payment Payment
	err := s.paymentStore.RunInTransaction(c, func(c context.Context) error {
		var err error
		payment, err = s.getPayment(c, paymentToken)
		if err != nil {
			return err
		}

		if payment.Status == status {
			return nil
		}
		if payment.Status.IsTerminal() {
			return myerrors.NewConflictError(fmt.Errorf("payment %s is %s and cannot become %s", paymentToken, payment.Status, status))
		}

		payment.Status = status
		payment.LastModified = s.nower.Now()

		err = s.paymentStore.Put(c, paymentToken, payment)
		if err != nil {
			return myerrors.NewInternalError(fmt.Errorf("error storing payment %s: %w", paymentToken, err))
		}
		return nil
	})
	if err != nil {
		return Payment{}, err
	}

	s.logger.Log(c, payment.OrderID, mylog.SeverityInfo, "Payment %s of order %s is %s", paymentToken, payment.OrderID, payment.Status)

	return payment, nil
}
