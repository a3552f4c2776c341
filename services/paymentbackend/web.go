// Package paymentbackend is a development implementation of the checkout backend the payment
// session client talks to, including the status page it redirects to.
package paymentbackend

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/paymentsession/lib/mycontext"
	"github.com/MarcGrol/paymentsession/lib/myerrors"
	"github.com/MarcGrol/paymentsession/lib/myhttp"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/lib/mystore"
	"github.com/MarcGrol/paymentsession/lib/mytime"
	"github.com/MarcGrol/paymentsession/lib/myuuid"
	"github.com/MarcGrol/paymentsession/services/paymentsession/redirect"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
)

//go:embed templates
var templateFolder embed.FS
var (
	statusPageTemplate *template.Template
)

func init() {
	statusPageTemplate = template.Must(template.ParseFS(templateFolder, "templates/status.html"))
}

var formDecoder = formcodec.NewDecoder()

type webService struct {
	logger  mylog.Logger
	service *service
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg Config, paymentStore mystore.Store[Payment], nower mytime.Nower, uuider myuuid.UUIDer) *webService {
	logger := mylog.New("paymentbackend")

	return &webService{
		logger:  logger,
		service: newService(cfg, paymentStore, nower, uuider, logger),
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	// Consumed by the payment session client
	router.HandleFunc("/api/payments", s.createPayment()).Methods("POST")
	router.HandleFunc("/api/payments/{paymentToken}", s.getPayment()).Methods("GET")

	// Simulates the payment provider settling the payment
	router.HandleFunc("/api/payments/{paymentToken}/status/{status}", s.updateStatus()).Methods("PUT")

	// The client navigates here once the payment finished
	router.HandleFunc(redirect.DefaultStatusPath, s.statusPage()).Methods("GET")

	return nil
}

func (s *webService) createPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		err := r.ParseForm()
		if err != nil {
			responseWriter.WriteError(c, w, 1, myerrors.NewInvalidInputError(fmt.Errorf("error parsing form: %w", err)))
			return
		}

		req := CreatePaymentRequest{}
		err = formDecoder.Decode(&req, r.Form)
		if err != nil {
			responseWriter.WriteError(c, w, 2, myerrors.NewInvalidInputError(fmt.Errorf("error decoding form: %w", err)))
			return
		}

		payment, err := s.service.createPayment(c, req)
		if err != nil {
			responseWriter.WriteError(c, w, 3, err)
			return
		}

		info := payment.SessionInfo()
		responseWriter.Write(c, w, http.StatusCreated, paymentResponse{
			Success:      true,
			PaymentToken: payment.PaymentToken,
			Data:         &info,
		})
	}
}

func (s *webService) getPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		payment, err := s.service.getPayment(c, mux.Vars(r)["paymentToken"])
		if err != nil {
			responseWriter.WriteError(c, w, 4, err)
			return
		}

		info := payment.SessionInfo()
		responseWriter.Write(c, w, http.StatusOK, paymentResponse{
			Success: true,
			Data:    &info,
		})
	}
}

func (s *webService) updateStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		paymentToken := mux.Vars(r)["paymentToken"]
		status := sessioninfo.Status(strings.ToUpper(mux.Vars(r)["status"]))

		payment, err := s.service.updateStatus(c, paymentToken, status)
		if err != nil {
			responseWriter.WriteError(c, w, 5, err)
			return
		}

		info := payment.SessionInfo()
		responseWriter.Write(c, w, http.StatusOK, paymentResponse{
			Success: true,
			Data:    &info,
		})
	}
}

type statusPage struct {
	OrderID string
	Result  redirect.Result
	Title   string
	Success bool
}

var statusTitles = map[redirect.Result]string{
	redirect.ResultSuccess: "Thank you, your payment was received",
	redirect.ResultPending: "Your payment is being processed",
	redirect.ResultError:   "Your payment could not be completed",
	redirect.ResultClose:   "You left the payment screen",
	redirect.ResultFailed:  "Your payment failed",
	redirect.ResultExpired: "Your payment expired",
}

func (s *webService) statusPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		query, err := redirect.ParseStatusQuery(r.URL.Query())
		if err != nil {
			responseWriter.WriteError(c, w, 6, myerrors.NewInvalidInputError(err))
			return
		}

		s.logger.Log(c, query.OrderID, mylog.SeverityInfo, "Status page of order %s with result %s", query.OrderID, query.Result)

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		err = statusPageTemplate.Execute(w, statusPage{
			OrderID: query.OrderID,
			Result:  query.Result,
			Title:   statusTitles[query.Result],
			Success: query.Result == redirect.ResultSuccess || query.Result == redirect.ResultPending,
		})
		if err != nil {
			responseWriter.WriteError(c, w, 7, myerrors.NewInternalError(fmt.Errorf("error executing template: %w", err)))
			return
		}
	}
}
