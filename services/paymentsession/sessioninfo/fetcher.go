package sessioninfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/MarcGrol/paymentsession/lib/myhttpclient"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessionerrors"
)

type Request struct {
	Token string
	// Silent marks a background refresh; the caller keeps its loading indicator untouched.
	Silent bool
}

//go:generate mockgen -source=fetcher.go -package sessioninfo -destination fetcher_mock.go Fetcher
type Fetcher interface {
	Fetch(c context.Context, req Request) (SessionInfo, error)
}

type httpFetcher struct {
	baseURL  string
	sender   myhttpclient.HTTPSender
	logger   mylog.Logger
	tracer   trace.Tracer
	inflight singleflight.Group
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewFetcher(baseURL string, sender myhttpclient.HTTPSender, logger mylog.Logger) Fetcher {
	return &httpFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		sender:  sender,
		logger:  logger,
		tracer:  otel.Tracer("paymentsession/sessioninfo"),
	}
}

// Fetch issues one read for the token. Concurrent fetches of the same token share the request.
func (f *httpFetcher) Fetch(c context.Context, req Request) (SessionInfo, error) {
	if !ValidToken(req.Token) {
		return SessionInfo{}, sessionerrors.NewTokenMissingError()
	}

	c, span := f.tracer.Start(c, "sessioninfo.Fetch", trace.WithAttributes(
		attribute.String("payment.token", req.Token),
		attribute.Bool("payment.silent", req.Silent),
	))
	defer span.End()

	started := time.Now()
	// The request is shared by every caller of the token, so no single caller may cancel it.
	// The sender bounds it with its own timeout.
	shared := context.WithoutCancel(c)
	results := f.inflight.DoChan(req.Token, func() (any, error) {
		return f.fetch(shared, req.Token)
	})

	var res singleflight.Result
	select {
	case res = <-results:
	case <-c.Done():
		res.Err = sessionerrors.NewNetworkError(c.Err())
	}
	fetchDuration.WithLabelValues(resultLabel(res.Err)).Observe(time.Since(started).Seconds())

	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Err.Error())
		f.logger.Log(c, req.Token, mylog.SeverityWarn, "Fetch of payment %s failed (silent:%v): %s", req.Token, req.Silent, res.Err)
		return SessionInfo{}, res.Err
	}

	info := res.Val.(SessionInfo)
	f.logger.Log(c, req.Token, mylog.SeverityInfo, "Fetched payment %s (silent:%v, shared:%v): order %s has status %s",
		req.Token, req.Silent, res.Shared, info.Transaction.OrderID, info.Transaction.Status)

	return info, nil
}

func (f *httpFetcher) fetch(c context.Context, token string) (SessionInfo, error) {
	status, body, err := f.sender.Send(c, http.MethodGet, fmt.Sprintf("%s/payments/%s", f.baseURL, url.PathEscape(token)), nil)
	if err != nil {
		return SessionInfo{}, sessionerrors.NewNetworkError(err)
	}

	notFound := status == http.StatusNotFound
	httpFailure := status < 200 || status >= 300

	resp := Response{}
	err = json.Unmarshal(body, &resp)
	if err != nil {
		if httpFailure {
			return SessionInfo{}, sessionerrors.NewBackendRejectedError("", notFound, fmt.Errorf("http status %d with undecodable body: %w", status, err))
		}
		return SessionInfo{}, sessionerrors.NewNetworkError(fmt.Errorf("error decoding payment response: %w", err))
	}

	if httpFailure || !resp.Success {
		return SessionInfo{}, sessionerrors.NewBackendRejectedError(resp.Message, notFound, fmt.Errorf("payment %s rejected with http status %d", token, status))
	}

	if resp.Data == nil {
		return SessionInfo{}, sessionerrors.NewBackendRejectedError(resp.Message, false, errors.New("response without payment data"))
	}

	return *resp.Data, nil
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(sessionerrors.KindOf(err))
}
