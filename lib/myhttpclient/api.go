package myhttpclient

import (
	"context"
	"time"
)

const (
	defaultTimeout = 5 * time.Second
)

//go:generate mockgen -source=api.go -package myhttpclient -destination httpsender_mock.go HTTPSender
type HTTPSender interface {
	Send(c context.Context, method string, url string, body []byte) (int, []byte, error)
}

func New() HTTPSender {
	return newJSONHTTPClient(defaultTimeout)
}

func NewWithTimeout(timeout time.Duration) HTTPSender {
	return newJSONHTTPClient(timeout)
}
