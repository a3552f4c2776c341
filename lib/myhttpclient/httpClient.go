package myhttpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type jsonHTTPClient struct {
	client *resty.Client
}

func newJSONHTTPClient(timeout time.Duration) *jsonHTTPClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &jsonHTTPClient{
		client: client,
	}
}

// Send returns the status and raw body of any completed exchange; only transport
// failures are reported as error.
func (c *jsonHTTPClient) Send(ctx context.Context, method string, url string, body []byte) (int, []byte, error) {
	request := c.client.R().SetContext(ctx)
	if len(body) > 0 {
		request = request.SetBody(body)
	}

	resp, err := request.Execute(method, url)
	if err != nil {
		return 0, []byte{}, fmt.Errorf("error sending %s %s: %w", method, url, err)
	}

	return resp.StatusCode(), resp.Body(), nil
}
