package paymentsession

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/MarcGrol/paymentsession/services/paymentsession/redirect"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget"
)

type Config struct {
	// BackendBaseURL is the prefix of GET /payments/{paymentToken}.
	BackendBaseURL string
	MountID        string
	StatusPath     string
	// RedirectDelay postpones navigation after a redirect was decided; zero navigates at once.
	RedirectDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		BackendBaseURL: "http://localhost:8080/api",
		MountID:        widget.MountID,
		StatusPath:     redirect.DefaultStatusPath,
	}
}

func ConfigFromEnv() (Config, error) {
	c := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("PAYMENT_BACKEND_URL")); v != "" {
		c.BackendBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("PAYMENT_MOUNT_ID")); v != "" {
		c.MountID = v
	}
	if v := strings.TrimSpace(os.Getenv("PAYMENT_STATUS_PATH")); v != "" {
		c.StatusPath = v
	}
	if v := strings.TrimSpace(os.Getenv("PAYMENT_REDIRECT_DELAY")); v != "" {
		delay, err := time.ParseDuration(v)
		if err != nil {
			return c, fmt.Errorf("PAYMENT_REDIRECT_DELAY is invalid: %w", err)
		}
		if delay < 0 {
			return c, fmt.Errorf("PAYMENT_REDIRECT_DELAY is negative: %s", v)
		}
		c.RedirectDelay = delay
	}

	return c, nil
}
