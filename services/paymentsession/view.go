package paymentsession

import (
	"net/http"
	"time"

	formcodec "github.com/go-playground/form/v4"
	"github.com/gorilla/mux"

	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
)

// ViewState is everything the payment screen renders.
type ViewState struct {
	Loading    bool
	Error      error
	Message    string
	Info       *sessioninfo.SessionInfo
	IsEmbedded bool
	Phase      Phase
	MountID    string
	// ExpiresIn counts down to the server-declared expiry. It is informative only.
	ExpiresIn time.Duration
}

func expiresIn(info *sessioninfo.SessionInfo, now time.Time) time.Duration {
	if info == nil || info.Transaction.ExpiredAt == nil {
		return 0
	}
	remaining := info.Transaction.ExpiredAt.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

type tokenQuery struct {
	Token string `form:"token"`
}

var queryDecoder = formcodec.NewDecoder()

// TokenFromRequest takes the payment token from the {paymentToken} path segment, falling
// back to the token query parameter. The boolean tells whether the token is usable.
func TokenFromRequest(r *http.Request) (string, bool) {
	token := mux.Vars(r)["paymentToken"]
	if token == "" {
		query := tokenQuery{}
		err := queryDecoder.Decode(&query, r.URL.Query())
		if err == nil {
			token = query.Token
		}
	}
	return token, sessioninfo.ValidToken(token)
}
