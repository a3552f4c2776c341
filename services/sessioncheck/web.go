// Package sessioncheck runs a headless payment session for a token and reports where it
// ended up, to check a payment end to end without a browser.
package sessioncheck

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/MarcGrol/paymentsession/lib/mycontext"
	"github.com/MarcGrol/paymentsession/lib/myhttp"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/services/paymentsession"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget/widgettest"
)

const defaultTimeout = 5 * time.Second

type Response struct {
	Phase            paymentsession.Phase     `json:"phase"`
	Loading          bool                     `json:"loading"`
	Message          string                   `json:"message,omitempty"`
	Error            string                   `json:"error,omitempty"`
	IsEmbedded       bool                     `json:"isEmbedded"`
	MountID          string                   `json:"mountId"`
	ExpiresIn        string                   `json:"expiresIn,omitempty"`
	Info             *sessioninfo.SessionInfo `json:"info,omitempty"`
	RedirectTarget   string                   `json:"redirectTarget,omitempty"`
	ScriptInjections int                      `json:"scriptInjections"`
	EmbedCalls       []string                 `json:"embedCalls"`
}

type webService struct {
	logger  mylog.Logger
	cfg     paymentsession.Config
	fetcher sessioninfo.Fetcher
	timeout time.Duration
}

// Use dependency injection to isolate the infrastructure and easy testing
func NewWebService(cfg paymentsession.Config, fetcher sessioninfo.Fetcher) *webService {
	// the check reports the redirect instead of waiting for it
	cfg.RedirectDelay = 0

	return &webService{
		logger:  mylog.New("sessioncheck"),
		cfg:     cfg,
		fetcher: fetcher,
		timeout: defaultTimeout,
	}
}

func (s *webService) RegisterEndpoints(c context.Context, router *mux.Router) error {
	router.HandleFunc("/check/payments/{paymentToken}", s.check()).Methods("GET")
	router.HandleFunc("/check", s.check()).Methods("GET")

	return nil
}

func (s *webService) check() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := mycontext.ContextFromHTTPRequest(r)
		responseWriter := myhttp.NewWriter(s.logger)

		token, _ := paymentsession.TokenFromRequest(r)

		resp := s.run(c, token)

		s.logger.Log(c, token, mylog.SeverityInfo, "Check of payment %s ended in phase %s", token, resp.Phase)
		responseWriter.Write(c, w, http.StatusOK, resp)
	}
}

func (s *webService) run(c context.Context, token string) Response {
	doc := widgettest.NewDocument(s.cfg.MountID)
	doc.AutoLoad = true
	navigator := &recordingNavigator{}

	session := paymentsession.New(s.cfg, paymentsession.Dependencies{
		Fetcher:   s.fetcher,
		Loader:    widget.NewScriptLoader(widget.ScriptID, s.logger),
		Document:  doc,
		Navigator: navigator,
		Logger:    s.logger,
	})
	defer session.Close()

	settled := make(chan struct{}, 1)
	session.OnChange(func(view paymentsession.ViewState) {
		if view.Phase == paymentsession.PhaseEmbedded || view.Phase.IsTerminal() {
			select {
			case settled <- struct{}{}:
			default:
			}
		}
	})
	session.Start(token)

	select {
	case <-settled:
	case <-time.After(s.timeout):
		s.logger.Log(c, token, mylog.SeverityWarn, "Check of payment %s timed out", token)
	case <-c.Done():
	}

	view := session.View()
	resp := Response{
		Phase:            view.Phase,
		Loading:          view.Loading,
		Message:          view.Message,
		IsEmbedded:       view.IsEmbedded,
		MountID:          view.MountID,
		Info:             view.Info,
		RedirectTarget:   navigator.Target(),
		ScriptInjections: doc.InjectionCount(),
		EmbedCalls:       doc.Widget.EmbedCalls(),
	}
	if view.Error != nil {
		resp.Error = view.Error.Error()
	}
	if view.ExpiresIn > 0 {
		resp.ExpiresIn = view.ExpiresIn.Round(time.Second).String()
	}
	return resp
}

type recordingNavigator struct {
	sync.Mutex
	target string
}

func (n *recordingNavigator) Replace(target string) {
	n.Lock()
	defer n.Unlock()

	n.target = target
}

func (n *recordingNavigator) Target() string {
	n.Lock()
	defer n.Unlock()

	return n.target
}
