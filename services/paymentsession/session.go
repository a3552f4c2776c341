// Package paymentsession drives one checkout transaction on the payment screen: it fetches
// the payment, loads the checkout widget, embeds it and leaves for the status page once
// the payment finished.
package paymentsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/lib/mytime"
	"github.com/MarcGrol/paymentsession/services/paymentsession/redirect"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessionerrors"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
	"github.com/MarcGrol/paymentsession/services/paymentsession/statuswatcher"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget"
)

const (
	sourceStatus = "status"
	sourceWidget = "widget"
)

type ScriptLoader interface {
	Load(c context.Context, doc widget.Document, scriptURL string, clientKey string) (widget.Handle, error)
}

type Dependencies struct {
	Fetcher   sessioninfo.Fetcher
	Loader    ScriptLoader // defaults to the process-wide loader
	Document  widget.Document
	Navigator redirect.Navigator
	Nower     mytime.Nower
	Logger    mylog.Logger
}

// Session owns the lifecycle of the payment screen. All state is mutated by one event loop
// goroutine; asynchronous work posts its result back to that loop.
type Session struct {
	cfg       Config
	fetcher   sessioninfo.Fetcher
	loader    ScriptLoader
	doc       widget.Document
	navigator redirect.Navigator
	nower     mytime.Nower
	logger    mylog.Logger

	events    chan func()
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	workers   sync.WaitGroup

	// owned by the event loop
	token         string
	epoch         uint64
	epochCtx      context.Context
	epochCancel   context.CancelFunc
	fetchSeq      uint64
	appliedSeq    uint64
	phase         Phase
	loading       bool
	err           error
	message       string
	info          *sessioninfo.SessionInfo
	handle        widget.Handle
	embedder      *widget.EmbedController
	embedded      bool
	embedFailure  error
	watcher       *statuswatcher.Watcher
	latch         *redirect.Latch
	redirectTimer *time.Timer

	viewMu    sync.RWMutex
	view      ViewState
	listeners []func(ViewState)
}

// Use dependency injection to isolate the infrastructure and easy testing
func New(cfg Config, deps Dependencies) *Session {
	if deps.Loader == nil {
		deps.Loader = widget.SharedLoader()
	}
	if deps.Nower == nil {
		deps.Nower = mytime.RealNower{}
	}
	if deps.Logger == nil {
		deps.Logger = mylog.New("paymentsession")
	}
	if cfg.MountID == "" {
		cfg.MountID = widget.MountID
	}
	if cfg.StatusPath == "" {
		cfg.StatusPath = redirect.DefaultStatusPath
	}

	s := &Session{
		cfg:       cfg,
		fetcher:   deps.Fetcher,
		loader:    deps.Loader,
		doc:       deps.Document,
		navigator: deps.Navigator,
		nower:     deps.Nower,
		logger:    deps.Logger,
		events:    make(chan func()),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		phase:     PhaseIdle,
		watcher:   statuswatcher.New(),
		latch:     &redirect.Latch{},
	}
	s.epochCtx, s.epochCancel = context.WithCancel(context.Background())
	s.embedder = widget.NewEmbedController(s.doc, cfg.MountID, s.logger)
	s.view = ViewState{Phase: PhaseIdle, MountID: cfg.MountID}

	go s.run()

	return s
}

// Start activates a payment token, on mount or when the token changed. Everything still in
// flight for a previous token becomes unobservable.
func (s *Session) Start(token string) {
	s.post(func() { s.start(token) })
}

// Refresh refetches the payment without showing a loading indicator.
func (s *Session) Refresh() {
	s.post(s.refresh)
}

// Retry refetches after a failed attempt. A failed widget script is injected again.
func (s *Session) Retry() {
	s.post(s.retry)
}

// Close stops the session: a pending redirect is cancelled and all goroutines are ended.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
	s.workers.Wait()
}

func (s *Session) View() ViewState {
	s.viewMu.RLock()
	defer s.viewMu.RUnlock()

	view := s.view
	view.ExpiresIn = expiresIn(view.Info, s.nower.Now())
	return view
}

// OnChange registers a listener that receives every new view state. Listeners run on the
// session goroutine: they must return quickly and may only call View.
func (s *Session) OnChange(listener func(ViewState)) {
	s.viewMu.Lock()
	defer s.viewMu.Unlock()

	s.listeners = append(s.listeners, listener)
}

func (s *Session) run() {
	defer close(s.done)

	for {
		select {
		case event := <-s.events:
			event()
			s.publish()
		case <-s.quit:
			s.shutdown()
			return
		}
	}
}

// post hands an event to the loop. After Close events are dropped.
func (s *Session) post(event func()) bool {
	select {
	case s.events <- event:
		return true
	case <-s.quit:
		return false
	}
}

func (s *Session) shutdown() {
	s.stopRedirectTimer()
	s.epochCancel()
	s.logger.Log(s.epochCtx, s.token, mylog.SeverityInfo, "Closed payment session in phase %s", s.phase)
}

func (s *Session) start(token string) {
	if token == s.token && s.phase != PhaseIdle {
		s.logger.Log(s.epochCtx, token, mylog.SeverityDebug, "Payment %s already active", token)
		return
	}

	s.reset(token)

	if !sessioninfo.ValidToken(token) {
		s.fail(PhaseInfoError, sessionerrors.NewTokenMissingError())
		return
	}

	s.fetch(false)
}

// reset forgets everything that belonged to the previous token.
func (s *Session) reset(token string) {
	s.stopRedirectTimer()
	s.epochCancel()

	if s.token != "" && s.token != token {
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityInfo, "Payment %s superseded by %s", s.token, token)
	}

	s.token = token
	s.epoch++
	s.epochCtx, s.epochCancel = context.WithCancel(context.Background())
	s.phase = PhaseIdle
	s.loading = false
	s.err = nil
	s.message = ""
	s.info = nil
	s.handle = nil
	s.embedder = widget.NewEmbedController(s.doc, s.cfg.MountID, s.logger)
	s.embedded = false
	s.embedFailure = nil
	s.watcher.Reset()
	s.latch = &redirect.Latch{}
}

func (s *Session) refresh() {
	switch s.phase {
	case PhaseIdle, PhaseFetchingInfo, PhaseRedirecting, PhaseInfoError, PhaseScriptError:
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityDebug, "Refresh ignored in phase %s", s.phase)
		return
	}
	s.fetch(true)
}

func (s *Session) retry() {
	if !s.phase.IsError() {
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityDebug, "Retry ignored in phase %s", s.phase)
		return
	}
	if !sessioninfo.ValidToken(s.token) {
		s.fail(PhaseInfoError, sessionerrors.NewTokenMissingError())
		return
	}

	s.err = nil
	s.message = ""
	s.handle = nil
	s.fetch(false)
}

func (s *Session) fetch(silent bool) {
	if !silent {
		if !s.transition(PhaseFetchingInfo) {
			return
		}
		s.loading = true
	}

	s.fetchSeq++
	epoch, seq, c, token := s.epoch, s.fetchSeq, s.epochCtx, s.token

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()

		info, err := s.fetcher.Fetch(c, sessioninfo.Request{Token: token, Silent: silent})
		s.post(func() { s.fetched(epoch, seq, silent, info, err) })
	}()
}

func (s *Session) fetched(epoch uint64, seq uint64, silent bool, info sessioninfo.SessionInfo, err error) {
	if epoch != s.epoch || seq <= s.appliedSeq {
		staleResultsTotal.WithLabelValues("fetch").Inc()
		return
	}
	s.appliedSeq = seq

	if err != nil {
		if silent {
			s.logger.Log(s.epochCtx, s.token, mylog.SeverityWarn, "Silent refresh of %s failed: %s", s.token, err)
			return
		}
		s.fail(PhaseInfoError, err)
		return
	}

	if silent && s.phase == PhaseFetchingInfo {
		// a retry started after this refresh; its own read decides
		staleResultsTotal.WithLabelValues("fetch").Inc()
		return
	}

	if !silent {
		s.loading = false
	}
	s.info = &info
	if s.phase == PhaseFetchingInfo {
		s.transition(PhaseInfoReady)
	}

	if result, changed := s.watcher.Observe(info.Transaction.Status); changed {
		s.redirect(result, sourceStatus)
	}

	if !info.Transaction.Status.IsTerminal() {
		s.reconcile()
	}
}

// reconcile advances the lifecycle as far as the current data allows.
func (s *Session) reconcile() {
	if s.info == nil || s.phase.IsTerminal() {
		return
	}

	switch s.phase {
	case PhaseInfoReady:
		if s.info.ScriptReady() {
			s.loadScript()
		}
	case PhaseScriptReady, PhaseEmbedded:
		s.embed()
	}
}

func (s *Session) loadScript() {
	if !s.transition(PhaseScriptLoading) {
		return
	}

	epoch, c := s.epoch, s.epochCtx
	scriptURL, clientKey := s.info.Payment.WidgetScriptURL, s.info.Payment.ClientKey

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()

		handle, err := s.loader.Load(c, s.doc, scriptURL, clientKey)
		s.post(func() { s.scriptLoaded(epoch, handle, err) })
	}()
}

func (s *Session) scriptLoaded(epoch uint64, handle widget.Handle, err error) {
	if epoch != s.epoch || s.phase != PhaseScriptLoading {
		staleResultsTotal.WithLabelValues("script").Inc()
		return
	}

	if err != nil {
		s.fail(PhaseScriptError, err)
		return
	}

	s.handle = handle
	s.transition(PhaseScriptReady)
	s.reconcile()
}

func (s *Session) embed() {
	checkoutToken := s.info.Transaction.CheckoutToken
	if checkoutToken == "" || checkoutToken == s.embedder.LastEmbedded() {
		if s.embedFailure != nil && s.phase == PhaseScriptReady {
			// The checkout form of this token failed before; only a reload helps.
			s.fail(PhaseScriptError, s.embedFailure)
		}
		return
	}

	if !s.transition(PhaseEmbedding) {
		return
	}

	outcomes, embedded, err := s.embedder.Embed(s.epochCtx, s.handle, checkoutToken)
	if err != nil {
		s.embedFailure = err
		s.fail(PhaseScriptError, err)
		return
	}
	s.transition(PhaseEmbedded)
	if !embedded {
		return
	}
	s.embedded = true
	s.awaitOutcome(outcomes)
}

func (s *Session) awaitOutcome(outcomes <-chan widget.Outcome) {
	epoch, c := s.epoch, s.epochCtx

	s.workers.Add(1)
	go func() {
		defer s.workers.Done()

		select {
		case outcome := <-outcomes:
			s.post(func() { s.outcomeReported(epoch, outcome) })
		case <-c.Done():
		}
	}()
}

func (s *Session) outcomeReported(epoch uint64, outcome widget.Outcome) {
	if epoch != s.epoch {
		staleResultsTotal.WithLabelValues("outcome").Inc()
		return
	}
	s.logger.Log(s.epochCtx, s.token, mylog.SeverityInfo, "Checkout form of %s reported %s", s.token, outcome)
	s.redirect(redirect.Result(outcome), sourceWidget)
}

// redirect leaves for the status page. Status watcher and widget race for it: the first
// claim of the latch navigates, every later one is dropped.
func (s *Session) redirect(result redirect.Result, source string) {
	if s.latch.Claimed() {
		redirectsTotal.WithLabelValues(string(result), source, "ignored").Inc()
		return
	}

	orderID := ""
	if s.info != nil {
		orderID = s.info.Transaction.OrderID
	}
	target, err := redirect.Target(s.cfg.StatusPath, orderID, result)
	if err != nil {
		redirectsTotal.WithLabelValues(string(result), source, "no_order").Inc()
		s.message = fmt.Sprintf("The payment finished with result '%s', but the order is unknown. Please contact the shop.", result)
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityWarn, "Cannot redirect payment %s (%s from %s): %s", s.token, result, source, err)
		return
	}

	if !canTransition(s.phase, PhaseRedirecting) {
		redirectsTotal.WithLabelValues(string(result), source, "refused").Inc()
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityWarn, "Redirect of payment %s (%s from %s) refused in phase %s", s.token, result, source, s.phase)
		// the next read of the status must report the change again
		s.watcher.Reset()
		return
	}
	if !s.latch.Claim() || !s.transition(PhaseRedirecting) {
		redirectsTotal.WithLabelValues(string(result), source, "ignored").Inc()
		return
	}
	redirectsTotal.WithLabelValues(string(result), source, "navigated").Inc()
	s.loading = false
	s.logger.Log(s.epochCtx, orderID, mylog.SeverityInfo, "Redirecting payment %s to %s (%s)", s.token, target, source)

	if s.cfg.RedirectDelay <= 0 {
		s.navigator.Replace(target)
		return
	}

	epoch := s.epoch
	s.redirectTimer = time.AfterFunc(s.cfg.RedirectDelay, func() {
		s.post(func() {
			if epoch == s.epoch && s.phase == PhaseRedirecting {
				s.navigator.Replace(target)
			}
		})
	})
}

func (s *Session) stopRedirectTimer() {
	if s.redirectTimer != nil {
		s.redirectTimer.Stop()
		s.redirectTimer = nil
	}
}

func (s *Session) fail(phase Phase, err error) {
	s.loading = false
	s.err = err
	s.message = sessionerrors.UserMessageOf(err)
	s.logger.Log(s.epochCtx, s.token, mylog.SeverityError, "Payment %s failed in phase %s: %s", s.token, s.phase, err)
	s.transition(phase)
}

func (s *Session) transition(to Phase) bool {
	from := s.phase
	if !canTransition(from, to) {
		illegalTransitionsTotal.WithLabelValues(string(from), string(to)).Inc()
		s.logger.Log(s.epochCtx, s.token, mylog.SeverityError, "Refused transition %s -> %s", from, to)
		return false
	}
	s.phase = to
	transitionsTotal.WithLabelValues(string(from), string(to)).Inc()
	s.logger.Log(s.epochCtx, s.token, mylog.SeverityDebug, "Transition %s -> %s", from, to)
	return true
}

// publish exposes the loop state to View and the listeners when it changed.
func (s *Session) publish() {
	view := ViewState{
		Loading:    s.loading,
		Error:      s.err,
		Message:    s.message,
		IsEmbedded: s.embedded,
		Phase:      s.phase,
		MountID:    s.embedder.MountID(),
	}
	if s.info != nil {
		info := *s.info
		view.Info = &info
	}

	s.viewMu.Lock()
	changed := !sameView(s.view, view)
	s.view = view
	listeners := s.listeners
	s.viewMu.Unlock()

	if !changed {
		return
	}
	view.ExpiresIn = expiresIn(view.Info, s.nower.Now())
	for _, listener := range listeners {
		listener(view)
	}
}

func sameView(a, b ViewState) bool {
	if a.Loading != b.Loading || a.Error != b.Error || a.Message != b.Message ||
		a.IsEmbedded != b.IsEmbedded || a.Phase != b.Phase || a.MountID != b.MountID {
		return false
	}
	if a.Info == nil || b.Info == nil {
		return a.Info == b.Info
	}
	return *a.Info == *b.Info
}
