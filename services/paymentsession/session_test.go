package paymentsession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/MarcGrol/paymentsession/lib/myhttpclient"
	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/lib/mytime"
	"github.com/MarcGrol/paymentsession/services/paymentsession/redirect"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessionerrors"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget"
	"github.com/MarcGrol/paymentsession/services/paymentsession/widget/widgettest"
)

const waitFor = 2 * time.Second

func TestSession(t *testing.T) {
	t.Run("Pending payment is embedded once", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)

		// setup
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		// given
		fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).Return(pendingInfo(), nil)

		// when
		fx.sut.Start("abc123")

		// then
		view := waitForPhase(t, fx.sut, PhaseEmbedded)
		assert.False(t, view.Loading)
		assert.NoError(t, view.Error)
		assert.True(t, view.IsEmbedded)
		assert.Equal(t, widget.MountID, view.MountID)
		assert.Equal(t, "snap-1", view.Info.Transaction.CheckoutToken)
		assert.Equal(t, time.Hour, view.ExpiresIn)

		assert.Equal(t, 1, fx.doc.InjectionCount())
		assert.Equal(t, []string{"snap-1"}, fx.doc.Widget.EmbedCalls())
		assert.Equal(t, widget.MountID, fx.doc.Widget.LastEmbedID())
		assert.Equal(t, 1, fx.doc.MountPoint(widget.MountID).Clears())
	})

	t.Run("Silent refresh leaves the loading flag alone", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		refreshed := pendingInfo()
		refreshed.Transaction.Amount = 9900
		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).Return(pendingInfo(), nil),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123", Silent: true}).Return(refreshed, nil),
		)
		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseEmbedded)

		loadingSeen := atomic.Bool{}
		fx.sut.OnChange(func(view ViewState) {
			if view.Loading {
				loadingSeen.Store(true)
			}
		})

		// when
		fx.sut.Refresh()

		// then
		require.Eventually(t, func() bool {
			info := fx.sut.View().Info
			return info != nil && info.Transaction.Amount == 9900
		}, waitFor, time.Millisecond)
		assert.False(t, loadingSeen.Load())
		assert.False(t, fx.sut.View().Loading)
		assert.Equal(t, []string{"snap-1"}, fx.doc.Widget.EmbedCalls())
		assert.Equal(t, 1, fx.doc.InjectionCount())
	})

	t.Run("Status change to success redirects once", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		succeeded := pendingInfo()
		succeeded.Transaction.Status = sessioninfo.StatusSuccess
		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(succeeded, nil),
		)
		fx.navigator.EXPECT().Replace("/payment-status?order_id=order-1&result=success").Times(1)

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseEmbedded)

		// when
		fx.sut.Refresh()

		// then
		waitForPhase(t, fx.sut, PhaseRedirecting)

		// ignored once redirecting
		fx.sut.Refresh()
		fx.doc.Widget.Succeed()
	})

	t.Run("Widget close and expired status redirect exactly once", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		expired := pendingInfo()
		expired.Transaction.Status = sessioninfo.StatusExpired
		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).DoAndReturn(func(c context.Context, req sessioninfo.Request) (sessioninfo.SessionInfo, error) {
				// the shopper dismisses the form while the backend reports expiry
				fx.doc.Widget.Close()
				return expired, nil
			}),
		)
		fx.navigator.EXPECT().Replace(gomock.Any()).Times(1)

		navigated := redirectCount("navigated")
		ignored := redirectCount("ignored")

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseEmbedded)

		// when
		fx.sut.Refresh()

		// then
		waitForPhase(t, fx.sut, PhaseRedirecting)
		require.Eventually(t, func() bool {
			return redirectCount("navigated") == navigated+1 && redirectCount("ignored") == ignored+1
		}, waitFor, time.Millisecond)
	})

	t.Run("Token change hides the result of the previous token", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		infoB := pendingInfo()
		infoB.Transaction.OrderID = "order-B"
		infoB.Transaction.CheckoutToken = "snap-B"

		fetchingA := make(chan struct{})
		releaseA := make(chan struct{})
		fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "A"}).DoAndReturn(func(c context.Context, req sessioninfo.Request) (sessioninfo.SessionInfo, error) {
			close(fetchingA)
			<-releaseA
			return pendingInfo(), nil
		})
		fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "B"}).Return(infoB, nil)

		stale := testutil.ToFloat64(staleResultsTotal.WithLabelValues("fetch"))

		// when
		fx.sut.Start("A")
		<-fetchingA
		fx.sut.Start("B")
		waitForPhase(t, fx.sut, PhaseEmbedded)
		close(releaseA)

		// then
		require.Eventually(t, func() bool {
			return testutil.ToFloat64(staleResultsTotal.WithLabelValues("fetch")) == stale+1
		}, waitFor, time.Millisecond)
		view := fx.sut.View()
		assert.Equal(t, PhaseEmbedded, view.Phase)
		assert.Equal(t, "order-B", view.Info.Transaction.OrderID)
		assert.Equal(t, []string{"snap-B"}, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Returning to a token with a read still in flight", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)

		// setup
		sender := myhttpclient.NewMockHTTPSender(ctrl)
		fx := setupWithFetcher(t, ctrl, DefaultConfig(), sessioninfo.NewFetcher("http://backend/api", sender, mylog.New("sessioninfo")))
		defer fx.sut.Close()

		infoA := pendingInfo()
		infoA.Transaction.OrderID = "order-A"
		infoA.Transaction.CheckoutToken = "snap-A"
		infoB := pendingInfo()
		infoB.Transaction.OrderID = "order-B"
		infoB.Transaction.CheckoutToken = "snap-B"

		// given
		fetchingA := make(chan struct{})
		releaseA := make(chan struct{})
		var once sync.Once
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, "http://backend/api/payments/A", nil).DoAndReturn(
			func(c context.Context, method string, url string, body []byte) (int, []byte, error) {
				once.Do(func() { close(fetchingA) })
				select {
				case <-releaseA:
					return http.StatusOK, paymentJSON(t, infoA), nil
				case <-c.Done():
					return 0, nil, c.Err()
				}
			}).MinTimes(1)
		sender.EXPECT().Send(gomock.Any(), http.MethodGet, "http://backend/api/payments/B", nil).Return(http.StatusOK, paymentJSON(t, infoB), nil)

		fx.sut.Start("A")
		<-fetchingA
		fx.sut.Start("B")
		view := waitForPhase(t, fx.sut, PhaseEmbedded)
		assert.Equal(t, "order-B", view.Info.Transaction.OrderID)

		// when
		fx.sut.Start("A")
		waitForPhase(t, fx.sut, PhaseFetchingInfo)
		// give the new read the chance to join the one still in flight
		time.Sleep(50 * time.Millisecond)
		close(releaseA)

		// then
		require.Eventually(t, func() bool {
			view := fx.sut.View()
			return view.Phase == PhaseEmbedded && view.Info != nil && view.Info.Transaction.OrderID == "order-A"
		}, waitFor, time.Millisecond, "got %+v", fx.sut.View())
		view = fx.sut.View()
		assert.NoError(t, view.Error)
		assert.Empty(t, view.Message)
		assert.Equal(t, []string{"snap-B", "snap-A"}, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Refresh landing after a script failure still redirects", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()
		fx.doc.AutoLoad = false

		succeeded := pendingInfo()
		succeeded.Transaction.Status = sessioninfo.StatusSuccess

		// given
		refreshing := make(chan struct{})
		releaseRefresh := make(chan struct{})
		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).Return(pendingInfo(), nil),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123", Silent: true}).DoAndReturn(
				func(c context.Context, req sessioninfo.Request) (sessioninfo.SessionInfo, error) {
					close(refreshing)
					<-releaseRefresh
					return succeeded, nil
				}),
		)
		fx.navigator.EXPECT().Replace("/payment-status?order_id=order-1&result=success").Times(1)

		fx.sut.Start("abc123")
		require.Eventually(t, func() bool { return fx.doc.Pending(widget.ScriptID) }, waitFor, time.Millisecond)
		fx.sut.Refresh()
		<-refreshing
		require.NoError(t, fx.doc.FailLoad(widget.ScriptID, fmt.Errorf("cdn down")))
		waitForPhase(t, fx.sut, PhaseScriptError)

		// when
		close(releaseRefresh)

		// then
		view := waitForPhase(t, fx.sut, PhaseRedirecting)
		assert.False(t, view.Loading)
		assert.Equal(t, sessioninfo.StatusSuccess, view.Info.Transaction.Status)
		assert.Empty(t, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Refresh landing after a retry is dropped", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()
		fx.doc.AutoLoad = false

		refreshed := pendingInfo()
		refreshed.Transaction.Amount = 9900

		// given
		refreshing := make(chan struct{})
		releaseRefresh := make(chan struct{})
		retrying := make(chan struct{})
		releaseRetry := make(chan struct{})
		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).Return(pendingInfo(), nil),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123", Silent: true}).DoAndReturn(
				func(c context.Context, req sessioninfo.Request) (sessioninfo.SessionInfo, error) {
					close(refreshing)
					<-releaseRefresh
					return refreshed, nil
				}),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).DoAndReturn(
				func(c context.Context, req sessioninfo.Request) (sessioninfo.SessionInfo, error) {
					close(retrying)
					<-releaseRetry
					return pendingInfo(), nil
				}),
		)

		fx.sut.Start("abc123")
		require.Eventually(t, func() bool { return fx.doc.Pending(widget.ScriptID) }, waitFor, time.Millisecond)
		fx.sut.Refresh()
		<-refreshing
		require.NoError(t, fx.doc.FailLoad(widget.ScriptID, fmt.Errorf("cdn down")))
		waitForPhase(t, fx.sut, PhaseScriptError)
		fx.sut.Retry()
		<-retrying

		stale := testutil.ToFloat64(staleResultsTotal.WithLabelValues("fetch"))

		// when
		close(releaseRefresh)

		// then
		require.Eventually(t, func() bool {
			return testutil.ToFloat64(staleResultsTotal.WithLabelValues("fetch")) == stale+1
		}, waitFor, time.Millisecond)
		view := fx.sut.View()
		assert.Equal(t, PhaseFetchingInfo, view.Phase)
		assert.True(t, view.Loading)
		assert.Equal(t, int64(12300), view.Info.Transaction.Amount)

		close(releaseRetry)
		require.Eventually(t, func() bool { return fx.doc.Pending(widget.ScriptID) }, waitFor, time.Millisecond)
		require.NoError(t, fx.doc.FinishLoad(widget.ScriptID))
		view = waitForPhase(t, fx.sut, PhaseEmbedded)
		assert.False(t, view.Loading)
		assert.Equal(t, 2, fx.doc.InjectionCount())
		assert.Equal(t, []string{"snap-1"}, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Invalid token fails without fetching", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		fx.sut.Start("")

		view := waitForPhase(t, fx.sut, PhaseInfoError)
		assert.Equal(t, sessionerrors.KindTokenMissing, sessionerrors.KindOf(view.Error))
		assert.Equal(t, "Payment token not found.", view.Message)
		assert.False(t, view.Loading)
		assert.Equal(t, 0, fx.doc.InjectionCount())
	})

	t.Run("Backend rejection stops until retried", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		gomock.InOrder(
			fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(sessioninfo.SessionInfo{},
				sessionerrors.NewBackendRejectedError("Payment not found", true, fmt.Errorf("http status 404"))),
			fx.fetcher.EXPECT().Fetch(gomock.Any(), sessioninfo.Request{Token: "abc123"}).Return(pendingInfo(), nil),
		)

		fx.sut.Start("abc123")
		view := waitForPhase(t, fx.sut, PhaseInfoError)
		assert.Equal(t, "Payment not found", view.Message)
		assert.Equal(t, sessionerrors.KindBackendRejected, sessionerrors.KindOf(view.Error))

		// when
		fx.sut.Retry()

		// then
		view = waitForPhase(t, fx.sut, PhaseEmbedded)
		assert.Empty(t, view.Message)
		assert.NoError(t, view.Error)
	})

	t.Run("Failed script is injected again on retry", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()
		fx.doc.AutoLoad = false

		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil).Times(2)

		fx.sut.Start("abc123")
		require.Eventually(t, func() bool { return fx.doc.Pending(widget.ScriptID) }, waitFor, time.Millisecond)
		require.NoError(t, fx.doc.FailLoad(widget.ScriptID, fmt.Errorf("cdn down")))

		view := waitForPhase(t, fx.sut, PhaseScriptError)
		assert.Equal(t, sessionerrors.KindScriptLoadError, sessionerrors.KindOf(view.Error))
		assert.Contains(t, view.Message, "Check your connection")

		// when
		fx.sut.Retry()
		require.Eventually(t, func() bool { return fx.doc.Pending(widget.ScriptID) }, waitFor, time.Millisecond)
		require.NoError(t, fx.doc.FinishLoad(widget.ScriptID))

		// then
		waitForPhase(t, fx.sut, PhaseEmbedded)
		assert.Equal(t, 2, fx.doc.InjectionCount())
		assert.Equal(t, []string{"snap-1"}, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Widget without embed function is reported", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()
		fx.doc.Widget.NotReady = true

		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil)

		fx.sut.Start("abc123")

		view := waitForPhase(t, fx.sut, PhaseScriptError)
		assert.Equal(t, sessionerrors.KindWidgetNotReady, sessionerrors.KindOf(view.Error))
		assert.Contains(t, view.Message, "reload the page")
		assert.False(t, view.IsEmbedded)
		assert.Empty(t, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Failed embed is not repeated on retry", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()
		fx.doc.Widget.EmbedErr = fmt.Errorf("embed crashed")

		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil).Times(2)

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseScriptError)

		failedAgain := atomic.Bool{}
		fx.sut.OnChange(func(view ViewState) {
			if view.Phase == PhaseScriptError {
				failedAgain.Store(true)
			}
		})

		// when
		fx.sut.Retry()

		// then
		require.Eventually(t, failedAgain.Load, waitFor, time.Millisecond)
		assert.Equal(t, sessionerrors.KindWidgetNotReady, sessionerrors.KindOf(fx.sut.View().Error))
		assert.Equal(t, []string{"snap-1"}, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Widget outcomes redirect with their result", func(t *testing.T) {
		for outcome, fire := range map[redirect.Result]func(*widgettest.Handle){
			redirect.ResultSuccess: (*widgettest.Handle).Succeed,
			redirect.ResultPending: (*widgettest.Handle).Pend,
			redirect.ResultError:   (*widgettest.Handle).Fail,
			redirect.ResultClose:   (*widgettest.Handle).Close,
		} {
			t.Run(string(outcome), func(t *testing.T) {
				defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
				ctrl := gomock.NewController(t)
				fx := setup(t, ctrl, DefaultConfig())
				defer fx.sut.Close()

				fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil)
				fx.navigator.EXPECT().Replace("/payment-status?order_id=order-1&result=" + string(outcome))

				fx.sut.Start("abc123")
				waitForPhase(t, fx.sut, PhaseEmbedded)

				fire(fx.doc.Widget)

				waitForPhase(t, fx.sut, PhaseRedirecting)
			})
		}
	})

	t.Run("Missing order id shows a message instead of navigating", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		withoutOrder := pendingInfo()
		withoutOrder.Transaction.OrderID = ""
		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(withoutOrder, nil)

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseEmbedded)

		// when
		fx.doc.Widget.Succeed()

		// then
		require.Eventually(t, func() bool { return fx.sut.View().Message != "" }, waitFor, time.Millisecond)
		view := fx.sut.View()
		assert.Equal(t, PhaseEmbedded, view.Phase)
		assert.Contains(t, view.Message, "success")
	})

	t.Run("Terminal status without order id skips the widget", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		succeeded := pendingInfo()
		succeeded.Transaction.OrderID = ""
		succeeded.Transaction.Status = sessioninfo.StatusSuccess
		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(succeeded, nil)

		// when
		fx.sut.Start("abc123")

		// then
		require.Eventually(t, func() bool { return fx.sut.View().Message != "" }, waitFor, time.Millisecond)
		view := fx.sut.View()
		assert.Equal(t, PhaseInfoReady, view.Phase)
		assert.Contains(t, view.Message, "success")
		assert.Equal(t, 0, fx.doc.InjectionCount())
		assert.Empty(t, fx.doc.Widget.EmbedCalls())
	})

	t.Run("Terminal status on first fetch skips the widget", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		failed := pendingInfo()
		failed.Transaction.Status = sessioninfo.StatusFailed
		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(failed, nil)
		fx.navigator.EXPECT().Replace("/payment-status?order_id=order-1&result=failed")

		fx.sut.Start("abc123")

		waitForPhase(t, fx.sut, PhaseRedirecting)
		assert.Equal(t, 0, fx.doc.InjectionCount())
	})

	t.Run("Delayed redirect navigates later", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		cfg := DefaultConfig()
		cfg.RedirectDelay = 20 * time.Millisecond
		fx := setup(t, ctrl, cfg)
		defer fx.sut.Close()

		succeeded := pendingInfo()
		succeeded.Transaction.Status = sessioninfo.StatusSuccess
		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(succeeded, nil)
		navigated := make(chan string, 1)
		fx.navigator.EXPECT().Replace(gomock.Any()).Do(func(target string) { navigated <- target })

		fx.sut.Start("abc123")

		select {
		case target := <-navigated:
			assert.Equal(t, "/payment-status?order_id=order-1&result=success", target)
		case <-time.After(waitFor):
			t.Fatal("no navigation")
		}
	})

	t.Run("Close cancels a delayed redirect", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		cfg := DefaultConfig()
		cfg.RedirectDelay = time.Hour
		fx := setup(t, ctrl, cfg)

		succeeded := pendingInfo()
		succeeded.Transaction.Status = sessioninfo.StatusSuccess
		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(succeeded, nil)

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseRedirecting)

		// when
		fx.sut.Close()
		fx.sut.Close()

		// then no navigation is expected by the mock
	})

	t.Run("Listeners follow the lifecycle", func(t *testing.T) {
		defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
		ctrl := gomock.NewController(t)
		fx := setup(t, ctrl, DefaultConfig())
		defer fx.sut.Close()

		fx.fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(pendingInfo(), nil)

		mu := sync.Mutex{}
		phases := []Phase{}
		fx.sut.OnChange(func(view ViewState) {
			mu.Lock()
			defer mu.Unlock()
			phases = append(phases, view.Phase)
		})

		fx.sut.Start("abc123")
		waitForPhase(t, fx.sut, PhaseEmbedded)

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, PhaseFetchingInfo, phases[0])
		assert.Equal(t, PhaseEmbedded, phases[len(phases)-1])
	})
}

type fixture struct {
	fetcher   *sessioninfo.MockFetcher
	navigator *redirect.MockNavigator
	doc       *widgettest.Document
	sut       *Session
}

func setup(t *testing.T, ctrl *gomock.Controller, cfg Config) *fixture {
	t.Helper()

	fetcher := sessioninfo.NewMockFetcher(ctrl)
	fx := setupWithFetcher(t, ctrl, cfg, fetcher)
	fx.fetcher = fetcher
	return fx
}

func setupWithFetcher(t *testing.T, ctrl *gomock.Controller, cfg Config, fetcher sessioninfo.Fetcher) *fixture {
	t.Helper()

	doc := widgettest.NewDocument(widget.MountID)
	doc.AutoLoad = true

	nower := mytime.NewMockNower(ctrl)
	nower.EXPECT().Now().Return(mytime.ExampleTime).AnyTimes()

	fx := &fixture{
		navigator: redirect.NewMockNavigator(ctrl),
		doc:       doc,
	}
	fx.sut = New(cfg, Dependencies{
		Fetcher:   fetcher,
		Loader:    widget.NewScriptLoader(widget.ScriptID, mylog.New("widget")),
		Document:  doc,
		Navigator: fx.navigator,
		Nower:     nower,
		Logger:    mylog.New("paymentsession"),
	})
	return fx
}

func pendingInfo() sessioninfo.SessionInfo {
	expiredAt := mytime.ExampleTime.Add(time.Hour)
	return sessioninfo.SessionInfo{
		Payment: sessioninfo.Payment{
			ClientKey:       "CK",
			WidgetScriptURL: "https://cdn/widget.js",
		},
		Transaction: sessioninfo.Transaction{
			OrderID:       "order-1",
			Amount:        12300,
			Status:        sessioninfo.StatusPending,
			ExpiredAt:     &expiredAt,
			CheckoutToken: "snap-1",
		},
	}
}

func paymentJSON(t *testing.T, info sessioninfo.SessionInfo) []byte {
	body, err := json.Marshal(sessioninfo.Response{Success: true, Data: &info})
	require.NoError(t, err)
	return body
}

func waitForPhase(t *testing.T, sut *Session, phase Phase) ViewState {
	t.Helper()

	require.Eventually(t, func() bool {
		return sut.View().Phase == phase
	}, waitFor, time.Millisecond, "phase %s not reached, got %s", phase, sut.View().Phase)
	return sut.View()
}

func redirectCount(decision string) float64 {
	total := 0.0
	for _, labels := range [][]string{
		{string(redirect.ResultClose), sourceWidget, decision},
		{string(redirect.ResultExpired), sourceStatus, decision},
	} {
		total += testutil.ToFloat64(redirectsTotal.WithLabelValues(labels...))
	}
	return total
}
