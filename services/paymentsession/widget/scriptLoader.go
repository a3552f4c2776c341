package widget

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessionerrors"
)

type slotState int

const (
	slotAbsent slotState = iota
	slotPending
	slotLoaded
)

type loadResult struct {
	handle Handle
	err    error
}

// ScriptLoader guards the one widget script slot of a page. Requests arriving while the
// script loads are parked as observers of that load instead of injecting again.
type ScriptLoader struct {
	scriptID string
	logger   mylog.Logger
	tracer   trace.Tracer

	mu      sync.Mutex
	state   slotState
	src     string
	waiters []chan loadResult
}

var sharedLoader = NewScriptLoader(ScriptID, mylog.New("widget"))

// SharedLoader returns the process-wide loader; a page hosts one payment session at a time.
func SharedLoader() *ScriptLoader {
	return sharedLoader
}

func NewScriptLoader(scriptID string, logger mylog.Logger) *ScriptLoader {
	return &ScriptLoader{
		scriptID: scriptID,
		logger:   logger,
		tracer:   otel.Tracer("paymentsession/widget"),
	}
}

// Load makes sure the widget script is present and executed and returns the handle it
// exposes. It is safe to call repeatedly and concurrently.
func (l *ScriptLoader) Load(c context.Context, doc Document, scriptURL string, clientKey string) (Handle, error) {
	if scriptURL == "" || clientKey == "" {
		return nil, sessionerrors.NewScriptLoadError(errors.New("widget script url or client key missing"))
	}

	c, span := l.tracer.Start(c, "widget.LoadScript", trace.WithAttributes(attribute.String("widget.script_url", scriptURL)))
	defer span.End()

	l.mu.Lock()
	if handle, found := doc.Global(); found {
		l.state = slotLoaded
		l.mu.Unlock()
		scriptLoadsTotal.WithLabelValues("present").Inc()
		return handle, nil
	}

	if l.state == slotLoaded {
		l.mu.Unlock()
		scriptLoadsTotal.WithLabelValues("not_ready").Inc()
		return nil, sessionerrors.NewWidgetNotReadyError(errors.New("widget script loaded but exposes no widget"))
	}

	if l.state == slotPending && l.src != scriptURL {
		// One script per page: the pending script wins.
		l.logger.Log(c, clientKey, mylog.SeverityWarn, "Widget script %s requested while %s is loading: reusing the latter", scriptURL, l.src)
	}

	waiter := make(chan loadResult, 1)
	l.waiters = append(l.waiters, waiter)

	inject := l.state == slotAbsent
	if inject {
		l.state = slotPending
		l.src = scriptURL
	}
	l.mu.Unlock()

	if inject {
		scriptInjectionsTotal.Inc()
		scriptLoadsTotal.WithLabelValues("injected").Inc()
		l.logger.Log(c, clientKey, mylog.SeverityInfo, "Injecting widget script %s", scriptURL)

		doc.InjectScript(ScriptElement{
			ID:         l.scriptID,
			Src:        scriptURL,
			Attributes: map[string]string{ClientKeyAttribute: clientKey},
		}, func(err error) {
			l.settle(c, doc, err)
		})
	} else {
		scriptLoadsTotal.WithLabelValues("attached").Inc()
	}

	select {
	case result := <-waiter:
		if result.err != nil {
			span.RecordError(result.err)
		}
		return result.handle, result.err
	case <-c.Done():
		return nil, sessionerrors.NewScriptLoadError(c.Err())
	}
}

// settle resolves every parked observer with the outcome of the one load.
func (l *ScriptLoader) settle(c context.Context, doc Document, loadErr error) {
	result := loadResult{}

	l.mu.Lock()
	switch {
	case loadErr != nil:
		// A failed element is removed so an explicit retry can inject again.
		doc.RemoveScript(l.scriptID)
		l.state = slotAbsent
		l.src = ""
		result.err = sessionerrors.NewScriptLoadError(loadErr)
	default:
		l.state = slotLoaded
		handle, found := doc.Global()
		if found {
			result.handle = handle
		} else {
			result.err = sessionerrors.NewWidgetNotReadyError(errors.New("widget script loaded but exposes no widget"))
		}
	}
	waiters := l.waiters
	l.waiters = nil
	l.mu.Unlock()

	if loadErr != nil {
		l.logger.Log(c, l.scriptID, mylog.SeverityError, "Widget script failed to load: %s", loadErr)
	} else {
		l.logger.Log(c, l.scriptID, mylog.SeverityInfo, "Widget script loaded (%d waiting)", len(waiters))
	}

	for _, waiter := range waiters {
		waiter <- result
	}
}
