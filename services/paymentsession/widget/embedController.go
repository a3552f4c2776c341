package widget

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/MarcGrol/paymentsession/lib/mylog"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessionerrors"
)

// EmbedController embeds the checkout form once per checkout token into one mount point.
// It remembers the last embedded token; it is owned by a single session and not safe for
// concurrent use.
type EmbedController struct {
	doc          Document
	mountID      string
	logger       mylog.Logger
	lastEmbedded string
}

func NewEmbedController(doc Document, mountID string, logger mylog.Logger) *EmbedController {
	return &EmbedController{
		doc:     doc,
		mountID: mountID,
		logger:  logger,
	}
}

func (e *EmbedController) MountID() string {
	return e.mountID
}

func (e *EmbedController) LastEmbedded() string {
	return e.lastEmbedded
}

// Embed renders the checkout form for the token. It reports false without side effects
// when the token was already embedded. The returned channel delivers the first outcome
// the form reports; later callbacks are dropped.
func (e *EmbedController) Embed(c context.Context, handle Handle, checkoutToken string) (<-chan Outcome, bool, error) {
	if checkoutToken == "" || checkoutToken == e.lastEmbedded {
		return nil, false, nil
	}

	if handle == nil || !handle.CanEmbed() {
		embedsTotal.WithLabelValues("not_ready").Inc()
		return nil, false, sessionerrors.NewWidgetNotReadyError(errors.New("widget exposes no embed function"))
	}

	mount, found := e.doc.Mount(e.mountID)
	if !found {
		embedsTotal.WithLabelValues("not_ready").Inc()
		return nil, false, sessionerrors.NewWidgetNotReadyError(fmt.Errorf("mount point %s not found", e.mountID))
	}

	// Marked before the call: a failing embed is not repeated for the same token.
	e.lastEmbedded = checkoutToken
	mount.Clear()

	outcome := newSingleOutcome()
	err := handle.Embed(checkoutToken, EmbedOptions{
		EmbedID:   e.mountID,
		OnSuccess: func() { outcome.resolve(OutcomeSuccess) },
		OnPending: func() { outcome.resolve(OutcomePending) },
		OnError:   func() { outcome.resolve(OutcomeError) },
		OnClose:   func() { outcome.resolve(OutcomeClose) },
	})
	if err != nil {
		embedsTotal.WithLabelValues("failed").Inc()
		return nil, false, sessionerrors.NewWidgetNotReadyError(fmt.Errorf("error embedding checkout %s: %w", checkoutToken, err))
	}

	embedsTotal.WithLabelValues("embedded").Inc()
	e.logger.Log(c, checkoutToken, mylog.SeverityInfo, "Embedded checkout %s into %s", checkoutToken, e.mountID)

	return outcome.ch, true, nil
}

type singleOutcome struct {
	once sync.Once
	ch   chan Outcome
}

func newSingleOutcome() *singleOutcome {
	return &singleOutcome{
		ch: make(chan Outcome, 1),
	}
}

func (o *singleOutcome) resolve(outcome Outcome) {
	o.once.Do(func() {
		o.ch <- outcome
	})
}
