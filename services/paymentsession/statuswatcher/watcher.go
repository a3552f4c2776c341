// Package statuswatcher turns server-reported transaction statuses into redirects.
package statuswatcher

import (
	"github.com/MarcGrol/paymentsession/services/paymentsession/redirect"
	"github.com/MarcGrol/paymentsession/services/paymentsession/sessioninfo"
)

// Watcher remembers the last observed status of one payment. The zero value is ready to use
// and treats the first observation as a change. Not safe for concurrent use.
type Watcher struct {
	last     sessioninfo.Status
	observed bool
}

func New() *Watcher {
	return &Watcher{}
}

// Observe reports the redirect result when the status changed to a terminal value.
func (w *Watcher) Observe(status sessioninfo.Status) (redirect.Result, bool) {
	changed := !w.observed || status != w.last
	w.last = status
	w.observed = true

	if !changed {
		return "", false
	}
	return ResultFor(status)
}

// Reset forgets the observed status, so the next observation counts as a change.
func (w *Watcher) Reset() {
	w.last = ""
	w.observed = false
}

func ResultFor(status sessioninfo.Status) (redirect.Result, bool) {
	switch status {
	case sessioninfo.StatusSuccess:
		return redirect.ResultSuccess, true
	case sessioninfo.StatusFailed:
		return redirect.ResultFailed, true
	case sessioninfo.StatusExpired:
		return redirect.ResultExpired, true
	default:
		return "", false
	}
}
