// Package widget loads the third-party checkout script into the host page and embeds the
// checkout form into it.
package widget

const (
	// ScriptID identifies the single widget script element of a page.
	ScriptID = "payment-widget-script"
	// MountID is the default element the checkout form is embedded into.
	MountID = "payment-widget-mount"

	ClientKeyAttribute = "data-client-key"
)

type ScriptElement struct {
	ID         string
	Src        string
	Attributes map[string]string
}

// Document is the host page. Implementations bridge to a real DOM or simulate one.
type Document interface {
	// InjectScript appends the element and calls onLoad exactly once, with nil when the
	// script executed and with the failure otherwise. onLoad may run on any goroutine.
	InjectScript(element ScriptElement, onLoad func(err error))
	RemoveScript(id string)
	// Global returns the handle the widget script exposes once it executed.
	Global() (Handle, bool)
	Mount(id string) (MountPoint, bool)
}

type MountPoint interface {
	Clear()
}

//go:generate mockgen -source=api.go -package widget -destination handle_mock.go Handle
type Handle interface {
	// CanEmbed reports whether the embed function is callable yet.
	CanEmbed() bool
	Embed(checkoutToken string, options EmbedOptions) error
}

type EmbedOptions struct {
	EmbedID   string
	OnSuccess func()
	OnPending func()
	OnError   func()
	OnClose   func()
}

// Outcome is the single result one embedded checkout form reports.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeError   Outcome = "error"
	OutcomeClose   Outcome = "close"
)
