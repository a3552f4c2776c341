// Package widgettest provides an in-memory page and checkout widget that behave like their
// browser counterparts, for tests and headless runs.
package widgettest

import (
	"errors"
	"sync"

	"github.com/MarcGrol/paymentsession/services/paymentsession/widget"
)

var ErrScriptNotFound = errors.New("widget script not found")

// Document simulates a page. Script loads complete when FinishLoad or FailLoad is called,
// or immediately when AutoLoad is set.
type Document struct {
	sync.Mutex
	AutoLoad   bool
	Widget     *Handle
	Injections []widget.ScriptElement
	Removals   []string

	scripts map[string]widget.ScriptElement
	onLoads map[string]func(error)
	global  widget.Handle
	mounts  map[string]*MountPoint
}

func NewDocument(mountIDs ...string) *Document {
	d := &Document{
		Widget:  NewHandle(),
		scripts: map[string]widget.ScriptElement{},
		onLoads: map[string]func(error){},
		mounts:  map[string]*MountPoint{},
	}
	for _, id := range mountIDs {
		d.mounts[id] = &MountPoint{}
	}
	return d
}

func (d *Document) InjectScript(element widget.ScriptElement, onLoad func(error)) {
	d.Lock()
	d.Injections = append(d.Injections, element)
	d.scripts[element.ID] = element
	d.onLoads[element.ID] = onLoad
	autoLoad := d.AutoLoad
	d.Unlock()

	if autoLoad {
		go d.FinishLoad(element.ID)
	}
}

func (d *Document) RemoveScript(id string) {
	d.Lock()
	defer d.Unlock()

	d.Removals = append(d.Removals, id)
	delete(d.scripts, id)
	delete(d.onLoads, id)
}

func (d *Document) Global() (widget.Handle, bool) {
	d.Lock()
	defer d.Unlock()

	return d.global, d.global != nil
}

func (d *Document) Mount(id string) (widget.MountPoint, bool) {
	d.Lock()
	defer d.Unlock()

	mount, found := d.mounts[id]
	if !found {
		return nil, false
	}
	return mount, true
}

// FinishLoad executes the pending script: the widget becomes the page global.
func (d *Document) FinishLoad(id string) error {
	d.Lock()
	onLoad, found := d.onLoads[id]
	if !found {
		d.Unlock()
		return ErrScriptNotFound
	}
	delete(d.onLoads, id)
	if d.Widget != nil {
		d.global = d.Widget
	}
	d.Unlock()

	onLoad(nil)
	return nil
}

func (d *Document) FailLoad(id string, err error) error {
	d.Lock()
	onLoad, found := d.onLoads[id]
	if !found {
		d.Unlock()
		return ErrScriptNotFound
	}
	delete(d.onLoads, id)
	d.Unlock()

	onLoad(err)
	return nil
}

// Pending reports whether a script with the id is waiting for its load event.
func (d *Document) Pending(id string) bool {
	d.Lock()
	defer d.Unlock()

	_, found := d.onLoads[id]
	return found
}

func (d *Document) Script(id string) (widget.ScriptElement, bool) {
	d.Lock()
	defer d.Unlock()

	element, found := d.scripts[id]
	return element, found
}

func (d *Document) InjectionCount() int {
	d.Lock()
	defer d.Unlock()

	return len(d.Injections)
}

func (d *Document) MountPoint(id string) *MountPoint {
	d.Lock()
	defer d.Unlock()

	return d.mounts[id]
}

type MountPoint struct {
	sync.Mutex
	clears int
}

func (m *MountPoint) Clear() {
	m.Lock()
	defer m.Unlock()

	m.clears++
}

func (m *MountPoint) Clears() int {
	m.Lock()
	defer m.Unlock()

	return m.clears
}

// Handle simulates the checkout widget. The outcome helpers fire the callbacks of the
// latest embed, as the shopper would by completing or dismissing the form.
type Handle struct {
	sync.Mutex
	NotReady  bool
	EmbedErr  error
	embeds    []string
	lastEmbed widget.EmbedOptions
}

func NewHandle() *Handle {
	return &Handle{}
}

func (h *Handle) CanEmbed() bool {
	h.Lock()
	defer h.Unlock()

	return !h.NotReady
}

func (h *Handle) Embed(checkoutToken string, options widget.EmbedOptions) error {
	h.Lock()
	defer h.Unlock()

	h.embeds = append(h.embeds, checkoutToken)
	if h.EmbedErr != nil {
		return h.EmbedErr
	}
	h.lastEmbed = options
	return nil
}

// EmbedCalls returns the checkout tokens passed to Embed, in call order.
func (h *Handle) EmbedCalls() []string {
	h.Lock()
	defer h.Unlock()

	return append([]string{}, h.embeds...)
}

func (h *Handle) LastEmbedID() string {
	h.Lock()
	defer h.Unlock()

	return h.lastEmbed.EmbedID
}

func (h *Handle) Succeed() { h.fire(func(o widget.EmbedOptions) func() { return o.OnSuccess }) }
func (h *Handle) Pend()    { h.fire(func(o widget.EmbedOptions) func() { return o.OnPending }) }
func (h *Handle) Fail()    { h.fire(func(o widget.EmbedOptions) func() { return o.OnError }) }
func (h *Handle) Close()   { h.fire(func(o widget.EmbedOptions) func() { return o.OnClose }) }

func (h *Handle) fire(pick func(widget.EmbedOptions) func()) {
	h.Lock()
	callback := pick(h.lastEmbed)
	h.Unlock()

	if callback != nil {
		callback()
	}
}
