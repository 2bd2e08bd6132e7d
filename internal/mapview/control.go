package mapview

// ControlEventKind identifies a visibility change emitted by the control.
type ControlEventKind int

const (
	OverlayAdd ControlEventKind = iota
	OverlayRemove
)

func (k ControlEventKind) String() string {
	switch k {
	case OverlayAdd:
		return "overlayadd"
	case OverlayRemove:
		return "overlayremove"
	default:
		return "unknown"
	}
}

// ControlEvent is passed to control listeners.
type ControlEvent struct {
	Kind  ControlEventKind
	Layer *Layer
}

// ControlListener handles a control event. Listeners run with the component
// lock held and must not call back into the component.
type ControlListener func(e ControlEvent)

// Overlay is one entry of the visibility control.
type Overlay struct {
	Layer   *Layer
	Label   string
	Visible bool
}

// Control is the layer visibility control attached to the surface.
type Control struct {
	overlays  []*Overlay
	listeners map[int]listenerEntry
	nextID    int
}

type listenerEntry struct {
	kind ControlEventKind
	fn   ControlListener
}

func newControl() *Control {
	return &Control{listeners: make(map[int]listenerEntry)}
}

// AddOverlay registers a layer under a label. Entries start hidden.
func (c *Control) AddOverlay(l *Layer, label string) {
	c.overlays = append(c.overlays, &Overlay{Layer: l, Label: label})
}

// Overlays returns a copy of the entries in insertion order.
func (c *Control) Overlays() []Overlay {
	out := make([]Overlay, len(c.overlays))
	for i, o := range c.overlays {
		out[i] = *o
	}
	return out
}

// On registers a listener and returns the function that removes it.
func (c *Control) On(kind ControlEventKind, fn ControlListener) func() {
	id := c.nextID
	c.nextID++
	c.listeners[id] = listenerEntry{kind: kind, fn: fn}
	return func() {
		delete(c.listeners, id)
	}
}

// ListenerCount returns the number of registered listeners.
func (c *Control) ListenerCount() int {
	return len(c.listeners)
}

// SetVisible toggles a layer and emits the matching event. It reports whether
// the visibility changed.
func (c *Control) SetVisible(l *Layer, visible bool) bool {
	o := c.overlay(l)
	if o == nil || o.Visible == visible {
		return false
	}
	o.Visible = visible

	kind := OverlayRemove
	if visible {
		kind = OverlayAdd
	}
	c.emit(ControlEvent{Kind: kind, Layer: l})
	return true
}

func (c *Control) overlay(l *Layer) *Overlay {
	for _, o := range c.overlays {
		if o.Layer == l {
			return o
		}
	}
	return nil
}

func (c *Control) emit(e ControlEvent) {
	for id := 0; id < c.nextID; id++ {
		entry, ok := c.listeners[id]
		if !ok || entry.kind != e.Kind {
			continue
		}
		entry.fn(e)
	}
}
