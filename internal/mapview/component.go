package mapview

import (
	"context"
	"sync"

	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/pkg/ogcclient"
)

var (
	ErrNotMounted   = errors.New("component is not mounted")
	ErrUnknownLayer = errors.New("unknown layer")
)

// Fetcher is the part of the OGC API the component reads from.
type Fetcher interface {
	Collections(ctx context.Context) ([]ogcclient.Collection, error)
	Items(ctx context.Context, collectionID string) (*geojson.FeatureCollection, error)
}

// Component is the state of one mounted map viewer. All state changes,
// control events and fetch continuations included, are serialized by mu.
type Component struct {
	opts    *Options
	fetcher Fetcher

	mu          sync.Mutex
	surface     *Surface
	layers      map[string]*Layer
	active      string
	cancel      context.CancelFunc
	unsubscribe []func()
	done        chan struct{}
}

func New(fetcher Fetcher, funcs ...OptionFunc) *Component {
	return &Component{
		opts:    NewOptions(funcs...),
		fetcher: fetcher,
	}
}

// Mount creates the surface and starts loading collections in the
// background. It does nothing if the surface already exists.
func (c *Component) Mount(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface != nil {
		return
	}

	surface := newSurface(c.opts.Surface)
	c.surface = surface
	c.layers = make(map[string]*Layer)
	c.active = ""
	c.unsubscribe = []func(){
		surface.control.On(OverlayAdd, c.showLabels),
		surface.control.On(OverlayRemove, c.hideLabels),
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	done := make(chan struct{})
	c.done = done

	go func() {
		defer close(done)
		c.load(ctx, surface)
	}()
}

// Unmount cancels pending requests, removes the control listeners and drops
// the surface. Requests resolving afterwards are discarded.
func (c *Component) Unmount() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return
	}

	c.cancel()
	for _, unsubscribe := range c.unsubscribe {
		unsubscribe()
	}

	c.unsubscribe = nil
	c.surface = nil
	c.layers = nil
	c.active = ""
}

// Mounted reports whether the surface exists.
func (c *Component) Mounted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

// Wait blocks until the load started by the last Mount has finished.
func (c *Component) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done == nil {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	}
}

// Toggle shows or hides a layer through the visibility control, as a user
// ticking its entry would. It returns the popups open afterwards.
func (c *Component) Toggle(collectionID string, visible bool) ([]PopupView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	layer, err := c.layer(collectionID)
	if err != nil {
		return nil, err
	}

	c.surface.control.SetVisible(layer, visible)

	return openPopups(layer), nil
}

// Popups returns the open popups of a layer.
func (c *Component) Popups(collectionID string) ([]PopupView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	layer, err := c.layer(collectionID)
	if err != nil {
		return nil, err
	}

	return openPopups(layer), nil
}

// Features returns the content of a layer as GeoJSON.
func (c *Component) Features(collectionID string) (*geojson.FeatureCollection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	layer, err := c.layer(collectionID)
	if err != nil {
		return nil, err
	}

	return layer.FeatureCollection(), nil
}

// State is a point-in-time view of a component.
type State struct {
	Surface  SurfaceConfig  `json:"surface" doc:"Map surface configuration"`
	Overlays []OverlayState `json:"overlays" doc:"Visibility control entries in insertion order"`
	Active   string         `json:"active,omitempty" doc:"Collection ID of the most recently shown layer"`
}

// OverlayState is one control entry of a [State].
type OverlayState struct {
	ID       string    `json:"id" doc:"Collection ID" example:"layer1"`
	Title    string    `json:"title" doc:"Control label" example:"Roads"`
	Visible  bool      `json:"visible" doc:"Whether the layer is shown"`
	Loaded   bool      `json:"loaded" doc:"Whether the items request succeeded"`
	Features int       `json:"features" doc:"Number of features in the layer"`
	BBox     []float64 `json:"bbox,omitempty" doc:"Layer extent as [minLng, minLat, maxLng, maxLat]"`
	Error    string    `json:"error,omitempty" doc:"Items request error, if any"`
}

// Snapshot returns the current state of the component.
func (c *Component) Snapshot() (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.surface == nil {
		return State{}, errors.WithStack(ErrNotMounted)
	}

	overlays := c.surface.control.Overlays()
	state := State{
		Surface:  c.surface.config,
		Overlays: make([]OverlayState, 0, len(overlays)),
		Active:   c.active,
	}

	for _, o := range overlays {
		s := OverlayState{
			ID:       o.Layer.id,
			Title:    o.Label,
			Visible:  o.Visible,
			Loaded:   o.Layer.loaded,
			Features: len(o.Layer.features),
		}
		if b, ok := o.Layer.Bound(); ok {
			s.BBox = []float64{b.Min.Lon(), b.Min.Lat(), b.Max.Lon(), b.Max.Lat()}
		}
		if o.Layer.err != nil {
			s.Error = o.Layer.err.Error()
		}
		state.Overlays = append(state.Overlays, s)
	}

	return state, nil
}

// layer must be called with mu held.
func (c *Component) layer(collectionID string) (*Layer, error) {
	if c.surface == nil {
		return nil, errors.WithStack(ErrNotMounted)
	}

	layer, ok := c.layers[collectionID]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLayer, "collection '%s'", collectionID)
	}

	return layer, nil
}

// notify must be called with mu held.
func (c *Component) notify(e Event) {
	if c.opts.Observer != nil {
		c.opts.Observer(e)
	}
}
