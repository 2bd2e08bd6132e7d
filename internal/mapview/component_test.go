package mapview

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/pkg/ogcclient"
)

type fakeFetcher struct {
	collections    []ogcclient.Collection
	collectionsErr error
	items          map[string]*geojson.FeatureCollection
	itemErrs       map[string]error

	// gate, when set, holds every Items call until it is closed.
	gate chan struct{}

	collectionCalls atomic.Int32
	itemCalls       atomic.Int32
}

func (f *fakeFetcher) Collections(ctx context.Context) ([]ogcclient.Collection, error) {
	f.collectionCalls.Add(1)
	if f.collectionsErr != nil {
		return nil, f.collectionsErr
	}
	return f.collections, nil
}

func (f *fakeFetcher) Items(ctx context.Context, id string) (*geojson.FeatureCollection, error) {
	f.itemCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if err, ok := f.itemErrs[id]; ok {
		return nil, err
	}
	if fc, ok := f.items[id]; ok {
		return fc, nil
	}
	return geojson.NewFeatureCollection(), nil
}

func featureCollection(props ...geojson.Properties) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range props {
		f := geojson.NewFeature(orb.Point{-0.09 + float64(i)/100, 51.505})
		f.Properties = p
		fc.Append(f)
	}
	return fc
}

// sameOverlay compares every field but the extent.
func sameOverlay(a, b OverlayState) bool {
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Visible == b.Visible &&
		a.Loaded == b.Loaded &&
		a.Features == b.Features &&
		a.Error == b.Error
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func mountAndWait(t *testing.T, f Fetcher, funcs ...OptionFunc) *Component {
	t.Helper()
	c := New(f, append([]OptionFunc{WithLogger(quietLogger())}, funcs...)...)
	c.Mount(context.Background())
	t.Cleanup(c.Unmount)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return c
}

func TestMountIsIdempotent(t *testing.T) {
	f := &fakeFetcher{collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}}}
	c := mountAndWait(t, f)

	c.Mount(context.Background())
	if err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := f.collectionCalls.Load(); got != 1 {
		t.Errorf("collection requests = %d, want 1", got)
	}

	state, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if state.Surface != DefaultSurfaceConfig() {
		t.Errorf("surface = %+v, want defaults", state.Surface)
	}
	if len(state.Overlays) != 1 {
		t.Errorf("overlays = %d, want 1", len(state.Overlays))
	}
}

func TestDefaultSurface(t *testing.T) {
	cfg := DefaultSurfaceConfig()
	if cfg.Center != (LatLng{Lat: 51.505, Lng: -0.09}) || cfg.Zoom != 13 {
		t.Errorf("center/zoom = %+v/%d", cfg.Center, cfg.Zoom)
	}
	if cfg.ContainerID != "map" || cfg.Height != "500px" {
		t.Errorf("container = %s/%s", cfg.ContainerID, cfg.Height)
	}
	if cfg.Base.Attribution != "© OpenStreetMap contributors" {
		t.Errorf("attribution = %q", cfg.Base.Attribution)
	}
}

func TestOneLayerPerCollection(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{
			{ID: "layer1", Title: "Roads"},
			{ID: "layer2", Title: "Rivers"},
			{ID: "parks", Title: "Parks"},
		},
		items: map[string]*geojson.FeatureCollection{
			"layer1": featureCollection(geojson.Properties{"property1": "A1"}),
			"parks":  featureCollection(geojson.Properties{}, geojson.Properties{}),
		},
	}
	c := mountAndWait(t, f)

	state, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	want := []OverlayState{
		{ID: "layer1", Title: "Roads", Loaded: true, Features: 1},
		{ID: "layer2", Title: "Rivers", Loaded: true, Features: 0},
		{ID: "parks", Title: "Parks", Loaded: true, Features: 2},
	}
	if len(state.Overlays) != len(want) {
		t.Fatalf("overlays = %d, want %d", len(state.Overlays), len(want))
	}
	for i, w := range want {
		if got := state.Overlays[i]; !sameOverlay(got, w) {
			t.Errorf("overlay[%d] = %+v, want %+v", i, got, w)
		}
	}

	if bbox := state.Overlays[0].BBox; len(bbox) != 4 || bbox[0] != -0.09 || bbox[1] != 51.505 || bbox[2] != -0.09 || bbox[3] != 51.505 {
		t.Errorf("layer1 bbox = %v", bbox)
	}
	if bbox := state.Overlays[1].BBox; bbox != nil {
		t.Errorf("empty layer bbox = %v, want none", bbox)
	}
	if got := f.itemCalls.Load(); got != 3 {
		t.Errorf("item requests = %d, want 3", got)
	}
}

func TestShowOpensLabelledPopups(t *testing.T) {
	tests := []struct {
		id    string
		props []geojson.Properties
		want  []string
	}{
		{
			id:    "layer1",
			props: []geojson.Properties{{"property1": "Main St"}, {"property2": "ignored"}},
			want:  []string{"Label 1: Main St", "Label 1: N/A"},
		},
		{
			id:    "layer2",
			props: []geojson.Properties{{"property2": 42.5}, {"property2": ""}},
			want:  []string{"Label 2: 42.5", "Label 2: N/A"},
		},
		{
			id:    "other",
			props: []geojson.Properties{{"defaultProperty": "x"}, nil},
			want:  []string{"Default Label: x", "Default Label: N/A"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			f := &fakeFetcher{
				collections: []ogcclient.Collection{{ID: tt.id, Title: tt.id}},
				items:       map[string]*geojson.FeatureCollection{tt.id: featureCollection(tt.props...)},
			}
			c := mountAndWait(t, f)

			popups, err := c.Toggle(tt.id, true)
			if err != nil {
				t.Fatal(err)
			}
			if len(popups) != len(tt.want) {
				t.Fatalf("popups = %d, want %d", len(popups), len(tt.want))
			}
			for i, w := range tt.want {
				if got := popups[i].Label.String(); got != w {
					t.Errorf("popup[%d] = %q, want %q", i, got, w)
				}
				if popups[i].Feature != i {
					t.Errorf("popup[%d].Feature = %d", i, popups[i].Feature)
				}
			}

			state, _ := c.Snapshot()
			if state.Active != tt.id {
				t.Errorf("active = %q, want %q", state.Active, tt.id)
			}
		})
	}
}

func TestHideClosesPopups(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}, {ID: "misc", Title: "Misc"}},
		items: map[string]*geojson.FeatureCollection{
			"layer1": featureCollection(geojson.Properties{"property1": "a"}, geojson.Properties{"property1": "b"}),
			"misc":   featureCollection(geojson.Properties{"defaultProperty": "c"}),
		},
	}
	c := mountAndWait(t, f)

	for _, id := range []string{"layer1", "misc"} {
		if _, err := c.Toggle(id, true); err != nil {
			t.Fatal(err)
		}
		popups, err := c.Toggle(id, false)
		if err != nil {
			t.Fatal(err)
		}
		if len(popups) != 0 {
			t.Errorf("%s: %d popups still open", id, len(popups))
		}
	}

	state, _ := c.Snapshot()
	for _, o := range state.Overlays {
		if o.Visible {
			t.Errorf("%s still visible", o.ID)
		}
	}
	if state.Active != "misc" {
		t.Errorf("active = %q, want misc", state.Active)
	}
}

func TestShowRecomputesLabels(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "custom", Title: "Custom"}},
		items:       map[string]*geojson.FeatureCollection{"custom": featureCollection(geojson.Properties{"name": "Park"})},
	}
	labels := DefaultLabels()
	c := mountAndWait(t, f, WithLabels(labels))

	popups, _ := c.Toggle("custom", true)
	if got := popups[0].Label.String(); got != "Default Label: N/A" {
		t.Fatalf("label = %q", got)
	}

	c.Toggle("custom", false)
	labels.Register("custom", PropertyLabel("Name", "name"))

	popups, _ = c.Toggle("custom", true)
	if got := popups[0].Label.String(); got != "Name: Park" {
		t.Errorf("label = %q, want Name: Park", got)
	}
}

func TestItemFailureLeavesLayerEmpty(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}, {ID: "layer2", Title: "Rivers"}},
		items:       map[string]*geojson.FeatureCollection{"layer2": featureCollection(geojson.Properties{"property2": "Thames"})},
		itemErrs:    map[string]error{"layer1": errors.New("connection refused")},
	}
	c := mountAndWait(t, f)

	state, _ := c.Snapshot()
	if len(state.Overlays) != 2 {
		t.Fatalf("overlays = %d, want 2", len(state.Overlays))
	}
	failed := state.Overlays[0]
	if failed.Loaded || failed.Features != 0 || failed.Error == "" {
		t.Errorf("failed overlay = %+v", failed)
	}

	popups, err := c.Toggle("layer1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(popups) != 0 {
		t.Errorf("popups = %d, want 0", len(popups))
	}

	popups, _ = c.Toggle("layer2", true)
	if len(popups) != 1 || popups[0].Label.String() != "Label 2: Thames" {
		t.Errorf("layer2 popups = %+v", popups)
	}
}

func TestCollectionListFailure(t *testing.T) {
	var events []Event
	f := &fakeFetcher{collectionsErr: errors.New("503")}
	c := mountAndWait(t, f, WithObserver(func(e Event) { events = append(events, e) }))

	state, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.Overlays) != 0 {
		t.Errorf("overlays = %d, want 0", len(state.Overlays))
	}
	if state.Surface.Base.URLTemplate == "" {
		t.Error("base layer missing")
	}
	if f.itemCalls.Load() != 0 {
		t.Error("items requested after list failure")
	}
	if len(events) != 1 || events[0].Kind != EventLoadFailed {
		t.Errorf("events = %+v", events)
	}
}

func TestDuplicateCollectionKeepsFirst(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{
			{ID: "layer1", Title: "First"},
			{ID: "layer1", Title: "Second"},
			{ID: "", Title: "No id"},
		},
	}
	c := mountAndWait(t, f)

	state, _ := c.Snapshot()
	if len(state.Overlays) != 1 || state.Overlays[0].Title != "First" {
		t.Errorf("overlays = %+v", state.Overlays)
	}
	if got := f.itemCalls.Load(); got != 1 {
		t.Errorf("item requests = %d, want 1", got)
	}
}

func TestUnmountDiscardsLateItems(t *testing.T) {
	gate := make(chan struct{})
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}},
		items:       map[string]*geojson.FeatureCollection{"layer1": featureCollection(geojson.Properties{})},
		gate:        gate,
	}

	var mu sync.Mutex
	var kinds []EventKind
	c := New(f, WithLogger(quietLogger()), WithObserver(func(e Event) {
		mu.Lock()
		kinds = append(kinds, e.Kind)
		mu.Unlock()
	}))
	c.Mount(context.Background())

	deadline := time.Now().Add(5 * time.Second)
	for f.itemCalls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("items never requested")
		}
		time.Sleep(time.Millisecond)
	}

	c.mu.Lock()
	control := c.surface.control
	c.mu.Unlock()

	c.Unmount()
	close(gate)

	if err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	if c.Mounted() {
		t.Error("still mounted")
	}
	if _, err := c.Snapshot(); !errors.Is(err, ErrNotMounted) {
		t.Errorf("Snapshot error = %v, want ErrNotMounted", err)
	}
	if n := control.ListenerCount(); n != 0 {
		t.Errorf("listeners = %d after unmount", n)
	}

	mu.Lock()
	defer mu.Unlock()
	for _, k := range kinds {
		if k == EventLayerLoaded {
			t.Error("layer loaded after unmount")
		}
	}
}

func TestRemountCreatesFreshSurface(t *testing.T) {
	f := &fakeFetcher{collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}}}
	c := mountAndWait(t, f)
	c.Toggle("layer1", true)
	c.Unmount()

	c.Mount(context.Background())
	if err := c.Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	state, err := c.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if state.Active != "" || state.Overlays[0].Visible {
		t.Errorf("state carried over: %+v", state)
	}
	if got := f.collectionCalls.Load(); got != 2 {
		t.Errorf("collection requests = %d, want 2", got)
	}
}

func TestToggleErrors(t *testing.T) {
	c := New(&fakeFetcher{}, WithLogger(quietLogger()))
	if _, err := c.Toggle("layer1", true); !errors.Is(err, ErrNotMounted) {
		t.Errorf("error = %v, want ErrNotMounted", err)
	}

	c = mountAndWait(t, &fakeFetcher{})
	if _, err := c.Toggle("missing", true); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("error = %v, want ErrUnknownLayer", err)
	}
	if _, err := c.Features("missing"); !errors.Is(err, ErrUnknownLayer) {
		t.Errorf("error = %v, want ErrUnknownLayer", err)
	}
}

func TestObserverEvents(t *testing.T) {
	var mu sync.Mutex
	var events []Event
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}},
		items:       map[string]*geojson.FeatureCollection{"layer1": featureCollection(geojson.Properties{"property1": "a"})},
	}
	c := mountAndWait(t, f, WithObserver(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}))

	c.Toggle("layer1", true)
	c.Toggle("layer1", true)
	c.Toggle("layer1", false)

	mu.Lock()
	defer mu.Unlock()

	want := []EventKind{EventLayerAdded, EventLayerLoaded, EventPopupsOpened, EventPopupsClosed}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i, k := range want {
		if events[i].Kind != k {
			t.Errorf("event[%d] = %s, want %s", i, events[i].Kind, k)
		}
	}
	if html := events[2].Popups[0].HTML; html != "<b>Label 1:</b> a" {
		t.Errorf("popup html = %q", html)
	}
}

func TestFeaturesRoundTrip(t *testing.T) {
	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}},
		items:       map[string]*geojson.FeatureCollection{"layer1": featureCollection(geojson.Properties{"property1": "a"}, geojson.Properties{})},
	}
	c := mountAndWait(t, f)

	fc, err := c.Features("layer1")
	if err != nil {
		t.Fatal(err)
	}
	if len(fc.Features) != 2 {
		t.Errorf("features = %d, want 2", len(fc.Features))
	}
}

func TestNullGeometryKeepsFeatureIndex(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	noGeom := geojson.NewFeature(nil)
	noGeom.Properties["property1"] = "no-geom"
	fc.Append(noGeom)
	point := geojson.NewFeature(orb.Point{2.35, 48.85})
	point.Properties["property1"] = "point"
	fc.Append(point)

	f := &fakeFetcher{
		collections: []ogcclient.Collection{{ID: "layer1", Title: "Roads"}},
		items:       map[string]*geojson.FeatureCollection{"layer1": fc},
	}
	c := mountAndWait(t, f)

	popups, err := c.Toggle("layer1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(popups) != 2 {
		t.Fatalf("popups = %d, want 2", len(popups))
	}
	if popups[0].Feature != 0 || popups[0].HTML != "<b>Label 1:</b> no-geom" {
		t.Errorf("popups[0] = %+v", popups[0])
	}
	if popups[1].Feature != 1 || popups[1].HTML != "<b>Label 1:</b> point" {
		t.Errorf("popups[1] = %+v", popups[1])
	}

	out, err := c.Features("layer1")
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Features) != 2 || out.Features[0].Geometry != nil {
		t.Errorf("features out of order: %+v", out.Features)
	}

	state, _ := c.Snapshot()
	if bbox := state.Overlays[0].BBox; len(bbox) != 4 || bbox[0] != 2.35 || bbox[1] != 48.85 {
		t.Errorf("bbox = %v, want the point only", bbox)
	}
}
