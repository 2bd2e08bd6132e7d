package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Layer is a vector layer bound to one collection. The collection ID is kept
// on the layer so control events can be resolved without a lookup.
type Layer struct {
	id       string
	title    string
	features []*Feature
	loaded   bool
	err      error
}

func newLayer(id, title string) *Layer {
	return &Layer{id: id, title: title}
}

// ID returns the collection the layer was created for.
func (l *Layer) ID() string { return l.id }

// addData appends features, each with an empty closed popup bound.
func (l *Layer) addData(features []*geojson.Feature) {
	for _, f := range features {
		if f == nil {
			continue
		}
		l.features = append(l.features, &Feature{
			index:   len(l.features),
			feature: f,
		})
	}
	l.loaded = true
}

// eachFeature calls fn for every feature in insertion order.
func (l *Layer) eachFeature(fn func(f *Feature)) {
	for _, f := range l.features {
		fn(f)
	}
}

// Bound returns the extent of every feature geometry. It is false for a layer
// without geometries.
func (l *Layer) Bound() (orb.Bound, bool) {
	var (
		bound orb.Bound
		found bool
	)
	for _, f := range l.features {
		if f.feature.Geometry == nil {
			continue
		}
		b := f.feature.Geometry.Bound()
		if !found {
			bound, found = b, true
			continue
		}
		bound = bound.Union(b)
	}
	return bound, found
}

// FeatureCollection rebuilds a GeoJSON collection from the layer content.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.features {
		fc.Append(f.feature)
	}
	return fc
}

// Feature is one geometry plus its properties, with the popup bound to it.
type Feature struct {
	index   int
	feature *geojson.Feature
	popup   Popup
}

func (f *Feature) Properties() geojson.Properties { return f.feature.Properties }

func (f *Feature) openPopup(label Label) {
	f.popup = Popup{Label: label, Open: true}
}

func (f *Feature) closePopup() {
	f.popup.Open = false
}

// Popup is the overlay bound to a feature.
type Popup struct {
	Label Label
	Open  bool
}
