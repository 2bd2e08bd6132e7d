package mapview

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/paulmach/orb/geojson"
)

// NotAvailable is shown when a labelled property is missing or empty.
const NotAvailable = "N/A"

// Label is the text of a popup: a bold heading followed by a value.
type Label struct {
	Heading string `json:"heading"`
	Value   string `json:"value"`
}

// String returns "Heading: value".
func (l Label) String() string {
	return l.Heading + ": " + l.Value
}

// HTML returns "<b>Heading:</b> value" with both parts escaped.
func (l Label) HTML() template.HTML {
	return template.HTML("<b>" + html.EscapeString(l.Heading) + ":</b> " + html.EscapeString(l.Value))
}

// LabelFunc computes the label of a feature from its properties.
type LabelFunc func(props geojson.Properties) Label

// PropertyLabel labels features with the value of one property.
func PropertyLabel(heading, property string) LabelFunc {
	return func(props geojson.Properties) Label {
		return Label{Heading: heading, Value: formatValue(props[property])}
	}
}

// Labels maps collection IDs to label formatters.
type Labels struct {
	mu       sync.RWMutex
	byID     map[string]LabelFunc
	fallback LabelFunc
}

// NewLabels creates an empty registry using fallback for unknown collections.
func NewLabels(fallback LabelFunc) *Labels {
	return &Labels{
		byID:     make(map[string]LabelFunc),
		fallback: fallback,
	}
}

// DefaultLabels returns the registry shipped with the viewer.
func DefaultLabels() *Labels {
	l := NewLabels(PropertyLabel("Default Label", "defaultProperty"))
	l.Register("layer1", PropertyLabel("Label 1", "property1"))
	l.Register("layer2", PropertyLabel("Label 2", "property2"))
	return l
}

// Register sets the formatter for a collection, replacing any previous one.
func (l *Labels) Register(collectionID string, fn LabelFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byID[collectionID] = fn
}

// For returns the formatter of a collection, or the fallback.
func (l *Labels) For(collectionID string) LabelFunc {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if fn, ok := l.byID[collectionID]; ok {
		return fn
	}
	return l.fallback
}

// formatValue renders a property value, mapping falsy values to N/A.
func formatValue(v any) string {
	if falsy(v) {
		return NotAvailable
	}
	return stringValue(v)
}

func falsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0 || math.IsNaN(t)
	case int:
		return t == 0
	default:
		return false
	}
}

// stringValue converts a decoded JSON value the way string interpolation
// does in a browser: arrays are joined with commas, nulls inside them are
// empty and objects print as [object Object].
func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		if math.IsNaN(t) {
			return "NaN"
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringValue(e)
		}
		return strings.Join(parts, ",")
	case map[string]any:
		return "[object Object]"
	default:
		return fmt.Sprint(t)
	}
}
