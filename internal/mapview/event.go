package mapview

// EventKind names a change observers are told about.
type EventKind string

const (
	EventLayerAdded   EventKind = "layer-added"
	EventLayerLoaded  EventKind = "layer-loaded"
	EventLayerFailed  EventKind = "layer-failed"
	EventLoadFailed   EventKind = "load-failed"
	EventPopupsOpened EventKind = "popups-opened"
	EventPopupsClosed EventKind = "popups-closed"
)

// Event describes a state change of a component.
type Event struct {
	Kind     EventKind   `json:"kind"`
	LayerID  string      `json:"layer,omitempty"`
	Title    string      `json:"title,omitempty"`
	Features int         `json:"features,omitempty"`
	Popups   []PopupView `json:"popups,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// PopupView is an open popup as seen from outside the component.
type PopupView struct {
	Feature int    `json:"feature" doc:"Index of the feature within its layer"`
	Label   Label  `json:"label" doc:"Label heading and value"`
	HTML    string `json:"html" doc:"Popup content as HTML"`
}

// Observer receives component events. It is called with the component lock
// held and must not block.
type Observer func(e Event)

func openPopups(l *Layer) []PopupView {
	var views []PopupView
	l.eachFeature(func(f *Feature) {
		if !f.popup.Open {
			return
		}
		views = append(views, PopupView{
			Feature: f.index,
			Label:   f.popup.Label,
			HTML:    string(f.popup.Label.HTML()),
		})
	})
	return views
}
