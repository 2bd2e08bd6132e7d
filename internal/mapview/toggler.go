package mapview

// showLabels opens a popup on every feature of a layer that was just shown.
// The label is recomputed from the feature properties each time.
func (c *Component) showLabels(e ControlEvent) {
	layer := e.Layer
	c.active = layer.id

	format := c.opts.Labels.For(layer.id)
	layer.eachFeature(func(f *Feature) {
		f.openPopup(format(f.Properties()))
	})
	popupsOpened.Add(float64(len(layer.features)))

	c.notify(Event{Kind: EventPopupsOpened, LayerID: layer.id, Title: layer.title, Popups: openPopups(layer)})
}

// hideLabels closes every popup of a layer that was just hidden.
func (c *Component) hideLabels(e ControlEvent) {
	layer := e.Layer
	layer.eachFeature(func(f *Feature) {
		f.closePopup()
	})

	c.notify(Event{Kind: EventPopupsClosed, LayerID: layer.id, Title: layer.title, Features: len(layer.features)})
}
