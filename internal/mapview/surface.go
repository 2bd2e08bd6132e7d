// Package mapview holds the state of one map viewer component: the map
// surface with its base tile layer, one vector layer per OGC collection, the
// layer visibility control and the popup labels opened when a layer is shown.
package mapview

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat" doc:"Latitude" example:"51.505"`
	Lng float64 `json:"lng" doc:"Longitude" example:"-0.09"`
}

// TileLayer is the base imagery layer drawn under every overlay.
type TileLayer struct {
	URLTemplate string `json:"urlTemplate" doc:"Tile URL template" example:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	Attribution string `json:"attribution" doc:"Attribution shown on the map"`
}

// SurfaceConfig describes where and how the surface is created.
type SurfaceConfig struct {
	ContainerID string    `json:"container" doc:"DOM element ID the map is bound to" example:"map"`
	Height      string    `json:"height" doc:"CSS height of the container" example:"500px"`
	Center      LatLng    `json:"center" doc:"Initial center"`
	Zoom        int       `json:"zoom" doc:"Initial zoom level" example:"13"`
	Base        TileLayer `json:"base" doc:"Base tile layer"`
}

// DefaultSurfaceConfig returns the surface used when nothing is configured.
func DefaultSurfaceConfig() SurfaceConfig {
	return SurfaceConfig{
		ContainerID: "map",
		Height:      "500px",
		Center:      LatLng{Lat: 51.505, Lng: -0.09},
		Zoom:        13,
		Base: TileLayer{
			URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "© OpenStreetMap contributors",
		},
	}
}

// Surface is the map itself. It owns the overlay layers and the control.
type Surface struct {
	config  SurfaceConfig
	control *Control
	layers  map[*Layer]struct{}
}

func newSurface(cfg SurfaceConfig) *Surface {
	s := &Surface{
		config: cfg,
		layers: make(map[*Layer]struct{}),
	}
	s.control = newControl()
	return s
}

func (s *Surface) addLayer(l *Layer) {
	s.layers[l] = struct{}{}
}

func (s *Surface) hasLayer(l *Layer) bool {
	_, ok := s.layers[l]
	return ok
}
