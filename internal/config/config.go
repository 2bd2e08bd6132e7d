// Package config reads the map surface defaults from the environment.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"

	"github.com/joeblew999/plat-ogc/internal/mapview"
)

type Config struct {
	Map Map `envPrefix:"MAP_"`
}

type Map struct {
	ContainerID string  `env:"CONTAINER" envDefault:"map"`
	Height      string  `env:"HEIGHT" envDefault:"500px"`
	CenterLat   float64 `env:"CENTER_LAT" envDefault:"51.505"`
	CenterLng   float64 `env:"CENTER_LNG" envDefault:"-0.09"`
	Zoom        int     `env:"ZOOM" envDefault:"13"`
	TileURL     string  `env:"TILE_URL" envDefault:"https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"`
	Attribution string  `env:"ATTRIBUTION" envDefault:"© OpenStreetMap contributors"`
}

// Surface converts the map settings into a surface configuration.
func (m Map) Surface() mapview.SurfaceConfig {
	return mapview.SurfaceConfig{
		ContainerID: m.ContainerID,
		Height:      m.Height,
		Center:      mapview.LatLng{Lat: m.CenterLat, Lng: m.CenterLng},
		Zoom:        m.Zoom,
		Base: mapview.TileLayer{
			URLTemplate: m.TileURL,
			Attribution: m.Attribution,
		},
	}
}

func Parse() (*Config, error) {
	return ParseWithEnvironment(nil)
}

// ParseWithEnvironment parses from the given variables instead of the process
// environment when environment is non-nil.
func ParseWithEnvironment(environment map[string]string) (*Config, error) {
	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix:      "VIEWER_",
		Environment: environment,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if conf.Map.Zoom < 0 || conf.Map.Zoom > 22 {
		return nil, errors.Errorf("map zoom %d out of range [0, 22]", conf.Map.Zoom)
	}

	return &conf, nil
}
