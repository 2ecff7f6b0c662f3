package mapsync

import (
	"github.com/MatFrancois/opotopo/internal/track"

	"github.com/paulmach/orb/geojson"
)

type Padding struct {
	Top    int `json:"top"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
	Right  int `json:"right"`
}

// Viewport is a fit-bounds request: Bounds holds the south-west and
// north-east corners as [lng, lat].
type Viewport struct {
	Bounds   [2][2]float64 `json:"bounds"`
	Padding  Padding       `json:"padding"`
	MaxZoom  int           `json:"max_zoom"`
	Duration int           `json:"duration"`
}

type FitOptions struct {
	Padding    int
	MaxZoom    int
	DurationMs int
}

// Fit returns the viewport covering every line of the loaded tracks, or nil
// when none carries a usable coordinate.
func Fit(opts FitOptions, collections ...*geojson.FeatureCollection) *Viewport {
	b, ok := track.Bounds(collections...)
	if !ok {
		return nil
	}
	return &Viewport{
		Bounds: [2][2]float64{
			{b.Min.Lon(), b.Min.Lat()},
			{b.Max.Lon(), b.Max.Lat()},
		},
		Padding:  Padding{Top: opts.Padding, Bottom: opts.Padding, Left: opts.Padding, Right: opts.Padding},
		MaxZoom:  opts.MaxZoom,
		Duration: opts.DurationMs,
	}
}
