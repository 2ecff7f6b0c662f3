package mapsync

import (
	"errors"
	"fmt"
	"html"

	"github.com/MatFrancois/opotopo/internal/table"
	"github.com/MatFrancois/opotopo/internal/track"
)

var (
	ErrDuplicate    = errors.New("map id already in use")
	ErrNotDisplayed = errors.New("no track displayed for this hike")
)

const (
	outlineColor   = "#000000"
	defaultName    = "Randonnée inconnue"
	defaultMissing = "N/A"
)

type Source struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	// Data is the address the map loads itself, e.g. gpx://https://proxy/?https://...
	Data     string       `json:"data"`
	Format   track.Format `json:"format"`
	TrackURL string       `json:"track_url"`
	// GeoJSON serves the same track already parsed by this service.
	GeoJSON string `json:"geojson"`
}

type Layer struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Source string         `json:"source"`
	Paint  map[string]any `json:"paint"`
}

type PaintChange struct {
	Layer    string  `json:"layer"`
	Property string  `json:"property"`
	Value    float64 `json:"value"`
}

type Hover struct {
	Cursor  string        `json:"cursor"`
	Changes []PaintChange `json:"changes"`
}

type Popup struct {
	Name      string  `json:"randonnee"`
	Distance  string  `json:"kms"`
	Elevation string  `json:"deniv"`
	Color     string  `json:"color"`
	Lng       float64 `json:"lng"`
	Lat       float64 `json:"lat"`
	HTML      string  `json:"html"`
}

// LayerGroup is everything drawn for one visible hike: a source and its
// outline, main and hover line layers, plus the interaction descriptors.
// Pointer enter, leave and click are bound to the Target layer.
type LayerGroup struct {
	RID        string  `json:"rid"`
	Color      string  `json:"color"`
	ColorIndex int     `json:"color_index"`
	Source     Source  `json:"source"`
	Layers     []Layer `json:"layers"`
	Target     string  `json:"target"`
	HoverEnter Hover   `json:"hover_enter"`
	HoverLeave Hover   `json:"hover_leave"`
	Popup      Popup   `json:"popup"`
}

func SourceID(rid string) string  { return "gpxSource_" + rid }
func LayerID(rid string) string   { return "gpxLayer_" + rid }
func OutlineID(rid string) string { return LayerID(rid) + "_outline" }
func HoverID(rid string) string   { return LayerID(rid) + "_hover" }

func newLayerGroup(rid, rawURL, proxy string, colorIndex int, meta table.Meta) LayerGroup {
	color := ColorAt(colorIndex)
	src := SourceID(rid)
	main, outline, hover := LayerID(rid), OutlineID(rid), HoverID(rid)

	return LayerGroup{
		RID:        rid,
		Color:      color,
		ColorIndex: colorIndex,
		Source: Source{
			ID:       src,
			Type:     "geojson",
			Data:     track.ProtocolURL(proxy, rawURL),
			Format:   track.FormatOf(rawURL),
			TrackURL: rawURL,
			GeoJSON:  "/api/tracks/" + rid,
		},
		Layers: []Layer{
			lineLayer(outline, src, outlineColor, 7, 0.6),
			lineLayer(main, src, color, 5, 0.8),
			lineLayer(hover, src, color, 10, 0),
		},
		Target: main,
		HoverEnter: Hover{Cursor: "pointer", Changes: []PaintChange{
			{Layer: hover, Property: "line-opacity", Value: 0.4},
			{Layer: main, Property: "line-width", Value: 7},
			{Layer: outline, Property: "line-width", Value: 9},
		}},
		HoverLeave: Hover{Cursor: "", Changes: []PaintChange{
			{Layer: hover, Property: "line-opacity", Value: 0},
			{Layer: main, Property: "line-width", Value: 5},
			{Layer: outline, Property: "line-width", Value: 7},
		}},
		Popup: newPopup(meta, color),
	}
}

func lineLayer(id, source, color string, width, opacity float64) Layer {
	return Layer{
		ID:     id,
		Type:   "line",
		Source: source,
		Paint: map[string]any{
			"line-color":   color,
			"line-width":   width,
			"line-opacity": opacity,
		},
	}
}

func newPopup(meta table.Meta, color string) Popup {
	p := Popup{
		Name:      orDefault(meta.Name, defaultName),
		Distance:  orDefault(meta.Distance, defaultMissing),
		Elevation: orDefault(meta.Elevation, defaultMissing),
		Color:     color,
	}
	p.HTML = fmt.Sprintf(
		`<div class="track-popup"><h3 style="color: %[1]s; border-bottom: 2px solid %[1]s;">%[2]s</h3>`+
			`<p><strong>📏 Distance:</strong> %[3]s km</p><p><strong>⛰️ Dénivelé:</strong> %[4]s m</p></div>`,
		color, html.EscapeString(p.Name), html.EscapeString(p.Distance), html.EscapeString(p.Elevation))
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Registry tracks the source and layer ids currently on the map.
type Registry struct {
	sources map[string]struct{}
	layers  map[string]struct{}
	groups  []LayerGroup
}

func NewRegistry() *Registry {
	return &Registry{
		sources: map[string]struct{}{},
		layers:  map[string]struct{}{},
	}
}

// Add installs a whole group or nothing.
func (r *Registry) Add(g LayerGroup) error {
	if _, ok := r.sources[g.Source.ID]; ok {
		return fmt.Errorf("%w: source %s", ErrDuplicate, g.Source.ID)
	}
	for _, l := range g.Layers {
		if _, ok := r.layers[l.ID]; ok {
			return fmt.Errorf("%w: layer %s", ErrDuplicate, l.ID)
		}
	}
	r.sources[g.Source.ID] = struct{}{}
	for _, l := range g.Layers {
		r.layers[l.ID] = struct{}{}
	}
	r.groups = append(r.groups, g)
	return nil
}

// Clear removes every group and returns the removed ids, layers before
// their source.
func (r *Registry) Clear() []string {
	var removed []string
	for _, g := range r.groups {
		for i := len(g.Layers) - 1; i >= 0; i-- {
			removed = append(removed, g.Layers[i].ID)
		}
		removed = append(removed, g.Source.ID)
	}
	r.sources = map[string]struct{}{}
	r.layers = map[string]struct{}{}
	r.groups = nil
	return removed
}

func (r *Registry) Groups() []LayerGroup {
	return append([]LayerGroup(nil), r.groups...)
}

func (r *Registry) Group(rid string) (LayerGroup, bool) {
	for _, g := range r.groups {
		if g.RID == rid {
			return g, true
		}
	}
	return LayerGroup{}, false
}

func (r *Registry) Len() int { return len(r.groups) }
