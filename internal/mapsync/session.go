// Package mapsync keeps the map in step with the table: after every redraw
// the displayed track layers are rebuilt from the visible rows, and once
// their geometry is loaded the viewport is fitted around them.
package mapsync

import (
	"context"
	"log"
	"slices"
	"sync"

	"github.com/MatFrancois/opotopo/internal/table"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"
)

// VisibleRows is the part of the table a sync reads.
type VisibleRows interface {
	VisibleRowIDs() []string
	RowMeta(id string) (table.Meta, bool)
}

type TrackIndex interface {
	Lookup(id string) []string
}

type GeometryLoader interface {
	Load(ctx context.Context, url string) (*geojson.FeatureCollection, error)
}

// MapOptions is the initial camera and style of the map.
type MapOptions struct {
	Style  string     `json:"style"`
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
}

func DefaultMapOptions() MapOptions {
	return MapOptions{
		Style:  "https://demotiles.maplibre.org/style.json",
		Center: [2]float64{0.5, 42.8},
		Zoom:   7,
	}
}

type Options struct {
	Proxy       string
	Concurrency int
	Fit         FitOptions
	Map         MapOptions
}

// Result describes the map after one sync.
type Result struct {
	Generation     uint64       `json:"generation"`
	Loaded         bool         `json:"loaded"`
	Map            MapOptions   `json:"map"`
	Removed        []string     `json:"removed,omitempty"`
	Groups         []LayerGroup `json:"groups"`
	Skipped        []string     `json:"skipped,omitempty"`
	PaletteWrapped bool         `json:"palette_wrapped"`
	Viewport       *Viewport    `json:"viewport,omitempty"`
	// Stale is set when a later sync started before this one finished; its
	// viewport is dropped.
	Stale bool `json:"stale,omitempty"`
}

type Session struct {
	index  TrackIndex
	loader GeometryLoader
	opts   Options

	mu         sync.Mutex
	attached   bool
	loaded     bool
	registry   *Registry
	generation uint64
	last       Result
	listeners  []func(Result)
}

func NewSession(index TrackIndex, loader GeometryLoader, opts Options) *Session {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Map == (MapOptions{}) {
		opts.Map = DefaultMapOptions()
	}
	return &Session{
		index:    index,
		loader:   loader,
		opts:     opts,
		registry: NewRegistry(),
		last:     Result{Map: opts.Map, Groups: []LayerGroup{}},
	}
}

// OnSync registers fn to receive every completed, current sync.
func (s *Session) OnSync(fn func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Attach records that the client created its map.
func (s *Session) Attach() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = true
}

// MarkLoaded records the map load event and runs the first sync.
func (s *Session) MarkLoaded(ctx context.Context, rows VisibleRows) Result {
	s.mu.Lock()
	s.attached = true
	s.loaded = true
	s.mu.Unlock()
	return s.Sync(ctx, rows)
}

func (s *Session) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached && s.loaded
}

// Sync replaces the displayed layers with one group per visible row that has
// a track, then loads their geometry and fits the viewport. It does nothing
// until the map is loaded.
func (s *Session) Sync(ctx context.Context, rows VisibleRows) Result {
	s.mu.Lock()
	if !s.attached || !s.loaded {
		res := s.last
		s.mu.Unlock()
		return res
	}

	s.generation++
	gen := s.generation
	res := Result{
		Generation: gen,
		Loaded:     true,
		Map:        s.opts.Map,
		Removed:    s.registry.Clear(),
		Groups:     []LayerGroup{},
	}

	for _, rid := range rows.VisibleRowIDs() {
		urls := s.index.Lookup(rid)
		if len(urls) == 0 {
			continue
		}
		meta, _ := rows.RowMeta(rid)
		added := s.registry.Len()
		g := newLayerGroup(rid, urls[0], s.opts.Proxy, added, meta)
		if err := s.registry.Add(g); err != nil {
			log.Printf("map layer for %s skipped: %v", rid, err)
			res.Skipped = append(res.Skipped, rid)
			continue
		}
		if added >= len(Palette) {
			res.PaletteWrapped = true
		}
	}
	res.Groups = s.registry.Groups()
	s.last = res
	s.mu.Unlock()

	log.Printf("%d tracks displayed on the map", len(res.Groups))
	if len(res.Groups) > 0 {
		res.Viewport = Fit(s.opts.Fit, s.loadAll(ctx, res.Groups)...)
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		res.Viewport = nil
		res.Stale = true
		return res
	}
	s.last = res
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(res)
	}
	return res
}

// loadAll fetches the geometry of every group; a failed track only drops out
// of the fit.
func (s *Session) loadAll(ctx context.Context, groups []LayerGroup) []*geojson.FeatureCollection {
	out := make([]*geojson.FeatureCollection, len(groups))
	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, group := range groups {
		i, group := i, group
		g.Go(func() error {
			fc, err := s.loader.Load(ctx, group.Source.TrackURL)
			if err != nil {
				log.Printf("track geometry for %s unavailable: %v", group.RID, err)
				return nil
			}
			out[i] = fc
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// Snapshot returns the latest sync result.
func (s *Session) Snapshot() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Click returns the popup of a displayed track at the clicked position.
func (s *Session) Click(rid string, lng, lat float64) (Popup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.registry.Group(rid)
	if !ok {
		return Popup{}, ErrNotDisplayed
	}
	p := g.Popup
	p.Lng, p.Lat = lng, lat
	return p, nil
}

// Hover returns the paint changes for the pointer entering or leaving a track.
func (s *Session) Hover(rid string, enter bool) (Hover, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.registry.Group(rid)
	if !ok {
		return Hover{}, ErrNotDisplayed
	}
	if enter {
		return g.HoverEnter, nil
	}
	return g.HoverLeave, nil
}
