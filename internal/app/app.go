// Package app loads the catalogue once at start-up and builds a fresh
// table, filter engine and map session for every viewer.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/MatFrancois/opotopo/internal/config"
	"github.com/MatFrancois/opotopo/internal/filter"
	"github.com/MatFrancois/opotopo/internal/hike"
	"github.com/MatFrancois/opotopo/internal/mapsync"
	"github.com/MatFrancois/opotopo/internal/table"
	"github.com/MatFrancois/opotopo/internal/track"
	"github.com/MatFrancois/opotopo/internal/viewer"
)

var ErrNotReady = errors.New("catalogue not loaded")

// Publisher delivers a viewer's map updates to its open connections.
type Publisher interface {
	PublishJSON(viewerID string, v any) error
}

// Catalogue is the immutable result of a successful bootstrap.
type Catalogue struct {
	Rows    []table.Row
	Regions []string
	Levels  []string
	Options table.Options
}

// SyncEvent is pushed to a viewer's stream after every map sync.
type SyncEvent struct {
	Type     string         `json:"type"`
	ViewerID string         `json:"viewer_id"`
	Map      mapsync.Result `json:"map"`
}

type App struct {
	cfg       config.Config
	loader    hike.Loader
	client    *http.Client
	geometry  mapsync.GeometryLoader
	publisher Publisher
	viewers   *viewer.Registry

	mu        sync.RWMutex
	catalogue *Catalogue
	index     track.Index
	banner    *Banner
}

func New(cfg config.Config, loader hike.Loader, client *http.Client, geometry mapsync.GeometryLoader, publisher Publisher) *App {
	a := &App{
		cfg:       cfg,
		loader:    loader,
		client:    client,
		geometry:  geometry,
		publisher: publisher,
		index:     track.Index{},
	}
	a.viewers = viewer.NewRegistry(a.NewViewer)
	return a
}

// Bootstrap loads the dataset, then the track index. A dataset failure is
// fatal and leaves the banner in place; a track index failure only leaves the
// map empty. There is no retry.
func (a *App) Bootstrap(ctx context.Context) error {
	if a.cfg.BootstrapTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.BootstrapTimeout)
		defer cancel()
	}

	cat, err := a.loadCatalogue(ctx)
	if err != nil {
		log.Printf("catalogue initialisation failed: %v", err)
		a.mu.Lock()
		a.catalogue = nil
		a.banner = NewBanner(err)
		a.mu.Unlock()
		return err
	}

	idx, _ := track.LoadIndex(ctx, a.client, a.cfg.TrackIndexPath)

	a.mu.Lock()
	a.catalogue = cat
	a.index = idx
	a.banner = nil
	a.mu.Unlock()
	log.Printf("catalogue ready: %d hikes, %d with tracks", len(cat.Rows), len(idx))
	return nil
}

func (a *App) loadCatalogue(ctx context.Context) (*Catalogue, error) {
	if a.loader == nil {
		return nil, errors.New("no catalogue source configured")
	}
	hikes, err := a.loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	return &Catalogue{
		Rows:    hike.BuildRows(hikes),
		Regions: hike.Regions(hikes),
		Levels:  hike.Levels(hikes),
		Options: hike.TableOptions(a.cfg.PageLength),
	}, nil
}

func (a *App) Catalogue() (*Catalogue, *Banner) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.catalogue, a.banner
}

func (a *App) Viewers() *viewer.Registry { return a.viewers }

// First resolves the track of a hike against the loaded index.
func (a *App) First(id string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index.First(id)
}

func (a *App) Lookup(id string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.index.Lookup(id)
}

// NewViewer populates a table from the catalogue, wires the map to its
// redraws and the filters to the table, then draws once.
func (a *App) NewViewer(id string) (*viewer.Viewer, error) {
	cat, _ := a.Catalogue()
	if cat == nil {
		return nil, ErrNotReady
	}

	t := table.New(cat.Rows, cat.Options)
	session := mapsync.NewSession(a, a.geometry, mapsync.Options{
		Proxy:       a.cfg.TrackProxy,
		Concurrency: a.cfg.GeometryConcurrency,
		Fit: mapsync.FitOptions{
			Padding:    a.cfg.FitPadding,
			MaxZoom:    a.cfg.FitMaxZoom,
			DurationMs: a.cfg.FitDurationMs,
		},
	})
	if a.publisher != nil {
		session.OnSync(func(res mapsync.Result) {
			if err := a.publisher.PublishJSON(id, SyncEvent{Type: "map.sync", ViewerID: id, Map: res}); err != nil {
				log.Printf("publish sync for %s: %v", id, err)
			}
		})
	}

	engine := filter.NewEngine(t)
	engine.SetRegions(cat.Regions)
	engine.SetLevels(cat.Levels)

	v := viewer.New(id, t, engine, session)
	t.Draw()
	return v, nil
}

// Greeting is the first stream message of a connection: the viewer's
// current map, or nil for an unknown viewer.
func (a *App) Greeting(viewerID string) []byte {
	v, err := a.viewers.Get(viewerID)
	if err != nil {
		return nil
	}
	payload, err := json.Marshal(SyncEvent{Type: "map.state", ViewerID: viewerID, Map: v.MapState(context.Background())})
	if err != nil {
		return nil
	}
	return payload
}

// Janitor drops idle viewers until ctx ends.
func (a *App) Janitor(ctx context.Context) {
	idle := a.cfg.ViewerIdleTimeout
	a.viewers.Janitor(ctx, idle, idle/4+time.Second)
}
