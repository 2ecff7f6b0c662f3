// Package viewer holds one catalogue session per browser tab: its table
// state, its filter engine and its map. Operations on a viewer run one at a
// time.
package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/MatFrancois/opotopo/internal/filter"
	"github.com/MatFrancois/opotopo/internal/mapsync"
	"github.com/MatFrancois/opotopo/internal/table"
)

type Viewer struct {
	ID      string
	Table   *table.Table
	Filters *filter.Engine
	Map     *mapsync.Session

	mu       sync.Mutex
	ctx      context.Context
	lastSeen time.Time
}

// New assembles a viewer and hooks the map to every table redraw.
func New(id string, t *table.Table, f *filter.Engine, m *mapsync.Session) *Viewer {
	v := &Viewer{
		ID:       id,
		Table:    t,
		Filters:  f,
		Map:      m,
		lastSeen: time.Now(),
	}
	t.OnDraw(func(table.DrawInfo) {
		m.Sync(v.context(), t)
	})
	return v
}

// do runs fn with the viewer locked; redraws triggered by fn sync the map
// under ctx.
func (v *Viewer) do(ctx context.Context, fn func()) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctx = ctx
	v.lastSeen = time.Now()
	fn()
	v.ctx = nil
}

func (v *Viewer) context() context.Context {
	if v.ctx == nil {
		return context.Background()
	}
	return v.ctx
}

func (v *Viewer) LastSeen() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastSeen
}

func (v *Viewer) page() Page {
	return Page{Rows: v.Table.PageRows(), DrawInfo: v.Table.LastDraw()}
}

func (v *Viewer) Page(ctx context.Context) Page {
	var p Page
	v.do(ctx, func() { p = v.page() })
	return p
}

func (v *Viewer) Draw(ctx context.Context, req DrawRequest) Page {
	var p Page
	v.do(ctx, func() {
		if req.PageLength != nil {
			v.Table.SetPageLength(*req.PageLength)
		}
		if req.Order != nil {
			v.Table.SetOrder(req.Order...)
		}
		if req.Search != nil {
			v.Table.SetSearch(*req.Search)
		}
		if req.Hidden != nil {
			v.Table.SetHidden(*req.Hidden)
		}
		if req.Page != nil {
			v.Table.DrawPage(*req.Page)
		} else {
			v.Table.Draw()
		}
		p = v.page()
	})
	return p
}

func (v *Viewer) FilterState(ctx context.Context) filter.State {
	var s filter.State
	v.do(ctx, func() { s = v.Filters.State() })
	return s
}

func (v *Viewer) ApplyFilters(ctx context.Context, f filter.Form) FilterResponse {
	var resp FilterResponse
	v.do(ctx, func() {
		v.Filters.Apply(f)
		resp = v.filterResponse()
	})
	return resp
}

func (v *Viewer) ClearFilters(ctx context.Context) FilterResponse {
	var resp FilterResponse
	v.do(ctx, func() {
		v.Filters.Clear()
		resp = v.filterResponse()
	})
	return resp
}

func (v *Viewer) ToggleRegion(ctx context.Context, region string) (RegionResponse, error) {
	var (
		resp RegionResponse
		err  error
	)
	v.do(ctx, func() {
		var active bool
		active, _, err = v.Filters.ToggleRegion(region)
		if err != nil {
			return
		}
		f := v.filterResponse()
		resp = RegionResponse{Region: region, Active: active, Filters: f.Filters, Table: f.Table, Map: f.Map}
	})
	return resp, err
}

func (v *Viewer) AllRegions(ctx context.Context) FilterResponse {
	var resp FilterResponse
	v.do(ctx, func() {
		v.Filters.AllRegions()
		resp = v.filterResponse()
	})
	return resp
}

func (v *Viewer) filterResponse() FilterResponse {
	return FilterResponse{
		Filters: v.Filters.State(),
		Table:   v.page(),
		Map:     v.Map.Snapshot(),
	}
}

// LoadMap records the client's map load and displays the visible tracks.
func (v *Viewer) LoadMap(ctx context.Context) mapsync.Result {
	var res mapsync.Result
	v.do(ctx, func() {
		v.Map.Attach()
		res = v.Map.MarkLoaded(ctx, v.Table)
	})
	return res
}

func (v *Viewer) MapState(ctx context.Context) mapsync.Result {
	var res mapsync.Result
	v.do(ctx, func() { res = v.Map.Snapshot() })
	return res
}

func (v *Viewer) Click(ctx context.Context, req ClickRequest) (mapsync.Popup, error) {
	var (
		p   mapsync.Popup
		err error
	)
	v.do(ctx, func() { p, err = v.Map.Click(req.RID, req.Lng, req.Lat) })
	return p, err
}

func (v *Viewer) Hover(ctx context.Context, req HoverRequest) (mapsync.Hover, error) {
	var (
		h   mapsync.Hover
		err error
	)
	v.do(ctx, func() { h, err = v.Map.Hover(req.RID, req.Enter) })
	return h, err
}
