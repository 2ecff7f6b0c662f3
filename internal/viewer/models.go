package viewer

import (
	"github.com/MatFrancois/opotopo/internal/filter"
	"github.com/MatFrancois/opotopo/internal/mapsync"
	"github.com/MatFrancois/opotopo/internal/table"
)

// Page is the table as last drawn.
type Page struct {
	Rows []table.Row `json:"rows"`
	table.DrawInfo
}

// DrawRequest changes the table state before a redraw. Absent fields keep
// their current value.
type DrawRequest struct {
	Page       *int          `json:"page"`
	PageLength *int          `json:"page_length"`
	Order      []table.Order `json:"order"`
	Search     *string       `json:"search"`
	Hidden     *[]string     `json:"hidden"`
}

type RegionRequest struct {
	Region string `json:"region"`
}

type RegionResponse struct {
	Region  string         `json:"region"`
	Active  bool           `json:"active"`
	Filters filter.State   `json:"filters"`
	Table   Page           `json:"table"`
	Map     mapsync.Result `json:"map"`
}

type FilterResponse struct {
	Filters filter.State   `json:"filters"`
	Table   Page           `json:"table"`
	Map     mapsync.Result `json:"map"`
}

type ClickRequest struct {
	RID string  `json:"rid"`
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type HoverRequest struct {
	RID   string `json:"rid"`
	Enter bool   `json:"enter"`
}
