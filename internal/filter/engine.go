package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/MatFrancois/opotopo/internal/hike"
	"github.com/MatFrancois/opotopo/internal/table"
)

var ErrUnknownRegion = errors.New("unknown region")

// Table is the part of the table model the engine drives.
type Table interface {
	SetColumnSearch(col int, term string, regex bool)
	ClearSearches()
	PushPredicate(p table.Predicate)
	PopPredicate()
	ClearPredicates()
	Draw() table.DrawInfo
}

type RegionButton struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
	All    bool   `json:"all,omitempty"`
}

type LevelOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// State is what the page needs to restore its filter inputs.
type State struct {
	Form    Form           `json:"form"`
	Regions []RegionButton `json:"regions"`
	Levels  []LevelOption  `json:"levels"`
}

type Engine struct {
	table    Table
	regions  []string
	levels   []string
	selected []string
	form     Form
}

func NewEngine(t Table) *Engine {
	return &Engine{table: t}
}

// SetRegions installs the region toggle buttons.
func (e *Engine) SetRegions(regions []string) {
	e.regions = append([]string(nil), regions...)
}

// SetLevels installs the level selector options.
func (e *Engine) SetLevels(levels []string) {
	e.levels = append([]string(nil), levels...)
}

// Apply runs the advanced filters: the numeric predicate is installed as the
// only custom filter, the three text columns get their searches, the table
// redraws once and the predicate is retracted.
func (e *Engine) Apply(f Form) table.DrawInfo {
	e.form = f

	e.table.ClearPredicates()
	e.table.PushPredicate(ParseCriteria(f).Predicate())

	e.table.SetColumnSearch(hike.ColLevel, f.Level, false)
	e.table.SetColumnSearch(hike.ColName, f.Name, false)
	e.table.SetColumnSearch(hike.ColValley, f.Valley, false)

	info := e.table.Draw()
	e.table.PopPredicate()
	return info
}

// ToggleRegion flips region in the selection and searches the region column
// for any selected region.
func (e *Engine) ToggleRegion(region string) (bool, table.DrawInfo, error) {
	if !contains(e.regions, region) {
		if near, ok := e.ClosestRegion(region); ok {
			return false, table.DrawInfo{}, fmt.Errorf("%w %q, did you mean %q?", ErrUnknownRegion, region, near)
		}
		return false, table.DrawInfo{}, fmt.Errorf("%w %q", ErrUnknownRegion, region)
	}

	active := true
	if i := indexOf(e.selected, region); i >= 0 {
		e.selected = append(e.selected[:i], e.selected[i+1:]...)
		active = false
	} else {
		e.selected = append(e.selected, region)
	}

	e.table.SetColumnSearch(hike.ColRegion, RegionTerm(e.selected), true)
	return active, e.table.Draw(), nil
}

// AllRegions clears the region selection.
func (e *Engine) AllRegions() table.DrawInfo {
	e.selected = nil
	e.table.SetColumnSearch(hike.ColRegion, "", false)
	return e.table.Draw()
}

// Clear resets every input, every toggle, every search and every predicate.
func (e *Engine) Clear() table.DrawInfo {
	e.form = Form{}
	e.selected = nil
	e.table.ClearSearches()
	e.table.ClearPredicates()
	return e.table.Draw()
}

func (e *Engine) SelectedRegions() []string {
	return append([]string(nil), e.selected...)
}

func (e *Engine) State() State {
	buttons := make([]RegionButton, 0, len(e.regions)+1)
	for _, r := range e.regions {
		buttons = append(buttons, RegionButton{Label: r, Active: contains(e.selected, r)})
	}
	buttons = append(buttons, RegionButton{Label: "Tous", All: true})

	levels := make([]LevelOption, 0, len(e.levels)+1)
	levels = append(levels, LevelOption{Value: "", Label: "Tous niveaux"})
	for _, l := range e.levels {
		levels = append(levels, LevelOption{Value: l, Label: l})
	}
	return State{Form: e.form, Regions: buttons, Levels: levels}
}

// RegionTerm builds the alternation searched on the region column; no
// selection gives the empty term.
func RegionTerm(selected []string) string {
	if len(selected) == 0 {
		return ""
	}
	quoted := make([]string, len(selected))
	for i, r := range selected {
		quoted[i] = regexp.QuoteMeta(r)
	}
	return strings.Join(quoted, "|")
}

func contains(list []string, v string) bool { return indexOf(list, v) >= 0 }

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
