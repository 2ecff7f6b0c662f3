// Package table models the catalogue table: column searches, the custom
// predicate stack, ordering, paging and the redraw event. The browser renders
// whatever page the model hands out; which rows are visible is decided here.
package table

import (
	"sort"
	"strconv"
	"strings"
)

// Meta is the row-level data attached at population time and read back by
// the map popup.
type Meta struct {
	Name      string `json:"randonnee"`
	Distance  string `json:"kms"`
	Elevation string `json:"deniv"`
}

type Row struct {
	ID    string   `json:"rid,omitempty"`
	Cells []string `json:"cells"`
	Meta  Meta     `json:"meta"`
}

// Predicate is a custom row test evaluated against the display cells of the
// row at index in the original data order.
type Predicate func(cells []string, index int) bool

type Order struct {
	Column int  `json:"column"`
	Desc   bool `json:"desc"`
}

type Column struct {
	Title              string `json:"title"`
	Visible            bool   `json:"visible"`
	ResponsivePriority int    `json:"responsive_priority"`
}

type Options struct {
	Paging     bool              `json:"paging"`
	Searching  bool              `json:"searching"`
	Ordering   bool              `json:"ordering"`
	Info       bool              `json:"info"`
	PageLength int               `json:"page_length"`
	LengthMenu []int             `json:"length_menu"`
	Columns    []Column          `json:"columns"`
	Order      []Order           `json:"order"`
	Language   map[string]string `json:"language"`
}

// DrawInfo describes the outcome of one redraw.
type DrawInfo struct {
	Draw       int      `json:"draw"`
	Page       int      `json:"page"`
	Pages      int      `json:"pages"`
	PageLength int      `json:"page_length"`
	Total      int      `json:"total"`
	Filtered   int      `json:"filtered"`
	Start      int      `json:"start"`
	End        int      `json:"end"`
	VisibleIDs []string `json:"visible_ids"`
}

type Table struct {
	opts    Options
	rows    []Row
	byID    map[string]int
	numeric []bool

	global     search
	columns    []search
	predicates []Predicate
	order      []Order
	page       int
	pageLength int
	hidden     map[string]bool

	filtered  []int
	pageRows  []int
	last      DrawInfo
	draws     int
	listeners []func(DrawInfo)
}

// New builds a table over rows and performs no draw; call Draw once the
// listeners are attached.
func New(rows []Row, opts Options) *Table {
	width := len(opts.Columns)
	for _, r := range rows {
		if len(r.Cells) > width {
			width = len(r.Cells)
		}
	}

	t := &Table{
		opts:       opts,
		rows:       rows,
		byID:       make(map[string]int, len(rows)),
		columns:    make([]search, width),
		order:      append([]Order(nil), opts.Order...),
		pageLength: opts.PageLength,
		hidden:     map[string]bool{},
	}
	if t.pageLength == 0 {
		t.pageLength = 10
	}
	for i, r := range rows {
		if r.ID == "" {
			continue
		}
		if _, ok := t.byID[r.ID]; !ok {
			t.byID[r.ID] = i
		}
	}
	t.numeric = detectNumeric(rows, width)
	return t
}

func (t *Table) Options() Options { return t.opts }

func (t *Table) Rows() []Row { return t.rows }

// OnDraw registers fn to run after every redraw, in registration order.
func (t *Table) OnDraw(fn func(DrawInfo)) {
	t.listeners = append(t.listeners, fn)
}

// SetSearch sets the global smart search.
func (t *Table) SetSearch(term string) {
	t.global = newSearch(term, false, true)
}

// SetColumnSearch sets the search term of column col. With regex the term is
// matched as a case-insensitive regular expression, otherwise as a smart
// search (every word must appear).
func (t *Table) SetColumnSearch(col int, term string, regex bool) {
	if col < 0 || col >= len(t.columns) {
		return
	}
	t.columns[col] = newSearch(term, regex, !regex)
}

func (t *Table) ColumnSearch(col int) string {
	if col < 0 || col >= len(t.columns) {
		return ""
	}
	return t.columns[col].term
}

// ClearSearches resets the global search and every column search.
func (t *Table) ClearSearches() {
	t.global = search{}
	for i := range t.columns {
		t.columns[i] = search{}
	}
}

func (t *Table) PushPredicate(p Predicate) {
	t.predicates = append(t.predicates, p)
}

func (t *Table) PopPredicate() {
	if len(t.predicates) == 0 {
		return
	}
	t.predicates = t.predicates[:len(t.predicates)-1]
}

func (t *Table) ClearPredicates() {
	t.predicates = nil
}

func (t *Table) Predicates() int { return len(t.predicates) }

// SetOrder replaces the ordering. Columns out of range are ignored.
func (t *Table) SetOrder(orders ...Order) {
	t.order = t.order[:0]
	for _, o := range orders {
		if o.Column >= 0 && o.Column < len(t.columns) {
			t.order = append(t.order, o)
		}
	}
}

// SetPageLength changes the page size; a negative length shows every row.
func (t *Table) SetPageLength(n int) {
	if n == 0 {
		return
	}
	t.pageLength = n
}

// SetHidden marks rows collapsed by the client layout. Hidden rows stay on
// the page but are not visible.
func (t *Table) SetHidden(ids []string) {
	t.hidden = make(map[string]bool, len(ids))
	for _, id := range ids {
		t.hidden[id] = true
	}
}

// Draw refilters, resorts and returns to the first page.
func (t *Table) Draw() DrawInfo {
	t.page = 0
	return t.redraw()
}

// DrawPage redraws the given page while keeping the current filter state.
func (t *Table) DrawPage(page int) DrawInfo {
	if page < 0 {
		page = 0
	}
	t.page = page
	return t.redraw()
}

func (t *Table) redraw() DrawInfo {
	t.filtered = t.filter()
	t.sortFiltered()

	length := t.pageLength
	if !t.opts.Paging || length < 0 {
		length = len(t.filtered)
	}
	pages := 1
	if length > 0 {
		pages = (len(t.filtered) + length - 1) / length
	}
	if pages == 0 {
		pages = 1
	}
	if t.page >= pages {
		t.page = pages - 1
	}
	start := t.page * length
	end := start + length
	if end > len(t.filtered) {
		end = len(t.filtered)
	}
	t.pageRows = t.filtered[start:end]

	t.draws++
	t.last = DrawInfo{
		Draw:       t.draws,
		Page:       t.page,
		Pages:      pages,
		PageLength: t.pageLength,
		Total:      len(t.rows),
		Filtered:   len(t.filtered),
		Start:      start,
		End:        end,
		VisibleIDs: t.visibleIDs(),
	}
	for _, fn := range t.listeners {
		fn(t.last)
	}
	return t.last
}

func (t *Table) filter() []int {
	out := make([]int, 0, len(t.rows))
	for i, r := range t.rows {
		if !t.global.matchRow(r.Cells) {
			continue
		}
		if !t.matchColumns(r.Cells) {
			continue
		}
		if !t.matchPredicates(r.Cells, i) {
			continue
		}
		out = append(out, i)
	}
	return out
}

func (t *Table) matchColumns(cells []string) bool {
	for col, s := range t.columns {
		if s.empty() {
			continue
		}
		if !s.match(cell(cells, col)) {
			return false
		}
	}
	return true
}

func (t *Table) matchPredicates(cells []string, index int) bool {
	for _, p := range t.predicates {
		if !p(cells, index) {
			return false
		}
	}
	return true
}

func (t *Table) sortFiltered() {
	if !t.opts.Ordering || len(t.order) == 0 {
		return
	}
	sort.SliceStable(t.filtered, func(a, b int) bool {
		ra, rb := t.rows[t.filtered[a]].Cells, t.rows[t.filtered[b]].Cells
		for _, o := range t.order {
			c := t.compare(o.Column, cell(ra, o.Column), cell(rb, o.Column))
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func (t *Table) compare(col int, a, b string) int {
	if col < len(t.numeric) && t.numeric[col] {
		fa, fb := sortNumber(a), sortNumber(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func (t *Table) visibleIDs() []string {
	ids := make([]string, 0, len(t.pageRows))
	for _, idx := range t.pageRows {
		r := t.rows[idx]
		if r.ID == "" || t.hidden[r.ID] {
			continue
		}
		ids = append(ids, r.ID)
	}
	return ids
}

// LastDraw returns the outcome of the most recent redraw.
func (t *Table) LastDraw() DrawInfo { return t.last }

// PageRows returns the rows rendered by the last redraw, hidden ones included.
func (t *Table) PageRows() []Row {
	out := make([]Row, 0, len(t.pageRows))
	for _, idx := range t.pageRows {
		out = append(out, t.rows[idx])
	}
	return out
}

// VisibleRowIDs returns the identifiers of rows rendered by the last redraw
// and not hidden, in display order.
func (t *Table) VisibleRowIDs() []string {
	return append([]string(nil), t.last.VisibleIDs...)
}

// RowMeta returns the metadata attached to the row with identifier id.
func (t *Table) RowMeta(id string) (Meta, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return Meta{}, false
	}
	return t.rows[idx].Meta, true
}

func cell(cells []string, col int) string {
	if col < len(cells) {
		return cells[col]
	}
	return ""
}

func detectNumeric(rows []Row, width int) []bool {
	numeric := make([]bool, width)
	for col := 0; col < width; col++ {
		seen := false
		numeric[col] = true
		for _, r := range rows {
			v := strings.TrimSpace(cell(r.Cells, col))
			if v == "" {
				continue
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				numeric[col] = false
				break
			}
			seen = true
		}
		if !seen {
			numeric[col] = false
		}
	}
	return numeric
}

func sortNumber(v string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return negInf
	}
	return f
}
