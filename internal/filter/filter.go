// Package filter builds the catalogue's row predicate from the filter form and
// drives the column searches for level, name, valley and regions.
package filter

import (
	"math"

	"github.com/MatFrancois/opotopo/internal/hike"
	"github.com/MatFrancois/opotopo/internal/table"
)

// Form carries the raw values of the filter inputs, keyed by their element ids.
type Form struct {
	AltMin   string `json:"alt-min" form:"alt-min"`
	AltMax   string `json:"alt-max" form:"alt-max"`
	TempsMax string `json:"temps-max" form:"temps-max"`
	DenivMin string `json:"deniv-min" form:"deniv-min"`
	DenivMax string `json:"deniv-max" form:"deniv-max"`
	DistMin  string `json:"dist-min" form:"dist-min"`
	DistMax  string `json:"dist-max" form:"dist-max"`
	IceAxe   bool   `json:"piolet-check" form:"piolet-check"`
	Crampons bool   `json:"crampons-check" form:"crampons-check"`
	PopMin   string `json:"pop-min" form:"pop-min"`
	NoteMin  string `json:"note-min" form:"note-min"`
	NoteMax  string `json:"note-max" form:"note-max"`
	Level    string `json:"niveau-select" form:"niveau-select"`
	Name     string `json:"rando-filter" form:"rando-filter"`
	Valley   string `json:"vallees-filter" form:"vallees-filter"`
}

// Criteria is the parsed numeric part of a Form. Unset bounds are infinite.
type Criteria struct {
	AltMin, AltMax     float64
	DurationMax        float64
	DenivMin, DenivMax float64
	DistMin, DistMax   float64
	IceAxe, Crampons   bool
	PopularityMin      float64
	RatingMin          float64
	RatingMax          float64
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

func ParseCriteria(f Form) Criteria {
	return Criteria{
		AltMin:        bound(f.AltMin, negInf),
		AltMax:        bound(f.AltMax, posInf),
		DurationMax:   bound(f.TempsMax, posInf),
		DenivMin:      bound(f.DenivMin, negInf),
		DenivMax:      bound(f.DenivMax, posInf),
		DistMin:       bound(f.DistMin, negInf),
		DistMax:       bound(f.DistMax, posInf),
		IceAxe:        f.IceAxe,
		Crampons:      f.Crampons,
		PopularityMin: bound(f.PopMin, negInf),
		RatingMin:     bound(f.NoteMin, negInf),
		RatingMax:     bound(f.NoteMax, posInf),
	}
}

// Match evaluates the criteria against the display cells of one row.
func (c Criteria) Match(cells []string) bool {
	at := func(col int) string {
		if col < len(cells) {
			return cells[col]
		}
		return ""
	}

	alt := cellNumber(at(hike.ColAltitude))
	if alt < c.AltMin || alt > c.AltMax {
		return false
	}
	if cellNumber(at(hike.ColDuration)) > c.DurationMax {
		return false
	}
	deniv := cellNumber(at(hike.ColElevation))
	if deniv < c.DenivMin || deniv > c.DenivMax {
		return false
	}
	dist := cellNumber(at(hike.ColDistance))
	if dist < c.DistMin || dist > c.DistMax {
		return false
	}
	if c.IceAxe && !isSet(at(hike.ColIceAxe)) {
		return false
	}
	if c.Crampons && !isSet(at(hike.ColCrampons)) {
		return false
	}
	if cellNumber(at(hike.ColComments)) < c.PopularityMin {
		return false
	}
	note := ratingMean(at(hike.ColRating))
	return note >= c.RatingMin && note <= c.RatingMax
}

func (c Criteria) Predicate() table.Predicate {
	return func(cells []string, _ int) bool { return c.Match(cells) }
}
