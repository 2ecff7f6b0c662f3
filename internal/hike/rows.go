package hike

import (
	"sort"
	"strconv"

	"github.com/MatFrancois/opotopo/internal/table"
)

// BuildRows converts each hike into a table row: display cells in column
// order plus the metadata the map popup reads back.
func BuildRows(hikes []Hike) []table.Row {
	rows := make([]table.Row, 0, len(hikes))
	for _, h := range hikes {
		rows = append(rows, table.Row{
			ID: h.ID.String(),
			Cells: []string{
				h.Altitude.String(),
				h.Level,
				h.Name,
				h.Minutes.String(),
				h.Elevation.String(),
				h.Distance.String(),
				h.Region,
				h.Valley,
				h.IceAxe.String(),
				h.Crampons.String(),
				h.Comments.String(),
				RatingCell(h.Rating, h.RatingSD),
				h.URL,
			},
			Meta: table.Meta{
				Name:      h.Name,
				Distance:  orEmpty(h.Distance, h.zeroDistance),
				Elevation: orEmpty(h.Elevation, h.zeroElevation),
			},
		})
	}
	return rows
}

// RatingCell renders "mean ± sd" with one decimal; a missing or zero side is
// left blank.
func RatingCell(mean, sd *float64) string {
	return fixed(mean) + " ± " + fixed(sd)
}

func fixed(v *float64) string {
	if v == nil || *v == 0 {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

// orEmpty blanks a missing value or a numeric zero. Any non-empty string,
// "0" included, is shown as is.
func orEmpty(v Value, zero bool) string {
	if zero {
		return ""
	}
	return v.String()
}

// Regions returns the distinct regions, sorted.
func Regions(hikes []Hike) []string {
	return distinct(hikes, func(h Hike) string { return h.Region })
}

// Levels returns the distinct difficulty levels, sorted.
func Levels(hikes []Hike) []string {
	return distinct(hikes, func(h Hike) string { return h.Level })
}

func distinct(hikes []Hike, key func(Hike) string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, h := range hikes {
		k := key(h)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
