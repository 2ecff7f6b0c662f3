package hike

import (
	"testing"
)

func TestBuildRows(t *testing.T) {
	hikes, err := Decode([]byte(sampleDataset))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rows := BuildRows(hikes)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows")
	}

	first := rows[0]
	if first.ID != "42" {
		t.Fatalf("unexpected row id %q", first.ID)
	}
	if len(first.Cells) != ColLink+1 {
		t.Fatalf("expected %d cells, got %d", ColLink+1, len(first.Cells))
	}
	if first.Cells[ColRating] != "4.3 ± 0.8" && first.Cells[ColRating] != "4.2 ± 0.8" {
		t.Fatalf("unexpected rating cell %q", first.Cells[ColRating])
	}
	if first.Cells[ColDistance] != "12.5" || first.Cells[ColRegion] != "Pyrénées" {
		t.Fatalf("unexpected cells: %v", first.Cells)
	}
	if first.Meta.Name != "Lac d'Oô" || first.Meta.Distance != "12.5" || first.Meta.Elevation != "800" {
		t.Fatalf("unexpected meta: %+v", first.Meta)
	}

	if rows[1].Cells[ColRating] != " ± " {
		t.Fatalf("expected blank rating sides, got %q", rows[1].Cells[ColRating])
	}
}

func TestRatingCellZeroIsBlank(t *testing.T) {
	zero, sd := 0.0, 1.25
	if got := RatingCell(&zero, &sd); got != " ± 1.2" && got != " ± 1.3" {
		t.Fatalf("unexpected rating cell %q", got)
	}
}

func TestRegionsAndLevelsSortedDistinct(t *testing.T) {
	hikes := []Hike{
		{Region: "Pyrénées", Level: "PD"},
		{Region: "Alpes", Level: "F"},
		{Region: "Pyrénées", Level: "AD"},
		{Region: "Alpes", Level: "F"},
	}
	regions := Regions(hikes)
	if len(regions) != 2 || regions[0] != "Alpes" || regions[1] != "Pyrénées" {
		t.Fatalf("unexpected regions: %v", regions)
	}
	levels := Levels(hikes)
	if len(levels) != 3 || levels[0] != "AD" || levels[1] != "F" || levels[2] != "PD" {
		t.Fatalf("unexpected levels: %v", levels)
	}
}

func TestTableOptions(t *testing.T) {
	opts := TableOptions(0)
	if opts.PageLength != 10 || len(opts.Columns) != ColLink+1 {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.Columns[ColRegion].Visible {
		t.Fatalf("region column should be hidden")
	}
}

func TestPopupMetaBlanksOnlyNumericZero(t *testing.T) {
	hikes, err := Decode([]byte(`[
		{"rid": 1, "kms": "0", "deniv": 0},
		{"rid": 2, "kms": 0.0, "deniv": "0"},
		{"rid": 3, "kms": null}
	]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rows := BuildRows(hikes)

	if rows[0].Meta.Distance != "0" || rows[0].Meta.Elevation != "" {
		t.Fatalf("row 1 meta: %+v", rows[0].Meta)
	}
	if rows[1].Meta.Distance != "" || rows[1].Meta.Elevation != "0" {
		t.Fatalf("row 2 meta: %+v", rows[1].Meta)
	}
	if rows[2].Meta.Distance != "" || rows[2].Meta.Elevation != "" {
		t.Fatalf("row 3 meta: %+v", rows[2].Meta)
	}
	// the cell still shows the number
	if rows[1].Cells[ColDistance] != "0" {
		t.Fatalf("unexpected distance cell %q", rows[1].Cells[ColDistance])
	}
}
