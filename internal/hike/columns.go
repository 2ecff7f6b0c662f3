package hike

import "github.com/MatFrancois/opotopo/internal/table"

// Column positions of the catalogue table.
const (
	ColAltitude = iota
	ColLevel
	ColName
	ColDuration
	ColElevation
	ColDistance
	ColRegion
	ColValley
	ColIceAxe
	ColCrampons
	ColComments
	ColRating
	ColLink
)

// TableOptions returns the display options the page configures its table
// widget with.
func TableOptions(pageLength int) table.Options {
	if pageLength == 0 {
		pageLength = 10
	}
	return table.Options{
		Paging:     true,
		Searching:  true,
		Ordering:   true,
		Info:       true,
		PageLength: pageLength,
		LengthMenu: []int{10, 25, 50, 100, -1},
		Columns: []table.Column{
			{Title: "Altitude", Visible: true, ResponsivePriority: 3},
			{Title: "Niveau", Visible: true, ResponsivePriority: 1},
			{Title: "Randonnée", Visible: true, ResponsivePriority: 1},
			{Title: "Temps", Visible: true, ResponsivePriority: 2},
			{Title: "Dénivelé", Visible: true, ResponsivePriority: 1},
			{Title: "Distance", Visible: true, ResponsivePriority: 1},
			{Title: "Régions", Visible: false},
			{Title: "Vallées", Visible: true, ResponsivePriority: 10},
			{Title: "Piolet", Visible: true, ResponsivePriority: 11},
			{Title: "Crampons", Visible: true, ResponsivePriority: 12},
			{Title: "N coms", Visible: true, ResponsivePriority: 3},
			{Title: "Note", Visible: true, ResponsivePriority: 1},
			{Title: "URL", Visible: true, ResponsivePriority: 13},
		},
		Order: []table.Order{{Column: ColAltitude}},
		Language: map[string]string{
			"lengthMenu":   "Afficher _MENU_ randonnées",
			"lengthAll":    "Tous",
			"zeroRecords":  "Aucune randonnée trouvée",
			"info":         "Page _PAGE_ sur _PAGES_",
			"infoEmpty":    "Aucune randonnée disponible",
			"infoFiltered": "(filtré de _MAX_ randonnées)",
			"search":       "Rechercher:",
			"first":        "Premier",
			"last":         "Dernier",
			"next":         "Suivant",
			"previous":     "Précédent",
		},
	}
}
