package mapsync

// Palette holds the track colours, handed out in display order and reused
// once exhausted.
var Palette = []string{
	"#FF0000",
	"#0000FF",
	"#00FF00",
	"#FF00FF",
	"#FFA500",
	"#00FFFF",
	"#FF1493",
	"#FFD700",
	"#9370DB",
	"#00FF7F",
}

func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}
