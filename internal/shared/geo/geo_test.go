package geo

import (
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineKm(t *testing.T) {
	// Luchon (42.79, 0.59) to Gavarnie (42.73, -0.01) ~ 50 km
	d := HaversineKm(42.79, 0.59, 42.73, -0.01)
	if d < 45 || d > 55 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestLineLengthKm(t *testing.T) {
	ls := orb.LineString{{0.59, 42.79}, {0.29, 42.76}, {-0.01, 42.73}}
	direct := HaversineKm(42.79, 0.59, 42.73, -0.01)
	got := LineLengthKm(ls)
	if got < direct || got > direct*1.05 {
		t.Fatalf("unexpected line length %v (direct %v)", got, direct)
	}
	if LineLengthKm(orb.LineString{{0, 0}}) != 0 {
		t.Fatalf("single point has no length")
	}
}
