package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/MatFrancois/opotopo/internal/auth"
	"github.com/MatFrancois/opotopo/internal/config"
	"github.com/MatFrancois/opotopo/internal/hike"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const dataset = `[
	{"rid": 1, "alt": 2400, "niveaux": "PD", "randonnee": "Lac d'Oô", "temps_minute": 240, "deniv": 800, "kms": 12.5,
	 "regions": "Pyrénées", "vallees": "Luchonnais", "piolet": 0, "crampons": 0, "n_com": 14, "note": 4.2, "note_sd": 0.5, "url": "u1"},
	{"rid": 2, "alt": 1800, "niveaux": "F", "randonnee": "Lac Blanc", "temps_minute": 180, "deniv": 600, "kms": 8,
	 "regions": "Alpes", "vallees": "Chamonix", "piolet": 0, "crampons": 0, "n_com": 40, "url": "u2"},
	{"rid": 3, "alt": 3000, "niveaux": "AD", "randonnee": "Dôme", "temps_minute": 480, "deniv": 1500, "kms": 15,
	 "regions": "Alpes", "vallees": "Écrins", "piolet": 1, "crampons": "1", "n_com": 3, "url": "u3"}
]`

const index = `[
	{"rid": 1, "kml_urls": ["https://x/1.kml", "https://x/1b.kml"]},
	{"rid": 3, "gpx_urls": ["https://x/3.gpx"]}
]`

type staticLoader struct {
	hikes []hike.Hike
	err   error
}

func (l staticLoader) Load(context.Context) ([]hike.Hike, error) { return l.hikes, l.err }

type lineLoader struct{}

func (lineLoader) Load(context.Context, string) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.LineString{{0.5, 42.7}, {0.6, 42.8}}))
	return fc, nil
}

type recorder struct {
	mu     sync.Mutex
	events []SyncEvent
}

func (r *recorder) PublishJSON(_ string, v any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, v.(SyncEvent))
	return nil
}

func writeFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	data := filepath.Join(dir, "randonnees_enrich.json")
	idx := filepath.Join(dir, "gpx_urls.json")
	if err := os.WriteFile(data, []byte(dataset), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(idx, []byte(index), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return data, idx
}

func testConfig(dataPath, indexPath string) config.Config {
	return config.Config{
		DataPath:            dataPath,
		TrackIndexPath:      indexPath,
		TrackProxy:          "https://corsproxy.io/?",
		GeometryConcurrency: 2,
		BootstrapTimeout:    5 * time.Second,
		PageLength:          10,
		FitMaxZoom:          12,
		FitPadding:          50,
		FitDurationMs:       1000,
	}
}

func TestBootstrapAndViewer(t *testing.T) {
	data, idx := writeFiles(t)
	cfg := testConfig(data, idx)
	pub := &recorder{}
	a := New(cfg, hike.NewJSONLoader(nil, data), nil, lineLoader{}, pub)

	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	cat, banner := a.Catalogue()
	if banner != nil || cat == nil {
		t.Fatalf("expected catalogue without banner")
	}
	if len(cat.Rows) != 3 || cat.Rows[0].Cells[11] != "4.2 ± 0.5" {
		t.Fatalf("unexpected rows %+v", cat.Rows)
	}
	if len(cat.Regions) != 2 || cat.Regions[0] != "Alpes" || cat.Levels[0] != "AD" {
		t.Fatalf("unexpected selectors %v %v", cat.Regions, cat.Levels)
	}
	if got, ok := a.First("1"); !ok || got != "https://x/1.kml" {
		t.Fatalf("expected KML for row 1, got %q", got)
	}

	v, err := a.Viewers().Create()
	if err != nil {
		t.Fatalf("create viewer: %v", err)
	}
	if ids := v.Table.VisibleRowIDs(); len(ids) != 3 || ids[0] != "2" {
		t.Fatalf("expected rows ordered by altitude, got %v", ids)
	}

	res := v.LoadMap(context.Background())
	if len(res.Groups) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(res.Groups))
	}
	if res.Groups[0].RID != "1" || res.Groups[0].Source.Data != "kml://https://corsproxy.io/?https://x/1.kml" {
		t.Fatalf("unexpected first group %+v", res.Groups[0].Source)
	}
	if res.Viewport == nil || res.Viewport.MaxZoom != 12 {
		t.Fatalf("expected viewport")
	}

	pub.mu.Lock()
	n := len(pub.events)
	last := pub.events[n-1]
	pub.mu.Unlock()
	if last.Type != "map.sync" || last.ViewerID != v.ID || len(last.Map.Groups) != 2 {
		t.Fatalf("unexpected published event %+v", last)
	}

	var greeting SyncEvent
	if err := json.Unmarshal(a.Greeting(v.ID), &greeting); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	if greeting.Type != "map.state" || len(greeting.Map.Groups) != 2 {
		t.Fatalf("unexpected greeting %+v", greeting)
	}
	if a.Greeting("nobody") != nil {
		t.Fatalf("expected no greeting for unknown viewer")
	}
}

func TestBootstrapDatasetFailureShowsBanner(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL+"/randonnees_enrich.json", srv.URL+"/gpx_urls.json")
	a := New(cfg, hike.NewJSONLoader(srv.Client(), cfg.DataPath), srv.Client(), lineLoader{}, nil)

	if err := a.Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected bootstrap error")
	}
	cat, banner := a.Catalogue()
	if cat != nil || banner == nil {
		t.Fatalf("expected banner and no catalogue")
	}
	if banner.Heading != "Erreur de chargement" ||
		banner.Message != "Une erreur s'est produite lors du chargement des données. Veuillez rafraîchir la page." ||
		banner.Class != "alert alert-danger m-3" || banner.Detail == "" {
		t.Fatalf("unexpected banner %+v", banner)
	}
	if _, err := a.Viewers().Create(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected not ready, got %v", err)
	}

	app := fiber.New()
	a.RegisterRoutes(app.Group("/api"), auth.NewService("secret", time.Hour))
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil),
		httptest.NewRequest(http.MethodPost, "/api/viewers", nil),
	} {
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.StatusCode)
		}
		var body struct {
			Banner Banner `json:"banner"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Banner.Heading != "Erreur de chargement" {
			t.Fatalf("expected banner in body")
		}
	}
}

func TestBootstrapMalformedDataset(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data.json")
	_ = os.WriteFile(data, []byte(`{"rid": 1}`), 0o600)

	a := New(testConfig(data, ""), hike.NewJSONLoader(nil, data), nil, lineLoader{}, nil)
	if err := a.Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, banner := a.Catalogue(); banner == nil {
		t.Fatalf("expected banner")
	}

	a = New(testConfig(data, ""), nil, nil, lineLoader{}, nil)
	if err := a.Bootstrap(context.Background()); err == nil {
		t.Fatalf("expected error without loader")
	}
}

func TestTrackIndexFailureLeavesMapEmpty(t *testing.T) {
	data, _ := writeFiles(t)
	cfg := testConfig(data, filepath.Join(t.TempDir(), "missing.json"))
	hikes, err := hike.Decode([]byte(dataset))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	a := New(cfg, staticLoader{hikes: hikes}, nil, lineLoader{}, nil)

	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("track index failure must not fail bootstrap: %v", err)
	}
	v, err := a.Viewers().Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	res := v.LoadMap(context.Background())
	if len(res.Groups) != 0 || res.Viewport != nil {
		t.Fatalf("expected empty map, got %+v", res)
	}
	if page := v.Page(context.Background()); page.Total != 3 {
		t.Fatalf("table must still be populated")
	}
}

func TestHandlersBootstrapAndViewers(t *testing.T) {
	data, idx := writeFiles(t)
	a := New(testConfig(data, idx), hike.NewJSONLoader(nil, data), nil, lineLoader{}, nil)

	app := fiber.New()
	tokens := auth.NewService("secret", time.Hour)
	a.RegisterRoutes(app.Group("/api"), tokens)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil))
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before bootstrap, got %d", resp.StatusCode)
	}

	if err := a.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/bootstrap", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var boot BootstrapResponse
	if err := json.NewDecoder(resp.Body).Decode(&boot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(boot.Regions) != 2 || len(boot.Levels) != 3 || boot.Tracks != 2 || boot.TableOptions.PageLength != 10 {
		t.Fatalf("unexpected bootstrap %+v", boot)
	}
	if boot.Map.Zoom != 7 || boot.Map.Center != [2]float64{0.5, 42.8} {
		t.Fatalf("unexpected map options %+v", boot.Map)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodPost, "/api/viewers", nil))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var token auth.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, err := tokens.Validate(token.AccessToken)
	if err != nil || id != token.ViewerID || !a.Viewers().Exists(id) {
		t.Fatalf("token must name a live viewer: %v", err)
	}
}
