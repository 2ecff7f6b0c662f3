package viewer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MatFrancois/opotopo/internal/auth"
	"github.com/MatFrancois/opotopo/internal/mapsync"

	"github.com/gofiber/fiber/v2"
)

type client struct {
	t     *testing.T
	app   *fiber.App
	token string
}

func (c client) do(method, path string, body any) *http.Response {
	c.t.Helper()
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.app.Test(req, -1)
	if err != nil {
		c.t.Fatalf("request %s %s: %v", method, path, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func setup(t *testing.T) (client, *Registry) {
	t.Helper()
	reg := NewRegistry(buildViewer)
	v, err := reg.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	svc := auth.NewService("secret", time.Hour)
	token, _ := svc.Issue(v.ID)

	app := fiber.New()
	RegisterRoutes(app.Group("/api"), reg, auth.JWTMiddleware("secret"))
	app.Get("/api/open", func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })
	return client{t: t, app: app, token: token.AccessToken}, reg
}

func TestHandlersRequireToken(t *testing.T) {
	c, _ := setup(t)
	anon := client{t: t, app: c.app}

	if resp := anon.do(http.MethodGet, "/api/table", nil); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if resp := anon.do(http.MethodGet, "/api/open", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("sibling routes must stay open, got %d", resp.StatusCode)
	}

	token, _ := auth.NewService("secret", time.Hour).Issue("gone")
	ghost := client{t: t, app: c.app, token: token.AccessToken}
	if resp := ghost.do(http.MethodGet, "/api/table", nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown viewer, got %d", resp.StatusCode)
	}
}

func TestHandlersTableAndFilters(t *testing.T) {
	c, _ := setup(t)

	var page Page
	resp := c.do(http.MethodGet, "/api/table", nil)
	decode(t, resp, &page)
	if page.Total != 12 || len(page.Rows) != 10 || page.Pages != 2 {
		t.Fatalf("unexpected page %+v", page.DrawInfo)
	}

	resp = c.do(http.MethodPost, "/api/table/draw", map[string]any{
		"order":       []map[string]any{{"column": 0, "desc": true}},
		"page_length": 25,
	})
	decode(t, resp, &page)
	if len(page.Rows) != 12 || page.Rows[0].ID != "11" {
		t.Fatalf("expected descending single page, got %d rows starting %s", len(page.Rows), page.Rows[0].ID)
	}

	var fr FilterResponse
	resp = c.do(http.MethodPost, "/api/filters", map[string]any{"alt-max": "1200", "rando-filter": "rando"})
	decode(t, resp, &fr)
	if fr.Table.Filtered != 3 || fr.Filters.Form.AltMax != "1200" {
		t.Fatalf("unexpected filter result %+v", fr.Table.DrawInfo)
	}

	resp = c.do(http.MethodGet, "/api/filters", nil)
	var state struct {
		Form    map[string]any   `json:"form"`
		Regions []map[string]any `json:"regions"`
		Levels  []map[string]any `json:"levels"`
	}
	decode(t, resp, &state)
	if state.Form["alt-max"] != "1200" || len(state.Regions) != 3 || len(state.Levels) != 2 {
		t.Fatalf("unexpected filter state %+v", state)
	}

	resp = c.do(http.MethodPost, "/api/regions/toggle", RegionRequest{Region: "Alpes"})
	var rr RegionResponse
	decode(t, resp, &rr)
	if !rr.Active || rr.Table.Filtered != 6 {
		t.Fatalf("unexpected toggle %+v", rr.Table.DrawInfo)
	}
	if resp := c.do(http.MethodPost, "/api/regions/toggle", RegionRequest{Region: "Jura"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown region")
	}
	if resp := c.do(http.MethodPost, "/api/regions/toggle", RegionRequest{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing region")
	}

	resp = c.do(http.MethodPost, "/api/regions/all", nil)
	decode(t, resp, &fr)
	if fr.Table.Filtered != 12 {
		t.Fatalf("expected all rows, got %d", fr.Table.Filtered)
	}

	resp = c.do(http.MethodPost, "/api/filters/clear", nil)
	decode(t, resp, &fr)
	if fr.Table.Filtered != 12 || fr.Filters.Form.AltMax != "" {
		t.Fatalf("expected cleared filters")
	}
}

func TestHandlersMap(t *testing.T) {
	c, _ := setup(t)

	var res mapsync.Result
	decode(t, c.do(http.MethodGet, "/api/map", nil), &res)
	if res.Loaded || len(res.Groups) != 0 {
		t.Fatalf("map must be empty before load")
	}

	decode(t, c.do(http.MethodPost, "/api/map/load", nil), &res)
	if !res.Loaded || len(res.Groups) != 10 || res.Viewport == nil {
		t.Fatalf("unexpected load result: %d groups", len(res.Groups))
	}
	if res.Viewport.MaxZoom != 12 || res.Viewport.Padding.Top != 50 {
		t.Fatalf("unexpected fit %+v", res.Viewport)
	}

	var popup mapsync.Popup
	decode(t, c.do(http.MethodPost, "/api/map/click", ClickRequest{RID: "2", Lng: 0.5, Lat: 42.5}), &popup)
	if popup.Name != "Rando 2" || popup.Color != mapsync.Palette[2] {
		t.Fatalf("unexpected popup %+v", popup)
	}

	var hover mapsync.Hover
	decode(t, c.do(http.MethodPost, "/api/map/hover", HoverRequest{RID: "2", Enter: true}), &hover)
	if hover.Cursor != "pointer" || len(hover.Changes) != 3 {
		t.Fatalf("unexpected hover %+v", hover)
	}

	if resp := c.do(http.MethodPost, "/api/map/click", ClickRequest{RID: "11"}); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for a row without track, got %d", resp.StatusCode)
	}
	if resp := c.do(http.MethodPost, "/api/map/hover", HoverRequest{}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without rid")
	}
}
