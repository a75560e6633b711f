package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"potager/internal/adapters/exports"
	"potager/internal/blob"
	"potager/internal/core"
	"potager/pkg/domain"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *core.Service) {
	t.Helper()
	svc := core.NewInMemoryService(nil)
	return NewServer(svc, opts...), svc
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return out
}

func TestCultureRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, "GET", "/cultures", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %d %s", w.Code, w.Body.String())
	}

	w = do(t, srv, "POST", "/cultures", `{"name":"Tomate","sow_date":"2024-03-01","cultivation_type":"serre","emoji":"🍅"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	created := decodeBody[domain.Culture](t, w)

	w = do(t, srv, "POST", "/cultures", `{"name":"Tomate"}`)
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "sow_date") {
		t.Fatalf("expected 400 naming sow_date, got %d %s", w.Code, w.Body.String())
	}

	w = do(t, srv, "PUT", "/cultures/"+created.ID, `{"name":"Tomate cerise","sow_date":"2024-03-02","cultivation_type":"serre"}`)
	if w.Code != http.StatusOK || decodeBody[domain.Culture](t, w).Name != "Tomate cerise" {
		t.Fatalf("unexpected update response %d", w.Code)
	}

	w = do(t, srv, "GET", "/cultures/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = do(t, srv, "DELETE", "/cultures/"+created.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/cultures/"+created.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"error"`) {
		t.Fatalf("expected error body, got %s", w.Body.String())
	}

	w = do(t, srv, "POST", "/cultures/import", `[{"name":"Ail","sow_date":"2024-10-01","cultivation_type":"pleine terre"},{"name":"Oignon"}]`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for partial batch, got %d", w.Code)
	}
	w = do(t, srv, "POST", "/cultures/import", `[{"name":"Ail","sow_date":"2024-10-01","cultivation_type":"pleine terre"}]`)
	if w.Code != http.StatusCreated || len(decodeBody[[]domain.Culture](t, w)) != 1 {
		t.Fatalf("expected 201 import, got %d", w.Code)
	}

	w = do(t, srv, "POST", "/cultures", `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", w.Code)
	}
}

func TestPopularCropsRoute(t *testing.T) {
	srv, svc := newTestServer(t)
	ctx := t.Context()
	_, _ = svc.SyncCrops(ctx, []domain.Crop{{ID: "a", Name: "A", Emoji: "a"}, {ID: "b", Name: "B", Emoji: "b"}})
	p, _, _ := svc.CreatePlot(ctx, "P", 1, 1)
	_, _, _ = svc.SetCell(ctx, p.ID, 0, 0, &domain.CellAssignment{Emoji: "b", CropID: "b", CropName: "B"})

	w := do(t, srv, "GET", "/cultures/popular?limit=1", "")
	crops := decodeBody[[]domain.Crop](t, w)
	if len(crops) != 1 || crops[0].ID != "b" || crops[0].UsageCount != 1 {
		t.Fatalf("unexpected popular crops %+v", crops)
	}
	if w := do(t, srv, "GET", "/cultures/popular?limit=x", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", w.Code)
	}
}

func TestPlotRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, "POST", "/parcelles/create", `{"name":"Nord","rows":30,"cols":2}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	plot := decodeBody[domain.Plot](t, w)
	if plot.Rows != 20 || len(plot.Grid) != 40 {
		t.Fatalf("expected clamped plot, got %dx%d", plot.Rows, plot.Cols)
	}
	if w := do(t, srv, "POST", "/parcelles/create", `{"rows":2}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without name, got %d", w.Code)
	}
	w = do(t, srv, "POST", "/parcelles/create", `{"name":"Défaut"}`)
	if p := decodeBody[domain.Plot](t, w); p.Rows != 1 || p.Cols != 1 {
		t.Fatalf("expected 1x1 default, got %dx%d", p.Rows, p.Cols)
	}

	w = do(t, srv, "POST", "/parcelles", `{"plot_id":"`+plot.ID+`","row":1,"col":1,"cell":{"emoji":"🥕","crop_id":"carotte","crop_name":"Carotte"}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if got := decodeBody[domain.Plot](t, w).Grid[3]; got == nil || got.CropID != "carotte" {
		t.Fatalf("expected cell set, got %+v", got)
	}
	w = do(t, srv, "POST", "/parcelles", `{"plot_id":"`+plot.ID+`","row":0,"col":0,"cell":"🍅,tomate,Tomate"}`)
	if got := decodeBody[domain.Plot](t, w).Grid[0]; got == nil || got.CropName != "Tomate" {
		t.Fatalf("expected legacy token accepted, got %+v", got)
	}
	w = do(t, srv, "POST", "/parcelles", `{"plot_id":"`+plot.ID+`","row":1,"col":1,"cell":null}`)
	if decodeBody[domain.Plot](t, w).Grid[3] != nil {
		t.Fatalf("expected cell cleared")
	}
	if w := do(t, srv, "POST", "/parcelles", `{"plot_id":"`+plot.ID+`","row":99,"col":0}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 out of range, got %d", w.Code)
	}
	if w := do(t, srv, "POST", "/parcelles", `{"plot_id":"nope","row":0,"col":0}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = do(t, srv, "POST", "/parcelles/position", `{"plot_id":"`+plot.ID+`","row":95,"col":0}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	pos := decodeBody[PositionResponse](t, w)
	if pos.Row != 95 || len(pos.Warnings) == 0 {
		t.Fatalf("expected out-of-bounds warning, got %+v", pos)
	}

	w = do(t, srv, "GET", "/parcelles", "")
	if list := decodeBody[[]domain.Plot](t, w); len(list) != 2 || list[0].ID != plot.ID {
		t.Fatalf("unexpected plot list %+v", list)
	}
	if w := do(t, srv, "GET", "/parcelles/"+plot.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := do(t, srv, "DELETE", "/parcelles/"+plot.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/parcelles/positions", "")
	if list := decodeBody[[]domain.Position](t, w); len(list) != 1 {
		t.Fatalf("expected dangling position kept, got %+v", list)
	}
}

func TestGardenRoutes(t *testing.T) {
	srv, _ := newTestServer(t)
	w := do(t, srv, "GET", "/potager/size", "")
	if g := decodeBody[GardenResponse](t, w); g.Rows != 10 || g.Cols != 10 {
		t.Fatalf("expected default garden, got %+v", g)
	}
	w = do(t, srv, "POST", "/potager/size", `{"rows":12,"cols":0}`)
	if g := decodeBody[GardenResponse](t, w); g.Rows != 12 || g.Cols != 1 {
		t.Fatalf("expected clamped garden, got %+v", g)
	}
}

func TestVersionRoutes(t *testing.T) {
	store := blob.NewMemory()
	srv, _ := newTestServer(t, WithArchive(exports.NewArchive(store)))

	doc := `{"name":"Printemps","plots":[{"id":"a","name":"A","rows":1,"cols":2}],"positions":{"a":{"row":0,"col":1}},"cells":{"a":[{"emoji":"🍅","crop_id":"tomate","crop_name":"Tomate"}]}}`
	w := do(t, srv, "POST", "/versions", doc)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	created := decodeBody[domain.Version](t, w)
	if len(created.Cells["a"]) != 2 {
		t.Fatalf("expected padded grid")
	}

	w = do(t, srv, "GET", "/versions/export/"+created.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Fatalf("expected attachment, got %q", cd)
	}
	key := w.Header().Get("X-Export-Key")
	if !strings.HasPrefix(key, "exports/versions/"+created.ID+"/") {
		t.Fatalf("unexpected archive key %q", key)
	}
	if _, _, err := store.Get(t.Context(), key); err != nil {
		t.Fatalf("expected archived blob: %v", err)
	}
	exported := w.Body.String()

	w = do(t, srv, "POST", "/versions/import", exported)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", w.Code, w.Body.String())
	}
	if imported := decodeBody[domain.Version](t, w); imported.ID == created.ID {
		t.Fatalf("expected fresh id")
	}

	if w := do(t, srv, "POST", "/versions/import", `{"bogus":true}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed document, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/versions", "")
	if list := decodeBody[[]domain.Version](t, w); len(list) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(list))
	}
	if w := do(t, srv, "GET", "/versions/export/missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestRuleViolationMapsToConflict(t *testing.T) {
	engine := core.NewRulesEngine()
	engine.Register(core.NewPlotShapeRule())
	engine.Register(blockGarden{})
	srv := NewServer(core.NewInMemoryService(engine))
	w := do(t, srv, "POST", "/potager/size", `{"rows":5,"cols":5}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	body := decodeBody[violationResponse](t, w)
	if len(body.Violations) != 1 || body.Violations[0].Rule != "no_resize" {
		t.Fatalf("unexpected violations %+v", body)
	}
}

func TestHeadersHealthAndMetrics(t *testing.T) {
	rec := core.NewPrometheusMetricsRecorder()
	svc := core.NewInMemoryService(nil, core.WithMetricsRecorder(rec))
	srv := NewServer(svc, WithMetrics(rec.Registry()), WithCORSOrigin("*"))

	w := do(t, srv, "GET", "/healthz", "")
	if w.Code != http.StatusOK || w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("unexpected healthz response %d %v", w.Code, w.Header())
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected CORS header")
	}
	if w := do(t, srv, "OPTIONS", "/cultures", ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", w.Code)
	}

	_ = do(t, srv, "GET", "/parcelles", "")
	w = do(t, srv, "GET", "/metrics", "")
	if !strings.Contains(w.Body.String(), `potager_operations_total{operation="plot.list",status="success"} 1`) {
		t.Fatalf("expected operation counter in exposition, got:\n%s", w.Body.String())
	}

	plain, _ := newTestServer(t)
	if w := do(t, plain, "GET", "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected metrics disabled, got %d", w.Code)
	}
	if w := do(t, plain, "PATCH", "/cultures", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
