package httpapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formbuilder/internal/httpapi"
	"github.com/goliatone/go-formbuilder/pkg/export"
	"github.com/goliatone/go-formbuilder/pkg/model"
	"github.com/goliatone/go-formbuilder/pkg/render"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

type fixture struct {
	t       *testing.T
	store   *store.Store
	handler http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	s := store.New(context.Background(), store.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("el-%d", n)
	}))
	srv, err := httpapi.New(s, httpapi.WithAllowedOrigins("http://localhost:5173"), httpapi.WithTitle("Signup"))
	require.NoError(t, err)
	return &fixture{t: t, store: s, handler: srv.Handler()}
}

func (f *fixture) do(method, path, contentType, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) json(method, path, body string) *httptest.ResponseRecorder {
	f.t.Helper()
	return f.do(method, path, "application/json", body)
}

func (f *fixture) add(typ model.Type) model.Element {
	f.t.Helper()
	rec := f.json(http.MethodPost, "/api/elements", fmt.Sprintf(`{"type":%q}`, typ))
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	var el model.Element
	require.NoError(f.t, json.Unmarshal(rec.Body.Bytes(), &el))
	return el
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type elementsBody struct {
	Elements  []model.Element `json:"elements"`
	CanExport bool            `json:"canExport"`
}

func ids(elements []model.Element) []string {
	out := make([]string, len(elements))
	for i, el := range elements {
		out[i] = el.ID
	}
	return out
}

func TestHealthzAndMetrics(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"success"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `formbuilder_http_requests_total{code="200",method="GET",route="GET /healthz"} 1`)
}

func TestCORS(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/elements", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPaletteAndElements(t *testing.T) {
	f := newFixture(t)

	palette := decode[[]model.PaletteEntry](t, f.do(http.MethodGet, "/api/palette", "", ""))
	require.Len(t, palette, 7)
	require.Equal(t, "Text Input", palette[0].Label)

	body := decode[elementsBody](t, f.do(http.MethodGet, "/api/elements", "", ""))
	require.Equal(t, model.Initial(), body.Elements)
	require.False(t, body.CanExport)
}

func TestDropTarget(t *testing.T) {
	f := newFixture(t)

	el := f.add(model.TypeText)
	require.Equal(t, "el-1", el.ID)
	require.Equal(t, "Text Input 1", el.Label)

	for _, payload := range []string{`{"type":"submit"}`, `{"type":"date"}`, `{}`} {
		rec := f.json(http.MethodPost, "/api/elements", payload)
		require.Equal(t, http.StatusNoContent, rec.Code, payload)
	}
	require.Equal(t, []string{"el-1", model.SubmitID}, ids(f.store.Elements()))

	rec := f.json(http.MethodPost, "/api/elements", `{`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateElement(t *testing.T) {
	f := newFixture(t)
	num := f.add(model.TypeNumber)

	rec := f.json(http.MethodPatch, "/api/elements/"+num.ID, `{"label":"Age","required":true,"value":"42"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got, _ := f.store.Find(num.ID)
	require.Equal(t, "Age", got.Label)
	require.True(t, got.Required)
	require.Equal(t, model.NumberOf(42), got.Number)

	rec = f.json(http.MethodPatch, "/api/elements/"+num.ID, `{"value":"abc"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.json(http.MethodPatch, "/api/elements/missing", `{"label":"x"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.json(http.MethodPatch, "/api/elements/"+model.SubmitID, `{"label":"Send"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	submit, _ := f.store.Find(model.SubmitID)
	require.Equal(t, "Send", submit.Label)
}

func TestRemoveElement(t *testing.T) {
	f := newFixture(t)
	el := f.add(model.TypeEmail)

	require.Equal(t, http.StatusConflict, f.do(http.MethodDelete, "/api/elements/"+model.SubmitID, "", "").Code)
	require.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/elements/"+el.ID, "", "").Code)
	require.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/elements/"+el.ID, "", "").Code)
	require.Equal(t, model.Initial(), f.store.Elements())
}

func TestReorder(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.add(model.TypeText)
	}

	rec := f.json(http.MethodPost, "/api/elements/reorder", `{"oldIndex":0,"newIndex":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[elementsBody](t, rec)
	require.Equal(t, []string{"el-2", "el-3", "el-1", model.SubmitID}, ids(body.Elements))

	rec = f.json(http.MethodPost, "/api/elements/reorder", `{"activeId":"el-1","overId":"el-2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"el-1", "el-2", "el-3", model.SubmitID}, ids(f.store.Elements()))

	rec = f.json(http.MethodPost, "/api/elements/reorder", `{"oldIndex":0,"newIndex":3}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, []string{"el-1", "el-2", "el-3", model.SubmitID}, ids(f.store.Elements()))

	rec = f.json(http.MethodPost, "/api/elements/reorder", `{"oldIndex":0}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, pair := range metric.GetLabel() {
				if pair.GetName() == label && pair.GetValue() == value {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestReorder_CountsOnlyEffectiveMoves(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := store.New(context.Background())
	srv, err := httpapi.New(s, httpapi.WithMetricsRegistry(reg))
	require.NoError(t, err)
	f := &fixture{t: t, store: s, handler: srv.Handler()}
	f.add(model.TypeText)
	f.add(model.TypeEmail)

	rec := f.json(http.MethodPost, "/api/elements/reorder", `{"oldIndex":1,"newIndex":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Zero(t, counterValue(t, reg, "formbuilder_store_mutations_total", "op", "reorder"))

	rec = f.json(http.MethodPost, "/api/elements/reorder", `{"oldIndex":1,"newIndex":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1.0, counterValue(t, reg, "formbuilder_store_mutations_total", "op", "reorder"))
	require.Equal(t, 2.0, counterValue(t, reg, "formbuilder_store_mutations_total", "op", "add"))
}

func TestOptionEditor(t *testing.T) {
	f := newFixture(t)
	sel := f.add(model.TypeSelect)
	text := f.add(model.TypeText)
	base := "/api/elements/" + sel.ID + "/options"

	rec := f.json(http.MethodPost, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode[model.Element](t, rec).Options, len(sel.Options)+1)

	rec = f.json(http.MethodPut, base+"/0", `{"value":"Red"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Red", decode[model.Element](t, rec).Options[0])

	require.Equal(t, http.StatusBadRequest, f.json(http.MethodPut, base+"/99", `{"value":"x"}`).Code)
	require.Equal(t, http.StatusBadRequest, f.json(http.MethodPut, base+"/x", `{"value":"x"}`).Code)
	require.Equal(t, http.StatusBadRequest, f.json(http.MethodPost, "/api/elements/"+text.ID+"/options", "").Code)
	require.Equal(t, http.StatusNotFound, f.json(http.MethodPost, "/api/elements/missing/options", "").Code)

	for {
		el, _ := f.store.Find(sel.ID)
		if len(el.Options) == 1 {
			break
		}
		require.Equal(t, http.StatusOK, f.do(http.MethodDelete, base+"/0", "", "").Code)
	}
	require.Equal(t, http.StatusConflict, f.do(http.MethodDelete, base+"/0", "", "").Code)
	require.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, base+"/5", "", "").Code)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.add(model.TypeCheckbox)
	rec := f.json(http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, model.Initial(), f.store.Elements())
}

func TestSubmit_JSON(t *testing.T) {
	f := newFixture(t)
	text := f.add(model.TypeText)
	email := f.add(model.TypeEmail)
	f.json(http.MethodPatch, "/api/elements/"+text.ID, `{"required":true}`)

	rec := f.json(http.MethodPost, "/api/submit", fmt.Sprintf(`{%q:"",%q:"not-an-email"}`, text.ID, email.ID))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.JSONEq(t, `{"errors":{"el-1":"Text Input 1 is required","el-2":"Email 1 must be a valid email"}}`, rec.Body.String())

	rec = f.json(http.MethodPost, "/api/submit", fmt.Sprintf(`{%q:"hi",%q:""}`, text.ID, email.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"el-1":"hi","el-2":""}}`, rec.Body.String())
}

func TestSubmit_NumberScenario(t *testing.T) {
	f := newFixture(t)
	num := f.add(model.TypeNumber)
	f.json(http.MethodPatch, "/api/elements/"+num.ID, `{"required":true}`)

	rec := f.json(http.MethodPost, "/api/submit", `{"el-1":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "is required")

	rec = f.json(http.MethodPost, "/api/submit", `{"el-1":"abc"}`)
	require.Contains(t, rec.Body.String(), "must be a number")

	rec = f.json(http.MethodPost, "/api/submit", `{"el-1":"5"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"el-1":5}}`, rec.Body.String())
}

func TestPreviewAndFormSubmit(t *testing.T) {
	f := newFixture(t)
	text := f.add(model.TypeText)
	f.json(http.MethodPatch, "/api/elements/"+text.ID, `{"label":"Name","required":true}`)
	f.add(model.TypeCheckbox)

	rec := f.do(http.MethodGet, "/preview", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	page := rec.Body.String()
	version := render.Fingerprint(f.store.Elements())
	require.Contains(t, page, `action="/api/submit"`)
	require.Contains(t, page, `value="`+version+`"`)
	require.Contains(t, page, "<h1>Signup</h1>")

	form := url.Values{render.VersionFieldName: {version}, "el-1": {""}}
	rec = f.do(http.MethodPost, "/api/submit", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "Name is required")

	form = url.Values{render.VersionFieldName: {version}, "el-1": {"Ada"}, "el-2": {"true"}}
	rec = f.do(http.MethodPost, "/api/submit", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"data":{"el-1":"Ada","el-2":true}}`, rec.Body.String())

	f.add(model.TypeEmail)
	rec = f.do(http.MethodPost, "/api/submit", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), render.Fingerprint(f.store.Elements()))
}

func TestValidateField(t *testing.T) {
	f := newFixture(t)
	email := f.add(model.TypeEmail)

	rec := f.json(http.MethodPost, "/api/validate/"+email.ID, `{"value":"nope"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"valid":false,"error":"Email 1 must be a valid email"}`, rec.Body.String())

	rec = f.json(http.MethodPost, "/api/validate/"+email.ID, `{"value":"a@b.co"}`)
	require.JSONEq(t, `{"valid":true}`, rec.Body.String())

	require.Equal(t, http.StatusNotFound, f.json(http.MethodPost, "/api/validate/"+model.SubmitID, `{}`).Code)
}

func TestExportAndImport(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusConflict, f.do(http.MethodGet, "/api/export", "", "").Code)

	f.add(model.TypeRadio)
	f.add(model.TypeNumber)

	rec := f.do(http.MethodGet, "/api/export", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `attachment; filename=form-data.json`, rec.Header().Get("Content-Disposition"))
	want, err := export.JSON(f.store.Elements())
	require.NoError(t, err)
	require.Equal(t, string(want), rec.Body.String())

	rec = f.do(http.MethodGet, "/api/export?format=yaml", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))

	rec = f.do(http.MethodGet, "/api/export?format=openapi", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	openapiDoc := rec.Body.String()
	require.Contains(t, openapiDoc, `"operationId": "submitForm"`)

	require.Equal(t, http.StatusBadRequest, f.do(http.MethodGet, "/api/export?format=pdf", "", "").Code)

	exported := f.store.Elements()
	f.json(http.MethodPost, "/api/reset", "")

	rec = f.json(http.MethodPost, "/api/import", string(want))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, exported, f.store.Elements())

	f.json(http.MethodPost, "/api/reset", "")
	rec = f.json(http.MethodPost, "/api/import?format=openapi", openapiDoc)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, ids(exported), ids(f.store.Elements()))

	rec = f.json(http.MethodPost, "/api/import", `[{"id":"a","type":"text","label":"A","value":""}]`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, ids(exported), ids(f.store.Elements()))

	rec = f.json(http.MethodPost, "/api/import?format=yaml", "a: b")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
