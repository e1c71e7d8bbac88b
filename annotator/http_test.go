package annotator

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hazyhaar/annotator/annotation"
)

func newServer(t *testing.T) (*harness, *httptest.Server) {
	t.Helper()
	h := newHarness(t)
	srv := httptest.NewServer(Handler(h.c, h.c.logger))
	t.Cleanup(srv.Close)
	return h, srv
}

func do(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestHTTP_AnnotationLifecycle(t *testing.T) {
	_, srv := newServer(t)

	resp := do(t, "POST", srv.URL+"/annotations", `{"selector":"h1.title","comment":"Bigger"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d", resp.StatusCode)
	}
	a := decode[annotation.Annotation](t, resp)
	if a.ID == "" || a.Selector != "h1.title" || a.Comment != "Bigger" {
		t.Fatalf("created = %+v", a)
	}

	resp = do(t, "GET", srv.URL+"/annotations", "")
	if list := decode[[]annotation.Annotation](t, resp); len(list) != 1 {
		t.Fatalf("list = %+v", list)
	}

	resp = do(t, "PATCH", srv.URL+"/annotations/"+a.ID, `{"comment":"Smaller"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit: status %d", resp.StatusCode)
	}
	if got := decode[annotation.Annotation](t, resp); got.Comment != "Smaller" {
		t.Fatalf("edited = %+v", got)
	}

	resp = do(t, "GET", srv.URL+"/annotations/"+a.ID, "")
	if got := decode[annotation.Annotation](t, resp); got.Comment != "Smaller" {
		t.Fatalf("get = %+v", got)
	}

	if resp := do(t, "DELETE", srv.URL+"/annotations/"+a.ID, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", resp.StatusCode)
	}
	if resp := do(t, "GET", srv.URL+"/annotations/"+a.ID, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", resp.StatusCode)
	}
}

func TestHTTP_Errors(t *testing.T) {
	_, srv := newServer(t)

	cases := []struct {
		method, path, body string
		want               int
	}{
		{"POST", "/annotations", `{"selector":"h1.title","comment":"  "}`, http.StatusBadRequest},
		{"POST", "/annotations", `{"selector":".nope","comment":"x"}`, http.StatusNotFound},
		{"POST", "/annotations", `not json`, http.StatusBadRequest},
		{"PATCH", "/annotations/missing", `{"comment":"x"}`, http.StatusNotFound},
		{"POST", "/clear-all/confirm", "", http.StatusConflict},
		{"GET", "/inspect", "", http.StatusBadRequest},
		{"GET", "/inspect?selector=table", "", http.StatusNotFound},
		{"GET", "/measure?x=abc&y=1", "", http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := do(t, tc.method, srv.URL+tc.path, tc.body)
		if resp.StatusCode != tc.want {
			t.Errorf("%s %s: status %d, want %d", tc.method, tc.path, resp.StatusCode, tc.want)
		}
	}
}

func TestHTTP_ModeAndClearAll(t *testing.T) {
	h, srv := newServer(t)

	resp := do(t, "POST", srv.URL+"/toggle", "")
	if m := decode[map[string]string](t, resp); m["mode"] != "tracking" {
		t.Fatalf("toggle = %v", m)
	}
	resp = do(t, "GET", srv.URL+"/mode", "")
	if m := decode[map[string]string](t, resp); m["mode"] != "tracking" {
		t.Fatalf("mode = %v", m)
	}

	do(t, "POST", srv.URL+"/annotations", `{"selector":"p.lede","comment":"one"}`)
	resp = do(t, "POST", srv.URL+"/clear-all", "")
	if m := decode[map[string]bool](t, resp); m["cleared"] || !m["armed"] {
		t.Fatalf("first clear-all = %v", m)
	}
	if resp := do(t, "POST", srv.URL+"/clear-all/confirm", ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("confirm: status %d", resp.StatusCode)
	}
	if len(h.c.Annotations()) != 0 {
		t.Fatal("annotations survived confirmed clear")
	}
}

func TestHTTP_DeleteAllNeedsConfirm(t *testing.T) {
	h, srv := newServer(t)
	do(t, "POST", srv.URL+"/annotations", `{"selector":"p.lede","comment":"one"}`)

	resp := do(t, "DELETE", srv.URL+"/annotations", "")
	if m := decode[map[string]bool](t, resp); m["cleared"] || !m["armed"] {
		t.Fatalf("first DELETE = %v, want armed", m)
	}
	if len(h.c.Annotations()) != 1 {
		t.Fatal("a single DELETE /annotations cleared the list")
	}

	resp = do(t, "DELETE", srv.URL+"/annotations", "")
	if m := decode[map[string]bool](t, resp); !m["cleared"] {
		t.Fatalf("second DELETE = %v, want cleared", m)
	}
	if len(h.c.Annotations()) != 0 {
		t.Fatal("annotations survived confirmed DELETE")
	}
}

func TestHTTP_ExportInspectMeasure(t *testing.T) {
	h, srv := newServer(t)
	h.c.CreateAt(t.Context(), "h1.title", "Bigger")

	resp := do(t, "GET", srv.URL+"/export.md", "")
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("markdown content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "**Annotation:** Bigger") {
		t.Errorf("markdown export:\n%s", body)
	}

	resp = do(t, "GET", srv.URL+"/export.json", "")
	if p := decode[map[string]any](t, resp); p["url"] != "https://site.example/landing" {
		t.Errorf("json export url = %v", p["url"])
	}

	resp = do(t, "GET", srv.URL+"/inspect?x=150&y=125", "")
	in := decode[Inspection](t, resp)
	if in.Tag != "h1" || in.AnnotationID == "" {
		t.Errorf("inspect = %+v", in)
	}

	resp = do(t, "GET", srv.URL+"/measure?x=150&y=125", "")
	m := decode[Measurement](t, resp)
	if m.Tag != "h1" || m.Crosshair == nil || m.Box == nil {
		t.Errorf("measure = %+v", m)
	}

	resp = do(t, "GET", srv.URL+"/healthz", "")
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}
