package shield

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/annotator/kit"
)

func router() *chi.Mux {
	r := chi.NewRouter()
	for _, mw := range DefaultStack(nil) {
		r.Use(mw)
	}
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, kit.GetTransport(r.Context())+" "+kit.GetRequestID(r.Context()))
	})
	r.Post("/echo", func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func TestStack_HeadersAndRequestID(t *testing.T) {
	srv := httptest.NewServer(router())
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/ping", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "http abc" {
		t.Fatalf("body = %q", body)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" || resp.Header.Get("X-Request-ID") != "abc" {
		t.Errorf("headers = %v", resp.Header)
	}
}

func TestStack_GeneratedIDAndHead(t *testing.T) {
	srv := httptest.NewServer(router())
	defer srv.Close()

	resp, err := http.Head(srv.URL + "/ping")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("HEAD status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("no request id generated")
	}
}

func TestStack_MaxBody(t *testing.T) {
	srv := httptest.NewServer(router())
	defer srv.Close()

	big := strings.Repeat("x", DefaultMaxBody+1)
	resp, err := http.Post(srv.URL+"/echo", "text/plain", strings.NewReader(big))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", resp.StatusCode)
	}
}
