package httpserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	httpserver "qc_restaurants/internal/adapters/http_server"
)

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("log line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelsAndSlug(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)

	r := chi.NewRouter()
	r.Use(httpserver.Logger(l))
	r.Get("/v1/restaurants/{slug}", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte("{}"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusBadGateway) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/restaurants/inengs", nil))
	req := httptest.NewRequest("GET", "/v1/restaurants/inengs", nil)
	req.Header.Set("If-None-Match", `W/"x"`)
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))

	lines := logLines(t, &buf)
	if len(lines) != 3 {
		t.Fatalf("lines: %v", lines)
	}
	cases := []struct {
		level, route, slug string
	}{
		{"info", "/v1/restaurants/{slug}", "inengs"},
		{"debug", "/v1/restaurants/{slug}", "inengs"},
		{"warn", "/boom", ""},
	}
	for i, c := range cases {
		got := lines[i]
		if got["level"] != c.level || got["route"] != c.route {
			t.Errorf("line %d: %v", i, got)
		}
		if slug, _ := got["slug"].(string); slug != c.slug {
			t.Errorf("line %d slug: %v", i, got["slug"])
		}
	}
}
