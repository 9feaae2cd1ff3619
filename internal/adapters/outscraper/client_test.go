package outscraper_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"qc_restaurants/internal/adapters/outscraper"
)

const page = `{"data": [[
	{"name": "Ineng's", "rating": 4.6, "reviews": 812, "working_hours": {"Monday": ["11AM-2PM", "5-9PM"]}},
	{"name": "Max's", "phone": "+63 2 8123 4567", "business_status": "OPERATIONAL"}
]]}`

func TestLoadRows_RetriesThenFlattens(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/maps/search-v3" || r.URL.Query().Get("async") != "false" || r.URL.Query().Get("limit") != "20" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer ts.Close()

	cl, err := outscraper.New(ts.URL, "test-key", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	b, err := cl.ForQuery("restaurants, Quezon City", 20).LoadRows(ctx)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(b.Rows) != 2 || atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("rows=%d hits=%d", len(b.Rows), hits)
	}
	want := []string{"business_status", "name", "phone", "rating", "reviews", "working_hours"}
	if len(b.Columns) != len(want) {
		t.Fatalf("columns: %v", b.Columns)
	}
	for i := range want {
		if b.Columns[i] != want[i] {
			t.Fatalf("columns: %v", b.Columns)
		}
	}
	hours, ok := b.Rows[0]["working_hours"].Map()
	if !ok {
		t.Fatalf("working_hours should stay a mapping")
	}
	if items, ok := hours["Monday"].Items(); !ok || len(items) != 2 {
		t.Fatalf("monday: %v", hours["Monday"])
	}
	if f, _ := b.Rows[0]["rating"].Num(); f != 4.6 {
		t.Fatalf("rating: %v", f)
	}
}

func TestSearch_Unauthorized(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	cl, _ := outscraper.New(ts.URL, "bad", 100)
	_, err := cl.Search(context.Background(), "restaurants", 1)
	if !errors.Is(err, outscraper.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSearch_OutOfCreditsIsFinal(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"errorMessage": "Please add credits to your account"}`))
	}))
	defer ts.Close()

	cl, _ := outscraper.New(ts.URL, "test-key", 100)
	_, err := cl.Search(context.Background(), "restaurants", 1)
	if !errors.Is(err, outscraper.ErrOutOfCredits) {
		t.Fatalf("expected ErrOutOfCredits, got %v", err)
	}
	if !strings.Contains(err.Error(), "add credits") {
		t.Fatalf("provider message lost: %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("402 must not be retried, hits=%d", n)
	}
}

func TestSearch_PollsPendingRequest(t *testing.T) {
	var polls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/maps/search-v3":
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"id": "r1", "status": "Pending", "results_location": "http://` + r.Host + `/requests/r1"}`))
		case "/requests/r1":
			if atomic.AddInt32(&polls, 1) == 1 {
				_, _ = w.Write([]byte(`{"id": "r1", "status": "Pending", "results_location": "http://` + r.Host + `/requests/r1"}`))
				return
			}
			_, _ = w.Write([]byte(`{"id": "r1", "status": "Success", "data": [[{"name": "Ineng's"}]]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cl, _ := outscraper.New(ts.URL, "test-key", 100)
	cl.WithPollInterval(time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	places, err := cl.Search(ctx, "restaurants", 1)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(places) != 1 || places[0]["name"] != "Ineng's" || atomic.LoadInt32(&polls) != 2 {
		t.Fatalf("places=%v polls=%d", places, polls)
	}
}

func TestSearch_PendingWithoutLocation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"id": "r2", "status": "Pending"}`))
	}))
	defer ts.Close()

	cl, _ := outscraper.New(ts.URL, "test-key", 100)
	if _, err := cl.Search(context.Background(), "restaurants", 1); !errors.Is(err, outscraper.ErrPending) {
		t.Fatalf("expected ErrPending, got %v", err)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := outscraper.New("http://x", "", 1); err == nil {
		t.Fatalf("expected error")
	}
}
