package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"qc_restaurants/internal/domain"
)

// Listings is what the handlers need from app.ListingService.
type Listings interface {
	List(ctx context.Context) (domain.Listing, error)
	Find(ctx context.Context, slug string) (domain.Restaurant, error)
}

type Handlers struct{ L Listings }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type facetsView struct {
	Cuisines domain.Facet `json:"cuisines"`
	Areas    domain.Facet `json:"areas"`
}

type listingView struct {
	BatchID     string              `json:"batch_id"`
	EvaluatedAt time.Time           `json:"evaluated_at"`
	Count       int                 `json:"count"`
	Restaurants []domain.Restaurant `json:"restaurants"`
	facetsView
	// Error is set when the source could not be read; the listing is then empty.
	Error string `json:"error,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/restaurants", h.listRestaurants)
	s.mux.Get("/v1/restaurants/{slug}", h.getRestaurant)
	s.mux.Get("/v1/facets", h.listFacets)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

// writeJSON honors If-None-Match against a weak ETag of the body.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "response encoding failed")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// listRestaurants always answers 200: a source failure is an empty listing
// plus an error message, never a failed page.
func (h *Handlers) listRestaurants(w http.ResponseWriter, r *http.Request) {
	l, err := h.L.List(r.Context())
	out := listingView{
		BatchID:     l.BatchID,
		EvaluatedAt: l.EvaluatedAt,
		Count:       len(l.Restaurants),
		Restaurants: l.Restaurants,
		facetsView:  facetsView{Cuisines: l.Cuisines, Areas: l.Areas},
	}
	if out.Restaurants == nil {
		out.Restaurants = []domain.Restaurant{}
	}
	if err != nil {
		out.Error = "restaurant data is temporarily unavailable"
	}
	writeJSON(w, r, out)
}

func (h *Handlers) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rec, err := h.L.Find(r.Context(), chi.URLParam(r, "slug"))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "restaurant not found")
		return
	case errors.Is(err, domain.ErrSourceUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Source Unavailable", "restaurant data is temporarily unavailable")
		return
	case err != nil:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	writeJSON(w, r, rec)
}

func (h *Handlers) listFacets(w http.ResponseWriter, r *http.Request) {
	l, _ := h.L.List(r.Context())
	writeJSON(w, r, facetsView{Cuisines: l.Cuisines, Areas: l.Areas})
}
