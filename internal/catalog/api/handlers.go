// Package api exposes catalog building and lookup over HTTP.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cartloom/catalog-scraper/internal/database"
	"github.com/cartloom/catalog-scraper/internal/models"
	"github.com/cartloom/catalog-scraper/internal/source"
)

// CatalogBuilder runs the classify/extract/merge flow over a set of pages.
type CatalogBuilder interface {
	Build(ctx context.Context, pages []source.Page) []*models.Product
}

// CatalogStore persists merged products and announces them.
type CatalogStore interface {
	StoreCatalog(ctx context.Context, products []*models.Product) []string
}

// CatalogReader reads stored products back out.
type CatalogReader interface {
	Get(ctx context.Context, handle string) (*database.CatalogRow, error)
	List(ctx context.Context, limit int) ([]*database.CatalogRow, error)
}

type Handlers struct {
	builder CatalogBuilder
	store   CatalogStore
	reader  CatalogReader
	logger  *slog.Logger
}

func NewHandlers(builder CatalogBuilder, store CatalogStore, reader CatalogReader, logger *slog.Logger) *Handlers {
	return &Handlers{
		builder: builder,
		store:   store,
		reader:  reader,
		logger:  logger,
	}
}

// BuildRequest carries the pages to turn into a catalog.
type BuildRequest struct {
	Pages []source.Page `json:"pages"`
	Store bool          `json:"store"`
}

// BuildResponse reports the merged catalog and run counters.
type BuildResponse struct {
	Products    []*models.Product `json:"products"`
	PagesIn     int               `json:"pages_in"`
	ProductsOut int               `json:"products_out"`
	Stored      []string          `json:"stored,omitempty"`
}

// BuildCatalog handles catalog build requests
func (h *Handlers) BuildCatalog(w http.ResponseWriter, r *http.Request) {
	var req BuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Pages) == 0 {
		h.respondError(w, http.StatusBadRequest, "pages is required")
		return
	}

	products := h.builder.Build(r.Context(), req.Pages)

	resp := BuildResponse{
		Products:    products,
		PagesIn:     len(req.Pages),
		ProductsOut: len(products),
	}

	if req.Store {
		if h.store == nil {
			h.respondError(w, http.StatusServiceUnavailable, "storage is not configured")
			return
		}
		resp.Stored = h.store.StoreCatalog(r.Context(), products)
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetProduct handles stored product retrieval by handle
func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		h.respondError(w, http.StatusBadRequest, "handle is required")
		return
	}

	row, err := h.reader.Get(r.Context(), handle)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "product not found")
		return
	}

	h.respondJSON(w, http.StatusOK, row)
}

// ListProducts handles listing stored products
func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	// TODO: Add pagination
	rows, err := h.reader.List(r.Context(), 100)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	if rows == nil {
		rows = []*database.CatalogRow{}
	}
	h.respondJSON(w, http.StatusOK, rows)
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
