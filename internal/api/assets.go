package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/getlost/portal/internal/apperr"
	"github.com/getlost/portal/internal/assetstore"
)

// AssetHandler serves stored asset files (rewritten videos, archived
// PDFs) from the asset store.
type AssetHandler struct {
	store assetstore.Provider
}

// NewAssetHandler creates a handler backed by the given asset store.
func NewAssetHandler(store assetstore.Provider) *AssetHandler {
	return &AssetHandler{store: store}
}

// ServeFile handles GET /assets/{scopeID}/{category}/{filename}.
func (h *AssetHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	scopeID := chi.URLParam(r, "scopeID")
	category := chi.URLParam(r, "category")
	filename := chi.URLParam(r, "filename")

	abs, err := h.store.Path(scopeID, category, filename)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnsafePath):
			http.Error(w, "invalid asset path", http.StatusBadRequest)
		case errors.Is(err, apperr.ErrNotFound):
			http.NotFound(w, r)
		default:
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	http.ServeFile(w, r, abs)
}
