package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/food"
)

// CatalogWarningHeader is set on search responses built while the catalog
// was partly or fully unreachable.
const CatalogWarningHeader = "X-Catalog-Warning"

type FoodHandler struct {
	svc    *food.Service
	logger *slog.Logger
}

func NewFoodHandler(svc *food.Service, logger *slog.Logger) *FoodHandler {
	return &FoodHandler{svc: svc, logger: logger}
}

func (h *FoodHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Food Health Tracker API"})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (h *FoodHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	res, err := h.svc.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if res.Warning != "" {
		w.Header().Set(CatalogWarningHeader, res.Warning)
	}
	writeJSON(w, http.StatusOK, res.Products)
}

func (h *FoodHandler) Barcode(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Lookup(r.Context(), r.PathValue("barcode"))
	if err != nil {
		if errors.Is(err, apperr.ErrUpstreamUnavailable) {
			writeJSON(w, http.StatusNotFound, errorResponse{
				Error:   "product not found",
				Kind:    string(apperr.KindNotFound),
				Warning: food.WarningUpstreamUnavailable,
			})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *FoodHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Categories())
}

func (h *FoodHandler) Popular(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Popular())
}
