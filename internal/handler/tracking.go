package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/model"
	"github.com/dukerupert/platescore/internal/store"
	"github.com/dukerupert/platescore/internal/websocket"
)

// DefaultQuantity is the portion in grams logged when a request omits one.
const DefaultQuantity = 100

type TrackingHandler struct {
	store  *store.TrackingStore
	svc    *food.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewTrackingHandler(ts *store.TrackingStore, svc *food.Service, hub *websocket.Hub, logger *slog.Logger) *TrackingHandler {
	return &TrackingHandler{store: ts, svc: svc, hub: hub, logger: logger}
}

func (h *TrackingHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type trackRequest struct {
	UserID      string             `json:"user_id"`
	FoodProduct *model.FoodProduct `json:"food_product"`
	Quantity    *int               `json:"quantity"`
}

func (h *TrackingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if req.FoodProduct == nil {
		writeError(w, h.logger, apperr.Validation("food_product is required"))
		return
	}
	quantity := DefaultQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	entry, err := h.store.Create(r.Context(), req.UserID, h.svc.Rescore(*req.FoodProduct), quantity)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.broadcast(entryMessage(websocket.ActionCreated, entry))
	writeJSON(w, http.StatusCreated, entry)
}

func (h *TrackingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	entries, err := h.store.ListByUser(r.Context(), r.PathValue("userId"), limit)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *TrackingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("entryId")
	existing, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.store.DeleteByID(r.Context(), id); err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			err = apperr.NotFound("Tracking entry not found")
		}
		writeError(w, h.logger, err)
		return
	}

	extra := map[string]any{}
	if existing != nil {
		extra["user_id"] = existing.UserID
	}
	h.broadcast(websocket.NewMessage(websocket.EntityTrackingEntry, websocket.ActionDeleted, id, extra))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Tracking entry deleted successfully"})
}

func entryMessage(action string, e *model.TrackingEntry) websocket.Message {
	return websocket.NewMessage(websocket.EntityTrackingEntry, action, e.ID, map[string]any{
		"user_id":      e.UserID,
		"product_name": e.FoodProduct.ProductName,
		"quantity":     e.Quantity,
		"health_score": e.FoodProduct.HealthScore,
	})
}

// parseLimit reads an optional limit query parameter. Empty means the store
// default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperr.Validation("limit must be a non-negative integer")
	}
	return n, nil
}
