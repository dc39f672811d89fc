package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dukerupert/platescore/internal/apperr"
	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/model"
	"github.com/dukerupert/platescore/internal/store"
	"github.com/dukerupert/platescore/internal/websocket"
	"github.com/dukerupert/platescore/web"
)

// DefaultUserID is used by the pages when no user_id is given. There is no
// login; the id only partitions history.
const DefaultUserID = "guest"

var templateFuncs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
	"num": func(f *float64) string {
		if f == nil {
			return "n/a"
		}
		return strconv.FormatFloat(*f, 'f', -1, 64)
	},
	"ratingClass": func(rating string) string {
		return strings.ToLower(rating)
	},
	"toJSON": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"join": strings.Join,
	"card": func(p model.FoodProduct, userID string) map[string]any {
		return map[string]any{"Product": p, "UserID": userID}
	},
}

// PageHandler serves the server-rendered search, product and history pages.
type PageHandler struct {
	svc       *food.Service
	tracking  *store.TrackingStore
	hub       *websocket.Hub
	templates *template.Template
	logger    *slog.Logger
}

func NewPageHandler(svc *food.Service, ts *store.TrackingStore, hub *websocket.Hub, logger *slog.Logger) *PageHandler {
	tmpl := template.Must(template.New("").Funcs(templateFuncs).ParseFS(web.FS, "templates/*.html"))
	return &PageHandler{
		svc:       svc,
		tracking:  ts,
		hub:       hub,
		templates: tmpl,
		logger:    logger,
	}
}

func userIDFrom(r *http.Request) string {
	if id := strings.TrimSpace(r.FormValue("user_id")); id != "" {
		return id
	}
	return DefaultUserID
}

func (h *PageHandler) page(r *http.Request, title string) map[string]any {
	return map[string]any{
		"Title":  title + " - PlateScore",
		"UserID": userIDFrom(r),
		"Path":   r.URL.Path,
	}
}

func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	data := h.page(r, "Search")
	data["Query"] = query
	data["Categories"] = h.svc.Categories()
	data["Region"] = h.svc.Region()
	data["Warning"] = ""

	if query == "" {
		data["Products"] = h.svc.Popular()
		h.render(w, http.StatusOK, "search.html", data)
		return
	}

	res, err := h.svc.Search(r.Context(), query, food.DefaultSearchLimit)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data["Products"] = res.Products
	data["Warning"] = res.Warning
	h.render(w, http.StatusOK, "search.html", data)
}

func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Lookup(r.Context(), r.PathValue("barcode"))
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	data := h.page(r, p.ProductName)
	data["Product"] = *p
	data["Breakdown"] = h.svc.Explain(*p)
	h.render(w, http.StatusOK, "product.html", data)
}

func (h *PageHandler) History(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)
	entries, err := h.tracking.ListByUser(r.Context(), userID, store.DefaultHistoryLimit)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	total, err := h.tracking.CountByUser(r.Context(), userID)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	data := h.page(r, "History")
	data["Entries"] = entries
	data["Total"] = total
	h.render(w, http.StatusOK, "history.html", data)
}

// Track logs the product posted by a product card form, then redirects to
// the user's history.
func (h *PageHandler) Track(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, apperr.Validation("invalid form"))
		return
	}

	var product model.FoodProduct
	if err := json.Unmarshal([]byte(r.PostFormValue("product")), &product); err != nil {
		h.renderError(w, r, apperr.Validation("invalid product"))
		return
	}
	quantity := DefaultQuantity
	if raw := strings.TrimSpace(r.PostFormValue("quantity")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.renderError(w, r, apperr.Validation("quantity must be a whole number of grams"))
			return
		}
		quantity = n
	}

	userID := userIDFrom(r)
	entry, err := h.tracking.Create(r.Context(), userID, h.svc.Rescore(product), quantity)
	if err != nil {
		h.renderError(w, r, err)
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(entryMessage(websocket.ActionCreated, entry))
	}
	http.Redirect(w, r, historyURL(userID), http.StatusSeeOther)
}

func (h *PageHandler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("entryId")
	userID := userIDFrom(r)
	if err := h.tracking.DeleteByID(r.Context(), id); err != nil {
		h.renderError(w, r, err)
		return
	}
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(websocket.EntityTrackingEntry, websocket.ActionDeleted, id, map[string]any{"user_id": userID}))
	}
	http.Redirect(w, r, historyURL(userID), http.StatusSeeOther)
}

func historyURL(userID string) string {
	return "/history?" + url.Values{"user_id": {userID}}.Encode()
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		h.logger.Error("page failed", "path", r.URL.Path, "error", err)
	}

	heading := "Something went wrong"
	switch kind {
	case apperr.KindValidation:
		heading = "That didn't work"
	case apperr.KindNotFound:
		heading = "Not found"
	case apperr.KindUpstreamUnavailable:
		heading = "Food database unavailable"
	}

	data := h.page(r, heading)
	data["Heading"] = heading
	data["Message"] = apperr.Message(err)
	data["Warning"] = errors.Is(err, apperr.ErrUpstreamUnavailable)
	h.render(w, apperr.HTTPStatus(kind), "error.html", data)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, name string, data any) {
	var buf strings.Builder
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error("template error", "template", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(buf.String()))
}
