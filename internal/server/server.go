package server

import (
	"database/sql"
	"encoding/json"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/platescore/internal/food"
	"github.com/dukerupert/platescore/internal/handler"
	"github.com/dukerupert/platescore/internal/middleware"
	"github.com/dukerupert/platescore/internal/store"
	ws "github.com/dukerupert/platescore/internal/websocket"
	"github.com/dukerupert/platescore/web"
)

type Config struct {
	// SearchRateLimit is the per-IP budget per minute for routes that call
	// the catalog. Zero disables limiting.
	SearchRateLimit int
}

type Server struct {
	hub         *ws.Hub
	foodH       *handler.FoodHandler
	trackingH   *handler.TrackingHandler
	pageH       *handler.PageHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

func New(db *sql.DB, svc *food.Service, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	trackingStore := store.NewTrackingStore(db)

	return &Server{
		hub:         hub,
		foodH:       handler.NewFoodHandler(svc, logger.With("component", "food")),
		trackingH:   handler.NewTrackingHandler(trackingStore, svc, hub, logger.With("component", "tracking")),
		pageH:       handler.NewPageHandler(svc, trackingStore, hub, logger.With("component", "pages")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live-update hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	static, err := fs.Sub(web.FS, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))

	// API routes
	mux.HandleFunc("GET /api/{$}", s.foodH.Root)
	mux.HandleFunc("POST /api/food/search", s.rateLimitedHandler(s.foodH.Search))
	mux.HandleFunc("GET /api/food/barcode/{barcode}", s.rateLimitedHandler(s.foodH.Barcode))
	mux.HandleFunc("GET /api/food/categories", s.foodH.Categories)
	mux.HandleFunc("GET /api/food/popular-indian", s.foodH.Popular)
	mux.HandleFunc("GET /api/food/popular", s.foodH.Popular)
	mux.HandleFunc("POST /api/food/track", s.trackingH.Create)
	mux.HandleFunc("GET /api/food/track/{userId}", s.trackingH.List)
	mux.HandleFunc("DELETE /api/food/track/{entryId}", s.trackingH.Delete)

	// Pages
	mux.HandleFunc("GET /{$}", s.rateLimitedHandler(s.pageH.Home))
	mux.HandleFunc("GET /product/{barcode}", s.rateLimitedHandler(s.pageH.Product))
	mux.HandleFunc("GET /history", s.pageH.History)
	mux.HandleFunc("POST /track", s.pageH.Track)
	mux.HandleFunc("POST /history/{entryId}/delete", s.pageH.DeleteEntry)

	return middleware.RequestLogger(s.logger.With("component", "http"))(middleware.CORS(mux))
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, s.cfg.SearchRateLimit, time.Minute)
	limited := rl(h)
	return limited.ServeHTTP
}
