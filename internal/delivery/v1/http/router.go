package http

import (
	"context"
	"net/http"
	"time"

	_ "github.com/DRSN-tech/spectra-backend/docs" // Импорт описания swagger
	"github.com/DRSN-tech/spectra-backend/internal/metrics"
	"github.com/DRSN-tech/spectra-backend/internal/usecase"
	"github.com/DRSN-tech/spectra-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// HealthCheck проверяет доступность одной зависимости.
type HealthCheck func(ctx context.Context) error

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(tasteUC usecase.TasteUC, recUC usecase.RecommendationUC, catalogUC usecase.CatalogUC, checks map[string]HealthCheck) {
	r.router.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, measure)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.router.Handle("/metrics", promhttp.Handler())
	r.router.Get("/healthz", r.healthz(checks))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerTasteRoutes(v1, NewTasteHandler(tasteUC, r.logger))
		registerRecommendationRoutes(v1, NewRecommendationHandler(recUC, r.logger))
		registerCatalogRoutes(v1, NewCatalogHandler(catalogUC, r.logger))
	})
}

func registerTasteRoutes(router chi.Router, h *TasteHandler) {
	router.Route("/taste", func(t chi.Router) {
		t.Post("/analyze", h.analyzeTaste)
		t.Get("/dimensions", h.listDimensions)
	})
	router.Get("/users/{userID}/taste-profile", h.getUserTasteProfile)
}

func registerRecommendationRoutes(router chi.Router, h *RecommendationHandler) {
	router.Route("/recommendations", func(rec chi.Router) {
		rec.Post("/", h.recommend)
		rec.Post("/explain", h.explain)
	})
	router.Get("/items/{itemID}/similar", h.similar)
	router.Post("/users/{userID}/recommendations", h.recommendForUser)
}

func registerCatalogRoutes(router chi.Router, h *CatalogHandler) {
	router.Post("/items", h.ingestItems)

	router.Delete("/users/{userID}", h.deleteUser)
	router.Get("/users/{userID}/ratings", h.listRatings)
	router.Put("/users/{userID}/ratings/{itemID}", h.upsertRating)
	router.Delete("/users/{userID}/ratings/{itemID}", h.deleteRating)
}

// healthz опрашивает зависимости и отвечает 503, если хотя бы одна недоступна.
func (r *Router) healthz(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				r.logger.Warnf("Health check %s failed: %v", name, err)
				status[name] = err.Error()
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}

		WriteSuccess(w, code, status)
	}
}

// measure пишет длительность запроса в метрики по шаблону маршрута chi.
func measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordHTTPRequest(r.Method, route, status, time.Since(started))
	})
}
