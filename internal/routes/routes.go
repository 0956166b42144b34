package routes

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	handlers "github.com/MahmoudMetwally2699/gaithTours-sub005/internal/http"
	mid "github.com/MahmoudMetwally2699/gaithTours-sub005/internal/middleware"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
)

func GetRoutes(h *handlers.Handler, metrics *obs.Metrics, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()
	// Useful built-in middlewares
	r.Use(middleware.RealIP)    // proper client IP extraction
	r.Use(middleware.RequestID) // sets request ID header
	r.Use(middleware.Recoverer) // built-in recoverer to avoid panics taking server down

	// our custom middlewares: logging & timeout
	r.Use(mid.MetricsMiddleware(metrics))
	r.Use(mid.LoggingMiddleware(logger))
	// Booking finalization can legitimately take a while at the
	// provider, hence the generous bound.
	r.Use(mid.TimeoutMiddleware(60 * time.Second))

	// endpoints
	r.Get("/suggest", h.Suggest)
	r.Get("/search", h.Search)
	r.Get("/hotels/{id}", h.HotelDetails)

	r.Post("/prebook", h.Prebook)
	r.Post("/bookings", h.CreateBooking)
	r.Post("/bookings/{id}/finish", h.FinishBooking)
	r.Get("/bookings/{id}/status", h.BookingStatus)
	r.Get("/bookings/{id}/cancellation", h.CancellationInfo)
	r.Post("/bookings/{id}/cancel", h.CancelBooking)

	r.Post("/admin/rules/refresh", h.RefreshRules)

	r.Get("/healthz", h.Healthz)
	r.Get("/metrics", metrics.Handler().ServeHTTP)

	return r
}
