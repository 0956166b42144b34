package app

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/booking"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/cache"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/config"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/gateway"
	handlers "github.com/MahmoudMetwally2699/gaithTours-sub005/internal/http"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/routes"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/search"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

// App owns every piece of process-wide shared state: the gateway with
// its rate limiter and circuit breaker, the cache tiers, the DB pool.
// Constructed once and passed by reference, never through globals.
type App struct {
	Router   http.Handler
	Service  *search.Service
	Workflow *booking.Workflow
	Gateway  *gateway.Gateway
	Metrics  *obs.Metrics
	DB       *sql.DB
	Config   *config.Config
}

func SetAppConfig() (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	customRegistry := prometheus.NewRegistry()
	metrics := obs.NewMetrics(customRegistry)

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	client := provider.NewClient(cfg.ProviderBaseURL, cfg.ProviderKeyID, cfg.ProviderKey, cfg.ProviderTimeout, logger, metrics)
	limiter := gateway.NewSlidingWindow(cfg.RateLimitMax, cfg.RateLimitWindow)
	breaker := gateway.NewBreaker(cfg.BreakerThreshold, cfg.BreakerResetTimeout)
	gw := gateway.New(client, limiter, breaker, logger, metrics)

	caches := search.Caches{
		Suggestions: cache.New[search.SuggestionResult](cfg.SuggestionTTL, cfg.SuggestionTTL),
		Search:      cache.New[search.SearchResult](cfg.SearchFreshTTL, cfg.SearchStaleTTL),
		Detail:      cache.New[search.HotelDetail](cfg.ContentTTL, cfg.ContentStale),
		Rules:       cache.New[*pricing.RuleSet](cfg.RuleTTL, cfg.RuleTTL),
	}

	svc := search.NewService(
		gw,
		storage.NewContentRepository(db),
		storage.NewReviewRepository(db),
		storage.NewRuleRepository(db),
		caches,
		cfg.MaxResults,
		logger,
		metrics,
	)
	workflow := booking.NewWorkflow(gw, logger)

	h := handlers.NewHandler(svc, workflow, metrics)
	router := routes.GetRoutes(h, metrics, logger)

	return &App{
		Router:   router,
		Service:  svc,
		Workflow: workflow,
		Gateway:  gw,
		Metrics:  metrics,
		DB:       db,
		Config:   cfg,
	}, nil
}
