package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
)

// Gateway is the single shared front door to the inventory provider.
// Every outbound call, search or booking, funnels through one rate
// limiter window and one circuit breaker, because the limit is imposed
// by the provider account, not per caller.
type Gateway struct {
	api     provider.API
	limiter *SlidingWindow
	breaker *Breaker
	logger  *slog.Logger
	metrics *obs.Metrics
}

func New(api provider.API, limiter *SlidingWindow, breaker *Breaker, logger *slog.Logger, m *obs.Metrics) *Gateway {
	g := &Gateway{api: api, limiter: limiter, breaker: breaker, logger: logger, metrics: m}
	breaker.OnOpen(func() {
		m.IncBreakerOpen()
		logger.Warn("circuit breaker opened, serving stale cache only")
	})
	breaker.OnStateChange(func(s BreakerState) {
		m.SetBreakerState(float64(s))
	})
	return g
}

// BreakerState exposes the current breaker state for health reporting.
func (g *Gateway) BreakerState() BreakerState { return g.breaker.State() }

func (g *Gateway) call(ctx context.Context, endpoint string, fn func(context.Context) error) error {
	if !g.breaker.Allow() {
		return provider.NewError(provider.KindUnavailable, endpoint, "circuit breaker open")
	}
	start := time.Now()
	if err := g.limiter.Admit(ctx); err != nil {
		return provider.WrapError(provider.KindUnavailable, endpoint, err)
	}
	g.metrics.ObserveRateLimitWait(time.Since(start).Seconds())

	err := fn(ctx)
	if err == nil {
		g.breaker.OnSuccess()
		return nil
	}
	// Definitive answers mean the provider is healthy even though the
	// operation failed; only availability problems trip the breaker.
	switch provider.KindOf(err) {
	case provider.KindValidation, provider.KindNotFound, provider.KindSandbox, provider.KindTransient:
		g.breaker.OnSuccess()
	default:
		g.breaker.OnFailure()
	}
	return err
}

func (g *Gateway) Multicomplete(ctx context.Context, query, language string) (*MulticompleteResult, error) {
	var out *provider.MulticompleteResponse
	err := g.call(ctx, "multicomplete", func(ctx context.Context) error {
		var err error
		out, err = g.api.Multicomplete(ctx, query, language)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &MulticompleteResult{Regions: out.Regions, Hotels: out.Hotels}, nil
}

// MulticompleteResult re-exports the provider suggestion payload so
// cache values do not depend on the raw wire type envelope.
type MulticompleteResult struct {
	Regions []provider.SuggestRegion `json:"regions"`
	Hotels  []provider.SuggestHotel  `json:"hotels"`
}

func (g *Gateway) SearchRegion(ctx context.Context, req *provider.SERPRequest) (*provider.SERPResponse, error) {
	var out *provider.SERPResponse
	err := g.call(ctx, "serp_region", func(ctx context.Context) error {
		var err error
		out, err = g.api.SearchRegion(ctx, req)
		return err
	})
	return out, err
}

func (g *Gateway) HotelPage(ctx context.Context, req *provider.HotelPageRequest) (*provider.HotelPageResponse, error) {
	var out *provider.HotelPageResponse
	err := g.call(ctx, "hotel_page", func(ctx context.Context) error {
		var err error
		out, err = g.api.HotelPage(ctx, req)
		return err
	})
	return out, err
}

func (g *Gateway) Prebook(ctx context.Context, req *provider.PrebookRequest) (*provider.PrebookResponse, error) {
	var out *provider.PrebookResponse
	err := g.call(ctx, "prebook", func(ctx context.Context) error {
		var err error
		out, err = g.api.Prebook(ctx, req)
		return err
	})
	return out, err
}

func (g *Gateway) BookingForm(ctx context.Context, req *provider.BookingFormRequest) (*provider.BookingFormResponse, error) {
	var out *provider.BookingFormResponse
	err := g.call(ctx, "booking_form", func(ctx context.Context) error {
		var err error
		out, err = g.api.BookingForm(ctx, req)
		return err
	})
	return out, err
}

func (g *Gateway) BookingFinish(ctx context.Context, req *provider.BookingFinishRequest) (*provider.BookingFinishResponse, error) {
	var out *provider.BookingFinishResponse
	err := g.call(ctx, "booking_finish", func(ctx context.Context) error {
		var err error
		out, err = g.api.BookingFinish(ctx, req)
		return err
	})
	return out, err
}

func (g *Gateway) BookingStatus(ctx context.Context, partnerOrderID string) (*provider.BookingStatusResponse, error) {
	var out *provider.BookingStatusResponse
	err := g.call(ctx, "booking_status", func(ctx context.Context) error {
		var err error
		out, err = g.api.BookingStatus(ctx, partnerOrderID)
		return err
	})
	return out, err
}

func (g *Gateway) OrderInfo(ctx context.Context, partnerOrderID string) (*provider.OrderInfoResponse, error) {
	var out *provider.OrderInfoResponse
	err := g.call(ctx, "order_info", func(ctx context.Context) error {
		var err error
		out, err = g.api.OrderInfo(ctx, partnerOrderID)
		return err
	})
	return out, err
}

func (g *Gateway) Cancel(ctx context.Context, partnerOrderID string) (*provider.CancelResponse, error) {
	var out *provider.CancelResponse
	err := g.call(ctx, "cancel", func(ctx context.Context) error {
		var err error
		out, err = g.api.Cancel(ctx, partnerOrderID)
		return err
	})
	return out, err
}
