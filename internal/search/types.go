package search

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/gateway"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

// Source tells callers whether a response came from a fresh cache entry,
// a live provider call, or a stale degraded-mode fallback.
type Source string

const (
	SourceFresh    Source = "fresh"
	SourceProvider Source = "provider"
	SourceStale    Source = "stale"
)

// MarginApplied is the caller-visible trace of one margin application.
type MarginApplied struct {
	RuleName         string          `json:"rule_name,omitempty"`
	MarginAmount     decimal.Decimal `json:"margin_amount"`
	MarginPercentage decimal.Decimal `json:"margin_percentage"`
	IsDefault        bool            `json:"is_default"`
}

// NormalizedHotel is one hotel in a search response: provider rates
// merged with local content, margin already applied. All prices are
// final; no caller-side markup is ever layered on top.
type NormalizedHotel struct {
	ID         string   `json:"id"`
	HID        int64    `json:"hid"`
	Name       string   `json:"name"`
	Address    string   `json:"address,omitempty"`
	City       string   `json:"city,omitempty"`
	Country    string   `json:"country,omitempty"`
	StarRating int      `json:"star_rating"`
	Latitude   float64  `json:"latitude,omitempty"`
	Longitude  float64  `json:"longitude,omitempty"`
	Images     []string `json:"images,omitempty"`
	Amenities  []string `json:"amenities,omitempty"`

	// Price is the margin-applied total-stay price of the cheapest
	// rate; nil when the hotel currently has no rates.
	Price         *decimal.Decimal  `json:"price"`
	PricePerNight *decimal.Decimal  `json:"price_per_night"`
	Currency      string            `json:"currency,omitempty"`
	TotalTaxes    decimal.Decimal   `json:"total_taxes"`
	Taxes         []pricing.TaxLine `json:"taxes,omitempty"`
	Margin        *MarginApplied    `json:"margin_applied,omitempty"`
	MatchHash     string            `json:"match_hash,omitempty"`
	Meal          string            `json:"meal,omitempty"`

	FreeCancellation bool `json:"free_cancellation"`
	NeedsPrepayment  bool `json:"needs_prepayment"`

	Rating      float64 `json:"rating,omitempty"`
	ReviewCount int     `json:"review_count,omitempty"`

	// Enriched is false when the local content store had no entry for
	// this hotel; the provider payload alone is returned.
	Enriched bool `json:"enriched"`
}

// SearchResult is a finished, margin-applied region search.
type SearchResult struct {
	Hotels      []NormalizedHotel `json:"hotels"`
	TotalHotels int               `json:"total_hotels"`
	Source      Source            `json:"source"`
}

// CancellationWindow is one penalty window of a rate's policy.
type CancellationWindow struct {
	StartAt string          `json:"start_at,omitempty"`
	EndAt   string          `json:"end_at,omitempty"`
	Penalty decimal.Decimal `json:"penalty"`
}

// RateOffer is one bookable rate on the detail view. Price is the
// margin-applied total for the whole stay; PerNightPrice is derived for
// display only and must not be re-multiplied by nights.
type RateOffer struct {
	BookHash               string               `json:"book_hash,omitempty"`
	MatchHash              string               `json:"match_hash"`
	RoomName               string               `json:"room_name"`
	Meal                   string               `json:"meal,omitempty"`
	Price                  decimal.Decimal      `json:"price"`
	PerNightPrice          decimal.Decimal      `json:"per_night_price"`
	Currency               string               `json:"currency"`
	Taxes                  []pricing.TaxLine    `json:"taxes"`
	TotalTaxes             decimal.Decimal      `json:"total_taxes"`
	Margin                 MarginApplied        `json:"margin_applied"`
	FreeCancellationBefore string               `json:"free_cancellation_before,omitempty"`
	Cancellation           []CancellationWindow `json:"cancellation_policy,omitempty"`
	RoomImages             []string             `json:"room_images,omitempty"`
	RoomAmenities          []string             `json:"room_amenities,omitempty"`
}

// HotelDetail is the full hotel page: static content, review summary and
// every rate priced consistently with the search view.
type HotelDetail struct {
	NormalizedHotel
	Rates  []RateOffer `json:"rates"`
	Source Source      `json:"source"`
}

// SuggestionResult is the cached region/hotel lookup response.
type SuggestionResult struct {
	Regions []provider.SuggestRegion `json:"regions"`
	Hotels  []provider.SuggestHotel  `json:"hotels"`
	Source  Source                   `json:"source"`
}

// ProviderGateway is the slice of the shared gateway the orchestrators
// consume. Tests stub it.
type ProviderGateway interface {
	Multicomplete(ctx context.Context, query, language string) (*gateway.MulticompleteResult, error)
	SearchRegion(ctx context.Context, req *provider.SERPRequest) (*provider.SERPResponse, error)
	HotelPage(ctx context.Context, req *provider.HotelPageRequest) (*provider.HotelPageResponse, error)
}

// ContentStore is the read-mostly local hotel content collaborator.
type ContentStore interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*storage.HotelContent, error)
	GetByID(ctx context.Context, id string) (*storage.HotelContent, error)
}

// ReviewStore is the review-summary collaborator, queried only from the
// local database.
type ReviewStore interface {
	GetSummaries(ctx context.Context, hotelIDs []string, language string) (map[string]storage.ReviewSummary, error)
}

// RuleSource reads the margin rule set in bulk and accepts best-effort
// usage counter updates.
type RuleSource interface {
	LoadRules(ctx context.Context) ([]pricing.Rule, error)
	IncrementUsage(ctx context.Context, counts map[int64]int) error
}
