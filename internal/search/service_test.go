package search_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/cache"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/gateway"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/models"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/search"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

// ------------------------ MOCKS ------------------------

type stubGateway struct {
	mu           sync.Mutex
	searchCalls  int
	pageCalls    int
	suggestCalls int

	serp       *provider.SERPResponse
	serpErr    error
	page       *provider.HotelPageResponse
	pageErr    error
	suggest    *gateway.MulticompleteResult
	suggestErr error
}

func (s *stubGateway) Multicomplete(ctx context.Context, query, language string) (*gateway.MulticompleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestCalls++
	return s.suggest, s.suggestErr
}

func (s *stubGateway) SearchRegion(ctx context.Context, req *provider.SERPRequest) (*provider.SERPResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	return s.serp, s.serpErr
}

func (s *stubGateway) HotelPage(ctx context.Context, req *provider.HotelPageRequest) (*provider.HotelPageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageCalls++
	return s.page, s.pageErr
}

type stubContent struct {
	hotels map[string]*storage.HotelContent
}

func (s *stubContent) GetByIDs(ctx context.Context, ids []string) (map[string]*storage.HotelContent, error) {
	out := make(map[string]*storage.HotelContent)
	for _, id := range ids {
		if h, ok := s.hotels[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

func (s *stubContent) GetByID(ctx context.Context, id string) (*storage.HotelContent, error) {
	return s.hotels[id], nil
}

type stubReviews struct {
	summaries map[string]storage.ReviewSummary
}

func (s *stubReviews) GetSummaries(ctx context.Context, hotelIDs []string, language string) (map[string]storage.ReviewSummary, error) {
	out := make(map[string]storage.ReviewSummary)
	for _, id := range hotelIDs {
		if r, ok := s.summaries[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

type stubRules struct {
	rules   []pricing.Rule
	loadErr error
	usageCh chan map[int64]int
}

func (s *stubRules) LoadRules(ctx context.Context) ([]pricing.Rule, error) {
	return s.rules, s.loadErr
}

func (s *stubRules) IncrementUsage(ctx context.Context, counts map[int64]int) error {
	if s.usageCh != nil {
		s.usageCh <- counts
	}
	return nil
}

// -------------------------------------------------------

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func makeRate(matchHash, roomName, meal, showAmount string, taxes ...provider.Tax) provider.Rate {
	return provider.Rate{
		MatchHash: matchHash,
		RoomName:  roomName,
		Meal:      meal,
		PaymentOptions: provider.PaymentOptions{
			PaymentTypes: []provider.PaymentType{{
				ShowAmount:   showAmount,
				CurrencyCode: "SAR",
				TaxData:      provider.TaxData{Taxes: taxes},
			}},
		},
	}
}

func includedTax(name, amount string) provider.Tax {
	return provider.Tax{Name: name, Amount: amount, CurrencyCode: "SAR", IncludedBySupplier: true}
}

func payAtHotelTax(name, amount string) provider.Tax {
	return provider.Tax{Name: name, Amount: amount, CurrencyCode: "SAR", IncludedBySupplier: false}
}

type serviceOpts struct {
	searchFresh time.Duration
	searchStale time.Duration
	maxResults  int
}

func newTestService(gw *stubGateway, content *stubContent, reviews *stubReviews, rules *stubRules, opts serviceOpts) *search.Service {
	if opts.searchFresh == 0 {
		opts.searchFresh = 15 * time.Minute
	}
	if opts.searchStale == 0 {
		opts.searchStale = 6 * time.Hour
	}
	if content == nil {
		content = &stubContent{hotels: map[string]*storage.HotelContent{}}
	}
	if reviews == nil {
		reviews = &stubReviews{summaries: map[string]storage.ReviewSummary{}}
	}
	if rules == nil {
		rules = &stubRules{}
	}
	caches := search.Caches{
		Suggestions: cache.New[search.SuggestionResult](24*time.Hour, 24*time.Hour),
		Search:      cache.New[search.SearchResult](opts.searchFresh, opts.searchStale),
		Detail:      cache.New[search.HotelDetail](24*time.Hour, 7*24*time.Hour),
		Rules:       cache.New[*pricing.RuleSet](24*time.Hour, 24*time.Hour),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := obs.NewMetrics(prometheus.NewRegistry())
	return search.NewService(gw, content, reviews, rules, caches, opts.maxResults, logger, m)
}

func saudiQuery(t *testing.T) *models.SearchQuery {
	t.Helper()
	q, err := models.NewSearchQuery("55", "2025-06-01", "2025-06-03", "2", "", "1", "sa", "en", "SAR")
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Validate(); err != nil {
		t.Fatal(err)
	}
	return q
}

func TestSearch_EndToEndMarginApplied(t *testing.T) {
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			TotalHotels: 1,
			Hotels: []provider.SERPHotel{{
				ID:    "riyadh_palace",
				HID:   8821,
				Rates: []provider.Rate{makeRate("m1", "Standard Room", "breakfast", "1100", includedTax("vat", "100"))},
			}},
		},
	}
	content := &stubContent{hotels: map[string]*storage.HotelContent{
		"riyadh_palace": {
			ID: "riyadh_palace", HID: 8821, Name: "Riyadh Palace",
			City: "Riyadh", Country: "Saudi Arabia", StarRating: 4,
		},
	}}
	rules := &stubRules{
		rules:   []pricing.Rule{{ID: 1, Name: "ksa-8", Country: "Saudi Arabia", Type: pricing.TypePercentage, Value: d("8")}},
		usageCh: make(chan map[int64]int, 1),
	}
	svc := newTestService(gw, content, nil, rules, serviceOpts{})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Hotels) != 1 {
		t.Fatalf("expected 1 hotel, got %d", len(res.Hotels))
	}
	h := res.Hotels[0]
	if h.Price == nil || !h.Price.Equal(d("1188")) {
		t.Fatalf("expected margin-applied price 1188, got %v", h.Price)
	}
	if h.Margin == nil || !h.Margin.MarginAmount.Equal(d("88")) {
		t.Fatalf("expected margin amount 88, got %+v", h.Margin)
	}
	if h.Margin.RuleName != "ksa-8" {
		t.Fatalf("expected rule ksa-8, got %q", h.Margin.RuleName)
	}
	// two nights: per-night is display-only but must be total/nights
	if h.PricePerNight == nil || !h.PricePerNight.Equal(d("594")) {
		t.Fatalf("expected per-night 594, got %v", h.PricePerNight)
	}
	if !h.Enriched || h.Name != "Riyadh Palace" {
		t.Fatalf("expected enriched hotel, got %+v", h)
	}

	// usage counter lands as one batched, non-blocking update
	select {
	case counts := <-rules.usageCh:
		if counts[1] != 1 {
			t.Fatalf("expected rule 1 counted once, got %v", counts)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("rule usage update never recorded")
	}
}

func TestSearch_FreshCacheSkipsProvider(t *testing.T) {
	gw := &stubGateway{serp: &provider.SERPResponse{}}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})
	q := saudiQuery(t)

	if _, err := svc.Search(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}
	if gw.searchCalls != 1 {
		t.Fatalf("fresh cache hit must not call the provider, got %d calls", gw.searchCalls)
	}
	if res.Source != search.SourceFresh {
		t.Fatalf("expected fresh source, got %s", res.Source)
	}
}

func TestSearch_StaleFallbackWhenProviderDown(t *testing.T) {
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			Hotels: []provider.SERPHotel{{ID: "h1", Rates: []provider.Rate{makeRate("m1", "Room", "nomeal", "500")}}},
		},
	}
	// zero fresh TTL: every entry is immediately stale but inside the
	// fallback window
	svc := newTestService(gw, nil, nil, nil, serviceOpts{searchFresh: time.Nanosecond, searchStale: 6 * time.Hour})
	q := saudiQuery(t)

	if _, err := svc.Search(context.Background(), q); err != nil {
		t.Fatal(err)
	}

	gw.mu.Lock()
	gw.serp = nil
	gw.serpErr = provider.NewError(provider.KindUnavailable, "serp_region", "circuit breaker open")
	gw.mu.Unlock()

	time.Sleep(time.Millisecond)
	res, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("stale fallback should not error: %v", err)
	}
	if res.Source != search.SourceStale {
		t.Fatalf("expected stale source, got %s", res.Source)
	}
	if len(res.Hotels) != 1 {
		t.Fatalf("expected the cached hotel, got %d", len(res.Hotels))
	}
}

func TestSearch_ProviderDownNoCacheFailsRetryable(t *testing.T) {
	gw := &stubGateway{serpErr: provider.NewError(provider.KindUnavailable, "serp_region", "down")}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})

	_, err := svc.Search(context.Background(), saudiQuery(t))
	if err == nil {
		t.Fatal("expected an error with no stale data available")
	}
	if !provider.Retryable(err) {
		t.Fatalf("expected a retryable error, got %v", err)
	}
}

func TestSearch_LowestNetRateWins(t *testing.T) {
	// 150 with 20 included and 140 with 10 included both net 130:
	// the tie keeps the first rate seen
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			Hotels: []provider.SERPHotel{{
				ID: "h1",
				Rates: []provider.Rate{
					makeRate("first", "Room A", "nomeal", "150", includedTax("vat", "20")),
					makeRate("second", "Room B", "nomeal", "140", includedTax("vat", "10")),
				},
			}},
		},
	}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Hotels[0].MatchHash != "first" {
		t.Fatalf("expected deterministic tie-break on the first rate, got %q", res.Hotels[0].MatchHash)
	}
}

func TestSearch_CheaperNetRateSelected(t *testing.T) {
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			Hotels: []provider.SERPHotel{{
				ID: "h1",
				Rates: []provider.Rate{
					makeRate("expensive", "Room A", "nomeal", "200", includedTax("vat", "20")),
					makeRate("cheap", "Room B", "nomeal", "150", includedTax("vat", "10")),
				},
			}},
		},
	}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	if res.Hotels[0].MatchHash != "cheap" {
		t.Fatalf("expected the lower net rate, got %q", res.Hotels[0].MatchHash)
	}
}

func TestSearch_ZeroRateHotelKeptWithNullPrice(t *testing.T) {
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			Hotels: []provider.SERPHotel{
				{ID: "soldout"},
				{ID: "open", Rates: []provider.Rate{makeRate("m", "Room", "nomeal", "300")}},
			},
		},
	}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Hotels) != 2 {
		t.Fatalf("zero-rate hotel must not be dropped, got %d hotels", len(res.Hotels))
	}
	if res.Hotels[0].Price != nil {
		t.Fatalf("expected null price for the sold-out hotel, got %v", res.Hotels[0].Price)
	}
}

func TestSearch_MaxResultsCapsBeforeEnrichment(t *testing.T) {
	hotels := make([]provider.SERPHotel, 10)
	for i := range hotels {
		hotels[i] = provider.SERPHotel{ID: string(rune('a' + i))}
	}
	gw := &stubGateway{serp: &provider.SERPResponse{Hotels: hotels, TotalHotels: 10}}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{maxResults: 3})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Hotels) != 3 {
		t.Fatalf("expected the cap to truncate to 3, got %d", len(res.Hotels))
	}
	if res.TotalHotels != 10 {
		t.Fatalf("total count should report the provider total, got %d", res.TotalHotels)
	}
}

func TestSearch_NoMatchingRuleMeansZeroMargin(t *testing.T) {
	gw := &stubGateway{
		serp: &provider.SERPResponse{
			Hotels: []provider.SERPHotel{{ID: "h1", Rates: []provider.Rate{makeRate("m", "Room", "nomeal", "400")}}},
		},
	}
	rules := &stubRules{rules: []pricing.Rule{{ID: 1, Country: "Egypt", Type: pricing.TypePercentage, Value: d("12")}}}
	svc := newTestService(gw, nil, nil, rules, serviceOpts{})

	res, err := svc.Search(context.Background(), saudiQuery(t))
	if err != nil {
		t.Fatal(err)
	}
	h := res.Hotels[0]
	if h.Price == nil || !h.Price.Equal(d("400")) {
		t.Fatalf("expected pass-through price 400, got %v", h.Price)
	}
	if h.Margin == nil || !h.Margin.IsDefault {
		t.Fatalf("expected default margin marker, got %+v", h.Margin)
	}
}

func TestSuggest_CachesProviderResponse(t *testing.T) {
	gw := &stubGateway{
		suggest: &gateway.MulticompleteResult{
			Regions: []provider.SuggestRegion{{ID: 55, Name: "Riyadh", CountryCode: "SA"}},
		},
	}
	svc := newTestService(gw, nil, nil, nil, serviceOpts{})

	if _, err := svc.Suggest(context.Background(), "Riyadh", "en"); err != nil {
		t.Fatal(err)
	}
	res, err := svc.Suggest(context.Background(), "Riyadh", "en")
	if err != nil {
		t.Fatal(err)
	}
	if gw.suggestCalls != 1 {
		t.Fatalf("expected one provider call, got %d", gw.suggestCalls)
	}
	if res.Source != search.SourceFresh || len(res.Regions) != 1 {
		t.Fatalf("unexpected suggestion result %+v", res)
	}
}
