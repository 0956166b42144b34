package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/cache"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/models"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/obs"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

const (
	enrichBatchSize = 50
	ruleCacheKey    = "margin_rules"
)

// Service drives region searches, hotel detail lookups and suggestions
// against the provider gateway, layering caches, local content and the
// margin rule engine.
type Service struct {
	gw      ProviderGateway
	content ContentStore
	reviews ReviewStore
	rules   RuleSource

	suggestCache *cache.Store[SuggestionResult]
	searchCache  *cache.Store[SearchResult]
	detailCache  *cache.Store[HotelDetail]
	ruleCache    *cache.Store[*pricing.RuleSet]

	logger     *slog.Logger
	metrics    *obs.Metrics
	maxResults int
}

type Caches struct {
	Suggestions *cache.Store[SuggestionResult]
	Search      *cache.Store[SearchResult]
	Detail      *cache.Store[HotelDetail]
	Rules       *cache.Store[*pricing.RuleSet]
}

func NewService(gw ProviderGateway, content ContentStore, reviews ReviewStore, rules RuleSource, caches Caches, maxResults int, logger *slog.Logger, m *obs.Metrics) *Service {
	return &Service{
		gw:           gw,
		content:      content,
		reviews:      reviews,
		rules:        rules,
		suggestCache: caches.Suggestions,
		searchCache:  caches.Search,
		detailCache:  caches.Detail,
		ruleCache:    caches.Rules,
		logger:       logger,
		metrics:      m,
		maxResults:   maxResults,
	}
}

// InvalidateRules drops the cached rule set. The upstream admin surface
// calls this whenever a margin rule is edited.
func (s *Service) InvalidateRules() {
	s.ruleCache.Clear()
}

// ruleSet returns the active rule set, from cache when fresh. A failed
// reload falls back to a stale set before giving up; with nothing at all
// the engine prices with an empty set, which means 0% margin.
func (s *Service) ruleSet(ctx context.Context) *pricing.RuleSet {
	if rs, f := s.ruleCache.Get(ruleCacheKey); f == cache.Fresh {
		s.metrics.IncCacheHit("rules")
		return rs
	}
	rules, err := s.rules.LoadRules(ctx)
	if err != nil {
		s.logger.Error("loading margin rules failed", "error", err)
		if rs, f := s.ruleCache.Get(ruleCacheKey); f != cache.Miss {
			s.metrics.IncStaleServed("rules")
			return rs
		}
		return pricing.NewRuleSet(nil)
	}
	rs := pricing.NewRuleSet(rules)
	s.ruleCache.Set(ruleCacheKey, rs)
	return rs
}

// Suggest resolves a free-text region/hotel lookup through the
// suggestion cache tier.
func (s *Service) Suggest(ctx context.Context, query, language string) (*SuggestionResult, error) {
	key := fmt.Sprintf("suggest|%s|%s", strings.ToLower(strings.TrimSpace(query)), language)
	if res, f := s.suggestCache.Get(key); f == cache.Fresh {
		s.metrics.IncCacheHit("suggestions")
		res.Source = SourceFresh
		return &res, nil
	}

	out, err := s.gw.Multicomplete(ctx, query, language)
	if err != nil {
		if res, f := s.suggestCache.Get(key); f != cache.Miss {
			s.metrics.IncStaleServed("suggestions")
			s.logger.Warn("serving stale suggestions", "query", query, "error", err)
			res.Source = SourceStale
			return &res, nil
		}
		return nil, err
	}

	res := SuggestionResult{Regions: out.Regions, Hotels: out.Hotels, Source: SourceProvider}
	s.suggestCache.Set(key, res)
	return &res, nil
}

// Search runs a full region search: cache, gateway, enrichment, margin.
func (s *Service) Search(ctx context.Context, q *models.SearchQuery) (*SearchResult, error) {
	s.metrics.IncRequests()
	key := q.CacheKey()

	if res, f := s.searchCache.Get(key); f == cache.Fresh {
		s.metrics.IncCacheHit("search")
		res.Source = SourceFresh
		return &res, nil
	}

	guests, truncated := provider.Allocate(q.Adults, q.ChildrenAges, q.Rooms)
	if truncated {
		s.logger.Warn("party exceeded room capacity, remainder dropped",
			"adults", q.Adults, "children", len(q.ChildrenAges), "rooms", q.Rooms)
	}

	serp, err := s.gw.SearchRegion(ctx, &provider.SERPRequest{
		RegionID:  q.RegionID,
		Checkin:   q.Checkin.Format("2006-01-02"),
		Checkout:  q.Checkout.Format("2006-01-02"),
		Guests:    guests,
		Residency: q.Residency,
		Language:  q.Language,
		Currency:  q.Currency,
	})
	if err != nil {
		if res, f := s.searchCache.Get(key); f != cache.Miss {
			s.metrics.IncStaleServed("search")
			s.logger.Warn("serving stale search result", "region", q.RegionID, "error", err)
			res.Source = SourceStale
			return &res, nil
		}
		return nil, err
	}

	hotels := serp.Hotels
	// The cap applies before enrichment to bound enrichment cost.
	if s.maxResults > 0 && len(hotels) > s.maxResults {
		hotels = hotels[:s.maxResults]
	}

	ids := make([]string, len(hotels))
	for i, h := range hotels {
		ids[i] = h.ID
	}

	contentByID, reviewsByID := s.enrich(ctx, ids, q.Language)

	// Margin strictly after enrichment and rule retrieval: the price
	// context needs the enriched country/city/star fields.
	rules := s.ruleSet(ctx)

	usage := make(map[int64]int)
	out := make([]NormalizedHotel, 0, len(hotels))
	for _, h := range hotels {
		nh := s.normalizeHotel(q, h, contentByID[h.ID], reviewsByID[h.ID], rules, usage)
		out = append(out, nh)
	}
	s.recordRuleUsage(ctx, usage)

	res := SearchResult{Hotels: out, TotalHotels: serp.TotalHotels, Source: SourceProvider}
	s.searchCache.Set(key, res)
	return &res, nil
}

// enrich runs the batched DB lookups for content and reviews in
// parallel. Failures degrade to "not enriched" hotels, never to a
// failed search.
func (s *Service) enrich(ctx context.Context, ids []string, language string) (map[string]*storage.HotelContent, map[string]storage.ReviewSummary) {
	contentByID := make(map[string]*storage.HotelContent, len(ids))
	reviewsByID := make(map[string]storage.ReviewSummary, len(ids))

	var mu sync.Mutex
	var wg sync.WaitGroup

	for start := 0; start < len(ids); start += enrichBatchSize {
		end := start + enrichBatchSize
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[start:end]
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.content.GetByIDs(ctx, batch)
			if err != nil {
				s.logger.Warn("content enrichment batch failed", "size", len(batch), "error", err)
				return
			}
			mu.Lock()
			for id, c := range got {
				contentByID[id] = c
			}
			mu.Unlock()
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		got, err := s.reviews.GetSummaries(ctx, ids, language)
		if err != nil {
			s.logger.Warn("review enrichment failed", "error", err)
			return
		}
		mu.Lock()
		for id, r := range got {
			reviewsByID[id] = r
		}
		mu.Unlock()
	}()

	wg.Wait()
	return contentByID, reviewsByID
}

func (s *Service) normalizeHotel(q *models.SearchQuery, h provider.SERPHotel, content *storage.HotelContent, review storage.ReviewSummary, rules *pricing.RuleSet, usage map[int64]int) NormalizedHotel {
	nh := NormalizedHotel{ID: h.ID, HID: h.HID, Name: h.ID}
	if content != nil {
		nh.Name = content.Name
		nh.Address = content.Address
		nh.City = content.City
		nh.Country = content.Country
		nh.StarRating = content.StarRating
		nh.Latitude = content.Latitude
		nh.Longitude = content.Longitude
		nh.Images = content.Images
		nh.Amenities = content.Amenities
		nh.Enriched = true
	}
	nh.Rating = review.Rating
	nh.ReviewCount = review.ReviewCount

	// A hotel with no usable rates is still returned, with a null
	// price, rather than dropped.
	best := lowestRate(h.Rates)
	if best == nil {
		return nh
	}

	rule := rules.Match(pricing.PriceContext{
		Country:      nh.Country,
		City:         nh.City,
		StarRating:   nh.StarRating,
		MealType:     best.rate.Meal,
		BookingValue: best.gross,
		CheckIn:      q.Checkin,
	})
	bd := pricing.PriceRate(best.net, best.taxes, rule)
	s.countMargin(rule, usage)

	price := bd.FinalPrice
	nh.Price = &price
	if nights := q.Nights(); nights > 0 {
		perNight := price.Div(decimal.NewFromInt(int64(nights))).Round(2)
		nh.PricePerNight = &perNight
	}
	nh.Currency = best.currency
	nh.Taxes = bd.Taxes
	nh.TotalTaxes = sumTaxes(bd.Taxes)
	nh.Margin = marginApplied(bd.Margin)
	nh.MatchHash = best.rate.MatchHash
	nh.Meal = best.rate.Meal
	nh.FreeCancellation = best.rate.Cancellation.FreeCancellationBefore != ""
	nh.NeedsPrepayment = best.rate.Prepayment
	return nh
}

func (s *Service) countMargin(rule *pricing.Rule, usage map[int64]int) {
	if rule == nil {
		s.metrics.IncMarginApplied("default")
		return
	}
	s.metrics.IncMarginApplied("rule")
	usage[rule.ID]++
}

// recordRuleUsage persists applied counters as one bulk update in the
// background. Best-effort by contract: failures are logged and
// swallowed, never propagated to the pricing response.
func (s *Service) recordRuleUsage(ctx context.Context, usage map[int64]int) {
	if len(usage) == 0 {
		return
	}
	bg := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(bg, 10*time.Second)
		defer cancel()
		if err := s.rules.IncrementUsage(ctx, usage); err != nil {
			s.logger.Warn("rule usage update failed", "rules", len(usage), "error", err)
		}
	}()
}

func marginApplied(m pricing.MarginResult) *MarginApplied {
	return &MarginApplied{
		RuleName:         m.RuleName,
		MarginAmount:     m.MarginAmount,
		MarginPercentage: m.MarginPercentage,
		IsDefault:        m.IsDefault,
	}
}

func sumTaxes(taxes []pricing.TaxLine) decimal.Decimal {
	total := decimal.Zero
	for _, t := range taxes {
		total = total.Add(t.Amount)
	}
	return total
}
