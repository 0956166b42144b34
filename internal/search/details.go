package search

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/cache"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/models"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/storage"
)

// GetDetails builds the full hotel page. The provider call, the local
// content lookup and the review lookup are independent, so all three run
// concurrently; margin application waits for every one of them plus the
// rule set.
func (s *Service) GetDetails(ctx context.Context, hotelID string, q *models.SearchQuery) (*HotelDetail, error) {
	s.metrics.IncRequests()
	key := q.DetailCacheKey(hotelID)

	if res, f := s.detailCache.Get(key); f == cache.Fresh {
		s.metrics.IncCacheHit("content")
		res.Source = SourceFresh
		return &res, nil
	}

	guests, truncated := provider.Allocate(q.Adults, q.ChildrenAges, q.Rooms)
	if truncated {
		s.logger.Warn("party exceeded room capacity, remainder dropped",
			"hotel", hotelID, "adults", q.Adults, "rooms", q.Rooms)
	}

	var (
		wg         sync.WaitGroup
		page       *provider.HotelPageResponse
		pageErr    error
		content    *storage.HotelContent
		contentErr error
		reviews    map[string]storage.ReviewSummary
		reviewErr  error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		page, pageErr = s.gw.HotelPage(ctx, &provider.HotelPageRequest{
			ID:        hotelID,
			Checkin:   q.Checkin.Format("2006-01-02"),
			Checkout:  q.Checkout.Format("2006-01-02"),
			Guests:    guests,
			Residency: q.Residency,
			Language:  q.Language,
			Currency:  q.Currency,
		})
	}()
	go func() {
		defer wg.Done()
		content, contentErr = s.content.GetByID(ctx, hotelID)
	}()
	go func() {
		defer wg.Done()
		reviews, reviewErr = s.reviews.GetSummaries(ctx, []string{hotelID}, q.Language)
	}()
	wg.Wait()

	if pageErr != nil {
		if res, f := s.detailCache.Get(key); f != cache.Miss {
			s.metrics.IncStaleServed("content")
			s.logger.Warn("serving stale hotel detail", "hotel", hotelID, "error", pageErr)
			res.Source = SourceStale
			return &res, nil
		}
		return nil, pageErr
	}
	if contentErr != nil {
		s.logger.Warn("content lookup failed, returning provider data only", "hotel", hotelID, "error", contentErr)
		content = nil
	}
	if reviewErr != nil {
		s.logger.Warn("review lookup failed", "hotel", hotelID, "error", reviewErr)
	}

	if len(page.Hotels) == 0 {
		return nil, provider.NewError(provider.KindNotFound, "hotel_page", "hotel has no availability")
	}
	hotel := page.Hotels[0]

	detail := HotelDetail{Source: SourceProvider}
	detail.ID = hotel.ID
	detail.HID = hotel.HID
	detail.Name = hotel.ID
	var roomGroups []storage.RoomGroup
	var hotelImages []string
	if content != nil {
		detail.Name = content.Name
		detail.Address = content.Address
		detail.City = content.City
		detail.Country = content.Country
		detail.StarRating = content.StarRating
		detail.Latitude = content.Latitude
		detail.Longitude = content.Longitude
		detail.Images = content.Images
		detail.Amenities = content.Amenities
		detail.Enriched = true
		roomGroups = content.RoomGroups
		hotelImages = content.Images
	}
	if r, ok := reviews[hotelID]; ok {
		detail.Rating = r.Rating
		detail.ReviewCount = r.ReviewCount
	}

	rules := s.ruleSet(ctx)
	nights := q.Nights()
	usage := make(map[int64]int)

	for _, rate := range hotel.Rates {
		p, ok := parseRate(rate)
		if !ok {
			s.logger.Warn("skipping rate with unparseable amount", "hotel", hotelID, "room", rate.RoomName)
			continue
		}

		// Rates can carry different meal types and therefore match
		// different rules; margin is computed per rate.
		rule := rules.Match(pricing.PriceContext{
			Country:      detail.Country,
			City:         detail.City,
			StarRating:   detail.StarRating,
			MealType:     rate.Meal,
			BookingValue: p.gross,
			CheckIn:      q.Checkin,
		})
		bd := pricing.PriceRate(p.net, p.taxes, rule)
		s.countMargin(rule, usage)

		offer := RateOffer{
			BookHash:               rate.BookHash,
			MatchHash:              rate.MatchHash,
			RoomName:               rate.RoomName,
			Meal:                   rate.Meal,
			Price:                  bd.FinalPrice,
			Currency:               p.currency,
			Taxes:                  bd.Taxes,
			TotalTaxes:             sumTaxes(bd.Taxes),
			Margin:                 *marginApplied(bd.Margin),
			FreeCancellationBefore: rate.Cancellation.FreeCancellationBefore,
		}
		if nights > 0 {
			offer.PerNightPrice = bd.FinalPrice.Div(decimal.NewFromInt(int64(nights))).Round(2)
		}
		for _, pol := range rate.Cancellation.Policies {
			penalty, err := decimal.NewFromString(pol.AmountShow)
			if err != nil {
				penalty = decimal.Zero
			}
			offer.Cancellation = append(offer.Cancellation, CancellationWindow{
				StartAt: pol.StartAt,
				EndAt:   pol.EndAt,
				Penalty: penalty,
			})
		}
		offer.RoomImages, offer.RoomAmenities = matchRoomMedia(rate.RoomName, roomGroups, hotelImages)
		if len(rate.Amenities) > 0 && len(offer.RoomAmenities) == 0 {
			offer.RoomAmenities = rate.Amenities
		}

		detail.Rates = append(detail.Rates, offer)

		// The hotel-level "from" price mirrors the cheapest rate.
		if detail.Price == nil || offer.Price.LessThan(*detail.Price) {
			price := offer.Price
			detail.Price = &price
			perNight := offer.PerNightPrice
			detail.PricePerNight = &perNight
			detail.Currency = offer.Currency
			detail.TotalTaxes = offer.TotalTaxes
			detail.Margin = &offer.Margin
			detail.Meal = offer.Meal
			detail.FreeCancellation = offer.FreeCancellationBefore != ""
		}
	}
	s.recordRuleUsage(ctx, usage)

	s.detailCache.Set(key, detail)
	return &detail, nil
}
