package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/validator"
)

// SearchQuery is the immutable per-request description of a region search.
type SearchQuery struct {
	RegionID     int
	Checkin      time.Time
	Checkout     time.Time
	Adults       int
	ChildrenAges []int
	Rooms        int
	Residency    string
	Language     string
	Currency     string
	Page         int
	PageSize     int
}

// NewSearchQuery parses raw query-string values into a SearchQuery.
// childrenAges is a comma-separated list of ages and may be empty.
func NewSearchQuery(regionID, checkin, checkout, adults, childrenAges, rooms, residency, language, currency string) (*SearchQuery, error) {
	if regionID == "" || checkin == "" || checkout == "" {
		return nil, fmt.Errorf("missing required params: region_id, checkin, checkout")
	}
	region, err := strconv.Atoi(regionID)
	if err != nil {
		return nil, fmt.Errorf("invalid region_id")
	}
	adultsInt := 2
	if adults != "" {
		adultsInt, err = strconv.Atoi(adults)
		if err != nil {
			return nil, fmt.Errorf("invalid adults")
		}
	}
	roomsInt := 1
	if rooms != "" {
		roomsInt, err = strconv.Atoi(rooms)
		if err != nil {
			return nil, fmt.Errorf("invalid rooms")
		}
	}
	var ages []int
	if childrenAges != "" {
		for _, part := range strings.Split(childrenAges, ",") {
			age, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, fmt.Errorf("invalid children ages")
			}
			ages = append(ages, age)
		}
	}
	ci, err := validator.ValidateDate(checkin)
	if err != nil {
		return nil, fmt.Errorf("checkin: %w", err)
	}
	co, err := validator.ValidateDate(checkout)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}
	if residency == "" {
		residency = "sa"
	}
	if currency == "" {
		currency = "SAR"
	}
	return &SearchQuery{
		RegionID:     region,
		Checkin:      ci,
		Checkout:     co,
		Adults:       adultsInt,
		ChildrenAges: ages,
		Rooms:        roomsInt,
		Residency:    strings.ToLower(residency),
		Language:     language,
		Currency:     currency,
	}, nil
}

func (q *SearchQuery) Validate() error {
	var errs []string

	if err := validator.ValidateStayDates(q.Checkin, q.Checkout); err != nil {
		errs = append(errs, err.Error())
	}
	if q.Adults < 1 || q.Adults > 54 {
		errs = append(errs, "adults must be between 1 and 54")
	}
	if q.Rooms < 1 {
		q.Rooms = 1
	}
	if q.Rooms > 9 {
		q.Rooms = 9
	}
	for _, age := range q.ChildrenAges {
		if age < 0 || age > 17 {
			errs = append(errs, "children ages must be between 0 and 17")
			break
		}
	}
	if cur, err := validator.ValidateCurrency(q.Currency); err != nil {
		errs = append(errs, err.Error())
	} else {
		q.Currency = cur
	}
	if lang, err := validator.ValidateLanguage(q.Language); err != nil {
		errs = append(errs, err.Error())
	} else {
		q.Language = lang
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, ", "))
	}
	return nil
}

// Nights returns the stay length in nights.
func (q *SearchQuery) Nights() int {
	return int(q.Checkout.Sub(q.Checkin).Hours() / 24)
}

// CacheKey builds the deterministic composite key for the search-result
// cache. Filters are excluded on purpose: filtering happens after
// retrieval, so one cached response serves every filter variant.
// Language is part of the key because cached results carry
// language-specific review summaries.
func (q *SearchQuery) CacheKey() string {
	ages := make([]string, len(q.ChildrenAges))
	for i, a := range q.ChildrenAges {
		ages[i] = strconv.Itoa(a)
	}
	return fmt.Sprintf("search|%d|%s|%s|%d|%s|%d|%s|%s|%s",
		q.RegionID,
		q.Checkin.Format("2006-01-02"),
		q.Checkout.Format("2006-01-02"),
		q.Adults,
		strings.Join(ages, "-"),
		q.Rooms,
		q.Residency,
		q.Language,
		q.Currency,
	)
}

// DetailCacheKey is the content-tier key for one hotel under this query.
func (q *SearchQuery) DetailCacheKey(hotelID string) string {
	return fmt.Sprintf("detail|%s|%s", hotelID, q.CacheKey())
}
