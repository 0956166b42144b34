package pricing

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type RuleType string

const (
	TypePercentage RuleType = "percentage"
	TypeFixed      RuleType = "fixed"
)

// Rule is one configured margin rule. Constraint fields are optional:
// a nil/empty constraint matches everything, a populated one must match
// the price context exactly. Rules are created by the admin surface and
// read-only here.
type Rule struct {
	ID       int64
	Name     string
	Type     RuleType
	Value    decimal.Decimal
	Priority int

	Country  string
	City     string
	StarMin  *int
	StarMax  *int
	MealType string
	MinValue *decimal.Decimal
	MaxValue *decimal.Decimal
}

// PriceContext is derived per rate/hotel at enrichment time.
type PriceContext struct {
	Country      string
	City         string
	StarRating   int
	MealType     string
	BookingValue decimal.Decimal
	CheckIn      time.Time
}

// specificity counts populated constraints; more specific rules outrank
// general ones when both match.
func (r *Rule) specificity() int {
	n := 0
	if r.Country != "" {
		n++
	}
	if r.City != "" {
		n++
	}
	if r.StarMin != nil || r.StarMax != nil {
		n++
	}
	if r.MealType != "" {
		n++
	}
	if r.MinValue != nil || r.MaxValue != nil {
		n++
	}
	return n
}

func (r *Rule) matches(ctx PriceContext) bool {
	if r.Country != "" && !strings.EqualFold(r.Country, ctx.Country) {
		return false
	}
	if r.City != "" && !strings.EqualFold(r.City, ctx.City) {
		return false
	}
	if r.StarMin != nil && ctx.StarRating < *r.StarMin {
		return false
	}
	if r.StarMax != nil && ctx.StarRating > *r.StarMax {
		return false
	}
	if r.MealType != "" && !strings.EqualFold(r.MealType, ctx.MealType) {
		return false
	}
	if r.MinValue != nil && ctx.BookingValue.LessThan(*r.MinValue) {
		return false
	}
	if r.MaxValue != nil && ctx.BookingValue.GreaterThan(*r.MaxValue) {
		return false
	}
	return true
}

// RuleSet holds the active rules indexed by country, since country is
// the highest-cardinality filter. Country-free rules live in a separate
// general bucket considered on every match.
type RuleSet struct {
	byCountry map[string][]*Rule
	general   []*Rule
	size      int
}

func NewRuleSet(rules []Rule) *RuleSet {
	rs := &RuleSet{byCountry: make(map[string][]*Rule), size: len(rules)}
	for i := range rules {
		r := &rules[i]
		if r.Country != "" {
			key := strings.ToLower(r.Country)
			rs.byCountry[key] = append(rs.byCountry[key], r)
		} else {
			rs.general = append(rs.general, r)
		}
	}
	return rs
}

func (rs *RuleSet) Len() int { return rs.size }

// Match returns the most specific rule matching the context, or nil when
// no rule applies. Ties are broken by priority, then by rule id, so the
// outcome is deterministic.
func (rs *RuleSet) Match(ctx PriceContext) *Rule {
	candidates := rs.byCountry[strings.ToLower(ctx.Country)]
	candidates = append(append([]*Rule(nil), candidates...), rs.general...)

	var matched []*Rule
	for _, r := range candidates {
		if r.matches(ctx) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].specificity(), matched[j].specificity()
		if si != sj {
			return si > sj
		}
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})
	return matched[0]
}
