package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// MarginResult describes one margin application.
type MarginResult struct {
	FinalPrice       decimal.Decimal
	MarginAmount     decimal.Decimal
	MarginPercentage decimal.Decimal
	RuleID           int64
	RuleName         string
	IsDefault        bool
}

// Apply computes the margin-applied price for a base amount. A nil rule
// means no margin: the price passes through unmodified and the result is
// flagged as the default.
func Apply(base decimal.Decimal, rule *Rule) MarginResult {
	if rule == nil {
		return MarginResult{FinalPrice: base, IsDefault: true}
	}
	var final decimal.Decimal
	switch rule.Type {
	case TypeFixed:
		final = base.Add(rule.Value).Round(2)
	default: // percentage
		final = base.Mul(decimal.NewFromInt(1).Add(rule.Value.Div(hundred))).Round(2)
	}
	amount := final.Sub(base)
	pct := decimal.Zero
	if !base.IsZero() {
		pct = amount.Div(base).Mul(hundred).Round(2)
	}
	return MarginResult{
		FinalPrice:       final,
		MarginAmount:     amount,
		MarginPercentage: pct,
		RuleID:           rule.ID,
		RuleName:         rule.Name,
	}
}

// TaxLine is one displayed tax entry.
type TaxLine struct {
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	IncludedBySupplier bool            `json:"included_by_supplier"`
}

// Breakdown is a fully priced rate: the margin base, the final price and
// every tax line after the multiplier pass.
type Breakdown struct {
	NetPrice   decimal.Decimal
	MarginBase decimal.Decimal
	FinalPrice decimal.Decimal
	Multiplier decimal.Decimal
	Taxes      []TaxLine
	Margin     MarginResult
}

// PriceRate applies a rule to one rate with numerically consistent
// results. The margin base is the net price plus every supplier-included
// tax; the derived multiplier is reapplied uniformly to exactly those
// included tax lines. Pay-at-hotel taxes never receive the multiplier:
// the margin is not charged on money the traveller pays locally.
func PriceRate(netPrice decimal.Decimal, taxes []TaxLine, rule *Rule) Breakdown {
	marginBase := netPrice
	for _, t := range taxes {
		if t.IncludedBySupplier {
			marginBase = marginBase.Add(t.Amount)
		}
	}

	res := Apply(marginBase, rule)

	multiplier := decimal.NewFromInt(1)
	if !marginBase.IsZero() {
		multiplier = res.FinalPrice.Div(marginBase)
	}

	out := make([]TaxLine, len(taxes))
	for i, t := range taxes {
		out[i] = t
		if t.IncludedBySupplier {
			out[i].Amount = t.Amount.Mul(multiplier).Round(2)
		}
	}

	return Breakdown{
		NetPrice:   netPrice,
		MarginBase: marginBase,
		FinalPrice: res.FinalPrice,
		Multiplier: multiplier,
		Taxes:      out,
		Margin:     res,
	}
}
