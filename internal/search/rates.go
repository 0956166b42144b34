package search

import (
	"github.com/shopspring/decimal"

	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/pricing"
	"github.com/MahmoudMetwally2699/gaithTours-sub005/internal/provider"
)

// parsedRate is a provider rate with its money fields decoded. net is
// the supplier amount minus supplier-included taxes; gross adds them
// back and is the margin base.
type parsedRate struct {
	rate     provider.Rate
	net      decimal.Decimal
	gross    decimal.Decimal
	taxes    []pricing.TaxLine
	currency string
}

// parseRate decodes the first payment option of a rate. Rates with
// unparseable amounts are skipped by the caller.
func parseRate(r provider.Rate) (*parsedRate, bool) {
	if len(r.PaymentOptions.PaymentTypes) == 0 {
		return nil, false
	}
	pt := r.PaymentOptions.PaymentTypes[0]
	raw := pt.ShowAmount
	if raw == "" {
		raw = pt.Amount
	}
	gross, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, false
	}

	taxes := make([]pricing.TaxLine, 0, len(pt.TaxData.Taxes))
	includedTotal := decimal.Zero
	for _, t := range pt.TaxData.Taxes {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			continue
		}
		line := pricing.TaxLine{
			Name:               t.Name,
			Amount:             amount,
			Currency:           t.CurrencyCode,
			IncludedBySupplier: t.IncludedBySupplier,
		}
		if t.IncludedBySupplier {
			includedTotal = includedTotal.Add(amount)
		}
		taxes = append(taxes, line)
	}

	return &parsedRate{
		rate:     r,
		net:      gross.Sub(includedTotal),
		gross:    gross,
		taxes:    taxes,
		currency: pt.CurrencyCode,
	}, true
}

// lowestRate selects the cheapest rate by net price, so the advertised
// "from" price on search matches what the detail view shows for the
// same hotel. Ties keep the first rate seen.
func lowestRate(rates []provider.Rate) *parsedRate {
	var best *parsedRate
	for _, r := range rates {
		p, ok := parseRate(r)
		if !ok {
			continue
		}
		if best == nil || p.net.LessThan(best.net) {
			best = p
		}
	}
	return best
}
