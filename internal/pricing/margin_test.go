package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestApplyPercentage(t *testing.T) {
	rule := &Rule{ID: 1, Name: "ten-percent", Type: TypePercentage, Value: d("10")}
	res := Apply(d("100"), rule)
	if !res.FinalPrice.Equal(d("110")) {
		t.Fatalf("expected final 110, got %s", res.FinalPrice)
	}
	if !res.MarginAmount.Equal(d("10")) {
		t.Fatalf("expected margin amount 10, got %s", res.MarginAmount)
	}
	if !res.MarginPercentage.Equal(d("10")) {
		t.Fatalf("expected margin percentage 10, got %s", res.MarginPercentage)
	}
}

func TestApplyFixed(t *testing.T) {
	rule := &Rule{ID: 2, Name: "flat", Type: TypeFixed, Value: d("25")}
	res := Apply(d("100"), rule)
	if !res.FinalPrice.Equal(d("125")) {
		t.Fatalf("expected final 125, got %s", res.FinalPrice)
	}
	if !res.MarginAmount.Equal(d("25")) {
		t.Fatalf("expected margin amount 25, got %s", res.MarginAmount)
	}
}

func TestApplyNoRulePassesThrough(t *testing.T) {
	res := Apply(d("99.90"), nil)
	if !res.IsDefault {
		t.Fatal("expected default result without a rule")
	}
	if !res.FinalPrice.Equal(d("99.90")) {
		t.Fatalf("expected pass-through price, got %s", res.FinalPrice)
	}
	if !res.MarginAmount.IsZero() {
		t.Fatalf("expected zero margin, got %s", res.MarginAmount)
	}
}

func TestApplyZeroBase(t *testing.T) {
	rule := &Rule{Type: TypePercentage, Value: d("10")}
	res := Apply(decimal.Zero, rule)
	if !res.MarginPercentage.IsZero() {
		t.Fatalf("margin percentage on zero base must be 0, got %s", res.MarginPercentage)
	}
}

func TestPriceRateMultiplierConsistency(t *testing.T) {
	// base 200 + included tax 20 = margin base 220; 10% -> 242,
	// multiplier 1.1; the pay-at-hotel 30 must stay exactly 30
	rule := &Rule{ID: 3, Name: "ten", Type: TypePercentage, Value: d("10")}
	taxes := []TaxLine{
		{Name: "vat", Amount: d("20"), IncludedBySupplier: true},
		{Name: "city_tax", Amount: d("30"), IncludedBySupplier: false},
	}
	bd := PriceRate(d("200"), taxes, rule)

	if !bd.MarginBase.Equal(d("220")) {
		t.Fatalf("expected margin base 220, got %s", bd.MarginBase)
	}
	if !bd.FinalPrice.Equal(d("242")) {
		t.Fatalf("expected final 242, got %s", bd.FinalPrice)
	}
	if !bd.Multiplier.Equal(d("1.1")) {
		t.Fatalf("expected multiplier 1.1, got %s", bd.Multiplier)
	}
	for _, tax := range bd.Taxes {
		switch tax.Name {
		case "vat":
			if !tax.Amount.Equal(d("22")) {
				t.Fatalf("included tax must carry the multiplier: expected 22, got %s", tax.Amount)
			}
		case "city_tax":
			if !tax.Amount.Equal(d("30")) {
				t.Fatalf("pay-at-hotel tax must never be marked up: expected 30, got %s", tax.Amount)
			}
		}
	}
}

func TestPriceRateKeepsInputTaxesUntouched(t *testing.T) {
	rule := &Rule{Type: TypePercentage, Value: d("10")}
	taxes := []TaxLine{{Name: "vat", Amount: d("20"), IncludedBySupplier: true}}
	PriceRate(d("200"), taxes, rule)
	if !taxes[0].Amount.Equal(d("20")) {
		t.Fatalf("input tax slice mutated: %s", taxes[0].Amount)
	}
}

func TestPriceRateZeroBase(t *testing.T) {
	rule := &Rule{Type: TypePercentage, Value: d("10")}
	bd := PriceRate(decimal.Zero, nil, rule)
	if !bd.Multiplier.Equal(d("1")) {
		t.Fatalf("zero base must yield multiplier 1, got %s", bd.Multiplier)
	}
}
