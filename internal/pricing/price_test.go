package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestPriceSumsModifiers(t *testing.T) {
	got := Price(d("8.99"), []Modifier{
		{Amount: d("4.00"), Quantity: 1},
		{Amount: d("1.25"), Quantity: 1},
		{Amount: d("0"), Quantity: 1},
	})
	if !got.Equal(d("14.24")) {
		t.Fatalf("expected 14.24, got %s", got)
	}
}

func TestPriceMultipliesByQuantity(t *testing.T) {
	got := Price(d("10.00"), []Modifier{{Amount: d("0.75"), Quantity: 3}})
	if !got.Equal(d("12.25")) {
		t.Fatalf("expected 12.25, got %s", got)
	}
}

func TestPriceTreatsMissingQuantityAsOne(t *testing.T) {
	got := Price(d("5.00"), []Modifier{{Amount: d("1.00")}})
	if !got.Equal(d("6.00")) {
		t.Fatalf("expected 6.00, got %s", got)
	}
}

func TestPriceClampsAtZero(t *testing.T) {
	got := Price(d("2.00"), []Modifier{{Amount: d("-3.50"), Quantity: 1}})
	if !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestPriceNegativeModifierReducesPrice(t *testing.T) {
	got := Price(d("9.00"), []Modifier{{Amount: d("-1.50"), Quantity: 1}})
	if !got.Equal(d("7.50")) {
		t.Fatalf("expected 7.50, got %s", got)
	}
}

func TestPriceRoundsOnce(t *testing.T) {
	// three half-cent modifiers round to 0.02 only when summed first
	got := Price(d("0"), []Modifier{
		{Amount: d("0.005"), Quantity: 1},
		{Amount: d("0.005"), Quantity: 1},
		{Amount: d("0.005"), Quantity: 1},
	})
	if !got.Equal(d("0.02")) {
		t.Fatalf("expected 0.02, got %s", got)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := map[string]string{
		"1.005":  "1.01",
		"1.004":  "1.00",
		"2.675":  "2.68",
		"0.125":  "0.13",
		"-1.005": "-1.00",
		"3":      "3.00",
	}
	for in, want := range cases {
		if got := Round(d(in)); !got.Equal(d(want)) {
			t.Fatalf("Round(%s) expected %s, got %s", in, want, got)
		}
	}
}

func TestTax(t *testing.T) {
	got := Tax(d("21.98"), d("0.0825"))
	if !got.Equal(d("1.81")) {
		t.Fatalf("expected 1.81, got %s", got)
	}
	if got := Tax(d("10.00"), decimal.Zero); !got.IsZero() {
		t.Fatalf("expected zero tax, got %s", got)
	}
}

func TestLineTotalAndSum(t *testing.T) {
	if got := LineTotal(d("10.99"), 2); !got.Equal(d("21.98")) {
		t.Fatalf("expected 21.98, got %s", got)
	}
	if got := Sum(d("21.98"), d("1.81"), d("3.99")); !got.Equal(d("27.78")) {
		t.Fatalf("expected 27.78, got %s", got)
	}
}

func TestWithinTolerance(t *testing.T) {
	tol := d("0.01")
	if !WithinTolerance(d("10.00"), d("10.01"), tol) {
		t.Fatalf("expected one cent difference to be tolerated")
	}
	if WithinTolerance(d("10.00"), d("10.02"), tol) {
		t.Fatalf("expected two cent difference to be flagged")
	}
}
