package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestComputeLineTotals_NoCustomization(t *testing.T) {
	got := ComputeLineTotals(dec(t, "100.00"), 2, nil)

	if !got.Base.Equal(dec(t, "200.00")) {
		t.Errorf("base: got %v, want 200.00", got.Base)
	}
	if !got.Addons.IsZero() {
		t.Errorf("addons: got %v, want 0", got.Addons)
	}
	if !got.Total.Equal(dec(t, "200.00")) {
		t.Errorf("total: got %v, want 200.00", got.Total)
	}
}

func TestComputeLineTotals_SkipsMalformedAddonPrices(t *testing.T) {
	// One valid add-on (15.00) and one with an unparseable price: the bad
	// entry contributes nothing, it is not an error.
	cust := []byte(`{"addons":[{"name":"extra rice","price":"15.00"},{"name":"gravy","price":"bad"}]}`)

	got := ComputeLineTotals(dec(t, "100.00"), 2, cust)

	if !got.AddonsUnit.Equal(dec(t, "15.00")) {
		t.Errorf("addons unit price: got %v, want 15.00", got.AddonsUnit)
	}
	if !got.Addons.Equal(dec(t, "30.00")) {
		t.Errorf("addons total: got %v, want 30.00", got.Addons)
	}
	if !got.Total.Equal(dec(t, "230.00")) {
		t.Errorf("total: got %v, want 230.00", got.Total)
	}
}

func TestComputeLineTotals_NumericAddonPrices(t *testing.T) {
	cust := []byte(`{"addons":[{"name":"cheese","price":10},{"name":"egg","price":12.5}]}`)

	got := ComputeLineTotals(dec(t, "80.00"), 1, cust)

	if !got.AddonsUnit.Equal(dec(t, "22.5")) {
		t.Errorf("addons unit price: got %v, want 22.5", got.AddonsUnit)
	}
	if !got.Total.Equal(dec(t, "102.5")) {
		t.Errorf("total: got %v, want 102.5", got.Total)
	}
}

func TestComputeLineTotals_AddOnsKeySpelling(t *testing.T) {
	cust := []byte(`{"addOns":[{"name":"cheese","price":"5.00"}]}`)

	got := ComputeLineTotals(dec(t, "50.00"), 3, cust)

	if !got.Addons.Equal(dec(t, "15.00")) {
		t.Errorf("addons total: got %v, want 15.00", got.Addons)
	}
}

func TestComputeLineTotals_MalformedPayload(t *testing.T) {
	got := ComputeLineTotals(dec(t, "50.00"), 1, []byte(`not json`))

	if !got.Total.Equal(dec(t, "50.00")) {
		t.Errorf("total: got %v, want 50.00 (malformed payload means zero add-on contribution)", got.Total)
	}
}

func TestParseCustomization_MissingPrices(t *testing.T) {
	c := ParseCustomization([]byte(`{"addons":[{"name":"no price"},{"name":"null price","price":null}]}`))

	if len(c.Addons) != 0 {
		t.Errorf("addons: got %d entries, want 0", len(c.Addons))
	}
	if !c.AddonsUnitPrice().IsZero() {
		t.Errorf("addons unit price: got %v, want 0", c.AddonsUnitPrice())
	}
}

func TestEqual(t *testing.T) {
	a := []byte(`{"addons": [{"name": "cheese", "price": "5.00"}]}`)
	b := []byte(`{"addons":[{"name":"cheese","price":"5.00"}]}`)
	c := []byte(`{"addons":[{"name":"cheese","price":"6.00"}]}`)

	if !Equal(a, b) {
		t.Error("payloads differing only in whitespace should be equal")
	}
	if Equal(a, c) {
		t.Error("payloads with different prices should not be equal")
	}
	if !Equal(nil, []byte(`{}`)) {
		t.Error("nil and empty object should be equal")
	}
}

func TestDescribe(t *testing.T) {
	c := ParseCustomization([]byte(`{"addons":[{"name":"cheese","price":"5.00"},{"name":"egg","price":"12.00"}]}`))

	want := "cheese (+5.00), egg (+12.00)"
	if got := c.Describe(); got != want {
		t.Errorf("describe: got %q, want %q", got, want)
	}
}
