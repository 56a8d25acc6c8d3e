// Package pricing is the single source of truth for line pricing. Cart lines,
// order lines, reports, and reorder flows all compute money through it.
package pricing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Addon is one selected extra on a line, priced per unit of quantity.
type Addon struct {
	Name  string
	Price decimal.Decimal
}

// Customization is the parsed form of a line's customization payload.
type Customization struct {
	Addons []Addon
}

// rawCustomization tolerates both key spellings used by clients.
type rawCustomization struct {
	Addons []rawAddon `json:"addons"`
	AddOns []rawAddon `json:"addOns"`
}

type rawAddon struct {
	Name  string          `json:"name"`
	Price json.RawMessage `json:"price"`
}

// ParseCustomization decodes a customization payload leniently. A nil, empty,
// or malformed payload yields an empty customization; add-on entries whose
// price cannot be coerced to a decimal are skipped, never an error.
func ParseCustomization(raw []byte) Customization {
	if len(raw) == 0 {
		return Customization{}
	}

	var rc rawCustomization
	if err := json.Unmarshal(raw, &rc); err != nil {
		return Customization{}
	}

	entries := rc.Addons
	if len(entries) == 0 {
		entries = rc.AddOns
	}

	var c Customization
	for _, e := range entries {
		price, ok := coercePrice(e.Price)
		if !ok {
			continue
		}
		c.Addons = append(c.Addons, Addon{Name: e.Name, Price: price})
	}
	return c
}

// coercePrice accepts a JSON number or a numeric string. Anything else
// (missing, null, "bad") contributes nothing.
func coercePrice(raw json.RawMessage) (decimal.Decimal, bool) {
	if len(raw) == 0 {
		return decimal.Decimal{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return decimal.Decimal{}, false
		}
		s = n.String()
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// AddonsUnitPrice is the add-on cost for a single unit of the line. The same
// add-on set applies to every unit of quantity.
func (c Customization) AddonsUnitPrice() decimal.Decimal {
	total := decimal.Zero
	for _, a := range c.Addons {
		total = total.Add(a.Price)
	}
	return total
}

// LineTotals is the full price breakdown for one cart or order line.
type LineTotals struct {
	Base       decimal.Decimal // unit_price * quantity
	AddonsUnit decimal.Decimal // sum of valid addon prices
	Addons     decimal.Decimal // addons_unit * quantity
	Total      decimal.Decimal // base + addons
}

// ComputeLineTotals prices one line from its captured unit price, quantity,
// and raw customization payload.
func ComputeLineTotals(unitPrice decimal.Decimal, quantity int32, customization []byte) LineTotals {
	qty := decimal.NewFromInt32(quantity)
	cust := ParseCustomization(customization)

	base := unitPrice.Mul(qty)
	addonsUnit := cust.AddonsUnitPrice()
	addons := addonsUnit.Mul(qty)

	return LineTotals{
		Base:       base,
		AddonsUnit: addonsUnit,
		Addons:     addons,
		Total:      base.Add(addons),
	}
}

// Canonical compacts a customization payload so that equality checks are
// stable across whitespace differences. Empty or malformed payloads
// canonicalize to nil.
func Canonical(raw []byte) []byte {
	if len(raw) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	if buf.String() == "{}" || buf.String() == "null" {
		return nil
	}
	return buf.Bytes()
}

// Equal reports whether two customization payloads are the same selection.
// Cart lines with equal customization for the same menu item merge.
func Equal(a, b []byte) bool {
	return bytes.Equal(Canonical(a), Canonical(b))
}

// Describe renders a short human-readable add-on summary, e.g. for
// notifications and activity logs.
func (c Customization) Describe() string {
	if len(c.Addons) == 0 {
		return ""
	}
	var buf bytes.Buffer
	for i, a := range c.Addons {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s (+%s)", a.Name, a.Price.StringFixed(2))
	}
	return buf.String()
}
