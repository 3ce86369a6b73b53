// Package units converts troy-ounce gold prices into display units.
package units

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GramsPerTroyOunce is the mass of one troy ounce.
const GramsPerTroyOunce = 31.1035

// Unit is a mass unit gold can be priced in.
type Unit string

const (
	Vori      Unit = "vori"
	Gram      Unit = "g"
	Kilogram  Unit = "kg"
	TroyOunce Unit = "oz"
)

// All lists the selectable units in display order.
var All = []Unit{Vori, Gram, Kilogram, TroyOunce}

var gramsPerUnit = map[Unit]float64{
	Vori:      11.6638,
	Gram:      1,
	Kilogram:  1000,
	TroyOunce: GramsPerTroyOunce,
}

// Grams returns the mass of one unit in grams, 0 for an unknown unit.
func (u Unit) Grams() float64 {
	return gramsPerUnit[u]
}

// Label returns the bilingual card label.
func (u Unit) Label() string {
	switch u {
	case Vori:
		return "ভরি (Vori)"
	case Gram:
		return "গ্রাম (Gram)"
	case Kilogram:
		return "কেজি (KG)"
	case TroyOunce:
		return "আউন্স (Ounce)"
	}
	return string(u)
}

// Short returns the compact suffix used after a unit price.
func (u Unit) Short() string {
	if u == Vori {
		return "ভরি"
	}
	return string(u)
}

// Purity is a karat grade.
type Purity int

const (
	K24 Purity = 24
	K22 Purity = 22
)

// Factor returns the fraction of pure gold.
func (p Purity) Factor() float64 {
	return float64(p) / 24
}

func (p Purity) String() string {
	return fmt.Sprintf("%dK", int(p))
}

// Convert maps a price per troy ounce to a price per unit at the given purity.
func Convert(pricePerTroyOunce float64, unit Unit, purity Purity) float64 {
	return pricePerTroyOunce / GramsPerTroyOunce * unit.Grams() * purity.Factor()
}

// TotalPrice multiplies a unit price by quantity. Negative, NaN and infinite
// quantities count as zero.
func TotalPrice(unitPrice, quantity float64) float64 {
	return unitPrice * sanitizeQuantity(quantity)
}

func sanitizeQuantity(q float64) float64 {
	if math.IsNaN(q) || math.IsInf(q, 0) || q < 0 {
		return 0
	}
	return q
}

// ParseUnit accepts unit names and common aliases.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vori", "bhori", "ভরি":
		return Vori, nil
	case "g", "gram", "grams", "গ্রাম":
		return Gram, nil
	case "kg", "kilogram", "কেজি":
		return Kilogram, nil
	case "oz", "ounce", "troy", "আউন্স":
		return TroyOunce, nil
	}
	return "", fmt.Errorf("unknown unit %q", s)
}

// ParsePurity accepts "22", "22k" or "22K" and the 24 karat equivalents.
func ParsePurity(s string) (Purity, error) {
	v := strings.TrimSuffix(strings.ToUpper(strings.TrimSpace(s)), "K")
	switch v {
	case "24":
		return K24, nil
	case "22":
		return K22, nil
	}
	return 0, fmt.Errorf("unsupported purity %q", s)
}

// ParseQuantity reads a quantity from user input. Anything unparsable or
// negative becomes 0.
func ParseQuantity(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return sanitizeQuantity(v)
}

// Selection is the transient unit/quantity/purity choice of the viewer.
type Selection struct {
	Unit     Unit
	Quantity float64
	Purity   Purity
}

// DefaultSelection is one vori of 24 karat gold.
func DefaultSelection() Selection {
	return Selection{Unit: Vori, Quantity: 1, Purity: K24}
}

// UnitPrice converts a troy-ounce price using the selection.
func (s Selection) UnitPrice(pricePerTroyOunce float64) float64 {
	return Convert(pricePerTroyOunce, s.Unit, s.Purity)
}

// Total returns the value of the selected quantity.
func (s Selection) Total(pricePerTroyOunce float64) float64 {
	return TotalPrice(s.UnitPrice(pricePerTroyOunce), s.Quantity)
}
