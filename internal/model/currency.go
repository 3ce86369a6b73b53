package model

// Currency describes a supported display currency.
type Currency struct {
	Code    string
	Symbol  string
	Country string
}

// Currencies is the fixed, ordered set of supported currencies.
var Currencies = []Currency{
	{Code: "BDT", Symbol: "৳", Country: "Bangladesh"},
	{Code: "USD", Symbol: "$", Country: "United States"},
	{Code: "EUR", Symbol: "€", Country: "Eurozone"},
	{Code: "GBP", Symbol: "£", Country: "United Kingdom"},
	{Code: "JPY", Symbol: "¥", Country: "Japan"},
	{Code: "INR", Symbol: "₹", Country: "India"},
	{Code: "CNY", Symbol: "¥", Country: "China"},
	{Code: "AED", Symbol: "د.إ", Country: "UAE"},
	{Code: "AUD", Symbol: "A$", Country: "Australia"},
	{Code: "CAD", Symbol: "C$", Country: "Canada"},
	{Code: "CHF", Symbol: "Fr", Country: "Switzerland"},
	{Code: "ZAR", Symbol: "R", Country: "South Africa"},
}

// LookupCurrency returns the supported currency with the given code.
func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// SelectCurrencies filters the supported set down to codes, keeping the
// canonical order. An empty list selects every currency.
func SelectCurrencies(codes []string) []Currency {
	if len(codes) == 0 {
		return Currencies
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	out := make([]Currency, 0, len(codes))
	for _, c := range Currencies {
		if want[c.Code] {
			out = append(out, c)
		}
	}
	return out
}
