// Package types provides value types shared across the meal ledger.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a monetary value in the smallest currency unit.
// Arithmetic is integer-only; decimal parsing goes through shopspring/decimal.
//
// Examples:
//   - AED(45000) = AED 450.00 (45000 fils)
//   - KWD(12500) = KWD 12.500 (12500 fils)
//   - INR(399900) = ₹3999.00 (399900 paise)
type Money struct {
	Amount   int64  `json:"amount"   bson:"amount"`   // Smallest unit (fils, paise, cents)
	Currency string `json:"currency" bson:"currency"` // ISO 4217 lowercase
}

// AED creates a Money value in UAE Dirhams (fils).
func AED(fils int64) Money { return Money{Amount: fils, Currency: "aed"} }

// SAR creates a Money value in Saudi Riyals (halalas).
func SAR(halalas int64) Money { return Money{Amount: halalas, Currency: "sar"} }

// KWD creates a Money value in Kuwaiti Dinars (fils, three decimals).
func KWD(fils int64) Money { return Money{Amount: fils, Currency: "kwd"} }

// INR creates a Money value in Indian Rupees (paise).
func INR(paise int64) Money { return Money{Amount: paise, Currency: "inr"} }

// USD creates a Money value in US Dollars (cents).
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns a zero Money value in the given currency.
func Zero(currency string) Money { return Money{Currency: strings.ToLower(currency)} }

// ParseMoney converts a major-unit decimal string ("450.50") into Money.
// It rejects amounts with more precision than the currency carries.
func ParseMoney(amount, currency string) (Money, error) {
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return Money{}, fmt.Errorf("money: currency is required")
	}

	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", amount, err)
	}

	places := int32(currencyDecimals(currency))
	minor := d.Shift(places)
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, fmt.Errorf("money: %q has more than %d decimal places for %s", amount, places, currency)
	}

	return Money{Amount: minor.IntPart(), Currency: currency}, nil
}

// MustParseMoney is like ParseMoney but panics on error.
func MustParseMoney(amount, currency string) Money {
	m, err := ParseMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if amount and currency both match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// Decimal returns the major-unit value as a decimal.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -int32(currencyDecimals(m.Currency)))
}

// FormatMajor returns the major unit string without a currency symbol,
// e.g. "450.00" for AED(45000) and "12.500" for KWD(12500).
func (m Money) FormatMajor() string {
	return m.Decimal().StringFixed(int32(currencyDecimals(m.Currency)))
}

// String returns a human-readable string with currency symbol.
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// UnmarshalJSON implements json.Unmarshaler. The display field is ignored.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = strings.ToLower(raw.Currency)
	return nil
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

func currencySymbol(currency string) string {
	symbols := map[string]string{
		"usd": "$",
		"inr": "₹",
		"eur": "€",
		"gbp": "£",
	}
	if sym, ok := symbols[strings.ToLower(currency)]; ok {
		return sym
	}
	return strings.ToUpper(currency) + " "
}

func currencyDecimals(currency string) int {
	switch strings.ToLower(currency) {
	case "jpy", "krw", "vnd", "idr":
		return 0
	case "kwd", "bhd", "omr", "jod", "tnd":
		return 3
	default:
		return 2
	}
}
