// Package convert turns raw source tokens into typed values.
//
// Every converter is a pure function over a single token: it cleans the token
// (Unicode NFKC, BOM/control runes removed, surrounding space trimmed,
// lower-cased where the domain is a code), maps it onto a closed domain and
// fails with an *InvalidTokenError naming that domain otherwise. Raw strings
// never travel past this package.
//
// Empty tokens are errors unless the converter is one of the Optional*
// variants, which map "" to an explicit missing value.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"ratetables/internal/ratetable"
)

// InvalidTokenError reports a token outside a converter's domain.
type InvalidTokenError struct {
	Token    string
	Expected string
}

func (e *InvalidTokenError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%v: empty value, expected %s", ratetable.ErrInvalidToken, e.Expected)
	}
	return fmt.Sprintf("%v: %q, expected %s", ratetable.ErrInvalidToken, e.Token, e.Expected)
}

func (e *InvalidTokenError) Unwrap() error { return ratetable.ErrInvalidToken }

func invalid(tok, expected string) error {
	return &InvalidTokenError{Token: tok, Expected: expected}
}

// Func is the column-converter signature used by the table loader.
type Func func(raw string) (any, error)

// Clean normalizes a raw token: NFKC (folds no-break spaces and full-width
// forms), drops format/control runes such as a stray BOM, trims space.
func Clean(raw string) string {
	if isPlainASCII(raw) {
		return strings.TrimSpace(raw)
	}
	t := transform.Chain(
		runes.Remove(runes.Predicate(func(r rune) bool {
			return unicode.In(r, unicode.Cf, unicode.Cc) && !unicode.IsSpace(r)
		})),
		norm.NFKC,
	)
	s, _, err := transform.String(t, raw)
	if err != nil {
		s = raw
	}
	return strings.TrimSpace(s)
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= utf8.RuneSelf || (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

func cleanLower(raw string) string { return strings.ToLower(Clean(raw)) }

var (
	yesNo = map[string]bool{"y": true, "yes": true, "n": false, "no": false}

	genders = map[string]bool{"m": true, "male": true, "f": false, "female": false}
)

// ParseYesNo maps y/n (case-insensitive) to a boolean.
func ParseYesNo(raw string) (bool, error) {
	tok := cleanLower(raw)
	v, ok := yesNo[tok]
	if !ok {
		return false, invalid(tok, "one of {y,n}")
	}
	return v, nil
}

// ParseOptionalYesNo is ParseYesNo with "" mapped to a missing value.
func ParseOptionalYesNo(raw string) (ratetable.Optional[bool], error) {
	tok := cleanLower(raw)
	if tok == "" {
		return ratetable.None[bool](), nil
	}
	v, err := ParseYesNo(tok)
	if err != nil {
		return ratetable.None[bool](), err
	}
	return ratetable.Some(v), nil
}

// ParseMale maps m/f to true when the policy gender is male.
func ParseMale(raw string) (bool, error) {
	tok := cleanLower(raw)
	v, ok := genders[tok]
	if !ok {
		return false, invalid(tok, "one of {m,f}")
	}
	return v, nil
}

// ParsePaidByInvoice reports whether a payment-type code means direct
// invoicing ("in"). Other payment codes (automatic draft, list bill, ...) are
// not enumerated in the source data and map to false; only an empty code is
// rejected.
func ParsePaidByInvoice(raw string) (bool, error) {
	tok := cleanLower(raw)
	if tok == "" {
		return false, invalid(tok, "a payment type code")
	}
	return tok == "in", nil
}

// ParseCode returns the cleaned, lower-cased code. Codes are required.
func ParseCode(raw string) (string, error) {
	tok := cleanLower(raw)
	if tok == "" {
		return "", invalid(tok, "a non-empty code")
	}
	return tok, nil
}

// ParseOptionalCode is ParseCode with "" mapped to a missing value.
func ParseOptionalCode(raw string) (ratetable.Optional[string], error) {
	tok := cleanLower(raw)
	if tok == "" {
		return ratetable.None[string](), nil
	}
	return ratetable.Some(tok), nil
}

// ParseInt parses a base-10 integer.
func ParseInt(raw string) (int, error) {
	tok := Clean(raw)
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, invalid(tok, "an integer")
	}
	return n, nil
}

// ParseFloat parses a decimal number without rounding.
func ParseFloat(raw string) (float64, error) {
	tok := Clean(raw)
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, invalid(tok, "a decimal number")
	}
	return f, nil
}

// ParseMoney parses a decimal number and rounds it to two places, half away
// from zero, on the decimal representation of the token.
func ParseMoney(raw string) (float64, error) {
	tok := Clean(raw)
	d, err := decimal.NewFromString(tok)
	if err != nil {
		return 0, invalid(tok, "a decimal number")
	}
	return d.Round(2).InexactFloat64(), nil
}

// Column converters for the table loader.
var (
	YesNo            Func = func(s string) (any, error) { return ParseYesNo(s) }
	OptionalYesNo    Func = func(s string) (any, error) { return ParseOptionalYesNo(s) }
	Male             Func = func(s string) (any, error) { return ParseMale(s) }
	PaidByInvoice    Func = func(s string) (any, error) { return ParsePaidByInvoice(s) }
	Code             Func = func(s string) (any, error) { return ParseCode(s) }
	OptionalCode     Func = func(s string) (any, error) { return ParseOptionalCode(s) }
	Int              Func = func(s string) (any, error) { return ParseInt(s) }
	Float            Func = func(s string) (any, error) { return ParseFloat(s) }
	Money            Func = func(s string) (any, error) { return ParseMoney(s) }
	BillingFrequency Func = func(s string) (any, error) { return ParseFrequency(s) }
)
