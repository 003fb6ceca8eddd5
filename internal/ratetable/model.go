// Package ratetable defines the typed rows persisted by the build job and the
// error taxonomy shared by every stage.
//
// Each entity mirrors one relational table. Rows are created once per build
// from the source files, never mutated, and replaced wholesale on the next
// build. Columns() and Values() keep the SQL column order in one place so the
// schema, the artifact writer and the loader cannot drift apart.
package ratetable

import (
	"bytes"
	"encoding/json"
)

// SQL table names.
const (
	TableRateDescription = "rate_description"
	TablePremiumBand     = "premium_band"
	TablePremiumRate     = "premium_rate"
	TablePolicyCharge    = "policy_charge"
	TableCashValue       = "whole_life_cash_value"
)

// Optional holds a value that may be explicitly missing. It encodes as JSON
// null and is written to the store as SQL NULL when missing.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some returns a present Optional.
func Some[T any](v T) Optional[T] { return Optional[T]{Value: v, Valid: true} }

// None returns a missing Optional.
func None[T any]() Optional[T] { return Optional[T]{} }

// MarshalJSON implements json.Marshaler.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}

// RateDescription ties a plan code to the tables that price it.
type RateDescription struct {
	PlanCode          string           `json:"plan_code"`
	PremiumTable      string           `json:"premium_table"`
	BandTable         string           `json:"band_table"`
	CashValueTable    Optional[string] `json:"cash_value_table"`
	ChargesTable      string           `json:"charges_table"`
	UnisexRates       bool             `json:"unisex_rates"`
	UnisexCashValues  Optional[bool]   `json:"unisex_cash_values"`
	MinimumFaceAmount int64            `json:"minimum_face_amount"`
}

// PremiumBand is one face-amount range of a band table. Bounds are whole
// currency units (face units x 1000).
type PremiumBand struct {
	BandTable       string `json:"band_table"`
	PremiumBand     int    `json:"premium_band"`
	LowerFaceAmount int64  `json:"lower_face_amount"`
	UpperFaceAmount int64  `json:"upper_face_amount"`
}

// PremiumRate is the per-mille premium for one rating cell.
type PremiumRate struct {
	PremiumTable     string  `json:"premium_table"`
	PremiumBand      int     `json:"premium_band"`
	IssueAge         int     `json:"issue_age"`
	MalePolicyGender bool    `json:"male_policy_gender"`
	RiskClass        string  `json:"risk_class"`
	PremiumPer1000   float64 `json:"premium_per_1000"`
}

// PolicyCharge is the modal policy charge for a billing frequency and payment
// method.
type PolicyCharge struct {
	ChargesTable     string  `json:"charges_table"`
	BillingFrequency int     `json:"billing_frequency"`
	PaidByInvoice    bool    `json:"paid_by_invoice"`
	PolicyCharges    float64 `json:"policy_charges"`
}

// CashValue is the per-mille cash value for one policy year of a rating cell.
type CashValue struct {
	CashValueTable   string  `json:"cash_value_table"`
	IssueAge         int     `json:"issue_age"`
	PolicyYear       int     `json:"policy_year"`
	MalePolicyGender bool    `json:"male_policy_gender"`
	RiskClass        string  `json:"risk_class"`
	CashValuePer1000 float64 `json:"cash_value_per_1000"`
}

// Row is implemented by every entity so the loader can stay generic.
type Row interface {
	// Values returns the column values in Columns() order, ready for a SQL
	// driver. Booleans are returned as 0/1 and missing optionals as nil.
	Values() []any
	// Key returns the primary-key values in key order.
	Key() []any
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func optionalString(o Optional[string]) any {
	if !o.Valid {
		return nil
	}
	return o.Value
}

func optionalBool(o Optional[bool]) any {
	if !o.Valid {
		return nil
	}
	return boolInt(o.Value)
}

// Columns returns the SQL column order for rate_description.
func (RateDescription) Columns() []string {
	return []string{
		"plan_code", "premium_table", "band_table", "cash_value_table",
		"charges_table", "unisex_rates", "unisex_cash_values", "minimum_face_amount",
	}
}

func (d RateDescription) Values() []any {
	return []any{
		d.PlanCode, d.PremiumTable, d.BandTable, optionalString(d.CashValueTable),
		d.ChargesTable, boolInt(d.UnisexRates), optionalBool(d.UnisexCashValues), d.MinimumFaceAmount,
	}
}

func (d RateDescription) Key() []any { return []any{d.PlanCode} }

// Columns returns the SQL column order for premium_band.
func (PremiumBand) Columns() []string {
	return []string{"band_table", "premium_band", "lower_face_amount", "upper_face_amount"}
}

func (b PremiumBand) Values() []any {
	return []any{b.BandTable, int64(b.PremiumBand), b.LowerFaceAmount, b.UpperFaceAmount}
}

func (b PremiumBand) Key() []any { return []any{b.BandTable, b.PremiumBand} }

// Columns returns the SQL column order for premium_rate.
func (PremiumRate) Columns() []string {
	return []string{
		"premium_table", "premium_band", "issue_age", "male_policy_gender",
		"risk_class", "premium_per_1000",
	}
}

func (r PremiumRate) Values() []any {
	return []any{
		r.PremiumTable, int64(r.PremiumBand), int64(r.IssueAge), boolInt(r.MalePolicyGender),
		r.RiskClass, r.PremiumPer1000,
	}
}

func (r PremiumRate) Key() []any {
	return []any{r.PremiumTable, r.PremiumBand, r.IssueAge, r.MalePolicyGender, r.RiskClass}
}

// Columns returns the SQL column order for policy_charge.
func (PolicyCharge) Columns() []string {
	return []string{"charges_table", "billing_frequency", "paid_by_invoice", "policy_charges"}
}

func (c PolicyCharge) Values() []any {
	return []any{c.ChargesTable, int64(c.BillingFrequency), boolInt(c.PaidByInvoice), c.PolicyCharges}
}

func (c PolicyCharge) Key() []any {
	return []any{c.ChargesTable, c.BillingFrequency, c.PaidByInvoice}
}

// Columns returns the SQL column order for whole_life_cash_value.
func (CashValue) Columns() []string {
	return []string{
		"cash_value_table", "issue_age", "policy_year", "male_policy_gender",
		"risk_class", "cash_value_per_1000",
	}
}

func (v CashValue) Values() []any {
	return []any{
		v.CashValueTable, int64(v.IssueAge), int64(v.PolicyYear), boolInt(v.MalePolicyGender),
		v.RiskClass, v.CashValuePer1000,
	}
}

func (v CashValue) Key() []any {
	return []any{v.CashValueTable, v.IssueAge, v.PolicyYear, v.MalePolicyGender, v.RiskClass}
}

// Set is the complete output of one transform run, one slice per table.
type Set struct {
	Descriptions []RateDescription
	Bands        []PremiumBand
	PremiumRates []PremiumRate
	Charges      []PolicyCharge
	CashValues   []CashValue
}

// Counts returns the number of rows per SQL table.
func (s Set) Counts() map[string]int {
	return map[string]int{
		TableRateDescription: len(s.Descriptions),
		TablePremiumBand:     len(s.Bands),
		TablePremiumRate:     len(s.PremiumRates),
		TablePolicyCharge:    len(s.Charges),
		TableCashValue:       len(s.CashValues),
	}
}

// Rows returns the rows of the named table, or nil for an unknown name.
func (s Set) Rows(table string) []Row {
	switch table {
	case TableRateDescription:
		return rows(s.Descriptions)
	case TablePremiumBand:
		return rows(s.Bands)
	case TablePremiumRate:
		return rows(s.PremiumRates)
	case TablePolicyCharge:
		return rows(s.Charges)
	case TableCashValue:
		return rows(s.CashValues)
	}
	return nil
}

func rows[T Row](in []T) []Row {
	out := make([]Row, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}
