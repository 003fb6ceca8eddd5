// Package charges computes modal policy charges from the modal profile table.
package charges

import (
	"github.com/shopspring/decimal"

	"ratetables/internal/convert"
	"ratetables/internal/ratetable"
)

// Input is one converted row of the modal profile table.
type Input struct {
	ChargesTable     string
	BillingFrequency convert.Frequency
	PaidByInvoice    bool
	PremiumFactor    float64
	ModalPolicyFee   float64
	CollectionFee    float64
	Line             int
}

// Aggregate returns the annualized charge for one modal profile:
//
//	round2((premium_factor + modal_policy_fee + collection_fee) * frequency)
//
// The sum and product are taken on decimal values so binary float error
// cannot move a half-cent across the rounding boundary.
func Aggregate(in Input) ratetable.PolicyCharge {
	sum := decimal.NewFromFloat(in.PremiumFactor).
		Add(decimal.NewFromFloat(in.ModalPolicyFee)).
		Add(decimal.NewFromFloat(in.CollectionFee))
	total := sum.Mul(decimal.NewFromInt(int64(in.BillingFrequency))).Round(2)

	return ratetable.PolicyCharge{
		ChargesTable:     in.ChargesTable,
		BillingFrequency: int(in.BillingFrequency),
		PaidByInvoice:    in.PaidByInvoice,
		PolicyCharges:    total.InexactFloat64(),
	}
}

// AggregateAll applies Aggregate to every input, preserving order.
func AggregateAll(in []Input) []ratetable.PolicyCharge {
	out := make([]ratetable.PolicyCharge, len(in))
	for i := range in {
		out[i] = Aggregate(in[i])
	}
	return out
}
