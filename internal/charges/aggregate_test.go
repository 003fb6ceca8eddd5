package charges

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"ratetables/internal/convert"
	"ratetables/internal/ratetable"
)

func TestAggregate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Input
		want float64
	}{
		{
			name: "monthly fees",
			in:   Input{ChargesTable: "mp1", BillingFrequency: convert.Monthly, PremiumFactor: 0, ModalPolicyFee: 3.5, CollectionFee: 1},
			want: 54.00,
		},
		{
			name: "annual",
			in:   Input{ChargesTable: "mp1", BillingFrequency: convert.Annual, PremiumFactor: 1, ModalPolicyFee: 0, CollectionFee: 0},
			want: 1.00,
		},
		{
			name: "half cent rounds away from zero",
			in:   Input{ChargesTable: "mp1", BillingFrequency: convert.Annual, PremiumFactor: 0.005},
			want: 0.01,
		},
		{
			name: "float sum is exact in decimal",
			in:   Input{ChargesTable: "mp1", BillingFrequency: convert.Quarterly, PremiumFactor: 0.1, ModalPolicyFee: 0.2},
			want: 1.2,
		},
		{
			name: "semiannual",
			in:   Input{ChargesTable: "mp2", BillingFrequency: convert.SemiAnnual, PremiumFactor: 0.51, ModalPolicyFee: 2.25, CollectionFee: 0.333},
			want: 6.19,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Aggregate(tt.in)
			assert.Equal(t, tt.want, got.PolicyCharges)
			assert.Equal(t, tt.in.ChargesTable, got.ChargesTable)
			assert.Equal(t, int(tt.in.BillingFrequency), got.BillingFrequency)
		})
	}
}

func TestAggregateAll_PreservesOrderAndKeys(t *testing.T) {
	t.Parallel()

	got := AggregateAll([]Input{
		{ChargesTable: "b", BillingFrequency: convert.Monthly, PaidByInvoice: true, ModalPolicyFee: 1},
		{ChargesTable: "a", BillingFrequency: convert.Annual, CollectionFee: 2},
	})
	assert.Equal(t, []ratetable.PolicyCharge{
		{ChargesTable: "b", BillingFrequency: 12, PaidByInvoice: true, PolicyCharges: 12},
		{ChargesTable: "a", BillingFrequency: 1, PaidByInvoice: false, PolicyCharges: 2},
	}, got)
	assert.Empty(t, AggregateAll(nil))
}

// Inputs are whole cents, as they appear in the source, so the expected
// value can be computed in integer cents.
func TestAggregateProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)
	freqs := []convert.Frequency{convert.Annual, convert.SemiAnnual, convert.Quarterly, convert.Monthly}

	properties.Property("charge equals cents sum times frequency", prop.ForAll(
		func(pf, mpf, cf uint16, fi int) bool {
			freq := freqs[fi]
			got := Aggregate(Input{
				BillingFrequency: freq,
				PremiumFactor:    decimal.New(int64(pf), -2).InexactFloat64(),
				ModalPolicyFee:   decimal.New(int64(mpf), -2).InexactFloat64(),
				CollectionFee:    decimal.New(int64(cf), -2).InexactFloat64(),
			})
			cents := (int64(pf) + int64(mpf) + int64(cf)) * int64(freq)
			return got.PolicyCharges == decimal.New(cents, -2).InexactFloat64()
		},
		gen.UInt16(), gen.UInt16(), gen.UInt16(), gen.IntRange(0, len(freqs)-1),
	))

	properties.TestingRun(t)
}
