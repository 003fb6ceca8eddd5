package bands

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// limitsFrom builds a well-formed band table from a base band number and a
// list of positive increments in face units.
func limitsFrom(base int, steps []uint16) []Limit {
	out := make([]Limit, 0, len(steps))
	total := 0.0
	for i, s := range steps {
		total += float64(s) + 1
		out = append(out, Limit{Band: base + i, MaxFaceUnits: total})
	}
	return out
}

// TestDeriveProperties checks the range invariants for arbitrary contiguous
// band tables: lower[0] == 1, lower < upper within a band, and
// upper[i] == lower[i+1]-1 between neighbours.
func TestDeriveProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("bands are gapless and strictly increasing", prop.ForAll(
		func(base int, steps []uint16) bool {
			if len(steps) == 0 {
				return true
			}
			got, err := Derive("prop", limitsFrom(base, steps))
			if err != nil || len(got) != len(steps) {
				return false
			}
			if got[0].LowerFaceAmount != 1 {
				return false
			}
			for i, b := range got {
				if b.PremiumBand != base+i {
					return false
				}
				if b.LowerFaceAmount > b.UpperFaceAmount {
					return false
				}
				if i > 0 && got[i-1].UpperFaceAmount != b.LowerFaceAmount-1 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 10),
		gen.SliceOf(gen.UInt16()),
	))

	properties.Property("upper bound is max face units times 1000", prop.ForAll(
		func(steps []uint16) bool {
			limits := limitsFrom(1, steps)
			got, err := Derive("prop", limits)
			if err != nil {
				return false
			}
			for i := range got {
				if got[i].UpperFaceAmount != int64(limits[i].MaxFaceUnits)*UnitSize {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.UInt16()),
	))

	properties.Property("a gap anywhere is rejected", prop.ForAll(
		func(steps []uint16, at int) bool {
			if len(steps) < 2 {
				return true
			}
			limits := limitsFrom(1, steps)
			i := 1 + at%(len(limits)-1)
			for j := i; j < len(limits); j++ {
				limits[j].Band++
			}
			_, err := Derive("prop", limits)
			return err != nil
		},
		gen.SliceOf(gen.UInt16()),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
