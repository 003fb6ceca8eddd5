// Package bands derives contiguous face-amount ranges from band tables.
//
// A band table lists, per premium band, the maximum face amount in thousands
// ("face units"). Ranges are built against an implicit floor of zero:
//
//	boundaries = [0, max(b0), max(b1), ..., max(bn)]
//	lower[i]   = boundaries[i]*1000 + 1
//	upper[i]   = boundaries[i+1]*1000
//
// so band i starts one unit above where band i-1 ends, the first band starts
// at 1, and upper bounds strictly increase. The last band's maximum is stored
// as given: source data uses a very large sentinel to mean "no limit".
package bands

import (
	"fmt"
	"math"
	"sort"

	"ratetables/internal/ratetable"
)

// UnitSize is the face amount represented by one face unit.
const UnitSize = 1000

// UnboundedFaceAmount is the smallest upper bound treated as open-ended by
// IsUnbounded. Source band tables close their last band with a 9,999,999
// unit sentinel or larger.
const UnboundedFaceAmount int64 = 9_999_999 * UnitSize

// Limit is one source row of a band table.
type Limit struct {
	Band         int
	MaxFaceUnits float64
	Line         int // source line, 0 when unknown
}

// Row is a Limit tagged with its band table, as read from the source file.
type Row struct {
	BandTable string
	Limit
}

// Derive converts the ordered limits of one band table into premium bands.
//
// Preconditions: limits are sorted ascending by Band, band numbers are
// contiguous integers starting at limits[0].Band, and MaxFaceUnits strictly
// increases from a value above zero. Violations fail with a
// *ratetable.BandSequenceError; nothing is reordered here.
func Derive(bandTable string, limits []Limit) ([]ratetable.PremiumBand, error) {
	if len(limits) == 0 {
		return nil, nil
	}

	out := make([]ratetable.PremiumBand, 0, len(limits))
	base := limits[0].Band
	prevUnits := 0.0
	prevUpper := int64(0)

	for i, l := range limits {
		fail := func(format string, a ...any) error {
			return &ratetable.BandSequenceError{
				BandTable: bandTable,
				Band:      l.Band,
				Line:      l.Line,
				Reason:    fmt.Sprintf(format, a...),
			}
		}

		if want := base + i; l.Band != want {
			return nil, fail("expected band %d (contiguous from %d)", want, base)
		}
		if math.IsNaN(l.MaxFaceUnits) || math.IsInf(l.MaxFaceUnits, 0) {
			return nil, fail("max face units %v is not finite", l.MaxFaceUnits)
		}
		if l.MaxFaceUnits <= prevUnits {
			return nil, fail("max face units %v not greater than %v", l.MaxFaceUnits, prevUnits)
		}
		upper, ok := faceAmount(l.MaxFaceUnits)
		if !ok {
			return nil, fail("max face units %v overflows the face amount range", l.MaxFaceUnits)
		}
		if upper <= prevUpper {
			return nil, fail("upper face amount %d not greater than %d", upper, prevUpper)
		}

		out = append(out, ratetable.PremiumBand{
			BandTable:       bandTable,
			PremiumBand:     l.Band,
			LowerFaceAmount: prevUpper + 1,
			UpperFaceAmount: upper,
		})
		prevUnits = l.MaxFaceUnits
		prevUpper = upper
	}
	return out, nil
}

// DeriveAll groups rows by band table, sorts each group by band (ties keep
// source order) and derives every group. The result is ordered by band table,
// then band.
func DeriveAll(rows []Row) ([]ratetable.PremiumBand, error) {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BandTable != sorted[j].BandTable {
			return sorted[i].BandTable < sorted[j].BandTable
		}
		return sorted[i].Band < sorted[j].Band
	})

	out := make([]ratetable.PremiumBand, 0, len(sorted))
	for start := 0; start < len(sorted); {
		end := start
		table := sorted[start].BandTable
		limits := make([]Limit, 0, 8)
		for end < len(sorted) && sorted[end].BandTable == table {
			limits = append(limits, sorted[end].Limit)
			end++
		}
		derived, err := Derive(table, limits)
		if err != nil {
			return nil, err
		}
		out = append(out, derived...)
		start = end
	}
	return out, nil
}

// IsUnbounded reports whether an upper face amount is the open-ended
// sentinel of a band table's last band.
func IsUnbounded(upper int64) bool { return upper >= UnboundedFaceAmount }

// faceAmount converts face units to a whole face amount, rounding to the
// nearest unit so that fractional units such as 0.29 do not truncate.
func faceAmount(units float64) (int64, bool) {
	v := math.Round(units * UnitSize)
	if v >= math.MaxInt64 {
		return 0, false
	}
	return int64(v), true
}
