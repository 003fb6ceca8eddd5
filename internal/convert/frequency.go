package convert

import "fmt"

// Frequency is the number of premium payments per policy year.
type Frequency int

const (
	Annual     Frequency = 1
	SemiAnnual Frequency = 2
	Quarterly  Frequency = 4
	Monthly    Frequency = 12
)

var frequencies = map[string]Frequency{
	"a":           Annual,
	"annual":      Annual,
	"s":           SemiAnnual,
	"semiannual":  SemiAnnual,
	"semi-annual": SemiAnnual,
	"q":           Quarterly,
	"quarterly":   Quarterly,
	"m":           Monthly,
	"monthly":     Monthly,
}

// ParseFrequency maps a billing-frequency code (a/s/q/m or the spelled-out
// name) to its payment count.
func ParseFrequency(raw string) (Frequency, error) {
	tok := cleanLower(raw)
	f, ok := frequencies[tok]
	if !ok {
		return 0, invalid(tok, "one of {a,m,q,s}")
	}
	return f, nil
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "annual"
	case SemiAnnual:
		return "semiannual"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	}
	return fmt.Sprintf("Frequency(%d)", int(f))
}
