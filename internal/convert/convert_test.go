package convert

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ratetables/internal/ratetable"
)

func TestParseYesNo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{in: "Y", want: true},
		{in: " y ", want: true},
		{in: "yes", want: true},
		{in: "N", want: false},
		{in: "", wantErr: true},
		{in: "x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseYesNo(tt.in)
		if tt.wantErr {
			require.ErrorIs(t, err, ratetable.ErrInvalidToken, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseOptionalYesNo(t *testing.T) {
	t.Parallel()

	got, err := ParseOptionalYesNo("")
	require.NoError(t, err)
	assert.False(t, got.Valid)

	got, err = ParseOptionalYesNo("  ")
	require.NoError(t, err)
	assert.False(t, got.Valid)

	got, err = ParseOptionalYesNo("Y")
	require.NoError(t, err)
	assert.Equal(t, ratetable.Some(true), got)

	_, err = ParseOptionalYesNo("maybe")
	require.ErrorIs(t, err, ratetable.ErrInvalidToken)
}

func TestInvalidTokenError_NamesDomain(t *testing.T) {
	t.Parallel()

	_, err := ParseMale("x")
	var ite *InvalidTokenError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, "x", ite.Token)
	assert.Equal(t, "one of {m,f}", ite.Expected)
	assert.Contains(t, err.Error(), "expected one of {m,f}")

	_, err = ParseCode("")
	require.True(t, errors.As(err, &ite))
	assert.Contains(t, err.Error(), "empty value")
}

func TestParseMale(t *testing.T) {
	t.Parallel()

	m, err := ParseMale("M")
	require.NoError(t, err)
	assert.True(t, m)

	f, err := ParseMale("f")
	require.NoError(t, err)
	assert.False(t, f)

	_, err = ParseMale("")
	assert.ErrorIs(t, err, ratetable.ErrInvalidToken)
}

func TestParseFrequency(t *testing.T) {
	t.Parallel()

	tests := map[string]Frequency{
		"A": Annual, "m": Monthly, "Q": Quarterly, "s": SemiAnnual,
		"annual": Annual, "Semi-Annual": SemiAnnual, "monthly": Monthly,
	}
	for in, want := range tests {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "w", "12"} {
		_, err := ParseFrequency(bad)
		assert.ErrorIs(t, err, ratetable.ErrInvalidToken, bad)
	}
	assert.Equal(t, "monthly", Monthly.String())
	assert.Equal(t, "Frequency(3)", Frequency(3).String())
}

func TestParsePaidByInvoice(t *testing.T) {
	t.Parallel()

	v, err := ParsePaidByInvoice(" IN ")
	require.NoError(t, err)
	assert.True(t, v)

	v, err = ParsePaidByInvoice("pac")
	require.NoError(t, err)
	assert.False(t, v)

	_, err = ParsePaidByInvoice("")
	assert.ErrorIs(t, err, ratetable.ErrInvalidToken)
}

func TestParseCodes(t *testing.T) {
	t.Parallel()

	c, err := ParseCode("  ULA20M ")
	require.NoError(t, err)
	assert.Equal(t, "ula20m", c)

	oc, err := ParseOptionalCode("")
	require.NoError(t, err)
	assert.False(t, oc.Valid)

	oc, err = ParseOptionalCode("WC19")
	require.NoError(t, err)
	assert.Equal(t, ratetable.Some("wc19"), oc)
}

func TestParseNumbers(t *testing.T) {
	t.Parallel()

	n, err := ParseInt(" 45 ")
	require.NoError(t, err)
	assert.Equal(t, 45, n)

	_, err = ParseInt("45.0")
	assert.ErrorIs(t, err, ratetable.ErrInvalidToken)

	f, err := ParseFloat("9999999.5")
	require.NoError(t, err)
	assert.Equal(t, 9999999.5, f)

	_, err = ParseFloat("abc")
	assert.ErrorIs(t, err, ratetable.ErrInvalidToken)

	m, err := ParseMoney("12.345")
	require.NoError(t, err)
	assert.Equal(t, 12.35, m)

	m, err = ParseMoney("1.005")
	require.NoError(t, err)
	assert.Equal(t, 1.01, m)

	m, err = ParseMoney("-2.675")
	require.NoError(t, err)
	assert.Equal(t, -2.68, m)

	_, err = ParseMoney("")
	assert.ErrorIs(t, err, ratetable.ErrInvalidToken)
}

func TestClean(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"ascii", "  ula20 ", "ula20"},
		{"bom", "\ufeffPlanCode", "PlanCode"},
		{"nbsp", "\u00a0y\u00a0", "y"},
		{"fullwidth", "\uff35\uff2c\uff21\uff12\uff10", "ULA20"},
		{"tab", "\tm\t", "m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), tt.name)
	}
}

func TestColumnFuncs(t *testing.T) {
	t.Parallel()

	v, err := YesNo("n")
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = BillingFrequency("q")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, v)

	v, err = Money("3.5")
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
}
