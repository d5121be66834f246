package fields

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireInvalid(t *testing.T, err error) {
	t.Helper()
	var ie *InvalidError
	require.True(t, errors.As(err, &ie), "expected *InvalidError, got %v", err)
	assert.NotEmpty(t, ie.Message)
}

func TestSkipTokens(t *testing.T) {
	for _, in := range []string{"", "  ", "skip", "SKIP", " Skip "} {
		r, err := OptionalText(in)
		require.NoError(t, err)
		assert.True(t, r.Skipped, "input %q", in)
	}
}

func TestRequired(t *testing.T) {
	r, err := Required("  Test Shirt ")
	require.NoError(t, err)
	assert.Equal(t, "Test Shirt", r.Value)

	_, err = Required("   ")
	requireInvalid(t, err)
}

func TestOptionalPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
		bad  bool
	}{
		{"12.5", "12.50", false},
		{"199.999", "200.00", false},
		{"0", "0.00", false},
		{"-1", "", true},
		{"abc", "", true},
		{"NaN", "", true},
		{"inf", "", true},
		{"+Inf", "", true},
		{"-Infinity", "", true},
	}
	for _, tt := range tests {
		r, err := OptionalPrice(tt.in)
		if tt.bad {
			requireInvalid(t, err)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, r.Value, tt.in)
	}
}

func TestOptionalInteger(t *testing.T) {
	r, err := OptionalInteger("12")
	require.NoError(t, err)
	assert.Equal(t, 12, r.Value)

	r, err = OptionalInteger("-3")
	require.NoError(t, err)
	assert.Equal(t, -3, r.Value)

	_, err = OptionalInteger("1.5")
	requireInvalid(t, err)

	_, err = OptionalInteger("Inf")
	requireInvalid(t, err)

	_, err = OptionalNonNegativeInteger("-3")
	requireInvalid(t, err)
}

func TestOptionalBoolean(t *testing.T) {
	for in, want := range map[string]bool{"yes": true, "Y": true, "true": true, "no": false, "n": false, "FALSE": false} {
		r, err := OptionalBoolean(in)
		require.NoError(t, err)
		assert.Equal(t, want, r.Value, in)
	}
	_, err := OptionalBoolean("maybe")
	requireInvalid(t, err)
}

func TestOptionalEnum(t *testing.T) {
	r, err := OptionalStockStatus("OutOfStock")
	require.NoError(t, err)
	assert.Equal(t, "outofstock", r.Value)

	_, err = OptionalStockStatus("gone")
	requireInvalid(t, err)
	assert.Contains(t, err.Error(), "instock, outofstock, onbackorder")
}

func TestOptionalNameList(t *testing.T) {
	r, err := OptionalNameList("Shirts, Summer ,, Men")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shirts", "Summer", "Men"}, r.Value)

	_, err = OptionalNameList(",,")
	requireInvalid(t, err)
}

func TestOptionalMetaPairs(t *testing.T) {
	r, err := OptionalMetaPairs("color:blue, brand:nike")
	require.NoError(t, err)
	assert.Equal(t, []MetaPair{{"color", "blue"}, {"brand", "nike"}}, r.Value)

	_, err = OptionalMetaPairs("color")
	requireInvalid(t, err)
}

func TestOptionalDownloads(t *testing.T) {
	r, err := OptionalDownloads("Manual|https://example.com/m.pdf")
	require.NoError(t, err)
	assert.Equal(t, []Download{{Name: "Manual", File: "https://example.com/m.pdf"}}, r.Value)

	_, err = OptionalDownloads("Manual")
	requireInvalid(t, err)
}

func TestOptionalIDList(t *testing.T) {
	r, err := OptionalIDList("12, 15")
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 15}, r.Value)

	_, err = OptionalIDList("12, 0")
	requireInvalid(t, err)
}
