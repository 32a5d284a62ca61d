package query

import (
	"strings"
	"testing"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHash(t *testing.T) {
	raw := "0xab" + strings.Repeat("00", 31)

	hash, err := parseHash(raw)
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), hash[0])
	assert.Equal(t, raw, encodeHash(hash))

	hash, err = parseHash(raw[2:])
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), hash[0])

	for _, bad := range []string{"not-hex", "0xab", "", "0x" + raw[2:] + "00"} {
		t.Run(bad, func(t *testing.T) {
			_, err := parseHash(bad)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidParam))
		})
	}
}

func TestParseHex(t *testing.T) {
	b, err := parseHex("key", "0x0102")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	b, err = parseHex("key", "0XAB")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xab}, b)

	height, err := parseHeight("0XAB")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xab), height)

	b, err = parseHex("key", "")
	require.NoError(t, err)
	assert.Empty(t, b)

	_, err = parseHex("key", "not-hex")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-hex")

	var tErr *errors.Error
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, errors.ERR_INVALID_PARAM, tErr.Code())
	assert.Equal(t, "not-hex", tErr.GetData("param"))
}

func TestParseHeight(t *testing.T) {
	tests := []struct {
		raw     string
		height  uint32
		invalid bool
	}{
		{raw: "0x0", height: 0},
		{raw: "0x1f", height: 31},
		{raw: "1F", height: 31},
		{raw: "0Xff", height: 255},
		{raw: "0xffffffff", height: 4294967295},
		{raw: "0x100000000", invalid: true},
		{raw: "0x", invalid: true},
		{raw: "0x0Xff", invalid: true},
		{raw: "", invalid: true},
		{raw: "twelve", invalid: true},
		{raw: "-1", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			height, err := parseHeight(tt.raw)
			if tt.invalid {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrInvalidParam))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.height, height)
		})
	}
}
