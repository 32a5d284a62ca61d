package model

import (
	"encoding/hex"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/teranode-archive/errors"
)

// NBit is the compact difficulty target, stored in wire (little endian) order.
type NBit [4]byte

func NewNBitFromSlice(b []byte) (*NBit, error) {
	if len(b) != 4 {
		return nil, errors.NewInvalidArgumentError("nbit should be 4 bytes long, got %d", len(b))
	}

	var n NBit

	copy(n[:], b)

	return &n, nil
}

// NewNBitFromString parses the big endian hex form used by RPC ("1d00ffff").
func NewNBitFromString(s string) (*NBit, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid nbit %q", s, err)
	}

	return NewNBitFromSlice(bt.ReverseBytes(b))
}

func (n NBit) String() string {
	return hex.EncodeToString(bt.ReverseBytes(n[:]))
}

func (n NBit) CloneBytes() []byte {
	b := make([]byte, 4)
	copy(b, n[:])

	return b
}

// CalculateTarget expands the compact form into the full 256 bit target.
func (n NBit) CalculateTarget() *big.Int {
	exponent := uint(n[3])
	mantissa := big.NewInt(int64(n[2])<<16 | int64(n[1])<<8 | int64(n[0]))

	if exponent <= 3 {
		return mantissa.Rsh(mantissa, 8*(3-exponent))
	}

	return mantissa.Lsh(mantissa, 8*(exponent-3))
}
