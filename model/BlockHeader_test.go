package model

import (
	"encoding/hex"
	"testing"

	"github.com/bsv-blockchain/teranode-archive/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// regtest block 1, header followed by a single coinbase
var (
	block1       = "0000002006226e46111a0b59caaf126043eb5bbf28c34f3a5e332a1fc7b2b73cf188910f1633819a69afbd7ce1f1a01c3b786fcbb023274f3b15172b24feadd4c80e6c6a8b491267ffff7f20040000000102000000010000000000000000000000000000000000000000000000000000000000000000ffffffff03510101ffffffff0100f2052a01000000232103656065e6886ca1e947de3471c9e723673ab6ba34724476417fa9fcef8bafa604ac00000000"
	block1Header = block1[:160]
	block1Body   = block1[160:]
)

func TestBlockHeader(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		header, err := NewBlockHeaderFromString(block1Header)
		require.NoError(t, err)

		assert.Equal(t, uint32(0x20000000), header.Version)
		assert.Equal(t, "207fffff", header.Bits.String())
		assert.Equal(t, uint32(4), header.Nonce)
		assert.Equal(t, chaincfg.RegressionNetParams.GenesisHash.String(), header.HashPrevBlock.String())
		assert.Equal(t, block1Header, hex.EncodeToString(header.Bytes()))
	})

	t.Run("genesis hash", func(t *testing.T) {
		header, err := NewBlockHeaderFromBytes(chaincfg.MainNetParams.GenesisHeader)
		require.NoError(t, err)

		assert.Equal(t, chaincfg.MainNetParams.GenesisHash.String(), header.Hash().String())
		assert.Equal(t, header.Hash().String(), header.String())
	})

	t.Run("wrong size", func(t *testing.T) {
		_, err := NewBlockHeaderFromBytes(make([]byte, 79))
		require.Error(t, err)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := NewBlockHeaderFromString("zz")
		require.Error(t, err)
	})
}

func TestNBit(t *testing.T) {
	bits, err := NewNBitFromString("1d00ffff")
	require.NoError(t, err)

	assert.Equal(t, "1d00ffff", bits.String())
	assert.Equal(t, []byte{0xff, 0xff, 0x00, 0x1d}, bits.CloneBytes())
	assert.Equal(t, "26959535291011309493156476344723991336010898738574164086137773096960", bits.CalculateTarget().String())

	_, err = NewNBitFromString("1d00")
	require.Error(t, err)

	_, err = NewNBitFromString("xyz")
	require.Error(t, err)
}
