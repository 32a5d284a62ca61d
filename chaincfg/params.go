// Package chaincfg defines the networks the archive can serve and their genesis blocks.
package chaincfg

import (
	"encoding/hex"
	"strings"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-wire"
	"github.com/bsv-blockchain/teranode-archive/errors"
)

// genesisCoinbaseHex is shared by mainnet, testnet and regtest.
const genesisCoinbaseHex = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

// Params defines a network by its name, magic and genesis block.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network.
	Net wire.BitcoinNet

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisHeader is the serialized 80 byte genesis block header.
	GenesisHeader []byte

	// GenesisCoinbase is the serialized coinbase transaction of the genesis block.
	GenesisCoinbase []byte

	// GenesisHash is the double sha256 of GenesisHeader.
	GenesisHash *chainhash.Hash
}

var (
	MainNetParams = newParams(
		"mainnet", wire.MainNet, "8333",
		"0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c",
	)

	TestNetParams = newParams(
		"testnet", wire.TestNet, "18333",
		"0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4adae5494dffff001d1aa4ae18",
	)

	RegressionNetParams = newParams(
		"regtest", wire.RegTestNet, "18444",
		"0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4adae5494dffff7f2002000000",
	)
)

func newParams(name string, net wire.BitcoinNet, port string, headerHex string) Params {
	header, err := hex.DecodeString(headerHex)
	if err != nil {
		panic(err)
	}

	coinbase, err := hex.DecodeString(genesisCoinbaseHex)
	if err != nil {
		panic(err)
	}

	hash := chainhash.DoubleHashH(header)

	return Params{
		Name:            name,
		Net:             net,
		DefaultPort:     port,
		GenesisHeader:   header,
		GenesisCoinbase: coinbase,
		GenesisHash:     &hash,
	}
}

// GetChainParams returns the parameters of the named network.
func GetChainParams(network string) (*Params, error) {
	switch strings.ToLower(network) {
	case "mainnet", "main":
		return &MainNetParams, nil
	case "testnet", "testnet3", "test":
		return &TestNetParams, nil
	case "regtest", "regression":
		return &RegressionNetParams, nil
	default:
		return nil, errors.NewConfigurationError("unknown network %s", network)
	}
}
