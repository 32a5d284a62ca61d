package model

import (
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/teranode-archive/chaincfg"
)

// GenesisBlock builds the genesis block of the given network.
func GenesisBlock(params *chaincfg.Params) (*Block, error) {
	header, err := NewBlockHeaderFromBytes(params.GenesisHeader)
	if err != nil {
		return nil, err
	}

	coinbase, err := bt.NewTxFromBytes(params.GenesisCoinbase)
	if err != nil {
		return nil, err
	}

	return NewBlock(header, 0, []*bt.Tx{coinbase}), nil
}
