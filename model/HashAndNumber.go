package model

import (
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// HashAndNumber identifies a block by hash and height.
type HashAndNumber struct {
	Hash   chainhash.Hash
	Number uint32
}

func (h HashAndNumber) String() string {
	return fmt.Sprintf("%s@%d", h.Hash.String(), h.Number)
}
