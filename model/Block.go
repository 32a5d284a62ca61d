package model

import (
	"bytes"
	"io"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/go-wire"
	"github.com/bsv-blockchain/teranode-archive/errors"
)

// Block is a header plus its transactions. Transactions is nil when only the header is known.
type Block struct {
	Header           *BlockHeader
	Height           uint32
	TransactionCount uint64
	SizeInBytes      uint64
	Transactions     []*bt.Tx

	// local
	hash *chainhash.Hash
}

func NewBlock(header *BlockHeader, height uint32, txs []*bt.Tx) *Block {
	size := uint64(BlockHeaderSize) + uint64(len(bt.VarInt(uint64(len(txs))).Bytes()))
	for _, tx := range txs {
		size += uint64(tx.Size())
	}

	return &Block{
		Header:           header,
		Height:           height,
		TransactionCount: uint64(len(txs)),
		SizeInBytes:      size,
		Transactions:     txs,
	}
}

// NewBlockFromBytes parses a serialized block: the 80 byte header followed by the body.
func NewBlockFromBytes(blockBytes []byte) (*Block, error) {
	if len(blockBytes) < BlockHeaderSize {
		return nil, errors.NewBlockInvalidError("block should be at least %d bytes long, got %d", BlockHeaderSize, len(blockBytes))
	}

	header, err := NewBlockHeaderFromBytes(blockBytes[:BlockHeaderSize])
	if err != nil {
		return nil, err
	}

	txs, err := NewTransactionsFromBytes(blockBytes[BlockHeaderSize:])
	if err != nil {
		return nil, err
	}

	block := &Block{
		Header:           header,
		TransactionCount: uint64(len(txs)),
		SizeInBytes:      uint64(len(blockBytes)),
		Transactions:     txs,
	}

	return block, nil
}

// NewTransactionsFromBytes decodes a block body: a varint count followed by that many transactions.
func NewTransactionsFromBytes(body []byte) ([]*bt.Tx, error) {
	buf := bytes.NewReader(body)

	txCount, err := wire.ReadVarInt(buf, 0)
	if err != nil {
		return nil, errors.NewBlockInvalidError("error reading transaction count", err)
	}

	// every transaction is at least 10 bytes, do not trust the count beyond that
	if txCount > uint64(len(body))/10 {
		return nil, errors.NewBlockInvalidError("transaction count %d exceeds body size %d", txCount, len(body))
	}

	txs := make([]*bt.Tx, 0, txCount)

	for i := uint64(0); i < txCount; i++ {
		tx := &bt.Tx{}
		if _, err = tx.ReadFrom(buf); err != nil {
			return nil, errors.NewBlockInvalidError("error reading transaction %d", i, err)
		}

		txs = append(txs, tx)
	}

	if buf.Len() != 0 {
		rest, _ := io.ReadAll(buf)
		return nil, errors.NewBlockInvalidError("%d trailing bytes after %d transactions", len(rest), txCount)
	}

	return txs, nil
}

func (b *Block) Hash() *chainhash.Hash {
	if b.hash != nil {
		return b.hash
	}

	b.hash = b.Header.Hash()

	return b.hash
}

func (b *Block) String() string {
	return b.Hash().String()
}

// TransactionsBytes encodes the body: varint(len(txs)) followed by the raw transactions.
func (b *Block) TransactionsBytes() []byte {
	buf := bytes.NewBuffer(bt.VarInt(uint64(len(b.Transactions))).Bytes())

	for _, tx := range b.Transactions {
		buf.Write(tx.Bytes())
	}

	return buf.Bytes()
}

// Bytes returns the full serialized block.
func (b *Block) Bytes() []byte {
	return append(b.Header.Bytes(), b.TransactionsBytes()...)
}
