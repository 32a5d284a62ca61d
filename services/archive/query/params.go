package query

import (
	"math"
	"strconv"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/util"
)

// invalidParam builds the rejection for a malformed parameter. The raw string is kept in the
// message and in the error data under "param".
func invalidParam(name, raw string, err error) error {
	params := []interface{}{name, raw}
	if err != nil {
		params = append(params, err)
	}

	tErr := errors.New(errors.ERR_INVALID_PARAM, "invalid %s: %s", params...)
	tErr.SetData("param", raw)

	return tErr
}

// parseHex decodes an optionally 0x prefixed hex string.
func parseHex(name, raw string) ([]byte, error) {
	b, err := util.DecodeHex(raw)
	if err != nil {
		return nil, invalidParam(name, raw, err)
	}

	return b, nil
}

// parseHash decodes a block hash. The bytes are used as is, in internal byte order.
func parseHash(raw string) (*chainhash.Hash, error) {
	b, err := parseHex("hash", raw)
	if err != nil {
		return nil, err
	}

	hash, err := chainhash.NewHash(b)
	if err != nil {
		return nil, invalidParam("hash", raw, err)
	}

	return hash, nil
}

// parseHeight decodes a hex encoded block height, for example "0x1f".
func parseHeight(raw string) (uint32, error) {
	digits := util.TrimHexPrefix(raw)
	if digits == "" {
		return 0, invalidParam("height", raw, nil)
	}

	height, err := strconv.ParseUint(digits, 16, 64)
	if err != nil {
		return 0, invalidParam("height", raw, err)
	}

	if height > math.MaxUint32 {
		return 0, invalidParam("height", raw, errors.NewInvalidArgumentError("height exceeds %d", uint32(math.MaxUint32)))
	}

	return uint32(height), nil
}

// encodeHash is the wire form of a block hash: 0x followed by the raw bytes in hex.
func encodeHash(hash *chainhash.Hash) string {
	return util.EncodeHex(hash[:])
}

func errUnknownEvent(name string) error {
	return errors.NewProcessingError("unknown event %q", name)
}
