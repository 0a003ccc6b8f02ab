package klever

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
)

// Contract views return their values top-encoded: strings as raw bytes,
// integers as minimal big-endian bytes, booleans as a single 0x01 byte or
// nothing at all. Each returnData entry arrives base64-wrapped.

func decodeBytes(entry string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(entry)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 return data: %w", err)
	}
	return b, nil
}

func decodeString(entry string) (string, error) {
	b, err := decodeBytes(entry)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeBigUint(entry string) (*big.Int, error) {
	b, err := decodeBytes(entry)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func decodeUint64(entry string) (uint64, error) {
	n, err := decodeBigUint(entry)
	if err != nil {
		return 0, err
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("value overflows uint64")
	}
	return n.Uint64(), nil
}

func decodeBool(entry string) (bool, error) {
	b, err := decodeBytes(entry)
	if err != nil {
		return false, err
	}
	return len(b) > 0 && b[0] == 1, nil
}

// encodeUint64Arg hex-encodes a view argument as minimal big-endian bytes
func encodeUint64Arg(v uint64) string {
	return hex.EncodeToString(new(big.Int).SetUint64(v).Bytes())
}

// adjust converts a raw chain integer into natural units for the given
// decimal precision.
func adjust(raw *big.Int, precision int) float64 {
	f, _ := new(big.Float).Quo(
		new(big.Float).SetInt(raw),
		big.NewFloat(math.Pow10(precision)),
	).Float64()
	return f
}
