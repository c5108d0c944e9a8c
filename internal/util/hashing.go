package util

import (
	"crypto/sha256"
	"encoding/hex"

	xdr "github.com/davecgh/go-xdr/xdr2"

	"sibyl/internal/frame"
)

type hashedField struct {
	Kind int32
	Repr string
}

// HashPoint digests a point into a stable 32-byte key. The field kind is
// folded in so Number(1) and Text("1") hash apart.
func HashPoint(point []frame.Value) [32]byte {
	fields := make([]hashedField, len(point))
	for i, v := range point {
		fields[i] = hashedField{Kind: int32(v.Kind()), Repr: v.String()}
	}

	buffer := GetBytesBuffer()
	defer PutBytesBuffer(buffer)
	// Encoding failures leave a shorter prefix in the buffer; the digest of
	// whatever was written is still deterministic.
	_, _ = xdr.Marshal(buffer, fields)
	return sha256.Sum256(buffer.Bytes())
}

// HashKey renders HashPoint as hex, prefixed with the dataset name, for use
// as a cache key.
func HashKey(dataset string, point []frame.Value) string {
	sum := HashPoint(point)
	return dataset + ":" + hex.EncodeToString(sum[:])
}
