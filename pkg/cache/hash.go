package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"hash"
	"io"
)

// Hasher computes the SHA-256 content hash of a graph. It is an io.Writer,
// so a graph encoder can stream straight into it.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns an empty Hasher.
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Write adds p to the hash. It never fails.
func (h *Hasher) Write(p []byte) (int, error) {
	return h.h.Write(p)
}

// Sum returns the 64-character hex digest of everything written so far.
func (h *Hasher) Sum() string {
	return hex.EncodeToString(h.h.Sum(nil))
}

// Hash returns the hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// entryKey returns "<keyType>:<digest>" where the digest covers the graph
// hash and the JSON form of opts. Option structs always encode, so the
// encoder error is ignored.
func entryKey(keyType, graphHash string, opts any) string {
	h := NewHasher()
	_, _ = io.WriteString(h, graphHash)
	_, _ = h.Write([]byte{0})
	_ = json.NewEncoder(h).Encode(opts)
	return keyType + ":" + h.Sum()
}
