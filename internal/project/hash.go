package project

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Digest is a fixed 256-bit content hash.
type Digest [32]byte

// HashBytes digests a byte slice.
func HashBytes(data []byte) Digest {
	return sha256.Sum256(data)
}

// HashFile digests a file's contents.
func HashFile(path string) (Digest, error) {
	f, err := os.Open(path) // #nosec G304 -- caller-selected input file
	if err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Digest{}, fmt.Errorf("hash %s: %w", path, err)
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out, nil
}

// Combine folds several digests into one: H(d1 || d2 || ...).
// Callers must pass deps in a deterministic order.
func Combine(deps ...Digest) Digest {
	h := sha256.New()
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
