// Package hasher computes the checksums written to and checked against export manifests.
package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

// HashAlgorithms lists the supported algorithm names, weakest first.
var HashAlgorithms = []string{"md5", "sha1", "sha256", "sha512"}

var constructors = map[string]func() hash.Hash{
	"md5":    md5.New,
	"sha1":   sha1.New,
	"sha256": sha256.New,
	"sha512": sha512.New,
}

// IsValidHashAlgo reports whether algo names a supported algorithm. Case is ignored.
func IsValidHashAlgo(algo string) bool {
	_, ok := constructors[strings.ToLower(algo)]
	return ok
}

func newHash(algo string) (hash.Hash, error) {
	ctor, ok := constructors[strings.ToLower(algo)]
	if !ok {
		return nil, fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
	return ctor(), nil
}

// GenerateHashFromReader returns the hex digest of everything read from r.
func GenerateHashFromReader(r io.Reader, algo string) (string, error) {
	h, err := newHash(algo)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// GenerateHash returns the hex digest of the file at path.
func GenerateHash(path, algo string) (string, error) {
	if !IsValidHashAlgo(algo) {
		return "", fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return GenerateHashFromReader(f, algo)
}
