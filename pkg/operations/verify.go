package operations

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/habedi/folio/pkg/hasher"
)

// Mismatch is an exported file that no longer matches its manifest entry.
type Mismatch struct {
	File string
	Want string
	Got  string
	Err  error
}

// VerifyExport re-hashes every file listed in the export's manifest.
func VerifyExport(dir, algo string) ([]Mismatch, int, error) {
	if !hasher.IsValidHashAlgo(algo) {
		return nil, 0, fmt.Errorf("unsupported hash algorithm: %s", algo)
	}
	f, err := os.Open(filepath.Join(dir, ManifestName(algo)))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	var mismatches []Mismatch
	checked := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		want, name, ok := strings.Cut(line, "  ")
		if !ok {
			return mismatches, checked, fmt.Errorf("malformed manifest line: %q", line)
		}
		checked++
		got, err := hasher.GenerateHash(filepath.Join(dir, name), algo)
		if err != nil || got != want {
			mismatches = append(mismatches, Mismatch{File: name, Want: want, Got: got, Err: err})
		}
	}
	if err := sc.Err(); err != nil {
		return mismatches, checked, fmt.Errorf("failed to read manifest: %w", err)
	}
	return mismatches, checked, nil
}
