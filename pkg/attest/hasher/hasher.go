// Package hasher computes content digests for the attest checksum tool.
// Digests are a pure function of file byte content; metadata such as
// timestamps or permissions never influences the result.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Size is the length in bytes of a raw digest.
const Size = sha256.Size

// HexLen is the length of a hex-encoded digest.
const HexLen = Size * 2

// File returns the hex-encoded SHA-256 digest of the file's content.
// The file is streamed, so arbitrarily large files use constant memory.
// The second return value is the number of content bytes read.
func File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return Sum(f)
}

// Sum returns the hex-encoded SHA-256 digest of everything read from r,
// along with the number of bytes consumed.
func Sum(r io.Reader) (string, int64, error) {
	h := sha256.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, fmt.Errorf("hashing content: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// Valid reports whether s looks like a hex-encoded SHA-256 digest.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
