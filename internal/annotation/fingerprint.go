package annotation

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the hex BLAKE3 digest of the sentence texts. Each
// sentence is terminated by a NUL byte, so the digest does not depend on
// the separator the text was split with.
func Fingerprint(texts []string) string {
	h := blake3.New()
	for _, t := range texts {
		_, _ = h.Write([]byte(t))
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Verify checks the stored fingerprint against the sentences. Files without
// a fingerprint always verify.
func (f *File) Verify() error {
	if f.TextHash == "" {
		return nil
	}
	if got := Fingerprint(f.Texts()); got != f.TextHash {
		return ErrTextMismatch
	}
	return nil
}
