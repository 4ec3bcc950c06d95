package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// Hasher computes keyed one-way digests for values stored at rest (one-time
// codes, blacklisted tokens). The key keeps offline dictionary attacks on a
// leaked table from being a simple hash lookup.
type Hasher struct {
	key []byte
}

// NewHasher constructs a Hasher from the configured digest key.
func NewHasher(key string) *Hasher {
	return &Hasher{key: []byte(key)}
}

// Hash returns the HMAC-SHA256 digest of the value as a 64 character hex string.
func (h *Hasher) Hash(value string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(value))
	return hex.EncodeToString(mac.Sum(nil))
}

// GenerateCode returns a random string of the given length drawn uniformly
// from the supplied alphabet.
func GenerateCode(alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	if alphabet == "" {
		return "", fmt.Errorf("alphabet must not be empty")
	}
	if len(alphabet) > 256 {
		return "", fmt.Errorf("alphabet must not exceed 256 characters")
	}

	return codeFrom(rand.Reader, alphabet, length)
}

// codeFrom draws single bytes from r, discarding values beyond the largest
// multiple of the alphabet size. Reducing a raw byte with a plain modulo
// would over-represent the leading characters whenever 256 does not divide
// evenly by the alphabet length.
func codeFrom(r io.Reader, alphabet string, length int) (string, error) {
	limit := 256 - 256%len(alphabet)

	out := make([]byte, 0, length)
	buf := make([]byte, 1)
	for len(out) < length {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		out = append(out, alphabet[int(buf[0])%len(alphabet)])
	}

	return string(out), nil
}
