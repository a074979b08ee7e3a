// api/identity/hasher.go
package identity

import (
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"

	"visitstats/api/models"
)

// VisitorID derives a stable pseudonymous identifier from a client address.
// The result is the hex BLAKE2b-256 digest of the trimmed address, or
// models.Unknown when no address is available.
func VisitorID(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return models.Unknown
	}
	sum := blake2b.Sum256([]byte(addr))
	return hex.EncodeToString(sum[:])
}
