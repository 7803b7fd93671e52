// Package gravatar derives avatar URLs from email addresses.
package gravatar

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
)

const baseURL = "https://www.gravatar.com/avatar/"

// URL returns the gravatar URL for the given email address.
func URL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	sum := md5.Sum([]byte(normalized))
	return baseURL + hex.EncodeToString(sum[:]) + "?d=identicon"
}
