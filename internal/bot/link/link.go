// Package link scans message text for verification links and extracts forum
// identifiers from them.
package link

import (
	"strings"

	"github.com/skobelev/gatewarden/internal/common"
)

// Extract tokenizes text by whitespace and returns the first actionable
// verification link, matched case-insensitively against verifyPrefix.
//
// A token that is a generic URL but not a verification link short-circuits
// with common.ErrInvalidLink. When no token qualifies either way the result
// is ("", nil): plain conversation must not trigger any feedback. Tokens
// after the first qualifying one are never inspected.
func Extract(text, verifyPrefix string) (string, error) {
	prefix := strings.ToLower(verifyPrefix)

	for _, word := range strings.Fields(text) {
		lower := strings.ToLower(word)
		if prefix != "" && strings.HasPrefix(lower, prefix) {
			return word, nil
		}
		if strings.HasPrefix(word, "https://") || strings.HasPrefix(word, "http://") {
			return "", common.ErrInvalidLink
		}
	}

	return "", nil
}

// ForumID extracts the numeric forum identifier from a verification link:
// the prefix is stripped and the first purely-numeric path segment of the
// remainder is the identifier. A link without such a segment yields
// common.ErrMalformedLink.
func ForumID(verifyLink, verifyPrefix string) (string, error) {
	if len(verifyLink) < len(verifyPrefix) {
		return "", common.ErrMalformedLink
	}

	suffix := verifyLink[len(verifyPrefix):]
	for _, part := range strings.Split(suffix, "/") {
		if part != "" && isDigits(part) {
			return part, nil
		}
	}

	return "", common.ErrMalformedLink
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
