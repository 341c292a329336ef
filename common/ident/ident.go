package ident

import (
	"errors"
	"strings"
)

// MaxLength matches the Postgres NAMEDATALEN-1 identifier limit.
const MaxLength = 63

// NamespacePrefix is prepended to every sanitized workspace slug.
const NamespacePrefix = "ws_"

var ErrEmptyIdentifier = errors.New("identifier is empty after sanitization")

// Sanitize turns an arbitrary tenant-supplied name into a storage identifier.
// The result only contains [a-z0-9_], never starts or ends with '_' and is at
// most maxLength bytes long. It never fails; an empty result must be rejected
// by the caller.
func Sanitize(raw string, maxLength int) string {
	if maxLength <= 0 || maxLength > MaxLength {
		maxLength = MaxLength
	}

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range strings.ToLower(raw) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}

	out := strings.Trim(b.String(), "_")
	if len(out) > maxLength {
		// Truncation can expose a trailing separator again.
		out = strings.TrimRight(out[:maxLength], "_")
	}
	return out
}

// Identifier sanitizes raw with the default length and rejects empty results.
func Identifier(raw string) (string, error) {
	out := Sanitize(raw, MaxLength)
	if out == "" {
		return "", ErrEmptyIdentifier
	}
	return out, nil
}

// Namespace derives the storage schema for a workspace slug.
func Namespace(slug string) (string, error) {
	s := Sanitize(slug, MaxLength-len(NamespacePrefix))
	if s == "" {
		return "", ErrEmptyIdentifier
	}
	return NamespacePrefix + s, nil
}

// IsNamespace reports whether name has the shape produced by Namespace.
func IsNamespace(name string) bool {
	if !strings.HasPrefix(name, NamespacePrefix) {
		return false
	}
	rest := name[len(NamespacePrefix):]
	return rest != "" && Sanitize(rest, MaxLength-len(NamespacePrefix)) == rest
}
