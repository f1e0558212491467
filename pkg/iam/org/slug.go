package org

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLen     = 120
	minSlugLen     = 2
	suffixLen      = 4
	suffixAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Reserved slugs that would collide with routing or leak internal surfaces.
var reservedSlugs = map[string]bool{
	"admin":    true,
	"api":      true,
	"internal": true,
	"me":       true,
	"system":   true,
	"settings": true,
	"new":      true,
	"default":  true,
}

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:-?[a-z0-9])*$`)

// foldASCII strips diacritics: NFD decomposition, drop combining marks,
// recompose.
var foldASCII = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from an organisation name: transliterate to
// ASCII, lowercase, collapse every non-alphanumeric run into a single hyphen,
// cap at 120 characters. Names that produce fewer than two characters or a
// reserved word are rejected.
func Slugify(name string) (string, error) {
	folded, _, err := transform.String(foldASCII, name)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "-")
	}

	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return slug, nil
}

// WithSuffix appends a random 4-character alphanumeric suffix for collision
// retries. An incrementing counter would leak how many tenants a domain has,
// so the suffix is always random.
func WithSuffix(slug string) (string, error) {
	suffix := make([]byte, suffixLen)
	alphabetLen := big.NewInt(int64(len(suffixAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", ErrSlugExhausted().WithDetail("cause", err.Error())
		}
		suffix[i] = suffixAlphabet[n.Int64()]
	}

	base := slug
	if len(base)+1+suffixLen > maxSlugLen {
		base = strings.Trim(base[:maxSlugLen-1-suffixLen], "-")
	}
	return base + "-" + string(suffix), nil
}

// ValidateSlug checks length, pattern and the reserved word list.
func ValidateSlug(slug string) error {
	if len(slug) < minSlugLen {
		return ErrInvalidName().WithDetail("slug", slug)
	}
	if reservedSlugs[slug] {
		return ErrInvalidName().WithDetail("reason", "reserved")
	}
	if !slugPattern.MatchString(slug) || strings.Contains(slug, "--") {
		return ErrInvalidName().WithDetail("slug", slug)
	}
	return nil
}
