// Package title implements normalization and validation of article
// titles, the single identifier type the rest of the search engine keys
// on.
package title

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/rangulvers/wikigraph/internal/apperr"
)

// Title is a normalized article name. Two Titles are equal iff their
// underlying strings match byte-for-byte.
type Title string

const maxLength = 255

// allowedChars mirrors the upstream's title character set: letters,
// digits, spaces, and the punctuation marks that commonly appear in
// encyclopedia titles. Anything else is rejected before normalization.
var allowedChars = regexp.MustCompile(`^[a-zA-Z0-9\s\-\(\)'.,&_:]+$`)

var disallowedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)onerror=`),
	regexp.MustCompile(`(?i)onclick=`),
}

// Validate checks raw input against length, character-set, and
// injection-pattern rules before it is normalized. It rejects empty
// strings and strings containing control characters.
func Validate(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return apperr.New(apperr.InvalidInput, "title must not be empty")
	}
	if len(trimmed) > maxLength {
		return apperr.New(apperr.InvalidInput, "title exceeds maximum length of 255")
	}
	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return apperr.New(apperr.InvalidInput, "title contains control characters")
		}
	}
	for _, pattern := range disallowedPatterns {
		if pattern.MatchString(trimmed) {
			return apperr.New(apperr.InvalidInput, "title contains disallowed characters")
		}
	}
	if !allowedChars.MatchString(trimmed) {
		return apperr.New(apperr.InvalidInput, "title contains invalid characters")
	}
	return nil
}

// Normalize trims, collapses internal whitespace, and applies
// first-letter capitalization, matching the upstream's own title
// canonicalization rule. Callers should call Validate first.
func Normalize(raw string) Title {
	trimmed := strings.TrimSpace(raw)
	collapsed := collapseWhitespace(trimmed)
	return Title(capitalizeFirst(collapsed))
}

func collapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// ParseAndNormalize validates and normalizes raw input in one step,
// the entry point used by the transport layer for both `start` and
// `end` request fields.
func ParseAndNormalize(raw string) (Title, error) {
	if err := Validate(raw); err != nil {
		return "", err
	}
	return Normalize(raw), nil
}

func (t Title) String() string { return string(t) }
