// Package extensions holds small string and time helpers shared across
// Firebrand services. Length based helpers count runes, not bytes.
package extensions

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	DefaultEllipsis = "..."
)

var (
	ErrFormatInvalid    = errors.New("input string was not in a correct format")
	ErrFormatArgMissing = errors.New("format index out of range")
)

// FormatWith replaces {n} placeholders with the n'th argument. Braces are
// escaped by doubling them.
//
//	FormatWith("{0} of {1} {{items}}", 3, 10) // "3 of 10 {items}"
func FormatWith(format string, args ...any) (string, error) {
	var sb strings.Builder
	sb.Grow(len(format))

	for i := 0; i < len(format); i++ {
		c := format[i]
		switch c {
		case '{':
			if i+1 < len(format) && format[i+1] == '{' {
				sb.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(format[i:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at %d", ErrFormatInvalid, i)
			}
			index, err := strconv.Atoi(strings.TrimSpace(format[i+1 : i+end]))
			if err != nil || index < 0 {
				return "", fmt.Errorf("%w: bad placeholder %q", ErrFormatInvalid, format[i:i+end+1])
			}
			if index >= len(args) {
				return "", fmt.Errorf("%w: {%d} with %d arguments", ErrFormatArgMissing, index, len(args))
			}
			sb.WriteString(fmt.Sprint(args[index]))
			i += end
		case '}':
			if i+1 < len(format) && format[i+1] == '}' {
				sb.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: unmatched '}' at %d", ErrFormatInvalid, i)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String(), nil
}

// IsBlank reports whether s is empty or only whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Truncate shortens s to length runes, trims trailing whitespace and appends
// the ellipsis (DefaultEllipsis unless one is given). Strings that already fit
// are returned unchanged.
func Truncate(s string, length int, ellipsis ...string) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	suffix := DefaultEllipsis
	if len(ellipsis) > 0 {
		suffix = ellipsis[0]
	}
	if length < 0 {
		length = 0
	}
	return strings.TrimRightFunc(string(runes[:length]), unicode.IsSpace) + suffix
}

// ToTitleCase upper-cases the first letter of every word and lower-cases the
// rest.
func ToTitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// ContainsAny reports whether any of chars occurs in s.
func ContainsAny(s string, chars ...rune) bool {
	return strings.ContainsAny(s, string(chars))
}

func RemoveWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// IsNumeric reports whether every rune of s is a decimal digit.
func IsNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Left returns the first length runes of s.
func Left(s string, length int) string {
	runes := []rune(s)
	if length >= len(runes) {
		return s
	}
	if length <= 0 {
		return ""
	}
	return string(runes[:length])
}

// Right returns the last length runes of s.
func Right(s string, length int) string {
	runes := []rune(s)
	if length >= len(runes) {
		return s
	}
	if length <= 0 {
		return ""
	}
	return string(runes[len(runes)-length:])
}

// RemoveFromEnd drops count runes from the end of s.
func RemoveFromEnd(s string, count int) string {
	if count <= 0 {
		return s
	}
	runes := []rune(s)
	if count >= len(runes) {
		return ""
	}
	return string(runes[:len(runes)-count])
}

// ContainsIgnoreCase reports whether substr is within s under Unicode case
// folding.
func ContainsIgnoreCase(s, substr string) bool {
	fold := cases.Fold()
	return strings.Contains(fold.String(s), fold.String(substr))
}

func ToSnakeCase(s string) string {
	return separateWords(s, '_')
}

func ToKebabCase(s string) string {
	return separateWords(s, '-')
}

// separateWords puts sep before every upper case rune except the first and
// lower-cases the result.
func separateWords(s string, sep rune) string {
	var sb strings.Builder
	sb.Grow(len(s) + 4)
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			sb.WriteRune(sep)
		}
		sb.WriteRune(unicode.ToLower(r))
	}
	return sb.String()
}

// ToByteArray returns the UTF-8 encoding of s.
func ToByteArray(s string) []byte {
	return []byte(s)
}

func FromBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func ToBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// ReplaceMany applies each old, new pair in argument order, so later pairs
// see the output of earlier ones. It panics if given an odd number of
// arguments.
func ReplaceMany(s string, oldnew ...string) string {
	if len(oldnew)%2 == 1 {
		panic("extensions.ReplaceMany: odd argument count")
	}
	for i := 0; i < len(oldnew); i += 2 {
		s = strings.ReplaceAll(s, oldnew[i], oldnew[i+1])
	}
	return s
}

// SplitAndTrim splits s on any of separators, drops empty entries and trims
// whitespace from the rest.
func SplitAndTrim(s string, separators ...rune) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		for _, sep := range separators {
			if r == sep {
				return true
			}
		}
		return false
	})
	for i, f := range fields {
		fields[i] = strings.TrimSpace(f)
	}
	return fields
}

// ToSlug lower-cases letters and digits and collapses every run of anything
// else into a single hyphen.
func ToSlug(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	hyphen := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
			hyphen = false
			continue
		}
		if !hyphen {
			sb.WriteRune('-')
			hyphen = true
		}
	}
	return strings.Trim(sb.String(), "-")
}

// ToProperCase capitalises the first letter of every sentence and lower-cases
// every other letter. Sentences end with '.', '!' or '?'.
func ToProperCase(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	capitalise := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if capitalise {
				sb.WriteRune(unicode.ToUpper(r))
				capitalise = false
			} else {
				sb.WriteRune(unicode.ToLower(r))
			}
		case r == '.' || r == '!' || r == '?':
			sb.WriteRune(r)
			capitalise = true
		default:
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
