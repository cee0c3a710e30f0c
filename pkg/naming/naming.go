// Package naming converts API wire names into target-language identifiers.
package naming

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Case identifies an identifier casing convention.
type Case string

const (
	Pascal     Case = "pascal"
	Camel      Case = "camel"
	Snake      Case = "snake"
	UpperSnake Case = "upper_snake"
	Kebab      Case = "kebab"
)

// Apply converts s to the casing convention c. Unknown cases return s unchanged.
func (c Case) Apply(s string) string {
	switch c {
	case Pascal:
		return ToPascal(s)
	case Camel:
		return ToCamel(s)
	case Snake:
		return ToSnake(s)
	case UpperSnake:
		return strings.ToUpper(ToSnake(s))
	case Kebab:
		return ToKebab(s)
	default:
		return s
	}
}

// RemoveAccents removes accents from a string, converting accented characters to their base forms
func RemoveAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Words splits s into its words, handling snake_case, kebab-case, camelCase and PascalCase.
// Acronym runs stay together ("XMLHttp" -> "XML", "Http").
func Words(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	s = RemoveAccents(s)

	var out []string
	for _, part := range nonAlnum.Split(s, -1) {
		if part == "" {
			continue
		}
		out = append(out, SplitCamelCase(part)...)
	}
	return out
}

// SplitCamelCase splits a camelCase or PascalCase string into words
func SplitCamelCase(s string) []string {
	if s == "" {
		return nil
	}

	var parts []string
	var current strings.Builder

	rs := []rune(s)
	for i, r := range rs {
		isNewWord := false
		if i > 0 && isUppercase(r) {
			if !isUppercase(rs[i-1]) {
				isNewWord = true
			} else if i < len(rs)-1 && !isUppercase(rs[i+1]) && !unicode.IsDigit(rs[i+1]) {
				isNewWord = true
			}
		}

		if isNewWord && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
		}

		current.WriteRune(r)
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

func isUppercase(r rune) bool {
	return r >= 'A' && r <= 'Z'
}

// ToPascal converts a string to PascalCase
func ToPascal(s string) string {
	var b strings.Builder
	for _, w := range Words(s) {
		b.WriteString(strings.ToUpper(w[:1]))
		if len(w) > 1 {
			b.WriteString(strings.ToLower(w[1:]))
		}
	}
	return b.String()
}

// ToCamel converts a string to camelCase
func ToCamel(s string) string {
	p := ToPascal(s)
	if p == "" {
		return ""
	}
	return strings.ToLower(p[:1]) + p[1:]
}

// ToSnake converts a string to snake_case
func ToSnake(s string) string {
	return joinLower(Words(s), "_")
}

// ToKebab converts a string to kebab-case
func ToKebab(s string) string {
	return joinLower(Words(s), "-")
}

func joinLower(words []string, sep string) string {
	for i := range words {
		words[i] = strings.ToLower(words[i])
	}
	return strings.Join(words, sep)
}

// Singular returns the singular form of the last word of a snake_case or camelCase name.
func Singular(s string) string {
	return mapLastWord(s, inflection.Singular)
}

// Plural returns the plural form of the last word of a snake_case or camelCase name.
func Plural(s string) string {
	return mapLastWord(s, inflection.Plural)
}

func mapLastWord(s string, f func(string) string) string {
	if s == "" {
		return ""
	}
	i := strings.LastIndexAny(s, "_-")
	if i < 0 {
		words := SplitCamelCase(s)
		last := words[len(words)-1]
		return s[:len(s)-len(last)] + f(last)
	}
	return s[:i+1] + f(s[i+1:])
}

// Contains reports whether the word sequence of needle occurs in name, ignoring case
// and separators. Contains("customer_subscriptions", "customer") is true.
func Contains(name, needle string) bool {
	n := strings.ToLower(strings.Join(Words(needle), ""))
	if n == "" {
		return false
	}
	return strings.Contains(strings.ToLower(strings.Join(Words(name), "")), n)
}

// Qualify composes an identifier by prefixing name with its owner, in PascalCase.
// The prefix is skipped when name already starts with the owner's words.
func Qualify(owner, name string) string {
	o, n := ToPascal(owner), ToPascal(name)
	if o == "" || strings.HasPrefix(n, o) {
		return n
	}
	return o + n
}
