package domain

import (
	"strings"
	"unicode"
)

// Slug normalizes a display name into its routing key:
// lowercase, with every run of whitespace replaced by a single underscore.
// Leading and trailing whitespace is kept as an underscore.
//
//	Slug("First Route") == "first_route"
//	Slug(" Echo ") == "_echo_"
func Slug(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	inSpace := false
	for _, r := range name {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// FunctionName builds the protocol identifier of an operation inside a container.
func FunctionName(container, operation string) string {
	return Slug(container) + "-" + Slug(operation)
}
