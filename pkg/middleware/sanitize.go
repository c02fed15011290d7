package middleware

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/relay/pkg/chain"
)

var (
	// DefaultMaxInputSize is 4KB per string value.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides the default limit.
	EnvMaxInputSize = "RELAY_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize cleans every string in the input before it reaches validation:
// oversized or invalid UTF-8 strings are rejected and control characters
// other than newline, tab and carriage return are stripped.
// A limit of zero or less uses DefaultMaxInputSize or EnvMaxInputSize.
func Sanitize(limit int) chain.Middleware {
	return func(ctx context.Context, req *chain.Request, next chain.Next) (any, error) {
		size := limit
		if size <= 0 {
			size = maxInputSize()
		}
		clean, err := sanitizeValue(req.Input, size, "")
		if err != nil {
			return nil, err
		}
		req.Input = clean
		return next(nil)
	}
}

// SanitizeString applies the Sanitize rules to a single string.
func SanitizeString(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func sanitizeValue(v any, limit int, path string) (any, error) {
	switch val := v.(type) {
	case string:
		s, err := SanitizeString(val, limit)
		if err != nil && path != "" {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		return s, err
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			clean, err := sanitizeValue(item, limit, join(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = clean
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			clean, err := sanitizeValue(item, limit, join(path, strconv.Itoa(i)))
			if err != nil {
				return nil, err
			}
			out[i] = clean
		}
		return out, nil
	default:
		return v, nil
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}
