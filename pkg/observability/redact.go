package observability

import (
	"context"
	"regexp"

	"github.com/aretw0/relay/pkg/domain"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultSensitiveKeys matches the keys masked by Redact when no pattern is given.
var DefaultSensitiveKeys = []string{`(?i)password`, `(?i)secret`, `(?i)token`, `(?i)api[_-]?key`, `(?i)authorization`}

// Redact wraps next so that values under keys matching any pattern are
// masked in event inputs, outputs and contexts. The event seen by other
// tracers is not modified.
func Redact(next domain.Tracer, patterns ...string) domain.Tracer {
	if len(patterns) == 0 {
		patterns = DefaultSensitiveKeys
	}
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(p)
	}
	return domain.TracerFunc(func(ctx context.Context, e *domain.Event) {
		masked := *e
		masked.Input = maskValue(e.Input, compiled)
		masked.Output = maskValue(e.Output, compiled)
		if m, ok := maskValue(map[string]any(e.Context), compiled).(map[string]any); ok {
			masked.Context = m
		}
		next.Trace(ctx, &masked)
	})
}

func maskValue(v any, patterns []*regexp.Regexp) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if matchesAny(k, patterns) {
				out[k] = Mask
				continue
			}
			out[k] = maskValue(item, patterns)
		}
		return out
	case domain.Context:
		return maskValue(map[string]any(val), patterns)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = maskValue(item, patterns)
		}
		return out
	default:
		return v
	}
}

func matchesAny(key string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
