package domain

// KeyFromToolCall is set on the execution context when an operation is invoked
// through a protocol tool call rather than directly.
const KeyFromToolCall = "_fromToolCall"

// Context is the shared state of a single invocation.
// Writes are shallow: a later value for a key replaces the earlier one.
type Context map[string]any

// Merge returns a new Context holding the keys of every layer, later layers
// overriding earlier ones. Nil layers are skipped. The inputs are not modified.
func Merge(layers ...Context) Context {
	size := 0
	for _, l := range layers {
		size += len(l)
	}
	out := make(Context, size)
	for _, l := range layers {
		for k, v := range l {
			out[k] = v
		}
	}
	return out
}

// Merge returns a copy of c with patch applied on top.
func (c Context) Merge(patch Context) Context {
	return Merge(c, patch)
}

// Clone returns a shallow copy of c. A nil Context clones to an empty one.
func (c Context) Clone() Context {
	return Merge(c)
}

// String returns the value of key if it is a string.
func (c Context) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Bool reports whether key holds the boolean true.
func (c Context) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// FromToolCall reports whether the invocation came in through a protocol tool call.
func (c Context) FromToolCall() bool {
	return c.Bool(KeyFromToolCall)
}
