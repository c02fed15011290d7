package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMerge_LastWriterWins(t *testing.T) {
	root := Context{"user": "root", "tenant": "acme", "nested": map[string]any{"a": 1}}
	call := Context{"user": "alice", "nested": map[string]any{"b": 2}}

	merged := Merge(root, nil, call)

	assert.Equal(t, "alice", merged["user"])
	assert.Equal(t, "acme", merged["tenant"])
	// Shallow: the nested map is replaced, not combined.
	assert.Equal(t, map[string]any{"b": 2}, merged["nested"])

	// Inputs are untouched.
	assert.Equal(t, "root", root["user"])
	assert.Len(t, call, 2)
}

func TestContext_CloneIsIndependent(t *testing.T) {
	var nilCtx Context
	clone := nilCtx.Clone()
	assert.NotNil(t, clone)

	c := Context{"k": "v"}
	cp := c.Clone()
	cp["k"] = "changed"
	assert.Equal(t, "v", c["k"])
}

func TestContext_Accessors(t *testing.T) {
	c := Context{KeyFromToolCall: true, "name": "relay", "flag": "yes"}

	assert.True(t, c.FromToolCall())
	assert.False(t, c.Bool("flag"))

	s, ok := c.String("name")
	assert.True(t, ok)
	assert.Equal(t, "relay", s)

	_, ok = c.String("missing")
	assert.False(t, ok)
}
