package process

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestRunner_Run(t *testing.T) {
	skipOnWindows(t)
	runner := NewRunner()
	ctx := context.Background()

	t.Run("Passes Arguments Through Environment", func(t *testing.T) {
		proc := ProcessConfig{Name: "echo", Command: "sh", Args: []string{"-c", "echo $RELAY_ARG_MSG"}}
		out, err := runner.Run(ctx, proc, map[string]any{"msg": "hello"})
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("Decodes JSON Output", func(t *testing.T) {
		proc := ProcessConfig{Name: "json", Command: "sh", Args: []string{"-c", `echo '{"sum": 3}'`}}
		out, err := runner.Run(ctx, proc, nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"sum": float64(3)}, out)
	})

	t.Run("Applies Static Environment", func(t *testing.T) {
		proc := ProcessConfig{
			Name:        "env",
			Command:     "sh",
			Args:        []string{"-c", "echo $GREETING"},
			Environment: map[string]string{"GREETING": "hi"},
		}
		out, err := runner.Run(ctx, proc, nil)
		require.NoError(t, err)
		assert.Equal(t, "hi", out)
	})

	t.Run("Reports Failure With Stderr", func(t *testing.T) {
		proc := ProcessConfig{Name: "fail", Command: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}}
		_, err := runner.Run(ctx, proc, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
	})

	t.Run("Enforces Timeout", func(t *testing.T) {
		proc := ProcessConfig{Name: "slow", Command: "sh", Args: []string{"-c", "sleep 5"}, Timeout: "50ms"}
		_, err := runner.Run(ctx, proc, nil)
		assert.Error(t, err)
	})

	t.Run("Rejects Bad Timeout", func(t *testing.T) {
		proc := ProcessConfig{Name: "bad", Command: "true", Timeout: "soon"}
		_, err := runner.Run(ctx, proc, nil)
		assert.ErrorContains(t, err, "invalid timeout")
	})
}

func TestRunner_BaseDir(t *testing.T) {
	skipOnWindows(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("found"), 0o644))

	runner := NewRunner(WithBaseDir(dir))
	out, err := runner.Run(context.Background(), ProcessConfig{Name: "cat", Command: "cat", Args: []string{"marker.txt"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, "found", out)
}

func TestRunner_Container(t *testing.T) {
	skipOnWindows(t)
	tools := []ProcessConfig{
		{
			Name:        "greet",
			Description: "Greets someone",
			Command:     "sh",
			Args:        []string{"-c", "echo Hello, $RELAY_ARG_NAME"},
			Input:       schema.Schema{"name": schema.String()},
		},
	}

	c := NewRunner().Container("Shell", "Local commands", tools)
	assert.Equal(t, dsl.KindTool, c.Kind())
	require.Len(t, c.Operations(), 1)

	out, handled, err := c.HandleToolCall(context.Background(), "shell-greet", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "Hello, Ada", out)

	t.Run("Invalid Input Is Rejected", func(t *testing.T) {
		_, _, err := c.HandleToolCall(context.Background(), "shell-greet", map[string]any{"name": 42})
		var verr *dsl.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestRunner_ContainerWithoutInput(t *testing.T) {
	skipOnWindows(t)
	c := NewRunner().Container("Shell", "", []ProcessConfig{
		{Name: "date", Command: "sh", Args: []string{"-c", "echo ok"}},
	})
	out, handled, err := c.HandleToolCall(context.Background(), "shell-date", nil)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "ok", out)
}

func TestLoadTools(t *testing.T) {
	dir := t.TempDir()

	t.Run("Missing File Yields Nothing", func(t *testing.T) {
		tools, err := LoadTools(filepath.Join(dir, "absent.yaml"))
		require.NoError(t, err)
		assert.Empty(t, tools)
	})

	t.Run("YAML Keeps Declaration Order", func(t *testing.T) {
		path := filepath.Join(dir, "tools.yaml")
		doc := `tools:
  - name: zeta
    command: echo
    args: ["z"]
  - name: alpha
    command: echo
    description: First letter
    input:
      who: string
    timeout: 2s
`
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
		tools, err := LoadTools(path)
		require.NoError(t, err)
		require.Len(t, tools, 2)
		assert.Equal(t, "zeta", tools[0].Name)
		assert.Equal(t, "alpha", tools[1].Name)
		require.Contains(t, tools[1].Input, "who")
		assert.Equal(t, "string", tools[1].Input["who"].Name())
		assert.Equal(t, "2s", tools[1].Timeout)
	})

	t.Run("JSON", func(t *testing.T) {
		path := filepath.Join(dir, "tools.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"tools":[{"name":"ls","command":"ls"}]}`), 0o644))
		tools, err := LoadTools(path)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.Equal(t, "ls", tools[0].Command)
	})

	t.Run("Unknown Input Type", func(t *testing.T) {
		_, err := ParseTools([]byte("tools:\n  - name: x\n    command: y\n    input:\n      a: nope\n"), ".yaml")
		assert.ErrorContains(t, err, "unsupported type")
	})

	t.Run("Missing Command", func(t *testing.T) {
		_, err := ParseTools([]byte("tools:\n  - name: broken\n"), ".yaml")
		assert.ErrorContains(t, err, "command is required")
	})

	t.Run("Duplicate Name", func(t *testing.T) {
		_, err := ParseTools([]byte("tools:\n  - {name: a, command: x}\n  - {name: a, command: y}\n"), ".yaml")
		assert.ErrorContains(t, err, "declared twice")
	})
}
