package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
)

// EnvPrefix prefixes the environment variables carrying arguments.
const EnvPrefix = "RELAY_ARG_"

// Runner executes allow-listed local processes.
type Runner struct {
	baseDir string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes proc. Arguments are never passed as command flags: each one
// becomes a RELAY_ARG_<NAME> environment variable. Stdout holding a JSON
// object or array is decoded, anything else is returned as a trimmed string.
func (r *Runner) Run(ctx context.Context, proc ProcessConfig, args map[string]any) (any, error) {
	if proc.Timeout != "" {
		d, err := time.ParseDuration(proc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("tool %q: invalid timeout: %w", proc.Name, err)
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir

	env := cmd.Environ()
	for k, v := range proc.Environment {
		env = append(env, k+"="+v)
	}
	for k, v := range args {
		env = append(env, EnvPrefix+strings.ToUpper(k)+"="+envValue(v))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("execution failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	trimmed := strings.TrimSpace(stdout.String())
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded, nil
		}
	}
	return trimmed, nil
}

// envValue renders primitives with fmt and everything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}

// Container exposes tools as capabilities of a tool container. A tool's
// Input schema, when declared, validates the arguments.
func (r *Runner) Container(name, description string, tools []ProcessConfig) *dsl.Container {
	c := dsl.NewTool(name, description)
	for _, tool := range tools {
		proc := tool
		op := c.Capability(dsl.RouteOptions{Name: tool.Name, Description: tool.Description}).
			Handler(func(ctx context.Context, in any, _ domain.Context) (any, error) {
				args, _ := in.(map[string]any)
				return r.Run(ctx, proc, args)
			})
		if len(tool.Input) > 0 {
			op.Input(tool.Input)
		}
	}
	return c
}
