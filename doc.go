/*
Package relay is a declarative operation dispatch framework.

Business logic is declared once as operations: a name, input and output
schemas, a middleware chain, a handler and an optional result formatter.
Operations are grouped into containers (apps for people, tools for agents)
that share a root context. The same declaration can then be invoked
directly, exposed as OpenAI function-calling tools, served over HTTP or
published as MCP tools.

# Concept

Every invocation runs a chain of middleware around a terminal step. Each
middleware may patch the execution context before calling next, or return
early. The terminal step validates the input, runs the handler, validates
the output and formats the result. Any failure is caught once at the chain
boundary and handed to the error formatter.

# Usage

	r := relay.New()

	echo := r.Tool("Echo", "Echo tools")
	echo.Capability(dsl.RouteOptions{Name: "Message", Description: "Echo a message"}).
		Input(schema.Object(schema.Field("message", schema.String()))).
		Handler(func(ctx context.Context, in any, c domain.Context) (any, error) {
			return in.(map[string]any)["message"], nil
		})

	tools := r.Tools() // [{type: function, function: {name: "echo-message", ...}}]

	replies := r.Handle(ctx, assistantMessage)

# Packages

  - pkg/schema: validators and their JSON-Schema description.
  - pkg/chain: the middleware chain executor.
  - pkg/dsl: operation and container builders.
  - pkg/middleware: reusable middleware.
  - pkg/observability: tracers for debugged operations.
  - pkg/adapters: OpenAI, HTTP, MCP and Redis adapters.
*/
package relay
