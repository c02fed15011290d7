/*
Package domain contains the core data model shared by every Relay package.

It is kept pure and free of I/O so that the builders, the chain executor and the
protocol adapters can all depend on it without pulling in each other.

# Key Entities

  - Context: the key/value record threaded through one invocation.
  - FunctionDefinition: the protocol-facing description of one operation.
  - ToolCall / ToolMessage: the incoming call and outgoing response records of a
    function-calling protocol (OpenAI "tools" compatible).
  - Event / Tracer: the structured debug trace emitted around invocations.
*/
package domain
