/*
Package observability provides tracers for the events emitted by debugged
operations.

A tracer receives one event per boundary of an invocation (start, success or
error) plus one per formatter application. Events of the same invocation
share an ID. The tracers here log them, record them in memory, count them
with Prometheus, turn them into OpenTelemetry spans or mask sensitive values
before handing them on.
*/
package observability
