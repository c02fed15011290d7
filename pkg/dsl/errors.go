package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/relay/pkg/schema"
)

var (
	// ErrHandlerNotDefined matches every *HandlerNotDefinedError.
	ErrHandlerNotDefined = errors.New("handler not defined")
	// ErrOperationNotFound matches every *OperationNotFoundError.
	ErrOperationNotFound = errors.New("operation not found")
)

// Stage identifies which side of the handler a validation failure happened on.
type Stage string

const (
	StageInput  Stage = "input"
	StageOutput Stage = "output"
)

// ValidationError reports an input or output that does not match the
// operation's schema. The message always carries the operation name and the
// offending field path.
type ValidationError struct {
	Operation string
	Stage     Stage
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("operation %q: invalid %s: %v", e.Operation, e.Stage, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Details lists the offending field paths.
func (e *ValidationError) Details() any {
	return schema.Fields(e.Err)
}

// HandlerNotDefinedError is returned when an operation without a handler is invoked.
// It signals a programming error in the operation's definition.
type HandlerNotDefinedError struct {
	Operation string
}

func (e *HandlerNotDefinedError) Error() string {
	return fmt.Sprintf("operation %q: handler not defined", e.Operation)
}

func (e *HandlerNotDefinedError) Is(target error) bool { return target == ErrHandlerNotDefined }

// OperationNotFoundError is returned by Container.Run when no operation matches.
type OperationNotFoundError struct {
	Container string
	Name      string
}

func (e *OperationNotFoundError) Error() string {
	return fmt.Sprintf("container %q: operation %q not found", e.Container, e.Name)
}

func (e *OperationNotFoundError) Is(target error) bool { return target == ErrOperationNotFound }

// PanicError wraps a panic raised by a handler, a middleware or a formatter.
type PanicError struct {
	Operation string
	Value     any
	Stack     string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("operation %q: panic: %v", e.Operation, e.Value)
}

// Details returns the goroutine stack captured at recovery.
func (e *PanicError) Details() any { return e.Stack }
