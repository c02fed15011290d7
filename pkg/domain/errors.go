package domain

import "errors"

// ErrFunctionNotFound is reported when no container accepts a protocol function name.
var ErrFunctionNotFound = errors.New("function not found")

// ErrInvalidArguments is reported when a tool call's argument string is not a JSON object.
var ErrInvalidArguments = errors.New("invalid tool call arguments")
