// Package stdio dispatches tool calls read as JSON Lines from a stream.
//
// Each input line is an assistant message or a chat completion. Each output
// line is the JSON array of tool messages answering it, or an error object
// when the line could not be decoded. Blank lines are ignored.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/relay/pkg/adapters/openai"
	"github.com/aretw0/relay/pkg/domain"
)

// MaxLineSize is the default bound of a single input line.
const MaxLineSize = 1 << 20

var errLineTooLong = errors.New("line too long")

// Dispatcher handles a decoded request.
type Dispatcher interface {
	Handle(ctx context.Context, req openai.Request) []domain.ToolMessage
}

// LineError is written in place of a response when a line is not valid.
type LineError struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

// Handler implements the JSON Lines loop.
type Handler struct {
	reader  *bufio.Reader
	encoder *json.Encoder
	logger  *slog.Logger
	maxLine int
}

// NewHandler creates a handler reading r and writing w.
func NewHandler(r io.Reader, w io.Writer, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
		logger:  logger,
		maxLine: MaxLineSize,
	}
}

// WithMaxLineSize changes the line bound. Longer lines are answered with a
// LineError and skipped.
func (h *Handler) WithMaxLineSize(n int) *Handler {
	if n > 0 {
		h.maxLine = n
	}
	return h
}

// Serve processes lines until the input ends or ctx is cancelled. It returns
// nil on a clean end of input.
func (h *Handler) Serve(ctx context.Context, d Dispatcher) error {
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := h.readLine()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if errors.Is(err, errLineTooLong) {
			h.logger.Warn("skipping oversized line", "line", line, "limit", h.maxLine)
			if err := h.encoder.Encode(LineError{Line: line, Error: fmt.Sprintf("line exceeds %d bytes", h.maxLine)}); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		text := bytes.TrimSpace(raw)
		if len(text) == 0 {
			continue
		}

		req, err := Decode(text)
		if err != nil {
			h.logger.Warn("skipping invalid line", "line", line, "error", err)
			if err := h.encoder.Encode(LineError{Line: line, Error: err.Error()}); err != nil {
				return err
			}
			continue
		}
		if err := h.encoder.Encode(d.Handle(ctx, req)); err != nil {
			return err
		}
	}
}

// readLine returns the next line without its terminator. A line longer than
// maxLine is consumed up to its newline and reported as errLineTooLong. The
// last line may lack a newline; io.EOF is returned only when nothing is left.
func (h *Handler) readLine() ([]byte, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := h.reader.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(bytes.TrimSuffix(buf, []byte("\n"))) > h.maxLine {
				tooLong, buf = true, nil
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		switch {
		case tooLong:
			return nil, errLineTooLong
		case err == nil:
			return bytes.TrimSuffix(buf, []byte("\n")), nil
		case errors.Is(err, io.EOF) && len(buf) > 0:
			return buf, nil
		default:
			return nil, err
		}
	}
}

// Decode reads a line as a chat completion when it has "choices", otherwise
// as a message.
func Decode(line []byte) (openai.Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(line, &fields); err != nil {
		return openai.Request{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if _, ok := fields["choices"]; ok {
		var cc domain.ChatCompletion
		if err := json.Unmarshal(line, &cc); err != nil {
			return openai.Request{}, fmt.Errorf("invalid chat completion: %w", err)
		}
		return openai.Request{ChatCompletion: &cc}, nil
	}
	var msg domain.Message
	if err := json.Unmarshal(line, &msg); err != nil {
		return openai.Request{}, fmt.Errorf("invalid message: %w", err)
	}
	return openai.Request{Message: &msg}, nil
}
