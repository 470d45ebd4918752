// Package stream implements the progressive-generation event protocol: a
// newline-delimited sequence of typed JSON records emitted while assignments
// are generated one by one. The consumer assembles arriving assignments into
// a result set without ever discarding work already received.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Event types carried on the wire.
const (
	EventProgress   = "progress"
	EventAssignment = "assignment"
	EventComplete   = "complete"
	EventError      = "error"
)

const maxRecordBytes = 1 << 20

// Event is one record of the generation stream. Assignment payloads stay raw
// so the consumer does not depend on any particular entity shape.
type Event struct {
	Type       string          `json:"type"`
	Message    string          `json:"message,omitempty"`
	Completed  int             `json:"completed"`
	Total      int             `json:"total,omitempty"`
	Assignment json.RawMessage `json:"assignment,omitempty"`
}

// StreamError is the surfaced form of an error record. The partial result
// collected before it is retained by the caller.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return e.Message
}

// Result is the assembled outcome of consuming a stream. Assignments appear
// in arrival order, which carries no guaranteed relation to the completed
// counter.
type Result struct {
	Assignments []json.RawMessage
	Completed   int
	Total       int
}

// Consumer reads generation events from a byte stream.
type Consumer struct {
	logger     zerolog.Logger
	onProgress func(completed, total int, message string)
}

// Option customises consumer behaviour.
type Option func(*Consumer)

// WithProgress registers a callback invoked for every progress record.
func WithProgress(fn func(completed, total int, message string)) Option {
	return func(c *Consumer) {
		c.onProgress = fn
	}
}

// NewConsumer builds a consumer logging through the provided logger.
func NewConsumer(logger zerolog.Logger, opts ...Option) *Consumer {
	c := &Consumer{logger: logger.With().Str("component", "generation_stream").Logger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Consume reads records until end of stream, an error record, or context
// cancellation, whichever comes first. A malformed record is skipped and
// logged, never fatal. On an error record the partial result is returned
// together with a *StreamError; nothing past that record is read.
func (c *Consumer) Consume(ctx context.Context, r io.Reader) (Result, error) {
	result := Result{}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxRecordBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// Tolerate SSE framing from producers that emit "data: {...}".
		if trimmed, ok := strings.CutPrefix(string(line), "data:"); ok {
			line = []byte(strings.TrimSpace(trimmed))
			if len(line) == 0 {
				continue
			}
		}

		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			c.logger.Warn().Err(err).Str("record", truncate(string(line), 120)).Msg("skipping malformed stream record")
			continue
		}

		switch event.Type {
		case EventProgress:
			result.Completed = event.Completed
			if event.Total > 0 {
				result.Total = event.Total
			}
			if c.onProgress != nil {
				c.onProgress(event.Completed, event.Total, event.Message)
			}
		case EventAssignment:
			if len(event.Assignment) == 0 {
				c.logger.Warn().Msg("assignment record without payload, skipping")
				continue
			}
			result.Assignments = append(result.Assignments, event.Assignment)
			result.Completed = event.Completed
			if event.Total > 0 {
				result.Total = event.Total
			}
		case EventComplete:
			result.Completed = event.Completed
			return result, nil
		case EventError:
			return result, &StreamError{Message: event.Message}
		default:
			c.logger.Warn().Str("type", event.Type).Msg("skipping stream record of unknown type")
		}
	}

	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read generation stream: %w", err)
	}

	// Producer closed without a complete record; treat as normal end of data.
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
