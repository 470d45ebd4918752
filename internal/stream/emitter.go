package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Emitter writes generation events as newline-delimited JSON records. It is
// the producer counterpart of Consumer; the generation service drives one end
// of a pipe with it while the workflow (or an HTTP client) consumes the other.
type Emitter struct {
	w *bufio.Writer
}

// NewEmitter wraps the destination writer.
func NewEmitter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w)}
}

// Progress emits a progress record. No data is appended by it downstream.
func (e *Emitter) Progress(completed, total int, message string) error {
	return e.emit(Event{Type: EventProgress, Completed: completed, Total: total, Message: message})
}

// Assignment emits one fully-formed assignment payload.
func (e *Emitter) Assignment(payload any, completed, total int) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode assignment record: %w", err)
	}
	return e.emit(Event{Type: EventAssignment, Assignment: raw, Completed: completed, Total: total})
}

// Complete signals normal end of stream.
func (e *Emitter) Complete(completed int, message string) error {
	return e.emit(Event{Type: EventComplete, Completed: completed, Message: message})
}

// Error signals abnormal end of stream. Consumers stop after it.
func (e *Emitter) Error(message string) error {
	return e.emit(Event{Type: EventError, Message: message})
}

func (e *Emitter) emit(event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode stream record: %w", err)
	}
	if _, err := e.w.Write(raw); err != nil {
		return err
	}
	if err := e.w.WriteByte('\n'); err != nil {
		return err
	}
	return e.w.Flush()
}
