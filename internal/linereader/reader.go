// Package linereader reads newline-delimited lines from a byte stream.
//
// The reader scans buffered chunks for the delimiter instead of issuing one
// read per byte, but keeps the same contract: each call returns exactly one
// line with the terminating newline removed.
package linereader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Delimiter terminates every line on the wire.
const Delimiter byte = '\n'

// DefaultBufferSize is the size of the underlying read buffer. Lines longer
// than this are still returned whole.
const DefaultBufferSize = 4096

// ErrConnectionClosed is returned when the peer closes the stream before a
// line terminator arrives. Any partial line is discarded.
var ErrConnectionClosed = errors.New("connection closed before end of line")

// Reader reads delimited lines from an underlying stream.
type Reader struct {
	br *bufio.Reader
}

// New creates a Reader with the default buffer size.
func New(r io.Reader) *Reader {
	return NewSize(r, DefaultBufferSize)
}

// NewSize creates a Reader whose buffer holds at least size bytes.
func NewSize(r io.Reader, size int) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, size)}
}

// ReadLine blocks until a full line is available and returns it without the
// trailing newline. The returned slice is owned by the caller.
func (r *Reader) ReadLine() ([]byte, error) {
	line, err := r.br.ReadBytes(Delimiter)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrConnectionClosed
		}
		return nil, fmt.Errorf("failed to read line: %w", err)
	}
	return line[:len(line)-1], nil
}

// Buffered returns the number of bytes already read from the stream but not
// yet returned as part of a line.
func (r *Reader) Buffered() int {
	return r.br.Buffered()
}
