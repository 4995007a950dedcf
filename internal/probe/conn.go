package probe

import (
	"io"
	"sync/atomic"
)

// countedStream wraps the peer stream and counts bytes in each direction.
type countedStream struct {
	rw       io.ReadWriter
	sent     *atomic.Uint64
	received *atomic.Uint64
}

func (c *countedStream) Read(b []byte) (int, error) {
	n, err := c.rw.Read(b)
	if n > 0 {
		c.received.Add(uint64(n))
	}
	return n, err
}

func (c *countedStream) Write(b []byte) (int, error) {
	n, err := c.rw.Write(b)
	if n > 0 {
		c.sent.Add(uint64(n))
	}
	return n, err
}
