// Package probe implements the line client that polls a border node.
//
// A Client owns a single connection. Each cycle writes the query command,
// waits for one newline-terminated reply and decodes it. Run repeats cycles,
// printing every reply and pausing between them, until the context is
// cancelled, the cycle limit is reached, or a fatal error occurs.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/thruflo/lnprobe/internal/config"
	"github.com/thruflo/lnprobe/internal/linereader"
	"github.com/thruflo/lnprobe/internal/logging"
)

// State is the position of the client in its request/response cycle.
type State int32

const (
	StateIdle          State = iota // Between cycles
	StateAwaitingReply              // Command sent, waiting for the newline
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingReply:
		return "awaiting reply"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the client's counters.
type Stats struct {
	Cycles        uint64
	Numeric       uint64
	NonNumeric    uint64
	BytesSent     uint64
	BytesReceived uint64
}

type options struct {
	command     string
	interval    time.Duration
	maxCycles   int
	dialTimeout time.Duration
	output      io.Writer
	logger      *logging.Logger
}

// Option configures a Client.
type Option func(*options)

// WithCommand sets the query written at the start of every cycle.
func WithCommand(command string) Option {
	return func(o *options) {
		o.command = command
	}
}

// WithInterval sets the pause between cycles.
func WithInterval(interval time.Duration) Option {
	return func(o *options) {
		o.interval = interval
	}
}

// WithMaxCycles stops each call to Run after n cycles. Zero means no limit.
func WithMaxCycles(n int) Option {
	return func(o *options) {
		o.maxCycles = n
	}
}

// WithDialTimeout bounds connection establishment in Dial. Zero means the
// dial is bounded only by the context.
func WithDialTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = timeout
	}
}

// WithOutput sets where reply lines are printed.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(logger *logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// FromConfig converts poll settings into client options.
func FromConfig(p config.Poll) []Option {
	return []Option{
		WithCommand(p.Command),
		WithInterval(p.Interval),
		WithMaxCycles(p.MaxCycles),
		WithDialTimeout(p.DialTimeout),
	}
}

func buildOptions(opts []Option) options {
	o := options{
		command:  config.DefaultCommand,
		interval: config.DefaultInterval,
		output:   os.Stdout,
		logger:   logging.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Client polls a peer over a single exclusively owned stream.
type Client struct {
	stream    *countedStream
	conn      io.ReadWriter // the caller's stream, for Close and deadlines
	reader    *linereader.Reader
	command   []byte
	interval  time.Duration
	maxCycles int
	output    io.Writer
	logger    *logging.Logger
	sessionID string

	state      atomic.Int32
	cycles     atomic.Uint64
	numeric    atomic.Uint64
	nonNumeric atomic.Uint64
	sent       atomic.Uint64
	received   atomic.Uint64
}

// Dial connects to host:port over TCP and returns a Client that owns the
// connection. A failure is returned as *ConnectError.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := net.Dialer{Timeout: o.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}

	c := newClient(conn, o)
	c.logger = c.logger.With("peer", addr)
	c.logger.Info("connected", "local", conn.LocalAddr().String())
	return c, nil
}

// New creates a Client over an existing stream. If the stream implements
// io.Closer, Close closes it; if it supports read deadlines, a blocked read
// is interrupted when the cycle's context is cancelled.
func New(rw io.ReadWriter, opts ...Option) *Client {
	return newClient(rw, buildOptions(opts))
}

func newClient(rw io.ReadWriter, o options) *Client {
	c := &Client{
		conn:      rw,
		command:   []byte(o.command),
		interval:  o.interval,
		maxCycles: o.maxCycles,
		output:    o.output,
		sessionID: uuid.NewString(),
	}
	c.stream = &countedStream{rw: rw, sent: &c.sent, received: &c.received}
	c.reader = linereader.New(c.stream)
	c.logger = o.logger.With("session", c.sessionID)
	return c
}

// SessionID returns the identifier attached to this client's log entries.
func (c *Client) SessionID() string {
	return c.sessionID
}

// State returns the current cycle state. Safe to call from any goroutine.
func (c *Client) State() State {
	return State(c.state.Load())
}

// Stats returns a snapshot of the client's counters.
func (c *Client) Stats() Stats {
	return Stats{
		Cycles:        c.cycles.Load(),
		Numeric:       c.numeric.Load(),
		NonNumeric:    c.nonNumeric.Load(),
		BytesSent:     c.sent.Load(),
		BytesReceived: c.received.Load(),
	}
}

// Close closes the underlying stream if it can be closed.
func (c *Client) Close() error {
	if closer, ok := c.conn.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

// Cycle sends the command once and waits for the matching reply.
// Integer parse failures are not errors; they yield a non-numeric Reply.
func (c *Client) Cycle(ctx context.Context) (Reply, error) {
	if d, ok := c.conn.(readDeadliner); ok {
		stop := context.AfterFunc(ctx, func() {
			_ = d.SetReadDeadline(time.Unix(1, 0))
		})
		defer stop()
	}

	c.state.Store(int32(StateAwaitingReply))
	defer c.state.Store(int32(StateIdle))

	n, err := c.stream.Write(c.command)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to send command: %w", err)
	}
	if n != len(c.command) {
		return Reply{}, fmt.Errorf("failed to send command: %w", io.ErrShortWrite)
	}

	line, err := c.reader.ReadLine()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Reply{}, ctxErr
		}
		return Reply{}, err
	}

	if n := c.reader.Buffered(); n > 0 {
		c.logger.Debug("unsolicited bytes after reply", "buffered", n)
	}

	reply, err := DecodeReply(line)
	if err != nil {
		return Reply{}, err
	}

	c.cycles.Add(1)
	if reply.Numeric {
		c.numeric.Add(1)
	} else {
		c.nonNumeric.Add(1)
	}
	return reply, nil
}

// Run polls until ctx is cancelled, the cycle limit is reached or a cycle
// fails. It returns ctx.Err() on cancellation and nil when the limit is hit.
func (c *Client) Run(ctx context.Context) error {
	c.logger.Debug("polling started",
		"command", string(c.command),
		"interval", c.interval.String(),
		"max_cycles", c.maxCycles,
	)
	defer c.logStats()

	var done int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		reply, err := c.Cycle(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			c.logger.Debug("poll cycle failed", "error", err, "cycle", done+1)
			return err
		}

		if !reply.Numeric {
			c.logger.Debug("non-numeric reply", "raw", reply.Raw)
		}
		if _, err := fmt.Fprintln(c.output, reply.Display()); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		done++
		if c.maxCycles > 0 && done >= c.maxCycles {
			return nil
		}

		if err := sleepContext(ctx, c.interval); err != nil {
			return err
		}
	}
}

func (c *Client) logStats() {
	s := c.Stats()
	c.logger.Info("polling stopped",
		"cycles", s.Cycles,
		"numeric", s.Numeric,
		"non_numeric", s.NonNumeric,
		"bytes_sent", s.BytesSent,
		"bytes_received", s.BytesReceived,
	)
}

// sleepContext pauses for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
