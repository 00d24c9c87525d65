package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/danmuck/sshwire/internal/protocol"
	"github.com/danmuck/sshwire/internal/protocol/packet"
	"github.com/rs/zerolog"
)

type Option func(*Conn)

// WithCodecOptions configures the underlying packet.Codec.
func WithCodecOptions(opts ...packet.Option) Option {
	return func(c *Conn) {
		c.codecOpts = append(c.codecOpts, opts...)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Conn) {
		c.log = l
	}
}

type readDeadliner interface {
	SetReadDeadline(t time.Time) error
}

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Conn reads and writes transport messages over rw.
//
// Conn is safe for one concurrent reader and one concurrent writer. SetState
// must not race with either.
type Conn struct {
	rw        io.ReadWriter
	codec     *packet.Codec
	codecOpts []packet.Option
	log       zerolog.Logger

	readMu  sync.Mutex
	writeMu sync.Mutex
	out     []byte
}

func New(rw io.ReadWriter, opts ...Option) *Conn {
	c := &Conn{
		rw:  rw,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.codec = packet.NewCodec(append([]packet.Option{packet.WithLogger(c.log)}, c.codecOpts...)...)
	return c
}

// Close closes rw if it is an io.Closer.
func (c *Conn) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Conn) State() packet.State {
	return c.codec.State()
}

// SetState flips framing for both directions.
func (c *Conn) SetState(st packet.State) error {
	if err := c.codec.SetState(st); err != nil {
		return err
	}
	c.log.Debug().Stringer("state", st).Msg("framing state changed")
	return nil
}

// ReadMessage returns the next message, reading from the stream as needed.
// Bytes beyond the returned message stay buffered for the next call.
func (c *Conn) ReadMessage(ctx context.Context) (protocol.Message, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.readMu.Lock()
	defer c.readMu.Unlock()

	restore, stop := c.applyReadContext(ctx)
	defer func() {
		stop()
		restore()
	}()

	for {
		msg, ok, err := c.codec.Next()
		if err != nil {
			c.log.Debug().Err(err).Msg("inbound framing failed")
			return nil, err
		}
		if ok {
			c.log.Trace().Stringer("type", msg.Type()).Msg("message received")
			return msg, nil
		}
		if err := c.fill(ctx); err != nil {
			return nil, err
		}
	}
}

func (c *Conn) fill(ctx context.Context) error {
	buf := getReadBuffer()
	defer putReadBuffer(buf)

	n, err := c.rw.Read(*buf)
	if n > 0 {
		c.codec.Append((*buf)[:n])
	}
	if err == nil {
		return nil
	}
	if ctxErr := contextCause(ctx, err); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, io.EOF) && c.codec.Buffered() > 0 {
		return fmt.Errorf("transport: stream ended with %d unparsed bytes: %w", c.codec.Buffered(), io.ErrUnexpectedEOF)
	}
	return err
}

// WriteMessage serializes msg under the current state and writes it.
func (c *Conn) WriteMessage(ctx context.Context, msg protocol.Message) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	out, err := c.codec.Serialize(c.out[:0], msg)
	if err != nil {
		return err
	}
	c.out = out

	restore, stop := c.applyWriteContext(ctx)
	defer func() {
		stop()
		restore()
	}()

	if _, err := c.rw.Write(out); err != nil {
		if ctxErr := contextCause(ctx, err); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	c.log.Trace().Stringer("type", msg.Type()).Int("bytes", len(out)).Msg("message sent")
	return nil
}

// contextCause reports the context error behind an I/O failure. The
// connection deadline and the context timer fire independently, so a deadline
// error past ctx's deadline is attributed to ctx even before ctx.Done closes.
func contextCause(ctx context.Context, ioErr error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !errors.Is(ioErr, os.ErrDeadlineExceeded) {
		return nil
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return context.DeadlineExceeded
	}
	return nil
}

func (c *Conn) applyReadContext(ctx context.Context) (restore func(), stop func() bool) {
	d, ok := c.rw.(readDeadliner)
	if !ok {
		return func() {}, func() bool { return true }
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.SetReadDeadline(deadline)
	}
	stop = context.AfterFunc(ctx, func() { _ = d.SetReadDeadline(time.Now()) })
	return func() { _ = d.SetReadDeadline(time.Time{}) }, stop
}

func (c *Conn) applyWriteContext(ctx context.Context) (restore func(), stop func() bool) {
	d, ok := c.rw.(writeDeadliner)
	if !ok {
		return func() {}, func() bool { return true }
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = d.SetWriteDeadline(deadline)
	}
	stop = context.AfterFunc(ctx, func() { _ = d.SetWriteDeadline(time.Now()) })
	return func() { _ = d.SetWriteDeadline(time.Time{}) }, stop
}
