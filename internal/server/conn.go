package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/holdem-arena/internal/protocol"
)

const (
	// sendQueueSize bounds the per-connection outbound queue. A consumer
	// that falls this far behind is closed rather than allowed to stall
	// the table.
	sendQueueSize = 256

	// maxFrameBytes caps one inbound frame.
	maxFrameBytes = 1 << 20

	writeWait = 10 * time.Second
)

var ErrConnClosed = errors.New("connection closed")

// framer is the transport-specific half of a connection: blocking
// reads and writes of whole frames. The TCP framer speaks one JSON
// object per newline-terminated line; the websocket framer maps
// frames onto text messages.
type framer interface {
	// ReadFrame returns the next frame. The returned slice is only
	// valid until the next call.
	ReadFrame() ([]byte, error)
	WriteFrame([]byte) error
	Close() error
	RemoteAddr() string
}

type tcpFramer struct {
	c  net.Conn
	sc *bufio.Scanner
	bw *bufio.Writer
}

func newTCPFramer(c net.Conn) *tcpFramer {
	sc := bufio.NewScanner(c)
	sc.Buffer(make([]byte, 64<<10), maxFrameBytes)
	return &tcpFramer{c: c, sc: sc, bw: bufio.NewWriter(c)}
}

func (t *tcpFramer) ReadFrame() ([]byte, error) {
	if !t.sc.Scan() {
		if err := t.sc.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return t.sc.Bytes(), nil
}

func (t *tcpFramer) WriteFrame(frame []byte) error {
	t.c.SetWriteDeadline(time.Now().Add(writeWait))
	if _, err := t.bw.Write(frame); err != nil {
		return err
	}
	if err := t.bw.WriteByte('\n'); err != nil {
		return err
	}
	return t.bw.Flush()
}

func (t *tcpFramer) Close() error { return t.c.Close() }

func (t *tcpFramer) RemoteAddr() string { return t.c.RemoteAddr().String() }

// Conn is one agent link. A read pump decodes inbound envelopes onto
// a channel and a write pump drains the send queue, so the engine
// never blocks on a socket.
type Conn struct {
	f      framer
	logger *log.Logger

	send    chan []byte
	inbound chan *protocol.Envelope

	done      chan struct{}
	closeOnce sync.Once
}

func newConn(f framer, logger *log.Logger) *Conn {
	c := &Conn{
		f:       f,
		logger:  logger,
		send:    make(chan []byte, sendQueueSize),
		inbound: make(chan *protocol.Envelope, 16),
		done:    make(chan struct{}),
	}
	go c.readPump()
	go c.writePump()
	return c
}

func (c *Conn) readPump() {
	defer c.Close()
	for {
		frame, err := c.f.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !c.closed() {
				c.logger.Debug("Read failed", "addr", c.RemoteAddr(), "err", err)
			}
			return
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			// Malformed frames are dropped, not fatal. Line framing
			// resynchronizes at the next newline.
			c.logger.Warn("Dropping malformed frame", "addr", c.RemoteAddr(), "err", err)
			continue
		}
		select {
		case c.inbound <- env:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case frame := <-c.send:
			if err := c.f.WriteFrame(frame); err != nil {
				if !c.closed() {
					c.logger.Debug("Write failed", "addr", c.RemoteAddr(), "err", err)
				}
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Send encodes and queues one message for delivery in order.
func (c *Conn) Send(kind protocol.Kind, payload any) error {
	frame, err := protocol.Encode(kind, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		c.logger.Warn("Send queue full, closing connection", "addr", c.RemoteAddr())
		c.Close()
		return ErrConnClosed
	}
}

// Inbound delivers decoded envelopes until the connection closes.
func (c *Conn) Inbound() <-chan *protocol.Envelope { return c.inbound }

// Done is closed when the connection is torn down.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.f.Close()
	})
}

func (c *Conn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) RemoteAddr() string { return c.f.RemoteAddr() }
