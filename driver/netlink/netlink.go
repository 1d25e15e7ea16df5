// Package netlink carries fixed-size radio packets over a TCP stream so a framing
// engine can talk to a remote radio gateway or to another host process.
//
// Every packet is sent as a numbered protocol.PacketData link packet. The peer
// answers each packet with PacketAck when it queued the block, or PacketNak when
// it is in send mode or its queue is full, like the auto-acknowledgment of an
// nRF24 radio. Answers echo the sequence number; an answer to an earlier packet
// that arrives after its write timed out is ignored.
package netlink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/proxy"

	proto "github.com/ystepanoff/nrflink/protocol"
	"github.com/ystepanoff/nrflink/transport"
)

const (
	rxCapacity        = 64
	DefaultAckTimeout = 100 * time.Millisecond
)

var ErrProtocol = errors.New("netlink: unexpected frame type")

// Conn is a PacketDriver over a stream connection.
type Conn struct {
	conn       net.Conn
	blockSize  int
	ackTimeout time.Duration
	log        transport.Logger

	mu        sync.Mutex
	listening bool
	rx        [][]byte
	err       error
	waiting   bool  // a write is waiting for the answer to expect
	expect    uint8

	sendMu  sync.Mutex // one outstanding packet at a time
	seq     uint8      // guarded by sendMu
	writeMu sync.Mutex // frames and acks share the stream
	acks    chan proto.Packet
	done    chan struct{}
}

var _ transport.PacketDriver = (*Conn)(nil)

type Option func(*Conn)

func WithAckTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.ackTimeout = d
		}
	}
}

func WithLogger(l transport.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.log = l
		}
	}
}

// New wraps an established connection and starts reading from it.
func New(conn net.Conn, blockSize int, opts ...Option) *Conn {
	c := &Conn{
		conn:       conn,
		blockSize:  blockSize,
		ackTimeout: DefaultAckTimeout,
		log:        nopLogger{},
		listening:  true,
		acks:       make(chan proto.Packet, 1),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.readLoop()
	return c
}

// Dial connects to addr, through a SOCKS5 proxy when proxyURL is set
// (e.g. "socks5://127.0.0.1:9050").
func Dial(ctx context.Context, addr, proxyURL string, blockSize int, opts ...Option) (*Conn, error) {
	var (
		conn net.Conn
		err  error
	)
	if proxyURL == "" {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialProxy(ctx, addr, proxyURL)
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, blockSize, opts...), nil
}

func dialProxy(ctx context.Context, addr, proxyURL string) (net.Conn, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	dialer, err := proxy.FromURL(u, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("proxy dialer: %w", err)
	}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", addr)
	}
	return dialer.Dial("tcp", addr)
}

// Accept waits for one peer on ln. Cancelling ctx closes ln.
func Accept(ctx context.Context, ln net.Listener, blockSize int, opts ...Option) (*Conn, error) {
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	return New(conn, blockSize, opts...), nil
}

// Listen accepts a single peer on addr and closes the listener.
func Listen(ctx context.Context, addr string, blockSize int, opts ...Option) (*Conn, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	defer ln.Close()
	return Accept(ctx, ln, blockSize, opts...)
}

func (c *Conn) WriteBlock(block []byte) bool {
	if len(block) != c.blockSize {
		return false
	}

	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	c.seq++
	seq := c.seq
	c.mu.Lock()
	c.waiting, c.expect = true, seq
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.waiting = false
		c.mu.Unlock()
	}()

	select {
	case <-c.acks:
	default:
	}

	if err := c.write(proto.EncodePacket(proto.Packet{Kind: proto.PacketData, Seq: seq, Block: block})); err != nil {
		c.fail(err)
		return false
	}

	timer := time.NewTimer(c.ackTimeout)
	defer timer.Stop()
	for {
		select {
		case a := <-c.acks:
			if !a.Answers(seq) {
				continue
			}
			return a.Kind == proto.PacketAck
		case <-timer.C:
			c.log.Printf("[Netlink] No answer to packet %d within %s\r\n", seq, c.ackTimeout)
			return false
		case <-c.done:
			return false
		}
	}
}

func (c *Conn) ReadBlock() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.rx) == 0 {
		return nil
	}
	block := c.rx[0]
	c.rx[0] = nil
	c.rx = c.rx[1:]
	return block
}

func (c *Conn) HasAvailableData() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rx) > 0
}

func (c *Conn) EnterSendMode() {
	c.mu.Lock()
	c.listening = false
	c.mu.Unlock()
}

func (c *Conn) EnterReceiveMode() {
	c.mu.Lock()
	c.listening = true
	c.mu.Unlock()
}

// Err returns the error that stopped the read loop, if any.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Done is closed when the connection stops.
func (c *Conn) Done() <-chan struct{} { return c.done }

func (c *Conn) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Conn) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
}

func (c *Conn) readLoop() {
	defer close(c.done)

	var header [proto.PacketHeaderSize]byte
	block := make([]byte, c.blockSize)
	for {
		if _, err := io.ReadFull(c.conn, header[:]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.fail(err)
			}
			return
		}

		p := proto.Packet{Kind: proto.PacketKind(header[0]), Seq: header[1]}
		switch p.Kind {
		case proto.PacketData:
			if _, err := io.ReadFull(c.conn, block); err != nil {
				c.fail(fmt.Errorf("read packet: %w", err))
				return
			}
			reply := proto.Packet{Kind: proto.PacketNak, Seq: p.Seq}
			if c.enqueue(block) {
				reply.Kind = proto.PacketAck
			}
			if err := c.write(proto.EncodePacket(reply)); err != nil {
				c.fail(err)
				return
			}
		case proto.PacketAck, proto.PacketNak:
			if !c.expecting(p.Seq) {
				c.log.Printf("[Netlink] Ignoring late %s for packet %d\r\n", p.Kind, p.Seq)
				continue
			}
			select {
			case c.acks <- p:
			default:
			}
		default:
			c.fail(fmt.Errorf("%w: %s", ErrProtocol, p.Kind))
			c.conn.Close()
			return
		}
	}
}

func (c *Conn) expecting(seq uint8) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.waiting && c.expect == seq
}

func (c *Conn) enqueue(block []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.listening || len(c.rx) >= rxCapacity {
		return false
	}
	c.rx = append(c.rx, append([]byte(nil), block...))
	return true
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}
