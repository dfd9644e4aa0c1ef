package socket

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	tp "github.com/OpenBazaar/golang-socketio/transport"
	"github.com/gorilla/websocket"
)

const (
	upgradeFailed = "Upgrade failed: "

	DefaultPingInterval     = 25 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultReceiveTimeout   = 60 * time.Second
	DefaultSendTimeout      = 60 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultBufferSize       = 1024 * 32
)

var (
	ErrBinaryMessage     = errors.New("binary messages are not supported")
	ErrBadBuffer         = errors.New("buffer error")
	ErrEmptyPacket       = errors.New("empty packet")
	ErrMethodNotAllowed  = errors.New("method not allowed")
	ErrHTTPUpgradeFailed = errors.New("http upgrade failed")
)

// wsConnection is one websocket carrying socket.io packets. Reads wait until
// the gate opens so handlers can be registered before the first packet is
// dispatched.
type wsConnection struct {
	socket    *websocket.Conn
	transport *wsTransport
}

// GetMessage returns the next packet for the socket.io client. Event packets
// the transport's onEmit claims are consumed here, on the single reader
// goroutine, and never returned.
func (c *wsConnection) GetMessage() (string, error) {
	<-c.transport.gate

	for {
		pkt, err := c.read()
		if err != nil {
			return "", err
		}
		if route := c.transport.onEmit; route != nil {
			if method, arg, ok := splitEmit(pkt); ok && route(method, arg) {
				continue
			}
		}
		return pkt, nil
	}
}

func (c *wsConnection) read() (string, error) {
	c.socket.SetReadDeadline(time.Now().Add(c.transport.ReceiveTimeout))
	msgType, reader, err := c.socket.NextReader()
	if err != nil {
		return "", err
	}
	if msgType != websocket.TextMessage {
		return "", ErrBinaryMessage
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", ErrBadBuffer
	}
	if len(data) == 0 {
		return "", ErrEmptyPacket
	}
	return string(data), nil
}

func (c *wsConnection) WriteMessage(message string) error {
	c.socket.SetWriteDeadline(time.Now().Add(c.transport.SendTimeout))
	writer, err := c.socket.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return err
	}
	return writer.Close()
}

func (c *wsConnection) Close() {
	c.socket.Close()
}

func (c *wsConnection) PingParams() (interval, timeout time.Duration) {
	return c.transport.PingInterval, c.transport.PingTimeout
}

// wsTransport implements the socket.io transport over gorilla/websocket. A
// client transport is built per dial so the dial context and gate belong to
// one connection.
type wsTransport struct {
	PingInterval     time.Duration
	PingTimeout      time.Duration
	ReceiveTimeout   time.Duration
	SendTimeout      time.Duration
	HandshakeTimeout time.Duration
	BufferSize       int
	RequestHeader    http.Header

	ctx      context.Context
	gate     chan struct{}
	openOnce sync.Once
	// onEmit, when set, claims event packets before the socket.io client
	// sees them. Set before the gate opens.
	onEmit func(method string, arg json.RawMessage) bool
}

func newTransport(ctx context.Context, t Timeouts) *wsTransport {
	if ctx == nil {
		ctx = context.Background()
	}
	t = t.withDefaults()
	return &wsTransport{
		PingInterval:     t.PingInterval,
		PingTimeout:      t.PingTimeout,
		ReceiveTimeout:   t.ReceiveTimeout,
		SendTimeout:      t.SendTimeout,
		HandshakeTimeout: t.HandshakeTimeout,
		BufferSize:       DefaultBufferSize,
		ctx:              ctx,
		gate:             make(chan struct{}),
	}
}

// open lets connections start reading.
func (t *wsTransport) open() {
	t.openOnce.Do(func() { close(t.gate) })
}

func (t *wsTransport) Connect(url string) (tp.Connection, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: t.HandshakeTimeout,
		ReadBufferSize:   t.BufferSize,
		WriteBufferSize:  t.BufferSize,
	}
	socket, _, err := dialer.DialContext(t.ctx, url, t.RequestHeader)
	if err != nil {
		return nil, err
	}
	return &wsConnection{socket: socket, transport: t}, nil
}

func (t *wsTransport) HandleConnection(w http.ResponseWriter, r *http.Request) (tp.Connection, error) {
	if r.Method != http.MethodGet {
		http.Error(w, upgradeFailed+ErrMethodNotAllowed.Error(), http.StatusServiceUnavailable)
		return nil, ErrMethodNotAllowed
	}

	socket, err := websocket.Upgrade(w, r, nil, t.BufferSize, t.BufferSize)
	if err != nil {
		http.Error(w, upgradeFailed+err.Error(), http.StatusServiceUnavailable)
		return nil, ErrHTTPUpgradeFailed
	}
	return &wsConnection{socket: socket, transport: t}, nil
}

// Serve has nothing to do for websockets once the connection is upgraded.
func (t *wsTransport) Serve(w http.ResponseWriter, r *http.Request) {}

// NewServerTransport returns a transport for accepting socket.io
// connections with gosocketio.NewServer.
func NewServerTransport(t Timeouts) tp.Transport {
	tr := newTransport(context.Background(), t)
	tr.open()
	return tr
}
