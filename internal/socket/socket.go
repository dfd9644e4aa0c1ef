// Package socket connects conversations to the chat server's socket.io
// endpoint.
//
// The server scopes a connection to a pair with the user_uuid and to_uuid
// query parameters, pushes the pair's full log as "chats" on connect and
// accepts outgoing messages as "send-chat". Incoming events reach the
// conversation callbacks in wire order, one at a time.
package socket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	gosocketio "github.com/OpenBazaar/golang-socketio"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/conversation"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
)

// Event names used by the chat server.
const (
	EventChats    = "chats"
	EventChat     = "chat"
	EventSendChat = "send-chat"
)

// Timeouts configures the websocket under the socket.io client. Zero fields
// take the package defaults.
type Timeouts struct {
	PingInterval     time.Duration
	PingTimeout      time.Duration
	ReceiveTimeout   time.Duration
	SendTimeout      time.Duration
	HandshakeTimeout time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.PingInterval <= 0 {
		t.PingInterval = DefaultPingInterval
	}
	if t.PingTimeout <= 0 {
		t.PingTimeout = DefaultPingTimeout
	}
	if t.ReceiveTimeout <= 0 {
		t.ReceiveTimeout = DefaultReceiveTimeout
	}
	if t.SendTimeout <= 0 {
		t.SendTimeout = DefaultSendTimeout
	}
	if t.HandshakeTimeout <= 0 {
		t.HandshakeTimeout = DefaultHandshakeTimeout
	}
	return t
}

// URL builds the socket.io websocket URL for pair. server may be a bare
// host, host:port or an http(s)/ws(s) URL.
func URL(server string, pair chat.IdentityPair) (string, error) {
	const op = perrors.Op("socket.URL")

	raw := strings.TrimSpace(server)
	if raw == "" {
		return "", perrors.E(op, perrors.KindConfig, "server address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", perrors.E(op, perrors.KindConfig, err)
	}

	var secure bool
	switch u.Scheme {
	case "http", "ws":
	case "https", "wss":
		secure = true
	default:
		return "", perrors.E(op, perrors.KindConfig, fmt.Sprintf("unsupported scheme %q", u.Scheme))
	}

	host := u.Hostname()
	if host == "" {
		return "", perrors.E(op, perrors.KindConfig, "server address has no host")
	}
	port := 80
	if secure {
		port = 443
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", perrors.E(op, perrors.KindConfig, err)
		}
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}

	q := url.Values{}
	q.Set("user_uuid", pair.ViewerID)
	q.Set("to_uuid", pair.PeerID)
	return gosocketio.GetUrl(host, port, secure) + "&" + q.Encode(), nil
}

// Dialer opens socket.io connections. It implements conversation.Dialer.
type Dialer struct {
	server   string
	timeouts Timeouts
	log      *slog.Logger
}

// NewDialer returns a Dialer for server.
func NewDialer(server string, t Timeouts) *Dialer {
	return &Dialer{
		server:   server,
		timeouts: t.withDefaults(),
		log:      logger.WithComponent("socket"),
	}
}

// Dial connects to the server for pair and routes its events to ev.
func (d *Dialer) Dial(ctx context.Context, pair chat.IdentityPair, ev conversation.Events) (conversation.Conn, error) {
	const op = perrors.Op("socket.Dial")

	u, err := URL(d.server, pair)
	if err != nil {
		return nil, err
	}

	r := newRouter(ev, d.log)
	tr := newTransport(ctx, d.timeouts)
	tr.onEmit = r.emit
	defer tr.open()

	d.log.Debug("dialing", "url", u)
	client, err := gosocketio.Dial(u, tr)
	if err != nil {
		r.close()
		kind := perrors.KindNetwork
		if ctx.Err() != nil {
			kind = perrors.KindTimeout
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			kind = perrors.KindTimeout
		}
		return nil, perrors.E(op, kind, err)
	}

	if err := bind(client, r); err != nil {
		client.Close()
		r.close()
		return nil, perrors.E(op, perrors.KindNetwork, err)
	}
	return &Conn{client: client}, nil
}

// socketClient is the part of *gosocketio.Client the adapter uses.
type socketClient interface {
	On(method string, f interface{}) error
	Emit(method string, args []interface{}) error
	Close()
}

// bind registers the connection lifecycle handlers. Chat events never reach
// the client; the transport hands them to r directly.
func bind(c socketClient, r *router) error {
	handlers := []struct {
		event string
		fn    interface{}
	}{
		// The library holds the channel lock while calling these; the
		// router only queues.
		{gosocketio.OnConnection, func(h *gosocketio.Channel) { r.connected() }},
		{gosocketio.OnDisconnection, func(h *gosocketio.Channel) { r.disconnected() }},
	}
	for _, h := range handlers {
		if err := c.On(h.event, h.fn); err != nil {
			return fmt.Errorf("registering %s handler: %w", h.event, err)
		}
	}
	return nil
}

// Conn is a live socket.io connection.
type Conn struct {
	client socketClient
}

// SendChat emits body to the server.
func (c *Conn) SendChat(body string) error {
	if err := c.client.Emit(EventSendChat, []interface{}{body}); err != nil {
		return perrors.E(perrors.Op("socket.SendChat"), perrors.KindNetwork, err)
	}
	return nil
}

// Close closes the connection. The library reports a disconnection event
// afterwards, which a closed session ignores.
func (c *Conn) Close() error {
	c.client.Close()
	return nil
}
