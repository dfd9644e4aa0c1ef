package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	gosocketio "github.com/OpenBazaar/golang-socketio"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/conversation"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
)

func TestURL(t *testing.T) {
	pair := chat.IdentityPair{ViewerID: "u-1", PeerID: "u 2"}
	const query = "&to_uuid=u+2&user_uuid=u-1"

	tests := []struct {
		server string
		want   string
	}{
		{"127.0.0.1", "ws://127.0.0.1:80/socket.io/?EIO=3&transport=websocket" + query},
		{"127.0.0.1:3000", "ws://127.0.0.1:3000/socket.io/?EIO=3&transport=websocket" + query},
		{"http://chat.local:8080", "ws://chat.local:8080/socket.io/?EIO=3&transport=websocket" + query},
		{"https://chat.example.com", "wss://chat.example.com:443/socket.io/?EIO=3&transport=websocket" + query},
		{"wss://chat.example.com:8443/", "wss://chat.example.com:8443/socket.io/?EIO=3&transport=websocket" + query},
		{"[::1]:3000", "ws://[::1]:3000/socket.io/?EIO=3&transport=websocket" + query},
	}
	for _, tt := range tests {
		t.Run(tt.server, func(t *testing.T) {
			got, err := URL(tt.server, pair)
			if err != nil {
				t.Fatalf("URL: %v", err)
			}
			if got != tt.want {
				t.Errorf("URL(%q) =\n %s\nwant\n %s", tt.server, got, tt.want)
			}
		})
	}
}

func TestURL_Invalid(t *testing.T) {
	pair := chat.IdentityPair{ViewerID: "a", PeerID: "b"}
	for _, server := range []string{"", "   ", "ftp://host", "http://", "host:notaport"} {
		if _, err := URL(server, pair); !perrors.Is(err, perrors.KindConfig) {
			t.Errorf("URL(%q) error = %v, want config kind", server, err)
		}
	}
}

// fakeClient records handlers and emits.
type fakeClient struct {
	mu       sync.Mutex
	handlers map[string]interface{}
	emitted  []interface{}
	closed   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{handlers: make(map[string]interface{})}
}

func (c *fakeClient) On(method string, f interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method] = f
	return nil
}

func (c *fakeClient) Emit(method string, args []interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if method != EventSendChat {
		return errors.New("unexpected event " + method)
	}
	c.emitted = append(c.emitted, args...)
	return nil
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// recorder collects conversation events as strings, in delivery order.
type recorder struct {
	mu     sync.Mutex
	events []string
	log    []chat.Message
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) handlers() conversation.Events {
	return conversation.Events{
		OnConnect:    func() { r.add("connect") },
		OnDisconnect: func() { r.add("disconnect") },
		OnChats:      func(m []chat.Message) { r.add(fmt.Sprintf("chats(%d)", len(m))) },
		OnChat:       func(m chat.Message) { r.add("chat " + m.ID) },
	}
}

func TestBind_LifecycleThroughRouter(t *testing.T) {
	fc := newFakeClient()
	rec := &recorder{}
	r := newRouter(rec.handlers(), logger.WithComponent("socket-test"))
	if err := bind(fc, r); err != nil {
		t.Fatalf("bind: %v", err)
	}
	if _, ok := fc.handlers[EventChat]; ok {
		t.Error("chat events should not be registered with the client")
	}

	fc.handlers[gosocketio.OnConnection].(func(*gosocketio.Channel))(nil)
	r.emit(EventChats, json.RawMessage(`[{"chat_uuid":"1"},{"chat_uuid":"2"}]`))
	r.emit(EventChat, json.RawMessage(`{"chat_uuid":"3"}`))
	fc.handlers[gosocketio.OnDisconnection].(func(*gosocketio.Channel))(nil)

	select {
	case <-r.d.done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after disconnect")
	}
	want := []string{"connect", "chats(2)", "chat 3", "disconnect"}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestRouter_NilCallbacksAndUnknownEvents(t *testing.T) {
	r := newRouter(conversation.Events{}, logger.WithComponent("socket-test"))
	defer r.close()

	r.connected()
	if !r.emit(EventChat, json.RawMessage(`{}`)) {
		t.Error("chat event should be claimed")
	}
	if !r.emit(EventChats, json.RawMessage(`"not a list"`)) {
		t.Error("malformed chats event should still be claimed")
	}
	if r.emit("typing", json.RawMessage(`{}`)) {
		t.Error("unknown events belong to the socket.io client")
	}
}

func TestSplitEmit(t *testing.T) {
	tests := []struct {
		pkt    string
		method string
		arg    string
		ok     bool
	}{
		{`42["chat",{"chat_uuid":"1"}]`, "chat", `{"chat_uuid":"1"}`, true},
		{`42["chats",[]]`, "chats", `[]`, true},
		{`42["ping"]`, "ping", ``, true},
		{`421["chat",{}]`, "", "", false},  // ack request
		{`42/admin,["chat",{}]`, "", "", false},
		{`2`, "", "", false},
		{`0{"sid":"x"}`, "", "", false},
		{`42[1,2]`, "", "", false},
		{`42[broken`, "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.pkt, func(t *testing.T) {
			method, arg, ok := splitEmit(tt.pkt)
			if ok != tt.ok || method != tt.method || string(arg) != tt.arg {
				t.Errorf("splitEmit(%q) = %q, %q, %v; want %q, %q, %v", tt.pkt, method, arg, ok, tt.method, tt.arg, tt.ok)
			}
		})
	}
}

func TestDispatcher_RunsInPushOrder(t *testing.T) {
	d := newDispatcher()
	var got []int
	for i := range 100 {
		d.push(func() { got = append(got, i) })
	}
	d.stop()
	d.push(func() { got = append(got, -1) })

	select {
	case <-d.done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not drain")
	}
	if len(got) != 100 {
		t.Fatalf("ran %d callbacks, want 100", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("callback %d ran at position %d", v, i)
		}
	}
}

func TestConn_SendChatAndClose(t *testing.T) {
	fc := newFakeClient()
	c := &Conn{client: fc}

	if err := c.SendChat("hello"); err != nil {
		t.Fatalf("SendChat: %v", err)
	}
	if len(fc.emitted) != 1 || fc.emitted[0] != "hello" {
		t.Errorf("emitted = %v", fc.emitted)
	}
	if err := c.Close(); err != nil || !fc.closed {
		t.Errorf("Close: err=%v closed=%v", err, fc.closed)
	}
}

// startChatServer runs a socket.io server that pushes history on connect and
// echoes every send-chat back as a chat event.
func startChatServer(t *testing.T, history []chat.Message) *httptest.Server {
	t.Helper()
	server := gosocketio.NewServer(NewServerTransport(Timeouts{}))
	server.On(gosocketio.OnConnection, func(c *gosocketio.Channel) {
		c.Emit(EventChats, []interface{}{history})
	})
	server.On(EventSendChat, func(c *gosocketio.Channel, body string) {
		c.Emit(EventChat, []interface{}{chat.Message{
			ID:          "echo-" + body,
			SenderID:    "A",
			RecipientID: "B",
			Body:        body,
			Datetime:    "2024-01-01T10:05:00Z",
		}})
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestDialer_EndToEnd(t *testing.T) {
	history := []chat.Message{
		{ID: "1", SenderID: "B", RecipientID: "A", Body: "hey", Datetime: "2024-01-01T10:00:00Z"},
	}
	ts := startChatServer(t, history)

	d := NewDialer(ts.URL, Timeouts{ReceiveTimeout: 5 * time.Second})
	s, err := conversation.New(d, "A", "B")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitUntil(t, "connected", func() bool { return s.State() == conversation.StateConnected })
	waitUntil(t, "history", func() bool { return len(s.Log()) == 1 })

	if err := s.Send("hello"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	waitUntil(t, "echo", func() bool { return len(s.Log()) == 2 })
	if got := s.Log()[1]; got.ID != "echo-hello" || got.Body != "hello" {
		t.Errorf("echo = %+v", got)
	}
}

// startBurstServer pushes an empty history and then n single chat events as
// soon as a client connects.
func startBurstServer(t *testing.T, n int) *httptest.Server {
	t.Helper()
	server := gosocketio.NewServer(NewServerTransport(Timeouts{}))
	server.On(gosocketio.OnConnection, func(c *gosocketio.Channel) {
		c.Emit(EventChats, []interface{}{[]chat.Message{}})
		for i := range n {
			c.Emit(EventChat, []interface{}{chat.Message{
				ID:          fmt.Sprintf("%03d", i),
				SenderID:    "B",
				RecipientID: "A",
				Body:        "burst",
				Datetime:    "2024-01-01T10:00:00Z",
			}})
		}
	})
	ts := httptest.NewServer(server)
	t.Cleanup(ts.Close)
	return ts
}

func TestDialer_DeliversEventsInWireOrder(t *testing.T) {
	const n = 5
	ts := startBurstServer(t, n)

	rec := &recorder{}
	d := NewDialer(ts.URL, Timeouts{ReceiveTimeout: 5 * time.Second})
	conn, err := d.Dial(context.Background(), chat.IdentityPair{ViewerID: "A", PeerID: "B"}, rec.handlers())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitUntil(t, "all events", func() bool { return len(rec.snapshot()) == n+2 })

	want := []string{"connect", "chats(0)"}
	for i := range n {
		want = append(want, fmt.Sprintf("chat %03d", i))
	}
	if got := rec.snapshot(); !reflect.DeepEqual(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestDialer_SessionKeepsEveryBurstMessage(t *testing.T) {
	const n = 200
	ts := startBurstServer(t, n)

	d := NewDialer(ts.URL, Timeouts{ReceiveTimeout: 5 * time.Second})
	s, err := conversation.Open(context.Background(), d, "A", "B")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	waitUntil(t, "full log", func() bool { return len(s.Log()) == n })
	for i, m := range s.Log() {
		if want := fmt.Sprintf("%03d", i); m.ID != want {
			t.Fatalf("log[%d] = %s, want %s", i, m.ID, want)
		}
	}
}

func TestDialer_ServerDown(t *testing.T) {
	ts := startChatServer(t, nil)
	addr := ts.URL
	ts.Close()

	d := NewDialer(addr, Timeouts{HandshakeTimeout: time.Second})
	_, err := d.Dial(context.Background(), chat.IdentityPair{ViewerID: "A", PeerID: "B"}, conversation.Events{})
	if err == nil {
		t.Fatal("expected dial error")
	}
	if k := perrors.GetKind(err); k != perrors.KindNetwork && k != perrors.KindTimeout {
		t.Errorf("kind = %v", k)
	}
}

func TestTransport_RejectsNonGet(t *testing.T) {
	ts := httptest.NewServer(gosocketio.NewServer(NewServerTransport(Timeouts{})))
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/socket.io/", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 503 {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
