// Package conversation owns the live connection behind one two-party chat.
//
// A Session is scoped to an IdentityPair and walks a one-way state machine:
//
//	idle -> connecting -> connected -> disconnected
//
// Disconnected is terminal. Callers that want to reconnect create a new
// Session; the coordinator package does that with a backoff policy.
//
// Transport callbacks may arrive on any goroutine. The session serializes
// them, keeps the cumulative chat log and fans state and log snapshots out
// to its listeners.
package conversation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/zhubert/pischat/internal/chat"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
)

// State is the connection state of a Session.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

var (
	// ErrAlreadyOpened is returned by Connect on a session that has left idle.
	ErrAlreadyOpened = errors.New("conversation already opened")
	// ErrNotConnected is returned by Send unless the session is connected.
	ErrNotConnected = errors.New("conversation not connected")
	// ErrEmptyMessage is returned by Send for a blank body.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrClosed is returned by Connect when Close interrupts the dial.
	ErrClosed = errors.New("conversation closed")
)

// Events are the callbacks a transport invokes. The session supplies them to
// Dialer.Dial; nil entries are never handed out.
type Events struct {
	OnConnect    func()
	OnDisconnect func()
	// OnChats delivers the full log for the pair. It replaces what the
	// session has accumulated so far.
	OnChats func([]chat.Message)
	// OnChat delivers one new or updated record.
	OnChat func(chat.Message)
}

// Conn is an established transport connection.
type Conn interface {
	SendChat(body string) error
	Close() error
}

// Dialer opens a transport connection for a pair. ctx bounds the dial only;
// it is cancelled once Dial returns or when the session is closed mid-dial.
type Dialer interface {
	Dial(ctx context.Context, pair chat.IdentityPair, ev Events) (Conn, error)
}

// DialerFunc adapts a function to Dialer.
type DialerFunc func(ctx context.Context, pair chat.IdentityPair, ev Events) (Conn, error)

// Dial calls f.
func (f DialerFunc) Dial(ctx context.Context, pair chat.IdentityPair, ev Events) (Conn, error) {
	return f(ctx, pair, ev)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger replaces the default conversation logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Session is one conversation between the viewer and a peer.
type Session struct {
	pair   chat.IdentityPair
	dialer Dialer
	log    *slog.Logger

	// deliverMu serializes transport events so listeners never see two
	// deliveries interleave.
	deliverMu sync.Mutex

	mu         sync.Mutex
	state      State
	conn       Conn
	cancelDial context.CancelFunc
	closed     bool
	messages   []chat.Message
	nextSubID  int
	stateSubs  map[int]func(State)
	logSubs    map[int]func([]chat.Message)
}

// New returns an idle session for the pair. It fails with chat.ErrInvalidPair
// when either id is empty or both are the same.
func New(dialer Dialer, viewerID, peerID string, opts ...Option) (*Session, error) {
	pair, err := chat.NewIdentityPair(viewerID, peerID)
	if err != nil {
		return nil, err
	}
	if dialer == nil {
		return nil, perrors.Invalid(perrors.Op("conversation.New"), "nil dialer")
	}
	s := &Session{
		pair:      pair,
		dialer:    dialer,
		log:       logger.WithConversation(viewerID, peerID),
		stateSubs: make(map[int]func(State)),
		logSubs:   make(map[int]func([]chat.Message)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open creates a session and connects it. On a dial failure the session is
// returned in the disconnected state together with the error.
func Open(ctx context.Context, dialer Dialer, viewerID, peerID string, opts ...Option) (*Session, error) {
	s, err := New(dialer, viewerID, peerID, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Connect(ctx); err != nil {
		return s, err
	}
	return s, nil
}

// Pair returns the identity pair the session is scoped to.
func (s *Session) Pair() chat.IdentityPair {
	return s.pair
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Log returns a copy of the cumulative chat log.
func (s *Session) Log() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.Message(nil), s.messages...)
}

// OnStateChange registers fn for future state transitions. Nothing is
// replayed. The returned func removes the listener.
func (s *Session) OnStateChange(fn func(State)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || fn == nil {
		return func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.stateSubs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.stateSubs, id)
		s.mu.Unlock()
	}
}

// OnLogSnapshot registers fn for future log snapshots. Each snapshot is the
// whole cumulative log; listeners must treat it as read-only.
func (s *Session) OnLogSnapshot(fn func([]chat.Message)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || fn == nil {
		return func() {}
	}
	id := s.nextSubID
	s.nextSubID++
	s.logSubs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.logSubs, id)
		s.mu.Unlock()
	}
}

// Connect dials the transport. It may only be called once, from idle. A dial
// error leaves the session disconnected, as does a disconnect reported before
// Dial returns; the latter fails with ErrNotConnected.
func (s *Session) Connect(ctx context.Context) error {
	const op = perrors.Op("conversation.Connect")

	s.mu.Lock()
	if s.state != StateIdle || s.closed {
		st := s.state
		s.mu.Unlock()
		return perrors.E(op, perrors.KindInvalid, "session is "+st.String(), ErrAlreadyOpened)
	}
	dialCtx, cancel := context.WithCancel(ctx)
	s.cancelDial = cancel
	s.state = StateConnecting
	subs := s.stateListenersLocked()
	s.mu.Unlock()

	s.log.Debug("connecting")
	s.deliver(func() { s.notifyState(StateConnecting, subs) })

	conn, err := s.dialer.Dial(dialCtx, s.pair, s.events())
	cancel()

	s.mu.Lock()
	s.cancelDial = nil
	if s.closed {
		s.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return perrors.E(op, perrors.KindNotConnected, ErrClosed)
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("dial failed", "error", err)
		s.deliver(func() { s.transition(StateDisconnected) })
		kind := perrors.KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = perrors.KindTimeout
		}
		return perrors.E(op, kind, err)
	}
	if s.state == StateDisconnected {
		// The transport reported a disconnect before Dial returned.
		s.mu.Unlock()
		conn.Close()
		return perrors.E(op, perrors.KindNotConnected, "disconnected while dialing", ErrNotConnected)
	}
	s.conn = conn
	s.mu.Unlock()
	return nil
}

// Send transmits body to the peer. The message is not queued: outside the
// connected state it is dropped with ErrNotConnected.
func (s *Session) Send(body string) error {
	const op = perrors.Op("conversation.Send")

	s.mu.Lock()
	state, conn := s.state, s.conn
	s.mu.Unlock()

	if state != StateConnected || conn == nil {
		return perrors.E(op, perrors.KindNotConnected, "session is "+state.String(), ErrNotConnected)
	}
	if strings.TrimSpace(body) == "" {
		return perrors.E(op, perrors.KindInvalid, ErrEmptyMessage)
	}
	if err := conn.SendChat(body); err != nil {
		return perrors.E(op, perrors.KindNetwork, err)
	}
	return nil
}

// Close releases the connection and drops every listener. It works from any
// state, interrupts an in-flight dial and is safe to call more than once.
// Listeners are not told about the final transition.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.state = StateDisconnected
	conn := s.conn
	s.conn = nil
	cancel := s.cancelDial
	s.cancelDial = nil
	s.stateSubs = nil
	s.logSubs = nil
	s.mu.Unlock()

	s.log.Debug("closing")
	if cancel != nil {
		cancel()
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			return perrors.E(perrors.Op("conversation.Close"), perrors.KindNetwork, err)
		}
	}
	return nil
}

func (s *Session) events() Events {
	return Events{
		OnConnect: func() {
			s.deliver(func() { s.transition(StateConnected) })
		},
		OnDisconnect: func() {
			s.deliver(func() { s.transition(StateDisconnected) })
		},
		OnChats: func(msgs []chat.Message) {
			s.deliver(func() { s.replaceLog(msgs) })
		},
		OnChat: func(m chat.Message) {
			s.deliver(func() { s.upsert(m) })
		},
	}
}

func (s *Session) deliver(fn func()) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	fn()
}

// transition moves to next if the state machine allows it and notifies the
// state listeners.
func (s *Session) transition(next State) {
	s.mu.Lock()
	if s.closed || !allowed(s.state, next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	var conn Conn
	if next == StateDisconnected {
		conn = s.conn
		s.conn = nil
	}
	subs := s.stateListenersLocked()
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.notifyState(next, subs)
}

func (s *Session) stateListenersLocked() []func(State) {
	subs := make([]func(State), 0, len(s.stateSubs))
	for _, fn := range s.stateSubs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Session) notifyState(next State, subs []func(State)) {
	s.log.Info("state changed", "state", next.String())
	for _, fn := range subs {
		if s.isClosed() {
			return
		}
		fn(next)
	}
}

func allowed(from, to State) bool {
	switch to {
	case StateConnecting:
		return from == StateIdle
	case StateConnected:
		return from == StateConnecting
	case StateDisconnected:
		return from == StateConnecting || from == StateConnected
	}
	return false
}

func (s *Session) replaceLog(msgs []chat.Message) {
	s.mu.Lock()
	if s.closed || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	s.messages = s.messages[:0:0]
	for _, m := range msgs {
		if !s.pair.Involves(m) {
			s.log.Debug("dropping record for another pair", "chat", m.ID)
			continue
		}
		s.messages = append(s.messages, m)
	}
	s.publishLocked()
}

func (s *Session) upsert(m chat.Message) {
	s.mu.Lock()
	if s.closed || s.state == StateDisconnected {
		s.mu.Unlock()
		return
	}
	if !s.pair.Involves(m) {
		s.mu.Unlock()
		s.log.Debug("dropping record for another pair", "chat", m.ID)
		return
	}
	replaced := false
	if m.ID != "" {
		for i := range s.messages {
			if s.messages[i].ID == m.ID {
				s.messages[i] = m
				replaced = true
				break
			}
		}
	}
	if !replaced {
		s.messages = append(s.messages, m)
	}
	s.publishLocked()
}

// publishLocked sends a snapshot to the log listeners and releases mu.
func (s *Session) publishLocked() {
	snapshot := append([]chat.Message(nil), s.messages...)
	subs := make([]func([]chat.Message), 0, len(s.logSubs))
	for _, fn := range s.logSubs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	s.log.Debug("log snapshot", "messages", len(snapshot))
	for _, fn := range subs {
		if s.isClosed() {
			return
		}
		fn(snapshot)
	}
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
