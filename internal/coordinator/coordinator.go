// Package coordinator ties conversation sessions to the message pipeline.
//
// The coordinator owns at most one active session. It subscribes to the
// session's state and log events, renders every log snapshot through the
// pipeline and publishes the result as a View on a latest-wins channel the
// UI drains at its own pace.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/conversation"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/pipeline"
)

// ErrNoConversation is returned by Send when no conversation is active.
var ErrNoConversation = errors.New("no active conversation")

var errExited = errors.New("conversation exited")

// View is what the conversation screen renders.
type View struct {
	Viewer chat.User
	Peer   chat.User
	State  conversation.State
	Items  []pipeline.Item
	Stats  pipeline.Stats
	// Attempt counts reconnects for the current conversation. Zero until the
	// first connection drops.
	Attempt int
}

// Online reports whether the conversation is live.
func (v View) Online() bool {
	return v.State == conversation.StateConnected
}

// Notifier is told about peer messages that arrive while a conversation is
// open.
type Notifier interface {
	NewMessage(from chat.User, m chat.Message) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithReconnect enables reconnection after an unexpected disconnect. policy
// is called once per outage and must return a fresh BackOff.
func WithReconnect(policy func() backoff.BackOff) Option {
	return func(c *Coordinator) { c.policy = policy }
}

// DefaultReconnectPolicy is an exponential backoff that gives up after
// maxElapsed. Zero means retry until the conversation is exited.
func DefaultReconnectPolicy(maxElapsed time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 500 * time.Millisecond
		b.MaxInterval = 30 * time.Second
		b.MaxElapsedTime = maxElapsed
		return b
	}
}

// WithNotifier sets the notifier for new peer messages.
func WithNotifier(n Notifier) Option {
	return func(c *Coordinator) { c.notifier = n }
}

// WithSessionOptions passes options to every session the coordinator creates.
func WithSessionOptions(opts ...conversation.Option) Option {
	return func(c *Coordinator) { c.sessionOpts = append(c.sessionOpts, opts...) }
}

// Coordinator manages the lifetime of the active conversation.
type Coordinator struct {
	dialer      conversation.Dialer
	pipe        *pipeline.Pipeline
	policy      func() backoff.BackOff
	notifier    Notifier
	sessionOpts []conversation.Option
	log         *slog.Logger

	updates chan View

	mu      sync.Mutex
	active  *entry
	current View
}

// entry is one entered conversation. It outlives the sessions it creates
// when reconnecting.
type entry struct {
	viewer, peer chat.User

	ctx    context.Context
	cancel context.CancelFunc

	// Guarded by Coordinator.mu.
	session      *conversation.Session
	unsubscribe  []func()
	reconnecting bool
	// outage is set when the current session drops while reconnecting.
	outage  bool
	attempt int
	primed       bool
	seen         map[string]struct{}
}

// New returns a Coordinator. A nil pipeline uses UTC with default labels.
func New(dialer conversation.Dialer, pipe *pipeline.Pipeline, opts ...Option) *Coordinator {
	if pipe == nil {
		pipe = pipeline.New(nil)
	}
	c := &Coordinator{
		dialer:  dialer,
		pipe:    pipe,
		log:     logger.WithComponent("coordinator"),
		updates: make(chan View, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Updates returns the channel views are published on. Only the newest
// unread view is kept.
func (c *Coordinator) Updates() <-chan View {
	return c.updates
}

// Current returns the latest view, or the zero View when nothing is open.
func (c *Coordinator) Current() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Active reports whether a conversation is open.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Enter exits any open conversation and opens one between viewer and peer.
// Listeners are attached before the session connects, so no event is missed.
// A dial error is returned; with reconnection enabled the coordinator keeps
// trying in the background until Exit.
func (c *Coordinator) Enter(ctx context.Context, viewer, peer chat.User) error {
	if err := c.Exit(); err != nil {
		c.log.Warn("closing previous conversation", "error", err)
	}

	s, err := conversation.New(c.dialer, viewer.ID, peer.ID, c.sessionOpts...)
	if err != nil {
		return err
	}

	ectx, cancel := context.WithCancel(context.Background())
	e := &entry{
		viewer:  viewer,
		peer:    peer,
		ctx:     ectx,
		cancel:  cancel,
		session: s,
		seen:    make(map[string]struct{}),
	}

	c.mu.Lock()
	c.active = e
	c.publishLocked(View{Viewer: viewer, Peer: peer, State: conversation.StateIdle})
	c.attachLocked(e, s)
	c.mu.Unlock()

	c.log.Info("entering conversation", "viewer", viewer.ID, "peer", peer.ID)
	return s.Connect(ctx)
}

// Send forwards body to the active session.
func (c *Coordinator) Send(body string) error {
	c.mu.Lock()
	var s *conversation.Session
	if c.active != nil {
		s = c.active.session
	}
	c.mu.Unlock()

	if s == nil {
		return perrors.E(perrors.Op("coordinator.Send"), perrors.KindNotConnected, ErrNoConversation)
	}
	return s.Send(body)
}

// Exit leaves the active conversation. Listeners are removed before the
// session is closed, and any pending reconnect is cancelled. No view is
// published for the exited conversation afterwards. Safe to call when nothing
// is open.
func (c *Coordinator) Exit() error {
	c.mu.Lock()
	e := c.active
	if e == nil {
		c.mu.Unlock()
		return nil
	}
	c.active = nil
	for _, unsub := range e.unsubscribe {
		unsub()
	}
	e.unsubscribe = nil
	s := e.session
	e.session = nil
	c.current = View{}
	select {
	case <-c.updates:
	default:
	}
	c.mu.Unlock()

	e.cancel()
	c.log.Info("exiting conversation", "peer", e.peer.ID)
	return s.Close()
}

// attachLocked subscribes to s on behalf of e. c.mu must be held.
func (c *Coordinator) attachLocked(e *entry, s *conversation.Session) {
	e.unsubscribe = append(e.unsubscribe,
		s.OnStateChange(func(st conversation.State) { c.onState(e, s, st) }),
		s.OnLogSnapshot(func(log []chat.Message) { c.onLog(e, s, log) }),
	)
}

func (c *Coordinator) onState(e *entry, s *conversation.Session, st conversation.State) {
	c.mu.Lock()
	if c.active != e || e.session != s {
		c.mu.Unlock()
		return
	}
	v := c.current
	v.State = st
	v.Attempt = e.attempt
	c.publishLocked(v)

	dropped := st == conversation.StateDisconnected && c.policy != nil
	startReconnect := dropped && !e.reconnecting
	switch {
	case startReconnect:
		e.reconnecting = true
	case dropped:
		e.outage = true
	}
	c.mu.Unlock()

	if startReconnect {
		go c.reconnect(e)
	}
}

func (c *Coordinator) onLog(e *entry, s *conversation.Session, log []chat.Message) {
	items := c.pipe.Transform(log, e.viewer.ID)
	stats := pipeline.Summarize(items)

	c.mu.Lock()
	if c.active != e || e.session != s {
		c.mu.Unlock()
		return
	}
	v := c.current
	v.Items = items
	v.Stats = stats
	c.publishLocked(v)
	fresh := e.freshPeerMessages(log)
	c.mu.Unlock()

	if c.notifier == nil {
		return
	}
	for _, m := range fresh {
		if err := c.notifier.NewMessage(e.peer, m); err != nil {
			c.log.Debug("notification failed", "error", err)
		}
	}
}

// freshPeerMessages returns peer messages not seen in earlier snapshots. The
// first snapshot only primes the set; history is not news.
func (e *entry) freshPeerMessages(log []chat.Message) []chat.Message {
	var fresh []chat.Message
	for _, m := range log {
		if m.SenderID != e.peer.ID || m.ID == "" {
			continue
		}
		if _, ok := e.seen[m.ID]; ok {
			continue
		}
		e.seen[m.ID] = struct{}{}
		if e.primed {
			fresh = append(fresh, m)
		}
	}
	e.primed = true
	return fresh
}

// reconnect replaces e's dropped session until one connects, the policy
// gives up or the conversation is exited. A session that drops before the
// loop finishes starts another round.
func (c *Coordinator) reconnect(e *entry) {
	for {
		err := backoff.Retry(c.replaceSession(e), backoff.WithContext(c.policy(), e.ctx))
		if err != nil && !errors.Is(err, errExited) && e.ctx.Err() == nil {
			c.log.Warn("giving up on reconnect", "peer", e.peer.ID, "error", err)
		}

		c.mu.Lock()
		again := err == nil && e.outage && c.active == e && e.ctx.Err() == nil
		e.outage = false
		if !again {
			e.reconnecting = false
		}
		c.mu.Unlock()
		if !again {
			return
		}
		c.log.Info("connection dropped during reconnect", "peer", e.peer.ID)
	}
}

// replaceSession returns one reconnect attempt for e: a fresh session swapped
// in for the old one and connected.
func (c *Coordinator) replaceSession(e *entry) backoff.Operation {
	return func() error {
		s, err := conversation.New(c.dialer, e.viewer.ID, e.peer.ID, c.sessionOpts...)
		if err != nil {
			return backoff.Permanent(err)
		}

		c.mu.Lock()
		if c.active != e {
			c.mu.Unlock()
			return backoff.Permanent(errExited)
		}
		for _, unsub := range e.unsubscribe {
			unsub()
		}
		e.unsubscribe = nil
		old := e.session
		e.session = s
		e.outage = false
		e.attempt++
		attempt := e.attempt
		c.attachLocked(e, s)
		c.mu.Unlock()

		if old != nil {
			if err := old.Close(); err != nil {
				c.log.Debug("closing dropped session", "error", err)
			}
		}
		c.log.Info("reconnecting", "peer", e.peer.ID, "attempt", attempt)
		return s.Connect(e.ctx)
	}
}

// publishLocked records v as current and replaces any unread view on the
// updates channel. c.mu must be held.
func (c *Coordinator) publishLocked(v View) {
	c.current = v
	select {
	case <-c.updates:
	default:
	}
	select {
	case c.updates <- v:
	default:
	}
}
