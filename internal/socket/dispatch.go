package socket

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/conversation"
)

// emitPrefix starts a socket.io event packet: engine.io message (4) carrying
// a socket.io event (2).
const emitPrefix = "42"

// splitEmit parses an event packet without namespace or ack id, such as
// 42["chat",{...}], into the event name and its first argument.
func splitEmit(pkt string) (string, json.RawMessage, bool) {
	body, ok := strings.CutPrefix(pkt, emitPrefix)
	if !ok || !strings.HasPrefix(body, "[") {
		return "", nil, false
	}
	var parts []json.RawMessage
	if err := json.Unmarshal([]byte(body), &parts); err != nil || len(parts) == 0 {
		return "", nil, false
	}
	var method string
	if err := json.Unmarshal(parts[0], &method); err != nil {
		return "", nil, false
	}
	var arg json.RawMessage
	if len(parts) > 1 {
		arg = parts[1]
	}
	return method, arg, true
}

// dispatcher runs callbacks on one goroutine in the order they were pushed.
type dispatcher struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []func()
	stopped bool
	done    chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{done: make(chan struct{})}
	d.cond = sync.NewCond(&d.mu)
	go d.run()
	return d
}

// push queues fn. Pushes after stop are dropped.
func (d *dispatcher) push(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.queue = append(d.queue, fn)
	d.cond.Signal()
}

// stop ends the worker once everything already queued has run.
func (d *dispatcher) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.cond.Signal()
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.stopped {
			d.cond.Wait()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.queue[0]
		d.queue[0] = nil
		d.queue = d.queue[1:]
		d.mu.Unlock()

		fn()
	}
}

// router turns one connection's traffic into conversation events. Chat
// events are taken off the wire by the transport's reader, so they are
// decoded and queued in the order the server sent them; the socket.io
// client would otherwise hand each one to its own goroutine.
type router struct {
	ev  conversation.Events
	d   *dispatcher
	log *slog.Logger
}

func newRouter(ev conversation.Events, log *slog.Logger) *router {
	return &router{ev: ev, d: newDispatcher(), log: log}
}

func (r *router) connected() {
	r.log.Debug("socket connected")
	r.d.push(func() {
		if r.ev.OnConnect != nil {
			r.ev.OnConnect()
		}
	})
}

// disconnected queues the disconnect behind pending chat events and retires
// the dispatcher.
func (r *router) disconnected() {
	r.log.Debug("socket disconnected")
	r.d.push(func() {
		if r.ev.OnDisconnect != nil {
			r.ev.OnDisconnect()
		}
	})
	r.d.stop()
}

// close retires the dispatcher without reporting anything.
func (r *router) close() {
	r.d.stop()
}

// emit handles an event packet read off the wire. It returns false for
// events the chat protocol does not define; those go to the socket.io
// client as usual.
func (r *router) emit(method string, arg json.RawMessage) bool {
	switch method {
	case EventChats:
		var msgs []chat.Message
		if err := json.Unmarshal(arg, &msgs); err != nil {
			r.log.Warn("dropping malformed chats event", "error", err)
			return true
		}
		r.d.push(func() {
			if r.ev.OnChats != nil {
				r.ev.OnChats(msgs)
			}
		})
	case EventChat:
		var m chat.Message
		if err := json.Unmarshal(arg, &m); err != nil {
			r.log.Warn("dropping malformed chat event", "error", err)
			return true
		}
		r.d.push(func() {
			if r.ev.OnChat != nil {
				r.ev.OnChat(m)
			}
		})
	default:
		return false
	}
	return true
}
