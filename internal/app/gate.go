package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zhubert/pischat/internal/chat"
)

// enterTimeout bounds the initial dial of a conversation.
const enterTimeout = 15 * time.Second

// conversationGate serializes Enter and Exit calls issued from commands.
// want holds the peer the UI is showing; a dial for any other peer is
// cancelled, and a conversation entered after the UI moved on is exited.
type conversationGate struct {
	conv Conversations

	// mu is held across Enter and Exit.
	mu sync.Mutex

	want atomic.Value // string

	cmu    sync.Mutex
	cancel context.CancelFunc
}

func newConversationGate(conv Conversations) *conversationGate {
	g := &conversationGate{conv: conv}
	g.want.Store("")
	return g
}

func (g *conversationGate) wanted() string {
	return g.want.Load().(string)
}

// switchTo records the peer the UI now shows ("" for none) and aborts any
// dial in flight.
func (g *conversationGate) switchTo(peerID string) {
	g.want.Store(peerID)
	g.cmu.Lock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.cmu.Unlock()
}

// enter opens a conversation with peer unless the UI has already moved on.
// skipped reports that nothing was dialed.
func (g *conversationGate) enter(viewer, peer chat.User) (skipped bool, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), enterTimeout)
	defer cancel()

	// Register before checking so a concurrent switchTo either sees the
	// cancel func or is seen by the check below.
	g.cmu.Lock()
	g.cancel = cancel
	g.cmu.Unlock()

	if g.wanted() != peer.ID {
		return true, nil
	}

	err = g.conv.Enter(ctx, viewer, peer)

	g.cmu.Lock()
	g.cancel = nil
	g.cmu.Unlock()

	if g.wanted() != peer.ID {
		if exitErr := g.conv.Exit(); exitErr != nil {
			return false, exitErr
		}
		return false, context.Canceled
	}
	return false, err
}

// exit leaves the active conversation if the UI is not showing one.
func (g *conversationGate) exit() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.wanted() != "" {
		return nil
	}
	return g.conv.Exit()
}

// shutdown cancels any dial and leaves the active conversation.
func (g *conversationGate) shutdown() error {
	g.switchTo("")
	return g.exit()
}
