package app

import (
	"context"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/directory"
	"github.com/zhubert/pischat/internal/logger"
)

// waitForView blocks until the coordinator publishes a view. The handler
// re-arms it, so exactly one of these is outstanding at a time.
func (m *Model) waitForView() tea.Cmd {
	if m.deps.Conversations == nil {
		return nil
	}
	ch := m.deps.Conversations.Updates()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		v, ok := <-ch
		if !ok {
			return nil
		}
		return ViewMsg{View: v}
	}
}

func (m *Model) requestContext() (context.Context, context.CancelFunc) {
	// The directory client applies its own timeout; this one bounds the
	// whole command if the client was built without one.
	return context.WithTimeout(context.Background(), 2*m.config.RequestTimeout())
}

func (m *Model) loginCmd(creds directory.Credentials) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		res, err := dir.Login(ctx, creds)
		return AuthResultMsg{Result: res, Err: err}
	}
}

func (m *Model) registerCmd(reg directory.Registration) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		res, err := dir.Register(ctx, reg)
		return AuthResultMsg{Register: true, Result: res, Err: err}
	}
}

func (m *Model) fetchContacts(viewerID string) tea.Cmd {
	dir := m.deps.Directory
	return func() tea.Msg {
		ctx, cancel := m.requestContext()
		defer cancel()
		users, err := dir.Contacts(ctx, viewerID)
		return ContactsMsg{ViewerID: viewerID, Users: users, Err: err}
	}
}

func (m *Model) enterCmd(viewer, peer chat.User) tea.Cmd {
	g := m.gate
	return func() tea.Msg {
		skipped, err := g.enter(viewer, peer)
		if err != nil {
			logger.WithConversation(viewer.ID, peer.ID).Warn("entering conversation", "error", err)
		}
		return EnteredMsg{PeerID: peer.ID, Skipped: skipped, Err: err}
	}
}

func (m *Model) exitCmd() tea.Cmd {
	g := m.gate
	return func() tea.Msg {
		return ExitedMsg{Err: g.exit()}
	}
}

func (m *Model) sendCmd(peerID, body string) tea.Cmd {
	conv := m.deps.Conversations
	return func() tea.Msg {
		return SentMsg{PeerID: peerID, Err: conv.Send(body)}
	}
}

// copyTranscriptCmd writes text to the clipboard off the update loop.
func (m *Model) copyTranscriptCmd(text string) tea.Cmd {
	copyText := m.deps.CopyText
	return func() tea.Msg {
		return CopiedMsg{Lines: strings.Count(text, "\n"), Err: copyText(text)}
	}
}
