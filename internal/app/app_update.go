package app

import (
	"errors"
	"fmt"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/conversation"
	"github.com/zhubert/pischat/internal/keys"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/pipeline"
	"github.com/zhubert/pischat/internal/ui"
)

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateSizes()
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == keys.Quit {
			return m, tea.Quit
		}
		if m.alert.IsVisible() {
			return m.handleAlertKey(msg)
		}
		switch m.screen {
		case ScreenLogin, ScreenRegister:
			return m.handleAuthKey(msg)
		case ScreenContacts:
			return m.handleContactsKey(msg)
		case ScreenConversation:
			return m.handleConversationKey(msg)
		}
		return m, nil

	case AuthResultMsg:
		return m.handleAuthResult(msg)

	case ContactsMsg:
		return m.handleContacts(msg)

	case EnteredMsg:
		return m.handleEntered(msg)

	case ExitedMsg:
		if msg.Err != nil {
			logger.Warn("App: closing conversation: %v", msg.Err)
		}
		return m, nil

	case SentMsg:
		return m.handleSent(msg)

	case ViewMsg:
		return m.handleView(msg)

	case CopiedMsg:
		if msg.Err != nil {
			logger.Warn("App: copying transcript: %v", msg.Err)
			return m, m.ShowFlash("Copy failed: " + msg.Err.Error())
		}
		return m, m.ShowFlash(fmt.Sprintf("copied %d lines", msg.Lines))

	case FlashClearMsg:
		m.clearFlash(msg.ID)
		return m, nil
	}

	// Cursor blinks, mouse wheel and the like go to whatever has focus.
	var cmd tea.Cmd
	switch m.screen {
	case ScreenLogin, ScreenRegister:
		m.form, cmd = m.form.Update(msg)
	case ScreenConversation:
		m.conversation, cmd = m.conversation.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// Contacts screen
// =============================================================================

func (m *Model) handleContactsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keys.Enter:
		peer, ok := m.contacts.Selected()
		if !ok {
			return m, nil
		}
		return m, m.openConversation(peer)

	case keys.RefreshContacts:
		if m.viewer == nil || m.contacts.IsLoading() {
			return m, nil
		}
		m.contacts.SetLoading(true)
		return m, m.fetchContacts(m.viewer.ID)

	case keys.Logout:
		return m, m.logout()

	case keys.CycleTheme:
		return m, m.cycleTheme()

	case keys.ToggleNotifications:
		return m, m.toggleNotifications()
	}

	var cmd tea.Cmd
	m.contacts, cmd = m.contacts.Update(msg)
	return m, cmd
}

func (m *Model) handleContacts(msg ContactsMsg) (tea.Model, tea.Cmd) {
	if m.viewer == nil || msg.ViewerID != m.viewer.ID {
		return m, nil
	}
	if msg.Err != nil {
		m.contacts.SetLoading(false)
		logger.Warn("App: loading contacts: %v", msg.Err)
		m.showError("Could not load contacts", msg.Err)
		return m, nil
	}

	users := make([]chat.User, 0, len(msg.Users))
	for _, u := range msg.Users {
		if u.ID != m.viewer.ID {
			users = append(users, u)
		}
	}
	m.contacts.SetUsers(users, m.config.GetRecentPeers())
	logger.Debug("App: loaded %d contacts", len(users))
	return m, nil
}

func (m *Model) cycleTheme() tea.Cmd {
	next := ui.NextThemeName(ui.CurrentThemeName())
	ui.SetTheme(next)
	m.conversation.RefreshStyles()
	m.config.SetTheme(string(next))
	return tea.Batch(m.saveConfigOrFlash(), m.ShowFlash("theme: "+string(next)))
}

func (m *Model) toggleNotifications() tea.Cmd {
	enabled := !m.config.GetNotificationsEnabled()
	m.config.SetNotificationsEnabled(enabled)
	m.footer.SetNotifications(enabled)

	label := "notifications off"
	if enabled {
		label = "notifications on"
	}
	return tea.Batch(m.saveConfigOrFlash(), m.ShowFlash(label))
}

// logout forgets the saved user and returns to the login screen.
func (m *Model) logout() tea.Cmd {
	var cmds []tea.Cmd
	if m.peer != nil {
		cmds = append(cmds, m.closeConversation())
	}

	if err := m.deps.Store.ClearCurrentUser(); err != nil {
		logger.Error("App: clearing user: %v", err)
		m.showError("Could not log out", err)
		return tea.Batch(cmds...)
	}

	username := ""
	if m.viewer != nil {
		username = m.viewer.Username
		logger.Info("App: %s logged out", username)
	}
	m.viewer = nil
	m.header.SetViewer("")
	m.contacts.SetUsers(nil, nil)
	m.contacts.ClearUnread()

	m.config.ClearRecentPeers()
	cmds = append(cmds, m.saveConfigOrFlash())

	m.showLogin(username)
	return tea.Batch(cmds...)
}

// =============================================================================
// Conversation screen
// =============================================================================

func (m *Model) openConversation(peer chat.User) tea.Cmd {
	if m.viewer == nil {
		return nil
	}
	m.peer = &peer
	m.screen = ScreenConversation
	m.contacts.SetFocused(false)
	m.conversation.Open()
	m.header.SetConversation(peer.DisplayName(), false, 0)
	m.gate.switchTo(peer.ID)

	m.config.TouchRecentPeer(peer.ID)

	return tea.Batch(
		m.conversation.SetFocused(true),
		m.enterCmd(*m.viewer, peer),
		m.saveConfigOrFlash(),
	)
}

// closeConversation returns to the contact list and exits the conversation
// in the background.
func (m *Model) closeConversation() tea.Cmd {
	m.peer = nil
	m.gate.switchTo("")
	m.screen = ScreenContacts
	m.conversation.SetFocused(false)
	m.conversation.Close()
	m.header.ClearConversation()
	m.contacts.SetFocused(true)
	m.contacts.SetUsers(m.contacts.Users(), m.config.GetRecentPeers())
	return m.exitCmd()
}

func (m *Model) handleConversationKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keys.Back:
		return m, m.closeConversation()

	case keys.Send:
		body := m.conversation.GetInput()
		if body == "" || m.peer == nil {
			return m, nil
		}
		m.conversation.ClearInput()
		return m, m.sendCmd(m.peer.ID, body)

	case keys.ToggleNotifications:
		return m, m.toggleNotifications()

	case keys.CopyTranscript:
		return m, m.copyTranscript()
	}

	var cmd tea.Cmd
	m.conversation, cmd = m.conversation.Update(msg)
	return m, cmd
}

func (m *Model) copyTranscript() tea.Cmd {
	items := m.conversation.Items()
	if len(items) == 0 || m.peer == nil {
		return m.ShowFlash("Nothing to copy")
	}
	return m.copyTranscriptCmd(pipeline.Transcript(items, "me", m.peer.DisplayName()))
}

func (m *Model) handleEntered(msg EnteredMsg) (tea.Model, tea.Cmd) {
	if msg.Skipped || m.peer == nil || msg.PeerID != m.peer.ID {
		return m, nil
	}
	if msg.Err == nil {
		return m, nil
	}
	if m.config.ReconnectEnabled() {
		return m, m.ShowFlash("offline, retrying in the background")
	}
	m.showError("Could not connect", msg.Err)
	return m, nil
}

func (m *Model) handleSent(msg SentMsg) (tea.Model, tea.Cmd) {
	if msg.Err == nil {
		return m, nil
	}
	logger.Warn("App: send to %s failed: %v", msg.PeerID, msg.Err)
	if errors.Is(msg.Err, conversation.ErrNotConnected) {
		return m, m.ShowFlash("Message not sent: offline")
	}
	return m, m.ShowFlash(fmt.Sprintf("Message not sent: %s", userMessage(msg.Err)))
}

// handleView renders a view of the open conversation. Views for any other
// peer are stale and dropped.
func (m *Model) handleView(msg ViewMsg) (tea.Model, tea.Cmd) {
	next := m.waitForView()

	v := msg.View
	if m.peer == nil || v.Peer.ID != m.peer.ID {
		return m, next
	}

	m.conversation.SetItems(v.Items)
	m.header.SetConversation(m.peer.DisplayName(), v.Online(), v.Attempt)
	m.contacts.SetUnread(m.peer.ID, v.Stats.UnreadBySelf)
	return m, next
}
