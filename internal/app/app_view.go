package app

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/pischat/internal/ui"
)

// View renders the UI
func (m *Model) View() tea.View {
	var v tea.View
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion

	if m.width == 0 || m.height == 0 {
		v.SetContent("Loading...")
		return v
	}

	v.SetContent(m.RenderToString())
	return v
}

// RenderToString renders the current screen as a string. Useful for tests.
func (m *Model) RenderToString() string {
	m.updateFooterContext()

	// Alerts block everything behind them.
	if m.alert.IsVisible() {
		return m.alert.View(m.width, m.height)
	}

	ctx := ui.GetViewContext()
	var body string
	switch m.screen {
	case ScreenContacts:
		body = m.contacts.View()
	case ScreenConversation:
		body = m.conversation.View()
	default:
		body = m.form.View(ctx.ContentWidth, ctx.ContentHeight)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.header.View(),
		body,
		m.footer.View(),
	)
}

func (m *Model) updateFooterContext() {
	switch {
	case m.alert.IsVisible():
		m.footer.SetMode(ui.FooterAlert)
	case m.screen == ScreenContacts:
		m.footer.SetMode(ui.FooterContacts)
	case m.screen == ScreenConversation:
		m.footer.SetMode(ui.FooterConversation)
	default:
		m.footer.SetMode(ui.FooterAuth)
	}
}
