package modals

import (
	"charm.land/bubbles/v2/help"
	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/pischat/internal/keys"
)

// initHuhForm runs Init so the first Render already has focus on the first
// field.
func initHuhForm(form *huh.Form) {
	form.Init()
}

// huhFormUpdate forwards msg to form. Enter submits and Escape leaves the
// auth screens, both decided by the app layer, so the form never sees them.
func huhFormUpdate(form *huh.Form, msg tea.Msg) (*huh.Form, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyPressMsg); ok {
		switch keyMsg.String() {
		case keys.Enter, keys.Escape:
			return form, nil
		}
	}

	m, cmd := form.Update(msg)
	if f, ok := m.(*huh.Form); ok {
		form = f
	}
	return form, cmd
}

// ModalTheme builds the login and register form theme from the current
// palette. Forms call it when built, so a theme change shows on the next form.
func ModalTheme() huh.Theme {
	return huh.ThemeFunc(func(isDark bool) *huh.Styles {
		t := huh.ThemeBase(isDark)

		field := lipgloss.NewStyle().PaddingLeft(1)
		t.Focused.Base = field.
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderForeground(ColorPrimary)
		t.Focused.Card = t.Focused.Base
		t.Focused.Title = lipgloss.NewStyle().Foreground(ColorPrimary).Bold(true)
		t.Focused.Description = lipgloss.NewStyle().Foreground(ColorTextMuted)
		t.Focused.ErrorIndicator = lipgloss.NewStyle().Foreground(ColorError).SetString(" !")
		t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(ColorError)

		t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(ColorSecondary)
		t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(ColorTextMuted).Italic(true)
		t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorSecondary).SetString("> ")
		t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(ColorText)

		// Unfocused fields keep their column but lose the bar and the
		// highlighted title.
		t.Blurred = t.Focused
		t.Blurred.Base = field.PaddingLeft(2)
		t.Blurred.Card = t.Blurred.Base
		t.Blurred.Title = lipgloss.NewStyle().Foreground(ColorText)
		t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(ColorTextMuted).SetString("> ")

		t.Group.Title = lipgloss.NewStyle().Foreground(ColorSecondary).Bold(true)
		t.Group.Description = lipgloss.NewStyle().Foreground(ColorTextMuted)

		t.FieldSeparator = lipgloss.NewStyle().SetString("\n")
		t.Help = help.New().Styles

		return t
	})
}
