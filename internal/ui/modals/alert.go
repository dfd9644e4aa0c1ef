package modals

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// AlertState is a blocking message box. The app layer dismisses it on Enter
// or Escape; nothing behind it receives input until then.
type AlertState struct {
	title   string
	Message string
	// IsError renders the message in the error color.
	IsError bool
}

func (*AlertState) modalState() {}

// NewAlertState creates an informational alert.
func NewAlertState(title, message string) *AlertState {
	return &AlertState{title: title, Message: message}
}

// NewErrorAlertState creates an alert for a failed operation.
func NewErrorAlertState(title, message string) *AlertState {
	return &AlertState{title: title, Message: message, IsError: true}
}

func (s *AlertState) Title() string {
	if s.title == "" {
		return "Notice"
	}
	return s.title
}

func (s *AlertState) Help() string { return "Enter or Esc to continue" }

func (s *AlertState) Render() string {
	title := ModalTitleStyle.Render(s.Title())

	msgStyle := lipgloss.NewStyle().Foreground(ColorText)
	if s.IsError {
		msgStyle = StatusErrorStyle
	}
	// Border and padding of the modal take eight columns.
	msg := msgStyle.Width(max(ModalWidth-8, 10)).Render(s.Message)

	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, msg, help)
}

// Update ignores input; dismissal is the app layer's job.
func (s *AlertState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	return s, nil
}
