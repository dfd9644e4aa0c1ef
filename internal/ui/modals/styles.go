package modals

import (
	"image/color"

	"charm.land/bubbles/v2/textarea"
	"charm.land/lipgloss/v2"
)

// Palette is the slice of the ui theme the modals render with.
type Palette struct {
	Title lipgloss.Style
	Help  lipgloss.Style
	Error lipgloss.Style

	Primary   color.Color
	Secondary color.Color
	Text      color.Color
	Muted     color.Color
	Warning   color.Color
	Danger    color.Color

	InputCharLimit int
	Width          int
}

// Current palette, replaced wholesale by SetStyles on every theme change.
var (
	ModalTitleStyle  lipgloss.Style
	ModalHelpStyle   lipgloss.Style
	StatusErrorStyle lipgloss.Style

	ColorPrimary   color.Color
	ColorSecondary color.Color
	ColorText      color.Color
	ColorTextMuted color.Color
	ColorWarning   color.Color
	ColorError     color.Color

	ModalInputCharLimit int
	ModalWidth          int
)

// SetStyles installs p. The ui package calls it at init and after SetTheme.
// Forms built afterwards pick up the new colors; open forms keep theirs.
func SetStyles(p Palette) {
	ModalTitleStyle = p.Title
	ModalHelpStyle = p.Help
	StatusErrorStyle = p.Error

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorText = p.Text
	ColorTextMuted = p.Muted
	ColorWarning = p.Warning
	ColorError = p.Danger

	ModalInputCharLimit = p.InputCharLimit
	ModalWidth = p.Width
}

// ApplyTextareaStyles strips the textarea's background so the message input
// sits on the terminal's own background. Focused and blurred look the same;
// the conversation pane shows focus with its border instead.
func ApplyTextareaStyles(ta *textarea.Model) {
	styles := ta.Styles()

	plain := lipgloss.NewStyle()
	text := plain.Foreground(ColorText)
	placeholder := plain.Foreground(ColorTextMuted)

	styles.Focused.Base = plain
	styles.Focused.Text = text
	styles.Focused.Placeholder = placeholder
	styles.Focused.CursorLine = text
	styles.Focused.Prompt = text
	styles.Blurred = styles.Focused

	ta.SetStyles(styles)
}
