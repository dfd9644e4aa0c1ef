package ui

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette, initialized from the default theme and replaced by SetTheme.
var (
	ColorPrimary     color.Color = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary   color.Color = lipgloss.Color("#06B6D4") // Cyan
	ColorMuted       color.Color = lipgloss.Color("#9CA3AF") // Gray
	ColorBorder      color.Color = lipgloss.Color("#374151") // Dark gray
	ColorBorderFocus color.Color = lipgloss.Color("#7C3AED") // Purple when focused
	ColorBg          color.Color = lipgloss.Color("#1F2937") // Dark background
	ColorText        color.Color = lipgloss.Color("#F9FAFB") // Light text
	ColorTextMuted   color.Color = lipgloss.Color("#9CA3AF") // Muted text
	ColorTextInverse color.Color = lipgloss.Color("#1F2937") // Dark text for light backgrounds
	ColorSelf        color.Color = lipgloss.Color("#A78BFA") // Own bubbles
	ColorPeer        color.Color = lipgloss.Color("#22D3EE") // Peer bubbles
	ColorOnline      color.Color = lipgloss.Color("#10B981") // Green
	ColorOffline     color.Color = lipgloss.Color("#EF4444") // Red
	ColorBadge       color.Color = lipgloss.Color("#F59E0B") // Amber
	ColorWarning     color.Color = lipgloss.Color("#F59E0B")
	ColorError       color.Color = lipgloss.Color("#EF4444")
)

// Header styles
var (
	HeaderStyle        lipgloss.Style
	HeaderOnlineStyle  lipgloss.Style
	HeaderOfflineStyle lipgloss.Style
)

// Footer styles
var (
	FooterStyle     lipgloss.Style
	FooterKeyStyle  lipgloss.Style
	FooterDescStyle lipgloss.Style
)

// Panel styles
var (
	PanelStyle        lipgloss.Style
	PanelFocusedStyle lipgloss.Style
	PanelTitleStyle   lipgloss.Style
)

// Contact list styles
var (
	ContactItemStyle     lipgloss.Style
	ContactSelectedStyle lipgloss.Style
	ContactHandleStyle   lipgloss.Style
	BadgeStyle           lipgloss.Style
	EmptyStateStyle      lipgloss.Style
)

// Conversation styles
var (
	SeparatorStyle   lipgloss.Style
	SelfBubbleStyle  lipgloss.Style
	PeerBubbleStyle  lipgloss.Style
	BubbleMetaStyle  lipgloss.Style
	ReadMarkStyle    lipgloss.Style
	ChatInputStyle   lipgloss.Style
	ChatInputFocused lipgloss.Style
)

// Modal styles
var (
	ModalStyle       lipgloss.Style
	ModalTitleStyle  lipgloss.Style
	ModalHelpStyle   lipgloss.Style
	StatusErrorStyle lipgloss.Style
)

func init() {
	buildStyles(currentTheme)
	RefreshModalStyles()
}

// buildStyles derives every style from the color variables and t.
func buildStyles(t Theme) {
	HeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorText).
		Background(ColorPrimary).
		Padding(0, 1)

	HeaderOnlineStyle = lipgloss.NewStyle().
		Foreground(ColorOnline).
		Bold(true)

	HeaderOfflineStyle = lipgloss.NewStyle().
		Foreground(ColorOffline).
		Bold(true)

	FooterStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Padding(0, 1)

	FooterKeyStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorSecondary)

	FooterDescStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	PanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)

	PanelFocusedStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorderFocus)

	PanelTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Padding(0, 1)

	ContactItemStyle = lipgloss.NewStyle().
		Padding(0, 1)

	ContactSelectedStyle = lipgloss.NewStyle().
		Background(lipgloss.Color(t.GetBgSelected())).
		Foreground(lipgloss.Color(t.Text)).
		Bold(true).
		Padding(0, 1)

	ContactHandleStyle = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Italic(true)

	BadgeStyle = lipgloss.NewStyle().
		Foreground(ColorTextInverse).
		Background(ColorBadge).
		Bold(true).
		Padding(0, 1)

	EmptyStateStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Italic(true)

	SeparatorStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Bold(true).
		Padding(0, 1)

	SelfBubbleStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSelf).
		Foreground(ColorText).
		Padding(0, 1)

	PeerBubbleStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPeer).
		Foreground(ColorText).
		Padding(0, 1)

	BubbleMetaStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted)

	ReadMarkStyle = lipgloss.NewStyle().
		Foreground(ColorSecondary)

	ChatInputStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Padding(0, 1)

	ChatInputFocused = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorderFocus).
		Padding(0, 1)

	ModalStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary).
		Padding(1, 2).
		Width(ModalWidth)

	ModalTitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		MarginBottom(1)

	ModalHelpStyle = lipgloss.NewStyle().
		Foreground(ColorTextMuted).
		Italic(true).
		MarginTop(1)

	StatusErrorStyle = lipgloss.NewStyle().
		Foreground(ColorError).
		Bold(true)
}
