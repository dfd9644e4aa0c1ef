package ui

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

const headerTitle = " pischat"

// Connection labels shown next to the peer's name.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// Header represents the top header bar
type Header struct {
	width     int
	peerName  string
	online    bool
	attempt   int
	viewerTag string
}

// NewHeader creates a new header
func NewHeader() *Header {
	return &Header{}
}

// SetWidth sets the header width
func (h *Header) SetWidth(width int) {
	h.width = width
}

// SetViewer sets the logged-in user's handle, shown when no conversation is open
func (h *Header) SetViewer(handle string) {
	h.viewerTag = handle
}

// SetConversation shows the peer and connection state. An empty name clears
// the conversation part of the header.
func (h *Header) SetConversation(peerName string, online bool, attempt int) {
	h.peerName = peerName
	h.online = online
	h.attempt = attempt
}

// ClearConversation removes the peer from the header
func (h *Header) ClearConversation() {
	h.SetConversation("", false, 0)
}

// Status returns the connection label for the open conversation, or "" if
// none is open.
func (h *Header) Status() string {
	if h.peerName == "" {
		return ""
	}
	if h.online {
		return StatusOnline
	}
	if h.attempt > 0 {
		return fmt.Sprintf("%s, retry %d", StatusOffline, h.attempt)
	}
	return StatusOffline
}

// View renders the header
func (h *Header) View() string {
	var left, status string
	if h.peerName != "" {
		status = h.Status()
		left = h.peerName + "  "
	} else if h.viewerTag != "" {
		left = h.viewerTag
	}

	// Leave room for the title, the status and the surrounding spaces.
	room := h.width - len(headerTitle) - ansi.StringWidth(status) - 2
	if room < 0 {
		room = 0
	}
	left = ansi.Truncate(left, room, "…")

	rightText := left + status + " "
	paddingLen := h.width - len(headerTitle) - ansi.StringWidth(rightText)
	if paddingLen < 0 {
		paddingLen = 0
	}

	fullContent := headerTitle + strings.Repeat(" ", paddingLen) + rightText

	statusStart := -1
	if status != "" {
		statusStart = len([]rune(fullContent)) - len([]rune(status)) - 1
	}
	return h.renderGradient(fullContent, statusStart)
}

// parseHexColor parses a hex color string (e.g., "#7C3AED") into RGB components
func parseHexColor(hex string) (r, g, b int) {
	if len(hex) == 7 && hex[0] == '#' {
		fmt.Sscanf(hex[1:], "%02x%02x%02x", &r, &g, &b)
	}
	return
}

// renderGradient renders the content with a theme-aware gradient background.
// Runes from statusStart on are drawn in the connection color.
func (h *Header) renderGradient(content string, statusStart int) string {
	if len(content) == 0 {
		return ""
	}

	theme := CurrentTheme()
	startR, startG, startB := parseHexColor(theme.Primary)
	// End color: fade to the main background
	endR, endG, endB := parseHexColor(theme.Bg)

	textColor := lipgloss.Color(theme.Text)
	var statusColor color.Color = lipgloss.Color(theme.Offline)
	if h.online {
		statusColor = lipgloss.Color(theme.Online)
	}

	runes := []rune(content)
	width := len(runes)
	titleLen := len([]rune(headerTitle))
	var result strings.Builder

	for i, r := range runes {
		t := float64(i) / float64(width)

		cr := int(float64(startR)*(1-t) + float64(endR)*t)
		cg := int(float64(startG)*(1-t) + float64(endG)*t)
		cb := int(float64(startB)*(1-t) + float64(endB)*t)
		bgColor := lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", cr, cg, cb))

		style := lipgloss.NewStyle().
			Background(bgColor).
			Bold(i < titleLen)

		if statusStart >= 0 && i >= statusStart && i < width-1 {
			style = style.Foreground(statusColor).Bold(true)
		} else {
			style = style.Foreground(textColor)
		}

		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
