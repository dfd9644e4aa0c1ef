package ui

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/zhubert/pischat/internal/keys"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key  string
	Desc string
}

// FooterMode selects which bindings the footer shows.
type FooterMode int

const (
	FooterAuth FooterMode = iota
	FooterContacts
	FooterConversation
	FooterAlert
)

// Footer represents the bottom footer bar with keybindings
type Footer struct {
	width         int
	mode          FooterMode
	notifications bool
	flash         string
}

// NewFooter creates a new footer
func NewFooter() *Footer {
	return &Footer{}
}

// SetWidth sets the footer width
func (f *Footer) SetWidth(width int) {
	f.width = width
}

// SetMode updates the footer's context for conditional bindings
func (f *Footer) SetMode(mode FooterMode) {
	f.mode = mode
}

// SetNotifications sets whether the notifications toggle reads on or off
func (f *Footer) SetNotifications(enabled bool) {
	f.notifications = enabled
}

// SetFlash shows a transient message in place of the bindings. An empty
// string restores them.
func (f *Footer) SetFlash(msg string) {
	f.flash = msg
}

// Bindings returns the bindings for the current mode
func (f *Footer) Bindings() []KeyBinding {
	notify := "notify: off"
	if f.notifications {
		notify = "notify: on"
	}

	switch f.mode {
	case FooterAlert:
		return []KeyBinding{
			{Key: keys.Enter + "/" + keys.Escape, Desc: "dismiss"},
		}
	case FooterAuth:
		return []KeyBinding{
			{Key: keys.Tab, Desc: "next field"},
			{Key: keys.Enter, Desc: "submit"},
			{Key: keys.SwitchAuthForm, Desc: "login/register"},
			{Key: keys.Quit, Desc: "quit"},
		}
	case FooterConversation:
		return []KeyBinding{
			{Key: keys.Send, Desc: "send"},
			{Key: keys.Newline, Desc: "newline"},
			{Key: "pgup/dn", Desc: "scroll"},
			{Key: keys.Back, Desc: "contacts"},
			{Key: keys.CopyTranscript, Desc: "copy"},
			{Key: keys.ToggleNotifications, Desc: notify},
			{Key: keys.Quit, Desc: "quit"},
		}
	default:
		return []KeyBinding{
			{Key: "↑/↓", Desc: "select"},
			{Key: keys.Enter, Desc: "chat"},
			{Key: keys.RefreshContacts, Desc: "refresh"},
			{Key: keys.CycleTheme, Desc: "theme"},
			{Key: keys.ToggleNotifications, Desc: notify},
			{Key: keys.Logout, Desc: "logout"},
			{Key: keys.Quit, Desc: "quit"},
		}
	}
}

// View renders the footer
func (f *Footer) View() string {
	if f.flash != "" {
		return FooterStyle.Width(f.width).Render(FooterDescStyle.Render(f.flash))
	}

	var parts []string
	for _, b := range f.Bindings() {
		key := FooterKeyStyle.Render(b.Key)
		desc := FooterDescStyle.Render(": " + b.Desc)
		parts = append(parts, key+desc)
	}

	content := strings.Join(parts, "  "+lipgloss.NewStyle().Foreground(ColorBorder).Render("|")+"  ")

	return FooterStyle.Width(f.width).Render(content)
}
