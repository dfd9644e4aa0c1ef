package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
)

func TestHeader_View_NoConversation(t *testing.T) {
	header := NewHeader()
	header.SetWidth(80)
	header.SetViewer("@alice")

	view := ansi.Strip(header.View())

	if !strings.Contains(view, "pischat") {
		t.Errorf("header should contain the title, got %q", view)
	}
	if !strings.Contains(view, "@alice") {
		t.Errorf("header should show the viewer, got %q", view)
	}
	if strings.Contains(view, StatusOnline) || strings.Contains(view, StatusOffline) {
		t.Errorf("header without a conversation shows a status: %q", view)
	}
}

func TestHeader_Status(t *testing.T) {
	tests := []struct {
		name    string
		peer    string
		online  bool
		attempt int
		want    string
	}{
		{"no conversation", "", true, 0, ""},
		{"online", "Bob", true, 0, "online"},
		{"offline", "Bob", false, 0, "offline"},
		{"reconnecting", "Bob", false, 2, "offline, retry 2"},
		{"online after retries", "Bob", true, 3, "online"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := NewHeader()
			header.SetConversation(tt.peer, tt.online, tt.attempt)
			if got := header.Status(); got != tt.want {
				t.Errorf("Status() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeader_View_Conversation(t *testing.T) {
	header := NewHeader()
	header.SetWidth(80)
	header.SetViewer("@alice")
	header.SetConversation("Bob", true, 0)

	view := ansi.Strip(header.View())
	if !strings.Contains(view, "Bob") || !strings.Contains(view, "online") {
		t.Errorf("header = %q", view)
	}
	if strings.Contains(view, "@alice") {
		t.Errorf("viewer handle should give way to the peer: %q", view)
	}

	header.SetConversation("Bob", false, 0)
	if view := ansi.Strip(header.View()); !strings.Contains(view, "offline") {
		t.Errorf("header = %q", view)
	}

	header.ClearConversation()
	if view := ansi.Strip(header.View()); strings.Contains(view, "Bob") {
		t.Errorf("cleared header still shows the peer: %q", view)
	}
}

func TestHeader_View_Width(t *testing.T) {
	for _, width := range []int{30, 80, 120} {
		header := NewHeader()
		header.SetWidth(width)
		header.SetConversation(strings.Repeat("VeryLongName", 10), false, 0)

		view := header.View()
		if got := ansi.StringWidth(view); got != width {
			t.Errorf("width %d: rendered width = %d", width, got)
		}
		if !strings.Contains(ansi.Strip(view), "offline") {
			t.Errorf("width %d: status truncated away: %q", width, ansi.Strip(view))
		}
	}
}

func TestParseHexColor(t *testing.T) {
	r, g, b := parseHexColor("#7C3AED")
	if r != 0x7C || g != 0x3A || b != 0xED {
		t.Errorf("parseHexColor = %d,%d,%d", r, g, b)
	}
	if r, g, b := parseHexColor("nope"); r|g|b != 0 {
		t.Errorf("invalid input parsed as %d,%d,%d", r, g, b)
	}
}
