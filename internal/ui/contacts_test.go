package ui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/pischat/internal/chat"
)

func testUsers() []chat.User {
	return []chat.User{
		{ID: "u-carol", Username: "carol", Name: "Carol"},
		{ID: "u-alice", Username: "alice", Name: "alice"},
		{ID: "u-bob", Username: "bob", Name: "Bob"},
		{ID: "u-dave", Username: "dave"},
	}
}

func ids(users []chat.User) []string {
	out := make([]string, len(users))
	for i, u := range users {
		out[i] = u.ID
	}
	return out
}

func TestContacts_SetUsersOrdering(t *testing.T) {
	tests := []struct {
		name   string
		recent []string
		want   []string
	}{
		{
			name: "alphabetical without recents",
			want: []string{"u-alice", "u-bob", "u-carol", "u-dave"},
		},
		{
			name:   "recents first in recent order",
			recent: []string{"u-dave", "u-bob"},
			want:   []string{"u-dave", "u-bob", "u-alice", "u-carol"},
		},
		{
			name:   "unknown recent ids are ignored",
			recent: []string{"u-gone", "u-carol"},
			want:   []string{"u-carol", "u-alice", "u-bob", "u-dave"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContacts()
			c.SetUsers(testUsers(), tt.recent)
			got := ids(c.Users())
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("order = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContacts_SetUsersDoesNotMutateInput(t *testing.T) {
	users := testUsers()
	c := NewContacts()
	c.SetUsers(users, nil)
	if users[0].ID != "u-carol" {
		t.Error("SetUsers reordered the caller's slice")
	}
}

func TestContacts_SelectionSurvivesRefresh(t *testing.T) {
	c := NewContacts()
	c.SetSize(40, 10)
	c.SetUsers(testUsers(), nil)

	if !c.Select("u-carol") {
		t.Fatal("Select(u-carol) = false")
	}
	c.SetUsers(testUsers(), []string{"u-dave"})

	sel, ok := c.Selected()
	if !ok || sel.ID != "u-carol" {
		t.Errorf("Selected() = %v, %v; want u-carol", sel.ID, ok)
	}
	if c.IsLoading() {
		t.Error("SetUsers should clear loading")
	}
}

func TestContacts_Navigation(t *testing.T) {
	c := NewContacts()
	c.SetSize(40, 5) // three visible rows
	c.SetUsers(testUsers(), nil)

	steps := []struct {
		key  tea.KeyPressMsg
		want int
	}{
		{tea.KeyPressMsg{Code: tea.KeyDown}, 1},
		{tea.KeyPressMsg{Code: 'j', Text: "j"}, 2},
		{tea.KeyPressMsg{Code: tea.KeyDown}, 3},
		{tea.KeyPressMsg{Code: tea.KeyDown}, 3},
		{tea.KeyPressMsg{Code: tea.KeyUp}, 2},
		{tea.KeyPressMsg{Code: tea.KeyHome}, 0},
		{tea.KeyPressMsg{Code: tea.KeyEnd}, 3},
		{tea.KeyPressMsg{Code: 'k', Text: "k"}, 2},
		{tea.KeyPressMsg{Code: tea.KeyPgUp}, 0},
		{tea.KeyPressMsg{Code: tea.KeyPgDown}, 3},
	}
	for i, s := range steps {
		c.Update(s.key)
		if got := c.SelectedIndex(); got != s.want {
			t.Fatalf("step %d (%s): index = %d, want %d", i, s.key.String(), got, s.want)
		}
	}
}

func TestContacts_UnfocusedIgnoresKeys(t *testing.T) {
	c := NewContacts()
	c.SetSize(40, 10)
	c.SetUsers(testUsers(), nil)
	c.SetFocused(false)

	c.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if c.SelectedIndex() != 0 {
		t.Errorf("unfocused list moved to %d", c.SelectedIndex())
	}
}

func TestContacts_Unread(t *testing.T) {
	c := NewContacts()
	c.SetSize(40, 10)
	c.SetUsers(testUsers(), nil)

	c.SetUnread("u-bob", 3)
	c.SetUnread("u-carol", 150)
	if c.Unread("u-bob") != 3 {
		t.Errorf("Unread(u-bob) = %d", c.Unread("u-bob"))
	}

	view := ansi.Strip(c.View())
	if !strings.Contains(view, "3") || !strings.Contains(view, "99+") {
		t.Errorf("badges missing from view: %q", view)
	}

	c.SetUnread("u-bob", 0)
	if c.Unread("u-bob") != 0 {
		t.Error("SetUnread(0) should clear the badge")
	}
	c.ClearUnread()
	if c.Unread("u-carol") != 0 {
		t.Error("ClearUnread should clear every badge")
	}
}

func TestContacts_View(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(c *Contacts)
		want    []string
		notWant []string
	}{
		{
			name:  "loading",
			setup: func(c *Contacts) { c.SetLoading(true) },
			want:  []string{"Loading contacts"},
		},
		{
			name:  "empty",
			setup: func(c *Contacts) { c.SetUsers(nil, nil) },
			want:  []string{"No contacts yet"},
		},
		{
			name:    "users with handles",
			setup:   func(c *Contacts) { c.SetUsers(testUsers(), nil) },
			want:    []string{"> alice", "Bob @bob", "Carol @carol", "dave"},
			notWant: []string{"alice @alice", "@dave", "No contacts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContacts()
			c.SetSize(50, 10)
			tt.setup(c)
			view := ansi.Strip(c.View())
			for _, w := range tt.want {
				if !strings.Contains(view, w) {
					t.Errorf("view missing %q:\n%s", w, view)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(view, nw) {
					t.Errorf("view should not contain %q:\n%s", nw, view)
				}
			}
		})
	}
}
