package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/keys"
)

// Contacts is the list of users the viewer can open a conversation with
type Contacts struct {
	users        []chat.User
	unread       map[string]int
	selectedIdx  int
	scrollOffset int
	width        int
	height       int
	focused      bool
	loading      bool
}

// NewContacts creates an empty contact list
func NewContacts() *Contacts {
	return &Contacts{
		unread:  make(map[string]int),
		focused: true,
	}
}

// SetSize sets the list dimensions, border included
func (c *Contacts) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.ensureVisible()
}

// SetFocused sets the focus state
func (c *Contacts) SetFocused(focused bool) {
	c.focused = focused
}

// SetLoading shows a loading placeholder instead of the list
func (c *Contacts) SetLoading(loading bool) {
	c.loading = loading
}

// IsLoading reports whether the list is waiting for contacts
func (c *Contacts) IsLoading() bool {
	return c.loading
}

// SetUsers replaces the list. Users in recent come first in that order; the
// rest are sorted by display name. The selection follows the previously
// selected user when it is still present.
func (c *Contacts) SetUsers(users []chat.User, recent []string) {
	prev, hadPrev := c.Selected()

	rank := make(map[string]int, len(recent))
	for i, id := range recent {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}

	sorted := make([]chat.User, len(users))
	copy(sorted, users)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iRecent := rank[sorted[i].ID]
		rj, jRecent := rank[sorted[j].ID]
		switch {
		case iRecent && jRecent:
			return ri < rj
		case iRecent != jRecent:
			return iRecent
		}
		return strings.ToLower(sorted[i].DisplayName()) < strings.ToLower(sorted[j].DisplayName())
	})

	c.users = sorted
	c.loading = false
	c.selectedIdx = 0
	if hadPrev {
		for i, u := range sorted {
			if u.ID == prev.ID {
				c.selectedIdx = i
				break
			}
		}
	}
	c.ensureVisible()
}

// Users returns the users in display order
func (c *Contacts) Users() []chat.User {
	return c.users
}

// Len returns the number of contacts
func (c *Contacts) Len() int {
	return len(c.users)
}

// SetUnread sets the unread badge for a contact. Zero hides it.
func (c *Contacts) SetUnread(userID string, n int) {
	if n <= 0 {
		delete(c.unread, userID)
		return
	}
	c.unread[userID] = n
}

// Unread returns the badge count for a contact
func (c *Contacts) Unread(userID string) int {
	return c.unread[userID]
}

// ClearUnread removes every badge. Used on logout.
func (c *Contacts) ClearUnread() {
	c.unread = make(map[string]int)
}

// Selected returns the highlighted contact
func (c *Contacts) Selected() (chat.User, bool) {
	if c.selectedIdx < 0 || c.selectedIdx >= len(c.users) {
		return chat.User{}, false
	}
	return c.users[c.selectedIdx], true
}

// SelectedIndex returns the highlighted row
func (c *Contacts) SelectedIndex() int {
	return c.selectedIdx
}

// Select highlights the contact with the given id, if present
func (c *Contacts) Select(userID string) bool {
	for i, u := range c.users {
		if u.ID == userID {
			c.selectedIdx = i
			c.ensureVisible()
			return true
		}
	}
	return false
}

// Update handles navigation keys
func (c *Contacts) Update(msg tea.Msg) (*Contacts, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyPressMsg)
	if !ok || !c.focused || len(c.users) == 0 {
		return c, nil
	}

	switch keyMsg.String() {
	case keys.Up, "k":
		c.move(-1)
	case keys.Down, "j":
		c.move(1)
	case keys.PgUp:
		c.move(-c.visibleRows())
	case keys.PgDown:
		c.move(c.visibleRows())
	case keys.Home:
		c.selectedIdx = 0
		c.ensureVisible()
	case keys.End:
		c.selectedIdx = len(c.users) - 1
		c.ensureVisible()
	}
	return c, nil
}

func (c *Contacts) move(delta int) {
	c.selectedIdx += delta
	if c.selectedIdx < 0 {
		c.selectedIdx = 0
	}
	if c.selectedIdx >= len(c.users) {
		c.selectedIdx = len(c.users) - 1
	}
	c.ensureVisible()
}

// visibleRows is how many contacts fit inside the border
func (c *Contacts) visibleRows() int {
	rows := GetViewContext().InnerHeight(c.height)
	return max(rows, 1)
}

// ensureVisible scrolls so the selected row is on screen
func (c *Contacts) ensureVisible() {
	rows := c.visibleRows()
	if c.selectedIdx < c.scrollOffset {
		c.scrollOffset = c.selectedIdx
	}
	if c.selectedIdx >= c.scrollOffset+rows {
		c.scrollOffset = c.selectedIdx - rows + 1
	}
	if c.scrollOffset < 0 {
		c.scrollOffset = 0
	}
}

// renderRow draws one contact: name and handle on the left, unread badge on
// the right.
func (c *Contacts) renderRow(u chat.User, selected bool, width int) string {
	badge := ""
	if n := c.unread[u.ID]; n > 0 {
		label := fmt.Sprint(n)
		if n > 99 {
			label = "99+"
		}
		badge = BadgeStyle.Render(label)
	}

	style := ContactItemStyle
	prefix := "  "
	if selected && c.focused {
		style = ContactSelectedStyle
		prefix = "> "
	}

	// Padding(0, 1) on the row style takes two columns.
	textWidth := width - 2 - lipgloss.Width(badge)
	name := prefix + u.DisplayName()
	if u.Username != "" && u.Username != u.DisplayName() {
		name += " " + ContactHandleStyle.Render(u.Handle())
	}
	name = ansi.Truncate(name, max(textWidth-1, 1), "…")

	gap := textWidth - lipgloss.Width(name)
	if gap < 1 {
		gap = 1
	}
	return style.Render(name + strings.Repeat(" ", gap) + badge)
}

// View renders the contact list inside a titled panel
func (c *Contacts) View() string {
	ctx := GetViewContext()
	innerWidth := ctx.InnerWidth(c.width)
	innerHeight := ctx.InnerHeight(c.height)

	var body string
	switch {
	case c.loading:
		body = EmptyStateStyle.Render("Loading contacts…")
	case len(c.users) == 0:
		body = EmptyStateStyle.Render("No contacts yet")
	default:
		end := min(c.scrollOffset+innerHeight, len(c.users))
		rows := make([]string, 0, end-c.scrollOffset)
		for i := c.scrollOffset; i < end; i++ {
			rows = append(rows, c.renderRow(c.users[i], i == c.selectedIdx, innerWidth))
		}
		body = strings.Join(rows, "\n")
	}

	style := PanelStyle
	if c.focused {
		style = PanelFocusedStyle
	}
	return style.
		Width(c.width).
		Height(c.height).
		Render(body)
}
