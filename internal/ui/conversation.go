package ui

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/zhubert/pischat/internal/keys"
	"github.com/zhubert/pischat/internal/pipeline"
	"github.com/zhubert/pischat/internal/ui/modals"
)

// Read receipts shown under the viewer's own bubbles.
const (
	markSent = "✓"
	markRead = "✓✓"
)

// Conversation is the message list of one conversation and the input below
// it.
type Conversation struct {
	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	focused  bool
	items    []pipeline.Item
	hasPeer  bool
}

// NewConversation creates an empty conversation panel
func NewConversation() *Conversation {
	ti := textarea.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = MessageCharLimit
	ti.SetHeight(TextareaHeight)
	ti.ShowLineNumbers = false
	ti.Prompt = ""
	modals.ApplyTextareaStyles(&ti)

	vp := viewport.New()
	vp.MouseWheelEnabled = true
	vp.MouseWheelDelta = 3

	c := &Conversation{
		viewport: vp,
		input:    ti,
	}
	c.updateContent(true)
	return c
}

// SetSize sets the panel dimensions
func (c *Conversation) SetSize(width, height int) {
	c.width = width
	c.height = height

	ctx := GetViewContext()
	listHeight := height - InputTotalHeight

	c.viewport.SetWidth(ctx.InnerWidth(width))
	c.viewport.SetHeight(ctx.InnerHeight(listHeight))

	// Input width accounts for its own border and padding
	c.input.SetWidth(max(ctx.InnerWidth(width)-InputPaddingWidth, 1))

	c.updateContent(c.viewport.AtBottom())
}

// SetFocused sets the focus state
func (c *Conversation) SetFocused(focused bool) tea.Cmd {
	c.focused = focused
	if focused {
		return c.input.Focus()
	}
	c.input.Blur()
	return nil
}

// IsFocused returns the focus state
func (c *Conversation) IsFocused() bool {
	return c.focused
}

// RefreshStyles re-applies the current theme to the input and re-renders
// the message list.
func (c *Conversation) RefreshStyles() {
	modals.ApplyTextareaStyles(&c.input)
	c.updateContent(c.viewport.AtBottom())
}

// Open prepares the panel for a new conversation
func (c *Conversation) Open() {
	c.items = nil
	c.hasPeer = true
	c.input.Reset()
	c.updateContent(true)
}

// Close clears the panel
func (c *Conversation) Close() {
	c.items = nil
	c.hasPeer = false
	c.input.Reset()
	c.updateContent(true)
}

// SetItems replaces the rendered display sequence. The list keeps following
// new messages unless the user has scrolled up.
func (c *Conversation) SetItems(items []pipeline.Item) {
	follow := c.viewport.AtBottom() || len(c.items) == 0
	c.items = items
	c.updateContent(follow)
}

// Items returns the current display sequence
func (c *Conversation) Items() []pipeline.Item {
	return c.items
}

// GetInput returns the trimmed input text
func (c *Conversation) GetInput() string {
	return strings.TrimSpace(c.input.Value())
}

// SetInput replaces the input text
func (c *Conversation) SetInput(s string) {
	c.input.SetValue(s)
}

// ClearInput clears the input field
func (c *Conversation) ClearInput() {
	c.input.Reset()
}

func (c *Conversation) updateContent(follow bool) {
	width := c.viewport.Width()
	if width <= 0 {
		width = DefaultWrapWidth
	}

	var content string
	switch {
	case !c.hasPeer:
		content = EmptyStateStyle.Render("Pick a contact to start chatting.")
	case len(c.items) == 0:
		content = lipgloss.PlaceHorizontal(width, lipgloss.Center,
			EmptyStateStyle.Render("No messages yet. Say hi!"))
	default:
		content = RenderItems(c.items, width)
	}

	c.viewport.SetContent(content)
	if follow {
		c.viewport.GotoBottom()
	}
}

// RenderItems draws a display sequence at the given width: separators
// centered, the viewer's bubbles on the right and the peer's on the left.
func RenderItems(items []pipeline.Item, width int) string {
	bubbleWidth := GetViewContext().BubbleWidth(width)
	textWidth := max(bubbleWidth-BubbleChrome, 1)

	var blocks []string
	pipeline.Visit(items, pipeline.Visitor{
		Separator: func(s pipeline.DateSeparator) {
			blocks = append(blocks, lipgloss.PlaceHorizontal(width, lipgloss.Center, SeparatorStyle.Render(s.Label)))
		},
		Bubble: func(b pipeline.Bubble) {
			blocks = append(blocks, renderBubble(b, width, textWidth))
		},
	})
	return strings.Join(blocks, "\n")
}

func renderBubble(b pipeline.Bubble, width, textWidth int) string {
	body := ansi.Wrap(b.Message.Body, textWidth, " ")

	style := PeerBubbleStyle
	pos := lipgloss.Left
	meta := b.Time
	if b.Alignment == pipeline.AlignSelf {
		style = SelfBubbleStyle
		pos = lipgloss.Right
		mark := markSent
		if b.EffectiveRead {
			mark = markRead
		}
		meta += " " + ReadMarkStyle.Render(mark)
	}

	block := lipgloss.JoinVertical(pos, style.Render(body), BubbleMetaStyle.Render(meta))
	return lipgloss.PlaceHorizontal(width, pos, block)
}

// Update routes scroll keys to the message list and everything else to the
// input.
func (c *Conversation) Update(msg tea.Msg) (*Conversation, tea.Cmd) {
	if c.focused && c.hasPeer {
		if keyMsg, isKey := msg.(tea.KeyPressMsg); isKey {
			switch keyMsg.String() {
			case keys.PgUp, keys.PgDown, keys.Home, keys.End:
				var cmd tea.Cmd
				c.viewport, cmd = c.viewport.Update(msg)
				return c, cmd
			case keys.Newline:
				c.input.InsertString("\n")
				return c, nil
			}

			var cmd tea.Cmd
			c.input, cmd = c.input.Update(msg)
			return c, cmd
		}
	}

	// Mouse wheel and other non-key events scroll the list
	var cmd tea.Cmd
	c.viewport, cmd = c.viewport.Update(msg)
	return c, cmd
}

// View renders the panel
func (c *Conversation) View() string {
	panelStyle := PanelStyle
	if c.focused {
		panelStyle = PanelFocusedStyle
	}

	if !c.hasPeer {
		return panelStyle.Width(c.width).Height(c.height).Render(c.viewport.View())
	}

	listHeight := c.height - InputTotalHeight
	list := panelStyle.Width(c.width).Height(listHeight).Render(c.viewport.View())

	inputStyle := ChatInputStyle
	if c.focused {
		inputStyle = ChatInputFocused
	}
	inputArea := inputStyle.Width(c.width).Render(c.input.View())

	return lipgloss.JoinVertical(lipgloss.Left, list, inputArea)
}
