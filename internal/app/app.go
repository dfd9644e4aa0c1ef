package app

import (
	"context"

	tea "charm.land/bubbletea/v2"
	"github.com/hashicorp/go-multierror"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/clipboard"
	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/coordinator"
	"github.com/zhubert/pischat/internal/directory"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/ui"
)

// Screen is the page the app is showing.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenRegister
	ScreenContacts
	ScreenConversation
)

// String returns a human-readable name for the screen
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "Login"
	case ScreenRegister:
		return "Register"
	case ScreenContacts:
		return "Contacts"
	case ScreenConversation:
		return "Conversation"
	default:
		return "Unknown"
	}
}

// Directory is the remote auth and contact service.
type Directory interface {
	Login(ctx context.Context, creds directory.Credentials) (*directory.AuthResult, error)
	Register(ctx context.Context, reg directory.Registration) (*directory.AuthResult, error)
	Contacts(ctx context.Context, viewerID string) ([]chat.User, error)
}

// IdentityStore keeps the logged-in user between runs.
type IdentityStore interface {
	CurrentUser() (*chat.User, error)
	SetCurrentUser(u chat.User) error
	ClearCurrentUser() error
	Close() error
}

// Conversations opens and closes the live conversation.
type Conversations interface {
	Enter(ctx context.Context, viewer, peer chat.User) error
	Send(body string) error
	Exit() error
	Updates() <-chan coordinator.View
}

// Deps are the collaborators the app drives.
type Deps struct {
	Directory     Directory
	Store         IdentityStore
	Conversations Conversations
	// CopyText writes to the system clipboard. Nil uses the real clipboard.
	CopyText func(text string) error
}

// Model is the main Bubble Tea model
type Model struct {
	config  *config.Config
	version string
	deps    Deps
	gate    *conversationGate

	header       *ui.Header
	footer       *ui.Footer
	contacts     *ui.Contacts
	conversation *ui.Conversation
	form         *ui.Modal
	alert        *ui.Modal

	width  int
	height int
	screen Screen

	viewer *chat.User
	peer   *chat.User

	// afterAlert runs when the visible alert is dismissed.
	afterAlert func() tea.Cmd
	flashID    int
}

// New creates the app model. A user saved by an earlier run skips the login
// screen.
func New(cfg *config.Config, version string, deps Deps) *Model {
	if savedTheme := cfg.GetTheme(); savedTheme != "" {
		ui.SetThemeByName(savedTheme)
	}

	if deps.CopyText == nil {
		deps.CopyText = clipboard.WriteText
	}

	m := &Model{
		config:       cfg,
		version:      version,
		deps:         deps,
		gate:         newConversationGate(deps.Conversations),
		header:       ui.NewHeader(),
		footer:       ui.NewFooter(),
		contacts:     ui.NewContacts(),
		conversation: ui.NewConversation(),
		form:         ui.NewModal(),
		alert:        ui.NewModal(),
	}
	m.footer.SetNotifications(cfg.GetNotificationsEnabled())

	user, err := deps.Store.CurrentUser()
	if err != nil {
		logger.Warn("App: reading saved user: %v", err)
	}
	if user != nil {
		m.setViewer(*user)
		m.screen = ScreenContacts
		m.contacts.SetLoading(true)
	} else {
		m.showLogin("")
	}
	return m
}

// Init starts listening for conversation views and, when a user is already
// logged in, loads the contact list.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.waitForView()}
	if m.viewer != nil {
		cmds = append(cmds, m.fetchContacts(m.viewer.ID))
	}
	return tea.Batch(cmds...)
}

// Close leaves any open conversation and closes the local store.
func (m *Model) Close() error {
	var result *multierror.Error
	if err := m.gate.shutdown(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := m.deps.Store.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	return result.ErrorOrNil()
}

// Screen returns the current screen
func (m *Model) Screen() Screen {
	return m.screen
}

// Viewer returns the logged-in user, if any
func (m *Model) Viewer() (chat.User, bool) {
	if m.viewer == nil {
		return chat.User{}, false
	}
	return *m.viewer, true
}

// Peer returns the user on the other end of the open conversation, if any
func (m *Model) Peer() (chat.User, bool) {
	if m.peer == nil {
		return chat.User{}, false
	}
	return *m.peer, true
}

func (m *Model) setViewer(u chat.User) {
	m.viewer = &u
	m.header.SetViewer(u.Handle())
	logger.Info("App: viewer is %s (%s)", u.Username, u.ID)
}

func (m *Model) updateSizes() {
	ctx := ui.GetViewContext()
	ctx.UpdateTerminalSize(m.width, m.height)

	m.header.SetWidth(ctx.TerminalWidth)
	m.footer.SetWidth(ctx.TerminalWidth)
	m.contacts.SetSize(ctx.ContentWidth, ctx.ContentHeight)
	m.conversation.SetSize(ctx.ContentWidth, ctx.ContentHeight)
}
