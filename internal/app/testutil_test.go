package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/config"
	"github.com/zhubert/pischat/internal/coordinator"
	"github.com/zhubert/pischat/internal/directory"
	"github.com/zhubert/pischat/internal/keys"
	"github.com/zhubert/pischat/internal/logger"
)

func TestMain(m *testing.M) {
	// Keep test runs out of the real log file
	logger.Reset()
	logger.Init(os.DevNull)

	code := m.Run()

	logger.Reset()
	os.Exit(code)
}

var (
	alice = chat.User{ID: "u-alice", Username: "alice", Name: "Alice"}
	bob   = chat.User{ID: "u-bob", Username: "bob", Name: "Bob"}
	carol = chat.User{ID: "u-carol", Username: "carol", Name: "Carol"}
)

type fakeDirectory struct {
	mu sync.Mutex

	authResult  *directory.AuthResult
	authErr     error
	contacts    []chat.User
	contactsErr error

	logins    []directory.Credentials
	registers []directory.Registration
}

func (d *fakeDirectory) Login(_ context.Context, creds directory.Credentials) (*directory.AuthResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logins = append(d.logins, creds)
	return d.authResult, d.authErr
}

func (d *fakeDirectory) Register(_ context.Context, reg directory.Registration) (*directory.AuthResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registers = append(d.registers, reg)
	return d.authResult, d.authErr
}

func (d *fakeDirectory) Contacts(_ context.Context, _ string) ([]chat.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.contacts, d.contactsErr
}

type fakeStore struct {
	mu       sync.Mutex
	user     *chat.User
	setErr   error
	clearErr error
	closeErr error
	closed   bool
}

func (s *fakeStore) CurrentUser() (*chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *fakeStore) SetCurrentUser(u chat.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.user = &u
	return nil
}

func (s *fakeStore) ClearCurrentUser() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clearErr != nil {
		return s.clearErr
	}
	s.user = nil
	return nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

type fakeConversations struct {
	mu sync.Mutex

	// block, when set, makes Enter wait for it or for ctx.
	block    chan struct{}
	enterErr error
	sendErr  error
	exitErr  error

	entered []string
	sent    []string
	exits   int

	updates chan coordinator.View
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{updates: make(chan coordinator.View, 1)}
}

func (c *fakeConversations) Enter(ctx context.Context, _, peer chat.User) error {
	c.mu.Lock()
	c.entered = append(c.entered, peer.ID)
	block := c.block
	err := c.enterErr
	c.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (c *fakeConversations) Send(body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, body)
	return nil
}

func (c *fakeConversations) Exit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exits++
	return c.exitErr
}

func (c *fakeConversations) Updates() <-chan coordinator.View {
	return c.updates
}

func (c *fakeConversations) exitCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exits
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type testDeps struct {
	dir   *fakeDirectory
	store *fakeStore
	conv  *fakeConversations
	clip  *fakeClipboard
}

func (d testDeps) deps() Deps {
	return Deps{Directory: d.dir, Store: d.store, Conversations: d.conv, CopyText: d.clip.copy}
}

func newTestDeps() testDeps {
	return testDeps{
		dir:   &fakeDirectory{},
		store: &fakeStore{},
		conv:  newFakeConversations(),
		clip:  &fakeClipboard{},
	}
}

// testConfig returns a config backed by a file in a temp dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFrom(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	return cfg
}

// testModelWithSize creates a sized model.
func testModelWithSize(t *testing.T, d testDeps, width, height int) *Model {
	t.Helper()
	m := New(testConfig(t), "0.0.0-test", d.deps())
	m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return m
}

// loggedInModel creates a model for alice with bob and carol loaded as
// contacts.
func loggedInModel(t *testing.T, d testDeps) *Model {
	t.Helper()
	d.store.user = &alice
	m := testModelWithSize(t, d, 120, 40)
	m.Update(ContactsMsg{ViewerID: alice.ID, Users: []chat.User{carol, bob, alice}})
	return m
}

// keyPress creates a tea.KeyPressMsg for the given key string.
func keyPress(key string) tea.KeyPressMsg {
	switch key {
	case keys.Enter:
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case keys.Escape:
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case keys.Up:
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case keys.Down:
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case keys.CtrlC:
		return tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl}
	case keys.CtrlL:
		return tea.KeyPressMsg{Code: 'l', Mod: tea.ModCtrl}
	case keys.CtrlN:
		return tea.KeyPressMsg{Code: 'n', Mod: tea.ModCtrl}
	case keys.CtrlR:
		return tea.KeyPressMsg{Code: 'r', Mod: tea.ModCtrl}
	case keys.CtrlT:
		return tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl}
	case keys.CtrlY:
		return tea.KeyPressMsg{Code: 'y', Mod: tea.ModCtrl}
	default:
		if len(key) == 1 {
			return tea.KeyPressMsg{Code: rune(key[0]), Text: key}
		}
		return tea.KeyPressMsg{Text: key}
	}
}
