package modals

import (
	tea "charm.land/bubbletea/v2"
	huh "charm.land/huh/v2"
	"charm.land/lipgloss/v2"

	"github.com/zhubert/pischat/internal/directory"
)

// =============================================================================
// LoginState - the login screen form
// =============================================================================

type LoginState struct {
	username string
	password string

	// Busy is set while the request is in flight.
	Busy bool

	form *huh.Form
}

func (*LoginState) modalState() {}

// NewLoginState creates the login form, optionally prefilled with a username.
func NewLoginState(username string) *LoginState {
	s := &LoginState{username: username}
	s.buildForm()
	return s
}

func (s *LoginState) buildForm() {
	s.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Username").
			CharLimit(ModalInputCharLimit).
			Value(&s.username),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			CharLimit(ModalInputCharLimit).
			Value(&s.password),
	)).
		WithTheme(ModalTheme()).
		WithShowHelp(false).
		WithWidth(ModalWidth - 10).
		WithLayout(huh.LayoutStack)

	initHuhForm(s.form)
}

func (s *LoginState) Title() string { return "Login" }

func (s *LoginState) Help() string {
	if s.Busy {
		return "Logging in..."
	}
	return "Tab: next field  Enter: login  ctrl+r: register"
}

func (s *LoginState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *LoginState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if s.Busy {
		return s, nil
	}
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	// Tabbing past the last field completes a huh form; start over with
	// the bound values intact.
	if s.form.State != huh.StateNormal {
		s.buildForm()
	}
	return s, cmd
}

// Credentials returns what the user typed.
func (s *LoginState) Credentials() directory.Credentials {
	return directory.Credentials{Username: s.username, Password: s.password}
}

// ClearPassword empties the password field after a failed attempt.
func (s *LoginState) ClearPassword() {
	s.password = ""
	s.buildForm()
}

// =============================================================================
// RegisterState - the registration screen form
// =============================================================================

type RegisterState struct {
	name     string
	username string
	password string
	repeat   string

	// Busy is set while the request is in flight.
	Busy bool

	form *huh.Form
}

func (*RegisterState) modalState() {}

// NewRegisterState creates an empty registration form.
func NewRegisterState() *RegisterState {
	s := &RegisterState{}
	s.buildForm()
	return s
}

func (s *RegisterState) buildForm() {
	s.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			CharLimit(ModalInputCharLimit).
			Value(&s.name),
		huh.NewInput().
			Title("Username").
			CharLimit(ModalInputCharLimit).
			Value(&s.username),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			CharLimit(ModalInputCharLimit).
			Value(&s.password),
		huh.NewInput().
			Title("Repeat password").
			EchoMode(huh.EchoModePassword).
			CharLimit(ModalInputCharLimit).
			Value(&s.repeat),
	)).
		WithTheme(ModalTheme()).
		WithShowHelp(false).
		WithWidth(ModalWidth - 10).
		WithLayout(huh.LayoutStack)

	initHuhForm(s.form)
}

func (s *RegisterState) Title() string { return "Register" }

func (s *RegisterState) Help() string {
	if s.Busy {
		return "Creating account..."
	}
	return "Tab: next field  Enter: register  ctrl+r: login"
}

func (s *RegisterState) Render() string {
	title := ModalTitleStyle.Render(s.Title())
	help := ModalHelpStyle.Render(s.Help())
	return lipgloss.JoinVertical(lipgloss.Left, title, s.form.View(), help)
}

func (s *RegisterState) Update(msg tea.Msg) (ModalState, tea.Cmd) {
	if s.Busy {
		return s, nil
	}
	var cmd tea.Cmd
	s.form, cmd = huhFormUpdate(s.form, msg)
	if s.form.State != huh.StateNormal {
		s.buildForm()
	}
	return s, cmd
}

// Registration returns what the user typed.
func (s *RegisterState) Registration() directory.Registration {
	return directory.Registration{
		Name:     s.name,
		Username: s.username,
		Password: s.password,
		Repeat:   s.repeat,
	}
}

// ClearPasswords empties both password fields after a failed attempt.
func (s *RegisterState) ClearPasswords() {
	s.password = ""
	s.repeat = ""
	s.buildForm()
}
