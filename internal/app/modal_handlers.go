package app

import (
	"errors"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/directory"
	perrors "github.com/zhubert/pischat/internal/errors"
	"github.com/zhubert/pischat/internal/keys"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/ui/modals"
)

// userMessage turns an error into text for an alert. Validation errors show
// their reason and directory errors the server's message.
func userMessage(err error) string {
	if de, ok := directory.AsError(err); ok && de.Message != "" {
		return de.Message
	}
	var pe *perrors.Error
	if errors.As(err, &pe) && pe.Kind == perrors.KindInvalid && pe.Context == "" && pe.Err != nil {
		return pe.Err.Error()
	}
	return err.Error()
}

// showAlert opens a blocking alert. then runs once it is dismissed.
func (m *Model) showAlert(title, message string, then func() tea.Cmd) {
	m.alert.Show(modals.NewAlertState(title, message))
	m.afterAlert = then
}

// showError opens a blocking error alert for err.
func (m *Model) showError(title string, err error) {
	m.alert.Show(modals.NewErrorAlertState(title, userMessage(err)))
	m.afterAlert = nil
}

// handleAlertKey dismisses the alert on Enter or Escape and swallows
// everything else.
func (m *Model) handleAlertKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keys.Enter, keys.Escape:
		m.alert.Hide()
		next := m.afterAlert
		m.afterAlert = nil
		if next != nil {
			return m, next()
		}
	}
	return m, nil
}

func (m *Model) showLogin(username string) {
	m.screen = ScreenLogin
	m.form.Show(modals.NewLoginState(username))
}

func (m *Model) showRegister() {
	m.screen = ScreenRegister
	m.form.Show(modals.NewRegisterState())
}

// handleAuthKey drives the login and register forms.
func (m *Model) handleAuthKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.authBusy() {
		return m, nil
	}

	switch msg.String() {
	case keys.SwitchAuthForm:
		if m.screen == ScreenLogin {
			m.showRegister()
		} else {
			m.showLogin("")
		}
		return m, nil
	case keys.Escape:
		if m.screen == ScreenRegister {
			m.showLogin("")
		}
		return m, nil
	case keys.Enter:
		return m.submitAuth()
	}

	var cmd tea.Cmd
	m.form, cmd = m.form.Update(msg)
	return m, cmd
}

func (m *Model) authBusy() bool {
	switch s := m.form.State.(type) {
	case *modals.LoginState:
		return s.Busy
	case *modals.RegisterState:
		return s.Busy
	}
	return false
}

func (m *Model) submitAuth() (tea.Model, tea.Cmd) {
	switch s := m.form.State.(type) {
	case *modals.LoginState:
		creds := s.Credentials()
		if err := creds.Validate(); err != nil {
			m.showError("Warning!", err)
			return m, nil
		}
		s.Busy = true
		logger.Info("App: logging in as %s", creds.Username)
		return m, m.loginCmd(creds)

	case *modals.RegisterState:
		reg := s.Registration()
		if err := reg.Validate(); err != nil {
			m.showError("Warning!", err)
			return m, nil
		}
		s.Busy = true
		logger.Info("App: registering %s", reg.Username)
		return m, m.registerCmd(reg)
	}
	return m, nil
}

// handleAuthResult persists a successful login and moves to the contact
// list once the server's message has been acknowledged.
func (m *Model) handleAuthResult(msg AuthResultMsg) (tea.Model, tea.Cmd) {
	title := "Login failed"
	if msg.Register {
		title = "Registration failed"
	}

	switch s := m.form.State.(type) {
	case *modals.LoginState:
		s.Busy = false
		if msg.Err != nil {
			s.ClearPassword()
		}
	case *modals.RegisterState:
		s.Busy = false
		if msg.Err != nil {
			s.ClearPasswords()
		}
	}

	if msg.Err != nil {
		logger.Warn("App: %s: %v", title, msg.Err)
		m.showError(title, msg.Err)
		return m, nil
	}
	if msg.Result == nil {
		return m, nil
	}

	user := msg.Result.User
	if err := m.deps.Store.SetCurrentUser(user); err != nil {
		logger.Error("App: saving user: %v", err)
		m.showError("Could not save login", err)
		return m, nil
	}

	text := msg.Result.Message
	if text == "" {
		text = directory.LoginSuccess
		if msg.Register {
			text = directory.RegisterSuccess
		}
	}
	m.showAlert("Message", text, func() tea.Cmd {
		return m.enterContacts(user)
	})
	return m, nil
}

// enterContacts leaves the auth screens for the contact list of user.
func (m *Model) enterContacts(user chat.User) tea.Cmd {
	m.form.Hide()
	m.setViewer(user)
	m.screen = ScreenContacts
	m.contacts.SetFocused(true)
	m.contacts.SetLoading(true)
	return m.fetchContacts(user.ID)
}
