package modals

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"
)

func TestLoginState_Prefill(t *testing.T) {
	state := NewLoginState("alice")
	creds := state.Credentials()
	if creds.Username != "alice" {
		t.Errorf("Username = %q, want alice", creds.Username)
	}
	if creds.Password != "" {
		t.Errorf("Password = %q, want empty", creds.Password)
	}
}

func TestLoginState_ClearPassword(t *testing.T) {
	state := NewLoginState("alice")
	state.password = "secret"
	state.ClearPassword()

	creds := state.Credentials()
	if creds.Password != "" {
		t.Errorf("Password = %q after ClearPassword", creds.Password)
	}
	if creds.Username != "alice" {
		t.Errorf("Username = %q, should survive ClearPassword", creds.Username)
	}
}

func TestLoginState_Render(t *testing.T) {
	state := NewLoginState("")
	out := ansi.Strip(state.Render())
	for _, want := range []string{"Login", "Username", "Password"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q: %q", want, out)
		}
	}
}

func TestLoginState_Help(t *testing.T) {
	state := NewLoginState("")
	if !strings.Contains(state.Help(), "register") {
		t.Errorf("Help() = %q", state.Help())
	}
	state.Busy = true
	if state.Help() != "Logging in..." {
		t.Errorf("busy Help() = %q", state.Help())
	}
}

func TestLoginState_BusyIgnoresInput(t *testing.T) {
	state := NewLoginState("bob")
	state.Busy = true

	_, cmd := state.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if cmd != nil {
		t.Error("busy form should not produce commands")
	}
	if got := state.Credentials().Username; got != "bob" {
		t.Errorf("Username = %q, want bob", got)
	}
}

func TestLoginState_EnterAndEscapeAreLeftToCaller(t *testing.T) {
	state := NewLoginState("bob")
	for _, msg := range []tea.KeyPressMsg{
		{Code: tea.KeyEnter},
		{Code: tea.KeyEscape},
	} {
		next, cmd := state.Update(msg)
		if next != state {
			t.Errorf("%s: Update returned a different state", msg.String())
		}
		if cmd != nil {
			t.Errorf("%s: Update returned a command", msg.String())
		}
	}
}

func TestRegisterState_Registration(t *testing.T) {
	state := NewRegisterState()
	state.name = "Alice"
	state.username = "alice"
	state.password = "pw"
	state.repeat = "pw"

	reg := state.Registration()
	if reg.Name != "Alice" || reg.Username != "alice" || reg.Password != "pw" || reg.Repeat != "pw" {
		t.Errorf("Registration() = %+v", reg)
	}
	if err := reg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}

	state.ClearPasswords()
	reg = state.Registration()
	if reg.Password != "" || reg.Repeat != "" {
		t.Errorf("passwords not cleared: %+v", reg)
	}
	if reg.Username != "alice" {
		t.Errorf("Username = %q, should survive ClearPasswords", reg.Username)
	}
}

func TestRegisterState_Render(t *testing.T) {
	state := NewRegisterState()
	out := ansi.Strip(state.Render())
	for _, want := range []string{"Register", "Name", "Username", "Repeat password"} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q: %q", want, out)
		}
	}
}
