// Package modals holds the states a ui.Modal can show: the blocking alert and
// the login and register forms.
package modals

import (
	tea "charm.land/bubbletea/v2"
)

// ModalState is what a modal is currently showing. The unexported marker
// keeps the set of states inside this package.
type ModalState interface {
	modalState()
	Title() string
	Help() string
	Render() string
	Update(msg tea.Msg) (ModalState, tea.Cmd)
}
