package app

import (
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/zhubert/pischat/internal/logger"
)

// FlashDuration is how long a footer flash stays up
const FlashDuration = 3 * time.Second

// ShowFlash displays text in the footer and returns the command that clears
// it. A newer flash outlives the timers of older ones.
func (m *Model) ShowFlash(text string) tea.Cmd {
	m.flashID++
	id := m.flashID
	m.footer.SetFlash(text)
	return tea.Tick(FlashDuration, func(time.Time) tea.Msg {
		return FlashClearMsg{ID: id}
	})
}

func (m *Model) clearFlash(id int) {
	if id == m.flashID {
		m.footer.SetFlash("")
	}
}

// saveConfigOrFlash saves the config, flashing the failure instead of
// interrupting the user with a modal.
func (m *Model) saveConfigOrFlash() tea.Cmd {
	if err := m.config.Save(); err != nil {
		logger.Error("App: saving config: %v", err)
		return m.ShowFlash("Failed to save config")
	}
	return nil
}
