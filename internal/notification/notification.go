// Package notification provides cross-platform desktop notifications.
// It uses the beeep library to send notifications on macOS, Linux, and Windows.
package notification

import (
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/gen2brain/beeep"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/logger"
)

// AppName is the title used when a notification has no sender.
const AppName = "PisChat"

// MaxPreviewWidth bounds the message preview shown in a notification.
const MaxPreviewWidth = 120

var (
	mu     sync.RWMutex
	notify = beeep.Notify
)

// SetNotifier replaces the function used to show notifications. Tests use it
// to avoid real desktop popups.
func SetNotifier(fn func(title, message string, icon any) error) {
	mu.Lock()
	defer mu.Unlock()
	notify = fn
}

// ResetNotifier restores the beeep notifier.
func ResetNotifier() {
	SetNotifier(beeep.Notify)
}

// Send sends a desktop notification with the given title and message.
func Send(title, message string) error {
	mu.RLock()
	fn := notify
	mu.RUnlock()

	log := logger.WithComponent("notification")
	log.Debug("sending notification", "title", title)
	// Empty icon lets beeep pick the platform default.
	err := fn(title, message, "")
	if err != nil {
		log.Warn("failed to send notification", "error", err)
	}
	return err
}

// Preview flattens a message body to one line no wider than
// MaxPreviewWidth cells.
func Preview(body string) string {
	line := strings.Join(strings.Fields(body), " ")
	return ansi.Truncate(line, MaxPreviewWidth, "…")
}

// Desktop notifies about new peer messages while enabled reports true.
type Desktop struct {
	enabled func() bool
}

// NewDesktop returns a Desktop notifier. A nil enabled func means always on.
func NewDesktop(enabled func() bool) *Desktop {
	return &Desktop{enabled: enabled}
}

// NewMessage shows m as coming from the given user.
func (d *Desktop) NewMessage(from chat.User, m chat.Message) error {
	if d.enabled != nil && !d.enabled() {
		return nil
	}
	title := from.DisplayName()
	if title == "" {
		title = AppName
	}
	return Send(title, Preview(m.Body))
}
