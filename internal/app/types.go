package app

import (
	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/coordinator"
	"github.com/zhubert/pischat/internal/directory"
)

// AuthResultMsg is sent when a login or registration request completes
type AuthResultMsg struct {
	Register bool
	Result   *directory.AuthResult
	Err      error
}

// ContactsMsg is sent when the contact list has been fetched
type ContactsMsg struct {
	ViewerID string
	Users    []chat.User
	Err      error
}

// EnteredMsg is sent when the initial dial of a conversation finishes
type EnteredMsg struct {
	PeerID  string
	Skipped bool
	Err     error
}

// ExitedMsg is sent when a conversation has been closed in the background
type ExitedMsg struct {
	Err error
}

// SentMsg is sent after a message was handed to the conversation
type SentMsg struct {
	PeerID string
	Err    error
}

// ViewMsg carries a fresh view of the open conversation
type ViewMsg struct {
	View coordinator.View
}

// FlashClearMsg hides the footer flash it was scheduled for
type FlashClearMsg struct {
	ID int
}

// CopiedMsg reports the outcome of copying the transcript
type CopiedMsg struct {
	Lines int
	Err   error
}
