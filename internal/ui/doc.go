// Package ui provides the user interface components for the pischat TUI.
//
// # Layout System
//
//	┌─────────────────────────────────────────────────────┐
//	│ Header (1 line): app name, peer, online status      │
//	├─────────────────────────────────────────────────────┤
//	│                                                     │
//	│   Contacts list  or  Conversation panel             │
//	│                                                     │
//	├─────────────────────────────────────────────────────┤
//	│ Footer (1 line): bindings for the current screen    │
//	└─────────────────────────────────────────────────────┘
//
// Login, registration and alerts render as modals centered over the screen.
//
// # Components
//
// ViewContext: Singleton that owns terminal dimensions. All size calculations
// should go through it.
//
// Contacts: The users the viewer can talk to, recent peers first, with an
// unread badge per contact.
//
// Conversation: A viewport of date separators and message bubbles above a
// textarea. The viewer's bubbles sit on the right with a sent or read mark.
//
// Modal: Container for a modals.ModalState. The app layer decides what Enter
// and Escape mean; the state only edits its own fields.
//
// # Styles
//
// Styles are rebuilt from the active Theme by SetTheme, which also pushes
// the palette into the modals package.
package ui
