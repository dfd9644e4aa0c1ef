// Package chat holds the records exchanged with the chat server: users,
// messages and the identity pair a conversation is scoped to.
package chat

import (
	"errors"
	"strings"

	perrors "github.com/zhubert/pischat/internal/errors"
)

// ErrInvalidPair is returned when a conversation is opened with an empty id
// or with the viewer talking to themselves.
var ErrInvalidPair = errors.New("invalid identity pair")

// User is an account as returned by the directory service.
type User struct {
	ID       string `json:"user_uuid"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// DisplayName returns the name, falling back to the username.
func (u User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Username
}

// Handle returns "@username".
func (u User) Handle() string {
	return "@" + u.Username
}

// Message is one chat record as the server delivers it. Datetime is kept
// raw; consumers parse it and must tolerate garbage.
type Message struct {
	ID          string `json:"chat_uuid"`
	SenderID    string `json:"user_from_uuid"`
	RecipientID string `json:"user_to_uuid"`
	Body        string `json:"message"`
	Datetime    string `json:"datetime"`
	Read        bool   `json:"read"`
}

// IdentityPair scopes a conversation: the local viewer and the remote peer.
type IdentityPair struct {
	ViewerID string
	PeerID   string
}

// NewIdentityPair builds and validates a pair.
func NewIdentityPair(viewerID, peerID string) (IdentityPair, error) {
	p := IdentityPair{ViewerID: viewerID, PeerID: peerID}
	if err := p.Validate(); err != nil {
		return IdentityPair{}, err
	}
	return p, nil
}

// Validate rejects empty ids and self-conversations.
func (p IdentityPair) Validate() error {
	const op = perrors.Op("chat.IdentityPair.Validate")
	switch {
	case strings.TrimSpace(p.ViewerID) == "":
		return perrors.E(op, perrors.KindInvalid, "viewer id is empty", ErrInvalidPair)
	case strings.TrimSpace(p.PeerID) == "":
		return perrors.E(op, perrors.KindInvalid, "peer id is empty", ErrInvalidPair)
	case p.ViewerID == p.PeerID:
		return perrors.E(op, perrors.KindInvalid, "viewer and peer are the same user", ErrInvalidPair)
	}
	return nil
}

// Involves reports whether m belongs to the conversation between the pair.
func (p IdentityPair) Involves(m Message) bool {
	return (m.SenderID == p.ViewerID && m.RecipientID == p.PeerID) ||
		(m.SenderID == p.PeerID && m.RecipientID == p.ViewerID)
}
