// Package pipeline converts a raw chat log into the sequence the message list
// renders: date separators interleaved with message bubbles that carry
// alignment and read-state hints for one viewer.
//
// Transform is pure. The server resends the whole log on every update, so the
// display is rebuilt from scratch each time and the same input always yields
// the same output.
package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/zhubert/pischat/internal/chat"
	"github.com/zhubert/pischat/internal/logger"
	"github.com/zhubert/pischat/internal/timefmt"
)

// Alignment says which side of the conversation a bubble sits on.
type Alignment int

const (
	// AlignPeer is a message written by the other participant.
	AlignPeer Alignment = iota
	// AlignSelf is a message written by the viewer.
	AlignSelf
)

func (a Alignment) String() string {
	if a == AlignSelf {
		return "self"
	}
	return "peer"
}

// Item is one entry of the display sequence. It is either a DateSeparator or
// a Bubble; the unexported marker keeps the set closed.
type Item interface {
	displayItem()
}

// DateSeparator introduces the first message of a calendar day.
type DateSeparator struct {
	Label string
}

// Bubble wraps a message with the fields derived for the viewer.
type Bubble struct {
	Message       chat.Message
	Date          string
	Time          string
	Alignment     Alignment
	EffectiveRead bool
}

func (DateSeparator) displayItem() {}
func (Bubble) displayItem()        {}

// Visitor handles each kind of Item.
type Visitor struct {
	Separator func(DateSeparator)
	Bubble    func(Bubble)
}

// Visit dispatches every item to the matching visitor func. Nil funcs are
// skipped.
func Visit(items []Item, v Visitor) {
	for _, item := range items {
		switch it := item.(type) {
		case DateSeparator:
			if v.Separator != nil {
				v.Separator(it)
			}
		case Bubble:
			if v.Bubble != nil {
				v.Bubble(it)
			}
		default:
			panic("pipeline: unknown display item")
		}
	}
}

// Pipeline holds the formatter used to label messages. It keeps no state
// between Transform calls.
type Pipeline struct {
	fmt *timefmt.Formatter
	log *slog.Logger
}

// New returns a Pipeline. A nil formatter means UTC with the default locale.
func New(f *timefmt.Formatter) *Pipeline {
	if f == nil {
		f = timefmt.New(nil)
	}
	return &Pipeline{fmt: f, log: logger.WithComponent("pipeline")}
}

// Transform builds the display sequence for viewerID. Records whose timestamp
// does not parse are logged and left out; the rest of the log still renders.
func (p *Pipeline) Transform(log []chat.Message, viewerID string) []Item {
	out := make([]Item, 0, len(log)+4)
	seen := make(map[string]struct{})

	for _, m := range log {
		ts, err := p.fmt.Parse(m.Datetime)
		if err != nil {
			p.log.Warn("skipping chat record with invalid datetime", "chat", m.ID, "datetime", m.Datetime, "error", err)
			continue
		}
		date, err := p.fmt.FormatDate(ts)
		if err != nil {
			p.log.Warn("skipping chat record", "chat", m.ID, "error", err)
			continue
		}
		clock, err := p.fmt.FormatTime(ts)
		if err != nil {
			p.log.Warn("skipping chat record", "chat", m.ID, "error", err)
			continue
		}

		if _, ok := seen[date]; !ok {
			seen[date] = struct{}{}
			out = append(out, DateSeparator{Label: date})
		}

		align := AlignPeer
		if m.SenderID == viewerID {
			align = AlignSelf
		}

		out = append(out, Bubble{
			Message:       m,
			Date:          date,
			Time:          clock,
			Alignment:     align,
			EffectiveRead: m.Read || m.RecipientID == viewerID,
		})
	}
	return out
}

// Stats summarizes a display sequence.
type Stats struct {
	Bubbles    int
	Separators int
	Sent       int // bubbles aligned to the viewer
	Received   int
	// UnreadBySelf counts received bubbles whose source record was unread
	// before rendering annotated it.
	UnreadBySelf int
	// LastPeerMessageID is the id of the last peer bubble, "" if none.
	LastPeerMessageID string
}

// Summarize counts the items of a display sequence.
func Summarize(items []Item) Stats {
	var s Stats
	Visit(items, Visitor{
		Separator: func(DateSeparator) { s.Separators++ },
		Bubble: func(b Bubble) {
			s.Bubbles++
			if b.Alignment == AlignSelf {
				s.Sent++
				return
			}
			s.Received++
			s.LastPeerMessageID = b.Message.ID
			if !b.Message.Read {
				s.UnreadBySelf++
			}
		},
	})
	return s
}

// Transcript renders a display sequence as plain text, one line per item.
// Bubbles from the viewer are labeled selfName and the rest peerName.
func Transcript(items []Item, selfName, peerName string) string {
	var b strings.Builder
	Visit(items, Visitor{
		Separator: func(s DateSeparator) {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "-- %s --\n", s.Label)
		},
		Bubble: func(m Bubble) {
			name := peerName
			if m.Alignment == AlignSelf {
				name = selfName
			}
			fmt.Fprintf(&b, "[%s] %s: %s\n", m.Time, name, m.Message.Body)
		},
	})
	return b.String()
}
