// Package sink defines the recipient-channel boundary (§6): what the core
// requires of anything it dispatches notices to. Concrete transports
// (push, chat, SMS, whatever a deployment wires up) live outside this
// module; only the interface and a debug in-process implementation do.
package sink

import "github.com/quakewatch/quakewatch/internal/models"

// ThreadID is the opaque handle a Sink returns from Send, used later to
// edit a message in place via Redact.
type ThreadID string

// Style names how a Sink wants its body text formatted.
type Style string

const (
	StyleShort   Style = "short"
	StyleLong    Style = "long"
	StyleHuman   Style = "human"
	StyleMachine Style = "machine"
	StyleFixed   Style = "fixed"
)

// Sink is what the core requires of each recipient (§6). Sinks own their
// own output throttling; the core calls Send whenever a domain match and
// relevance check both pass.
type Sink interface {
	Send(title, body string, coords models.Coords, tag string, pings []string, urgent bool) (ThreadID, error)
	Redact(thread ThreadID, tag string) error

	Style() Style
	ThrottleSeconds() int
	Markers() (bold, italic, underline string)
	AcceptsColors() bool
	Priority() int
}

// Debug is an in-process Sink that records every call, useful for tests
// and the debug broadcast endpoint.
type Debug struct {
	Sent []DebugMessage
}

type DebugMessage struct {
	Title, Body string
	Coords      models.Coords
	Tag         string
	Pings       []string
	Urgent      bool
}

func NewDebug() *Debug { return &Debug{} }

func (d *Debug) Send(title, body string, coords models.Coords, tag string, pings []string, urgent bool) (ThreadID, error) {
	d.Sent = append(d.Sent, DebugMessage{title, body, coords, tag, pings, urgent})
	return ThreadID(tag), nil
}

func (d *Debug) Redact(thread ThreadID, tag string) error { return nil }

func (d *Debug) Style() Style             { return StyleHuman }
func (d *Debug) ThrottleSeconds() int     { return 0 }
func (d *Debug) Markers() (string, string, string) { return "**", "_", "__" }
func (d *Debug) AcceptsColors() bool      { return false }
func (d *Debug) Priority() int            { return 0 }
