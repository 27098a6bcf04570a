package session

import (
	"strings"
	"time"
)

// Roles used on Content.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Part is a single piece of a message: either text or a binary payload.
type Part struct {
	Text string

	Name     string
	MIMEType string
	Data     []byte
}

// IsBinary reports whether the part carries inline data.
func (p Part) IsBinary() bool {
	return len(p.Data) > 0 || p.MIMEType != ""
}

// Content is a role-tagged multi-part message.
type Content struct {
	Role  string
	Parts []Part
}

// Text joins the text parts of the content.
func (c *Content) Text() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		if p.IsBinary() {
			continue
		}
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// Event is one step emitted by a run. Partial events carry streamed deltas;
// the terminal event carries the complete response.
type Event struct {
	ID           string
	InvocationID string
	Author       string
	Content      *Content
	Partial      bool
	TurnComplete bool
	Err          error
	Timestamp    time.Time
}

// IsFinalResponse reports whether the event ends the turn with a usable response.
func (e Event) IsFinalResponse() bool {
	return !e.Partial && e.TurnComplete && e.Err == nil
}
