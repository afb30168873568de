// Package stroke relays shared-canvas pointer events between participants.
//
// The relay is stateless. Start and draw segments are stamped with the
// sender's connection id and forwarded to everyone else; stop carries only
// the id; clear reaches every participant, the sender included.
package stroke

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Wire names of the canvas events. Inbound and outbound names are identical.
const (
	EventStart = "drawing:start"
	EventDraw  = "drawing:draw"
	EventStop  = "drawing:stop"
	EventClear = "drawing:clear"
)

var (
	ErrMalformed    = errors.New("malformed stroke payload")
	ErrUnknownEvent = errors.New("unknown stroke event")
)

// Audience selects who receives a relayed event.
type Audience int

const (
	// Others is every connection except the sender.
	Others Audience = iota
	// Everyone includes the sender.
	Everyone
)

// Segment is one point of a stroke in canvas coordinates.
type Segment struct {
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Color   string  `json:"color"`
	UserID  string  `json:"userId"`
}

// Stop ends the sender's current stroke.
type Stop struct {
	UserID string `json:"userId"`
}

// Outbound is a relay instruction for the transport.
type Outbound struct {
	Event    string
	Data     any
	Audience Audience
}

type segmentPayload struct {
	OffsetX *float64 `json:"offsetX"`
	OffsetY *float64 `json:"offsetY"`
	Color   string   `json:"color"`
}

// IsStrokeEvent reports whether event belongs to the canvas.
func IsStrokeEvent(event string) bool {
	switch event {
	case EventStart, EventDraw, EventStop, EventClear:
		return true
	}
	return false
}

// Relay turns an inbound canvas event into the event to rebroadcast. Any id
// the client put in the payload is overwritten with sender.
func Relay(event, sender string, payload json.RawMessage) (Outbound, error) {
	switch event {
	case EventStart, EventDraw:
		seg, err := decodeSegment(payload)
		if err != nil {
			return Outbound{}, err
		}
		seg.UserID = sender
		return Outbound{Event: event, Data: seg, Audience: Others}, nil

	case EventStop:
		return Outbound{Event: EventStop, Data: Stop{UserID: sender}, Audience: Others}, nil

	case EventClear:
		return Outbound{Event: EventClear, Audience: Everyone}, nil
	}

	return Outbound{}, fmt.Errorf("%w: %s", ErrUnknownEvent, event)
}

func decodeSegment(payload json.RawMessage) (Segment, error) {
	if len(payload) == 0 {
		return Segment{}, ErrMalformed
	}

	var p segmentPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Segment{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if p.OffsetX == nil || p.OffsetY == nil {
		return Segment{}, fmt.Errorf("%w: missing coordinates", ErrMalformed)
	}

	return Segment{OffsetX: *p.OffsetX, OffsetY: *p.OffsetY, Color: p.Color}, nil
}
