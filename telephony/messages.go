// Package telephony implements the Twilio Media Streams wire protocol:
// the JSON envelope carried over the per-call websocket and a connection
// wrapper with serialized writes and idempotent close.
package telephony

import (
	"encoding/json"
	"errors"
)

// Media Streams event names.
const (
	EventConnected = "connected"
	EventStart     = "start"
	EventMedia     = "media"
	EventMark      = "mark"
	EventStop      = "stop"
	EventDTMF      = "dtmf"
)

// ErrMalformed reports an inbound frame that is not a valid Media Streams
// envelope. Callers log and skip the frame; it is never fatal.
var ErrMalformed = errors.New("telephony: malformed media stream message")

// Message is the inbound Media Streams envelope. Exactly one of the
// event-specific fields is populated, according to Event.
type Message struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *StartPayload `json:"start,omitempty"`
	Media     *MediaPayload `json:"media,omitempty"`
	Mark      *MarkPayload  `json:"mark,omitempty"`
	Stop      *StopPayload  `json:"stop,omitempty"`
	DTMF      *DTMFPayload  `json:"dtmf,omitempty"`
}

// StartPayload accompanies the "start" event, delivered once when Twilio
// begins streaming. StreamSID is the call handle used to address all
// outbound audio.
type StartPayload struct {
	StreamSID    string            `json:"streamSid"`
	AccountSID   string            `json:"accountSid"`
	CallSID      string            `json:"callSid"`
	Tracks       []string          `json:"tracks"`
	MediaFormat  MediaFormat       `json:"mediaFormat"`
	CustomParams map[string]string `json:"customParameters"`
}

// MediaFormat describes the audio encoding of the stream.
type MediaFormat struct {
	Encoding   string `json:"encoding"`
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
}

// MediaPayload carries one base64-encoded μ-law audio fragment.
type MediaPayload struct {
	Track     string `json:"track"`
	Chunk     string `json:"chunk"`
	Timestamp string `json:"timestamp"`
	Payload   string `json:"payload"`
}

// MarkPayload accompanies playback-position "mark" events.
type MarkPayload struct {
	Name string `json:"name"`
}

// StopPayload accompanies the "stop" event.
type StopPayload struct {
	AccountSID string `json:"accountSid"`
	CallSID    string `json:"callSid"`
}

// DTMFPayload carries a single keypad digit.
type DTMFPayload struct {
	Digit string `json:"digit"`
}

// Decode parses one inbound websocket frame into a Message.
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, ErrMalformed
	}
	if msg.Event == "" {
		return nil, ErrMalformed
	}
	return &msg, nil
}

// Outbound envelopes. Twilio addresses these by stream SID.

type outboundMedia struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid"`
	Media     outboundAudio `json:"media"`
}

type outboundAudio struct {
	Payload string `json:"payload"`
}

type outboundMark struct {
	Event     string       `json:"event"`
	StreamSID string       `json:"streamSid"`
	Mark      outboundName `json:"mark"`
}

type outboundName struct {
	Name string `json:"name"`
}

type outboundClear struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}
