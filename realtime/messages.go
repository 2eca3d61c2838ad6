// Package realtime implements the client side of the OpenAI Realtime
// websocket protocol, limited to what a phone bridge needs: session
// configuration, input buffer append/commit, response creation, and the
// server event stream.
package realtime

import "fmt"

// DefaultURL is the Realtime websocket endpoint. The model is passed as a
// query parameter.
const DefaultURL = "wss://api.openai.com/v1/realtime"

// AudioFormatG711Ulaw is the narrowband telephony format used on both the
// input and output legs, so no transcoding happens anywhere in the bridge.
const AudioFormatG711Ulaw = "g711_ulaw"

// Server event types the bridge reacts to.
const (
	EventTypeSessionCreated  = "session.created"
	EventTypeSessionUpdated  = "session.updated"
	EventTypeAudioDelta      = "response.audio.delta"
	EventTypeTranscriptDelta = "response.audio_transcript.delta"
	EventTypeTextDelta       = "response.text.delta"
	EventTypeResponseDone    = "response.done"
	EventTypeError           = "error"
)

// SessionConfig is the payload of the single session.update sent after the
// socket opens. It pins the codec for both directions and carries the
// behavior directive.
type SessionConfig struct {
	Modalities        []string `json:"modalities,omitempty"`
	Instructions      string   `json:"instructions,omitempty"`
	Voice             string   `json:"voice,omitempty"`
	InputAudioFormat  string   `json:"input_audio_format,omitempty"`
	OutputAudioFormat string   `json:"output_audio_format,omitempty"`
}

// Client-to-server events.

type sessionUpdateEvent struct {
	Type    string        `json:"type"`
	Session SessionConfig `json:"session"`
}

type appendEvent struct {
	Type string `json:"type"`
	// Audio is the bare base64 payload string; the format was declared
	// once in session.update.
	Audio string `json:"audio"`
}

type commitEvent struct {
	Type string `json:"type"`
}

type responseCreateEvent struct {
	Type string `json:"type"`
}

// ServerEvent is one decoded server-to-client event. Delta carries the
// payload for audio (base64) and text deltas; Error is set for "error"
// events.
type ServerEvent struct {
	Type    string    `json:"type"`
	EventID string    `json:"event_id,omitempty"`
	Delta   string    `json:"delta,omitempty"`
	Error   *APIError `json:"error,omitempty"`
}

// APIError is an application-level error reported by the service inside a
// valid envelope. These are never fatal to the call.
type APIError struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("realtime error %s: %s", e.Code, e.Message)
}
