// Package voxlead bridges inbound Twilio Media Streams calls to OpenAI
// Realtime voice sessions so a caller can talk to an AI phone agent that
// captures a structured service lead.
//
// The moving parts:
//   - telephony: Twilio Media Streams envelope codec and socket wrapper
//   - realtime: OpenAI Realtime websocket client
//   - bridge: the per-call session bridge (state machine, pacing, lifecycle)
//   - lead: marker-line extraction of the captured lead record
//
// # Environment Variables
//
//	VOXLEAD_OPENAI_API_KEY - OpenAI API key (required)
//	VOXLEAD_OPENAI_MODEL   - Realtime model identifier (required)
//
// # Quick Start
//
//	import "github.com/voxlead/voxlead/bridge"
//
//	b := bridge.New(telConn, dialer, sink,
//	    bridge.WithInstructions(bridge.BuildInstructions("")),
//	)
//	b.Run(ctx)
package voxlead

// Version is the module version.
const Version = "0.1.0"

// Audio format constants shared by both legs of a call.
const (
	// AudioEncodingMulaw is the μ-law encoding (8-bit, 8kHz) Twilio
	// Media Streams delivers and accepts.
	AudioEncodingMulaw = "audio/x-mulaw"

	// DefaultSampleRate is the sample rate for narrowband telephony audio.
	DefaultSampleRate = 8000

	// FrameDurationMs is the duration of one Twilio media frame.
	FrameDurationMs = 20

	// DefaultCommitFrames is how many inbound frames are buffered before
	// the bridge commits them to the AI session (~100ms of audio).
	DefaultCommitFrames = 5
)
