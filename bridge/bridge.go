// Package bridge relays audio between one Twilio Media Streams connection
// and one OpenAI Realtime session. Each accepted call gets its own Bridge;
// there is no cross-call state. The bridge owns both sockets, paces input
// commits, forwards output audio, watches the agent's text for the lead
// line, and hands the result to the persistence sink exactly once when the
// call ends.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/voxlead/voxlead"
	"github.com/voxlead/voxlead/lead"
	"github.com/voxlead/voxlead/realtime"
	"github.com/voxlead/voxlead/telephony"
)

// State is the AI leg's connection state.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Outcome tags how the call ended for the persisted record.
type Outcome string

const (
	// OutcomeCaptured means a lead line was seen and parsed.
	OutcomeCaptured Outcome = "captured"
	// OutcomeNoLead means the call completed without a lead line.
	OutcomeNoLead Outcome = "no_lead"
	// OutcomeAIUnavailable means the AI session never opened.
	OutcomeAIUnavailable Outcome = "ai_unavailable"
)

// CallResult is what the bridge hands to the sink when the call ends.
type CallResult struct {
	CallSID string
	Caller  string
	Outcome Outcome
	Record  lead.Record
}

// Sink persists one CallResult per terminated call. Appends must be atomic
// with respect to concurrent calls; failures are the sink's concern, the
// bridge never retries.
type Sink interface {
	Append(ctx context.Context, res CallResult) error
}

// TelephonyConn is the telephony leg as the bridge consumes it.
// *telephony.Conn implements it.
type TelephonyConn interface {
	Read() (*telephony.Message, error)
	SendMedia(streamSid, payload string) error
	Close() error
}

// AISession is the AI leg as the bridge consumes it. *realtime.Client
// implements it.
type AISession interface {
	UpdateSession(session realtime.SessionConfig) error
	AppendAudio(audio string) error
	CommitInput() error
	CreateResponse() error
	ReadEvent() (*realtime.ServerEvent, error)
	Close() error
}

// AIDialer opens the AI leg for one call.
type AIDialer func(ctx context.Context) (AISession, error)

// Verify the concrete legs satisfy the bridge-side interfaces.
var (
	_ TelephonyConn = (*telephony.Conn)(nil)
	_ AISession     = (*realtime.Client)(nil)
)

// Bridge relays one call. Construct with New, drive with Run; Run returns
// when both legs are down and the result has been handed to the sink.
type Bridge struct {
	tel  TelephonyConn
	dial AIDialer
	sink Sink

	logger       *slog.Logger
	instructions string
	voice        string
	commitFrames int

	mu           sync.Mutex
	state        State
	ai           AISession
	streamSid    string
	callSid      string
	caller       string
	greetingSent bool
	aiFailed     bool
	pace         pacer
	extractor    *lead.Extractor

	finishOnce sync.Once
}

// Option configures the Bridge.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	instructions string
	voice        string
	commitFrames int
}

// WithLogger sets the call-scoped logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithInstructions sets the session behavior directive.
func WithInstructions(instructions string) Option {
	return func(o *options) {
		o.instructions = instructions
	}
}

// WithVoice sets the agent voice.
func WithVoice(voice string) Option {
	return func(o *options) {
		o.voice = voice
	}
}

// WithCommitFrames overrides the commit cadence (frames per commit).
func WithCommitFrames(n int) Option {
	return func(o *options) {
		o.commitFrames = n
	}
}

// New creates a bridge for one accepted telephony connection.
func New(tel TelephonyConn, dial AIDialer, sink Sink, opts ...Option) *Bridge {
	cfg := &options{
		logger:       slog.Default(),
		instructions: BuildInstructions(""),
		voice:        "alloy",
		commitFrames: voxlead.DefaultCommitFrames,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Bridge{
		tel:          tel,
		dial:         dial,
		sink:         sink,
		logger:       cfg.logger,
		instructions: cfg.instructions,
		voice:        cfg.voice,
		commitFrames: cfg.commitFrames,
		state:        StateConnecting,
		pace:         newPacer(cfg.commitFrames),
		extractor:    lead.NewExtractor(),
	}
}

// Run drives the call to completion. It opens the AI leg, configures the
// session, then pumps both sockets until either side disconnects. The
// telephony leg is closed and the result persisted on every exit path.
func (b *Bridge) Run(ctx context.Context) {
	defer b.finish(ctx)

	ai, err := b.dial(ctx)
	if err != nil {
		// Call-fatal: the telephony leg is closed rather than left
		// open without an agent on the line.
		b.logger.Error("ai session unavailable", slog.String("error", err.Error()))
		b.mu.Lock()
		b.aiFailed = true
		b.mu.Unlock()
		return
	}

	session := realtime.SessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      b.instructions,
		Voice:             b.voice,
		InputAudioFormat:  realtime.AudioFormatG711Ulaw,
		OutputAudioFormat: realtime.AudioFormatG711Ulaw,
	}
	if err := ai.UpdateSession(session); err != nil {
		b.logger.Error("ai session configure failed", slog.String("error", err.Error()))
		_ = ai.Close()
		b.mu.Lock()
		b.aiFailed = true
		b.mu.Unlock()
		return
	}

	b.mu.Lock()
	b.ai = ai
	b.state = StateOpen
	b.mu.Unlock()

	b.logger.Info("ai session open")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.aiLoop(ai)
	}()

	b.telephonyLoop()

	// Telephony side is done; bring the AI leg down so aiLoop unblocks.
	b.finish(ctx)
	wg.Wait()
}

// telephonyLoop pumps the Twilio socket until stop or socket error.
func (b *Bridge) telephonyLoop() {
	for {
		msg, err := b.tel.Read()
		if err != nil {
			if errors.Is(err, telephony.ErrMalformed) {
				b.logger.Warn("dropping malformed telephony message")
				continue
			}
			b.logger.Info("telephony socket closed", slog.String("reason", err.Error()))
			return
		}

		switch msg.Event {
		case telephony.EventConnected:
			b.logger.Debug("telephony connected")

		case telephony.EventStart:
			if msg.Start != nil {
				b.handleStart(msg.Start)
			}

		case telephony.EventMedia:
			if msg.Media != nil && msg.Media.Payload != "" {
				b.handleMedia(msg.Media.Payload)
			}

		case telephony.EventStop:
			b.logger.Info("telephony stop received")
			return

		case telephony.EventMark, telephony.EventDTMF:
			// Not used by the bridge.

		default:
			b.logger.Debug("ignoring telephony event", slog.String("event", msg.Event))
		}
	}
}

// handleStart records the call handle and requests the opening utterance.
func (b *Bridge) handleStart(start *telephony.StartPayload) {
	b.mu.Lock()
	b.streamSid = start.StreamSID
	b.callSid = start.CallSID
	if from, ok := start.CustomParams["from"]; ok {
		b.caller = from
	}
	ai := b.ai
	wantGreeting := b.state == StateOpen && !b.greetingSent
	if wantGreeting {
		b.greetingSent = true
	}
	b.mu.Unlock()

	b.logger.Info("stream started",
		slog.String("stream_sid", start.StreamSID),
		slog.String("call_sid", start.CallSID),
	)

	if wantGreeting {
		b.requestGreeting(ai)
	}
}

// requestGreeting asks for the proactive opening utterance. The greeting
// is requested once locally; if the service still considers a generation
// active it answers with an error event, which is logged and ignored.
func (b *Bridge) requestGreeting(ai AISession) {
	if err := ai.CreateResponse(); err != nil {
		b.logger.Warn("greeting request failed", slog.String("error", err.Error()))
	}
}

// handleMedia appends one caller audio fragment and commits when due.
func (b *Bridge) handleMedia(payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		// No AI session to feed; frames are dropped, never queued.
		return
	}

	if err := b.ai.AppendAudio(payload); err != nil {
		b.logger.Warn("audio append failed", slog.String("error", err.Error()))
		return
	}
	if b.pace.observe() {
		b.commitLocked()
	}
}

// commitLocked flushes buffered input and requests a response. Callers
// hold b.mu. A commit never fires with an empty buffer; the generate
// request rides along only when new audio was actually committed.
func (b *Bridge) commitLocked() {
	if !b.pace.pending() {
		return
	}
	if err := b.ai.CommitInput(); err != nil {
		b.logger.Warn("input commit failed", slog.String("error", err.Error()))
		return
	}
	b.pace.reset()
	if err := b.ai.CreateResponse(); err != nil {
		b.logger.Warn("response request failed", slog.String("error", err.Error()))
	}
}

// aiLoop pumps the Realtime socket until it closes. A dead AI socket
// tears down the telephony leg as well.
func (b *Bridge) aiLoop(ai AISession) {
	defer func() { _ = b.tel.Close() }()

	for {
		ev, err := ai.ReadEvent()
		if err != nil {
			if errors.Is(err, realtime.ErrMalformed) {
				b.logger.Warn("dropping malformed ai event")
				continue
			}
			b.logger.Info("ai socket closed", slog.String("reason", err.Error()))
			return
		}

		switch ev.Type {
		case realtime.EventTypeSessionCreated, realtime.EventTypeSessionUpdated:
			b.logger.Debug("ai session event", slog.String("type", ev.Type))

		case realtime.EventTypeAudioDelta:
			b.forwardAudio(ev.Delta)

		case realtime.EventTypeTranscriptDelta, realtime.EventTypeTextDelta:
			b.extractor.Feed(ev.Delta)

		case realtime.EventTypeResponseDone:
			b.logger.Debug("ai response done")

		case realtime.EventTypeError:
			// Application-level errors (no active generation,
			// generation already active, ...) never end the call.
			if ev.Error != nil {
				b.logger.Warn("ai application error",
					slog.String("code", ev.Error.Code),
					slog.String("message", ev.Error.Message),
				)
			} else {
				b.logger.Warn("ai application error without detail")
			}
		}
	}
}

// forwardAudio relays one agent audio fragment to the caller. Frames are
// dropped until the call handle is known.
func (b *Bridge) forwardAudio(payload string) {
	if payload == "" {
		return
	}
	b.mu.Lock()
	streamSid := b.streamSid
	b.mu.Unlock()
	if streamSid == "" {
		return
	}
	if err := b.tel.SendMedia(streamSid, payload); err != nil {
		b.logger.Debug("dropping agent audio", slog.String("error", err.Error()))
	}
}

// finish tears the call down exactly once: final input flush, AI socket
// close, telephony close, and the single hand-off to the sink.
func (b *Bridge) finish(ctx context.Context) {
	b.finishOnce.Do(func() {
		b.mu.Lock()
		if b.state == StateOpen {
			b.commitLocked()
			_ = b.ai.Close()
		}
		b.state = StateClosed

		res := CallResult{
			CallSID: b.callSid,
			Caller:  b.caller,
		}
		aiFailed := b.aiFailed
		b.mu.Unlock()

		_ = b.tel.Close()

		if line := b.extractor.Last(); line != "" {
			res.Outcome = OutcomeCaptured
			res.Record = lead.Parse(line)
		} else if aiFailed {
			res.Outcome = OutcomeAIUnavailable
		} else {
			res.Outcome = OutcomeNoLead
		}

		if err := b.sink.Append(ctx, res); err != nil {
			b.logger.Error("lead hand-off failed", slog.String("error", err.Error()))
		}

		b.logger.Info("call finished",
			slog.String("call_sid", res.CallSID),
			slog.String("outcome", string(res.Outcome)),
		)
	})
}
