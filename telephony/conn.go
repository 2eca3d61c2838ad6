package telephony

import (
	"io"
	"sync"

	"github.com/gorilla/websocket"
)

// Conn wraps one Twilio Media Streams websocket. Reads are expected from a
// single goroutine; writes may come from several and are serialized. Close
// is idempotent.
type Conn struct {
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// NewConn wraps an upgraded websocket connection.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

// Read returns the next inbound envelope. An unparsable frame yields
// ErrMalformed and leaves the connection usable; any other error means the
// socket is gone.
func (c *Conn) Read() (*Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// SendMedia sends one base64 audio fragment addressed to streamSid.
func (c *Conn) SendMedia(streamSid, payload string) error {
	return c.write(outboundMedia{
		Event:     EventMedia,
		StreamSID: streamSid,
		Media:     outboundAudio{Payload: payload},
	})
}

// SendMark sends a playback synchronization mark.
func (c *Conn) SendMark(streamSid, name string) error {
	return c.write(outboundMark{
		Event:     EventMark,
		StreamSID: streamSid,
		Mark:      outboundName{Name: name},
	})
}

// SendClear asks Twilio to drop any audio it has buffered for playback.
func (c *Conn) SendClear(streamSid string) error {
	return c.write(outboundClear{Event: "clear", StreamSID: streamSid})
}

func (c *Conn) write(v any) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(v)
}

// Close tears down the websocket. Safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeMu.Lock()
		c.closed = true
		c.closeMu.Unlock()
		_ = c.ws.Close()
	})
	return nil
}
