package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrMalformed reports a server frame that is not a valid Realtime event.
// Callers log and skip the frame; it is never fatal.
var ErrMalformed = errors.New("realtime: malformed server event")

// Config carries what Dial needs to open an authenticated session.
type Config struct {
	URL    string // endpoint; DefaultURL when empty
	APIKey string // bearer credential, required
	Model  string // model identifier, required
}

// Client is one Realtime websocket session. Writes are serialized; reads
// are expected from a single goroutine. Close is idempotent.
type Client struct {
	conn *websocket.Conn

	writeMu   sync.Mutex
	closeMu   sync.Mutex
	closed    bool
	closeOnce sync.Once
}

// Dial opens and authenticates a Realtime session. A missing credential or
// model is refused up front: the caller must not open the telephony leg of
// a call it cannot serve.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("realtime: API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("realtime: model is required")
	}

	endpoint := cfg.URL
	if endpoint == "" {
		endpoint = DefaultURL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("realtime: invalid endpoint: %w", err)
	}
	q := u.Query()
	q.Set("model", cfg.Model)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)
	header.Set("OpenAI-Beta", "realtime=v1")

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("realtime: dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("realtime: dial failed: %w", err)
	}

	return &Client{conn: conn}, nil
}

// UpdateSession sends the session.update configuring codec and behavior.
func (c *Client) UpdateSession(session SessionConfig) error {
	return c.write(sessionUpdateEvent{Type: "session.update", Session: session})
}

// AppendAudio appends one base64 audio fragment to the input buffer.
func (c *Client) AppendAudio(audio string) error {
	return c.write(appendEvent{Type: "input_audio_buffer.append", Audio: audio})
}

// CommitInput marks the buffered input audio as complete.
func (c *Client) CommitInput() error {
	return c.write(commitEvent{Type: "input_audio_buffer.commit"})
}

// CreateResponse asks the model to generate a response.
func (c *Client) CreateResponse() error {
	return c.write(responseCreateEvent{Type: "response.create"})
}

// ReadEvent returns the next server event. An unparsable frame yields
// ErrMalformed and leaves the socket usable; any other error means the
// session is gone.
func (c *Client) ReadEvent() (*ServerEvent, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	var ev ServerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, ErrMalformed
	}
	return &ev, nil
}

func (c *Client) write(v any) error {
	c.closeMu.Lock()
	closed := c.closed
	c.closeMu.Unlock()
	if closed {
		return io.ErrClosedPipe
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// Close tears down the websocket. Safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closeMu.Lock()
		c.closed = true
		c.closeMu.Unlock()
		_ = c.conn.Close()
	})
	return nil
}
