package server

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/voxlead/voxlead/bridge"
	"github.com/voxlead/voxlead/telephony"
)

// TenantDirectory resolves the persona for the number a caller dialed.
type TenantDirectory interface {
	PersonaByNumber(ctx context.Context, number string) (string, error)
}

// Handler carries the collaborators the voice endpoints need.
type Handler struct {
	logger    *slog.Logger
	publicURL string
	voice     string
	tenants   TenantDirectory
	sink      bridge.Sink
	dial      bridge.AIDialer
	upgrader  websocket.Upgrader
}

// NewHandler builds the voice handler. publicURL is the externally
// reachable base URL (https://...); the stream URL in the TwiML answer is
// derived from it.
func NewHandler(logger *slog.Logger, publicURL, voice string, tenants TenantDirectory, sink bridge.Sink, dial bridge.AIDialer) *Handler {
	return &Handler{
		logger:    logger,
		publicURL: strings.TrimRight(publicURL, "/"),
		voice:     voice,
		tenants:   tenants,
		sink:      sink,
		dial:      dial,
		upgrader: websocket.Upgrader{
			// Twilio's media stream client sends no Origin header.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Health answers liveness probes.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

// TwiML response for the voice webhook.

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Connect twimlConnect `xml:"Connect"`
}

type twimlConnect struct {
	Stream twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL    string       `xml:"url,attr"`
	Params []twimlParam `xml:"Parameter"`
}

type twimlParam struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// Answer is the Twilio voice webhook. It replies with TwiML connecting
// the call to the media stream endpoint, passing the caller and called
// numbers through as stream parameters.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Warn("unparsable voice webhook", slog.String("error", err.Error()))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	from := r.FormValue("From")
	to := r.FormValue("To")

	streamURL := h.streamURL(r, to)
	resp := twimlResponse{
		Connect: twimlConnect{
			Stream: twimlStream{
				URL: streamURL,
				Params: []twimlParam{
					{Name: "from", Value: from},
					{Name: "to", Value: to},
				},
			},
		},
	}

	body, err := xml.Marshal(resp)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	h.logger.Info("answering call",
		slog.String("from", from),
		slog.String("to", to),
	)

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, xml.Header)
	w.Write(body)
}

// streamURL derives the wss:// media stream URL from the configured
// public URL, falling back to the request host. The called number rides
// on the query so the stream handler can resolve the tenant before the
// websocket delivers any call metadata.
func (h *Handler) streamURL(r *http.Request, to string) string {
	base := h.publicURL
	if base == "" {
		base = "https://" + r.Host
	}
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	u := base + "/voice/stream"
	if to != "" {
		u += "?to=" + url.QueryEscape(to)
	}
	return u
}

// Stream is the media stream websocket endpoint. It upgrades the
// connection and runs one bridge for the life of the call.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	logger := h.logger.With(slog.String("request_id", GetRequestID(r.Context())))
	conn := telephony.NewConn(ws)

	b := bridge.New(conn, h.dial, h.sink,
		bridge.WithLogger(logger),
		bridge.WithVoice(h.voice),
		bridge.WithInstructions(h.instructionsFor(r)),
	)
	b.Run(r.Context())
}

// instructionsFor resolves the tenant persona for the called number. The
// number rides on the stream URL query because the websocket request
// itself carries no call metadata before the start event.
func (h *Handler) instructionsFor(r *http.Request) string {
	persona := ""
	if to := r.URL.Query().Get("to"); to != "" && h.tenants != nil {
		p, err := h.tenants.PersonaByNumber(r.Context(), to)
		if err != nil {
			h.logger.Warn("tenant lookup failed", slog.String("error", err.Error()))
		} else {
			persona = p
		}
	}
	return bridge.BuildInstructions(persona)
}
