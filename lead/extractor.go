// Package lead extracts the structured service lead the agent emits as its
// final line of text. The agent is instructed to end the conversation with
// exactly one line of the form
//
//	LEAD: Name=...; Phone=...; YMM=...; Service=...; ZIP=...
//
// Text arrives as partial-line deltas, so the extractor reassembles lines
// and keeps the most recent one that starts with the marker. Nothing is
// emitted mid-call; the bridge reads the result once at teardown.
package lead

import (
	"regexp"
	"strings"
	"sync"
)

// Marker is the leading token of a lead line, matched case-insensitively.
const Marker = "LEAD:"

// Record is the parsed lead. RawLine preserves the exact line the agent
// produced, so a parse that captures nothing still leaves an audit trail.
type Record struct {
	Name         string
	Phone        string
	VehicleYear  string
	VehicleMake  string
	VehicleModel string
	ServiceType  string
	PostalCode   string
	RawLine      string
}

// ymmPattern splits a "2019 Toyota Camry" style descriptor into year, make
// and model. Anything that doesn't match lands whole in the model field.
var ymmPattern = regexp.MustCompile(`^(\d{4})\s+(\S+)\s+(.+)$`)

// Extractor accumulates text deltas for one call. Safe for use from the
// AI-read goroutine with the final read happening at teardown.
type Extractor struct {
	mu      sync.Mutex
	partial strings.Builder
	last    string
}

// NewExtractor returns an empty extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Feed appends one text delta, completing lines on newlines.
func (e *Extractor) Feed(delta string) {
	if delta == "" {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for {
		i := strings.IndexByte(delta, '\n')
		if i < 0 {
			e.partial.WriteString(delta)
			return
		}
		e.partial.WriteString(delta[:i])
		e.note(e.partial.String())
		e.partial.Reset()
		delta = delta[i+1:]
	}
}

// Last returns the most recent marker line seen, including a trailing
// partial line that was never newline-terminated. Empty when no line
// matched.
func (e *Extractor) Last() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.note(e.partial.String())
	e.partial.Reset()
	return e.last
}

// note records line if it carries the marker. Later lines win.
func (e *Extractor) note(line string) {
	line = strings.TrimSpace(line)
	if len(line) < len(Marker) {
		return
	}
	if strings.EqualFold(line[:len(Marker)], Marker) {
		e.last = line
	}
}

// Parse splits a marker line into a Record. Unknown or missing segments
// leave their fields blank; the raw line is always preserved.
func Parse(line string) Record {
	rec := Record{RawLine: strings.TrimSpace(line)}

	body := rec.RawLine
	if len(body) >= len(Marker) && strings.EqualFold(body[:len(Marker)], Marker) {
		body = body[len(Marker):]
	}

	for _, segment := range strings.Split(body, ";") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "name":
			rec.Name = value
		case "phone":
			rec.Phone = value
		case "ymm":
			if m := ymmPattern.FindStringSubmatch(value); m != nil {
				rec.VehicleYear = m[1]
				rec.VehicleMake = m[2]
				rec.VehicleModel = m[3]
			} else {
				rec.VehicleModel = value
			}
		case "service":
			rec.ServiceType = value
		case "zip":
			rec.PostalCode = value
		}
	}
	return rec
}
