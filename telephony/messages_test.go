package telephony

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeStart(t *testing.T) {
	data := []byte(`{
"event": "start",
"streamSid": "MZ18ad3ab5a668481ce02b83e7395059f0",
"start": {
"streamSid": "MZ18ad3ab5a668481ce02b83e7395059f0",
"accountSid": "AC123",
"callSid": "CA456",
"tracks": ["inbound"],
"mediaFormat": {"encoding": "audio/x-mulaw", "sampleRate": 8000, "channels": 1},
"customParameters": {"from": "+16055550001", "to": "+16055550100"}
}
}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Event != EventStart {
		t.Errorf("Event = %q, want %q", msg.Event, EventStart)
	}
	if msg.Start == nil {
		t.Fatal("Start payload missing")
	}
	if msg.Start.StreamSID != "MZ18ad3ab5a668481ce02b83e7395059f0" {
		t.Errorf("StreamSID = %q", msg.Start.StreamSID)
	}
	if msg.Start.CallSID != "CA456" {
		t.Errorf("CallSID = %q, want CA456", msg.Start.CallSID)
	}
	if msg.Start.MediaFormat.SampleRate != 8000 {
		t.Errorf("SampleRate = %d, want 8000", msg.Start.MediaFormat.SampleRate)
	}
	if msg.Start.CustomParams["from"] != "+16055550001" {
		t.Errorf("CustomParams[from] = %q", msg.Start.CustomParams["from"])
	}
}

func TestDecodeMedia(t *testing.T) {
	data := []byte(`{"event":"media","streamSid":"MZ1","media":{"track":"inbound","chunk":"2","timestamp":"40","payload":"aGVsbG8="}}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Event != EventMedia || msg.Media == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Media.Payload != "aGVsbG8=" {
		t.Errorf("Payload = %q, want aGVsbG8=", msg.Media.Payload)
	}
}

func TestDecodeStop(t *testing.T) {
	data := []byte(`{"event":"stop","streamSid":"MZ1","stop":{"accountSid":"AC123","callSid":"CA456"}}`)

	msg, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if msg.Event != EventStop {
		t.Errorf("Event = %q, want %q", msg.Event, EventStop)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{"not json", `this is not json`},
		{"no event", `{"streamSid":"MZ1"}`},
		{"empty", ``},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Decode(%q) error = %v, want ErrMalformed", tc.data, err)
			}
		})
	}
}

func TestOutboundMediaShape(t *testing.T) {
	data, err := json.Marshal(outboundMedia{
		Event:     EventMedia,
		StreamSID: "MZ1",
		Media:     outboundAudio{Payload: "aGVsbG8="},
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var envelope map[string]any
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if envelope["event"] != "media" {
		t.Errorf("event = %v, want media", envelope["event"])
	}
	if envelope["streamSid"] != "MZ1" {
		t.Errorf("streamSid = %v, want MZ1", envelope["streamSid"])
	}
	media, ok := envelope["media"].(map[string]any)
	if !ok || media["payload"] != "aGVsbG8=" {
		t.Errorf("media payload = %v, want aGVsbG8=", envelope["media"])
	}
}
