package ipc

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/nstehr/flotilla/model"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	env, err := NewEnvelope(TypeActions, ActionsMessage{Step: 3, Actions: model.Actions{"s1": model.ActionNorth}})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if err := WriteEnvelope(&buf, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	if got := binary.LittleEndian.Uint32(buf.Bytes()[:4]); int(got) != buf.Len()-4 {
		t.Errorf("length prefix = %d, want %d", got, buf.Len()-4)
	}

	got, err := ReadEnvelope(&buf)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	if got.Type != TypeActions {
		t.Errorf("Type = %q, want %q", got.Type, TypeActions)
	}
	var msg ActionsMessage
	if err := got.Decode(&msg); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.Step != 3 || msg.Actions["s1"] != model.ActionNorth {
		t.Errorf("decoded %+v", msg)
	}
}

func TestReadEnvelopeRejectsBadFrames(t *testing.T) {
	tests := []struct {
		name   string
		length uint32
		body   string
		want   string
	}{
		{"zero length", 0, "", "invalid message length"},
		{"oversized", maxFrame + 1, "", "invalid message length"},
		{"truncated", 10, "{}", "read payload"},
		{"not json", 3, "abc", "unmarshal envelope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			binary.Write(&buf, binary.LittleEndian, tt.length)
			buf.WriteString(tt.body)
			_, err := ReadEnvelope(&buf)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("ReadEnvelope error = %v, want %q", err, tt.want)
			}
		})
	}
}
