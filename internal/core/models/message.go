package models

import (
	"encoding/json"
	"time"
)

// Message is one transcript entry. The shape belongs to the chat widget; the
// storage layer treats it as opaque JSON and only preserves order.
type Message = json.RawMessage

// Lead holds the key/value data the widget collects about the person chatting.
// A nil Lead means "not captured yet".
type Lead map[string]any

// TranscriptRecord is the document stored per session in the transcript store
type TranscriptRecord struct {
	SessionID  string    `json:"-"`
	Lead       Lead      `json:"lead"`
	Transcript []Message `json:"transcript"`
	UpdatedAt  time.Time `json:"-"` // Set by the store on read
}

// MessageCount returns the number of transcript entries
func (r TranscriptRecord) MessageCount() int {
	return len(r.Transcript)
}

// CloneTranscript copies the slice header array so callers cannot reorder
// entries behind the owner's back. Message bytes are shared; they are never
// mutated in place.
func CloneTranscript(src []Message) []Message {
	if src == nil {
		return nil
	}
	dst := make([]Message, len(src))
	copy(dst, src)
	return dst
}

// CloneLead returns a shallow copy of the lead map
func CloneLead(src Lead) Lead {
	if src == nil {
		return nil
	}
	dst := make(Lead, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
