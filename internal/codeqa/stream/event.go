// Package stream decodes the newline-delimited JSON answer stream of the backend into events.
package stream

import (
	"bytes"
	"encoding/json"
)

// Kind discriminates decoded stream events.
type Kind int

const (
	// KindContent carries one fragment of assistant text.
	KindContent Kind = iota
	// KindEnd carries the server-side execution time. It does not end decoding:
	// the backend may still send the retrieval context after it.
	KindEnd
	// KindMalformed is a non-empty line that is not a well-formed record.
	KindMalformed
	// KindStart is the optional opening record naming the queried repository.
	KindStart
	// KindServerError is an error notice the backend sends in-band before its end record.
	KindServerError
)

func (k Kind) String() string {
	switch k {
	case KindContent:
		return "content"
	case KindEnd:
		return "end"
	case KindMalformed:
		return "malformed"
	case KindStart:
		return "start"
	case KindServerError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one decoded line of the answer stream.
type Event struct {
	Kind Kind

	// Content is set for KindContent and KindServerError.
	Content string
	// ExecutionTime is set for KindEnd, in seconds.
	ExecutionTime float64
	// Repository is set for KindStart; nil means all repositories.
	Repository *string
	// Raw is the offending line for KindMalformed.
	Raw string
}

// record mirrors every field any record type may carry. Pointers tell a missing
// field from a zero value.
type record struct {
	Type          string   `json:"type"`
	Content       *string  `json:"content"`
	ExecutionTime *float64 `json:"execution_time"`
	Repository    *string  `json:"repository"`
}

// ParseLine decodes a single stream line. It returns false for blank lines, which
// carry no event. Anything else yields an event, KindMalformed included.
//
// Example:
//
//	ev, ok := ParseLine([]byte(`{"type":"content","content":"Hel"}`))
//	// ok == true, ev.Kind == KindContent, ev.Content == "Hel"
func ParseLine(line []byte) (Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Event{}, false
	}

	malformed := Event{Kind: KindMalformed, Raw: string(line)}

	var rec record
	if err := json.Unmarshal(line, &rec); err != nil {
		return malformed, true
	}

	switch rec.Type {
	case "content":
		if rec.Content == nil {
			return malformed, true
		}
		return Event{Kind: KindContent, Content: *rec.Content}, true
	case "end":
		if rec.ExecutionTime == nil {
			return malformed, true
		}
		return Event{Kind: KindEnd, ExecutionTime: *rec.ExecutionTime}, true
	case "start":
		return Event{Kind: KindStart, Repository: rec.Repository}, true
	case "error":
		ev := Event{Kind: KindServerError}
		if rec.Content != nil {
			ev.Content = *rec.Content
		}
		return ev, true
	default:
		return malformed, true
	}
}
