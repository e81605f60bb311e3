package testutil

import (
	"bufio"
	"strings"
	"testing"
)

// SSEEvent is one parsed Server-Sent Events frame.
type SSEEvent struct {
	Type string
	Data string // multi-line data joined with \n
}

// ParseSSEEvents splits an event stream body into frames. Comment lines
// are skipped, a frame without an explicit event name gets the spec
// default "message", and anything else unexpected fails the test.
func ParseSSEEvents(t *testing.T, body string) []SSEEvent {
	t.Helper()

	var (
		events  []SSEEvent
		current SSEEvent
		data    []string
		line    int
	)

	flush := func() {
		if current.Type == "" && len(data) == 0 {
			return
		}
		if current.Type == "" {
			current.Type = "message"
		}
		current.Data = strings.Join(data, "\n")
		events = append(events, current)
		current = SSEEvent{}
		data = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line++
		switch text := scanner.Text(); {
		case text == "":
			flush()
		case strings.HasPrefix(text, "event: "):
			if current.Type != "" {
				t.Fatalf("line %d: event %q started before %q was terminated", line, text, current.Type)
			}
			current.Type = strings.TrimPrefix(text, "event: ")
		case strings.HasPrefix(text, "data: "):
			data = append(data, strings.TrimPrefix(text, "data: "))
		case strings.HasPrefix(text, ":"):
			// comment, ignored
		default:
			t.Fatalf("line %d: unexpected SSE line %q", line, text)
		}
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scanning SSE body: %v", err)
	}
	if current.Type != "" || len(data) > 0 {
		t.Fatalf("SSE stream ended mid-frame (missing blank line after %q)", current.Type)
	}

	return events
}

// FindEvent returns the first frame of the given type, or nil.
func FindEvent(events []SSEEvent, eventType string) *SSEEvent {
	for i := range events {
		if events[i].Type == eventType {
			return &events[i]
		}
	}
	return nil
}

// EventsOfType returns every frame of the given type, in order.
func EventsOfType(events []SSEEvent, eventType string) []SSEEvent {
	var out []SSEEvent
	for _, e := range events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
