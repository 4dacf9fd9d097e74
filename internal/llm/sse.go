package llm

import (
	"bufio"
	"io"
	"strings"
)

// SSEEvent is a single Server-Sent Event.
type SSEEvent struct {
	Event string
	Data  string
}

// ParseSSE reads an SSE stream and yields events. The returned channel is
// closed when the stream ends or a [DONE] sentinel is received.
func ParseSSE(reader io.Reader) <-chan SSEEvent {
	ch := make(chan SSEEvent, 16)
	go func() {
		defer close(ch)
		scanner := bufio.NewScanner(reader)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		var event string
		var dataLines []string

		flush := func() bool {
			if len(dataLines) == 0 {
				return true
			}
			data := strings.Join(dataLines, "\n")
			if data == "[DONE]" {
				return false
			}
			ch <- SSEEvent{Event: event, Data: data}
			return true
		}

		for scanner.Scan() {
			line := scanner.Text()

			if line == "" {
				if !flush() {
					return
				}
				event = ""
				dataLines = nil
				continue
			}

			switch {
			case strings.HasPrefix(line, "data: "):
				dataLines = append(dataLines, line[6:])
			case strings.HasPrefix(line, "data:"):
				dataLines = append(dataLines, line[5:])
			case strings.HasPrefix(line, "event: "):
				event = line[7:]
			case strings.HasPrefix(line, "event:"):
				event = line[6:]
			}
			// comment lines (":") and unknown fields are ignored
		}

		flush()
	}()
	return ch
}
