package jsonrpc

import (
	"bytes"
	"strings"
)

// LineFramer reassembles newline-delimited messages from an arbitrarily
// chunked byte stream. Input may split anywhere, including mid-token inside
// a JSON message; whatever trails the last newline stays buffered until the
// next Append.
type LineFramer struct {
	buf bytes.Buffer
}

// Append adds a chunk and returns every complete line it closed off, with
// the line terminator removed and surrounding whitespace trimmed. Blank
// lines are dropped.
func (f *LineFramer) Append(chunk []byte) []string {
	f.buf.Write(chunk)

	data := f.buf.String()
	idx := strings.LastIndexByte(data, '\n')
	if idx < 0 {
		return nil
	}

	f.buf.Reset()
	f.buf.WriteString(data[idx+1:])

	var lines []string
	for _, line := range strings.Split(data[:idx], "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// Pending returns the buffered partial line, for diagnostics.
func (f *LineFramer) Pending() string {
	return f.buf.String()
}
