// Package sse reads the data payloads of a server-sent-event stream one line
// at a time.
//
// Vendors put exactly one JSON document on each "data:" line, so the reader
// deliberately does not join multi-line events: a broken line stays isolated
// and the caller can skip it without losing its neighbours.
package sse

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Done is the OpenAI-style end-of-stream sentinel payload.
const Done = "[DONE]"

type Reader struct {
	br *bufio.Reader
}

func NewReader(src io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(src, 64*1024)}
}

// Next returns the trimmed payload of the next "data:" line. Comments, blank
// lines and other fields are skipped. It returns io.EOF once the source is
// exhausted; any other error comes from the underlying reader.
func (r *Reader) Next() (string, error) {
	for {
		line, err := r.br.ReadString('\n')
		if len(line) > 0 {
			if data, ok := dataPayload(line); ok {
				return data, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", err
		}
	}
}

func dataPayload(line string) (string, bool) {
	line = strings.TrimRight(line, "\r\n")
	rest, ok := strings.CutPrefix(line, "data:")
	if !ok {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return "", false
	}
	return rest, true
}
