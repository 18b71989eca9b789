// Package linebuffer has writers that split what is written into lines
package linebuffer

import (
	"bytes"
	"strings"
)

// Fn calls function for each line written, the line includes the line ending
type Fn struct {
	buf bytes.Buffer
	fn  func(line string)
}

// NewFn create new buffer that calls function foreach line written
func NewFn(fn func(line string)) *Fn {
	return &Fn{fn: fn}
}

func (fn *Fn) Write(p []byte) (n int, err error) {
	fn.buf.Write(p)
	for {
		b := fn.buf.Bytes()
		i := bytes.IndexAny(b, "\n\r")
		if i < 0 {
			break
		}
		fn.fn(string(b[:i+1]))
		fn.buf.Next(i + 1)
	}
	return len(p), nil
}

// Close flushes any data left in the buffer as a line
func (fn *Fn) Close() error {
	if fn.buf.Len() > 0 {
		fn.fn(fn.buf.String())
	}
	fn.buf.Reset()
	return nil
}

// LastLines buffers the last n lines
type LastLines struct {
	Fn
	current int
	lines   []string
}

// NewLastLines creates a new limited line buffer that buffers the last n lines
func NewLastLines(limit int) *LastLines {
	ll := &LastLines{lines: make([]string, limit)}
	ll.fn = ll.addLine
	return ll
}

func (lb *LastLines) addLine(line string) {
	lb.lines[lb.current] = line
	lb.current = (lb.current + 1) % len(lb.lines)
}

// String returns last n lines as a string
func (lb *LastLines) String() string {
	var sb strings.Builder
	for i := range lb.lines {
		sb.WriteString(lb.lines[(lb.current+i)%len(lb.lines)])
	}
	return sb.String()
}
