// Package message models the notification pushed to every channel and builds
// the per-channel body text from it.
package message

import (
	"strings"

	"github.com/eugenenazirov/sendmessage/internal/textfmt"
)

const (
	// SentinelTitle replaces the title when too few arguments were supplied.
	SentinelTitle = "参数个数不对!"
	// SentinelBody replaces the body when too few arguments were supplied.
	SentinelBody = "null"
)

// Message is a title plus ordered body lines. Build it with New or FromArgs.
type Message struct {
	Title string
	Lines []string
}

// Format describes how a channel wants its body assembled.
type Format struct {
	// Delimiter is appended after every body line.
	Delimiter string
	// MaxLength caps the body in characters. Zero disables the cap.
	MaxLength int
}

// New returns a message owning a copy of lines.
func New(title string, lines ...string) Message {
	return Message{Title: title, Lines: append([]string(nil), lines...)}
}

// FromArgs treats the first argument as the title and the rest as body lines.
// Fewer than two arguments produce the sentinel message.
func FromArgs(args []string) Message {
	if len(args) < 2 {
		return Message{}
	}
	return New(args[0], args[1:]...)
}

// IsSentinel reports whether m carries no body lines.
func (m Message) IsSentinel() bool {
	return len(m.Lines) == 0
}

// Build returns the title and body a channel sends. Each line goes through
// textfmt.Line and is followed by the delimiter; the body is then hard-cut to
// MaxLength characters. The title is never altered.
func Build(m Message, f Format) (title, body string) {
	if m.IsSentinel() {
		return SentinelTitle, SentinelBody
	}

	var sb strings.Builder
	for _, line := range m.Lines {
		sb.WriteString(textfmt.Line(line))
		sb.WriteString(f.Delimiter)
	}

	return m.Title, Truncate(sb.String(), f.MaxLength)
}

// Truncate cuts s to at most limit characters. A non-positive limit disables it.
func Truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
