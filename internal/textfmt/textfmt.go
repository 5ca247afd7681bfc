// Package textfmt holds the pure text transforms applied to every body line
// before it is handed to a channel.
package textfmt

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	bytesSuffix = "bytes"
	roundDigits = 2
)

var (
	bytesPattern = regexp.MustCompile(`\d+` + bytesSuffix)
	sizeUnits    = []string{"B", "K", "M", "G", "T"}
)

// Line runs the full per-line pipeline: byte humanization, then URL redaction.
func Line(text string) string {
	return RedactURL(HumanizeBytes(text))
}

// HumanizeBytes rewrites the first "<digits>bytes" occurrence in text into a
// binary-scaled size such as "2K" or "1.4G". Only the first match changes; text
// without a match, or whose digit run does not fit a float64, is returned as is.
func HumanizeBytes(text string) string {
	loc := bytesPattern.FindStringIndex(text)
	if loc == nil {
		return text
	}

	digits := strings.TrimSuffix(text[loc[0]:loc[1]], bytesSuffix)
	size, err := strconv.ParseFloat(digits, 64)
	if err != nil || math.IsInf(size, 0) {
		return text
	}

	unit := 0
	for size > 1024 && unit < len(sizeUnits)-1 {
		size /= 1024
		unit++
	}
	if unit > 0 {
		scale := math.Pow(10, roundDigits)
		size = math.Round(size*scale) / scale
	}

	rendered := strconv.FormatFloat(size, 'f', -1, 64) + sizeUnits[unit]
	return text[:loc[0]] + rendered + text[loc[1]:]
}

// RedactURL replaces a string that is entirely an http(s) URL with its
// host[:port], so paths, queries and credentials never leave the machine.
// URLs embedded in longer text are left alone.
func RedactURL(text string) string {
	if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
		return text
	}
	u, err := url.Parse(text)
	if err != nil {
		return text
	}
	return u.Host
}
