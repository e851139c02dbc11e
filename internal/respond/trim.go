package respond

import "strings"

// Error texts sent over the queue are trimmed to a rectangle so one
// compiler spew cannot bloat messages. Success output is never trimmed;
// oversized payloads are compressed instead (see compress.go).
const (
	MaxErrHeight = 40
	MaxErrWidth  = 160
)

func trimStrToRect(s string, maxHeight int, maxWidth int) string {
	if s == "" {
		return s
	}
	res := ""
	lines := strings.Split(s, "\n")
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
		lines = append(lines, "[...]")
	}
	for i, line := range lines {
		if i > 0 {
			res += "\n"
		}
		if len(line) > maxWidth {
			res += line[:maxWidth] + "[...]"
		} else {
			res += line
		}
	}
	return res
}
