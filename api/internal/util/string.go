package util

import "strings"

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// Preview collapses whitespace so s fits on one line, then truncates it.
func Preview(s string, n int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), n)
}

// Wrap breaks s into lines of at most width runes at word boundaries.
// Words longer than width stay on their own line.
func Wrap(s string, width int) []string {
	var lines []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		var b strings.Builder
		n := 0
		for _, w := range words {
			wl := len([]rune(w))
			if n > 0 && n+1+wl > width {
				lines = append(lines, b.String())
				b.Reset()
				n = 0
			}
			if n > 0 {
				b.WriteByte(' ')
				n++
			}
			b.WriteString(w)
			n += wl
		}
		lines = append(lines, b.String())
	}
	return lines
}
