package core

import "strings"

const (
	fieldDelimiter = ','
	quoteChar      = '"'
)

// SplitLines splits text on newlines, trims every line and drops the ones that
// are empty or whitespace-only.
func SplitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// TokenizeLine splits one line into trimmed fields.
//
// A quote toggles quoted mode; inside a quoted field a doubled quote is a
// literal quote. The delimiter only separates fields outside quotes.
// Delimiter and quote are ASCII, so scanning bytes is safe for UTF-8 input.
func TokenizeLine(line string) []string {
	var (
		fields   []string
		current  strings.Builder
		inQuotes bool
	)

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == quoteChar && inQuotes && i+1 < len(line) && line[i+1] == quoteChar:
			current.WriteByte(quoteChar)
			i++
		case c == quoteChar:
			inQuotes = !inQuotes
		case c == fieldDelimiter && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}

	return append(fields, strings.TrimSpace(current.String()))
}

// Tokenize splits text into rows of fields. Blank lines are skipped.
func Tokenize(text string) [][]string {
	lines := SplitLines(text)
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = TokenizeLine(line)
	}
	return rows
}
