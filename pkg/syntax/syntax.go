// Package syntax holds the line-level grammar of rotation profiles: comment
// stripping, action-line detection and splitting an action into its
// comma-separated fields. It never parses YAML structure.
package syntax

import "strings"

// Field is one comma-separated element of an action body. Offsets are byte
// columns in the original line.
type Field struct {
	Text       string
	Start      int
	End        int
	Key        string // Empty when the field has no `key=` prefix.
	Value      string
	ValueStart int
}

// HasKey reports whether the field is a `key=value` option.
func (f Field) HasKey() bool { return f.Key != "" }

// IsComment reports whether the line is blank or a full-line comment.
func IsComment(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// StripComment cuts a trailing comment. A '#' starts a comment at the line
// start or after whitespace, outside quotes.
func StripComment(line string) string {
	var quote byte

	for idx := range len(line) {
		ch := line[idx]

		switch {
		case quote != 0:
			if ch == quote {
				quote = 0
			}
		case ch == '"' || ch == '\'':
			quote = ch
		case ch == '#' && (idx == 0 || line[idx-1] == ' ' || line[idx-1] == '\t'):
			return strings.TrimRight(line[:idx], " \t")
		}
	}

	return strings.TrimRight(line, " \t\r")
}

// ActionBody returns the text after the dash marker of an action line and the
// column it starts at. Wrapping quotes are removed. It reports false for
// non-action lines and empty bodies. The dash must be followed by a space or
// tab, so "-fireball", "-1" and "---" are not action lines.
func ActionBody(line string) (string, int, bool) {
	line = StripComment(line)

	start := len(line) - len(strings.TrimLeft(line, " \t"))
	if start >= len(line) || line[start] != '-' {
		return "", 0, false
	}

	if strings.HasPrefix(line[start:], "---") {
		return "", 0, false
	}

	col := start + 1
	if col < len(line) && line[col] != ' ' && line[col] != '\t' {
		return "", 0, false
	}

	for col < len(line) && (line[col] == ' ' || line[col] == '\t') {
		col++
	}

	body := line[col:]

	if len(body) >= 2 && (body[0] == '"' || body[0] == '\'') && body[len(body)-1] == body[0] {
		body = body[1 : len(body)-1]
		col++
	}

	if strings.TrimSpace(body) == "" {
		return "", 0, false
	}

	return body, col, true
}

// SplitFields splits an action body on commas outside parentheses. offset is
// the column of body in its line.
func SplitFields(body string, offset int) []Field {
	var fields []Field

	depth := 0
	start := 0

	for idx := 0; idx <= len(body); idx++ {
		if idx < len(body) {
			switch body[idx] {
			case '(':
				depth++

				continue
			case ')':
				if depth > 0 {
					depth--
				}

				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}

		fields = append(fields, newField(body[start:idx], offset+start))
		start = idx + 1
	}

	return fields
}

func newField(text string, start int) Field {
	field := Field{Text: text, Start: start, End: start + len(text), Value: text, ValueStart: start}

	eq := strings.IndexByte(text, '=')
	if eq <= 0 || !isKey(text[:eq]) {
		return field
	}

	field.Key = text[:eq]
	field.Value = text[eq+1:]
	field.ValueStart = start + eq + 1

	return field
}

func isKey(s string) bool {
	for idx := range len(s) {
		ch := s[idx]
		if ch != '_' && (ch < 'a' || ch > 'z') && (ch < 'A' || ch > 'Z') && (ch < '0' || ch > '9') {
			return false
		}
	}

	return s != ""
}

// FieldByKey returns the first field with the given key.
func FieldByKey(fields []Field, key string) (Field, bool) {
	for _, field := range fields {
		if field.Key == key {
			return field, true
		}
	}

	return Field{}, false
}
