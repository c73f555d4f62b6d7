// Package names is the dictionary of known spell and talent names. Names are
// keyed by a normalized form that drives exact lookup, prefix search and
// "did you mean" suggestions.
package names

import "strings"

// Record is one known name.
type Record struct {
	ID   int64  `json:"id"   msgpack:"id"`
	Name string `json:"name" msgpack:"name"`
	Key  string `json:"key"  msgpack:"-"`
}

// NewRecord builds a record with its normalized key.
func NewRecord(id int64, name string) Record {
	return Record{ID: id, Name: name, Key: Normalize(name)}
}

// Normalize lowercases name, drops apostrophes, collapses every run of other
// non-alphanumeric characters into one underscore and trims underscores at
// both ends. "Kil'jaeden's Wrath" becomes "kiljaedens_wrath".
func Normalize(name string) string {
	var sb strings.Builder

	sb.Grow(len(name))

	pendingSep := false

	for idx := range len(name) {
		ch := name[idx]

		switch {
		case ch == '\'':
			continue
		case ch >= 'A' && ch <= 'Z':
			ch += 'a' - 'A'
		case (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9'):
		default:
			pendingSep = true

			continue
		}

		if pendingSep && sb.Len() > 0 {
			sb.WriteByte('_')
		}

		pendingSep = false

		sb.WriteByte(ch)
	}

	return sb.String()
}
