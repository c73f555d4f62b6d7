package engine

import (
	"github.com/Sumatoshi-tech/rotalsp/pkg/symbols"
	"github.com/Sumatoshi-tech/rotalsp/pkg/textutil"
)

// Document is one revision of a rotation profile: its lines and the symbol
// table built from them.
type Document struct {
	Lines []string
	Table *symbols.Table
}

// ParseDocument splits text into lines and builds its symbol table.
func ParseDocument(text string) *Document {
	lines := textutil.SplitLines(text)

	return &Document{Lines: lines, Table: symbols.Build(lines)}
}

// Line returns line idx, or false when it is out of range.
func (d *Document) Line(idx int) (string, bool) {
	if idx < 0 || idx >= len(d.Lines) {
		return "", false
	}

	return d.Lines[idx], true
}
