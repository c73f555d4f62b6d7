package lsp

import (
	"strings"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/Sumatoshi-tech/rotalsp/pkg/safeconv"
	"github.com/Sumatoshi-tech/rotalsp/pkg/textutil"
)

// byteToUTF16 converts a byte offset in line to a UTF-16 code unit offset.
func byteToUTF16(line string, offset int) protocol.UInteger {
	offset = min(max(offset, 0), len(line))

	units := 0

	for _, r := range line[:offset] {
		units += utf16.RuneLen(r)
	}

	return safeconv.ClampUint32(units)
}

// utf16ToByte converts a UTF-16 code unit offset in line to a byte offset.
// Offsets past the end clamp to len(line).
func utf16ToByte(line string, units protocol.UInteger) int {
	remaining := int(units)

	for idx, r := range line {
		if remaining <= 0 {
			return idx
		}

		remaining -= utf16.RuneLen(r)
	}

	return len(line)
}

// offsetAt returns the byte offset of pos in text.
func offsetAt(text string, pos protocol.Position) int {
	lines := textutil.SplitLines(text)
	offset := 0

	for idx := range lines {
		if idx == int(pos.Line) {
			return offset + utf16ToByte(lines[idx], pos.Character)
		}

		offset += len(lines[idx]) + lineBreakLen(text, offset+len(lines[idx]))
	}

	return len(text)
}

// lineBreakLen is the width of the line break starting at offset: 2 for CRLF,
// 1 for LF, 0 at the end of text.
func lineBreakLen(text string, offset int) int {
	switch {
	case strings.HasPrefix(text[offset:], "\r\n"):
		return 2
	case offset < len(text):
		return 1
	default:
		return 0
	}
}

// applyChange applies one content change to text. Whole-document changes
// replace it; ranged changes splice the range.
func applyChange(text string, change any) string {
	switch event := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return event.Text
	case protocol.TextDocumentContentChangeEvent:
		if event.Range == nil {
			return event.Text
		}

		start := offsetAt(text, event.Range.Start)
		end := max(offsetAt(text, event.Range.End), start)

		return text[:start] + event.Text + text[end:]
	default:
		return text
	}
}
