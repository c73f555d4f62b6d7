package expr

import "regexp"

// Token is a candidate expression token found in a line of text.
type Token struct {
	Text  string
	Start int // Byte offset in the scanned text.
	End   int
}

var tokenPattern = regexp.MustCompile( //nolint:gochecknoglobals // compiled once
	`[A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z0-9_]+)*(?:\([A-Za-z0-9_]*\))?`,
)

// Tokens returns the dotted identifiers (with an optional call argument) in
// text. Matches that start in the middle of a word, such as the tail of a
// number, are skipped.
func Tokens(text string) []Token {
	locs := tokenPattern.FindAllStringIndex(text, -1)
	tokens := make([]Token, 0, len(locs))

	for _, loc := range locs {
		if loc[0] > 0 && (isNameByte(text[loc[0]-1]) || text[loc[0]-1] == '.') {
			continue
		}

		tokens = append(tokens, Token{Text: text[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}

	return tokens
}
