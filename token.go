package descent

import "strings"

var displayEscaper = strings.NewReplacer("\n", `\n`, "\r", `\r`, "\t", `\t`)

// Display returns the token rendered for diagnostics: the value quoted
// with control characters escaped, <EOF> for end of input, or the
// synthetic placeholder text for fabricated tokens.
func (t Token) Display() string {
	if t.EOF() {
		return "<EOF>"
	}
	if t.Value == "" {
		return "<no text>"
	}
	return "'" + displayEscaper.Replace(t.Value) + "'"
}
