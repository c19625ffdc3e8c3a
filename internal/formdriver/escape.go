package formdriver

import (
	"fmt"
	"strings"
)

var jsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)

// EscapeJSString makes text safe inside a double-quoted JS string literal.
// Backslashes are handled first so the escapes it adds are not doubled.
func EscapeJSString(text string) string {
	return jsEscaper.Replace(text)
}

// UnescapeJSString reverses EscapeJSString exactly.
func UnescapeJSString(escaped string) string {
	var b strings.Builder
	b.Grow(len(escaped))
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		if c != '\\' || i+1 == len(escaped) {
			b.WriteByte(c)
			continue
		}
		i++
		switch escaped[i] {
		case 'n':
			b.WriteByte('\n')
		default:
			b.WriteByte(escaped[i])
		}
	}
	return b.String()
}

// editorScript sets the editor's content from an escaped literal and fires an
// input event so the page's editor framework sees the change.
func editorScript(escaped string) string {
	return fmt.Sprintf(`() => {
		this.innerHTML = "%s";
		this.dispatchEvent(new Event("input", { bubbles: true }));
		return true;
	}`, escaped)
}
