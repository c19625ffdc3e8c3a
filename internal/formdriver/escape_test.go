package formdriver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeJSString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Bye", "Bye"},
		{"quote and newline", "He said \"hi\"\nBye", `He said \"hi\"\nBye`},
		{"backslash first", `C:\path`, `C:\\path`},
		{"literal backslash n", `a\nb`, `a\\nb`},
		{"escaped quote stays distinct", `\"`, `\\\"`},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EscapeJSString(tc.in))
		})
	}
}

func TestUnescapeJSString_RoundTrip(t *testing.T) {
	inputs := []string{
		"",
		"He said \"hi\"\nBye",
		`C:\Users\resala\notes`,
		"line one\n\nline three\n",
		`\n is not a newline here`,
		"trailing backslash \\",
		"mixed \\\"\n\\n\"",
	}
	for _, in := range inputs {
		assert.Equal(t, in, UnescapeJSString(EscapeJSString(in)), "round trip of %q", in)
	}
}

func TestEditorScript_NoRawNewlines(t *testing.T) {
	script := editorScript(EscapeJSString("para one\npara \"two\""))
	assert.Contains(t, script, `this.innerHTML = "para one\npara \"two\""`)

	literal := script[strings.Index(script, `"`):strings.Index(script, ";")]
	assert.NotContains(t, literal, "\n")
}
