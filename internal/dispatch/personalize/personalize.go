package personalize

import (
	"regexp"
	"strings"
)

// FallbackName is substituted when a recipient has no name.
const FallbackName = "Valued Customer"

var placeholder = regexp.MustCompile(`(?i)\{\{\s*name\s*\}\}`)

// Personalize renders a message template for one recipient: every
// case-insensitive {{name}} placeholder becomes the recipient's name
// (or FallbackName), and line breaks become <br> so multi-paragraph
// templates render in HTML mail clients. Pure; idempotent once no
// placeholder remains.
func Personalize(template, name string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		n = FallbackName
	}
	out := placeholder.ReplaceAllString(template, n)
	out = strings.ReplaceAll(out, "\r\n", "\n")
	return strings.ReplaceAll(out, "\n", "<br>")
}
