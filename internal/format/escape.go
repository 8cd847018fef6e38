package format

import "strings"

var (
	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&#39;",
	)
	xmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		`"`, "&quot;",
		"<", "&lt;",
		">", "&gt;",
		"'", "&apos;",
	)
)

// EscapeHTML escapes text for HTML element content and attribute values.
func EscapeHTML(s string) string { return htmlEscaper.Replace(s) }

// EscapeXML escapes text for SVG documents.
func EscapeXML(s string) string { return xmlEscaper.Replace(s) }
