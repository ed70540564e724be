package kanban

import (
	"html"
	"html/template"
	"regexp"
	"strings"

	"ficboard/internal/ticket"
)

// urlPattern matches web and mail links in already-escaped text. Escaped
// text never contains '<', so a link always ends before the next tag.
var urlPattern = regexp.MustCompile(`(?i)\b((?:https?://|mailto:)[^\s<]+)\b`)

const linkTemplate = `<a href="$1" target="_blank" rel="noopener noreferrer">$1</a>`

// escapeText escapes the five markup-significant characters & < > " '.
func escapeText(s string) string {
	return html.EscapeString(s)
}

// linkify wraps URL-like substrings of escaped text in anchors that open in
// a new browsing context without leaking the opener or referrer.
func linkify(escaped string) string {
	return urlPattern.ReplaceAllString(escaped, linkTemplate)
}

// RenderValue renders one field value as a safe HTML fragment. Text becomes
// a linkified paragraph, lists become <ul>/<ol>. None, blank text, empty
// lists and unrecognized shapes render as "", which callers treat as "omit
// this field".
func RenderValue(v ticket.Value) template.HTML {
	switch v.Kind() {
	case ticket.KindText:
		s := strings.TrimSpace(v.Text())
		if s == "" {
			return ""
		}
		return template.HTML("<p>" + linkify(escapeText(s)) + "</p>")
	case ticket.KindList:
		return renderList(v.ListKind(), v.Items())
	default:
		return ""
	}
}

func renderList(kind ticket.ListKind, items []string) template.HTML {
	if len(items) == 0 {
		return ""
	}
	tag := "ul"
	if kind == ticket.Ordered {
		tag = "ol"
	}

	var b strings.Builder
	b.WriteString("<" + tag + ">")
	for _, item := range items {
		b.WriteString("<li>")
		b.WriteString(escapeText(item))
		b.WriteString("</li>")
	}
	b.WriteString("</" + tag + ">")
	return template.HTML(b.String())
}
