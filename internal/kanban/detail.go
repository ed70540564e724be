package kanban

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"ficboard/internal/ticket"
)

// MetaBit is one entry of the detail header's meta line.
type MetaBit struct {
	Text   string `json:"text"`
	Strong bool   `json:"strong,omitempty"`
}

// Section is one titled detail section with non-empty rendered content.
type Section struct {
	Name  string        `json:"name"`
	Body  template.HTML `json:"html"`
	Value ticket.Value  `json:"value"`
}

// Detail is the full detail document for one ticket.
type Detail struct {
	Title    string    `json:"title"`
	Meta     []MetaBit `json:"meta,omitempty"`
	Sections []Section `json:"sections"`
}

// metaSeparator joins the header meta line.
const metaSeparator = " · "

// RenderDetail builds the detail document for t: the title, a meta line of
// Type, Status, Sprint and Created (each only when present), then one
// section per field in Classify order. Fields that render empty get no
// section.
func (p Policy) RenderDetail(t ticket.Ticket) *Detail {
	d := &Detail{Title: t.Title()}

	if v := t.Text(ticket.FieldType); v != "" {
		d.Meta = append(d.Meta, MetaBit{Text: v, Strong: true})
	}
	for _, f := range []string{ticket.FieldStatus, ticket.FieldSprint, ticket.FieldCreated} {
		if v := t.Text(f); v != "" {
			d.Meta = append(d.Meta, MetaBit{Text: v})
		}
	}

	for _, name := range p.Classify(t).All() {
		v := t[name]
		body := RenderValue(v)
		if body == "" {
			continue
		}
		d.Sections = append(d.Sections, Section{Name: name, Body: body, Value: v})
	}
	return d
}

// SectionNames returns the section titles in document order.
func (d *Detail) SectionNames() []string {
	names := make([]string, len(d.Sections))
	for i, s := range d.Sections {
		names[i] = s.Name
	}
	return names
}

// HTML renders the detail document. Ticket text reaches the output only
// through the template's escaper or RenderValue.
func (d *Detail) HTML() (template.HTML, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, "detail", d); err != nil {
		return "", fmt.Errorf("render detail: %w", err)
	}
	return template.HTML(sb.String()), nil
}

// Markdown renders the detail document as Markdown for terminal display.
func (d *Detail) Markdown() string {
	var b strings.Builder
	b.WriteString("# " + oneLine(d.Title) + "\n")

	if len(d.Meta) > 0 {
		bits := make([]string, len(d.Meta))
		for i, m := range d.Meta {
			bits[i] = oneLine(m.Text)
			if m.Strong {
				bits[i] = "**" + bits[i] + "**"
			}
		}
		b.WriteString("\n" + strings.Join(bits, metaSeparator) + "\n")
	}

	for _, s := range d.Sections {
		b.WriteString("\n## " + oneLine(s.Name) + "\n\n")
		switch s.Value.Kind() {
		case ticket.KindText:
			b.WriteString(strings.TrimSpace(s.Value.Text()) + "\n")
		case ticket.KindList:
			for i, item := range s.Value.Items() {
				marker := "-"
				if s.Value.ListKind() == ticket.Ordered {
					marker = strconv.Itoa(i+1) + "."
				}
				b.WriteString(marker + " " + oneLine(item) + "\n")
			}
		}
	}
	return b.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
