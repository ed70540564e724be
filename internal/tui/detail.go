package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"

	"ficboard/internal/kanban"
)

// detailPane is the terminal detail surface. It holds one rendered ticket
// at a time in a scrollable viewport.
type detailPane struct {
	viewport viewport.Model
	style    string
	visible  bool
	title    string
	markdown string
}

var _ kanban.DetailSurface = (*detailPane)(nil)

func newDetailPane(style string) *detailPane {
	return &detailPane{viewport: viewport.New(76, 20), style: style}
}

// ShowDetail replaces the pane content with d and makes it visible.
func (p *detailPane) ShowDetail(d *kanban.Detail) error {
	p.title = d.Title
	p.markdown = d.Markdown()
	p.rerender()
	p.viewport.GotoTop()
	p.visible = true
	return nil
}

// HideDetail hides the pane and drops its content.
func (p *detailPane) HideDetail() error {
	p.visible = false
	p.title = ""
	p.markdown = ""
	p.viewport.SetContent("")
	return nil
}

func (p *detailPane) resize(width, height int) {
	p.viewport.Width = width
	p.viewport.Height = max(height, 1)
	if p.visible {
		p.rerender()
	}
}

func (p *detailPane) rerender() {
	rendered, err := RenderMarkdown(p.markdown, p.viewport.Width, p.style)
	if err != nil {
		rendered = p.markdown
	}
	p.viewport.SetContent(rendered)
}

// RenderMarkdown renders text as terminal-styled markdown via glamour.
// style is a glamour standard style name, or "auto" to detect the
// terminal background.
func RenderMarkdown(text string, width int, style string) (string, error) {
	if width < 40 {
		width = 76
	}
	styleOpt := glamour.WithStandardStyle(style)
	if style == "auto" {
		styleOpt = glamour.WithAutoStyle()
	}
	r, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	rendered, err := r.Render(text)
	if err != nil {
		return "", err
	}
	// Trim trailing newlines that glamour adds.
	return strings.TrimRight(rendered, "\n"), nil
}
