package kanban

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"ficboard/internal/ticket"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// MetaLine is one label/value pair in a card's secondary line.
type MetaLine struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is the summary of one ticket on the board. Index is the ticket's
// position in the Store that was filled alongside the board.
type Card struct {
	Index int        `json:"index"`
	Type  string     `json:"type,omitempty"`
	Title string     `json:"title"`
	Meta  []MetaLine `json:"meta,omitempty"`
}

// BoardColumn is one rendered status column.
type BoardColumn struct {
	Status string `json:"status"`
	Cards  []Card `json:"cards"`
}

// Count is the number of cards in the column.
func (c BoardColumn) Count() int { return len(c.Cards) }

// Board is the rendered column/card structure.
type Board struct {
	Columns []BoardColumn `json:"columns"`
}

// cardMetaFields are shown on a card's secondary line, in this order.
var cardMetaFields = []string{ticket.FieldSprint, ticket.FieldFunction, ticket.FieldCreated}

// RenderBoard builds the board for columns together with a new Store that
// maps every card index to its record.
func RenderBoard(columns []Column) (*Board, *Store) {
	store := NewStore()
	return RenderInto(store, columns), store
}

// RenderInto clears store, then rebuilds the board for columns, adding each
// ticket to store in render order.
func RenderInto(store *Store, columns []Column) *Board {
	store.Reset()
	b := &Board{Columns: make([]BoardColumn, 0, len(columns))}
	for _, col := range columns {
		bc := BoardColumn{Status: col.Status, Cards: make([]Card, 0, len(col.Tickets))}
		for _, t := range col.Tickets {
			bc.Cards = append(bc.Cards, newCard(store.Add(t), t))
		}
		b.Columns = append(b.Columns, bc)
	}
	return b
}

func newCard(index int, t ticket.Ticket) Card {
	c := Card{
		Index: index,
		Type:  t.Text(ticket.FieldType),
		Title: t.Title(),
	}
	for _, f := range cardMetaFields {
		if v := t.Text(f); v != "" {
			c.Meta = append(c.Meta, MetaLine{Label: f, Value: v})
		}
	}
	return c
}

// Len is the number of cards on the board.
func (b *Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += c.Count()
	}
	return n
}

// HTML renders the board's columns as markup for the board mount point.
func (b *Board) HTML() (template.HTML, error) {
	var sb strings.Builder
	if err := templates.ExecuteTemplate(&sb, "board", b); err != nil {
		return "", fmt.Errorf("render board: %w", err)
	}
	return template.HTML(sb.String()), nil
}
