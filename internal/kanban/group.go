package kanban

import (
	"log/slog"
	"maps"
	"slices"
	"strings"

	"ficboard/internal/ticket"
)

// Column is the set of tickets sharing one status, in input order.
type Column struct {
	Status  string          `json:"status"`
	Tickets []ticket.Ticket `json:"tickets"`
}

// Group buckets tickets by trimmed status and returns one column per status
// in ColumnOrder. Tickets with a blank title or a hidden status are dropped,
// as are tickets whose status has no place in ColumnOrder. Statuses with no
// surviving tickets get no column.
func (p Policy) Group(tickets []ticket.Ticket) []Column {
	buckets := make(map[string][]ticket.Ticket)
	for _, t := range tickets {
		title := strings.TrimSpace(t.Title())
		status := strings.TrimSpace(t.Text(ticket.FieldStatus))
		if title == "" || p.isHidden(status) {
			continue
		}
		buckets[status] = append(buckets[status], t)
	}

	columns := make([]Column, 0, len(p.ColumnOrder))
	for _, status := range p.ColumnOrder {
		rows := buckets[status]
		delete(buckets, status)
		if len(rows) == 0 {
			continue
		}
		columns = append(columns, Column{Status: status, Tickets: rows})
	}

	for _, status := range slices.Sorted(maps.Keys(buckets)) {
		slog.Debug("kanban: status has no column", "status", status, "tickets", len(buckets[status]))
	}
	return columns
}

// Pipeline sanitizes raw records and groups the survivors.
func (p Policy) Pipeline(raw []ticket.Ticket) []Column {
	return p.Group(p.Sanitize(raw))
}
