package kanban

import (
	"log/slog"
	"strings"

	"ficboard/internal/ticket"
)

// Sanitize drops records owned by the excluded owner and returns shallow
// copies of the rest with every excluded field removed. The input slice and
// its records are left untouched.
func (p Policy) Sanitize(tickets []ticket.Ticket) []ticket.Ticket {
	out := make([]ticket.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if p.ExcludedOwner != "" && strings.TrimSpace(t.Text(ticket.FieldOwner)) == p.ExcludedOwner {
			continue
		}
		c := t.Clone()
		if c == nil {
			c = ticket.Ticket{}
		}
		for _, f := range p.ExcludedFields {
			delete(c, f)
		}
		out = append(out, c)
	}
	if dropped := len(tickets) - len(out); dropped > 0 {
		slog.Debug("kanban: dropped tickets by owner", "owner", p.ExcludedOwner, "count", dropped)
	}
	return out
}
