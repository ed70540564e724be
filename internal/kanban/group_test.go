package kanban

import (
	"bytes"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"ficboard/internal/ticket"
)

func tk(fields ...string) ticket.Ticket {
	t := ticket.Ticket{}
	for i := 0; i+1 < len(fields); i += 2 {
		t[fields[i]] = ticket.Text(fields[i+1])
	}
	return t
}

func TestSanitizeDropsExcludedOwner(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	in := []ticket.Ticket{
		tk("Tickets", "T1", "Status", "Blocked", "Ticket Owner", "  Tech Fleet "),
		tk("Tickets", "T2", "Status", "Blocked", "Ticket Owner", "Alice", "Contributors", "Bob"),
		tk("Tickets", "T3", "Status", "Blocked", "Ticket Owner", "tech fleet"),
	}
	out := p.Sanitize(in)

	if len(out) != 2 {
		t.Fatalf("want 2 tickets, got %d", len(out))
	}
	for _, rec := range out {
		if rec.Text("Ticket Owner") == "Tech Fleet" {
			t.Fatalf("excluded owner survived: %+v", rec)
		}
		for _, f := range p.ExcludedFields {
			if rec.Has(f) {
				t.Fatalf("excluded field %q survived in %q", f, rec.Title())
			}
		}
	}
	if out[0].Title() != "T2" || out[1].Title() != "T3" {
		t.Fatalf("unexpected order %q, %q", out[0].Title(), out[1].Title())
	}
}

func TestSanitizeDoesNotMutateInput(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	rec := tk("Tickets", "T", "Ticket Owner", "Alice", "Contributors", "Bob")
	in := []ticket.Ticket{rec}
	_ = p.Sanitize(in)

	if !rec.Has("Ticket Owner") || !rec.Has("Contributors") {
		t.Fatalf("input record was mutated: %+v", rec)
	}
}

func TestGroupOrdersColumnsByPriority(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	in := []ticket.Ticket{
		tk("Tickets", "b1", "Status", "Blocked"),
		tk("Tickets", "i1", "Status", "Intake"),
		tk("Tickets", "w1", "Status", " Writing Requirements "),
		tk("Tickets", "b2", "Status", "Blocked"),
		tk("Tickets", "u1", "Status", "Somewhere Else"),
		tk("Tickets", "   ", "Status", "Intake"),
		tk("Tickets", "d1", "Status", "Complete (Disneyland)"),
		tk("Tickets", "d2", "Status", "Complete 🙌 (Disneyland)"),
		tk("Status", "Intake"),
	}
	cols := p.Group(in)

	var statuses []string
	for _, c := range cols {
		statuses = append(statuses, c.Status)
		if len(c.Tickets) == 0 {
			t.Fatalf("empty column %q", c.Status)
		}
		if !slices.Contains(p.ColumnOrder, c.Status) {
			t.Fatalf("column %q not in priority list", c.Status)
		}
	}
	want := []string{"Writing Requirements", "Intake", "Blocked"}
	if !slices.Equal(statuses, want) {
		t.Fatalf("want columns %q, got %q", want, statuses)
	}

	blocked := cols[2].Tickets
	if len(blocked) != 2 || blocked[0].Title() != "b1" || blocked[1].Title() != "b2" {
		t.Fatalf("want blocked [b1 b2] in input order, got %+v", blocked)
	}
	if len(cols[1].Tickets) != 1 {
		t.Fatalf("blank-title ticket leaked into Intake: %+v", cols[1].Tickets)
	}
}

func TestGroupHiddenStatusProducesNoColumn(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	var in []ticket.Ticket
	for range 5 {
		in = append(in, tk("Tickets", "done", "Status", "Complete (Disneyland)"))
	}
	if cols := p.Group(in); len(cols) != 0 {
		t.Fatalf("want no columns, got %+v", cols)
	}
}

// Not parallel: swaps the default logger.
func TestGroupLogsUnplacedStatusesInOrder(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	in := []ticket.Ticket{
		tk("Tickets", "z", "Status", "Zeta"),
		tk("Tickets", "m", "Status", "Mu"),
		tk("Tickets", "a", "Status", "Alpha"),
		tk("Tickets", "b", "Status", "Blocked"),
	}
	for range 5 {
		buf.Reset()
		cols := DefaultPolicy().Group(in)
		if len(cols) != 1 || cols[0].Status != "Blocked" {
			t.Fatalf("want only Blocked column, got %+v", cols)
		}
		var statuses []string
		for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
			if _, rest, ok := strings.Cut(line, "status="); ok {
				statuses = append(statuses, strings.Fields(rest)[0])
			}
		}
		if want := []string{"Alpha", "Mu", "Zeta"}; !slices.Equal(statuses, want) {
			t.Fatalf("want log order %q, got %q", want, statuses)
		}
	}
}

func TestPipelineTechFleetScenario(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	cols := p.Pipeline([]ticket.Ticket{
		tk("Tickets", "T1", "Status", "Blocked", "Ticket Owner", "Tech Fleet"),
		tk("Tickets", "T2", "Status", "Blocked", "Ticket Owner", "Alice"),
	})
	board, store := RenderBoard(cols)

	if len(board.Columns) != 1 || board.Columns[0].Status != "Blocked" {
		t.Fatalf("want one Blocked column, got %+v", board.Columns)
	}
	cards := board.Columns[0].Cards
	if len(cards) != 1 || cards[0].Title != "T2" {
		t.Fatalf("want single card T2, got %+v", cards)
	}
	rec, ok := store.Get(cards[0].Index)
	if !ok || rec.Title() != "T2" {
		t.Fatalf("store lookup for card: %v %+v", ok, rec)
	}
	if rec.Has("Ticket Owner") {
		t.Fatalf("stored record kept owner field")
	}
}
