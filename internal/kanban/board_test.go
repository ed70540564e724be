package kanban

import (
	"strconv"
	"strings"
	"testing"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ficboard/internal/ticket"
)

func TestRenderBoardIndexesCardsInRenderOrder(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	in := []ticket.Ticket{
		tk("Tickets", "late", "Status", "Blocked"),
		tk("Tickets", "early", "Status", "Writing Requirements", "Type", "Epic", "Sprint", "S1", "Created", "2024-02-01"),
		tk("Tickets", "middle", "Status", "Planned", "Function", "Design"),
	}
	board, store := RenderBoard(p.Pipeline(in))

	if board.Len() != 3 || store.Len() != 3 {
		t.Fatalf("want 3 cards and records, got %d/%d", board.Len(), store.Len())
	}
	wantTitles := []string{"early", "middle", "late"}
	i := 0
	for _, col := range board.Columns {
		for _, card := range col.Cards {
			if card.Index != i {
				t.Fatalf("card %q: want index %d, got %d", card.Title, i, card.Index)
			}
			rec, _ := store.Get(card.Index)
			if rec.Title() != wantTitles[i] || card.Title != wantTitles[i] {
				t.Fatalf("index %d: want %q, got card %q record %q", i, wantTitles[i], card.Title, rec.Title())
			}
			i++
		}
	}

	early := board.Columns[0].Cards[0]
	if early.Type != "Epic" {
		t.Fatalf("want type badge Epic, got %q", early.Type)
	}
	if len(early.Meta) != 2 || early.Meta[0] != (MetaLine{"Sprint", "S1"}) || early.Meta[1] != (MetaLine{"Created", "2024-02-01"}) {
		t.Fatalf("unexpected meta %+v", early.Meta)
	}
}

func TestRenderIntoClearsStore(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	store := NewStore()
	RenderInto(store, p.Pipeline([]ticket.Ticket{
		tk("Tickets", "a", "Status", "Intake"),
		tk("Tickets", "b", "Status", "Intake"),
	}))
	board := RenderInto(store, p.Pipeline([]ticket.Ticket{
		tk("Tickets", "c", "Status", "Backlog"),
	}))

	if store.Len() != 1 {
		t.Fatalf("want store rebuilt to 1 record, got %d", store.Len())
	}
	if rec, _ := store.Get(0); rec.Title() != "c" {
		t.Fatalf("want record c, got %q", rec.Title())
	}
	if _, ok := store.Get(1); ok {
		t.Fatalf("stale record still resolvable")
	}
	if len(board.Columns) != 1 || board.Columns[0].Status != "Backlog" {
		t.Fatalf("board not rebuilt: %+v", board.Columns)
	}
}

func TestBoardHTMLStructure(t *testing.T) {
	t.Parallel()
	p := DefaultPolicy()

	board, _ := RenderBoard(p.Pipeline([]ticket.Ticket{
		tk("Tickets", `<img src=x onerror="boom">`, "Status", "Intake", "Type", "Bug", "Sprint", "S2"),
		tk("Tickets", "second", "Status", "Intake"),
		tk("Tickets", "third", "Status", "Blocked"),
	}))
	out, err := board.HTML()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(string(out), "<img") {
		t.Fatalf("title inserted unescaped: %s", out)
	}

	nodes, err := html.ParseFragment(strings.NewReader(string(out)), &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div})
	if err != nil {
		t.Fatalf("parse board: %v", err)
	}

	var sections []*html.Node
	for _, n := range nodes {
		if n.Type == html.ElementNode && n.Data == "section" {
			sections = append(sections, n)
		}
	}
	if len(sections) != 2 {
		t.Fatalf("want 2 column sections, got %d", len(sections))
	}
	if got := attr(sections[0], "aria-label"); got != "Intake" {
		t.Fatalf("want first column Intake, got %q", got)
	}
	count := find(sections[0], func(n *html.Node) bool { return hasClass(n, "count") })
	if count == nil || text(count) != "2" {
		t.Fatalf("want count 2 in Intake header")
	}

	var indices []string
	walk(nodes, func(n *html.Node) {
		if hasClass(n, "kanban-card") {
			indices = append(indices, attr(n, "data-ticket-index"))
		}
	})
	if strings.Join(indices, ",") != "0,1,2" {
		t.Fatalf("want card indices 0,1,2, got %v", indices)
	}

	first := find(sections[0], func(n *html.Node) bool { return hasClass(n, "kanban-card") })
	if badge := find(first, func(n *html.Node) bool { return hasClass(n, "type") }); badge == nil || text(badge) != "Bug" {
		t.Fatalf("missing type badge")
	}
	if meta := find(first, func(n *html.Node) bool { return hasClass(n, "meta") }); meta == nil || !strings.Contains(text(meta), "Sprint: S2") {
		t.Fatalf("missing sprint meta line")
	}
	second := find(sections[0], func(n *html.Node) bool {
		return hasClass(n, "kanban-card") && attr(n, "data-ticket-index") == strconv.Itoa(1)
	})
	if find(second, func(n *html.Node) bool { return hasClass(n, "meta") }) != nil {
		t.Fatalf("meta block rendered for card without meta fields")
	}
}

func walk(nodes []*html.Node, fn func(*html.Node)) {
	for _, n := range nodes {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk([]*html.Node{c}, fn)
		}
	}
}

func find(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk([]*html.Node{root}, func(n *html.Node) {
		if found == nil && match(n) {
			found = n
		}
	})
	return found
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func text(n *html.Node) string {
	var b strings.Builder
	walk([]*html.Node{n}, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return strings.TrimSpace(b.String())
}
