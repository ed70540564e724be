package kanban

import (
	"errors"
	"strings"
	"testing"

	"ficboard/internal/ticket"
)

type fakeSurface struct {
	visible bool
	content string
	shows   int
	hides   int
	failOn  string
}

func (f *fakeSurface) ShowDetail(d *Detail) error {
	if f.failOn == "show" {
		return errors.New("no detail container")
	}
	html, err := d.HTML()
	if err != nil {
		return err
	}
	f.content = string(html)
	f.visible = true
	f.shows++
	return nil
}

func (f *fakeSurface) HideDetail() error {
	if f.failOn == "hide" {
		return errors.New("no detail container")
	}
	f.visible = false
	f.hides++
	return nil
}

func newTestRouter(t *testing.T) (*Router, *fakeSurface, *Board) {
	t.Helper()
	p := DefaultPolicy()
	cols := p.Pipeline([]ticket.Ticket{
		tk("Tickets", "Alpha", "Status", "Intake", "Background", "alpha background"),
		tk("Tickets", "Beta", "Status", "Blocked", "Background", "beta background"),
	})
	board, store := RenderBoard(cols)
	surface := &fakeSurface{}
	return NewRouter(p, store, surface), surface, board
}

func TestRouterOpenCloseReopenShowsOnlyLatest(t *testing.T) {
	t.Parallel()
	r, surface, board := newTestRouter(t)
	alpha := board.Columns[0].Cards[0].Index
	beta := board.Columns[1].Cards[0].Index

	if !r.Dispatch(Activate(CardTarget(alpha))) {
		t.Fatalf("open alpha: no transition")
	}
	if st := r.State(); !st.Open || st.Index != alpha {
		t.Fatalf("want open(%d), got %+v", alpha, st)
	}
	if !strings.Contains(surface.content, "alpha background") {
		t.Fatalf("alpha content missing: %s", surface.content)
	}

	if !r.Dispatch(Activate(CloseTarget())) {
		t.Fatalf("close: no transition")
	}
	if r.State().Open || surface.visible {
		t.Fatalf("want closed, got %+v visible=%v", r.State(), surface.visible)
	}

	r.Dispatch(Activate(CardTarget(beta)))
	if !strings.Contains(surface.content, "beta background") || strings.Contains(surface.content, "alpha") {
		t.Fatalf("residual content after reopen: %s", surface.content)
	}
	if st := r.State(); st.Index != beta {
		t.Fatalf("want open(%d), got %+v", beta, st)
	}
}

func TestRouterOpenReplacesWithoutClose(t *testing.T) {
	t.Parallel()
	r, surface, _ := newTestRouter(t)

	r.Open(0)
	r.Open(1)
	if surface.shows != 2 || surface.hides != 0 {
		t.Fatalf("want 2 shows and no hides, got %d/%d", surface.shows, surface.hides)
	}
	if strings.Contains(surface.content, "Alpha") {
		t.Fatalf("content stacked: %s", surface.content)
	}
}

func TestRouterEscapeAndIdempotentClose(t *testing.T) {
	t.Parallel()
	r, surface, _ := newTestRouter(t)

	if r.Dispatch(KeyDown("Escape")) {
		t.Fatalf("escape while closed caused a transition")
	}
	if surface.hides != 0 {
		t.Fatalf("closed router touched the surface")
	}

	r.Open(1)
	if r.Dispatch(KeyDown("Enter")) {
		t.Fatalf("non-cancel key caused a transition")
	}
	if !r.Dispatch(KeyDown("Escape")) || r.State().Open {
		t.Fatalf("escape did not close")
	}
	if r.Close() {
		t.Fatalf("second close reported a transition")
	}
	if surface.hides != 1 {
		t.Fatalf("want one hide, got %d", surface.hides)
	}
}

func TestRouterUnresolvableIndexIsNoop(t *testing.T) {
	t.Parallel()
	r, surface, _ := newTestRouter(t)

	for _, i := range []int{-1, 2, 99} {
		if r.Dispatch(Activate(CardTarget(i))) {
			t.Fatalf("index %d caused a transition", i)
		}
	}
	if r.Dispatch(Activate(Target{})) {
		t.Fatalf("empty target caused a transition")
	}
	if surface.shows != 0 || r.State().Open {
		t.Fatalf("surface touched for unresolvable index")
	}
}

func TestRouterSurfaceFailureKeepsState(t *testing.T) {
	t.Parallel()
	r, surface, _ := newTestRouter(t)
	surface.failOn = "show"

	if r.Open(0) {
		t.Fatalf("open succeeded without a detail container")
	}
	if r.State().Open {
		t.Fatalf("state changed after failed open")
	}
}

func TestRouterRebindClosesAndSwitchesStore(t *testing.T) {
	t.Parallel()
	r, surface, _ := newTestRouter(t)
	r.Open(1)

	_, fresh := RenderBoard(DefaultPolicy().Pipeline([]ticket.Ticket{
		tk("Tickets", "Gamma", "Status", "Backlog"),
	}))
	r.Rebind(fresh)
	if r.State().Open || surface.visible {
		t.Fatalf("rebind left detail open")
	}
	if r.Open(1) {
		t.Fatalf("old index resolved against new store")
	}
	if !r.Open(0) || !strings.Contains(surface.content, "Gamma") {
		t.Fatalf("new store not used: %s", surface.content)
	}
}
