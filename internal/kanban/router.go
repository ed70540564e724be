package kanban

import (
	"log/slog"
)

// DetailSurface is the single place a detail document is shown. ShowDetail
// replaces whatever the surface held before.
type DetailSurface interface {
	ShowDetail(d *Detail) error
	HideDetail() error
}

// Target is what an interaction landed on, as resolved by the surface: a
// card carrying a record index, a close control, or neither.
type Target struct {
	Index    int
	HasIndex bool
	Close    bool
}

// CardTarget is a target inside the card for record index i.
func CardTarget(i int) Target { return Target{Index: i, HasIndex: true} }

// CloseTarget is a target carrying the close marker.
func CloseTarget() Target { return Target{Close: true} }

// EventKind distinguishes activations from key presses.
type EventKind int

const (
	EventActivate EventKind = iota
	EventKey
)

// Event is one user input routed against the board.
type Event struct {
	Kind   EventKind
	Target Target
	Key    string
}

// Activate is a click/enter on target.
func Activate(t Target) Event { return Event{Kind: EventActivate, Target: t} }

// KeyDown is a key press anywhere on the board.
func KeyDown(key string) Event { return Event{Kind: EventKey, Key: key} }

// State is the router's position: closed, or open on a record index.
type State struct {
	Open  bool
	Index int
}

// Router dispatches user input against a rendered board. It is either
// closed or open on exactly one record index.
type Router struct {
	policy  Policy
	store   *Store
	surface DetailSurface
	state   State
}

func NewRouter(policy Policy, store *Store, surface DetailSurface) *Router {
	return &Router{policy: policy, store: store, surface: surface}
}

// State returns the current state.
func (r *Router) State() State { return r.state }

// Rebind points the router at the store of a freshly rendered board. Any
// open detail is closed first since its index belonged to the old store.
func (r *Router) Rebind(store *Store) {
	r.Close()
	r.store = store
}

// Dispatch routes ev and reports whether it caused a transition.
func (r *Router) Dispatch(ev Event) bool {
	switch ev.Kind {
	case EventActivate:
		if ev.Target.HasIndex {
			return r.Open(ev.Target.Index)
		}
		if ev.Target.Close {
			return r.Close()
		}
	case EventKey:
		if isCancelKey(ev.Key) {
			return r.Close()
		}
	}
	return false
}

// Open shows the detail for record i. An index with no record, or a surface
// that cannot show the detail, leaves the state unchanged.
func (r *Router) Open(i int) bool {
	t, ok := r.store.Get(i)
	if !ok {
		slog.Debug("router: no record for index", "index", i)
		return false
	}
	if err := r.surface.ShowDetail(r.policy.RenderDetail(t)); err != nil {
		slog.Error("router: open detail", "index", i, "err", err)
		return false
	}
	r.state = State{Open: true, Index: i}
	return true
}

// Close hides the detail surface. Closing while closed is a no-op.
func (r *Router) Close() bool {
	if !r.state.Open {
		return false
	}
	if err := r.surface.HideDetail(); err != nil {
		slog.Error("router: close detail", "err", err)
		return false
	}
	r.state = State{}
	return true
}

func isCancelKey(key string) bool {
	switch key {
	case "Escape", "esc":
		return true
	default:
		return false
	}
}
