// Package kanban turns a flat list of ticket records into a status-grouped
// board and per-ticket detail documents.
//
// The pipeline is Sanitize → Group → RenderBoard, with RenderDetail invoked
// on demand through a Router. All rendering policy (which statuses become
// columns, which fields are hidden, the detail section order) lives in a
// Policy value; DefaultPolicy returns the board's fixed configuration.
package kanban

import (
	"slices"

	"ficboard/internal/ticket"
)

// Policy is the fixed rendering configuration consumed by the grouper, the
// field selector and the renderers.
type Policy struct {
	// ColumnOrder lists the statuses that get a column, in display order.
	ColumnOrder []string
	// HiddenStatuses are never displayed.
	HiddenStatuses []string
	// ExcludedFields are stripped from every record during sanitizing.
	ExcludedFields []string
	// SummaryFields appear on cards and headers only, never as sections.
	SummaryFields []string
	// PreferredFields are detail sections rendered first, in this order.
	PreferredFields []string
	// ExcludedOwner drops every record owned by it.
	ExcludedOwner string
}

// DefaultPolicy returns the board's standard configuration.
func DefaultPolicy() Policy {
	return Policy{
		ColumnOrder: []string{
			"Writing Requirements",
			"Reviewing with Team",
			"Sprint Planning",
			"Planned",
			"Sprint In Progress",
			"Client Review",
			"Backlog",
			"Intake",
			"Blocked",
		},
		HiddenStatuses: []string{"Complete 🙌 (Disneyland)", "Complete (Disneyland)"},
		ExcludedFields: []string{ticket.FieldContributors, ticket.FieldOwner},
		SummaryFields:  []string{ticket.FieldTitle, ticket.FieldType, ticket.FieldStatus},
		PreferredFields: []string{
			"User Stories",
			"Background",
			"Problem to Solve",
			"Task Goals",
			"Task Scope",
			"Expected Outcomes",
			"Supported Use Cases",
			"Acceptance Criteria",
			ticket.FieldSprint,
			ticket.FieldFunction,
			ticket.FieldConsulted,
			ticket.FieldCreated,
			ticket.FieldDue,
			ticket.FieldPriority,
		},
		ExcludedOwner: "Tech Fleet",
	}
}

func (p Policy) isHidden(status string) bool   { return slices.Contains(p.HiddenStatuses, status) }
func (p Policy) isExcluded(field string) bool  { return slices.Contains(p.ExcludedFields, field) }
func (p Policy) isSummary(field string) bool   { return slices.Contains(p.SummaryFields, field) }
func (p Policy) isPreferred(field string) bool { return slices.Contains(p.PreferredFields, field) }
