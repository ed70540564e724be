package kanban

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"ficboard/internal/ticket"
)

// FieldOrder is the detail section order for one ticket.
type FieldOrder struct {
	Preferred []string
	Other     []string
}

// All returns Preferred followed by Other.
func (o FieldOrder) All() []string {
	return slices.Concat(o.Preferred, o.Other)
}

// Classify returns the ticket's detail fields: the preferred fields it
// carries in PreferredFields order, then every remaining non-summary,
// non-excluded field sorted with an English collator.
func (p Policy) Classify(t ticket.Ticket) FieldOrder {
	var order FieldOrder
	for _, f := range p.PreferredFields {
		if !t.Has(f) || p.isSummary(f) || p.isExcluded(f) {
			continue
		}
		order.Preferred = append(order.Preferred, f)
	}

	for f := range t {
		if p.isSummary(f) || p.isExcluded(f) || p.isPreferred(f) {
			continue
		}
		order.Other = append(order.Other, f)
	}
	sortFieldNames(order.Other)
	return order
}

// sortFieldNames orders names the way a reader expects (case and accents are
// secondary), falling back to byte order so equal-collating names still
// produce a stable result. A Collator keeps per-instance buffers, so one is
// built per call.
func sortFieldNames(names []string) {
	c := collate.New(language.English)
	slices.SortFunc(names, func(a, b string) int {
		if r := c.CompareString(a, b); r != 0 {
			return r
		}
		return strings.Compare(a, b)
	})
}
