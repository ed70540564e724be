// Package ticket defines the ticket record the board is built from: a
// schemaless mapping from field name to a tagged field value.
package ticket

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Field names that carry meaning for the board. Every other field is an
// opaque detail section.
const (
	FieldTitle        = "Tickets"
	FieldStatus       = "Status"
	FieldType         = "Type"
	FieldSprint       = "Sprint"
	FieldFunction     = "Function"
	FieldCreated      = "Created"
	FieldDue          = "Due"
	FieldPriority     = "Priority"
	FieldConsulted    = "Consulted"
	FieldOwner        = "Ticket Owner"
	FieldContributors = "Contributors"
)

// ErrNotArray is returned by Decode when the payload is valid JSON but not an
// array of records.
var ErrNotArray = errors.New("ticket data is not a JSON array")

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNone  Kind = iota // null or absent
	KindText              // free text
	KindList              // bulleted or numbered items
	KindOther             // any other JSON literal (number, boolean)
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindList:
		return "list"
	case KindOther:
		return "other"
	default:
		return "none"
	}
}

// ListKind selects numbered or bulleted rendering for a list value.
type ListKind int

const (
	Unordered ListKind = iota
	Ordered
)

// ParseListKind maps the list-type marker of a typed list to a ListKind.
// Anything other than "ol"/"ordered" (case-insensitive) is unordered.
func ParseListKind(s string) ListKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ol", "ordered":
		return Ordered
	default:
		return Unordered
	}
}

// Value is one field's value. The zero Value is KindNone.
type Value struct {
	kind  Kind
	text  string
	list  ListKind
	items []string
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// List returns a list value with the given items.
func List(kind ListKind, items ...string) Value {
	return Value{kind: KindList, list: kind, items: slices.Clone(items)}
}

// Other returns a value for a JSON literal the board has no rendering for.
// raw is kept so header lines can still show it.
func Other(raw string) Value { return Value{kind: KindOther, text: raw} }

func (v Value) Kind() Kind         { return v.kind }
func (v Value) ListKind() ListKind { return v.list }
func (v Value) IsZero() bool       { return v.kind == KindNone }

// Text returns the text of a text value or the literal of an Other value.
// Lists and None yield "".
func (v Value) Text() string {
	if v.kind == KindText || v.kind == KindOther {
		return v.text
	}
	return ""
}

// Items returns a copy of a list value's items.
func (v Value) Items() []string {
	if v.kind != KindList {
		return nil
	}
	return slices.Clone(v.items)
}

// Equal reports whether two values hold the same variant and content.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.text == o.text && v.list == o.list && slices.Equal(v.items, o.items)
}

// UnmarshalJSON never fails on well-formed JSON: shapes that are not text,
// a list or a typed-list object become Other.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*v = Value{}
		return nil
	}
	switch data[0] {
	case 'n':
		*v = Value{}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*v = Other(string(data))
			return nil
		}
		*v = Text(s)
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			*v = Other(string(data))
			return nil
		}
		*v = Value{kind: KindList, list: Unordered, items: stringifyItems(raw)}
	case '{':
		var typed struct {
			Type  json.RawMessage `json:"type"`
			Kind  json.RawMessage `json:"kind"`
			Items json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(data, &typed); err != nil {
			*v = Other(string(data))
			return nil
		}
		marker := jsonString(typed.Type)
		if marker == "" {
			marker = jsonString(typed.Kind)
		}
		var raw []json.RawMessage
		// A non-array items member is treated as an empty list.
		if err := json.Unmarshal(typed.Items, &raw); err != nil {
			raw = nil
		}
		*v = Value{kind: KindList, list: ParseListKind(marker), items: stringifyItems(raw)}
	default:
		*v = Other(string(data))
	}
	return nil
}

// jsonString returns raw's value when it is a JSON string, else "".
func jsonString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindOther:
		return []byte(v.text), nil
	case KindList:
		items := v.items
		if items == nil {
			items = []string{}
		}
		if v.list == Ordered {
			return json.Marshal(struct {
				Type  string   `json:"type"`
				Items []string `json:"items"`
			}{"ol", items})
		}
		return json.Marshal(items)
	default:
		return []byte("null"), nil
	}
}

func stringifyItems(raw []json.RawMessage) []string {
	items := make([]string, 0, len(raw))
	for _, r := range raw {
		r = bytes.TrimSpace(r)
		var s string
		if len(r) > 0 && r[0] == '"' && json.Unmarshal(r, &s) == nil {
			items = append(items, s)
			continue
		}
		items = append(items, string(r))
	}
	return items
}

// Ticket is one work item: field name to value.
type Ticket map[string]Value

// Text returns the text of field, or "" when absent or not text.
func (t Ticket) Text(field string) string { return t[field].Text() }

// Has reports whether field is present, including explicit nulls.
func (t Ticket) Has(field string) bool {
	_, ok := t[field]
	return ok
}

// Title is the ticket's display key.
func (t Ticket) Title() string { return t.Text(FieldTitle) }

// Clone returns a shallow copy of t.
func (t Ticket) Clone() Ticket { return maps.Clone(t) }

// Fields returns the ticket's field names in byte order.
func (t Ticket) Fields() []string {
	return slices.Sorted(maps.Keys(t))
}

// Decode parses a JSON array of ticket records. Elements that are not JSON
// objects are skipped; a payload that is not an array yields ErrNotArray.
func Decode(data []byte) ([]Ticket, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, ErrNotArray
		}
		return nil, fmt.Errorf("decode tickets: %w", err)
	}
	if raw == nil {
		return nil, ErrNotArray
	}

	tickets := make([]Ticket, 0, len(raw))
	for i, r := range raw {
		r = bytes.TrimSpace(r)
		if len(r) == 0 || r[0] != '{' {
			continue
		}
		var t Ticket
		if err := json.Unmarshal(r, &t); err != nil {
			return nil, fmt.Errorf("decode ticket %d: %w", i, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
