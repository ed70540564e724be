// Package surface is the host document the board is rendered into: a board
// mount point, a single detail surface with a close control, and an optional
// embedded data block. Documents are parsed with golang.org/x/net/html and
// mutated in place, the way a browser page is.
package surface

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"ficboard/internal/kanban"
)

// Element ids, class names and markers the host document must provide.
const (
	BoardMountID    = "kanban-root"
	DetailID        = "ficModal"
	DetailContentID = "ficModalContent"
	DataScriptID    = "kanban-data"
	CloseMarker     = "data-close"
	OpenClass       = "is-open"
	CardClass       = "kanban-card"
	CardIndexAttr   = "data-ticket-index"
	closeClass      = "fic-modal__close"
)

// ErrMissingMount is returned when the host document lacks an element the
// operation needs.
var ErrMissingMount = errors.New("mount point not found")

//go:embed assets/index.html
var defaultHost []byte

// Host is the source of a host document. Each call to Document parses a
// fresh copy, so concurrent renders never share a tree.
type Host struct {
	src []byte
}

// DefaultHost returns the built-in host document.
func DefaultHost() *Host { return &Host{src: defaultHost} }

// NewHost wraps host document markup.
func NewHost(src []byte) *Host { return &Host{src: bytes.Clone(src)} }

// LoadHost reads a host document from path, or returns the built-in one when
// path is empty.
func LoadHost(path string) (*Host, error) {
	if path == "" {
		return DefaultHost(), nil
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read host document: %w", err)
	}
	return &Host{src: src}, nil
}

// Document parses a new copy of the host document.
func (h *Host) Document() (*Document, error) {
	return Parse(bytes.NewReader(h.src))
}

// Document is one parsed host document.
type Document struct {
	root *html.Node
}

var _ kanban.DetailSurface = (*Document)(nil)

// Parse reads a host document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse host document: %w", err)
	}
	return &Document{root: root}, nil
}

// ElementByID returns the first element with the given id, or nil.
func (d *Document) ElementByID(id string) *html.Node {
	return findNode(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attrValue(n, "id") == id
	})
}

// EmbeddedData returns the text of the <script id="kanban-data"> block.
func (d *Document) EmbeddedData() ([]byte, bool) {
	n := d.ElementByID(DataScriptID)
	if n == nil {
		return nil, false
	}
	var b bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.Bytes(), true
}

// MountBoard replaces the board mount's content with board.
func (d *Document) MountBoard(board template.HTML) error {
	mount := d.ElementByID(BoardMountID)
	if mount == nil {
		return fmt.Errorf("%w: #%s", ErrMissingMount, BoardMountID)
	}
	return replaceChildren(mount, string(board))
}

// ShowDetail renders detail into the detail surface, replacing its previous
// content, and makes the surface visible.
func (d *Document) ShowDetail(detail *kanban.Detail) error {
	modal := d.ElementByID(DetailID)
	content := d.ElementByID(DetailContentID)
	if modal == nil || content == nil {
		return fmt.Errorf("%w: #%s/#%s", ErrMissingMount, DetailID, DetailContentID)
	}
	markup, err := detail.HTML()
	if err != nil {
		return err
	}
	if err := replaceChildren(content, string(markup)); err != nil {
		return err
	}
	addClass(modal, OpenClass)
	setAttr(modal, "aria-hidden", "false")
	return nil
}

// HideDetail hides the detail surface.
func (d *Document) HideDetail() error {
	modal := d.ElementByID(DetailID)
	if modal == nil {
		return fmt.Errorf("%w: #%s", ErrMissingMount, DetailID)
	}
	removeClass(modal, OpenClass)
	setAttr(modal, "aria-hidden", "true")
	return nil
}

// DetailOpen reports whether the detail surface is visible.
func (d *Document) DetailOpen() bool {
	modal := d.ElementByID(DetailID)
	return modal != nil && hasClass(modal, OpenClass)
}

// FocusTarget is the element that takes focus when the detail opens: the
// close button inside the detail surface.
func (d *Document) FocusTarget() *html.Node {
	modal := d.ElementByID(DetailID)
	if modal == nil {
		return nil
	}
	return findNode(modal, func(n *html.Node) bool { return hasClass(n, closeClass) })
}

// TargetOf resolves what an interaction on n means: the closest ancestor
// card with a record index, or a close control when n carries the close
// marker.
func (d *Document) TargetOf(n *html.Node) kanban.Target {
	for c := n; c != nil; c = c.Parent {
		if !hasClass(c, CardClass) {
			continue
		}
		raw, ok := attr(c, CardIndexAttr)
		if !ok {
			break
		}
		i, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			break
		}
		return kanban.CardTarget(i)
	}
	if n != nil && n.Type == html.ElementNode {
		if _, ok := attr(n, CloseMarker); ok {
			return kanban.CloseTarget()
		}
	}
	return kanban.Target{}
}

// Render writes the document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func replaceChildren(parent *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), parent)
	if err != nil {
		return fmt.Errorf("parse fragment: %w", err)
	}
	for c := parent.FirstChild; c != nil; c = parent.FirstChild {
		parent.RemoveChild(c)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	if root == nil {
		return nil
	}
	if match(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if n := findNode(c, match); n != nil {
			return n
		}
	}
	return nil
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func attrValue(n *html.Node, key string) string {
	v, _ := attr(n, key)
	return v
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func classes(n *html.Node) []string {
	return strings.Fields(attrValue(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	return n.Type == html.ElementNode && slices.Contains(classes(n), class)
}

func addClass(n *html.Node, class string) {
	cs := classes(n)
	if slices.Contains(cs, class) {
		return
	}
	setAttr(n, "class", strings.Join(append(cs, class), " "))
}

func removeClass(n *html.Node, class string) {
	cs := slices.DeleteFunc(classes(n), func(c string) bool { return c == class })
	setAttr(n, "class", strings.Join(cs, " "))
}
