// Package domwalk gives the SVD and ATDF loaders a small, shared vocabulary
// for walking the generic map mxj decodes XML into, instead of each loader
// hand-rolling its own type assertions. It mirrors the dolt xml_importer's
// habit of treating an mxj.Map as the materialized "DOM" and walking it
// directly rather than unmarshalling into dialect-specific structs.
package domwalk

import (
	"strconv"
	"strings"

	"github.com/clbanning/mxj"
)

// Node wraps one position in a decoded document. The zero Node is not
// usable; use Root to start a walk.
type Node struct {
	v interface{}
}

// Root wraps a freshly decoded document (or any sub-map) for walking.
func Root(m mxj.Map) Node { return Node{v: map[string]interface{}(m)} }

// Of wraps an arbitrary decoded value.
func Of(v interface{}) Node { return Node{v: v} }

// Valid reports whether the node wraps anything at all.
func (n Node) Valid() bool { return n.v != nil }

func (n Node) asMap() (map[string]interface{}, bool) {
	m, ok := n.v.(map[string]interface{})
	return m, ok
}

// Child looks up a named element under n. XML attributes are decoded by
// mxj with a "-" prefix, so attribute lookups (see Attr) take precedence
// over same-named elements only when the caller explicitly asks for one.
func (n Node) Child(name string) (Node, bool) {
	m, ok := n.asMap()
	if !ok {
		return Node{}, false
	}
	v, ok := m[name]
	if !ok {
		return Node{}, false
	}
	return Node{v: v}, true
}

// Attr looks up an XML attribute, which mxj decodes under a "-"-prefixed
// key alongside the element's children.
func (n Node) Attr(name string) (string, bool) {
	m, ok := n.asMap()
	if !ok {
		return "", false
	}
	v, ok := m["-"+name]
	if !ok {
		return "", false
	}
	return toString(v), true
}

// Children normalizes n into a slice of nodes: mxj decodes a repeated
// element as []interface{}, but a single occurrence decodes as a bare map,
// so callers would otherwise have to handle both shapes themselves.
func (n Node) Children() []Node {
	switch v := n.v.(type) {
	case nil:
		return nil
	case []interface{}:
		out := make([]Node, len(v))
		for i, e := range v {
			out[i] = Node{v: e}
		}
		return out
	default:
		return []Node{{v: v}}
	}
}

// ChildList is Child followed by Children, the common case of "find the
// repeated element group under this node".
func (n Node) ChildList(name string) []Node {
	c, ok := n.Child(name)
	if !ok {
		return nil
	}
	return c.Children()
}

// Text returns the element's own text content. mxj stores it under
// "#text" when the element also carries attributes or children, or as the
// bare leaf value otherwise.
func (n Node) Text() string {
	if m, ok := n.asMap(); ok {
		if t, ok := m["#text"]; ok {
			return toString(t)
		}
		return ""
	}
	return toString(n.v)
}

// ChildText is Child(name).Text(), the common case of reading a scalar
// element's content.
func (n Node) ChildText(name string) (string, bool) {
	c, ok := n.Child(name)
	if !ok {
		return "", false
	}
	return c.Text(), true
}

// Value reads name as an XML attribute first (the ATDF dialect's
// convention) and falls back to a child element (the SVD dialect's
// convention), so loader code can read a scalar without caring which
// dialect shaped the document.
func (n Node) Value(name string) (string, bool) {
	if v, ok := n.Attr(name); ok {
		return v, true
	}
	return n.ChildText(name)
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return strings.TrimSpace(strconvQuote(t))
	}
}

func strconvQuote(v interface{}) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// ParseInt understands the decimal, 0x-hex, and "#"-prefixed binary forms
// SVD/ATDF use for addresses, offsets, and sizes (e.g. "32", "0x20",
// "#0101"), with an optional leading "-". Hex digits without the "0x"
// prefix are not accepted.
func ParseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var v int64
	var err error
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		v, err = strconv.ParseInt(s[2:], 16, 64)
	case strings.HasPrefix(s, "#"):
		v, err = strconv.ParseInt(s[1:], 2, 64)
	default:
		v, err = strconv.ParseInt(s, 10, 64)
	}
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
