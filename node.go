package mendxml

import (
	"fmt"
	"iter"
	"strings"
)

// Node is one element of a parsed document. Children are owned exclusively
// by their parent. Text holds the raw character content seen while the
// element was open; it is not rendered once the node has children.
type Node struct {
	Name       string
	Attributes *Attributes
	Children   []*Node
	Text       string
}

func NewNode(name string) *Node {
	return &Node{Name: name, Attributes: NewAttributes(), Children: make([]*Node, 0)}
}

func (n *Node) Attr(key string) string {
	value, _ := n.Attributes.Get(key)

	return value
}

// SetAttr sets an attribute, creating the attribute map of a node that was
// not built with NewNode.
func (n *Node) SetAttr(key, value string) {
	if n.Attributes == nil {
		n.Attributes = NewAttributes()
	}

	n.Attributes.Set(key, value)
}

func (n *Node) SelfClosing() bool {
	return len(n.Children) == 0 && n.Text == ""
}

// Describe returns a short single-line form for logs and debugging.
func (n *Node) Describe() string {
	id := ""

	if value, ok := n.Attributes.Get("id"); ok {
		id = "$" + value
	}

	childNames := make([]string, len(n.Children))

	for i, child := range n.Children {
		childNames[i] = child.Name
	}

	return fmt.Sprintf("Node(%s%s, attributes=[%s], children=[%s])",
		n.Name, id, strings.Join(n.Attributes.Keys(), " "), strings.Join(childNames, " "))
}

// Attributes is an insertion-ordered string map. Setting an existing key
// keeps its position and replaces the value.
type Attributes struct {
	keys   []string
	values map[string]string
}

func NewAttributes() *Attributes {
	return &Attributes{values: make(map[string]string)}
}

// Set adds or replaces key. Unlike the readers, it needs a non-nil map; use
// Node.SetAttr on nodes that may lack one.
func (a *Attributes) Set(key, value string) {
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}

	a.values[key] = value
}

func (a *Attributes) Get(key string) (string, bool) {
	if a == nil {
		return "", false
	}

	value, ok := a.values[key]

	return value, ok
}

func (a *Attributes) Has(key string) bool {
	_, ok := a.Get(key)

	return ok
}

func (a *Attributes) Len() int {
	if a == nil {
		return 0
	}

	return len(a.keys)
}

func (a *Attributes) Keys() []string {
	if a == nil {
		return nil
	}

	keys := make([]string, len(a.keys))
	copy(keys, a.keys)

	return keys
}

func (a *Attributes) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if a == nil {
			return
		}

		for _, key := range a.keys {
			if !yield(key, a.values[key]) {
				return
			}
		}
	}
}

// update rewrites every value in place, keeping the order.
func (a *Attributes) update(fn func(string) string) {
	if a == nil {
		return
	}

	for _, key := range a.keys {
		a.values[key] = fn(a.values[key])
	}
}

func (a *Attributes) Clone() *Attributes {
	clone := NewAttributes()

	for key, value := range a.All() {
		clone.Set(key, value)
	}

	return clone
}
