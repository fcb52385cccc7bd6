package mendxml

import (
	"fmt"
	"iter"
	"strings"
)

// Elements yields the direct children named name, or all of them when name
// is empty. With recursive set the whole subtree is visited depth first,
// each node before its own children.
func (n *Node) Elements(name string, recursive bool) iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		n.children(name, recursive, yield)
	}
}

func (n *Node) children(name string, recursive bool, yield func(*Node) bool) bool {
	for _, c := range n.Children {
		if name == "" || c.Name == name {
			if !yield(c) {
				return false
			}
		}

		if recursive && !c.children(name, recursive, yield) {
			return false
		}
	}

	return true
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips that node's subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

func (n *Node) FindAll(name string) []*Node {
	found := make([]*Node, 0)

	for c := range n.Elements(name, true) {
		found = append(found, c)
	}

	return found
}

func (n *Node) First(name string) *Node {
	for c := range n.Elements(name, true) {
		return c
	}

	return nil
}

// Filter returns the descendants for which keep reports true.
func (n *Node) Filter(keep func(*Node) bool) []*Node {
	found := make([]*Node, 0)

	for c := range n.Elements("", true) {
		if keep(c) {
			found = append(found, c)
		}
	}

	return found
}

// Select runs a small selector over the descendants of n. Qualifiers are a
// tag name, '*', '#id' and '[key]' or '[key=value]', and may be chained
// ("item#sword"). A space selects descendants and '>' direct children:
// "items > item[type=tool] frame".
func (n *Node) Select(query string) ([]*Node, error) {
	steps, err := parseQuery(query)

	if err != nil {
		return nil, err
	}

	current := []*Node{n}

	for _, step := range steps {
		var next []*Node

		for _, t := range current {
			for c := range t.Elements("", !step.direct) {
				if step.matches(c) {
					next = append(next, c)
				}
			}
		}

		current = dedupe(next)

		if len(current) == 0 {
			return nil, nil
		}
	}

	return current, nil
}

type qualifier struct {
	kind  byte
	key   string
	value string
}

type queryStep struct {
	direct     bool
	qualifiers []qualifier
}

func (s queryStep) matches(t *Node) bool {
	for _, q := range s.qualifiers {
		switch q.kind {
		case '*':
		case '#':
			if t.Attr("id") != q.value {
				return false
			}
		case '[':
			if q.value == "" {
				if !t.Attributes.Has(q.key) {
					return false
				}

				continue
			}

			if value, _ := t.Attributes.Get(q.key); value != q.value {
				return false
			}
		default:
			if t.Name != q.value {
				return false
			}
		}
	}

	return true
}

func parseQuery(query string) ([]queryStep, error) {
	var steps []queryStep
	direct := false
	length := len(query)

	for i := 0; i < length; {
		switch query[i] {
		case ' ':
			i++
			continue
		case '>':
			if direct || len(steps) == 0 {
				return nil, fmt.Errorf("invalid query %q: misplaced '>'", query)
			}

			direct = true
			i++
			continue
		}

		step := queryStep{direct: direct}
		direct = false

		for i < length && query[i] != ' ' && query[i] != '>' {
			start := i

			switch query[i] {
			case '*':
				step.qualifiers = append(step.qualifiers, qualifier{kind: '*'})
				i++
			case '#':
				i = getQualifier(query, i+1)
				step.qualifiers = append(step.qualifiers, qualifier{kind: '#', value: query[start+1 : i]})
			case '[':
				end := strings.IndexByte(query[i:], ']')

				if end == -1 {
					return nil, fmt.Errorf("invalid query %q: unterminated '['", query)
				}

				key, value, _ := strings.Cut(query[i+1:i+end], "=")
				step.qualifiers = append(step.qualifiers, qualifier{kind: '[', key: key, value: strings.Trim(value, `"'`)})
				i += end + 1
			default:
				i = getQualifier(query, i)
				step.qualifiers = append(step.qualifiers, qualifier{value: query[start:i]})
			}

			if i == start || (i == start+1 && query[start] == '#') {
				return nil, fmt.Errorf("invalid query %q at offset %d", query, start)
			}
		}

		steps = append(steps, step)
	}

	if direct {
		return nil, fmt.Errorf("invalid query %q: trailing '>'", query)
	}

	return steps, nil
}

func getQualifier(query string, i int) int {
	for ; len(query) > i && isValidQualifierChar(query[i]); i++ {
	}

	return i
}

func isValidQualifierChar(c uint8) bool {
	return ('0' <= c && c <= '9') ||
		('A' <= c && c <= 'Z') ||
		('a' <= c && c <= 'z') ||
		c == '-' || c == '_' || c == '.' || c == ':'
}

func dedupe(tags []*Node) []*Node {
	seen := make(map[*Node]struct{}, len(tags))
	result := make([]*Node, 0, len(tags))

	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}

		seen[t] = struct{}{}
		result = append(result, t)
	}

	return result
}
