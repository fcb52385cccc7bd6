package mendxml

import "strings"

// entities are the references an '&' may already start; those are kept.
// &quot; is produced by the renderer for values holding both quote kinds.
var entities = []string{"&gt;", "&lt;", "&amp;", "&quot;"}

// Escape rewrites raw '<', '>' and '&' into entity references. An '&' that
// already begins &gt;, &lt;, &amp; or &quot; is left alone, so Escape(Escape(s)) ==
// Escape(s).
func Escape(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 8)

	for index := 0; index < len(s); index++ {
		switch s[index] {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			if isEntityStart(s[index:]) {
				b.WriteByte('&')
			} else {
				b.WriteString("&amp;")
			}
		default:
			b.WriteByte(s[index])
		}
	}

	return b.String()
}

func isEntityStart(s string) bool {
	for _, entity := range entities {
		if strings.HasPrefix(s, entity) {
			return true
		}
	}

	return false
}

// Normalize escapes the text and every attribute value of root and all its
// descendants in place.
func Normalize(root *Node) {
	if root == nil {
		return
	}

	root.Walk(func(n *Node) bool {
		n.Text = Escape(n.Text)
		n.Attributes.update(Escape)

		return true
	})
}
