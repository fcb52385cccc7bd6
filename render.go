package mendxml

import (
	"io"
	"strings"
)

const DefaultIndent = "    "

type RenderOptions struct {
	// Indent is prepended once per nesting level. Empty means DefaultIndent.
	Indent string
}

func (o RenderOptions) indent() string {
	if o.Indent == "" {
		return DefaultIndent
	}

	return o.Indent
}

func (n *Node) String() string {
	return Render(n)
}

func Render(n *Node) string {
	return RenderWith(n, RenderOptions{})
}

// RenderWith serializes n. Children are rendered one per line and indented
// below the open tag, in which case Text is dropped. Multi-line text is
// dedented, trimmed and indented as a block; single-line text stays inline;
// a node with neither renders self-closing.
func RenderWith(n *Node, opts RenderOptions) string {
	var b strings.Builder
	renderNode(&b, n, opts.indent())

	return b.String()
}

func RenderTo(w io.Writer, n *Node, opts RenderOptions) error {
	_, err := io.WriteString(w, RenderWith(n, opts)+"\n")

	return err
}

func renderNode(b *strings.Builder, n *Node, unit string) {
	b.WriteByte('<')
	b.WriteString(n.Name)

	for key, value := range n.Attributes.All() {
		b.WriteByte(' ')
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(quoteAttribute(value))
	}

	switch {
	case len(n.Children) > 0:
		rendered := make([]string, len(n.Children))

		for i, child := range n.Children {
			var inner strings.Builder
			renderNode(&inner, child, unit)
			rendered[i] = inner.String()
		}

		b.WriteString(">\n")
		b.WriteString(indentLines(strings.Join(rendered, "\n"), unit))
		b.WriteString("\n</")
		b.WriteString(n.Name)
		b.WriteByte('>')

	case strings.Contains(n.Text, "\n"):
		b.WriteString(">\n")
		b.WriteString(indentLines(strings.TrimSpace(dedent(n.Text)), unit))
		b.WriteString("\n</")
		b.WriteString(n.Name)
		b.WriteByte('>')

	case n.Text != "":
		b.WriteByte('>')
		b.WriteString(n.Text)
		b.WriteString("</")
		b.WriteString(n.Name)
		b.WriteByte('>')

	default:
		b.WriteString("/>")
	}
}

// quoteAttribute wraps value in double quotes, or in single quotes when it
// holds a double quote. A value holding both kinds gets its double quotes
// written as &quot;.
func quoteAttribute(value string) string {
	switch {
	case !strings.Contains(value, `"`):
		return `"` + value + `"`
	case !strings.Contains(value, "'"):
		return "'" + value + "'"
	default:
		return `"` + strings.ReplaceAll(value, `"`, "&quot;") + `"`
	}
}

// indentLines prefixes every line that is not blank.
func indentLines(text, prefix string) string {
	lines := strings.SplitAfter(text, "\n")

	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}

	return strings.Join(lines, "")
}

// dedent removes the longest run of leading spaces and tabs shared by all
// non-blank lines. Blank lines are emptied and do not count.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	margin := ""
	marginSet := false

	for i, line := range lines {
		if strings.Trim(line, " \t") == "" {
			lines[i] = ""
			continue
		}

		leading := line[:len(line)-len(strings.TrimLeft(line, " \t"))]

		if !marginSet {
			margin, marginSet = leading, true
			continue
		}

		margin = commonPrefix(margin, leading)
	}

	if margin == "" {
		return strings.Join(lines, "\n")
	}

	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, margin)
	}

	return strings.Join(lines, "\n")
}

func commonPrefix(a, b string) string {
	length := min(len(a), len(b))

	for i := 0; i < length; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:length]
}
