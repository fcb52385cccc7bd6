package mendxml

import (
	"fmt"
	"strings"
	"unicode"
)

type Option func(*Parser)

// WithStrictClose makes a closing tag match only when its whole name equals
// the open tag's name. By default the open name is compared as a literal
// prefix, so </ab> also closes <a>; strict mode reports that as
// ErrMalformedTag instead.
func WithStrictClose() Option {
	return func(p *Parser) {
		p.strictClose = true
	}
}

// DefaultMaxDepth is the nesting bound the command line and batch runs use
// unless configured otherwise.
const DefaultMaxDepth = 10000

// WithMaxDepth bounds element nesting. Zero or less means unbounded.
func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		p.maxDepth = depth
	}
}

// Parser holds parse settings only and can be shared between goroutines;
// each call works on its own cursor.
type Parser struct {
	strictClose bool
	maxDepth    int
}

func NewParser(opts ...Option) *Parser {
	parser := &Parser{}

	for _, opt := range opts {
		opt(parser)
	}

	return parser
}

// String describes the settings, for example "strict_close=false max_depth=0".
func (p *Parser) String() string {
	return fmt.Sprintf("strict_close=%t max_depth=%d", p.strictClose, p.maxDepth)
}

func Parse(data []byte, opts ...Option) (*Node, error) {
	return NewParser(opts...).Parse(data)
}

func ParseString(text string, opts ...Option) (*Node, error) {
	return NewParser(opts...).ParseString(text)
}

func (p *Parser) Parse(data []byte) (*Node, error) {
	return p.ParseString(string(data))
}

// ParseString returns the first root element of text. Headers, comments and
// declarations before the root are skipped and anything after it is ignored.
func (p *Parser) ParseString(text string) (*Node, error) {
	c := newCursor(text)

	for {
		r, err := c.pop()

		if err != nil {
			return nil, err
		}

		if r != '<' {
			continue
		}

		switch {
		case c.peekIs("?"):
			err = c.skipThrough("?>")
		case c.peekIs("!--"):
			c.skip("!--")
			err = c.skipThrough("-->")
		case c.peekIs("!"):
			err = c.skipThrough(">")
		default:
			if next, ok := c.peekRune(); ok && isNameStart(next) {
				return p.parseElement(c, 1)
			}
		}

		if err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseElement(c *cursor, depth int) (*Node, error) {
	if p.maxDepth > 0 && depth > p.maxDepth {
		return nil, c.failf(ErrDepthLimit, "more than %d nested elements", p.maxDepth)
	}

	name, terminator, err := readTagName(c)

	if err != nil {
		return nil, err
	}

	node := NewNode(name)
	hasBody := false

	switch {
	case terminator == '>':
		hasBody = true
	case terminator == '/':
		if !c.peekIs(">") {
			return nil, c.failf(ErrMalformedTag, "expected '>' after '<%s/'", name)
		}

		c.skip(">")
	default:
		hasBody, err = parseAttributes(c, node.Attributes)

		if err != nil {
			return nil, err
		}
	}

	if !hasBody {
		return node, nil
	}

	node.Children, node.Text, err = p.parseBody(c, name, depth)

	if err != nil {
		return nil, err
	}

	return node, nil
}

func readTagName(c *cursor) (string, rune, error) {
	var name strings.Builder

	for {
		r, err := c.pop()

		if err != nil {
			return "", 0, err
		}

		isTerminator := unicode.IsSpace(r) || r == '/' || r == '>'

		if !isTerminator {
			name.WriteRune(r)
			continue
		}

		if name.Len() == 0 {
			return "", 0, c.failf(ErrMalformedTag, "empty tag name")
		}

		return name.String(), r, nil
	}
}

func (p *Parser) parseBody(c *cursor, name string, depth int) ([]*Node, string, error) {
	children := make([]*Node, 0)
	var text strings.Builder

	for {
		r, err := c.pop()

		if err != nil {
			return nil, "", err
		}

		if r != '<' {
			text.WriteRune(r)
			continue
		}

		next, ok := c.peekRune()

		if !ok {
			return nil, "", c.fail(ErrUnexpectedEnd)
		}

		switch {
		case next == '!':
			if err := c.skipThrough("-->"); err != nil {
				return nil, "", err
			}

		case next == '/':
			if !p.closes(c, name) {
				return nil, "", c.failf(ErrMalformedTag, "unexpected closing tag inside <%s>", name)
			}

			if err := c.skipThrough(">"); err != nil {
				return nil, "", err
			}

			return children, text.String(), nil

		case isNameStart(next):
			child, err := p.parseElement(c, depth+1)

			if err != nil {
				return nil, "", err
			}

			children = append(children, child)

		default:
			text.WriteRune(r)
		}
	}
}

// closes reports whether the cursor sits on the closing tag of name.
func (p *Parser) closes(c *cursor, name string) bool {
	if !c.peekIs("/" + name) {
		return false
	}

	if !p.strictClose {
		return true
	}

	window, ok := c.peek(len([]rune(name)) + 2)

	if !ok {
		return true
	}

	after := []rune(window)[len([]rune(window))-1]

	return after == '>' || unicode.IsSpace(after)
}

func isNameStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_' || r == ':'
}
