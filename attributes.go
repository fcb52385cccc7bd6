package mendxml

import (
	"strings"
	"unicode"
)

// parseAttributes reads name="value" pairs until the start tag ends and
// reports whether the element has a body. Values are taken verbatim up to
// the quote character that opened them.
func parseAttributes(c *cursor, attributes *Attributes) (bool, error) {
	var name strings.Builder
	separated := false

	for {
		r, err := c.pop()

		if err != nil {
			return false, err
		}

		switch {
		case r == '=':
			if name.Len() == 0 {
				return false, c.failf(ErrMalformedAttribute, "missing attribute name before '='")
			}

			value, err := readAttributeValue(c, name.String())

			if err != nil {
				return false, err
			}

			attributes.Set(name.String(), value)
			name.Reset()
			separated = false

		case r == '/':
			if !c.peekIs(">") {
				return false, c.failf(ErrMalformedAttribute, "expected '>' after '/'")
			}

			c.skip(">")

			if name.Len() > 0 {
				return false, c.failf(ErrMalformedAttribute, "missing '=' after attribute %q", name.String())
			}

			return false, nil

		case r == '>':
			if name.Len() > 0 {
				return false, c.failf(ErrMalformedAttribute, "missing '=' after attribute %q", name.String())
			}

			return true, nil

		case unicode.IsSpace(r):
			separated = name.Len() > 0

		default:
			if separated {
				return false, c.failf(ErrMalformedAttribute, "missing '=' after attribute %q", name.String())
			}

			name.WriteRune(r)
		}
	}
}

func readAttributeValue(c *cursor, name string) (string, error) {
	literal, err := c.pop()

	if err != nil {
		return "", err
	}

	isQuote := literal == '"' || literal == '\''

	if !isQuote {
		return "", c.failf(ErrMalformedAttribute, "value of attribute %q is not quoted", name)
	}

	var value strings.Builder

	for {
		r, err := c.pop()

		if err != nil {
			return "", c.failf(ErrMalformedAttribute, "unterminated value of attribute %q", name)
		}

		if r == literal {
			return value.String(), nil
		}

		value.WriteRune(r)
	}
}
