package mendxml

type cursor struct {
	body   []rune
	index  int
	line   int
	column int
}

func newCursor(text string) *cursor {
	return &cursor{body: []rune(text), line: 1, column: 1}
}

func (c *cursor) inBound(index int) bool {
	return len(c.body) > index
}

func (c *cursor) done() bool {
	return !c.inBound(c.index)
}

func (c *cursor) pop() (rune, error) {
	if c.done() {
		return 0, c.fail(ErrUnexpectedEnd)
	}

	r := c.body[c.index]
	c.index++

	if r == '\n' {
		c.line++
		c.column = 1
	} else {
		c.column++
	}

	return r, nil
}

// peek returns the next k characters without consuming them.
func (c *cursor) peek(k int) (string, bool) {
	if !c.inBound(c.index + k - 1) {
		return "", false
	}

	return string(c.body[c.index : c.index+k]), true
}

func (c *cursor) peekRune() (rune, bool) {
	if c.done() {
		return 0, false
	}

	return c.body[c.index], true
}

func (c *cursor) peekIs(literal string) bool {
	index := c.index

	for _, r := range literal {
		if !c.inBound(index) || c.body[index] != r {
			return false
		}

		index++
	}

	return true
}

// skip consumes exactly the given literal, which the caller has already
// confirmed with peekIs.
func (c *cursor) skip(literal string) {
	for range []rune(literal) {
		_, _ = c.pop()
	}
}

// skipThrough consumes characters up to and including the terminator.
func (c *cursor) skipThrough(terminator string) error {
	for !c.peekIs(terminator) {
		if _, err := c.pop(); err != nil {
			return err
		}
	}

	c.skip(terminator)

	return nil
}

func (c *cursor) fail(err error) *ParseError {
	return &ParseError{Offset: c.index, Line: c.line, Column: c.column, Err: err}
}
