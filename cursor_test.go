package mendxml

import (
	"errors"
	"testing"
)

func TestCursorPosition(t *testing.T) {
	c := newCursor("ä\nbc")

	for range 3 {
		if _, err := c.pop(); err != nil {
			t.Fatalf("pop() error = %v", err)
		}
	}

	if c.index != 3 || c.line != 2 || c.column != 2 {
		t.Errorf("position = %d %d:%d, want 3 2:2", c.index, c.line, c.column)
	}

	if r, ok := c.peekRune(); !ok || r != 'c' {
		t.Errorf("peekRune() = %q, %v", r, ok)
	}

	if _, ok := c.peek(2); ok {
		t.Error("peek(2) past the end should fail")
	}

	if _, err := c.pop(); err != nil {
		t.Fatalf("pop() error = %v", err)
	}

	if _, err := c.pop(); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("pop() at end error = %v, want %v", err, ErrUnexpectedEnd)
	}
}

func TestCursorSkipThrough(t *testing.T) {
	c := newCursor("abc-->rest")

	if err := c.skipThrough("-->"); err != nil {
		t.Fatalf("skipThrough() error = %v", err)
	}

	if window, ok := c.peek(4); !ok || window != "rest" {
		t.Errorf("peek(4) = %q, %v", window, ok)
	}

	if !c.peekIs("re") || c.peekIs("rex") || c.peekIs("restless") {
		t.Error("peekIs() mismatch")
	}

	if err := c.skipThrough("?>"); !errors.Is(err, ErrUnexpectedEnd) {
		t.Errorf("skipThrough() error = %v, want %v", err, ErrUnexpectedEnd)
	}
}
