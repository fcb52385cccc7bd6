// Package conform re-reads normalized output with a strict, conformant XML
// parser (etree over encoding/xml) to prove that it is well-formed and that
// it carries the same element structure as the tree it was rendered from.
package conform

import (
	"errors"
	"fmt"
	"slices"

	"github.com/beevik/etree"

	"github.com/muzzletov/mendxml"
)

// ErrNoRoot is returned for a document without a root element.
var ErrNoRoot = errors.New("document has no root element")

// Read parses data strictly and returns its root element.
func Read(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = false

	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("not well-formed: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}

	return root, nil
}

// Check reports whether data is well-formed.
func Check(data []byte) error {
	_, err := Read(data)
	return err
}

// Verify parses data strictly and compares it with want: element names,
// attribute names in order, and children, recursively.
func Verify(want *mendxml.Node, data []byte) error {
	root, err := Read(data)
	if err != nil {
		return err
	}

	return compare(want, root, "/"+want.Name)
}

func compare(want *mendxml.Node, got *etree.Element, path string) error {
	if got.FullTag() != want.Name {
		return fmt.Errorf("%s: element %q, want %q", path, got.FullTag(), want.Name)
	}

	gotKeys := make([]string, len(got.Attr))
	for i, attr := range got.Attr {
		gotKeys[i] = attr.FullKey()
	}

	if wantKeys := want.Attributes.Keys(); !slices.Equal(gotKeys, wantKeys) {
		return fmt.Errorf("%s: attributes %v, want %v", path, gotKeys, wantKeys)
	}

	children := got.ChildElements()
	if len(children) != len(want.Children) {
		return fmt.Errorf("%s: %d children, want %d", path, len(children), len(want.Children))
	}

	for i, child := range want.Children {
		if err := compare(child, children[i], fmt.Sprintf("%s/%s[%d]", path, child.Name, i)); err != nil {
			return err
		}
	}

	return nil
}
