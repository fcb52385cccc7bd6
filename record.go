package mendxml

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"
)

// Record is the structural form of a node for JSON or YAML consumers. It
// is not meant to be parsed back.
type Record struct {
	Name       string      `json:"name" yaml:"name"`
	Attributes *Attributes `json:"attributes" yaml:"attributes"`
	Children   []Record    `json:"children,omitempty" yaml:"children,omitempty"`
	Text       string      `json:"text,omitempty" yaml:"text,omitempty"`
}

func ToRecord(n *Node) Record {
	record := Record{
		Name:       n.Name,
		Attributes: n.Attributes.Clone(),
		Text:       strings.TrimSpace(n.Text),
	}

	for _, child := range n.Children {
		record.Children = append(record.Children, ToRecord(child))
	}

	return record
}

func (a Attributes) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')

	for i, key := range a.keys {
		if i > 0 {
			b.WriteByte(',')
		}

		name, err := marshalString(key)

		if err != nil {
			return nil, err
		}

		value, err := marshalString(a.values[key])

		if err != nil {
			return nil, err
		}

		b.Write(name)
		b.WriteByte(':')
		b.Write(value)
	}

	b.WriteByte('}')

	return b.Bytes(), nil
}

// marshalString quotes s for JSON without turning markup characters into
// \u escapes. Callers that want them escaped get that from encoding/json.
func marshalString(s string) ([]byte, error) {
	var b bytes.Buffer
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(s); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(b.Bytes(), []byte("\n")), nil
}

func (a Attributes) MarshalYAML() (interface{}, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	for _, key := range a.keys {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: a.values[key]},
		)
	}

	return mapping, nil
}

// JSON renders r indented, without escaping markup characters, followed by
// a newline.
func (r Record) JSON() ([]byte, error) {
	var b bytes.Buffer
	encoder := json.NewEncoder(&b)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "    ")

	if err := encoder.Encode(r); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

func (r Record) YAML() ([]byte, error) {
	var b bytes.Buffer
	encoder := yaml.NewEncoder(&b)
	encoder.SetIndent(2)

	if err := encoder.Encode(r); err != nil {
		return nil, err
	}

	if err := encoder.Close(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
