package correctionset

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry maps an erroneous token to its correction. An empty Target deletes the token.
type Entry struct {
	Source string
	Target string
}

// Entries is an ordered correction mapping. It encodes as a JSON or YAML
// object whose keys keep rank order.
type Entries []Entry

// Get returns the target for source.
func (e Entries) Get(source string) (string, bool) {
	for _, en := range e {
		if en.Source == source {
			return en.Target, true
		}
	}
	return "", false
}

// Map returns the entries as an unordered map.
func (e Entries) Map() map[string]string {
	m := make(map[string]string, len(e))
	for _, en := range e {
		m[en.Source] = en.Target
	}
	return m
}

// MarshalJSON implements json.Marshaler.
func (e Entries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, en := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, en.Source); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, en.Target); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping document order.
func (e *Entries) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*e = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("corrections: expected object, got %v", tok)
	}

	out := Entries{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("corrections: expected string key, got %v", kt)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("corrections[%q]: %w", key, err)
		}
		out = append(out, Entry{Source: key, Target: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*e = out
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (e Entries) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, en := range e {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: en.Source},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: en.Target},
		)
	}
	return node, nil
}

// UnmarshalYAML implements yaml.Unmarshaler, keeping document order.
func (e *Entries) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("corrections: expected mapping at line %d", value.Line)
	}
	out := make(Entries, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var key, val string
		if err := value.Content[i].Decode(&key); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&val); err != nil {
			return err
		}
		out = append(out, Entry{Source: key, Target: val})
	}
	*e = out
	return nil
}
