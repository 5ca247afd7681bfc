package tailoring

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Decode maps v onto out, a channel's declared settings struct with yaml
// tags. Unknown fields are ignored.
func (v Values) Decode(out any) error {
	data, err := yaml.Marshal(map[string]any(v))
	if err != nil {
		return fmt.Errorf("marshal values: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode values: %w", err)
	}
	return nil
}

// Scalar is a string field that accepts any YAML scalar, so numeric chat ids
// and boolean flags decode the same way as quoted strings.
type Scalar string

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar value", node.Line)
	}
	if node.ShortTag() == "!!null" {
		*s = ""
		return nil
	}
	*s = Scalar(node.Value)
	return nil
}

func (s Scalar) String() string {
	return string(s)
}
