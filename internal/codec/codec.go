// Package codec provides the serialization formats shared by the persisters
// and the demo CLI.
package codec

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Codec encodes and decodes documents in one format.
type Codec interface {
	Name() string
	Ext() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
)

// ByName returns the codec registered under name ("json" or "yaml").
func ByName(name string) (Codec, error) {
	switch name {
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }
func (jsonCodec) Ext() string  { return ".json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }
func (yamlCodec) Ext() string  { return ".yaml" }

func (yamlCodec) Marshal(v any) ([]byte, error) {
	return yaml.Marshal(v)
}

func (yamlCodec) Unmarshal(data []byte, v any) error {
	return yaml.Unmarshal(data, v)
}

// Convert turns a generically decoded value (maps, slices, scalars) into a
// T by round-tripping it through JSON. Values that already are a T are
// returned as is.
func Convert[T any](v any) (T, error) {
	var out T
	if t, ok := v.(T); ok {
		return t, nil
	}
	if v == nil {
		return out, nil
	}
	data, err := json.Marshal(normalize(v))
	if err != nil {
		return out, fmt.Errorf("json marshal: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("json unmarshal into %T: %w", out, err)
	}
	return out, nil
}

// normalize rewrites map[any]any (which encoding/json rejects) into
// map[string]any, recursively.
func normalize(v any) any {
	switch t := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[k] = normalize(val)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, val := range t {
			s[i] = normalize(val)
		}
		return s
	default:
		return v
	}
}
