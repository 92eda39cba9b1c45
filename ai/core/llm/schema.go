package llm

import "encoding/json"

// JSONSchema implements json.Marshaler for OpenAI's JSON Schema format.
// JSONSchema 实现 OpenAI JSON Schema 格式的 json.Marshaler。
type JSONSchema struct {
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Type                 string                 `json:"type"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Enum                 []string               `json:"enum,omitempty"`
	AdditionalProperties bool                   `json:"additionalProperties"`
}

// MarshalJSON uses an alias type to prevent infinite recursion.
func (s *JSONSchema) MarshalJSON() ([]byte, error) {
	type alias JSONSchema
	return json.Marshal((*alias)(s))
}

// StringProp is a string property, optionally restricted to enum values.
func StringProp(description string, enum ...string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: description, Enum: enum}
}

// ObjectSchema builds a strict object schema where every property is required.
func ObjectSchema(props map[string]*JSONSchema, order ...string) *JSONSchema {
	return &JSONSchema{
		Type:       "object",
		Properties: props,
		Required:   order,
	}
}
