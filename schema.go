package pausable

import (
	"encoding/json"
	"reflect"
	"strings"
)

// SchemaFor returns the JSON Schema object describing the parameters struct T.
//
// Field names come from json tags. A `desc` tag sets the property description
// and `required:"true"` adds the field to the required list:
//
//	type OrderArgs struct {
//	    NumContainers int    `json:"num_containers" desc:"Number of containers" required:"true"`
//	    Destination   string `json:"destination" desc:"Destination port" required:"true"`
//	}
func SchemaFor[T any]() json.RawMessage {
	return SchemaFrom[T]().Build()
}

// SchemaBuilder constructs a JSON Schema object from a Go struct.
// Use SchemaFrom[T]() to create a builder from a struct type.
type SchemaBuilder struct {
	properties map[string]*propertyDef
	required   []string
	order      []string
}

type propertyDef struct {
	Type        string
	Description string
	Enum        []any
	Items       *propertyDef
	Nested      *SchemaBuilder
}

// SchemaFrom creates a SchemaBuilder by reflecting on the given struct type.
func SchemaFrom[T any]() *SchemaBuilder {
	t := reflect.TypeFor[T]()
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return newSchemaBuilder()
	}
	return buildFromStruct(t)
}

func newSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{properties: make(map[string]*propertyDef)}
}

func buildFromStruct(t reflect.Type) *SchemaBuilder {
	sb := newSchemaBuilder()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := strings.Split(jsonTag, ",")[0]
		if name == "" {
			name = field.Name
		}

		prop := typeToPropertyDef(field.Type)
		prop.Description = field.Tag.Get("desc")
		if enum := field.Tag.Get("enum"); enum != "" {
			for _, v := range strings.Split(enum, ",") {
				prop.Enum = append(prop.Enum, strings.TrimSpace(v))
			}
		}
		sb.properties[name] = prop
		sb.order = append(sb.order, name)
		if field.Tag.Get("required") == "true" {
			sb.required = append(sb.required, name)
		}
	}
	return sb
}

func typeToPropertyDef(t reflect.Type) *propertyDef {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return &propertyDef{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &propertyDef{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &propertyDef{Type: "number"}
	case reflect.Bool:
		return &propertyDef{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		return &propertyDef{Type: "array", Items: typeToPropertyDef(t.Elem())}
	case reflect.Struct:
		return &propertyDef{Type: "object", Nested: buildFromStruct(t)}
	case reflect.Map:
		return &propertyDef{Type: "object"}
	default:
		return &propertyDef{Type: "string"}
	}
}

// Desc sets the description for a field.
func (s *SchemaBuilder) Desc(field, description string) *SchemaBuilder {
	if prop, ok := s.properties[field]; ok {
		prop.Description = description
	}
	return s
}

// Required marks the specified fields as required.
func (s *SchemaBuilder) Required(fields ...string) *SchemaBuilder {
	for _, field := range fields {
		if _, ok := s.properties[field]; !ok {
			continue
		}
		if !contains(s.required, field) {
			s.required = append(s.required, field)
		}
	}
	return s
}

// Build generates the JSON Schema as json.RawMessage.
func (s *SchemaBuilder) Build() json.RawMessage {
	data, err := json.Marshal(s.toMap())
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	return data
}

func (s *SchemaBuilder) toMap() map[string]any {
	props := make(map[string]any, len(s.order))
	for _, name := range s.order {
		props[name] = s.properties[name].toMap()
	}
	result := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.required) > 0 {
		result["required"] = s.required
	}
	return result
}

func (p *propertyDef) toMap() map[string]any {
	if p.Nested != nil {
		result := p.Nested.toMap()
		if p.Description != "" {
			result["description"] = p.Description
		}
		return result
	}
	result := map[string]any{"type": p.Type}
	if p.Description != "" {
		result["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		result["enum"] = p.Enum
	}
	if p.Items != nil {
		result["items"] = p.Items.toMap()
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
