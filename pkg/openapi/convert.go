package openapi

import (
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/schema"
)

const (
	formatEmail = "email"
	formatJSON  = "json"

	typeString  = "string"
	typeNumber  = "number"
	typeInteger = "integer"
	typeBoolean = "boolean"
	typeObject  = "object"
	typeArray   = "array"
	typeNull    = "null"
)

// converter turns OpenAPI schemas into schema configs. visiting holds the
// schemas on the current descent path; a schema met again on that path is a
// recursive reference and becomes a JSON field instead of being expanded.
type converter struct {
	visiting map[*openapi3.Schema]bool
}

func newConverter(root *openapi3.Schema) *converter {
	c := &converter{visiting: make(map[*openapi3.Schema]bool)}
	if root != nil {
		c.visiting[root] = true
	}
	return c
}

func (c *converter) node(ref *openapi3.SchemaRef, required bool) (schema.Node, error) {
	cfg, err := c.config(ref, required)
	if err != nil {
		return nil, err
	}
	return schema.Build(cfg)
}

// config translates an OpenAPI schema into a schema.Config. allOf members
// are merged first. Exclusive bounds, anyOf and oneOf are not represented.
func (c *converter) config(ref *openapi3.SchemaRef, required bool) (schema.Config, error) {
	if ref == nil || ref.Value == nil {
		return schema.Config{}, fmt.Errorf("%w: unresolved reference %q", ErrUnsupportedSchema, refName(ref))
	}
	if c.visiting[ref.Value] {
		return recursiveConfig(ref, required), nil
	}
	c.visiting[ref.Value] = true
	defer delete(c.visiting, ref.Value)

	src := flatten(ref.Value)
	kind := kindOf(src)
	if kind == "" {
		if len(src.AnyOf)+len(src.OneOf) > 0 {
			return schema.Config{}, fmt.Errorf("%w: anyOf/oneOf %q", ErrUnsupportedSchema, refName(ref))
		}
		return schema.Config{}, fmt.Errorf("%w: type %v", ErrUnsupportedSchema, typeNames(src))
	}

	cfg := schema.Config{
		Kind:        kind,
		Required:    required,
		Nullable:    nullable(src),
		Description: src.Description,
		Default:     src.Default,
	}

	switch kind {
	case schema.KindEnum:
		for _, value := range src.Enum {
			if value == nil {
				cfg.Nullable = true
				continue
			}
			cfg.Values = append(cfg.Values, value)
		}
	case schema.KindNumber:
		if src.Min != nil {
			cfg.Constraints = append(cfg.Constraints, schema.Min(*src.Min, ""))
		}
		if src.Max != nil {
			cfg.Constraints = append(cfg.Constraints, schema.Max(*src.Max, ""))
		}
		if hasType(src, typeInteger) {
			cfg.Constraints = append(cfg.Constraints, schema.Format(schema.ConstraintInteger, ""))
		}
	case schema.KindString:
		if src.MinLength > 0 {
			cfg.Constraints = append(cfg.Constraints, schema.MinLength(int(src.MinLength), ""))
		}
		if src.MaxLength != nil {
			cfg.Constraints = append(cfg.Constraints, schema.MaxLength(int(*src.MaxLength), ""))
		}
		if src.Pattern != "" {
			cfg.Constraints = append(cfg.Constraints, schema.Pattern(src.Pattern, ""))
		}
		if strings.EqualFold(src.Format, formatEmail) {
			cfg.Constraints = append(cfg.Constraints, schema.Format(schema.ConstraintEmail, ""))
		}
	case schema.KindArray:
		if src.MinItems > 0 {
			cfg.Constraints = append(cfg.Constraints, schema.ConstraintConfig{Kind: schema.ConstraintMinItems, Value: int(src.MinItems)})
		}
		if src.MaxItems != nil {
			cfg.Constraints = append(cfg.Constraints, schema.ConstraintConfig{Kind: schema.ConstraintMaxItems, Value: int(*src.MaxItems)})
		}
		items, err := c.config(src.Items, false)
		if err != nil {
			return schema.Config{}, fmt.Errorf("items: %w", err)
		}
		cfg.Items = &items
	case schema.KindObject:
		props := requiredSet(src)
		for _, name := range sortedNames(src.Properties) {
			child, err := c.config(src.Properties[name], props[name])
			if err != nil {
				return schema.Config{}, fmt.Errorf("%s: %w", name, err)
			}
			cfg.Properties = append(cfg.Properties, schema.PropertyConfig{Name: name, Schema: child})
		}
	}
	return cfg, nil
}

// recursiveConfig stands in for a schema that refers back to one of its
// ancestors. The subtree is edited as raw JSON text.
func recursiveConfig(ref *openapi3.SchemaRef, required bool) schema.Config {
	return schema.Config{
		Kind:        schema.KindJSON,
		Required:    required,
		Nullable:    nullable(ref.Value),
		Description: ref.Value.Description,
	}
}

// flatten merges the allOf members of src into a copy of it. Keywords set on
// src win over its members, and earlier members win over later ones.
// Required names are unioned. src itself is never modified.
func flatten(src *openapi3.Schema) *openapi3.Schema {
	if src == nil || len(src.AllOf) == 0 {
		return src
	}
	merged := *src
	merged.AllOf = nil
	merged.Properties = make(openapi3.Schemas, len(src.Properties))
	for name, prop := range src.Properties {
		merged.Properties[name] = prop
	}
	merged.Required = append([]string(nil), src.Required...)
	merged.Extensions = make(map[string]any, len(src.Extensions))
	for key, value := range src.Extensions {
		merged.Extensions[key] = value
	}
	mergeAllOf(&merged, src.AllOf, map[*openapi3.Schema]bool{src: true})
	return &merged
}

func mergeAllOf(target *openapi3.Schema, members openapi3.SchemaRefs, seen map[*openapi3.Schema]bool) {
	for _, ref := range members {
		if ref == nil || ref.Value == nil || seen[ref.Value] {
			continue
		}
		seen[ref.Value] = true
		member := ref.Value

		if target.Type == nil || len(target.Type.Slice()) == 0 {
			target.Type = member.Type
		}
		for name, prop := range member.Properties {
			if _, exists := target.Properties[name]; !exists {
				target.Properties[name] = prop
			}
		}
		for _, name := range member.Required {
			if !containsString(target.Required, name) {
				target.Required = append(target.Required, name)
			}
		}
		for key, value := range member.Extensions {
			if _, exists := target.Extensions[key]; !exists {
				target.Extensions[key] = value
			}
		}
		if target.Title == "" {
			target.Title = member.Title
		}
		if target.Description == "" {
			target.Description = member.Description
		}
		if target.Format == "" {
			target.Format = member.Format
		}
		if target.Pattern == "" {
			target.Pattern = member.Pattern
		}
		if len(target.Enum) == 0 {
			target.Enum = member.Enum
		}
		if target.Default == nil {
			target.Default = member.Default
		}
		if target.Items == nil {
			target.Items = member.Items
		}
		if target.Min == nil {
			target.Min = member.Min
		}
		if target.Max == nil {
			target.Max = member.Max
		}
		if target.MinLength == 0 {
			target.MinLength = member.MinLength
		}
		if target.MaxLength == nil {
			target.MaxLength = member.MaxLength
		}
		if target.MinItems == 0 {
			target.MinItems = member.MinItems
		}
		if target.MaxItems == nil {
			target.MaxItems = member.MaxItems
		}
		target.Nullable = target.Nullable || member.Nullable

		mergeAllOf(target, member.AllOf, seen)
	}
}

func containsString(values []string, want string) bool {
	for _, value := range values {
		if value == want {
			return true
		}
	}
	return false
}

// kindOf maps the OpenAPI type and format onto a node kind. Untyped schemas
// are inferred from their keywords and fall back to string.
func kindOf(src *openapi3.Schema) schema.Kind {
	if len(src.Enum) > 0 {
		return schema.KindEnum
	}
	if strings.EqualFold(src.Format, formatJSON) {
		return schema.KindJSON
	}
	switch {
	case hasType(src, typeString):
		return schema.KindString
	case hasType(src, typeNumber), hasType(src, typeInteger):
		return schema.KindNumber
	case hasType(src, typeBoolean):
		return schema.KindBoolean
	case hasType(src, typeObject):
		return schema.KindObject
	case hasType(src, typeArray):
		return schema.KindArray
	}
	if len(typeNames(src)) > 0 {
		return ""
	}
	switch {
	case len(src.Properties) > 0:
		return schema.KindObject
	case src.Items != nil:
		return schema.KindArray
	case len(src.AnyOf)+len(src.OneOf) > 0:
		return ""
	}
	return schema.KindString
}

func hasType(src *openapi3.Schema, name string) bool {
	if src.Type == nil {
		return false
	}
	for _, candidate := range src.Type.Slice() {
		if candidate == name {
			return true
		}
	}
	return false
}

func typeNames(src *openapi3.Schema) []string {
	if src.Type == nil {
		return nil
	}
	var out []string
	for _, name := range src.Type.Slice() {
		if name != typeNull {
			out = append(out, name)
		}
	}
	return out
}

func nullable(src *openapi3.Schema) bool {
	return src.Nullable || hasType(src, typeNull)
}

func refName(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return ""
	}
	return ref.Ref
}
