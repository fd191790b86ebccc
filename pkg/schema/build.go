package schema

import (
	"regexp"
	"strings"
)

// Build turns a Config into an immutable node tree. Any malformed definition
// fails with a *ConfigError; nothing is silently repaired.
func Build(cfg Config) (Node, error) {
	return buildNode("", cfg)
}

// MustBuild is like Build but panics on error. Intended for statically
// authored forms and tests.
func MustBuild(cfg Config) Node {
	node, err := Build(cfg)
	if err != nil {
		panic(err)
	}
	return node
}

func buildNode(path string, cfg Config) (Node, error) {
	if !cfg.Kind.Valid() {
		return nil, configError(path, ErrUnknownKind, "kind %q", cfg.Kind)
	}

	constraints, err := buildConstraints(path, cfg.Kind, cfg.Constraints)
	if err != nil {
		return nil, err
	}

	attrs := Attrs{
		Required:        cfg.Required,
		RequiredMessage: cfg.RequiredMessage,
		TypeMessage:     cfg.TypeMessage,
		Nullable:        cfg.Nullable,
		Description:     cfg.Description,
		Constraints:     constraints,
	}
	if cfg.Default != nil {
		attrs.Default = Normalize(cfg.Default)
		attrs.HasDefault = true
	}

	var node Node
	switch cfg.Kind {
	case KindString:
		node = &StringNode{Attrs: attrs}
	case KindNumber:
		node = &NumberNode{Attrs: attrs}
	case KindBoolean:
		node = &BooleanNode{Attrs: attrs}
	case KindJSON:
		node = &JSONNode{Attrs: attrs}
	case KindEnum:
		if len(cfg.Values) == 0 {
			return nil, configError(path, ErrEmptyEnum, "declare at least one value")
		}
		values := make([]any, len(cfg.Values))
		for i, value := range cfg.Values {
			if value == nil {
				return nil, configError(path, ErrInvalidConstraint, "enum value %d is null", i)
			}
			values[i] = Normalize(value)
		}
		node = &EnumNode{Attrs: attrs, Values: values, EnumMessage: cfg.EnumMessage}
	case KindObject:
		object, err := buildObject(path, attrs, cfg.Properties)
		if err != nil {
			return nil, err
		}
		node = object
	case KindArray:
		if cfg.Items == nil {
			return nil, configError(path, ErrMissingItems, "items schema is required")
		}
		items, err := buildNode(joinPath(path, "items"), *cfg.Items)
		if err != nil {
			return nil, err
		}
		node = &ArrayNode{Attrs: attrs, Items: items}
	}

	if attrs.HasDefault {
		if msg, ok := Check(node, attrs.Default); !ok {
			return nil, configError(path, ErrDefaultViolation, "default %s fails %q", describe(attrs.Default), msg)
		}
	}
	return node, nil
}

func buildObject(path string, attrs Attrs, props []PropertyConfig) (*ObjectNode, error) {
	object := &ObjectNode{
		Attrs:      attrs,
		Properties: make([]Property, 0, len(props)),
		index:      make(map[string]int, len(props)),
	}
	for _, prop := range props {
		name := strings.TrimSpace(prop.Name)
		if name == "" {
			return nil, configError(path, ErrEmptyPropertyName, "property at index %d", len(object.Properties))
		}
		if _, exists := object.index[name]; exists {
			return nil, configError(path, ErrDuplicateProperty, "property %q", name)
		}
		child, err := buildNode(joinPath(path, name), prop.Schema)
		if err != nil {
			return nil, err
		}
		object.index[name] = len(object.Properties)
		object.Properties = append(object.Properties, Property{Name: name, Node: child})
	}

	for _, prop := range object.Properties {
		for _, c := range prop.Node.Meta().Constraints {
			if c.Kind.Phase() != PhaseCrossField {
				continue
			}
			if _, ok := object.index[c.Ref]; !ok || c.Ref == prop.Name {
				return nil, configError(joinPath(path, prop.Name), ErrUnknownReference, "%s references %q", c.Kind, c.Ref)
			}
		}
	}
	return object, nil
}

// NewObject assembles an object node from already built children. It applies
// the same duplicate-name and cross-field reference rules as Build.
func NewObject(attrs Attrs, props []Property) (*ObjectNode, error) {
	object := &ObjectNode{
		Attrs:      attrs,
		Properties: make([]Property, 0, len(props)),
		index:      make(map[string]int, len(props)),
	}
	for _, prop := range props {
		if prop.Name == "" {
			return nil, configError("", ErrEmptyPropertyName, "property at index %d", len(object.Properties))
		}
		if prop.Node == nil {
			return nil, configError(prop.Name, ErrUnknownKind, "node is nil")
		}
		if _, exists := object.index[prop.Name]; exists {
			return nil, configError("", ErrDuplicateProperty, "property %q", prop.Name)
		}
		object.index[prop.Name] = len(object.Properties)
		object.Properties = append(object.Properties, prop)
	}
	for _, prop := range object.Properties {
		for _, c := range prop.Node.Meta().Constraints {
			if c.Kind.Phase() != PhaseCrossField {
				continue
			}
			if _, ok := object.index[c.Ref]; !ok || c.Ref == prop.Name {
				return nil, configError(prop.Name, ErrUnknownReference, "%s references %q", c.Kind, c.Ref)
			}
		}
	}
	if attrs.HasDefault {
		if msg, ok := Check(object, attrs.Default); !ok {
			return nil, configError("", ErrDefaultViolation, "default %s fails %q", describe(attrs.Default), msg)
		}
	}
	return object, nil
}

// WithDefault returns a copy of node whose declared default is value. The
// default is checked against the node's own constraints.
func WithDefault(node Node, value any) (Node, error) {
	value = Normalize(value)
	var out Node
	switch n := node.(type) {
	case *StringNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *NumberNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *BooleanNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *EnumNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *ObjectNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *ArrayNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	case *JSONNode:
		cp := *n
		cp.Default, cp.HasDefault = value, value != nil
		out = &cp
	default:
		panic(unsupported(node))
	}
	if value != nil {
		if msg, ok := Check(out, value); !ok {
			return nil, configError("", ErrDefaultViolation, "default %s fails %q", describe(value), msg)
		}
	}
	return out, nil
}

func buildConstraints(path string, kind Kind, configs []ConstraintConfig) ([]Constraint, error) {
	if len(configs) == 0 {
		return nil, nil
	}
	out := make([]Constraint, 0, len(configs))
	for _, cfg := range configs {
		c := Constraint{Kind: cfg.Kind, Message: cfg.Message, Ref: strings.TrimSpace(cfg.Ref)}
		if !constraintApplies(cfg.Kind, kind) {
			return nil, configError(path, ErrInvalidConstraint, "%q does not apply to %s", cfg.Kind, kind)
		}
		switch cfg.Kind {
		case ConstraintMin, ConstraintMax:
			f, ok := ToFloat(cfg.Value)
			if !ok {
				return nil, configError(path, ErrInvalidConstraint, "%s requires a numeric value", cfg.Kind)
			}
			c.Number = f
		case ConstraintMinLength, ConstraintMaxLength, ConstraintMinItems, ConstraintMaxItems:
			n, ok := toInt(cfg.Value)
			if !ok || n < 0 {
				return nil, configError(path, ErrInvalidConstraint, "%s requires a non-negative integer", cfg.Kind)
			}
			c.Length = n
		case ConstraintPattern:
			expr, ok := cfg.Value.(string)
			if !ok || expr == "" {
				return nil, configError(path, ErrInvalidConstraint, "pattern requires an expression")
			}
			compiled, err := regexp.Compile(expr)
			if err != nil {
				return nil, configError(path, ErrInvalidConstraint, "pattern %q: %v", expr, err)
			}
			c.Pattern = compiled
		case ConstraintAfter:
			if c.Ref == "" {
				if ref, ok := cfg.Value.(string); ok {
					c.Ref = strings.TrimSpace(ref)
				}
			}
			if c.Ref == "" {
				return nil, configError(path, ErrInvalidConstraint, "after requires a field reference")
			}
		case ConstraintEmail, ConstraintInteger, ConstraintPositive, ConstraintJSON:
		}
		out = append(out, c)
	}
	return out, nil
}

func constraintApplies(constraint ConstraintKind, kind Kind) bool {
	switch constraint {
	case ConstraintMin, ConstraintMax, ConstraintInteger, ConstraintPositive:
		return kind == KindNumber
	case ConstraintMinLength, ConstraintMaxLength, ConstraintPattern, ConstraintEmail, ConstraintAfter:
		return kind == KindString
	case ConstraintMinItems, ConstraintMaxItems:
		return kind == KindArray
	case ConstraintJSON:
		return kind == KindString || kind == KindJSON
	default:
		return false
	}
}

func joinPath(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "." + child
}
