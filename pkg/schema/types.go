package schema

import (
	"regexp"
)

// Kind is the closed set of data kinds a node can describe.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindJSON    Kind = "json"
)

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindEnum, KindObject, KindArray, KindJSON:
		return true
	default:
		return false
	}
}

const (
	DefaultRequiredMessage = "required"
	DefaultTypeMessage     = "invalid_type"
	DefaultEnumMessage     = "enum"
)

// Node is implemented by the node types of this package only.
type Node interface {
	Kind() Kind
	Meta() Attrs
	sealed()
}

// Attrs holds the attributes shared by every node kind.
type Attrs struct {
	Required        bool
	RequiredMessage string
	TypeMessage     string
	Nullable        bool
	Default         any
	HasDefault      bool
	Description     string
	Constraints     []Constraint
}

// RequiredText returns the message reported when a required value is empty.
func (a Attrs) RequiredText() string {
	if a.RequiredMessage != "" {
		return a.RequiredMessage
	}
	return DefaultRequiredMessage
}

// TypeText returns the message reported when a value has the wrong type.
func (a Attrs) TypeText() string {
	if a.TypeMessage != "" {
		return a.TypeMessage
	}
	return DefaultTypeMessage
}

// Optional reports whether an absent value is acceptable for the node.
func (a Attrs) Optional() bool {
	return a.Nullable || !a.Required
}

// StringNode describes free text.
type StringNode struct {
	Attrs
}

// NumberNode describes a numeric value. Values are normalised to float64.
type NumberNode struct {
	Attrs
}

// BooleanNode describes a true/false value.
type BooleanNode struct {
	Attrs
}

// EnumNode restricts values to an ordered list of allowed values.
type EnumNode struct {
	Attrs
	Values      []any
	EnumMessage string
}

// EnumText returns the message reported for values outside Values.
func (n *EnumNode) EnumText() string {
	if n.EnumMessage != "" {
		return n.EnumMessage
	}
	if n.TypeMessage != "" {
		return n.TypeMessage
	}
	return DefaultEnumMessage
}

// Property is a named child of an object node.
type Property struct {
	Name string
	Node Node
}

// ObjectNode describes a record with an ordered set of named children.
type ObjectNode struct {
	Attrs
	Properties []Property
	index      map[string]int
}

// Property looks up a child node by name.
func (n *ObjectNode) Property(name string) (Node, bool) {
	if n == nil {
		return nil, false
	}
	if n.index == nil {
		for _, prop := range n.Properties {
			if prop.Name == name {
				return prop.Node, true
			}
		}
		return nil, false
	}
	idx, ok := n.index[name]
	if !ok {
		return nil, false
	}
	return n.Properties[idx].Node, true
}

// Names returns the property names in declaration order.
func (n *ObjectNode) Names() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.Properties))
	for _, prop := range n.Properties {
		names = append(names, prop.Name)
	}
	return names
}

// ArrayNode describes an ordered sequence of Items.
type ArrayNode struct {
	Attrs
	Items Node
}

// JSONNode describes a string that must hold a JSON document. Empty strings
// are accepted so optional JSON fields can stay blank.
type JSONNode struct {
	Attrs
}

func (n *StringNode) Kind() Kind  { return KindString }
func (n *NumberNode) Kind() Kind  { return KindNumber }
func (n *BooleanNode) Kind() Kind { return KindBoolean }
func (n *EnumNode) Kind() Kind    { return KindEnum }
func (n *ObjectNode) Kind() Kind  { return KindObject }
func (n *ArrayNode) Kind() Kind   { return KindArray }
func (n *JSONNode) Kind() Kind    { return KindJSON }

func (n *StringNode) Meta() Attrs  { return n.Attrs }
func (n *NumberNode) Meta() Attrs  { return n.Attrs }
func (n *BooleanNode) Meta() Attrs { return n.Attrs }
func (n *EnumNode) Meta() Attrs    { return n.Attrs }
func (n *ObjectNode) Meta() Attrs  { return n.Attrs }
func (n *ArrayNode) Meta() Attrs   { return n.Attrs }
func (n *JSONNode) Meta() Attrs    { return n.Attrs }

func (*StringNode) sealed()  {}
func (*NumberNode) sealed()  {}
func (*BooleanNode) sealed() {}
func (*EnumNode) sealed()    {}
func (*ObjectNode) sealed()  {}
func (*ArrayNode) sealed()   {}
func (*JSONNode) sealed()    {}

// ConstraintKind identifies a single check. The identifiers for numeric and
// textual bounds match the canonical validation rule names renderers expect.
type ConstraintKind string

const (
	ConstraintMin       ConstraintKind = "min"
	ConstraintMax       ConstraintKind = "max"
	ConstraintMinLength ConstraintKind = "minLength"
	ConstraintMaxLength ConstraintKind = "maxLength"
	ConstraintMinItems  ConstraintKind = "minItems"
	ConstraintMaxItems  ConstraintKind = "maxItems"
	ConstraintPattern   ConstraintKind = "pattern"
	ConstraintEmail     ConstraintKind = "email"
	ConstraintInteger   ConstraintKind = "integer"
	ConstraintPositive  ConstraintKind = "positive"
	ConstraintJSON      ConstraintKind = "json"
	ConstraintAfter     ConstraintKind = "after"
)

// Phase orders checks inside a field: bounds run before formats, and
// cross-field checks run last.
type Phase int

const (
	PhaseUnknown Phase = iota
	PhaseBound
	PhaseFormat
	PhaseCrossField
)

// Phase returns the evaluation phase of the constraint kind.
func (k ConstraintKind) Phase() Phase {
	switch k {
	case ConstraintMin, ConstraintMax, ConstraintMinLength, ConstraintMaxLength, ConstraintMinItems, ConstraintMaxItems:
		return PhaseBound
	case ConstraintPattern, ConstraintEmail, ConstraintInteger, ConstraintPositive, ConstraintJSON:
		return PhaseFormat
	case ConstraintAfter:
		return PhaseCrossField
	default:
		return PhaseUnknown
	}
}

// Constraint is a compiled check. Number holds numeric bounds, Length holds
// length/item bounds, Pattern the compiled expression and Ref the sibling
// field read by cross-field checks.
type Constraint struct {
	Kind    ConstraintKind
	Number  float64
	Length  int
	Pattern *regexp.Regexp
	Ref     string
	Message string
}

// Text returns the constraint message, defaulting to the kind identifier.
func (c Constraint) Text() string {
	if c.Message != "" {
		return c.Message
	}
	return string(c.Kind)
}

// Param renders the constraint parameter as a string.
func (c Constraint) Param() string {
	switch c.Kind {
	case ConstraintMin, ConstraintMax:
		return formatFloat(c.Number)
	case ConstraintMinLength, ConstraintMaxLength, ConstraintMinItems, ConstraintMaxItems:
		return formatInt(c.Length)
	case ConstraintPattern:
		if c.Pattern != nil {
			return c.Pattern.String()
		}
	case ConstraintAfter:
		return c.Ref
	}
	return ""
}
