package schema

// Config is the author-facing description of a node. It decodes from JSON and
// YAML form documents and is turned into an immutable Node by Build.
type Config struct {
	Kind            Kind               `json:"kind" yaml:"kind"`
	Required        bool               `json:"required,omitempty" yaml:"required,omitempty"`
	RequiredMessage string             `json:"requiredMessage,omitempty" yaml:"requiredMessage,omitempty"`
	TypeMessage     string             `json:"typeMessage,omitempty" yaml:"typeMessage,omitempty"`
	Nullable        bool               `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	Default         any                `json:"default,omitempty" yaml:"default,omitempty"`
	Description     string             `json:"description,omitempty" yaml:"description,omitempty"`
	Constraints     []ConstraintConfig `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Values          []any              `json:"values,omitempty" yaml:"values,omitempty"`
	EnumMessage     string             `json:"enumMessage,omitempty" yaml:"enumMessage,omitempty"`
	Properties      []PropertyConfig   `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items           *Config            `json:"items,omitempty" yaml:"items,omitempty"`
}

// ConstraintConfig declares a constraint. Value carries the numeric bound,
// the length limit or the pattern; Ref names the sibling read by cross-field
// constraints.
type ConstraintConfig struct {
	Kind    ConstraintKind `json:"kind" yaml:"kind"`
	Value   any            `json:"value,omitempty" yaml:"value,omitempty"`
	Ref     string         `json:"ref,omitempty" yaml:"ref,omitempty"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`
}

// PropertyConfig declares a named child of an object node.
type PropertyConfig struct {
	Name   string `json:"name" yaml:"name"`
	Schema Config `json:"schema" yaml:"schema"`
}

// Min is a shorthand for a numeric lower bound.
func Min(value float64, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintMin, Value: value, Message: message}
}

// Max is a shorthand for a numeric upper bound.
func Max(value float64, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintMax, Value: value, Message: message}
}

// MinLength is a shorthand for a lower bound on string length.
func MinLength(value int, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintMinLength, Value: value, Message: message}
}

// MaxLength is a shorthand for an upper bound on string length.
func MaxLength(value int, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintMaxLength, Value: value, Message: message}
}

// Pattern is a shorthand for a regular expression check.
func Pattern(expr, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintPattern, Value: expr, Message: message}
}

// After is a shorthand for the "chronologically after" cross-field check.
func After(ref, message string) ConstraintConfig {
	return ConstraintConfig{Kind: ConstraintAfter, Ref: ref, Message: message}
}

// Format is a shorthand for parameterless format checks (email, integer,
// positive, json).
func Format(kind ConstraintKind, message string) ConstraintConfig {
	return ConstraintConfig{Kind: kind, Message: message}
}
