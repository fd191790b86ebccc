package schema

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CheckBounds evaluates the bound constraints of node against a value that
// already passed Coerce. Constraints run in declaration order and the first
// failure wins.
func CheckBounds(node Node, value any) (string, bool) {
	for _, c := range node.Meta().Constraints {
		if c.Kind.Phase() != PhaseBound {
			continue
		}
		if !c.Holds(value) {
			return c.Text(), false
		}
	}
	return "", true
}

// CheckFormats evaluates the format constraints of node against a value that
// already passed Coerce. JSON nodes carry an implicit json check.
func CheckFormats(node Node, value any) (string, bool) {
	for _, c := range FormatConstraints(node) {
		if !c.Holds(value) {
			return c.Text(), false
		}
	}
	return "", true
}

// FormatConstraints returns the format-phase constraints of node in
// evaluation order, including the implicit json check of JSON nodes.
func FormatConstraints(node Node) []Constraint {
	constraints := node.Meta().Constraints
	var out []Constraint
	if _, isJSON := node.(*JSONNode); isJSON && !hasConstraint(constraints, ConstraintJSON) {
		out = append(out, Constraint{Kind: ConstraintJSON})
	}
	for _, c := range constraints {
		if c.Kind.Phase() == PhaseFormat {
			out = append(out, c)
		}
	}
	return out
}

// Holds evaluates a bound or format constraint against a coerced value.
// Values of a kind the constraint does not inspect pass. Cross-field
// constraints need sibling values and always report true here.
func (c Constraint) Holds(value any) bool {
	switch c.Kind.Phase() {
	case PhaseBound:
		return boundHolds(c, value)
	case PhaseFormat:
		return formatHolds(c, value)
	default:
		return true
	}
}

// Check runs the type, bound and format phases of node against v, recursing
// into objects and arrays. Absent values are accepted; required and
// cross-field checks belong to the validator. It is used to verify declared
// defaults at construction time.
func Check(node Node, v any) (string, bool) {
	if v == nil {
		if node.Meta().Nullable || !node.Meta().Required {
			return "", true
		}
		return node.Meta().TypeText(), false
	}
	value, ok := Coerce(node, v)
	if !ok {
		if enum, isEnum := node.(*EnumNode); isEnum {
			return enum.EnumText(), false
		}
		return node.Meta().TypeText(), false
	}
	if msg, ok := CheckBounds(node, value); !ok {
		return msg, false
	}
	if msg, ok := CheckFormats(node, value); !ok {
		return msg, false
	}
	switch n := node.(type) {
	case *ObjectNode:
		record := value.(map[string]any)
		for _, prop := range n.Properties {
			child, present := record[prop.Name]
			if !present {
				continue
			}
			if msg, ok := Check(prop.Node, child); !ok {
				return msg, false
			}
		}
	case *ArrayNode:
		for _, item := range value.([]any) {
			if msg, ok := Check(n.Items, item); !ok {
				return msg, false
			}
		}
	case *StringNode, *NumberNode, *BooleanNode, *EnumNode, *JSONNode:
	default:
		panic(unsupported(node))
	}
	return "", true
}

func boundHolds(c Constraint, value any) bool {
	switch c.Kind {
	case ConstraintMin:
		f, ok := value.(float64)
		return !ok || f >= c.Number
	case ConstraintMax:
		f, ok := value.(float64)
		return !ok || f <= c.Number
	case ConstraintMinLength:
		s, ok := value.(string)
		return !ok || utf8.RuneCountInString(s) >= c.Length
	case ConstraintMaxLength:
		s, ok := value.(string)
		return !ok || utf8.RuneCountInString(s) <= c.Length
	case ConstraintMinItems:
		items, ok := value.([]any)
		return !ok || len(items) >= c.Length
	case ConstraintMaxItems:
		items, ok := value.([]any)
		return !ok || len(items) <= c.Length
	}
	return true
}

func formatHolds(c Constraint, value any) bool {
	switch c.Kind {
	case ConstraintPattern:
		s, ok := value.(string)
		return !ok || c.Pattern == nil || c.Pattern.MatchString(s)
	case ConstraintEmail:
		s, ok := value.(string)
		return !ok || emailPattern.MatchString(s)
	case ConstraintInteger:
		f, ok := value.(float64)
		return !ok || f == math.Trunc(f)
	case ConstraintPositive:
		f, ok := value.(float64)
		return !ok || f > 0
	case ConstraintJSON:
		s, ok := value.(string)
		if !ok {
			return true
		}
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return true
		}
		return json.Valid([]byte(trimmed))
	}
	return true
}

func hasConstraint(constraints []Constraint, kind ConstraintKind) bool {
	for _, c := range constraints {
		if c.Kind == kind {
			return true
		}
	}
	return false
}
