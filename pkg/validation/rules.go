package validation

import "github.com/goliatone/go-formkit/pkg/schema"

// Rule is a renderer-facing projection of a single check. Params carries
// the constraint parameter keyed by rule kind.
type Rule struct {
	Kind    string            `json:"kind"`
	Params  map[string]string `json:"params,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Rules lists the checks of node in evaluation order. Nested children are
// not included.
func Rules(node schema.Node) []Rule {
	if node == nil {
		return nil
	}
	meta := node.Meta()
	var rules []Rule
	if meta.Required {
		rules = append(rules, Rule{Kind: "required", Message: meta.RequiredText()})
	}
	if enum, ok := node.(*schema.EnumNode); ok {
		rules = append(rules, Rule{Kind: "enum", Message: enum.EnumText()})
	}
	for _, phase := range []schema.Phase{schema.PhaseBound, schema.PhaseFormat, schema.PhaseCrossField} {
		for _, c := range constraintsFor(node, phase) {
			rule := Rule{Kind: string(c.Kind), Message: c.Text()}
			if param := c.Param(); param != "" {
				rule.Params = map[string]string{string(c.Kind): param}
			}
			rules = append(rules, rule)
		}
	}
	return rules
}

func constraintsFor(node schema.Node, phase schema.Phase) []schema.Constraint {
	if phase == schema.PhaseFormat {
		return schema.FormatConstraints(node)
	}
	var out []schema.Constraint
	for _, c := range node.Meta().Constraints {
		if c.Kind.Phase() == phase {
			out = append(out, c)
		}
	}
	return out
}
