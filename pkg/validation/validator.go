package validation

import (
	"strconv"

	"github.com/goliatone/go-formkit/pkg/schema"
)

// Result is the outcome of a validation pass. Value holds the typed value
// tree (numbers coerced to float64, absent optionals as nil) and is only
// populated when Errors is empty. Errors maps dotted field paths to the
// message of the first failing check for that field.
type Result struct {
	Value  map[string]any    `json:"value,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Valid reports whether every field passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Error returns the message recorded for path.
func (r Result) Error(path string) (string, bool) {
	msg, ok := r.Errors[path]
	return msg, ok
}

// Validator evaluates value trees against a compiled plan. It holds no
// mutable state and is safe for concurrent use.
type Validator struct {
	root *plan
}

// plan is the ordered check list synthesised for one node: required, type,
// bounds, formats, cross-field, then children.
type plan struct {
	node     schema.Node
	required bool
	bounds   []schema.Constraint
	formats  []schema.Constraint
	cross    []schema.Constraint
	children []child
	items    *plan
}

type child struct {
	name string
	plan *plan
}

// Compile synthesises a validator for the supplied root object. Each property
// of root is treated as an independent field. Empty values are absent for
// every kind: a required object given an empty record fails with its own
// required message and its children are not checked.
func Compile(root *schema.ObjectNode) *Validator {
	if root == nil {
		root = &schema.ObjectNode{}
	}
	return &Validator{root: compile(root)}
}

func compile(node schema.Node) *plan {
	meta := node.Meta()
	p := &plan{
		node:     node,
		required: meta.Required,
	}
	for _, c := range meta.Constraints {
		switch c.Kind.Phase() {
		case schema.PhaseBound:
			p.bounds = append(p.bounds, c)
		case schema.PhaseCrossField:
			p.cross = append(p.cross, c)
		}
	}
	p.formats = schema.FormatConstraints(node)
	switch n := node.(type) {
	case *schema.ObjectNode:
		for _, prop := range n.Properties {
			p.children = append(p.children, child{name: prop.Name, plan: compile(prop.Node)})
		}
	case *schema.ArrayNode:
		p.items = compile(n.Items)
	case *schema.StringNode, *schema.NumberNode, *schema.BooleanNode, *schema.EnumNode, *schema.JSONNode:
	default:
		panic("validation: unsupported node type")
	}
	return p
}

// Validate checks every field of values independently. Errors are exhaustive
// across fields; within a field the first failing check wins.
func (v *Validator) Validate(values map[string]any) Result {
	errs := make(map[string]string)
	out := make(map[string]any, len(v.root.children))
	for _, field := range v.root.children {
		out[field.name] = field.plan.evaluate(field.name, values[field.name], values, errs)
	}
	if len(errs) > 0 {
		return Result{Errors: errs}
	}
	return Result{Value: out}
}

// ValidateField runs the checks of a single top-level field, reading
// siblings from values for cross-field checks. The returned map holds the
// errors of the field and its nested paths.
func (v *Validator) ValidateField(values map[string]any, name string) map[string]string {
	errs := make(map[string]string)
	for _, field := range v.root.children {
		if field.name != name {
			continue
		}
		field.plan.evaluate(field.name, values[field.name], values, errs)
		break
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Fields returns the top-level field names in evaluation order.
func (v *Validator) Fields() []string {
	names := make([]string, 0, len(v.root.children))
	for _, field := range v.root.children {
		names = append(names, field.name)
	}
	return names
}

func (p *plan) evaluate(path string, raw any, siblings map[string]any, errs map[string]string) any {
	meta := p.node.Meta()

	if schema.IsEmpty(raw) {
		if p.required {
			errs[path] = meta.RequiredText()
		}
		return nil
	}

	value, ok := schema.Coerce(p.node, raw)
	if !ok {
		if enum, isEnum := p.node.(*schema.EnumNode); isEnum {
			errs[path] = enum.EnumText()
		} else {
			errs[path] = meta.TypeText()
		}
		return nil
	}

	for _, c := range p.bounds {
		if !c.Holds(value) {
			errs[path] = c.Text()
			return nil
		}
	}
	for _, c := range p.formats {
		if !c.Holds(value) {
			errs[path] = c.Text()
			return nil
		}
	}
	for _, c := range p.cross {
		if !crossFieldHolds(c, value, siblings) {
			errs[path] = c.Text()
			return nil
		}
	}

	switch {
	case len(p.children) > 0:
		record := value.(map[string]any)
		out := make(map[string]any, len(p.children))
		for _, field := range p.children {
			out[field.name] = field.plan.evaluate(path+"."+field.name, record[field.name], record, errs)
		}
		return out
	case p.items != nil:
		items := value.([]any)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = p.items.evaluate(path+"."+strconv.Itoa(i), item, siblings, errs)
		}
		return out
	}
	return value
}
