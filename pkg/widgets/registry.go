// Package widgets picks the widget kind used to render a field. The data kind
// of a field comes from its schema node; the widget kind is resolved here so
// both can vary independently.
package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// Built-in widget identifiers.
const (
	WidgetText        = "text"
	WidgetTextarea    = "textarea"
	WidgetNumber      = "number"
	WidgetToggle      = "toggle"
	WidgetSelect      = "select"
	WidgetMultiSelect = "multiselect"
	WidgetJSONEditor  = "json-editor"
	WidgetFieldset    = "fieldset"
	WidgetRepeater    = "repeater"
)

// Matcher decides whether a widget should render the supplied field.
type Matcher func(field model.FieldSpec) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for fields. An explicit FieldSpec.Widget always
// wins; otherwise the highest priority matching rule is used, with ties
// broken by registration order.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry returns a registry with the built-in rules registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a rule. Higher priorities are evaluated first.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget for field.
func (r *Registry) Resolve(field model.FieldSpec) (string, bool) {
	if explicit := strings.TrimSpace(field.Widget); explicit != "" {
		return explicit, true
	}
	if r == nil {
		return "", false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, true
		}
	}
	return "", false
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetMultiSelect, 90, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindArray && !field.Options.IsZero()
	})

	r.Register(WidgetSelect, 80, func(field model.FieldSpec) bool {
		if field.DataKind() == schema.KindEnum {
			return true
		}
		kind := field.DataKind()
		return kind != schema.KindArray && kind != schema.KindObject && !field.Options.IsZero()
	})

	r.Register(WidgetToggle, 70, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindBoolean
	})

	r.Register(WidgetJSONEditor, 60, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindJSON
	})

	r.Register(WidgetNumber, 50, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindNumber
	})

	r.Register(WidgetFieldset, 40, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindObject
	})

	r.Register(WidgetRepeater, 30, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindArray
	})

	r.Register(WidgetTextarea, 20, func(field model.FieldSpec) bool {
		if field.DataKind() != schema.KindString {
			return false
		}
		for _, c := range field.Schema.Meta().Constraints {
			if c.Kind == schema.ConstraintMaxLength && c.Length > 255 {
				return true
			}
		}
		return false
	})

	r.Register(WidgetText, 0, func(field model.FieldSpec) bool {
		return field.DataKind() == schema.KindString
	})
}
