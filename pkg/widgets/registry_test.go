package widgets

import (
	"context"
	"testing"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func node(cfg schema.Config) schema.Node {
	return schema.MustBuild(cfg)
}

func TestResolve_ExplicitWidgetWins(t *testing.T) {
	reg := NewRegistry()
	field := model.FieldSpec{
		Name:   "enabled",
		Widget: "custom-toggle",
		Schema: node(schema.Config{Kind: schema.KindBoolean}),
	}

	if got, ok := reg.Resolve(field); !ok || got != "custom-toggle" {
		t.Fatalf("expected explicit widget to win, got %q (ok=%v)", got, ok)
	}
}

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()
	loader := model.OptionSource{Loader: func(context.Context, any) ([]model.Option, error) { return nil, nil }}

	cases := []struct {
		name   string
		field  model.FieldSpec
		expect string
	}{
		{
			name:   "boolean toggle",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindBoolean})},
			expect: WidgetToggle,
		},
		{
			name:   "enum select",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindEnum, Values: []any{"a"}})},
			expect: WidgetSelect,
		},
		{
			name:   "string with dynamic options",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindString}), Options: loader},
			expect: WidgetSelect,
		},
		{
			name: "array with options",
			field: model.FieldSpec{
				Schema:  node(schema.Config{Kind: schema.KindArray, Items: &schema.Config{Kind: schema.KindString}}),
				Options: model.OptionSource{Static: []model.Option{{Value: "a", Label: "A"}}},
			},
			expect: WidgetMultiSelect,
		},
		{
			name:   "array without options",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindArray, Items: &schema.Config{Kind: schema.KindString}})},
			expect: WidgetRepeater,
		},
		{
			name:   "json blob",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindJSON})},
			expect: WidgetJSONEditor,
		},
		{
			name:   "number",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindNumber})},
			expect: WidgetNumber,
		},
		{
			name:   "object",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindObject})},
			expect: WidgetFieldset,
		},
		{
			name: "long text",
			field: model.FieldSpec{Schema: node(schema.Config{
				Kind:        schema.KindString,
				Constraints: []schema.ConstraintConfig{schema.MaxLength(2000, "")},
			})},
			expect: WidgetTextarea,
		},
		{
			name:   "plain text",
			field:  model.FieldSpec{Schema: node(schema.Config{Kind: schema.KindString})},
			expect: WidgetText,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := reg.Resolve(tc.field)
			if !ok || got != tc.expect {
				t.Fatalf("expected %q, got %q (ok=%v)", tc.expect, got, ok)
			}
		})
	}
}

func TestRegister_PriorityAndOrder(t *testing.T) {
	reg := &Registry{}
	reg.Register("first", 10, func(model.FieldSpec) bool { return true })
	reg.Register("second", 10, func(model.FieldSpec) bool { return true })
	reg.Register("urgent", 20, func(field model.FieldSpec) bool { return field.Name == "hot" })

	if got, _ := reg.Resolve(model.FieldSpec{Name: "cold"}); got != "first" {
		t.Fatalf("expected registration order to break ties, got %q", got)
	}
	if got, _ := reg.Resolve(model.FieldSpec{Name: "hot"}); got != "urgent" {
		t.Fatalf("expected higher priority to win, got %q", got)
	}

	var empty *Registry
	if _, ok := empty.Resolve(model.FieldSpec{}); ok {
		t.Fatalf("expected nil registry not to resolve")
	}
}
