package model_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
)

func text(required bool) schema.Node {
	return schema.MustBuild(schema.Config{Kind: schema.KindString, Required: required})
}

func noopLoader(context.Context, any) ([]model.Option, error) { return nil, nil }

func TestNew_RejectsInvalidSpecs(t *testing.T) {
	number := schema.MustBuild(schema.Config{
		Kind:        schema.KindNumber,
		Constraints: []schema.ConstraintConfig{schema.Max(10, "")},
	})
	endAfterMissing := schema.MustBuild(schema.Config{
		Kind:        schema.KindString,
		Constraints: []schema.ConstraintConfig{schema.After("start", "")},
	})

	cases := []struct {
		name   string
		id     string
		fields []model.FieldSpec
		layout model.LayoutDescriptor
		want   error
	}{
		{name: "missing id", id: " ", want: model.ErrMissingID},
		{
			name:   "duplicate field",
			id:     "f",
			fields: []model.FieldSpec{{Name: "a", Schema: text(false)}, {Name: "a", Schema: text(false)}},
			want:   model.ErrDuplicateField,
		},
		{
			name:   "missing schema",
			id:     "f",
			fields: []model.FieldSpec{{Name: "a"}},
			want:   model.ErrMissingSchema,
		},
		{
			name: "unknown dependency",
			id:   "f",
			fields: []model.FieldSpec{
				{Name: "b", Schema: text(false), DependsOn: "a", Options: model.OptionSource{Loader: noopLoader}},
			},
			want: model.ErrUnknownDependency,
		},
		{
			name: "cycle",
			id:   "f",
			fields: []model.FieldSpec{
				{Name: "a", Schema: text(false), DependsOn: "b", Options: model.OptionSource{Loader: noopLoader}},
				{Name: "b", Schema: text(false), DependsOn: "a", Options: model.OptionSource{Loader: noopLoader}},
			},
			want: model.ErrDependencyCycle,
		},
		{
			name: "dependent without loader",
			id:   "f",
			fields: []model.FieldSpec{
				{Name: "a", Schema: text(false)},
				{Name: "b", Schema: text(false), DependsOn: "a", Options: model.OptionSource{Static: []model.Option{{Value: "x"}}}},
			},
			want: model.ErrMissingOptionSource,
		},
		{
			name:   "default violates schema",
			id:     "f",
			fields: []model.FieldSpec{{Name: "n", Schema: number, Default: 11, HasDefault: true}},
			want:   model.ErrInvalidDefault,
		},
		{
			name: "static option of wrong type",
			id:   "f",
			fields: []model.FieldSpec{
				{Name: "n", Schema: number, Options: model.OptionSource{Static: []model.Option{{Value: "one", Label: "One"}}}},
			},
			want: model.ErrInvalidOption,
		},
		{
			name:   "unknown layout",
			id:     "f",
			layout: model.LayoutDescriptor{Kind: "masonry"},
			want:   model.ErrUnknownLayout,
		},
		{
			name:   "unknown section",
			id:     "f",
			fields: []model.FieldSpec{{Name: "a", Schema: text(false), Layout: model.LayoutHints{Section: "extra"}}},
			want:   model.ErrUnknownSection,
		},
		{
			name:   "cross-field reference to missing field",
			id:     "f",
			fields: []model.FieldSpec{{Name: "end", Schema: endAfterMissing}},
			want:   schema.ErrUnknownReference,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := model.New(tc.id, tc.fields, tc.layout)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var cfgErr *model.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *model.ConfigError, got %T", err)
			}
		})
	}
}

func TestNew_DerivesLabelsAndRoot(t *testing.T) {
	age := schema.MustBuild(schema.Config{
		Kind:        schema.KindNumber,
		Constraints: []schema.ConstraintConfig{schema.Min(0, ""), schema.Max(120, "")},
	})
	spec := model.MustNew("profile", []model.FieldSpec{
		{Name: "first_name", Schema: text(true)},
		{Name: "age", Schema: age, Default: 30, HasDefault: true, Label: "Your age"},
	}, model.LayoutDescriptor{})

	first, ok := spec.Field("first_name")
	if !ok || first.Label != "First Name" {
		t.Fatalf("expected derived label, got %+v", first)
	}
	if spec.Layout.Kind != model.LayoutGrid {
		t.Fatalf("expected grid as the default layout, got %q", spec.Layout.Kind)
	}

	root := spec.Root()
	if diff := cmp.Diff([]string{"first_name", "age"}, root.Names()); diff != "" {
		t.Fatalf("root properties mismatch (-want +got):\n%s", diff)
	}
	node, _ := root.Property("age")
	if node.Meta().Default != 30.0 {
		t.Fatalf("expected default override on root, got %v", node.Meta().Default)
	}
	if age.Meta().HasDefault {
		t.Fatalf("expected the shared node to stay untouched")
	}
}

func TestFormSpec_DependencyGraph(t *testing.T) {
	loader := model.OptionSource{Loader: noopLoader}
	spec := model.MustNew("catalog", []model.FieldSpec{
		{Name: "subcategory", Schema: text(false), DependsOn: "category", Options: loader},
		{Name: "notes", Schema: text(false)},
		{Name: "item", Schema: text(false), DependsOn: "subcategory", Options: loader},
		{Name: "category", Schema: text(true), Options: loader},
	}, model.LayoutDescriptor{Kind: model.LayoutStack})

	if diff := cmp.Diff([]string{"notes", "category", "subcategory", "item"}, spec.TopologicalOrder()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"subcategory"}, spec.Dependents("category")); diff != "" {
		t.Fatalf("dependents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"subcategory", "item"}, spec.TransitiveDependents("category")); diff != "" {
		t.Fatalf("transitive dependents mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"category", "subcategory", "item"}, spec.DynamicFields()); diff != "" {
		t.Fatalf("dynamic fields mismatch (-want +got):\n%s", diff)
	}
	if spec.Controls("notes") || !spec.Controls("subcategory") {
		t.Fatalf("unexpected Controls result")
	}
}
