package layout_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/layout"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/testsupport"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

func str(cfg schema.Config) schema.Node {
	cfg.Kind = schema.KindString
	return schema.MustBuild(cfg)
}

func order(n int) *int { return &n }

type cell struct {
	Field string
	Row   int
	Start int
	Span  int
}

func cells(plan layout.RenderPlan) []cell {
	var out []cell
	for _, section := range plan.Sections {
		for _, row := range section.Rows {
			for _, item := range row.Items {
				out = append(out, cell{Field: item.Field, Row: row.Index, Start: item.Start, Span: item.Span})
			}
		}
	}
	return out
}

func TestCompose_Golden(t *testing.T) {
	spec := model.MustNew("contact", []model.FieldSpec{
		{Name: "name", Schema: str(schema.Config{Required: true}), Layout: model.LayoutHints{Span: 6}},
		{
			Name:        "email",
			Schema:      str(schema.Config{Constraints: []schema.ConstraintConfig{schema.Format(schema.ConstraintEmail, "")}}),
			Placeholder: "you@example.com",
			Layout:      model.LayoutHints{Span: 6},
		},
		{
			Name:   "bio",
			Schema: str(schema.Config{Constraints: []schema.ConstraintConfig{schema.MaxLength(500, "")}}),
			Help:   "  Tell us <b>more</b>  ",
		},
	}, model.LayoutDescriptor{Kind: model.LayoutGrid}, model.WithTitle("Contact"))

	testsupport.AssertGolden(t, "testdata/contact_plan.golden.json", layout.Compose(spec))
}

func TestCompose_GridWrapsAndHonoursHints(t *testing.T) {
	spec := model.MustNew("grid", []model.FieldSpec{
		{Name: "a", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 8}},
		{Name: "b", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 6}},
		{Name: "c", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 20}},
		{Name: "d", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 4, Start: 9}},
		{Name: "e", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 3, Row: 7}},
		{Name: "f", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 3, Start: 1}},
	}, model.LayoutDescriptor{Kind: model.LayoutGrid, Columns: 12})

	want := []cell{
		{Field: "a", Row: 1, Start: 1, Span: 8},
		{Field: "b", Row: 2, Start: 1, Span: 6},
		{Field: "c", Row: 3, Start: 1, Span: 12},
		{Field: "d", Row: 4, Start: 9, Span: 4},
		{Field: "e", Row: 7, Start: 1, Span: 3},
		{Field: "f", Row: 8, Start: 1, Span: 3},
	}
	if diff := cmp.Diff(want, cells(layout.Compose(spec))); diff != "" {
		t.Fatalf("unexpected placement (-want +got):\n%s", diff)
	}
}

func TestCompose_ColumnsDefaultToSingleColumnSpan(t *testing.T) {
	spec := model.MustNew("cols", []model.FieldSpec{
		{Name: "first", Schema: str(schema.Config{})},
		{Name: "second", Schema: str(schema.Config{})},
		{Name: "third", Schema: str(schema.Config{})},
	}, model.LayoutDescriptor{Kind: model.LayoutColumns})

	plan := layout.Compose(spec)
	if plan.Columns != layout.DefaultColumnCount {
		t.Fatalf("expected %d columns, got %d", layout.DefaultColumnCount, plan.Columns)
	}
	want := []cell{
		{Field: "first", Row: 1, Start: 1, Span: 1},
		{Field: "second", Row: 1, Start: 2, Span: 1},
		{Field: "third", Row: 2, Start: 1, Span: 1},
	}
	if diff := cmp.Diff(want, cells(plan)); diff != "" {
		t.Fatalf("unexpected placement (-want +got):\n%s", diff)
	}
}

func TestCompose_OrderAndSections(t *testing.T) {
	spec := model.MustNew("sections", []model.FieldSpec{
		{Name: "street", Schema: str(schema.Config{}), Layout: model.LayoutHints{Section: "address"}},
		{Name: "city", Schema: str(schema.Config{}), Layout: model.LayoutHints{Section: "address", Order: order(1)}},
		{Name: "name", Schema: str(schema.Config{})},
		{Name: "email", Schema: str(schema.Config{}), Layout: model.LayoutHints{Order: order(2)}},
		{Name: "notes", Schema: str(schema.Config{}), Layout: model.LayoutHints{Section: "extra"}},
	}, model.LayoutDescriptor{
		Kind: model.LayoutStack,
		Sections: []model.Section{
			{ID: "address", Title: "Address"},
			{ID: "empty", Title: "Nothing here"},
			{ID: "extra", Title: "Extra"},
		},
	})

	plan := layout.Compose(spec)
	var ids []string
	var fields [][]string
	for _, section := range plan.Sections {
		ids = append(ids, section.ID)
		var names []string
		for _, row := range section.Rows {
			for _, item := range row.Items {
				names = append(names, item.Field)
			}
		}
		fields = append(fields, names)
	}

	if diff := cmp.Diff([]string{"", "address", "extra"}, ids); diff != "" {
		t.Fatalf("unexpected sections (-want +got):\n%s", diff)
	}
	wantFields := [][]string{{"email", "name"}, {"city", "street"}, {"notes"}}
	if diff := cmp.Diff(wantFields, fields); diff != "" {
		t.Fatalf("unexpected field order (-want +got):\n%s", diff)
	}
	if plan.Sections[1].Title != "Address" {
		t.Fatalf("expected section title to carry over, got %q", plan.Sections[1].Title)
	}
}

func TestCompose_InlineWrapsOnWidth(t *testing.T) {
	spec := model.MustNew("inline", []model.FieldSpec{
		{Name: "q", Schema: str(schema.Config{})},
		{Name: "from", Schema: str(schema.Config{}), Layout: model.LayoutHints{Width: 30}},
		{Name: "a_rather_long_label_for_a_field", Schema: str(schema.Config{})},
	}, model.LayoutDescriptor{Kind: model.LayoutInline, MaxWidth: 60, Gutter: 2})

	plan := layout.Compose(spec)
	items := plan.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Width != layout.DefaultMinFieldWidth || items[0].Start != 1 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Width != 30 || items[1].Start != 23 {
		t.Fatalf("unexpected second item %+v", items[1])
	}
	label := "A Rather Long Label For A Field"
	if items[2].Label != label || items[2].Width != len(label)+2 || items[2].Start != 1 {
		t.Fatalf("unexpected third item %+v", items[2])
	}
	if len(plan.Sections[0].Rows) != 2 {
		t.Fatalf("expected the third field to wrap, got %d rows", len(plan.Sections[0].Rows))
	}
}

func TestCompose_StackIsOneFieldPerRow(t *testing.T) {
	spec := model.MustNew("stack", []model.FieldSpec{
		{Name: "a", Schema: str(schema.Config{}), Layout: model.LayoutHints{Span: 6}},
		{Name: "b", Schema: str(schema.Config{})},
	}, model.LayoutDescriptor{Kind: model.LayoutStack})

	want := []cell{
		{Field: "a", Row: 1, Start: 1, Span: 1},
		{Field: "b", Row: 2, Start: 1, Span: 1},
	}
	if diff := cmp.Diff(want, cells(layout.Compose(spec))); diff != "" {
		t.Fatalf("unexpected placement (-want +got):\n%s", diff)
	}
}

func TestCompose_IsDeterministic(t *testing.T) {
	loader := func(context.Context, any) ([]model.Option, error) { return nil, nil }
	spec := model.MustNew("deterministic", []model.FieldSpec{
		{Name: "category", Schema: str(schema.Config{}), Options: model.OptionSource{Static: []model.Option{{Value: "books", Label: "Books"}}}},
		{Name: "subcategory", Schema: str(schema.Config{}), DependsOn: "category", Options: model.OptionSource{Loader: loader}},
		{Name: "tags", Schema: schema.MustBuild(schema.Config{Kind: schema.KindArray, Items: &schema.Config{Kind: schema.KindString}}), Layout: model.LayoutHints{Span: 4}},
	}, model.LayoutDescriptor{})

	first := layout.Compose(spec)
	second := layout.Compose(spec)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("expected identical plans (-first +second):\n%s", diff)
	}

	sub, ok := first.Item("subcategory")
	if !ok || !sub.Dynamic || sub.DependsOn != "category" || sub.Widget != widgets.WidgetSelect {
		t.Fatalf("unexpected dependent item %+v", sub)
	}
	tags, _ := first.Item("tags")
	if tags.Widget != widgets.WidgetRepeater {
		t.Fatalf("expected repeater for tags, got %q", tags.Widget)
	}
}

func TestCompose_SanitizesHelp(t *testing.T) {
	spec := model.MustNew("help", []model.FieldSpec{
		{Name: "a", Schema: str(schema.Config{}), Help: `Read <a href="https://example.com">docs</a><script>alert(1)</script><img src=x onerror=alert(1)>`},
	}, model.LayoutDescriptor{})

	item, _ := layout.Compose(spec).Item("a")
	if strings.Contains(item.HelpHTML, "<script") || strings.Contains(item.HelpHTML, "<img") || strings.Contains(item.HelpHTML, "onerror") {
		t.Fatalf("expected unsafe markup to be stripped, got %q", item.HelpHTML)
	}
	if !strings.Contains(item.HelpHTML, "docs") {
		t.Fatalf("expected link text to survive, got %q", item.HelpHTML)
	}
}

func TestCompositor_CustomWidgetRegistry(t *testing.T) {
	registry := widgets.NewRegistry()
	registry.Register("rich-text", 100, func(field model.FieldSpec) bool {
		return field.Name == "body"
	})
	spec := model.MustNew("custom", []model.FieldSpec{
		{Name: "body", Schema: str(schema.Config{})},
		{Name: "title", Schema: str(schema.Config{})},
	}, model.LayoutDescriptor{})

	plan := layout.NewCompositor(layout.WithWidgetRegistry(registry)).Compose(spec)
	body, _ := plan.Item("body")
	title, _ := plan.Item("title")
	if body.Widget != "rich-text" || title.Widget != widgets.WidgetText {
		t.Fatalf("unexpected widgets body=%q title=%q", body.Widget, title.Widget)
	}
}
