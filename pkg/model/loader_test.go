package model_test

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/testsupport"
)

const catalogYAML = `
forms:
  - id: product
    title: Product
    layout:
      kind: columns
      columns: 2
    fields:
      - name: category
        schema: {kind: string, required: true}
        options:
          - {value: books, label: Books}
          - {value: electronics, label: Electronics}
      - name: subcategory
        schema: {kind: string}
        loader: subcategories
        dependsOn: category
      - name: stock
        schema:
          kind: number
          constraints:
            - {kind: min, value: 0}
        default: 5
optionTables:
  subcategories:
    books:
      - {value: fiction, label: Fiction}
    electronics:
      - {value: phones, label: Phones}
`

const catalogJSON = `{
  "forms": [
    {"id": "contact", "fields": [{"name": "email", "schema": {"kind": "string", "constraints": [{"kind": "email"}]}}]}
  ]
}`

func TestLoadFS(t *testing.T) {
	catalog := testsupport.LoadCatalog(t, map[string]string{
		"forms/product.yaml": catalogYAML,
		"forms/contact.json": catalogJSON,
		"forms/README.md":    "ignored",
	}, nil)
	if diff := cmp.Diff([]string{"contact", "product"}, catalog.Forms()); diff != "" {
		t.Fatalf("forms mismatch (-want +got):\n%s", diff)
	}

	product := testsupport.MustForm(t, catalog, "product")
	if product.Title != "Product" || product.Layout.Kind != model.LayoutColumns {
		t.Fatalf("unexpected form header %+v", product)
	}

	sub, _ := product.Field("subcategory")
	if sub.Options.Loader == nil {
		t.Fatalf("expected option table to be bound as loader")
	}
	options, err := sub.Options.Loader(testsupport.Context(t), "books")
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if diff := cmp.Diff([]model.Option{{Value: "fiction", Label: "Fiction"}}, options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	stock, _ := product.Field("stock")
	if stock.Schema.Meta().Default != 5.0 {
		t.Fatalf("expected field default override, got %v", stock.Schema.Meta().Default)
	}
}

func TestLoadFS_DuplicateForms(t *testing.T) {
	fsys := fstest.MapFS{
		"a.json": {Data: []byte(catalogJSON)},
		"b.json": {Data: []byte(catalogJSON)},
	}
	if _, err := model.LoadFS(fsys, nil); !errors.Is(err, model.ErrDuplicateForm) {
		t.Fatalf("expected duplicate form error, got %v", err)
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := model.Parse([]byte("  "), "empty.yaml"); !errors.Is(err, model.ErrInvalidDocument) {
		t.Fatalf("expected invalid document for empty input, got %v", err)
	}
	if _, err := model.Parse([]byte("forms: [unterminated"), "bad.yaml"); !errors.Is(err, model.ErrInvalidDocument) {
		t.Fatalf("expected invalid document, got %v", err)
	}
}

func TestBuild_PropagatesSchemaErrors(t *testing.T) {
	_, err := model.Build(model.FormConfig{
		ID: "broken",
		Fields: []model.FieldConfig{
			{Name: "status", Schema: schema.Config{Kind: schema.KindEnum}},
		},
	}, nil)
	if !errors.Is(err, schema.ErrEmptyEnum) {
		t.Fatalf("expected empty enum error, got %v", err)
	}
}

func TestBindLoaders(t *testing.T) {
	spec, err := model.Build(model.FormConfig{
		ID: "lookup",
		Fields: []model.FieldConfig{
			{Name: "country", Schema: schema.Config{Kind: schema.KindString}, Loader: "countries"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, err := model.BindLoaders(spec, nil); !errors.Is(err, model.ErrUnknownLoader) {
		t.Fatalf("expected unknown loader error, got %v", err)
	}

	bound, err := model.BindLoaders(spec, map[string]model.OptionLoader{
		"countries": func(context.Context, any) ([]model.Option, error) {
			return []model.Option{{Value: "de", Label: "Germany"}}, nil
		},
	})
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	field, _ := bound.Field("country")
	if field.Options.Loader == nil {
		t.Fatalf("expected loader to be bound")
	}
	original, _ := spec.Field("country")
	if original.Options.Loader != nil {
		t.Fatalf("expected original spec to stay unbound")
	}
}

func TestTableLoader_FallsBackToWildcard(t *testing.T) {
	loader := model.TableLoader(map[string][]model.Option{
		"1": {{Value: 10, Label: "Ten"}},
		"*": {{Value: 0, Label: "None"}},
	})

	got, err := loader(testsupport.Context(t), 1)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	if diff := cmp.Diff([]model.Option{{Value: 10.0, Label: "Ten"}}, got); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	got, _ = loader(testsupport.Context(t), "unknown")
	if len(got) != 1 || got[0].Label != "None" {
		t.Fatalf("expected wildcard options, got %v", got)
	}

	ctx, cancel := context.WithCancel(testsupport.Context(t))
	cancel()
	if _, err := loader(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}
