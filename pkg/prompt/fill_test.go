package prompt_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/controller"
	"github.com/goliatone/go-formkit/pkg/layout"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/prompt"
	"github.com/goliatone/go-formkit/pkg/schema"
)

// scriptedDriver answers prompts from per-label queues.
type scriptedDriver struct {
	mu      sync.Mutex
	answers map[string][]any
	asked   []string
	infos   []string
	choices map[string][]string
}

func newScriptedDriver(answers map[string][]any) *scriptedDriver {
	return &scriptedDriver{answers: answers, choices: map[string][]string{}}
}

func (d *scriptedDriver) next(message string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	label := strings.TrimSuffix(strings.TrimSuffix(message, " (JSON)"), " *")
	d.asked = append(d.asked, label)
	queue := d.answers[label]
	if len(queue) == 0 {
		return nil, fmt.Errorf("no scripted answer for %q", label)
	}
	d.answers[label] = queue[1:]
	return queue[0], nil
}

func (d *scriptedDriver) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return "", err
	}
	s := answer.(string)
	if cfg.Validator != nil {
		if err := cfg.Validator(s); err != nil {
			return "", err
		}
	}
	return s, nil
}

func (d *scriptedDriver) Confirm(_ context.Context, cfg prompt.ConfirmConfig) (bool, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return false, err
	}
	return answer.(bool), nil
}

func (d *scriptedDriver) Select(_ context.Context, cfg prompt.SelectConfig) (int, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	d.choices[cfg.Message] = append([]string(nil), cfg.Options...)
	d.mu.Unlock()
	for i, option := range cfg.Options {
		if option == answer.(string) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("option %q not offered in %v", answer, cfg.Options)
}

func (d *scriptedDriver) MultiSelect(_ context.Context, cfg prompt.SelectConfig) ([]int, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return nil, err
	}
	var out []int
	for _, want := range answer.([]string) {
		for i, option := range cfg.Options {
			if option == want {
				out = append(out, i)
			}
		}
	}
	return out, nil
}

func (d *scriptedDriver) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	answer, err := d.next(cfg.Message)
	if err != nil {
		return "", err
	}
	s := answer.(string)
	if cfg.Validator != nil {
		if err := cfg.Validator(s); err != nil {
			return "", err
		}
	}
	return s, nil
}

func (d *scriptedDriver) Info(_ context.Context, msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.infos = append(d.infos, msg)
	return nil
}

func orderSpec(t *testing.T) *model.FormSpec {
	t.Helper()
	spec, err := model.Build(model.FormConfig{
		ID: "order",
		Fields: []model.FieldConfig{
			{Name: "name", Schema: schema.Config{Kind: schema.KindString, Required: true}},
			{Name: "category", Schema: schema.Config{Kind: schema.KindString, Required: true}, Options: []model.Option{
				{Value: "books", Label: "Books"},
				{Value: "electronics", Label: "Electronics"},
			}},
			{Name: "subcategory", Schema: schema.Config{Kind: schema.KindString}, DependsOn: "category", Loader: "subcategories"},
			{Name: "qty", Schema: schema.Config{
				Kind:        schema.KindNumber,
				Required:    true,
				Constraints: []schema.ConstraintConfig{schema.Min(1, "at least one")},
			}},
			{Name: "gift", Schema: schema.Config{Kind: schema.KindBoolean}},
			{Name: "tags", Schema: schema.Config{Kind: schema.KindArray, Items: &schema.Config{Kind: schema.KindString}}},
		},
	}, map[string]model.OptionLoader{
		"subcategories": model.TableLoader(map[string][]model.Option{
			"books":       {{Value: "fiction", Label: "Fiction"}, {Value: "poetry", Label: "Poetry"}},
			"electronics": {{Value: "phones", Label: "Phones"}},
		}),
	})
	if err != nil {
		t.Fatalf("spec: %v", err)
	}
	return spec
}

func TestFiller_FillsAndCorrectsInvalidFields(t *testing.T) {
	var submitted map[string]any
	spec := orderSpec(t)
	ctrl, err := controller.New(spec,
		controller.WithInitialData(map[string]any{"name": "", "category": "", "qty": 1}),
		controller.WithSubmitHandler(func(_ context.Context, values map[string]any) error {
			submitted = values
			return nil
		}),
	)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	t.Cleanup(ctrl.Close)

	driver := newScriptedDriver(map[string][]any{
		"Name":        {"Ada"},
		"Category":    {"Books"},
		"Subcategory": {"Poetry"},
		"Qty":         {"0", "2"},
		"Gift":        {true},
		"Tags":        {`["a","b"]`},
	})

	if err := prompt.NewFiller(driver).Fill(context.Background(), ctrl, layout.Compose(spec)); err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := map[string]any{
		"name":        "Ada",
		"category":    "books",
		"subcategory": "poetry",
		"qty":         2.0,
		"gift":        true,
		"tags":        []any{"a", "b"},
	}
	if diff := cmp.Diff(want, submitted); diff != "" {
		t.Fatalf("unexpected submission (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Fiction", "Poetry"}, driver.choices["Subcategory"]); diff != "" {
		t.Fatalf("expected loaded options for books (-want +got):\n%s", diff)
	}
	wantAsked := []string{"Name", "Category", "Subcategory", "Qty", "Gift", "Tags", "Qty"}
	if diff := cmp.Diff(wantAsked, driver.asked); diff != "" {
		t.Fatalf("unexpected prompt order (-want +got):\n%s", diff)
	}
	if len(driver.infos) != 1 || !strings.Contains(driver.infos[0], "qty: at least one") {
		t.Fatalf("expected a correction notice, got %v", driver.infos)
	}
	if ctrl.Status() != controller.StatusSucceeded {
		t.Fatalf("expected succeeded, got %s", ctrl.Status())
	}
}

func TestFiller_GivesUpAfterAttempts(t *testing.T) {
	spec := orderSpec(t)
	ctrl, err := controller.New(spec,
		controller.WithInitialData(map[string]any{"name": "", "category": "", "qty": 1}),
		controller.WithSubmitHandler(func(context.Context, map[string]any) error { return nil }),
	)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	t.Cleanup(ctrl.Close)

	driver := newScriptedDriver(map[string][]any{
		"Name":        {""},
		"Category":    {"Electronics"},
		"Subcategory": {"Phones"},
		"Qty":         {"1"},
		"Gift":        {false},
		"Tags":        {""},
	})

	err = prompt.NewFiller(driver, prompt.WithAttempts(0)).Fill(context.Background(), ctrl, layout.Compose(spec))
	if !errors.Is(err, prompt.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
	if !strings.Contains(err.Error(), "name: required") {
		t.Fatalf("expected the failing field in the error, got %v", err)
	}
}

func TestFiller_PropagatesAbort(t *testing.T) {
	spec := orderSpec(t)
	ctrl, err := controller.New(spec, controller.WithInitialData(map[string]any{"name": "", "category": "", "qty": 1}))
	if err != nil {
		t.Fatalf("controller: %v", err)
	}
	t.Cleanup(ctrl.Close)

	driver := newScriptedDriver(map[string][]any{})
	if err := prompt.NewFiller(driver).Fill(context.Background(), ctrl, layout.Compose(spec)); err == nil || !strings.Contains(err.Error(), `field "name"`) {
		t.Fatalf("expected the driver error to surface, got %v", err)
	}
}
