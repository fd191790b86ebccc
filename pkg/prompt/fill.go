// Package prompt fills a form interactively. Fields are asked in render
// plan order through a Driver, values flow through the form controller, and
// fields that fail validation are asked again before submitting.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/controller"
	"github.com/goliatone/go-formkit/pkg/dependency"
	"github.com/goliatone/go-formkit/pkg/layout"
	"github.com/goliatone/go-formkit/pkg/logging"
	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/schema"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

// DefaultAttempts is the number of correction rounds after the first pass.
const DefaultAttempts = 3

// Filler asks for every field of a controller's form.
type Filler struct {
	driver   Driver
	logger   *zap.Logger
	attempts int
}

// FillerOption customises a Filler.
type FillerOption func(*Filler)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) FillerOption {
	return func(f *Filler) {
		f.logger = logging.OrNop(logger)
	}
}

// WithAttempts sets the number of correction rounds.
func WithAttempts(n int) FillerOption {
	return func(f *Filler) {
		if n >= 0 {
			f.attempts = n
		}
	}
}

// NewFiller creates a Filler that prompts through driver.
func NewFiller(driver Driver, opts ...FillerOption) *Filler {
	f := &Filler{driver: driver, logger: logging.Nop(), attempts: DefaultAttempts}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Fill prompts for every field in plan order and submits the form. When
// submission fails validation the failing fields are asked again. Handler
// errors are returned as-is.
func (f *Filler) Fill(ctx context.Context, c *controller.Controller, plan layout.RenderPlan) error {
	items := plan.Items()
	if err := f.ask(ctx, c, items); err != nil {
		return err
	}

	for round := 0; ; round++ {
		err := c.Submit(ctx)
		if !errors.Is(err, controller.ErrValidationFailed) {
			return err
		}
		state := c.Snapshot()
		if round >= f.attempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, describeErrors(state.Errors))
		}
		f.logger.Debug("re-asking invalid fields", zap.Int("round", round+1), zap.Int("errors", len(state.Errors)))
		if err := f.driver.Info(ctx, "Please correct: "+describeErrors(state.Errors)); err != nil {
			return err
		}
		if err := f.ask(ctx, c, failing(items, state.Errors)); err != nil {
			return err
		}
	}
}

func (f *Filler) ask(ctx context.Context, c *controller.Controller, items []layout.Item) error {
	for _, item := range items {
		value, err := f.askItem(ctx, c, item)
		if err != nil {
			return fmt.Errorf("prompt: field %q: %w", item.Field, err)
		}
		if err := c.SetValue(item.Field, value); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filler) askItem(ctx context.Context, c *controller.Controller, item layout.Item) (any, error) {
	current, _ := c.Value(item.Field)
	message := item.Label
	if item.Required {
		message += " *"
	}
	help := item.Placeholder
	if help == "" {
		help = item.HelpHTML
	}

	options, err := f.optionsFor(ctx, c, item)
	if err != nil {
		return nil, err
	}

	switch item.Widget {
	case widgets.WidgetToggle:
		def, _ := current.(bool)
		return f.driver.Confirm(ctx, ConfirmConfig{Message: message, Default: def, Help: help})

	case widgets.WidgetSelect:
		if len(options) == 0 {
			return f.askText(ctx, message, help, current)
		}
		labels := optionLabels(options)
		idx, err := f.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      labels,
			DefaultIndex: optionIndex(options, current),
			Help:         help,
		})
		if err != nil || idx < 0 {
			return nil, err
		}
		return options[idx].Value, nil

	case widgets.WidgetMultiSelect:
		labels := optionLabels(options)
		indices, err := f.driver.MultiSelect(ctx, SelectConfig{
			Message:  message,
			Options:  labels,
			Defaults: selectedIndices(options, current),
			Help:     help,
		})
		if err != nil {
			return nil, err
		}
		values := make([]any, 0, len(indices))
		for _, idx := range indices {
			values = append(values, options[idx].Value)
		}
		return values, nil

	case widgets.WidgetNumber:
		return f.askNumber(ctx, message, help, current)

	case widgets.WidgetTextarea, widgets.WidgetJSONEditor:
		answer, err := f.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: text(current), Help: help})
		if err != nil {
			return nil, err
		}
		return blankToNil(answer), nil

	case widgets.WidgetFieldset, widgets.WidgetRepeater:
		return f.askStructured(ctx, message, help, current)
	}

	if item.DataKind == schema.KindObject || item.DataKind == schema.KindArray {
		return f.askStructured(ctx, message, help, current)
	}
	return f.askText(ctx, message, help, current)
}

// optionsFor returns the options of item. Dynamic options are read after
// pending loads settle; a failed load is reported and leaves no choices.
func (f *Filler) optionsFor(ctx context.Context, c *controller.Controller, item layout.Item) ([]model.Option, error) {
	if !item.Dynamic {
		return item.Options, nil
	}
	c.Wait()
	state, _ := c.Options(item.Field)
	switch state.Status {
	case dependency.StatusLoaded:
		return state.Options, nil
	case dependency.StatusError:
		f.logger.Warn("option load failed", zap.String("field", item.Field), zap.Error(state.Err))
		return nil, f.driver.Info(ctx, fmt.Sprintf("Options for %s are unavailable: %v", item.Label, state.Err))
	default:
		return nil, nil
	}
}

func (f *Filler) askText(ctx context.Context, message, help string, current any) (any, error) {
	answer, err := f.driver.Input(ctx, InputConfig{Message: message, Default: text(current), Help: help})
	if err != nil {
		return nil, err
	}
	return blankToNil(answer), nil
}

func (f *Filler) askNumber(ctx context.Context, message, help string, current any) (any, error) {
	answer, err := f.driver.Input(ctx, InputConfig{
		Message: message,
		Default: text(current),
		Help:    help,
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return nil
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return fmt.Errorf("%q is not a number", s)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return nil, nil
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n, nil
	}
	return trimmed, nil
}

// askStructured reads objects and arrays as JSON documents.
func (f *Filler) askStructured(ctx context.Context, message, help string, current any) (any, error) {
	def := ""
	if current != nil {
		if payload, err := json.Marshal(current); err == nil {
			def = string(payload)
		}
	}
	answer, err := f.driver.TextArea(ctx, TextAreaConfig{
		Message: message + " (JSON)",
		Default: def,
		Help:    help,
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" || json.Valid([]byte(s)) {
				return nil
			}
			return errors.New("invalid JSON")
		},
	})
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(answer) == "" {
		return nil, nil
	}
	var out any
	if err := json.Unmarshal([]byte(answer), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func failing(items []layout.Item, errs map[string]string) []layout.Item {
	var out []layout.Item
	for _, item := range items {
		prefix := item.Field + "."
		for path := range errs {
			if path == item.Field || strings.HasPrefix(path, prefix) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

func describeErrors(errs map[string]string) string {
	paths := make([]string, 0, len(errs))
	for path := range errs {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	parts := make([]string, 0, len(paths))
	for _, path := range paths {
		parts = append(parts, path+": "+errs[path])
	}
	return strings.Join(parts, ", ")
}

func optionLabels(options []model.Option) []string {
	labels := make([]string, len(options))
	for i, option := range options {
		labels[i] = option.Label
		if labels[i] == "" {
			labels[i] = fmt.Sprint(option.Value)
		}
	}
	return labels
}

func optionIndex(options []model.Option, current any) int {
	if current == nil {
		return -1
	}
	for i, option := range options {
		if schema.EqualValues(option.Value, current) {
			return i
		}
	}
	return -1
}

func selectedIndices(options []model.Option, current any) []int {
	values, ok := schema.ToSlice(current)
	if !ok {
		return nil
	}
	var out []int
	for _, value := range values {
		if idx := optionIndex(options, value); idx >= 0 {
			out = append(out, idx)
		}
	}
	return out
}

func text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func blankToNil(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
