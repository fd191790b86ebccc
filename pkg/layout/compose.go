// Package layout turns a FormSpec into a render plan: ordered sections of
// rows, each item carrying its column span or width and its resolved widget.
// Composition is pure; the same FormSpec always yields the same plan.
package layout

import (
	"sort"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-formkit/pkg/model"
	"github.com/goliatone/go-formkit/pkg/validation"
	"github.com/goliatone/go-formkit/pkg/widgets"
)

const (
	DefaultGridColumns   = 12
	DefaultColumnCount   = 2
	DefaultMinFieldWidth = 20
	DefaultMaxWidth      = 80
	DefaultInlineGutter  = 2
)

// Compositor builds render plans. It is safe for concurrent use.
type Compositor struct {
	widgets *widgets.Registry
	policy  *bluemonday.Policy
}

// Option customises a Compositor.
type Option func(*Compositor)

// WithWidgetRegistry replaces the widget registry.
func WithWidgetRegistry(registry *widgets.Registry) Option {
	return func(c *Compositor) {
		if registry != nil {
			c.widgets = registry
		}
	}
}

// WithHelpPolicy replaces the sanitiser applied to help text.
func WithHelpPolicy(policy *bluemonday.Policy) Option {
	return func(c *Compositor) {
		if policy != nil {
			c.policy = policy
		}
	}
}

// NewCompositor creates a Compositor with the built-in widget rules.
func NewCompositor(opts ...Option) *Compositor {
	c := &Compositor{
		widgets: widgets.NewRegistry(),
		policy:  helpSanitizer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Compose builds the plan of spec with a default Compositor.
func Compose(spec *model.FormSpec) RenderPlan {
	return NewCompositor().Compose(spec)
}

// Compose builds the render plan of spec.
func (c *Compositor) Compose(spec *model.FormSpec) RenderPlan {
	if spec == nil {
		return RenderPlan{}
	}
	layout := spec.Layout
	plan := RenderPlan{
		FormID:      spec.ID,
		Title:       spec.Title,
		Description: spec.Description,
		Kind:        layout.Kind,
		Gutter:      layout.Gutter,
	}
	switch layout.Kind {
	case model.LayoutGrid:
		plan.Columns = positiveOr(layout.Columns, DefaultGridColumns)
	case model.LayoutColumns:
		plan.Columns = positiveOr(layout.Columns, DefaultColumnCount)
	case model.LayoutInline:
		plan.Columns = positiveOr(layout.MaxWidth, DefaultMaxWidth)
		plan.Gutter = positiveOr(layout.Gutter, DefaultInlineGutter)
	case model.LayoutStack:
		plan.Columns = 1
	default:
		plan.Kind = model.LayoutStack
		plan.Columns = 1
	}

	for _, group := range groupSections(spec) {
		items := make([]placed, 0, len(group.fields))
		for _, field := range group.fields {
			items = append(items, placed{field: field, item: c.item(field)})
		}

		var rows []Row
		switch plan.Kind {
		case model.LayoutGrid, model.LayoutColumns:
			rows = packGrid(items, plan.Columns, plan.Kind == model.LayoutColumns)
		case model.LayoutInline:
			rows = packInline(items, plan.Columns, plan.Gutter, positiveOr(layout.MinFieldWidth, DefaultMinFieldWidth))
		default:
			rows = packStack(items)
		}
		plan.Sections = append(plan.Sections, SectionPlan{
			ID:          group.section.ID,
			Title:       group.section.Title,
			Description: group.section.Description,
			Rows:        rows,
		})
	}
	return plan
}

type placed struct {
	field model.FieldSpec
	item  Item
}

func (c *Compositor) item(field model.FieldSpec) Item {
	widget, _ := c.widgets.Resolve(field)
	return Item{
		Field:       field.Name,
		Label:       field.Label,
		Widget:      widget,
		DataKind:    field.DataKind(),
		Required:    field.Required(),
		Placeholder: field.Placeholder,
		HelpHTML:    sanitizeHelp(c.policy, field.Help),
		DependsOn:   field.DependsOn,
		Dynamic:     field.Options.Dynamic(),
		Options:     append([]model.Option(nil), field.Options.Static...),
		Rules:       validation.Rules(field.Schema),
	}
}

type sectionGroup struct {
	section model.Section
	fields  []model.FieldSpec
}

// groupSections orders fields and splits them into the default section
// followed by the declared sections. Empty sections are dropped.
func groupSections(spec *model.FormSpec) []sectionGroup {
	fields := orderFields(spec.Fields())

	groups := []sectionGroup{{}}
	position := map[string]int{"": 0}
	for _, section := range spec.Layout.Sections {
		position[section.ID] = len(groups)
		groups = append(groups, sectionGroup{section: section})
	}
	for _, field := range fields {
		idx := position[field.Layout.Section]
		groups[idx].fields = append(groups[idx].fields, field)
	}

	out := groups[:0]
	for _, group := range groups {
		if len(group.fields) > 0 {
			out = append(out, group)
		}
	}
	return out
}

// orderFields puts fields with an explicit Order first, ascending, and keeps
// declaration order otherwise.
func orderFields(fields []model.FieldSpec) []model.FieldSpec {
	sort.SliceStable(fields, func(i, j int) bool {
		a, b := fields[i].Layout.Order, fields[j].Layout.Order
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return fields
}

// packGrid fills rows left to right. Fields without a span take the full
// width in grids and one column in column layouts. A Row hint moves a field
// to a later row; a Start hint pins its first column and opens a new row when
// that column is already taken.
func packGrid(items []placed, columns int, oneColumnDefault bool) []Row {
	var rows []Row
	rowIndex, cursor := 1, 1
	for _, entry := range items {
		hints := entry.field.Layout
		span := clamp(hints.Span, 1, columns)
		if hints.Span == 0 && !oneColumnDefault {
			span = columns
		}

		if hints.Row > rowIndex {
			rowIndex, cursor = hints.Row, 1
		}

		start := cursor
		if hints.Start > 0 {
			start = clamp(hints.Start, 1, columns-span+1)
			if start < cursor {
				rowIndex++
			}
		} else if cursor+span-1 > columns {
			rowIndex++
			start = 1
		}

		entry.item.Span = span
		entry.item.Start = start
		rows = appendToRow(rows, rowIndex, entry.item)
		cursor = start + span
	}
	return rows
}

// packInline wraps fields once a row would exceed maxWidth. Each field is at
// least minWidth wide and wide enough for its label.
func packInline(items []placed, maxWidth, gutter, minWidth int) []Row {
	var rows []Row
	rowIndex, used := 1, 0
	for _, entry := range items {
		width := entry.field.Layout.Width
		if width < minWidth {
			width = minWidth
		}
		if labelWidth := utf8.RuneCountInString(entry.item.Label) + 2; width < labelWidth {
			width = labelWidth
		}
		if width > maxWidth {
			width = maxWidth
		}

		offset := used
		if used > 0 {
			offset += gutter
		}
		if used > 0 && offset+width > maxWidth {
			rowIndex++
			offset = 0
		}

		entry.item.Width = width
		entry.item.Start = offset + 1
		entry.item.Span = 1
		rows = appendToRow(rows, rowIndex, entry.item)
		used = offset + width
	}
	return rows
}

func packStack(items []placed) []Row {
	rows := make([]Row, 0, len(items))
	for i, entry := range items {
		entry.item.Span = 1
		entry.item.Start = 1
		rows = append(rows, Row{Index: i + 1, Items: []Item{entry.item}})
	}
	return rows
}

func appendToRow(rows []Row, index int, item Item) []Row {
	if n := len(rows); n > 0 && rows[n-1].Index == index {
		rows[n-1].Items = append(rows[n-1].Items, item)
		return rows
	}
	return append(rows, Row{Index: index, Items: []Item{item}})
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
