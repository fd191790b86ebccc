// Package model holds the helpers shared by the form builders: label
// generation and extraction of x-formgen UI hints from schema extensions.
package model

import "strings"

const extensionNamespace = "x-formgen"

// Hints are the UI directives a schema can carry through x-formgen
// extensions, either nested (`x-formgen: {label: ...}`) or flattened
// (`x-formgen-label: ...`).
type Hints struct {
	Label       string
	Placeholder string
	HelpText    string
	Widget      string
	Section     string
	Order       *int
	Width       int
	Grid        GridHints
}

// Empty reports whether no hint was found.
func (h Hints) Empty() bool {
	return h.Label == "" && h.Placeholder == "" && h.HelpText == "" && h.Widget == "" &&
		h.Section == "" && h.Order == nil && h.Width == 0 && h.Grid == (GridHints{})
}

// ParseExtensions extracts Hints from a raw extension map. Unknown keys and
// values that cannot be rendered as strings are ignored.
func ParseExtensions(ext map[string]any) Hints {
	values := flattenExtensions(ext)
	hints := Hints{
		Label:       values["label"],
		Placeholder: values["placeholder"],
		HelpText:    firstNonEmpty(values["helpText"], values["hint"]),
		Widget:      values["widget"],
		Section:     values["section"],
		Grid:        gridHintsFromExtensions(ext),
	}
	if order, ok := toIntValue(values["order"]); ok {
		hints.Order = &order
	}
	if width, ok := toIntValue(values["width"]); ok && width > 0 {
		hints.Width = width
	}
	return hints
}

func flattenExtensions(ext map[string]any) map[string]string {
	result := make(map[string]string)
	for key, value := range ext {
		if key == extensionNamespace {
			nested := toAnyMap(value)
			for nestedKey, nestedValue := range nested {
				if !IsAllowedUIHintKey(nestedKey) {
					continue
				}
				if str, ok := CanonicalizeExtensionValue(nestedValue); ok {
					result[nestedKey] = str
				}
			}
			continue
		}
		if strings.HasPrefix(key, extensionNamespace+"-") {
			trimmed := strings.TrimPrefix(key, extensionNamespace+"-")
			if !IsAllowedUIHintKey(trimmed) {
				continue
			}
			if _, exists := result[trimmed]; exists {
				continue
			}
			if str, ok := CanonicalizeExtensionValue(value); ok {
				result[trimmed] = str
			}
		}
	}
	return result
}

func toAnyMap(value any) map[string]any {
	switch typed := value.(type) {
	case map[string]any:
		return typed
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, v := range typed {
			out[key] = v
		}
		return out
	default:
		return nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
