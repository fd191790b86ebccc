package model

import (
	"math"
	"strconv"
	"strings"
)

// GridHints position a field inside a grid layout. Zero values mean "not
// set".
type GridHints struct {
	Span  int
	Start int
	Row   int
}

func gridHintsFromExtensions(ext map[string]any) GridHints {
	grid := extractGridMap(ext)
	if len(grid) == 0 {
		return GridHints{}
	}
	return GridHints{
		Span:  positiveInt(grid["span"]),
		Start: positiveInt(grid["start"]),
		Row:   positiveInt(grid["row"]),
	}
}

func extractGridMap(ext map[string]any) map[string]any {
	if len(ext) == 0 {
		return nil
	}
	if raw, ok := ext[extensionNamespace]; ok {
		if nested := toAnyMap(raw); len(nested) > 0 {
			if grid := toAnyMap(nested["grid"]); len(grid) > 0 {
				return grid
			}
		}
	}
	if raw, ok := ext[extensionNamespace+"-grid"]; ok {
		if grid := toAnyMap(raw); len(grid) > 0 {
			return grid
		}
	}
	return nil
}

func positiveInt(value any) int {
	num, ok := toIntValue(value)
	if !ok || num <= 0 {
		return 0
	}
	return num
}

func toIntValue(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.Atoi(trimmed)
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
