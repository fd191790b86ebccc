package model

import (
	"fmt"
	"strings"
)

// topologicalOrder runs Kahn's algorithm over DependsOn edges, always picking
// the earliest declared ready field.
func topologicalOrder(fields []FieldSpec, index map[string]int) ([]string, error) {
	pending := make([]int, len(fields))
	children := make([][]int, len(fields))
	for i, field := range fields {
		if field.DependsOn == "" {
			continue
		}
		parent := index[field.DependsOn]
		pending[i]++
		children[parent] = append(children[parent], i)
	}

	done := make([]bool, len(fields))
	order := make([]string, 0, len(fields))
	for len(order) < len(fields) {
		next := -1
		for i := range fields {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			return nil, fmt.Errorf("fields %s form a cycle", strings.Join(cycleMembers(fields, done), ", "))
		}
		done[next] = true
		order = append(order, fields[next].Name)
		for _, child := range children[next] {
			pending[child]--
		}
	}
	return order, nil
}

func cycleMembers(fields []FieldSpec, done []bool) []string {
	var names []string
	for i, field := range fields {
		if !done[i] {
			names = append(names, fmt.Sprintf("%q", field.Name))
		}
	}
	return names
}
