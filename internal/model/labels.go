package model

import (
	"regexp"
	"strings"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s.]+`)

// DefaultLabeler turns a field name into a label: words split on
// underscores, dashes, dots and camelCase or digit boundaries, each word
// title-cased.
func DefaultLabeler(name string) string {
	var words []string
	for _, chunk := range splitWordsPattern.Split(name, -1) {
		for _, word := range splitCamel(chunk) {
			words = append(words, titleCase(word))
		}
	}
	return strings.Join(words, " ")
}

func splitCamel(input string) []string {
	if input == "" {
		return nil
	}
	var (
		words []string
		start int
	)
	for i := 1; i < len(input); i++ {
		if isBoundary(input[i-1], input[i]) {
			words = append(words, input[start:i])
			start = i
		}
	}
	return append(words, input[start:])
}

func isBoundary(prev, r byte) bool {
	return (isLower(prev) && isUpper(r)) || (isLetter(prev) && isDigit(r)) || (isDigit(prev) && isLetter(r))
}

func isUpper(r byte) bool  { return r >= 'A' && r <= 'Z' }
func isLower(r byte) bool  { return r >= 'a' && r <= 'z' }
func isDigit(r byte) bool  { return r >= '0' && r <= '9' }
func isLetter(r byte) bool { return isUpper(r) || isLower(r) }

func titleCase(word string) string {
	if word == "" {
		return ""
	}
	lower := strings.ToLower(word)
	return strings.ToUpper(lower[:1]) + lower[1:]
}
