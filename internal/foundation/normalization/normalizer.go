// Package normalization maps loosely typed configuration strings onto closed
// enumerations. Keys are compared case-insensitively with surrounding
// whitespace removed.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer converts strings to values of an enumeration.
type Normalizer[T comparable] struct {
	name         string
	validValues  map[string]T
	defaultValue T
	validKeys    []string // sorted, for error messages
}

// NewEnumNormalizer creates a normalizer named enumName (used in errors).
// Unknown input normalizes to defaultValue.
func NewEnumNormalizer[T comparable](enumName string, values map[string]T, defaultValue T) *Normalizer[T] {
	normalized := make(map[string]T, len(values))
	validKeys := make([]string, 0, len(values))
	for k, v := range values {
		key := clean(k)
		normalized[key] = v
		validKeys = append(validKeys, key)
	}
	sort.Strings(validKeys)

	return &Normalizer[T]{
		name:         enumName,
		validValues:  normalized,
		defaultValue: defaultValue,
		validKeys:    validKeys,
	}
}

// Normalize returns the value for raw, or the default when raw is unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.validValues[clean(raw)]; ok {
		return v
	}
	return n.defaultValue
}

// NormalizeWithValidation returns the value for raw or an error listing the valid keys.
func (n *Normalizer[T]) NormalizeWithValidation(raw string) (T, error) {
	if v, ok := n.validValues[clean(raw)]; ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q, valid options: %v", n.name, raw, n.validKeys)
}

// ValidValues returns the accepted keys in sorted order.
func (n *Normalizer[T]) ValidValues() []string {
	out := make([]string, len(n.validKeys))
	copy(out, n.validKeys)
	return out
}

func clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
