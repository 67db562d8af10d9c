package service

import (
	"encoding/json"
	"fmt"
)

// Condition is one filter triple: an operator and its values. Values may be
// nil for operators that take none (serialized as null, which the upstream
// accepts).
type Condition struct {
	Operator string   `json:"operator"`
	Values   []string `json:"values"`
}

// Filter maps an attribute name to its condition.
type Filter map[string]Condition

// Filters is the ordered filter list the upstream list endpoints accept.
type Filters []Filter

// SortBy is the ordered sort criteria list, each entry a column/direction
// pair, e.g. [["id","asc"]].
type SortBy [][]string

// EncodeFilters serializes filters to the JSON query-string form the upstream
// expects. This must happen exactly once per request; double-encoding (or
// skipping it) produces a silently ignored filter upstream.
func EncodeFilters(f Filters) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("encode filters: %w", err)
	}
	return string(b), nil
}

// DecodeFilters restores the structured filter list from its query-string form.
func DecodeFilters(s string) (Filters, error) {
	var f Filters
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return nil, fmt.Errorf("decode filters: %w", err)
	}
	return f, nil
}

// EncodeSortBy serializes sort criteria to their JSON query-string form.
func EncodeSortBy(s SortBy) (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode sortBy: %w", err)
	}
	return string(b), nil
}
