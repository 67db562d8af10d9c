// Package catalog provides substring search over the static table of
// documented OpenProject endpoints. The table is read-only at runtime and
// independent of the live operation set; it may drift without affecting
// routing.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// Entry is one documented endpoint row with its schema fields deserialized
// from their stored JSON-text form.
type Entry struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
	RequestBody any    `json:"request_body"`
	Responses   any    `json:"responses"`
}

// Store searches the endpoint catalog database.
type Store struct {
	db *sql.DB
}

// Open opens the catalog database read-only.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("catalog: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Search returns every row whose path contains query as a substring
// (case-sensitive, unanchored). Zero matches is a success with an empty
// slice, not an error.
func (s *Store) Search(ctx context.Context, query string) ([]Entry, error) {
	// instr is case-sensitive; LIKE would not be for ASCII.
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, method, description, request_body, responses
		 FROM api_endpoints WHERE instr(path, ?) > 0`, query)
	if err != nil {
		return nil, fmt.Errorf("catalog: query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		var requestBody, responses string
		if err := rows.Scan(&e.Path, &e.Method, &e.Description, &requestBody, &responses); err != nil {
			return nil, fmt.Errorf("catalog: scan row: %w", err)
		}
		e.RequestBody = decodeSchema(requestBody)
		e.Responses = decodeSchema(responses)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate rows: %w", err)
	}
	return entries, nil
}

// decodeSchema deserializes a stored schema column. The literal text "None"
// (and an empty cell) mean no schema. Malformed JSON is surfaced verbatim
// rather than dropped, since the catalog is documentation.
func decodeSchema(text string) any {
	if text == "" || text == "None" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return text
	}
	return v
}
