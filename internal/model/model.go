// Package model defines shared wire types for the gateway.
package model

import (
	"encoding/json"
	"fmt"
	"net/url"
)

// Error kinds carried in a Result envelope.
const (
	KindHTTPError  = "http-error"
	KindTransport  = "transport-error"
	KindValidation = "validation-error"
)

// Descriptor describes one outbound upstream request. An operation shaper
// builds it, the executor performs it once, and it is discarded.
type Descriptor struct {
	Method string
	Path   string
	Query  url.Values
	Body   map[string]any
	Upload *Upload
}

// Upload is the two-part attachment payload the upstream expects: a JSON
// metadata part named "metadata" followed by the file content part named
// "file". Part order matters to the upstream.
type Upload struct {
	FileName    string
	ContentType string
	Metadata    map[string]any
	Content     []byte
}

// ErrorRecord is the error half of a Result envelope. Status is only set for
// http-error records.
type ErrorRecord struct {
	Kind    string `json:"error"`
	Status  int    `json:"status,omitempty"`
	Details string `json:"details"`
}

// Result is the response envelope: either the upstream's parsed JSON payload
// or an error record, never both.
type Result struct {
	Payload any
	Err     *ErrorRecord
}

// OK wraps a parsed upstream payload. A nil payload is a valid "no content"
// success (e.g. a 204 response).
func OK(payload any) *Result {
	return &Result{Payload: payload}
}

// HTTPFailure records an upstream rejection: the numeric status and the raw
// response text, which is not guaranteed to be JSON.
func HTTPFailure(status int, body string) *Result {
	return &Result{Err: &ErrorRecord{Kind: KindHTTPError, Status: status, Details: body}}
}

// TransportFailure records a request that obtained no response at all
// (DNS, connection refused, timeout).
func TransportFailure(err error) *Result {
	return &Result{Err: &ErrorRecord{Kind: KindTransport, Details: err.Error()}}
}

// ValidationFailure records a local input error detected before any network
// attempt.
func ValidationFailure(err error) *Result {
	return &Result{Err: &ErrorRecord{Kind: KindValidation, Details: err.Error()}}
}

// MarshalJSON renders the success payload directly, or the error record.
func (r *Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(r.Err)
	}
	return json.Marshal(r.Payload)
}

// JSON returns the envelope serialized for callers that want a string result.
func (r *Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"error":%q,"details":%q}`, KindValidation, err.Error())
	}
	return string(b)
}

// Formattable wraps plain text in the rich-text object shape the upstream
// requires instead of a bare string.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
}

// Markdown returns a markdown-formatted rich-text wrapper.
func Markdown(raw string) Formattable {
	return Formattable{Format: "markdown", Raw: raw}
}

// Raw returns a rich-text wrapper without an explicit format.
func Raw(raw string) Formattable {
	return Formattable{Raw: raw}
}

// Link represents a relationship as a hyperlink. The upstream never accepts
// bare foreign keys for relationship fields.
type Link struct {
	Href string `json:"href"`
}

// TypeLink builds the link object for a work package type id.
func TypeLink(id int) Link { return Link{Href: fmt.Sprintf("/api/v3/types/%d", id)} }

// PriorityLink builds the link object for a priority id.
func PriorityLink(id int) Link { return Link{Href: fmt.Sprintf("/api/v3/priorities/%d", id)} }

// StatusLink builds the link object for a status id.
func StatusLink(id int) Link { return Link{Href: fmt.Sprintf("/api/v3/statuses/%d", id)} }

// UserLink builds the link object for a user id.
func UserLink(id int) Link { return Link{Href: fmt.Sprintf("/api/v3/users/%d", id)} }

// WorkPackageLink builds the link object for a work package id.
func WorkPackageLink(id int) Link {
	return Link{Href: fmt.Sprintf("/api/v3/work_packages/%d", id)}
}
