// Package service implements the per-operation request shaping for the
// OpenProject API. Each operation is a pure shaper from typed input to a
// request descriptor, executed once by the client executor.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"openproject-gateway-go/internal/client"
	"openproject-gateway-go/internal/model"
)

// Gateway shapes operation inputs into upstream requests and executes them.
// It is stateless; operations may run concurrently.
type Gateway struct {
	exec   *client.Executor
	logger *slog.Logger
}

// NewGateway creates a Gateway.
func NewGateway(exec *client.Executor, logger *slog.Logger) *Gateway {
	return &Gateway{
		exec:   exec,
		logger: logger.With("component", "gateway"),
	}
}

// run executes a shaped descriptor, or short-circuits with a validation
// envelope when shaping failed. Validation failures never reach the network.
func (g *Gateway) run(ctx context.Context, d *model.Descriptor, err error) *model.Result {
	if err != nil {
		g.logger.Debug("rejected before upstream call", "reason", err)
		return model.ValidationFailure(err)
	}
	return g.exec.Execute(ctx, d)
}

// ForwardInput is the raw passthrough input: a caller-supplied path under the
// API root and an HTTP verb.
type ForwardInput struct {
	Query  string `json:"query"`
	Method string `json:"method"`
}

func shapeForward(in ForwardInput) (*model.Descriptor, error) {
	if in.Query == "" {
		return nil, fmt.Errorf("query path is required")
	}
	if in.Method == "" {
		return nil, fmt.Errorf("method is required")
	}
	path := in.Query
	var q url.Values
	if i := strings.Index(path, "?"); i >= 0 {
		parsed, err := url.ParseQuery(path[i+1:])
		if err != nil {
			return nil, fmt.Errorf("parse query string: %w", err)
		}
		q = parsed
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &model.Descriptor{
		Method: strings.ToUpper(in.Method),
		Path:   path,
		Query:  q,
	}, nil
}

// Forward sends an arbitrary path and verb to the upstream unchanged.
func (g *Gateway) Forward(ctx context.Context, in ForwardInput) *model.Result {
	d, err := shapeForward(in)
	return g.run(ctx, d, err)
}

// boolString renders a bool the way the upstream query parameters expect it.
func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// notifyQuery builds the notify query parameter; a nil flag means true, the
// upstream default.
func notifyQuery(notify *bool) url.Values {
	v := true
	if notify != nil {
		v = *notify
	}
	return url.Values{"notify": {boolString(v)}}
}
