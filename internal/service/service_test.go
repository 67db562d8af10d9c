package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"openproject-gateway-go/internal/client"
	"openproject-gateway-go/internal/config"
	"openproject-gateway-go/internal/model"
)

// countingGateway returns a Gateway wired to a test upstream that counts the
// requests it receives.
func countingGateway(t *testing.T) (*Gateway, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		OpenProject: config.OpenProjectConfig{BaseURL: srv.URL, BasicCredential: "x"},
		Upstream:    config.UpstreamConfig{TimeoutSeconds: 10, IdleConnections: 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec, err := client.NewExecutor(cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return NewGateway(exec, logger), &calls
}

func TestShapeForward(t *testing.T) {
	tests := []struct {
		name      string
		in        ForwardInput
		wantErr   bool
		wantPath  string
		wantVerb  string
		wantQuery string
	}{
		{"adds leading slash", ForwardInput{Query: "projects", Method: "get"}, false, "/projects", "GET", ""},
		{"keeps leading slash", ForwardInput{Query: "/projects/3", Method: "PATCH"}, false, "/projects/3", "PATCH", ""},
		{"query string split off the path", ForwardInput{Query: "/projects?pageSize=5", Method: "GET"}, false, "/projects", "GET", "pageSize=5"},
		{"multiple query parameters", ForwardInput{Query: "work_packages?offset=2&pageSize=5", Method: "GET"}, false, "/work_packages", "GET", "offset=2&pageSize=5"},
		{"missing path", ForwardInput{Method: "GET"}, true, "", "", ""},
		{"missing method", ForwardInput{Query: "/projects"}, true, "", "", ""},
		{"malformed query string", ForwardInput{Query: "/projects?a=%zz", Method: "GET"}, true, "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := shapeForward(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("shapeForward() error = %v", err)
			}
			if d.Path != tt.wantPath {
				t.Errorf("path = %q, want %q", d.Path, tt.wantPath)
			}
			if d.Method != tt.wantVerb {
				t.Errorf("method = %q, want %q", d.Method, tt.wantVerb)
			}
			if got := d.Query.Encode(); got != tt.wantQuery {
				t.Errorf("query = %q, want %q", got, tt.wantQuery)
			}
		})
	}
}

func TestForward_QueryStringReachesUpstream(t *testing.T) {
	var gotPath, gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRawQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := &config.Config{
		OpenProject: config.OpenProjectConfig{BaseURL: srv.URL, BasicCredential: "x"},
		Upstream:    config.UpstreamConfig{TimeoutSeconds: 10, IdleConnections: 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec, err := client.NewExecutor(cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	g := NewGateway(exec, logger)

	res := g.Forward(context.Background(), ForwardInput{Query: "/projects?pageSize=5", Method: "GET"})
	if res.Err != nil {
		t.Fatalf("Forward() error record = %+v", res.Err)
	}
	if gotPath != "/projects" {
		t.Errorf("upstream path = %q, want /projects", gotPath)
	}
	if gotRawQuery != "pageSize=5" {
		t.Errorf("upstream query = %q, want pageSize=5", gotRawQuery)
	}
}

func TestNotifyQuery(t *testing.T) {
	f := false
	tr := true
	tests := []struct {
		name   string
		notify *bool
		want   string
	}{
		{"nil defaults to true", nil, "true"},
		{"explicit false", &f, "false"},
		{"explicit true", &tr, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := notifyQuery(tt.notify).Get("notify"); got != tt.want {
				t.Errorf("notify = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationFailuresNeverReachUpstream(t *testing.T) {
	g, calls := countingGateway(t)
	ctx := context.Background()

	results := []*model.Result{
		g.UpdateWorkPackage(ctx, UpdateWorkPackageInput{WorkPackageID: 1}),           // no lock_version
		g.CreateWorkPackage(ctx, CreateWorkPackageInput{ProjectID: 1}),               // no subject
		g.CreateProject(ctx, CreateProjectInput{}),                                   // no name
		g.UpdateProject(ctx, UpdateProjectInput{ProjectID: 1}),                       // no fields
		g.CommentWorkPackage(ctx, CommentWorkPackageInput{WorkPackageID: 1}),         // no text
		g.UploadAttachment(ctx, UploadAttachmentInput{FilePath: "/nonexistent.bin"}), // missing file
		g.Forward(ctx, ForwardInput{}),                                               // no path/method
	}

	for i, res := range results {
		if res.Err == nil {
			t.Errorf("result %d: expected validation error record", i)
			continue
		}
		if res.Err.Kind != model.KindValidation {
			t.Errorf("result %d: kind = %q, want %q", i, res.Err.Kind, model.KindValidation)
		}
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("upstream received %d requests, want 0", n)
	}
}

func TestGatewayForward_RoundTrip(t *testing.T) {
	g, calls := countingGateway(t)

	res := g.Forward(context.Background(), ForwardInput{Query: "statuses", Method: "GET"})
	if res.Err != nil {
		t.Fatalf("Forward() error record = %+v", res.Err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("upstream received %d requests, want 1", n)
	}
}
