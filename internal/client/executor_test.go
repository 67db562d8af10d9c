package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"openproject-gateway-go/internal/config"
	"openproject-gateway-go/internal/model"
)

func testExecutor(t *testing.T, baseURL string) *Executor {
	t.Helper()
	cfg := &config.Config{
		OpenProject: config.OpenProjectConfig{
			BaseURL:         baseURL,
			BasicCredential: "dGVzdDp0ZXN0",
		},
		Upstream: config.UpstreamConfig{
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := NewExecutor(cfg, logger, nil)
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	return e
}

func TestExecute_GETSendsBodyAsQuery(t *testing.T) {
	var gotQuery url.Values
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotBody, _ = io.ReadAll(r.Body)
		if auth := r.Header.Get("Authorization"); auth != "Basic dGVzdDp0ZXN0" {
			t.Errorf("Authorization = %q, want %q", auth, "Basic dGVzdDp0ZXN0")
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q, want %q", ua, userAgent)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"_type":"Collection"}`))
	}))
	defer srv.Close()

	e := testExecutor(t, srv.URL)
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodGet,
		Path:   "/work_packages",
		Body: map[string]any{
			"offset":   1,
			"pageSize": 20,
			"showSums": false,
			"filters":  `[{"status_id":{"operator":"o","values":null}}]`,
		},
	})

	if res.Err != nil {
		t.Fatalf("Execute() error record = %+v", res.Err)
	}
	if len(gotBody) != 0 {
		t.Errorf("GET carried a body: %q", gotBody)
	}
	want := map[string]string{
		"offset":   "1",
		"pageSize": "20",
		"showSums": "false",
		"filters":  `[{"status_id":{"operator":"o","values":null}}]`,
	}
	for k, v := range want {
		if got := gotQuery.Get(k); got != v {
			t.Errorf("query %q = %q, want %q", k, got, v)
		}
	}
}

func TestExecute_POSTSendsJSONBody(t *testing.T) {
	var gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":42}`))
	}))
	defer srv.Close()

	e := testExecutor(t, srv.URL)
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodPost,
		Path:   "/projects",
		Body:   map[string]any{"name": "Demo", "active": true},
	})

	if res.Err != nil {
		t.Fatalf("Execute() error record = %+v", res.Err)
	}
	if gotContentType != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", gotContentType)
	}
	if gotBody["name"] != "Demo" || gotBody["active"] != true {
		t.Errorf("body = %v", gotBody)
	}
	payload, ok := res.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map", res.Payload)
	}
	if payload["id"] != float64(42) {
		t.Errorf("payload id = %v, want 42", payload["id"])
	}
}

func TestExecute_EmptySuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	e := testExecutor(t, srv.URL)
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodDelete,
		Path:   "/attachments/7",
	})

	if res.Err != nil {
		t.Fatalf("Execute() error record = %+v", res.Err)
	}
	if res.Payload != nil {
		t.Errorf("payload = %v, want nil for empty body", res.Payload)
	}
}

func TestExecute_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"_type":"Error","message":"not found"}`))
	}))
	defer srv.Close()

	e := testExecutor(t, srv.URL)
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodGet,
		Path:   "/work_packages/9999",
	})

	if res.Err == nil {
		t.Fatal("Execute() expected error record for 404")
	}
	if res.Err.Kind != model.KindHTTPError {
		t.Errorf("kind = %q, want %q", res.Err.Kind, model.KindHTTPError)
	}
	if res.Err.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.Err.Status)
	}
	if !strings.Contains(res.Err.Details, "not found") {
		t.Errorf("details = %q, want raw body preserved", res.Err.Details)
	}
}

func TestExecute_TransportError(t *testing.T) {
	e := testExecutor(t, "http://127.0.0.1:1")
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodGet,
		Path:   "/projects",
	})

	if res.Err == nil {
		t.Fatal("Execute() expected error record for unreachable host")
	}
	if res.Err.Kind != model.KindTransport {
		t.Errorf("kind = %q, want %q", res.Err.Kind, model.KindTransport)
	}
	if res.Err.Status != 0 {
		t.Errorf("status = %d, want 0 (no response obtained)", res.Err.Status)
	}
}

func TestExecute_MultipartUpload(t *testing.T) {
	var gotParts []string
	var gotMeta map[string]any
	var gotFile []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("Content-Type = %q (parse err %v)", r.Header.Get("Content-Type"), err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err != nil {
				break
			}
			gotParts = append(gotParts, part.FormName())
			data, _ := io.ReadAll(part)
			switch part.FormName() {
			case "metadata":
				_ = json.Unmarshal(data, &gotMeta)
			case "file":
				gotFile = data
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":1}`))
	}))
	defer srv.Close()

	e := testExecutor(t, srv.URL)
	res := e.Execute(context.Background(), &model.Descriptor{
		Method: http.MethodPost,
		Path:   "/work_packages/5/attachments",
		Upload: &model.Upload{
			FileName:    "report.txt",
			ContentType: "text/plain",
			Metadata:    map[string]any{"fileName": "report.txt"},
			Content:     []byte("hello"),
		},
	})

	if res.Err != nil {
		t.Fatalf("Execute() error record = %+v", res.Err)
	}
	if len(gotParts) != 2 || gotParts[0] != "metadata" || gotParts[1] != "file" {
		t.Fatalf("parts = %v, want [metadata file] in order", gotParts)
	}
	if gotMeta["fileName"] != "report.txt" {
		t.Errorf("metadata = %v", gotMeta)
	}
	if string(gotFile) != "hello" {
		t.Errorf("file content = %q, want %q", gotFile, "hello")
	}
}

func TestQueryValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string stays plain", "open", "open"},
		{"bool renders lowercase", true, "true"},
		{"int renders decimal", 42, "42"},
		{"float renders without exponent", 2.5, "2.5"},
		{"slice is JSON-encoded", []string{"a", "b"}, `["a","b"]`},
		{"map is JSON-encoded", map[string]any{"k": 1}, `{"k":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryValue(tt.in); got != tt.want {
				t.Errorf("queryValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
