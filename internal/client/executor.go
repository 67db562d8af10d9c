// Package client provides the upstream request executor for the OpenProject API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"openproject-gateway-go/internal/config"
	"openproject-gateway-go/internal/metrics"
	"openproject-gateway-go/internal/model"
)

const userAgent = "openproject-gateway-go/1.0"

// bodylessMethods never carry a JSON body; their data travels as query
// parameters instead.
var bodylessMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Executor performs one outbound HTTP call per invocation and normalizes the
// outcome into a Result envelope. It holds no per-call state; connection
// pooling below it is transparent to callers.
type Executor struct {
	httpClient    *http.Client
	logger        *slog.Logger
	metrics       *metrics.Metrics
	baseURL       *url.URL
	authorization string
}

// NewExecutor creates an Executor with connection pooling and the fixed
// per-call timeout from config. The metrics parameter is optional; pass nil
// to disable upstream metrics recording.
func NewExecutor(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Executor, error) {
	base, err := url.Parse(cfg.BaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse upstream base URL: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &Executor{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:        logger.With("component", "executor"),
		metrics:       m,
		baseURL:       base,
		authorization: "Basic " + cfg.OpenProject.BasicCredential,
	}, nil
}

// Execute performs exactly one upstream call for the descriptor. No retries,
// no backoff. The returned envelope holds either the parsed JSON payload
// (nil for an empty 2xx body) or an error record; it never panics or returns
// a Go error to the caller.
func (e *Executor) Execute(ctx context.Context, d *model.Descriptor) *model.Result {
	method := strings.ToUpper(d.Method)

	u := *e.baseURL
	u.Path = strings.TrimSuffix(e.baseURL.Path, "/") + d.Path
	u.RawQuery = e.buildQuery(method, d)

	body, contentType, err := e.buildBody(method, d)
	if err != nil {
		return model.ValidationFailure(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return model.ValidationFailure(fmt.Errorf("build upstream request: %w", err))
	}
	req.Header.Set("Authorization", e.authorization)
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	e.logger.Debug("upstream request", "method", method, "path", d.Path)

	start := time.Now()
	resp, err := e.httpClient.Do(req)
	duration := time.Since(start).Seconds()

	mlabel := metrics.NormalizeMethod(method)
	if err != nil {
		if e.metrics != nil {
			e.metrics.UpstreamDuration.WithLabelValues(mlabel).Observe(duration)
		}
		return model.TransportFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if e.metrics != nil {
		e.metrics.UpstreamDuration.WithLabelValues(mlabel).Observe(duration)
		e.metrics.UpstreamResponses.WithLabelValues(mlabel, strconv.Itoa(resp.StatusCode)).Inc()
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.TransportFailure(fmt.Errorf("read upstream response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.HTTPFailure(resp.StatusCode, string(raw))
	}

	// An empty 2xx body (e.g. 204 on DELETE) is a valid "no content" success.
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.OK(nil)
	}

	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return model.TransportFailure(fmt.Errorf("decode upstream response: %w", err))
	}
	return model.OK(payload)
}

// buildQuery merges the descriptor's query values with, for bodyless methods,
// the descriptor body rendered as query parameters.
func (e *Executor) buildQuery(method string, d *model.Descriptor) string {
	q := make(url.Values)
	for k, vals := range d.Query {
		q[k] = vals
	}
	if bodylessMethods[method] {
		for k, v := range d.Body {
			q.Set(k, queryValue(v))
		}
	}
	return q.Encode()
}

// buildBody returns the request body and its content type. Bodyless methods
// never get one. For multipart uploads the content type comes from the
// multipart writer so the boundary is always correct.
func (e *Executor) buildBody(method string, d *model.Descriptor) (io.Reader, string, error) {
	if d.Upload != nil {
		return buildMultipart(d.Upload)
	}
	if bodylessMethods[method] || d.Body == nil {
		return nil, "", nil
	}
	encoded, err := json.Marshal(d.Body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(encoded), "application/json", nil
}

// buildMultipart assembles the two-part attachment payload: the JSON metadata
// part first, then the file part. The upstream rejects other orderings.
func buildMultipart(up *model.Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	metaHeader := make(textproto.MIMEHeader)
	metaHeader.Set("Content-Disposition", `form-data; name="metadata"`)
	metaHeader.Set("Content-Type", "application/json")
	metaPart, err := w.CreatePart(metaHeader)
	if err != nil {
		return nil, "", fmt.Errorf("create metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(up.Metadata); err != nil {
		return nil, "", fmt.Errorf("encode attachment metadata: %w", err)
	}

	fileHeader := make(textproto.MIMEHeader)
	fileHeader.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, up.FileName))
	fileHeader.Set("Content-Type", up.ContentType)
	filePart, err := w.CreatePart(fileHeader)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := filePart.Write(up.Content); err != nil {
		return nil, "", fmt.Errorf("write file part: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// queryValue renders a body value as a query parameter. Scalars keep their
// plain text form; anything structured is JSON-encoded.
func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}
