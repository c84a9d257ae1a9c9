package router

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julienschmidt/httprouter"
	"github.com/smartfin/smartauth/internal/pkg/config"
	"github.com/smartfin/smartauth/internal/pkg/instrument"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Request and response bodies are captured for logging up to this size.
const logBodyLimit = 32 << 10

// masker hides configured sensitive fields in logged headers and payloads.
// Field names come from instrument.log_mask_fields and are matched
// case-insensitively.
type masker struct {
	keys map[string]struct{}
}

func newMasker(cfg config.Config) masker {
	keys := make(map[string]struct{})
	if cfg != nil {
		for _, field := range cfg.GetArray("instrument.log_mask_fields") {
			field = strings.TrimSpace(strings.ToLower(field))
			if field == "" {
				continue
			}
			keys[field] = struct{}{}
		}
	}

	return masker{keys: keys}
}

func (m masker) headers(h http.Header) http.Header {
	if len(m.keys) == 0 {
		return h
	}

	out := h.Clone()
	for key := range out {
		if _, hidden := m.keys[strings.ToLower(key)]; hidden {
			out.Set(key, "***")
		}
	}
	return out
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if _, hidden := m.keys[strings.ToLower(k)]; hidden {
				out[k] = "***"
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}

// body renders a raw payload for logging. JSON and urlencoded forms get
// field-level masking; anything else is logged as-is under the size cap.
func (m masker) body(contentType string, raw []byte) any {
	if len(raw) == 0 {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err == nil {
		return m.value(decoded)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(raw)); err == nil {
			out := make(map[string]any, len(values))
			for k, v := range values {
				if _, hidden := m.keys[strings.ToLower(k)]; hidden {
					out[k] = "***"
					continue
				}
				if len(v) == 1 {
					out[k] = v[0]
				} else {
					out[k] = v
				}
			}
			return out
		}
	}

	if !utf8.Valid(raw) {
		return "<binary body omitted>"
	}
	if len(raw) > logBodyLimit {
		return string(raw[:logBodyLimit]) + "...(truncated)"
	}
	return string(raw)
}

// responseRecorder passes writes through while capturing the status code,
// the byte count, and a bounded copy of the body.
type responseRecorder struct {
	http.ResponseWriter

	status  int
	written int
	body    bytes.Buffer
	capped  bool
	err     error
}

func (w *responseRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}

	if !w.capped && len(p) > 0 {
		room := logBodyLimit - w.body.Len()
		switch {
		case room <= 0:
			w.capped = true
		case len(p) > room:
			w.body.Write(p[:room])
			w.capped = true
		default:
			w.body.Write(p)
		}
	}

	n, err := w.ResponseWriter.Write(p)
	w.written += n
	return n, err
}

// SetError records the handler error so the span can pick it up after the
// response is already written.
func (w *responseRecorder) SetError(err error) {
	w.err = err
}

func (w *responseRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("hijack not supported")
	}
	return h.Hijack()
}

func (w *responseRecorder) Push(target string, opts *http.PushOptions) error {
	if p, ok := w.ResponseWriter.(http.Pusher); ok {
		return p.Push(target, opts)
	}
	return http.ErrNotSupported
}

func (w *responseRecorder) statusOrOK() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *responseRecorder) loggedBody(m masker) any {
	var out any
	var decoded any
	if err := json.Unmarshal(w.body.Bytes(), &decoded); err == nil {
		out = m.value(decoded)
	} else if utf8.Valid(w.body.Bytes()) {
		out = w.body.String()
	} else if w.body.Len() > 0 {
		out = "<binary body omitted>"
	}

	if w.capped {
		out = map[string]any{
			"body":      out,
			"truncated": true,
		}
	}
	return out
}

// matchedRoutePath returns the registered route pattern when available, so
// logs and metrics aggregate by pattern rather than by raw path.
func matchedRoutePath(r *http.Request) string {
	pattern := httprouter.ParamsFromContext(r.Context()).MatchedRoutePath()
	if pattern != "" {
		return pattern
	}
	return r.URL.Path
}

// captureRequestBody reads a bounded copy of the request body for logging
// and restores r.Body so handlers can still consume it in full.
func captureRequestBody(r *http.Request) []byte {
	if r.Body == nil {
		return nil
	}

	limited := io.LimitReader(r.Body, logBodyLimit+1)
	//nolint:errcheck // best effort for logging only
	raw, _ := io.ReadAll(limited)
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), r.Body))
	if len(raw) > logBodyLimit {
		return raw[:logBodyLimit]
	}
	return raw
}

type serverMetrics struct {
	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

func newServerMetrics(ins instrument.Instrumentation) serverMetrics {
	meter := ins.Meter("http.server")

	var sm serverMetrics
	var err error

	sm.requests, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}

	sm.latency, err = meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration in milliseconds"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}

	return sm
}

func (sm serverMetrics) record(ctx context.Context, elapsedMs float64, attrs ...attribute.KeyValue) {
	if sm.requests != nil {
		sm.requests.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	if sm.latency != nil {
		sm.latency.Record(ctx, elapsedMs, metric.WithAttributes(attrs...))
	}
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	tracer := ins.Tracer("http.server")
	metrics := newServerMetrics(ins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := matchedRoutePath(r)
			start := time.Now()

			ctx, span := tracer.Start(
				r.Context(),
				r.Method+" "+route,
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
				),
			)
			defer span.End()

			reqBody := captureRequestBody(r)
			slog.InfoContext(
				ctx,
				"request received",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"headers", mask.headers(r.Header),
				"body", mask.body(r.Header.Get("Content-Type"), reqBody),
			)

			rec := &responseRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusOrOK()
			elapsed := time.Since(start)

			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= 500 && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= 500:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			span.SetAttributes(attrs...)
			span.SetAttributes(
				semconv.NetworkProtocolVersionKey.String(r.Proto),
				semconv.ServerAddressKey.String(r.Host),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
				attribute.Int("http.response_content_length", rec.written),
			)
			metrics.record(ctx, float64(elapsed.Milliseconds()), attrs...)

			slog.InfoContext(
				ctx,
				"response sent",
				"method", r.Method,
				"path", route,
				"uri", r.RequestURI,
				"status", status,
				"bytes", rec.written,
				"latency_ms", elapsed.Milliseconds(),
				"body", rec.loggedBody(mask),
			)
		})
	}
}
