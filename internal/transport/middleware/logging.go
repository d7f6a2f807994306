package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxLoggedBody caps how much of a request or response body is kept for the
// debug log.
const maxLoggedBody = 4096

const masked = "[FILTERED]"

// sensitiveFields are substrings of field and header names that are masked
// in logs: credentials first, then patient identifying data.
var sensitiveFields = []string{
	"password",
	"token",
	"authorization",
	"secret",
	"cookie",
	"credential",
	"full_name",
	"history",
	"date_of_death",
	"comment",
}

// LoggingMiddleware writes one entry per request when it completes. Request
// and response bodies are attached only when debug logging is on, JSON only,
// with sensitive fields masked.
func LoggingMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			debug := logger.Enabled(r.Context(), slog.LevelDebug)

			var reqBody []byte
			if debug && r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
				reqBody, _ = io.ReadAll(io.LimitReader(r.Body, maxLoggedBody))
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), r.Body))
			}

			rec := &recorder{ResponseWriter: w, keepBody: debug}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}

			attrs := []any{
				"trace_id", TraceID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"query", maskQuery(r.URL.RawQuery),
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", rec.size,
				"remote_addr", r.RemoteAddr,
			}
			if debug {
				attrs = append(attrs,
					"headers", maskHeaders(r.Header),
					"request_body", maskBody(reqBody),
				)
				if isJSON(rec.Header().Get("Content-Type")) {
					attrs = append(attrs, "response_body", maskBody(rec.body.Bytes()))
				}
			}

			logger.Log(context.Background(), levelFor(status), "http request", attrs...)
		})
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

type recorder struct {
	http.ResponseWriter
	status   int
	size     int
	keepBody bool
	body     bytes.Buffer
}

func (rw *recorder) WriteHeader(code int) {
	if rw.status == 0 {
		rw.status = code
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recorder) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.status = http.StatusOK
	}
	if rw.keepBody {
		if room := maxLoggedBody - rw.body.Len(); room > 0 {
			rw.body.Write(b[:min(room, len(b))])
		}
	}
	rw.size += len(b)
	return rw.ResponseWriter.Write(b)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

func isSensitive(name string) bool {
	name = strings.ToLower(name)
	for _, f := range sensitiveFields {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// maskQuery blanks sensitive parameters in a raw query string, keeping
// their order and the rest of the string as sent.
func maskQuery(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "&")
	for i, part := range parts {
		key, _, _ := strings.Cut(part, "=")
		if name, err := url.QueryUnescape(key); err == nil {
			key = name
		}
		if isSensitive(key) {
			parts[i] = key + "=" + masked
		}
	}
	return strings.Join(parts, "&")
}

func maskHeaders(headers http.Header) map[string]string {
	out := make(map[string]string, len(headers))
	for name, values := range headers {
		if isSensitive(name) {
			out[name] = masked
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// maskBody returns body with sensitive JSON fields masked. Bodies that are
// not valid JSON (including truncated ones) are dropped.
func maskBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return "[UNPARSEABLE]"
	}
	out, err := json.Marshal(maskValue(v))
	if err != nil {
		return "[UNPARSEABLE]"
	}
	return string(out)
}

func maskValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if isSensitive(k) {
				t[k] = masked
			} else {
				t[k] = maskValue(child)
			}
		}
		return t
	case []any:
		for i := range t {
			t[i] = maskValue(t[i])
		}
		return t
	default:
		return v
	}
}
