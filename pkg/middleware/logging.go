package middleware

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/pims/pkg/configuration"
	"github.com/iota-uz/pims/pkg/constants"
)

type LoggerOptions struct {
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLength   int

	Repanic bool
}

func NewLoggerOptions(logRequestBody bool, logResponseBody bool, maxBodyLength int) LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  logRequestBody,
		LogResponseBody: logResponseBody,
		MaxBodyLength:   maxBodyLength,
	}
}

func DefaultLoggerOptions() LoggerOptions {
	return NewLoggerOptions(true, true, 512)
}

type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
	body          *bytes.Buffer
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

// Status returns the HTTP status code
func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseCaptureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func wrapResponseWriter(w http.ResponseWriter) *responseCaptureWriter {
	return &responseCaptureWriter{
		ResponseWriter: w,
		statusCode:     0,
		statusWritten:  false,
		body:           &bytes.Buffer{},
	}
}

func getRealIP(r *http.Request, conf *configuration.Configuration) string {
	if len(r.Header.Get(conf.RealIPHeader)) > 0 {
		return r.Header.Get(conf.RealIPHeader)
	}
	return r.RemoteAddr
}

func getRequestID(r *http.Request, conf *configuration.Configuration) string {
	if len(r.Header.Get(conf.RequestIDHeader)) > 0 {
		return r.Header.Get(conf.RequestIDHeader)
	}
	return uuid.New().String()
}

var tracer = otel.Tracer("pims-middleware")

func formatHeaders(h http.Header) map[string]string {
	headers := make(map[string]string)
	for key, values := range h {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}

func formatFormValues(f url.Values) map[string]string {
	formValues := make(map[string]string)
	for key, values := range f {
		formValues[key] = strings.Join(values, ",")
	}
	return formValues
}

func shouldLogBody(contentType string) bool {
	contentType = strings.ToLower(contentType)
	return strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/x-www-form-urlencoded")
}

func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	conf := configuration.Use()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				requestID := getRequestID(r, conf)

				fieldsLogger := logger.WithFields(logrus.Fields{
					"request-id": requestID,
					"path":       r.RequestURI,
					"method":     r.Method,
				})

				fieldsLogger.WithFields(logrus.Fields{
					"timestamp":       start.UnixNano(),
					"host":            r.Host,
					"ip":              getRealIP(r, conf),
					"user-agent":      r.UserAgent(),
					"request-headers": formatHeaders(r.Header),
				}).Info("request started")

				reqContentType := r.Header.Get("Content-Type")
				logReqBody := opts.LogRequestBody && shouldLogBody(reqContentType)
				isMutatingMethod := r.Method == http.MethodPost ||
					r.Method == http.MethodPut ||
					r.Method == http.MethodPatch ||
					r.Method == http.MethodDelete

				if isMutatingMethod && logReqBody && r.Body != nil {
					bodyBuf := new(bytes.Buffer)
					if _, err := io.Copy(bodyBuf, r.Body); err != nil {
						fieldsLogger.WithError(err).Error("failed to read request-body")
						http.Error(w, "failed to read request-body", http.StatusInternalServerError)
						return
					}
					r.Body = io.NopCloser(bytes.NewBuffer(bodyBuf.Bytes()))
					switch {
					case strings.Contains(reqContentType, "application/json"):
						var jsonRequestBody interface{}
						if err := json.Unmarshal(bodyBuf.Bytes(), &jsonRequestBody); err != nil {
							fieldsLogger.WithError(err).Error("failed to parse JSON request-body")
							http.Error(w, "failed to parse JSON request-body", http.StatusBadRequest)
							return
						}
						fieldsLogger.WithField("request-body", jsonRequestBody).Info("JSON request-body parsed")
					case strings.Contains(reqContentType, "application/x-www-form-urlencoded"):
						if err := r.ParseForm(); err != nil {
							fieldsLogger.WithError(err).Error("failed to parse form-urlencoded request-body")
							http.Error(w, "failed to parse form-urlencoded request-body", http.StatusBadRequest)
							return
						}
						fieldsLogger.WithField("request-body", formatFormValues(r.Form)).Info("form-urlencoded request-body parsed")
					default:
						rawBody := bodyBuf.String()
						fieldsLogger.WithField("request-body", rawBody).Info("request-body parsed")
					}
				}

				propagator := propagation.TraceContext{}
				ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

				ctx, span := tracer.Start(
					ctx,
					"http.request",
					trace.WithAttributes(
						attribute.String("http.method", r.Method),
						attribute.String("http.url", r.URL.String()),
						attribute.String("http.route", r.URL.Path),
						attribute.String("http.user_agent", r.UserAgent()),
						attribute.String("http.request_id", requestID),
						attribute.String("net.host.name", r.Host),
						attribute.String("net.peer.ip", getRealIP(r, conf)),
					),
				)
				defer span.End()

				ctx = context.WithValue(ctx, constants.LoggerKey, fieldsLogger)
				ctx = context.WithValue(ctx, constants.RequestStart, start)

				propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

				if spanContext := span.SpanContext(); spanContext.HasTraceID() {
					traceID := spanContext.TraceID().String()
					spanID := spanContext.SpanID().String()

					w.Header().Set("X-Trace-Id", traceID)
					w.Header().Set("X-Span-Id", spanID)

					fieldsLogger = fieldsLogger.WithFields(logrus.Fields{
						"trace-id": traceID,
						"span-id":  spanID,
					})
				}

				w.Header().Set("X-Request-Id", requestID)

				wrappedWriter := wrapResponseWriter(w)

				// Recover from panics, log them with full context, and return a stable response.
				defer func() {
					if recovered := recover(); recovered != nil {
						duration := time.Since(start)

						panicFields := logrus.Fields{
							"panic":       recovered,
							"stack":       string(debug.Stack()),
							"method":      r.Method,
							"path":        r.URL.Path,
							"remote_addr": getRealIP(r, conf),
							"user_agent":  r.UserAgent(),
							"status":      http.StatusInternalServerError,
							"duration":    duration,
						}

						if r.URL.RawQuery != "" {
							panicFields["query"] = r.URL.RawQuery
						}

						if contentType := r.Header.Get("Content-Type"); contentType != "" {
							panicFields["content_type"] = contentType
						}

						fieldsLogger.WithFields(panicFields).Error("panic recovered in request handler")

						if !wrappedWriter.statusWritten {
							wrappedWriter.Header().Set("Content-Type", "application/json")
							wrappedWriter.WriteHeader(http.StatusInternalServerError)
							_ = json.NewEncoder(wrappedWriter).Encode(map[string]any{
								"code":    "INTERNAL_SERVER_ERROR",
								"message": "internal server error",
								"meta": map[string]string{
									"request_id": requestID,
									"path":       r.URL.Path,
								},
							})
						}

						if opts.Repanic {
							panic(recovered)
						}
					}
				}()

				next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

				// Log the status code
				statusCode := wrappedWriter.Status()
				duration := time.Since(start)
				fieldsLogger.WithFields(logrus.Fields{
					"duration":         duration,
					"completed":        true,
					"status-code":      statusCode,
					"status-class":     statusCode / 100,
					"response-headers": formatHeaders(wrappedWriter.Header()),
				}).Info("request completed")

				span.SetAttributes(
					attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
					attribute.Int("http.status_code", statusCode),
				)

				respContentType := wrappedWriter.Header().Get("Content-Type")
				if opts.LogResponseBody && shouldLogBody(respContentType) {
					body := wrappedWriter.body.Bytes()
					if strings.Contains(respContentType, "application/json") {
						var parsed interface{}
						if err := json.Unmarshal(body, &parsed); err == nil {
							fieldsLogger.WithField("response-body", parsed).Info("JSON response-body parsed")
						}
					} else {
						fieldsLogger.WithField("response-body", string(body)).Info("response-body captured")
					}
				}
			},
		)
	}
}
