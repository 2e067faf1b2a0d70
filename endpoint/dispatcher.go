// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package endpoint

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/auth"
	"github.com/danielhkuo/ranked-elections/cliparse"
	"github.com/danielhkuo/ranked-elections/contrived"
	"github.com/danielhkuo/ranked-elections/middleware"
	"github.com/danielhkuo/ranked-elections/models"
)

const requestIDHeader = "X-Request-ID"

// HandlerFunc is a business handler. It either calls w.Send or returns a
// taxonomy error; it never formats error responses itself.
type HandlerFunc func(w *Response, r *http.Request) error

// RequestLogger persists one entry per completed response.
type RequestLogger interface {
	InsertRequestLog(ctx context.Context, e models.RequestLogEntry) error
}

// RateLimiter decides whether a caller is currently limited.
type RateLimiter interface {
	IsRateLimited(ctx context.Context, ip, key string) (models.RateLimitDecision, error)
}

// Dispatcher runs every API request through the admission pipeline:
// CORS, authentication, body size, method, contrived error, rate limit,
// then the handler.
type Dispatcher struct {
	cfg       cliparse.Config
	keys      auth.KeyLookup
	logs      RequestLogger
	limits    RateLimiter
	contrived *contrived.Injector
	now       func() time.Time
}

func NewDispatcher(cfg cliparse.Config, keys auth.KeyLookup, logs RequestLogger, limits RateLimiter, injector *contrived.Injector) *Dispatcher {
	return &Dispatcher{
		cfg:       cfg,
		keys:      keys,
		logs:      logs,
		limits:    limits,
		contrived: injector,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for log timestamps.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

type ctxKey struct{}

// Key returns the authenticated API key of the request being handled.
func Key(ctx context.Context) string {
	key, _ := ctx.Value(ctxKey{}).(string)
	return key
}

// Handle wraps h for the given allowed methods.
func (d *Dispatcher) Handle(methods []string, h HandlerFunc) http.HandlerFunc {
	allowed := make([]string, 0, len(methods))
	for _, m := range methods {
		allowed = append(allowed, strings.ToUpper(m))
	}

	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = xid.New().String()
		}
		w.Header().Set(requestIDHeader, reqID)

		ip := middleware.GetClientIP(r)
		route := Route(r.URL.Path)
		logger := slog.With("request_id", reqID, "method", r.Method, "route", route)

		var loggedKey string
		resp := newResponse(w, func(status int) {
			d.record(r, logger, ip, loggedKey, route, status, start)
		})

		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				d.fail(resp, logger, fmt.Errorf("handler panic: %v", p))
			}
		}()

		// CORS
		middleware.SetCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			resp.sendEmpty(http.StatusOK)
			return
		}

		// Authentication
		if d.cfg.LockoutAllKeys {
			resp.sendError(http.StatusUnauthorized, errorBody(unauthenticated))
			return
		}
		ok, key, err := auth.Authentic(r.Context(), d.keys, r.Header.Get(auth.HeaderName))
		if err != nil {
			d.fail(resp, logger, fmt.Errorf("key lookup: %w", err))
			return
		}
		if !ok {
			resp.sendError(http.StatusUnauthorized, errorBody(unauthenticated))
			return
		}
		loggedKey = key

		// Body size
		if limit := d.cfg.MaxContentLengthBytes; limit > 0 {
			if r.ContentLength > limit {
				resp.sendError(http.StatusRequestEntityTooLarge, errorBody(tooLarge))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
		}

		// Method
		if !d.methodAllowed(r.Method, allowed) {
			w.Header().Set("Allow", strings.Join(allowed, ", "))
			resp.sendError(http.StatusMethodNotAllowed, errorBody(badMethod))
			return
		}

		// Contrived error
		if d.contrived.Next() {
			resp.sendError(StatusContrived, contrivedBody())
			return
		}

		// Rate limit
		if !d.cfg.IgnoreRateLimits && d.limits != nil {
			decision, err := d.limits.IsRateLimited(r.Context(), ip, key)
			if err != nil {
				logger.Warn("rate limit lookup failed, admitting request", "error", err)
			} else if decision.Limited {
				w.Header().Set("Retry-After", strconv.FormatInt((decision.RetryAfterMs+999)/1000, 10))
				resp.sendError(http.StatusTooManyRequests, models.RateLimitedResponse{
					Error:      rateLimited,
					RetryAfter: decision.RetryAfterMs,
				})
				return
			}
		}

		// Handler
		ctx := context.WithValue(r.Context(), ctxKey{}, key)
		if err := h(resp, r.WithContext(ctx)); err != nil {
			if resp.Sent() {
				logger.Error("handler failed after responding", "error", err)
				return
			}
			d.fail(resp, logger, err)
			return
		}
		if !resp.Sent() {
			resp.sendError(http.StatusNotImplemented, errorBody(notImplemented))
		}
	}
}

// Methods maps each HTTP method a route accepts to its handler.
type Methods map[string]HandlerFunc

// HandleMethods is Handle for a route served by a handler per method.
func (d *Dispatcher) HandleMethods(m Methods) http.HandlerFunc {
	byMethod := make(Methods, len(m))
	for method, h := range m {
		byMethod[strings.ToUpper(method)] = h
	}
	allowed := slices.Sorted(maps.Keys(byMethod))

	return d.Handle(allowed, func(w *Response, r *http.Request) error {
		return byMethod[r.Method](w, r)
	})
}

func (d *Dispatcher) methodAllowed(method string, allowed []string) bool {
	if slices.Contains(d.cfg.DisallowedMethods, method) {
		return false
	}
	if d.cfg.DisallowWrites {
		switch method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			return false
		}
	}
	return slices.Contains(allowed, method)
}

// fail maps err through the taxonomy and sends it.
func (d *Dispatcher) fail(resp *Response, logger *slog.Logger, err error) {
	status := apperr.Status(err)
	if apperr.NeedsOperator(err) {
		logger.Error("request failed", "status", status, "kind", apperr.KindOf(err).String(), "error", err, "operator_attention", true)
	} else {
		logger.Warn("request rejected", "status", status, "kind", apperr.KindOf(err).String(), "error", err)
	}
	resp.sendError(status, errorBody(apperr.PublicMessage(err)))
}

// record writes the request log entry and the completion line. Log write
// failures never change the response.
func (d *Dispatcher) record(r *http.Request, logger *slog.Logger, ip, key, route string, status int, start time.Time) {
	entry := models.RequestLogEntry{
		Route:  route,
		Method: r.Method,
		Status: status,
		Time:   d.now().UnixMilli(),
	}
	if ip != "" {
		entry.IP = &ip
	}
	if key != "" {
		entry.Key = &key
	}

	if d.logs != nil {
		if err := d.logs.InsertRequestLog(context.WithoutCancel(r.Context()), entry); err != nil {
			logger.Error("failed to write request log", "error", err)
		}
	}

	logger.Info("request completed",
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Route strips the leading /api segment from path.
func Route(path string) string {
	if path == "/api" {
		return "/"
	}
	if rest, ok := strings.CutPrefix(path, "/api/"); ok {
		return "/" + rest
	}
	return path
}
