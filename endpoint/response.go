// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package endpoint

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/ranked-elections/middleware"
)

// Response is what business handlers write to. The first Send wins; later
// calls are dropped. Every Send fires the request log exactly once.
type Response struct {
	w      http.ResponseWriter
	sent   bool
	status int
	onSend func(status int)
}

func newResponse(w http.ResponseWriter, onSend func(status int)) *Response {
	return &Response{w: w, onSend: onSend}
}

// Header exposes the response headers for handlers that need to set one.
func (r *Response) Header() http.Header {
	return r.w.Header()
}

// Sent reports whether a response has gone out.
func (r *Response) Sent() bool {
	return r.sent
}

// Status is the status code that was sent, or 0.
func (r *Response) Status() int {
	return r.status
}

// Send writes a success response: body merged with {"success": true}.
// body must encode to a JSON object, or be nil.
func (r *Response) Send(status int, body any) {
	merged, err := withSuccess(body)
	if err != nil {
		slog.Error("failed to encode success response", "error", err)
		r.sendError(http.StatusInternalServerError, errorBody(unexpected))
		return
	}
	r.write(status, merged)
}

// sendError writes an error envelope as is.
func (r *Response) sendError(status int, body any) {
	r.write(status, body)
}

// sendEmpty writes a status with no body.
func (r *Response) sendEmpty(status int) {
	if !r.mark(status) {
		return
	}
	r.w.WriteHeader(status)
	r.fire()
}

func (r *Response) write(status int, body any) {
	if !r.mark(status) {
		return
	}
	middleware.JSONResponse(r.w, status, body)
	r.fire()
}

func (r *Response) mark(status int) bool {
	if r.sent {
		slog.Warn("response already sent, dropping", "status", status, "sent_status", r.status)
		return false
	}
	r.sent = true
	r.status = status
	return true
}

func (r *Response) fire() {
	if r.onSend != nil {
		r.onSend(r.status)
	}
}

// withSuccess splices "success":true into the encoded object.
func withSuccess(body any) (json.RawMessage, error) {
	if body == nil {
		return json.RawMessage(`{"success":true}`), nil
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '{' {
		return nil, errors.New("success body must encode to a JSON object")
	}

	var buf bytes.Buffer
	buf.WriteString(`{"success":true`)
	if inner := bytes.TrimSpace(raw[1 : len(raw)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
