// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error. Each kind maps to exactly one HTTP status.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindApiKeyType
	KindIdType
	KindLimitType
	KindUpsertFailed
	KindNotFound
	KindNotAuthorized
	KindGuruMeditation
	KindTooLarge
)

var kindNames = map[Kind]string{
	KindUnknown:        "Unknown",
	KindValidation:     "ValidationError",
	KindApiKeyType:     "ApiKeyTypeError",
	KindIdType:         "IdTypeError",
	KindLimitType:      "LimitTypeError",
	KindUpsertFailed:   "UpsertFailedError",
	KindNotFound:       "NotFoundError",
	KindNotAuthorized:  "NotAuthorizedError",
	KindGuruMeditation: "GuruMeditationError",
	KindTooLarge:       "TooLargeError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// statusByKind is the only place error kinds become HTTP status codes.
var statusByKind = map[Kind]int{
	KindValidation:     http.StatusBadRequest,
	KindApiKeyType:     http.StatusBadRequest,
	KindIdType:         http.StatusBadRequest,
	KindLimitType:      http.StatusBadRequest,
	KindUpsertFailed:   http.StatusBadRequest,
	KindNotFound:       http.StatusNotFound,
	KindNotAuthorized:  http.StatusForbidden,
	KindGuruMeditation: http.StatusInternalServerError,
	KindTooLarge:       http.StatusRequestEntityTooLarge,
	KindUnknown:        http.StatusInternalServerError,
}

// UnexpectedMessage is shown to clients for errors outside the taxonomy.
const UnexpectedMessage = "something unexpected happened on our end"

// Error is a classified application error.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels usable with errors.Is.
var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "request was malformed or otherwise bad"}
	ErrApiKeyType     = &Error{Kind: KindApiKeyType, Message: "invalid API key encountered"}
	ErrIdType         = &Error{Kind: KindIdType, Message: "invalid id encountered"}
	ErrLimitType      = &Error{Kind: KindLimitType, Message: "invalid `limit` encountered"}
	ErrUpsertFailed   = &Error{Kind: KindUpsertFailed, Message: "data upsert failed"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "item or resource was not found"}
	ErrNotAuthorized  = &Error{Kind: KindNotAuthorized, Message: "session is not authorized"}
	ErrGuruMeditation = &Error{Kind: KindGuruMeditation, Message: "guru meditation: internal invariant violated"}
	ErrTooLarge       = &Error{Kind: KindTooLarge, Message: "request body is too large"}
)

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func ApiKeyType() error {
	return &Error{Kind: KindApiKeyType, Message: ErrApiKeyType.Message}
}

func IdType(raw string) error {
	if raw == "" {
		return &Error{Kind: KindIdType, Message: ErrIdType.Message}
	}
	return &Error{Kind: KindIdType, Message: fmt.Sprintf("expected a valid id, got %q instead", raw)}
}

func LimitType(raw string) error {
	if raw == "" {
		return &Error{Kind: KindLimitType, Message: ErrLimitType.Message}
	}
	return &Error{Kind: KindLimitType, Message: fmt.Sprintf("`limit` must be a positive number no larger than the maximum, got %q instead", raw)}
}

func UpsertFailed(message string) error {
	if message == "" {
		message = ErrUpsertFailed.Message
	}
	return &Error{Kind: KindUpsertFailed, Message: message}
}

func NotFound(item string) error {
	if item == "" {
		return &Error{Kind: KindNotFound, Message: ErrNotFound.Message}
	}
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("item %s does not exist or was not found", item)}
}

func NotAuthorized() error {
	return &Error{Kind: KindNotAuthorized, Message: ErrNotAuthorized.Message}
}

// GuruMeditation reports a violated internal invariant. cause may be nil.
func GuruMeditation(message string, cause error) error {
	if message == "" {
		message = ErrGuruMeditation.Message
	}
	return &Error{Kind: KindGuruMeditation, Message: message, Err: cause}
}

func TooLarge() error {
	return &Error{Kind: KindTooLarge, Message: ErrTooLarge.Message}
}

// KindOf returns the kind of err, or KindUnknown for errors outside the taxonomy.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// Status maps err to its HTTP status code.
func Status(err error) int {
	if status, ok := statusByKind[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that is safe to show to clients.
// Unknown errors never leak their text.
func PublicMessage(err error) string {
	var appErr *Error
	if !errors.As(err, &appErr) || appErr.Kind == KindUnknown {
		return UnexpectedMessage
	}
	if appErr.Kind == KindGuruMeditation {
		return ErrGuruMeditation.Message
	}
	return appErr.Message
}

// NeedsOperator reports whether err should page a human.
func NeedsOperator(err error) bool {
	kind := KindOf(err)
	return kind == KindGuruMeditation || kind == KindUnknown
}
