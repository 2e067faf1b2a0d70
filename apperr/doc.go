// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the error taxonomy shared by storage, validation and
the endpoint dispatcher.

# Raising Errors

Business code raises classified errors close to where a problem is found:

	if req.Title == "" {
		return apperr.Validation("`title` must be a non-empty string")
	}

Errors pass through unchanged (or wrapped with %w) up to the dispatcher.

# Status Mapping

The dispatcher is the only caller of Status and PublicMessage:

	ValidationError      400
	ApiKeyTypeError      400
	IdTypeError          400
	LimitTypeError       400
	UpsertFailedError    400
	NotFoundError        404
	NotAuthorizedError   403
	TooLargeError        413
	GuruMeditationError  500 (operator attention)
	anything else        500

Unknown errors never expose their text to clients.
*/
package apperr
