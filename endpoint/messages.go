// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package endpoint

import (
	"github.com/danielhkuo/ranked-elections/apperr"
	"github.com/danielhkuo/ranked-elections/contrived"
	"github.com/danielhkuo/ranked-elections/models"
)

const (
	unauthenticated = "session is not authenticated"
	badMethod       = "bad method"
	tooLarge        = "request body is too large"
	rateLimited     = "session is rate limited"
	notImplemented  = "this endpoint has not been implemented yet"
	unexpected      = apperr.UnexpectedMessage
)

// StatusContrived is the non-standard status of a contrived failure.
const StatusContrived = 555

func errorBody(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

func contrivedBody() models.ContrivedResponse {
	return models.ContrivedResponse{Error: contrived.Message, Contrived: true}
}
