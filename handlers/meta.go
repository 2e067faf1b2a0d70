// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/ranked-elections/endpoint"
	"github.com/danielhkuo/ranked-elections/store"
)

type MetaHandler struct {
	store *store.Store
	now   func() time.Time
}

func NewMetaHandler(st *store.Store) *MetaHandler {
	return &MetaHandler{store: st, now: time.Now}
}

// GetMeta handles GET /v1/meta
func (h *MetaHandler) GetMeta(w *endpoint.Response, r *http.Request) error {
	meta, err := h.store.Metadata(r.Context(), h.now().UnixMilli())
	if err != nil {
		return err
	}
	w.Send(http.StatusOK, meta)
	return nil
}
