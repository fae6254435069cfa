package api

import (
	"net/http"
	"strconv"

	"shadowagent/core"
)

// parseListParams extracts skip/limit query parameters. Skip defaults to 0
// and is never negative; limit defaults to core.DefaultPageSize and is
// capped at core.MaxPageSize. Unparseable values fall back to the default.
func parseListParams(r *http.Request) (skip, limit int) {
	skip = 0
	limit = core.DefaultPageSize

	if s := r.URL.Query().Get("skip"); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil && parsed >= 0 {
			skip = parsed
		}
	}

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
			if limit > core.MaxPageSize {
				limit = core.MaxPageSize
			}
		}
	}

	return skip, limit
}
