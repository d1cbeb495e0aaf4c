package httpx

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/tenantflow/tenantflow/internal/shared"
)

// PageParams reads page and limit from the query string. Missing values take the shared
// defaults; limit is capped at shared.MaxPerPage.
func PageParams(r *http.Request) (page, perPage int, err error) {
	q := r.URL.Query()
	page, perPage = 1, shared.DefaultPerPage
	if v := strings.TrimSpace(q.Get("page")); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil || page <= 0 {
			return 0, 0, shared.Validationf("page must be a positive integer")
		}
	}
	if v := strings.TrimSpace(q.Get("limit")); v != "" {
		perPage, err = strconv.Atoi(v)
		if err != nil || perPage <= 0 {
			return 0, 0, shared.Validationf("limit must be a positive integer")
		}
	}
	page, perPage = shared.NormalizePage(page, perPage)
	return page, perPage, nil
}

// QueryValue returns the trimmed query parameter key.
func QueryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}
