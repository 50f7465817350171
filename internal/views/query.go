package views

import (
	"net/url"
	"strconv"

	"ramen-directory/internal/models"
)

var reservedParams = map[string]bool{"page": true, "size": true, "sortBy": true, "sortDir": true}

// PageFromQuery reads a list query from the navigable URL. Unknown
// parameters become filters.
func PageFromQuery(v url.Values) models.ListQuery {
	q := models.ListQuery{Filters: map[string]string{}}
	if n, err := strconv.Atoi(v.Get("page")); err == nil {
		q.Page = max(n, 0)
	}
	if n, err := strconv.Atoi(v.Get("size")); err == nil {
		q.Size = n
	}
	q.SortBy = v.Get("sortBy")
	q.SortDir = v.Get("sortDir")
	for k := range v {
		if reservedParams[k] {
			continue
		}
		if val := v.Get(k); val != "" {
			q.Filters[k] = val
		}
	}
	return q
}

// QueryWithPage is the URL query reproducing q on the given page.
func QueryWithPage(q models.ListQuery, page int) url.Values {
	q.Page = page
	return q.Values()
}
