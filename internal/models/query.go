package models

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Sort directions accepted by the API.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// ListQuery is the parameter tuple of one list request
type ListQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
	Filters map[string]string
}

// Values encodes the query the way the API expects it. Filters are
// forwarded verbatim.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	for k, val := range q.Filters {
		v.Set(k, val)
	}
	v.Set("page", strconv.Itoa(q.Page))
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
	}
	if q.SortDir != "" {
		v.Set("sortDir", q.SortDir)
	}
	return v
}

// Key identifies the parameter tuple, filters in a stable order.
func (q ListQuery) Key() string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(q.Size))
	b.WriteByte('|')
	b.WriteString(q.SortBy)
	b.WriteByte('|')
	b.WriteString(q.SortDir)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.Filters[k]))
	}
	return b.String()
}

// Clone returns a copy that does not share the filter map.
func (q ListQuery) Clone() ListQuery {
	c := q
	if q.Filters != nil {
		c.Filters = make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			c.Filters[k] = v
		}
	}
	return c
}
