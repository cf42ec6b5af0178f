package query

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/northgate/atrium/internal/resource"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// State is the client-held filter, sort, search and page selection. It is a
// plain value: copying it yields an independent snapshot once Clone is used
// for the filter map.
type State struct {
	filters    map[string]string
	sort       Sort
	page       int
	pageSize   int
	search     string
	totalPages int
	known      bool // a load has reported totalPages
}

// New returns a state on page 1.
func New(pageSize int, s Sort) State {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return State{filters: map[string]string{}, sort: s, page: 1, pageSize: pageSize}
}

// Clone returns an independent copy.
func (q State) Clone() State {
	dup := q
	dup.filters = make(map[string]string, len(q.filters))
	for k, v := range q.filters {
		dup.filters[k] = v
	}
	return dup
}

// Page returns the current 1-based page.
func (q State) Page() int {
	if q.page < 1 {
		return 1
	}
	return q.page
}

// PageSize returns the page size.
func (q State) PageSize() int {
	if q.pageSize <= 0 {
		return DefaultPageSize
	}
	return q.pageSize
}

// Sort returns the current sort.
func (q State) Sort() Sort { return q.sort }

// Search returns the trimmed search term.
func (q State) Search() string { return q.search }

// TotalPages returns the last reported page count. The second result is
// false until a load has reported one.
func (q State) TotalPages() (int, bool) { return q.totalPages, q.known }

// Filters returns a copy of the active filters.
func (q State) Filters() map[string]string {
	out := make(map[string]string, len(q.filters))
	for k, v := range q.filters {
		out[k] = v
	}
	return out
}

// Filter returns the value of one filter.
func (q State) Filter(field string) string { return q.filters[field] }

// SetFilter sets or, with an empty value, clears one filter. A change resets
// the page to 1.
func (q *State) SetFilter(field, value string) bool {
	field = strings.TrimSpace(field)
	value = strings.TrimSpace(value)
	if field == "" {
		return false
	}
	if q.filters == nil {
		q.filters = map[string]string{}
	}
	current, ok := q.filters[field]
	switch {
	case value == "" && !ok:
		return false
	case value == "":
		delete(q.filters, field)
	case ok && current == value:
		return false
	default:
		q.filters[field] = value
	}
	q.page = 1
	return true
}

// SetFilters replaces every filter at once.
func (q *State) SetFilters(filters map[string]string) bool {
	next := map[string]string{}
	for k, v := range filters {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			next[k] = v
		}
	}
	if sameFilters(q.filters, next) {
		return false
	}
	q.filters = next
	q.page = 1
	return true
}

// ClearFilters drops every filter.
func (q *State) ClearFilters() bool {
	return q.SetFilters(nil)
}

// SetSort changes the sort, resetting the page on change.
func (q *State) SetSort(s Sort) bool {
	if q.sort == s {
		return false
	}
	q.sort = s
	q.page = 1
	return true
}

// SetSearch changes the search term, resetting the page on change.
func (q *State) SetSearch(term string) bool {
	term = strings.TrimSpace(term)
	if q.search == term {
		return false
	}
	q.search = term
	q.page = 1
	return true
}

// SetPageSize changes the page size, resetting the page on change.
func (q *State) SetPageSize(n int) bool {
	if n <= 0 {
		n = DefaultPageSize
	}
	if q.PageSize() == n {
		return false
	}
	q.pageSize = n
	q.page = 1
	return true
}

// SetPage moves to page n. It is the only setter that does not reset the
// page, and it clamps to [1, TotalPages] once the page count is known. An
// empty collection still has page 1.
func (q *State) SetPage(n int) bool {
	n = q.clamp(n)
	if q.Page() == n {
		return false
	}
	q.page = n
	return true
}

// NextPage advances one page when possible.
func (q *State) NextPage() bool { return q.SetPage(q.Page() + 1) }

// PrevPage goes back one page when possible.
func (q *State) PrevPage() bool { return q.SetPage(q.Page() - 1) }

// SetTotalPages records the page count reported by a load. It reports whether
// the current page had to be clamped.
func (q *State) SetTotalPages(n int) bool {
	if n < 0 {
		n = 0
	}
	q.totalPages = n
	q.known = true
	clamped := q.clamp(q.Page())
	if clamped != q.Page() {
		q.page = clamped
		return true
	}
	return false
}

func (q State) clamp(n int) int {
	if q.known && n > max(q.totalPages, 1) {
		n = max(q.totalPages, 1)
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Values serializes the state into request parameters. Page and search are
// always emitted together with the filters.
func (q State) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page()))
	values.Set("limit", strconv.Itoa(q.PageSize()))
	if p := q.sort.Param(); p != "" {
		values.Set("sort", p)
	}
	keys := make([]string, 0, len(q.filters))
	for k := range q.filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		values.Set(k, q.filters[k])
	}
	if q.search != "" {
		values.Set("search", q.search)
	}
	return values
}

// Matches is a best-effort local check that r satisfies the filters. A filter
// on a field r does not carry counts as compatible.
func (q State) Matches(r resource.Resource) bool {
	for field, want := range q.filters {
		if _, ok := r.Value(field); !ok {
			continue
		}
		if !strings.EqualFold(r.String(field), want) {
			return false
		}
	}
	return true
}

// MatchesSearch reports whether any of fields contains the search term.
func (q State) MatchesSearch(r resource.Resource, fields []string) bool {
	if q.search == "" {
		return true
	}
	needle := strings.ToLower(q.search)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(r.String(f)), needle) {
			return true
		}
	}
	return false
}

func sameFilters(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
