package query

import (
	"sort"
	"strings"

	"github.com/northgate/atrium/internal/resource"
)

// Sort is a field and direction.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort reads the API form: field name, "-" prefix for descending.
func ParseSort(param string) Sort {
	param = strings.TrimSpace(param)
	if strings.HasPrefix(param, "-") {
		return Sort{Field: strings.TrimPrefix(param, "-"), Desc: true}
	}
	return Sort{Field: strings.TrimPrefix(param, "+")}
}

// Param renders the API form.
func (s Sort) Param() string {
	if s.Field == "" {
		return ""
	}
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

func (s Sort) String() string {
	if s.Field == "" {
		return "none"
	}
	if s.Desc {
		return s.Field + " ↓"
	}
	return s.Field + " ↑"
}

// Less orders two rows by the sort field. Timestamps, numbers and booleans
// compare by value; anything else compares as case-folded text.
func (s Sort) Less(a, b resource.Resource) bool {
	if s.Field == "" {
		return false
	}
	c := compare(a, b, s.Field)
	if s.Desc {
		return c > 0
	}
	return c < 0
}

// Apply sorts rows in place, keeping ties in their current order.
func (s Sort) Apply(rows []resource.Resource) {
	if s.Field == "" {
		return
	}
	sort.SliceStable(rows, func(i, j int) bool { return s.Less(rows[i], rows[j]) })
}

func compare(a, b resource.Resource, field string) int {
	if ta, ok := a.Time(field); ok {
		if tb, ok := b.Time(field); ok {
			return ta.Compare(tb)
		}
	}
	if na, ok := a.Number(field); ok {
		if nb, ok := b.Number(field); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(strings.ToLower(a.String(field)), strings.ToLower(b.String(field)))
}
