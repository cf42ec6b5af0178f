package resource

import (
	"fmt"
	"net/url"
	"strings"
)

// Kind names a resource collection.
type Kind string

const (
	Article  Kind = "article"
	Carousel Kind = "carousel"
	Category Kind = "category"
	Message  Kind = "message"
	User     Kind = "user"
	Role     Kind = "role"
)

// Mode says who evaluates filter, sort and pagination for a kind.
type Mode int

const (
	// ServerPaged kinds are queried page by page; the API is authoritative.
	ServerPaged Mode = iota
	// ClientPaged kinds are fetched whole and windowed locally. Results are
	// only as complete as one unpaginated fetch.
	ClientPaged
)

func (m Mode) String() string {
	if m == ClientPaged {
		return "client"
	}
	return "server"
}

// Column is one rendered table column.
type Column struct {
	Field string
	Title string
	Width int
}

// Preset is a named filter combination the console cycles through.
type Preset struct {
	Label   string
	Filters map[string]string
}

// Descriptor describes how to talk to and render one kind.
type Descriptor struct {
	Kind        Kind
	Label       string
	Path        string // REST collection path, e.g. "/articles"
	Collection  string // key of the row array inside the response data
	Mode        Mode
	DefaultSort string   // sort parameter, "-" prefix for descending
	Sorts       []string // sort parameters the console cycles through
	Columns     []Column
	Toggles     []string // boolean or enum fields changed through updateField
	// Enums lists the values an enum toggle cycles through.
	Enums       map[string][]string
	Presets     []Preset
	Searchable  []string // fields matched by a local search in client mode
	Required    []string // fields required on create
	Reorderable bool
	HasStats    bool
}

var descriptors = []Descriptor{
	{
		Kind:        Article,
		Label:       "Articles",
		Path:        "/articles",
		Collection:  "articles",
		Mode:        ServerPaged,
		DefaultSort: "-createdAt",
		Sorts:       []string{"-createdAt", "createdAt", "title", "-priority"},
		Columns: []Column{
			{Field: "title", Title: "Title", Width: 36},
			{Field: "status", Title: "Status", Width: 10},
			{Field: "category", Title: "Category", Width: 14},
			{Field: "featured", Title: "★", Width: 3},
			{Field: "createdAt", Title: "Created", Width: 12},
		},
		Toggles: []string{"featured", "status"},
		Enums:   map[string][]string{"status": {"draft", "published"}},
		Presets: []Preset{
			{Label: "all"},
			{Label: "published", Filters: map[string]string{"status": "published"}},
			{Label: "draft", Filters: map[string]string{"status": "draft"}},
			{Label: "featured", Filters: map[string]string{"featured": "true"}},
		},
		Searchable: []string{"title", "excerpt"},
		Required:   []string{"title", "content"},
	},
	{
		Kind:        Carousel,
		Label:       "Carousel",
		Path:        "/carousel",
		Collection:  "slides",
		Mode:        ClientPaged,
		DefaultSort: "order",
		Sorts:       []string{"order", "-createdAt"},
		Columns: []Column{
			{Field: "order", Title: "#", Width: 4},
			{Field: "title", Title: "Title", Width: 34},
			{Field: "isActive", Title: "Active", Width: 7},
			{Field: "image", Title: "Image", Width: 28},
		},
		Toggles: []string{"isActive"},
		Presets: []Preset{
			{Label: "all"},
			{Label: "active", Filters: map[string]string{"isActive": "true"}},
			{Label: "hidden", Filters: map[string]string{"isActive": "false"}},
		},
		Searchable:  []string{"title", "subtitle"},
		Required:    []string{"title", "image"},
		Reorderable: true,
	},
	{
		Kind:        Category,
		Label:       "Categories",
		Path:        "/categories",
		Collection:  "categories",
		Mode:        ClientPaged,
		DefaultSort: "name",
		Sorts:       []string{"name", "-name", "-createdAt"},
		Columns: []Column{
			{Field: "name", Title: "Name", Width: 24},
			{Field: "slug", Title: "Slug", Width: 24},
			{Field: "isActive", Title: "Active", Width: 7},
		},
		Toggles: []string{"isActive"},
		Presets: []Preset{
			{Label: "all"},
			{Label: "active", Filters: map[string]string{"isActive": "true"}},
		},
		Searchable: []string{"name", "slug", "description"},
		Required:   []string{"name"},
	},
	{
		Kind:        Message,
		Label:       "Messages",
		Path:        "/messages",
		Collection:  "messages",
		Mode:        ServerPaged,
		DefaultSort: "-createdAt",
		Sorts:       []string{"-createdAt", "createdAt", "-priority"},
		Columns: []Column{
			{Field: "name", Title: "From", Width: 18},
			{Field: "subject", Title: "Subject", Width: 30},
			{Field: "status", Title: "Status", Width: 10},
			{Field: "isStarred", Title: "★", Width: 3},
			{Field: "createdAt", Title: "Received", Width: 12},
		},
		Toggles: []string{"isStarred", "isRead"},
		Presets: []Preset{
			{Label: "all"},
			{Label: "unread", Filters: map[string]string{"isRead": "false"}},
			{Label: "starred", Filters: map[string]string{"isStarred": "true"}},
			{Label: "archived", Filters: map[string]string{"status": "archived"}},
		},
		Searchable: []string{"name", "email", "subject"},
		Required:   []string{"name", "email", "message"},
		HasStats:   true,
	},
	{
		Kind:        User,
		Label:       "Users",
		Path:        "/users",
		Collection:  "users",
		Mode:        ServerPaged,
		DefaultSort: "-createdAt",
		Sorts:       []string{"-createdAt", "name", "email"},
		Columns: []Column{
			{Field: "name", Title: "Name", Width: 20},
			{Field: "email", Title: "Email", Width: 28},
			{Field: "role", Title: "Role", Width: 12},
			{Field: "isActive", Title: "Active", Width: 7},
		},
		Toggles: []string{"isActive"},
		Presets: []Preset{
			{Label: "all"},
			{Label: "active", Filters: map[string]string{"isActive": "true"}},
			{Label: "admins", Filters: map[string]string{"role": "admin"}},
		},
		Searchable: []string{"name", "email"},
		Required:   []string{"name", "email", "role"},
		HasStats:   true,
	},
	{
		Kind:        Role,
		Label:       "Roles",
		Path:        "/roles",
		Collection:  "roles",
		Mode:        ClientPaged,
		DefaultSort: "name",
		Sorts:       []string{"name", "-name"},
		Columns: []Column{
			{Field: "name", Title: "Name", Width: 18},
			{Field: "description", Title: "Description", Width: 40},
		},
		Presets:    []Preset{{Label: "all"}},
		Searchable: []string{"name", "description"},
		Required:   []string{"name"},
	},
}

// Kinds lists every kind in console tab order.
func Kinds() []Kind {
	out := make([]Kind, len(descriptors))
	for i, d := range descriptors {
		out[i] = d.Kind
	}
	return out
}

// Lookup returns the descriptor for kind.
func Lookup(kind Kind) (Descriptor, bool) {
	for _, d := range descriptors {
		if d.Kind == kind {
			return d, true
		}
	}
	return Descriptor{}, false
}

// ParseKind accepts singular or plural names, case-insensitively.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, d := range descriptors {
		if n == string(d.Kind) || n == d.Collection || n == strings.TrimPrefix(d.Path, "/") {
			return d.Kind, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", name)
}

// Title returns the field that names a row in prompts and notices.
func (d Descriptor) Title() string {
	if len(d.Columns) == 0 {
		return "_id"
	}
	for _, c := range d.Columns {
		if c.Field == "title" || c.Field == "name" || c.Field == "subject" {
			return c.Field
		}
	}
	return d.Columns[0].Field
}

// Next returns the value an update of field moves to from current: booleans
// flip, enums advance and wrap.
func (d Descriptor) Next(field string, current any) any {
	if values := d.Enums[field]; len(values) > 0 {
		cur := fmt.Sprint(current)
		for i, v := range values {
			if strings.EqualFold(v, cur) {
				return values[(i+1)%len(values)]
			}
		}
		return values[0]
	}
	switch v := current.(type) {
	case bool:
		return !v
	case string:
		return !strings.EqualFold(v, "true")
	}
	return true
}

// Pageless reports whether the kind is fetched whole.
func (d Descriptor) Pageless() bool { return d.Mode == ClientPaged }

// ItemPath returns the REST path for one resource. The id is escaped as a
// single path segment.
func (d Descriptor) ItemPath(id string) string {
	return d.Path + "/" + url.PathEscape(id)
}
