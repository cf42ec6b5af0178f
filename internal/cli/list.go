package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/northgate/atrium/internal/app"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
	"github.com/northgate/atrium/internal/state"
)

type listOptions struct {
	page    int
	limit   int
	sort    string
	search  string
	filters []string
}

func listCmd(g *globals) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "Print one page of a collection",
		Long: `List loads one page the way the console would and prints it as a
table. Kinds: article, carousel, category, message, user, role.

Client-paged kinds (carousel, category, role) are fetched whole, then
filtered, searched, sorted and paged locally.`,
		Example: `  atrium list article --filter status=published --sort -createdAt
  atrium list message --search refund --page 2`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, g, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.page, "page", 1, "page number")
	f.IntVar(&opts.limit, "limit", 0, "rows per page (default from config)")
	f.StringVar(&opts.sort, "sort", "", "sort field, '-' prefix for descending")
	f.StringVar(&opts.search, "search", "", "search term")
	f.StringArrayVar(&opts.filters, "filter", nil, "filter as field=value (repeatable)")
	return cmd
}

// buildQuery turns list flags into the initial query for d.
func buildQuery(d resource.Descriptor, opts *listOptions, pageSize int) (query.State, error) {
	if opts.limit > 0 {
		pageSize = opts.limit
	}
	sortParam := d.DefaultSort
	if opts.sort != "" {
		sortParam = opts.sort
	}
	q := query.New(pageSize, query.ParseSort(sortParam))
	for _, raw := range opts.filters {
		field, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(field) == "" {
			return query.State{}, fmt.Errorf("filter %q: want field=value", raw)
		}
		q.SetFilter(field, value)
	}
	q.SetSearch(opts.search)
	q.SetPage(opts.page)
	return q, nil
}

func runList(cmd *cobra.Command, g *globals, opts *listOptions, kindArg string) error {
	kind, err := resource.ParseKind(kindArg)
	if err != nil {
		return err
	}
	d, _ := resource.Lookup(kind)

	e, err := loadEnv(cmd, g)
	if err != nil {
		return err
	}
	clients, err := app.Dial(e.cfg, e.log)
	if err != nil {
		return err
	}
	q, err := buildQuery(d, opts, e.cfg.PageSize)
	if err != nil {
		return err
	}

	v := listview.New(listview.Options{
		Descriptor: d,
		Backend:    clients.API,
		Logger:     e.log.Named("listview"),
		Query:      &q,
	})
	defer v.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.RequestTimeout*2)
	defer cancel()
	if err := v.Load(ctx); err != nil {
		return fmt.Errorf("list %s: %w", kind, err)
	}
	return printTable(cmd, d, v.Snapshot(), v.Query())
}

func printTable(cmd *cobra.Command, d resource.Descriptor, snap state.Snapshot, q query.State) error {
	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	titles := make([]string, 0, len(d.Columns)+1)
	titles = append(titles, "ID")
	for _, c := range d.Columns {
		titles = append(titles, strings.ToUpper(c.Title))
	}
	fmt.Fprintln(tw, strings.Join(titles, "\t"))

	for _, r := range snap.Rows {
		cells := make([]string, 0, len(d.Columns)+1)
		cells = append(cells, r.ID)
		for _, c := range d.Columns {
			cells = append(cells, cell(r.String(c.Field), c.Width))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	pg := snap.Pagination
	pages := pg.Pages
	if pages < 1 {
		pages = 1
	}
	_, err := fmt.Fprintf(out, "\npage %d/%d  %d total  sort %s\n", q.Page(), pages, pg.Total, q.Sort().Param())
	return err
}

func cell(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	runes := []rune(value)
	if width > 3 && len(runes) > width {
		return string(runes[:width-3]) + "..."
	}
	return value
}
