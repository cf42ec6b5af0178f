package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/northgate/atrium/internal/app"
	"github.com/northgate/atrium/internal/listview"
	"github.com/northgate/atrium/internal/resource"
)

func watchCmd(g *globals) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "watch <kind>",
		Short: "Follow a collection over the realtime channel",
		Long: `Watch opens one page like list does, then prints a line each time the
page changes, whether from a push event, a reconnect or a reload. Stop
it with Ctrl+C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, g, opts, args[0])
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.limit, "limit", 0, "rows per page (default from config)")
	f.StringVar(&opts.sort, "sort", "", "sort field, '-' prefix for descending")
	f.StringArrayVar(&opts.filters, "filter", nil, "filter as field=value (repeatable)")
	return cmd
}

// lineWriter serializes writes from the channel's read goroutine.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lineWriter) printf(format string, args ...any) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	fmt.Fprintf(lw.w, format, args...)
}

func runWatch(cmd *cobra.Command, g *globals, opts *listOptions, kindArg string) error {
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
	opts.page = 1
	q, err := buildQuery(d, opts, e.cfg.PageSize)
	if err != nil {
		return err
	}

	out := &lineWriter{w: cmd.OutOrStdout()}
	var v *listview.View
	v = listview.New(listview.Options{
		Descriptor: d,
		Backend:    clients.API,
		Channel:    clients.Push,
		Logger:     e.log.Named("listview"),
		Query:      &q,
		Notify: func(n listview.Notice) {
			out.printf("%s %-7s %s\n", n.At.Format(time.TimeOnly), n.Level, n.Text)
		},
		OnChange: func() {
			if v == nil {
				return
			}
			snap := v.Snapshot()
			out.printf("%s %-7s %d rows, %d total, %s\n",
				time.Now().Format(time.TimeOnly), "change", len(snap.Rows), snap.Pagination.Total, v.Connection())
		},
	})
	defer v.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return clients.Push.Run(groupCtx)
	})
	group.Go(func() error {
		defer cancel()
		// A failed first load is already a notice; the view reloads once
		// the channel connects.
		if err := v.Open(groupCtx); errors.Is(err, listview.ErrClosed) {
			return fmt.Errorf("watch %s: %w", kind, err)
		}
		<-groupCtx.Done()
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
