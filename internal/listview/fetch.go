package listview

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/query"
	"github.com/northgate/atrium/internal/resource"
)

// Load fetches the page the query state describes. A newer Load, or Close,
// supersedes it: the older response is dropped on arrival and ErrSuperseded is
// returned. Failures keep the rows already shown.
func (v *View) Load(ctx context.Context) error {
	return v.load(ctx, true)
}

func (v *View) load(ctx context.Context, clampRetry bool) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.seq++
	seq := v.seq
	if v.inflight != nil {
		v.inflight()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	v.inflight = cancel
	q := v.q.Clone()
	v.mu.Unlock()
	defer cancel()

	start := time.Now()
	page, err := v.fetch(reqCtx, q)

	v.mu.Lock()
	if v.closed || seq != v.seq {
		v.mu.Unlock()
		v.log.Debug("discarding stale load", zap.Uint64("seq", seq))
		return ErrSuperseded
	}
	v.inflight = nil
	if err != nil {
		v.store.Fail(err)
		v.mu.Unlock()
		v.log.Warn("load failed", zap.Uint64("seq", seq), zap.Error(err))
		v.escalate(err)
		v.noticeError("Load "+v.d.Label, err)
		v.changed()
		return err
	}
	if v.q.SetTotalPages(page.Pagination.Pages) && clampRetry {
		// The requested page no longer exists; load the last one instead.
		v.mu.Unlock()
		v.log.Debug("page clamped", zap.Int("page", v.Query().Page()))
		return v.load(ctx, false)
	}
	v.store.Replace(page)
	v.mu.Unlock()

	v.log.Debug("load applied",
		zap.Uint64("seq", seq),
		zap.Int("rows", len(page.Rows)),
		zap.Int("total", page.Pagination.Total),
		zap.Duration("took", time.Since(start)))
	v.changed()
	return nil
}

// fetch asks the backend for one page. Client-paged kinds are fetched whole
// and narrowed locally.
func (v *View) fetch(ctx context.Context, q query.State) (api.Page, error) {
	if !v.d.Pageless() {
		return v.backend.List(ctx, v.d, q.Values())
	}
	all, err := v.backend.List(ctx, v.d, nil)
	if err != nil {
		return api.Page{}, err
	}
	return paginate(all, q, v.d.Searchable), nil
}

// paginate applies filters, search, sort and the page window to a full
// collection.
func paginate(all api.Page, q query.State, searchable []string) api.Page {
	rows := make([]resource.Resource, 0, len(all.Rows))
	for _, r := range all.Rows {
		if q.Matches(r) && q.MatchesSearch(r, searchable) {
			rows = append(rows, r)
		}
	}
	q.Sort().Apply(rows)

	size := q.PageSize()
	total := len(rows)
	pages := (total + size - 1) / size
	page := q.Page()
	if pages > 0 && page > pages {
		page = pages
	}
	return api.Page{
		Rows:       window(rows, page, size),
		Pagination: api.Pagination{Page: page, Limit: size, Total: total, Pages: pages},
		Stats:      all.Stats,
	}
}

func window(rows []resource.Resource, page, size int) []resource.Resource {
	lo := (page - 1) * size
	if lo >= len(rows) || lo < 0 {
		return nil
	}
	hi := lo + size
	if hi > len(rows) {
		hi = len(rows)
	}
	return rows[lo:hi]
}
