package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikbrunner/rainmd/internal/logging"
	"github.com/nikbrunner/rainmd/internal/metrics"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/raindrop"
)

// API pages through raindrops. *raindrop.Client satisfies it.
type API interface {
	Raindrops(ctx context.Context, collectionID int64, q raindrop.PageQuery) (raindrop.Page, error)
}

// ProgressFunc receives a human readable status line before each request.
type ProgressFunc func(msg string)

// Failure is a unit abandoned after an error. Records fetched from earlier
// pages of the unit are kept.
type Failure struct {
	Unit Unit
	Page int
	Err  error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s %q page %d: %v", f.Unit.Scope, f.Unit.Label, f.Page+1, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Result is everything a plan produced.
type Result struct {
	Records  []model.Raindrop
	Failures []Failure
	Requests int
}

type Params struct {
	API        API
	Logger     logging.Logger
	Metrics    *metrics.Metrics
	OnProgress ProgressFunc
}

// Orchestrator runs fetch plans. Requests are issued one at a time.
type Orchestrator struct {
	api      API
	log      logging.Logger
	metrics  *metrics.Metrics
	progress ProgressFunc
}

func New(p Params) *Orchestrator {
	o := &Orchestrator{api: p.API, log: p.Logger, metrics: p.Metrics, progress: p.OnProgress}
	if o.log == nil {
		o.log = logging.Nop()
	}
	if o.progress == nil {
		o.progress = func(string) {}
	}
	return o
}

// Fetch runs every unit of plan in order. An error in one unit is recorded
// as a Failure and the next unit proceeds. The returned error is non-nil
// only when ctx is done.
func (o *Orchestrator) Fetch(ctx context.Context, plan Plan) (Result, error) {
	var res Result
	seen := make(map[int64]bool)

	for _, unit := range plan.Units {
		err := o.paginate(ctx, unit, &res, func(r model.Raindrop) {
			if plan.Dedup {
				if seen[r.ID] {
					return
				}
				seen[r.ID] = true
			}
			res.Records = append(res.Records, r)
		})
		if err != nil {
			return res, err
		}
	}

	o.log.Info(ctx, "fetch finished",
		"mode", plan.Mode.String(),
		"records", len(res.Records),
		"failures", len(res.Failures),
		"requests", res.Requests,
	)
	return res, nil
}

// paginate requests pages of unit until one comes back short. A full page
// always triggers another request, so a result set that is an exact
// multiple of the page size costs one extra empty request.
func (o *Orchestrator) paginate(ctx context.Context, unit Unit, res *Result, emit func(model.Raindrop)) error {
	perPage := unit.Query.PerPage
	if perPage <= 0 {
		perPage = PerPage
	}

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.progress(progressMessage(unit, page))

		q := unit.Query
		q.Page = page
		q.PerPage = perPage

		res.Requests++
		p, err := o.api.Raindrops(ctx, unit.CollectionID, q)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, raindrop.ErrUnexpectedResponse) {
				o.log.Warn(ctx, "unexpected response, stopping unit",
					"scope", string(unit.Scope), "label", unit.Label, "page", page, "error", err)
				return nil
			}
			o.log.Error(ctx, "fetch failed, skipping unit",
				"scope", string(unit.Scope), "label", unit.Label, "page", page, "error", err)
			o.metrics.ObserveFetchFailure(string(unit.Scope))
			res.Failures = append(res.Failures, Failure{Unit: unit, Page: page, Err: err})
			return nil
		}

		for _, r := range p.Items {
			emit(r)
		}
		o.log.Debug(ctx, "fetched page",
			"scope", string(unit.Scope), "label", unit.Label, "page", page, "items", len(p.Items))

		if len(p.Items) != perPage {
			return nil
		}
	}
}

func progressMessage(u Unit, page int) string {
	switch u.Scope {
	case ScopeCollection:
		return fmt.Sprintf("Fetching from collection: %s, page %d...", u.Label, page+1)
	case ScopeTag:
		return fmt.Sprintf("Fetching items with tag: %s, page %d...", u.Label, page+1)
	case ScopeSearch:
		return fmt.Sprintf("Fetching items with tags: %s, page %d...", u.Label, page+1)
	default:
		return fmt.Sprintf("Fetching all items, page %d...", page+1)
	}
}

// FilterByType keeps the records of type t. TypeAll and "" keep everything.
func FilterByType(records []model.Raindrop, t model.ContentType) []model.Raindrop {
	if t == "" || t == model.TypeAll {
		return records
	}
	out := make([]model.Raindrop, 0, len(records))
	for _, r := range records {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}

// Group is the records of one collection.
type Group struct {
	CollectionID  int64
	Uncategorized bool // records without a collection
	Records       []model.Raindrop
}

// GroupByCollection buckets records by collection id. Groups appear in the
// order their first record does; record order within a group is kept.
func GroupByCollection(records []model.Raindrop) []Group {
	const uncategorized = "uncategorized"

	var groups []Group
	index := make(map[string]int)
	for _, r := range records {
		key := uncategorized
		if r.Collection != nil {
			key = fmt.Sprint(r.Collection.ID)
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{
				CollectionID:  r.CollectionID(),
				Uncategorized: r.Collection == nil,
			})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	return groups
}
