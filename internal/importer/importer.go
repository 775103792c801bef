// Package importer turns Raindrop.io bookmarks into markdown notes.
//
// A run resolves the requested collections, fetches every matching
// raindrop, renders each one through its template and writes it below the
// configured folder, mirroring the collection hierarchy. Problems with a
// single collection, tag or record are reported and counted; they never
// stop the rest of the run.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nikbrunner/rainmd/internal/collections"
	"github.com/nikbrunner/rainmd/internal/fetch"
	"github.com/nikbrunner/rainmd/internal/logging"
	"github.com/nikbrunner/rainmd/internal/metrics"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/naming"
	"github.com/nikbrunner/rainmd/internal/notice"
	"github.com/nikbrunner/rainmd/internal/raindrop"
	"github.com/nikbrunner/rainmd/internal/scrape"
	"github.com/nikbrunner/rainmd/internal/storage"
	"github.com/nikbrunner/rainmd/internal/template"
	"github.com/nikbrunner/rainmd/internal/writer"
)

const (
	msgMissingToken  = "Please configure your Raindrop.io API token (config file or RAINDROP_TOKEN)."
	msgNoCollections = "Error fetching user collections. Please check your API token and connection."
	msgNoTargets     = "No valid collection IDs or names provided."
	suggestionLimit  = 3
)

// API is the part of the Raindrop.io API the importer uses.
// *raindrop.Client satisfies it.
type API interface {
	fetch.API
	collections.Source
	Raindrop(ctx context.Context, id int64) (*model.Raindrop, error)
	Collection(ctx context.Context, id int64) (*model.Collection, error)
	User(ctx context.Context) (*raindrop.User, error)
}

// Params configures an Importer. API, Writer and Notifier are required.
// A nil API means no token is configured.
type Params struct {
	API      API
	Writer   writer.Writer
	Ledger   storage.Ledger // optional
	Config   *storage.Config
	Notifier notice.Notifier
	Logger   logging.Logger
	Metrics  *metrics.Metrics
	Scraper  scrape.Doer // used by CreateNote; nil = http.DefaultClient
}

// Importer runs imports.
type Importer struct {
	api      API
	writer   writer.Writer
	ledger   storage.Ledger
	cfg      *storage.Config
	notifier notice.Notifier
	log      logging.Logger
	metrics  *metrics.Metrics
	scraper  scrape.Doer
	renderer template.Renderer
	validate *validator.Validate
}

func New(p Params) *Importer {
	imp := &Importer{
		api:      p.API,
		writer:   p.Writer,
		ledger:   p.Ledger,
		cfg:      p.Config,
		notifier: p.Notifier,
		log:      p.Logger,
		metrics:  p.Metrics,
		scraper:  p.Scraper,
		validate: validator.New(),
	}
	if imp.cfg == nil {
		cfg := storage.DefaultConfig()
		imp.cfg = &cfg
	}
	if imp.log == nil {
		imp.log = logging.Nop()
	}
	return imp
}

func (imp *Importer) hasToken() bool {
	return imp.api != nil && strings.TrimSpace(imp.cfg.APIToken) != ""
}

func (imp *Importer) requireToken() error {
	if !imp.hasToken() {
		imp.notifier.Notify(msgMissingToken)
		return raindrop.ErrMissingToken
	}
	return nil
}

// Run performs one import.
func (imp *Importer) Run(ctx context.Context, opts model.FetchOptions) (Summary, error) {
	var summary Summary

	if err := imp.requireToken(); err != nil {
		return summary, err
	}
	if err := imp.validate.Struct(opts); err != nil {
		imp.notifier.Notify(fmt.Sprintf("Invalid fetch options: %v", err))
		return summary, fmt.Errorf("invalid fetch options: %w", err)
	}

	runID := model.NewRunID()
	log := imp.log.With("run_id", runID)
	log.Info(ctx, "import started",
		"collections", opts.Collections, "tags", opts.FilterTags, "match", string(opts.Match()), "type", string(opts.TypeFilter()))

	progress := imp.notifier.Progress("Starting Raindrop fetch...")
	defer progress.Done()

	inputs := opts.CollectionInputs()
	if len(inputs) > 0 {
		progress.Update("Fetching user collections...")
	} else {
		progress.Update("Fetching all collections...")
	}
	h, err := imp.hierarchy(ctx, log)
	if err != nil {
		return summary, err
	}

	var ids []int64
	if len(inputs) > 0 {
		res := h.Resolve(inputs)
		if len(res.Unresolved) > 0 {
			imp.notifier.Notify(unresolvedMessage(res.Unresolved, h))
		}
		if len(res.IDs) == 0 {
			imp.notifier.Notify(msgNoTargets)
			return summary, fetch.ErrNoTargets
		}
		ids = res.IDs
	}

	plan := fetch.PlanFor(opts, ids, h.Title)
	orchestrator := fetch.New(fetch.Params{
		API:        imp.api,
		Logger:     log,
		Metrics:    imp.metrics,
		OnProgress: progress.Update,
	})
	result, err := orchestrator.Fetch(ctx, plan)
	if err != nil {
		return summary, err
	}

	for _, f := range result.Failures {
		imp.notifier.Notify(failureMessage(f))
	}
	summary.FetchFailures = len(result.Failures)

	records := result.Records
	if len(records) == 0 {
		if plan.Filtered() {
			imp.notifier.Notify("No raindrops found matching your criteria.")
		} else {
			imp.notifier.Notify("No raindrops found in your account.")
		}
		return summary, nil
	}

	if t := opts.TypeFilter(); t != model.TypeAll {
		progress.Update(fmt.Sprintf("Found %d raindrops. Applying type filter...", len(records)))
		records = fetch.FilterByType(records, t)
		if len(records) == 0 {
			imp.notifier.Notify(fmt.Sprintf("No raindrops found matching type '%s'.", t))
			return summary, nil
		}
		progress.Update(fmt.Sprintf("Found %d raindrops of type '%s'. Processing...", len(records), t))
	} else {
		progress.Update(fmt.Sprintf("Found %d raindrops. Processing...", len(records)))
	}

	imp.processAll(ctx, log, records, h, opts, runID, progress, &summary)

	progress.Done()
	imp.notifier.Notify(summary.String())
	log.Info(ctx, "import finished",
		"created", summary.Created, "updated", summary.Updated,
		"skipped", summary.Skipped, "errors", summary.Errors, "fetch_failures", summary.FetchFailures)
	return summary, nil
}

// hierarchy fetches the account's collections. A failure to read them is
// reported and yields an empty hierarchy, so notes land in the base folder.
func (imp *Importer) hierarchy(ctx context.Context, log logging.Logger) (*collections.Hierarchy, error) {
	cols, err := collections.FetchAll(ctx, imp.api, log)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, collections.ErrNoCollections) {
		imp.notifier.Notify(msgNoCollections)
	}
	return collections.NewHierarchy(cols), nil
}

func unresolvedMessage(unresolved []string, h *collections.Hierarchy) string {
	msg := fmt.Sprintf("Could not find collections: %s. Please check names or use IDs.", strings.Join(unresolved, ", "))
	for _, in := range unresolved {
		if s := h.Suggest(in, suggestionLimit); len(s) > 0 {
			msg += fmt.Sprintf(" Did you mean %s for %q?", strings.Join(s, ", "), in)
		}
	}
	return msg
}

func failureMessage(f fetch.Failure) string {
	switch f.Unit.Scope {
	case fetch.ScopeCollection:
		return fmt.Sprintf("Error fetching collection: %s. Skipping.", f.Unit.Label)
	case fetch.ScopeTag:
		return fmt.Sprintf("Error fetching items with tag: %s. Skipping.", f.Unit.Label)
	default:
		return fmt.Sprintf("Error fetching raindrops: %v", f.Err)
	}
}

// processAll renders and writes records grouped by collection.
func (imp *Importer) processAll(
	ctx context.Context,
	log logging.Logger,
	records []model.Raindrop,
	h *collections.Hierarchy,
	opts model.FetchOptions,
	runID string,
	progress notice.Progress,
	summary *Summary,
) {
	total := len(records)
	processed := 0

	for _, group := range fetch.GroupByCollection(records) {
		for _, r := range group.Records {
			title := r.Title
			if title == "" {
				title = "Untitled"
			}
			progress.Update(fmt.Sprintf("Processing '%s'... (%d/%d)", title, processed, total))

			outcome, path, err := imp.Process(ctx, r, h, opts, runID)
			processed++
			if err != nil {
				summary.Errors++
				imp.metrics.ObserveDocument("error")
				log.Error(ctx, "failed to process raindrop", "id", r.ID, "error", err)
				continue
			}
			summary.add(outcome, path)
			imp.metrics.ObserveDocument(outcome.String())
			log.Debug(ctx, "processed raindrop", "id", r.ID, "path", path, "outcome", outcome.String())
		}
	}
}

// Process writes the note for one record and returns what happened and
// the note path.
func (imp *Importer) Process(ctx context.Context, r model.Raindrop, h *collections.Hierarchy, opts model.FetchOptions, runID string) (writer.Outcome, string, error) {
	if h == nil {
		h = collections.NewHierarchy(nil)
	}

	if opts.FetchOnlyNew && imp.ledger != nil {
		seen, err := imp.ledger.Has(ctx, r.ID)
		if err != nil {
			imp.log.Warn(ctx, "ledger lookup failed", "id", r.ID, "error", err)
		} else if seen {
			return writer.Skipped, "", nil
		}
	}

	info := CollectionInfo(r, h)
	if r.Collection != nil {
		ref := *r.Collection
		if ref.Title == "" {
			ref.Title = info.Title
		}
		r.Collection = &ref
	}

	base := opts.VaultPath
	if strings.TrimSpace(base) == "" {
		base = imp.cfg.DefaultFolder
	}
	name := naming.Filename(r, imp.cfg.FileNameTemplate, opts.UseTitleForFileName)
	dir := naming.TargetDir(base, h.PathSegments(r.CollectionID()))
	path := naming.NotePath(dir, name)

	if err := imp.writer.EnsureDir(dir); err != nil {
		return writer.Skipped, path, fmt.Errorf("create folder for %d: %w", r.ID, err)
	}

	outcome, err := imp.writer.Write(path, imp.render(r, info, opts), opts.UpdateExisting)
	if err != nil {
		return outcome, path, fmt.Errorf("write note for %d: %w", r.ID, err)
	}

	if outcome != writer.Skipped && imp.ledger != nil {
		entry := storage.Entry{
			RaindropID: r.ID,
			Title:      r.Title,
			Path:       path,
			LastUpdate: r.LastUpdate,
			Outcome:    outcome.String(),
			RunID:      runID,
		}
		if err := imp.ledger.Record(ctx, entry); err != nil {
			imp.log.Warn(ctx, "failed to record import", "id", r.ID, "error", err)
		}
	}
	return outcome, path, nil
}

func (imp *Importer) render(r model.Raindrop, info template.CollectionInfo, opts model.FetchOptions) string {
	ctxOpts := template.ContextOptions{
		BannerFieldName: imp.cfg.BannerFieldName,
		DateFormat:      imp.cfg.DateFormat,
		ExtraTags:       opts.ExtraTags(),
	}
	if !imp.cfg.TemplateSystemEnabled {
		return template.Fallback(r, info, ctxOpts)
	}

	tmpl := imp.cfg.Templates().For(r.Type, opts.UseDefaultTemplate, opts.OverrideTemplates)
	return imp.renderer.Render(tmpl, template.BuildContext(r, info, ctxOpts))
}

// CollectionInfo describes the collection of r as seen in h. The title
// falls back to the one carried by the record.
func CollectionInfo(r model.Raindrop, h *collections.Hierarchy) template.CollectionInfo {
	id := r.CollectionID()
	info := template.CollectionInfo{
		ID:    id,
		Title: h.Title(id),
		Path:  h.Path(id),
	}
	if info.Title == "" && r.Collection != nil {
		info.Title = r.Collection.Title
	}
	if parent, ok := h.ParentID(id); ok {
		info.ParentID = &parent
	}
	return info
}
