package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nikbrunner/rainmd/internal/collections"
	"github.com/nikbrunner/rainmd/internal/fetch"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/raindrop"
	"github.com/nikbrunner/rainmd/internal/scrape"
)

// ErrNoteFailed is returned by ImportOne when its note could not be written.
var ErrNoteFailed = errors.New("failed to write note")

// ImportOne fetches a single raindrop by id and writes its note,
// overwriting an existing one.
func (imp *Importer) ImportOne(ctx context.Context, id int64, opts model.FetchOptions) (Summary, error) {
	var summary Summary

	if err := imp.requireToken(); err != nil {
		return summary, err
	}
	if id <= 0 {
		imp.notifier.Notify("Invalid Item ID provided for Quick Import.")
		return summary, fmt.Errorf("invalid raindrop id %d", id)
	}

	runID := model.NewRunID()
	log := imp.log.With("run_id", runID, "raindrop_id", id)

	progress := imp.notifier.Progress(fmt.Sprintf("Fetching Raindrop item ID: %d...", id))
	defer progress.Done()

	r, err := imp.api.Raindrop(ctx, id)
	if err != nil {
		imp.notifier.Notify(fmt.Sprintf("Failed to fetch Raindrop item %d: %v", id, err))
		return summary, err
	}

	progress.Update(fmt.Sprintf("Fetching collection info for item %d...", id))
	h, err := imp.hierarchy(ctx, log)
	if err != nil {
		return summary, err
	}

	opts.UpdateExisting = true
	opts.FetchOnlyNew = false
	imp.processAll(ctx, log, []model.Raindrop{*r}, h, opts, runID, progress, &summary)

	progress.Done()
	imp.notifier.Notify(summary.String())
	if summary.Errors > 0 {
		return summary, fmt.Errorf("%w: raindrop %d", ErrNoteFailed, id)
	}
	return summary, nil
}

// NewNote is a bookmark entered by hand.
type NewNote struct {
	URL        string `validate:"required,url"`
	Title      string
	Excerpt    string
	Note       string
	Cover      string `validate:"omitempty,url"`
	Tags       []string
	Collection string // name or id; empty = no collection
	VaultPath  string
	AppendTags string
	// Scrape fills missing title, excerpt and cover from the page itself.
	Scrape bool
}

var now = time.Now

// CreateNote writes a note for a bookmark that does not come from the API.
// The record gets the current unix time in milliseconds as its id.
func (imp *Importer) CreateNote(ctx context.Context, n NewNote) (Summary, error) {
	var summary Summary

	if err := imp.validate.Struct(n); err != nil {
		imp.notifier.Notify("A valid URL is required.")
		return summary, fmt.Errorf("invalid note: %w", err)
	}

	if n.Scrape {
		md, err := scrape.FetchMetadata(ctx, imp.scraper, n.URL)
		if err != nil {
			imp.log.Warn(ctx, "failed to fetch page metadata", "url", n.URL, "error", err)
			imp.notifier.Notify("Failed to fetch metadata. Please check the URL.")
		}
		if n.Title == "" {
			n.Title = md.Title
		}
		if n.Excerpt == "" {
			n.Excerpt = md.Description
		}
		if n.Cover == "" {
			n.Cover = md.Cover
		}
	}
	if strings.TrimSpace(n.Title) == "" {
		n.Title = n.URL
	}

	progress := imp.notifier.Progress(fmt.Sprintf("Creating note for: %s...", n.Title))
	defer progress.Done()

	stamp := now()
	created := stamp.UTC().Format("2006-01-02T15:04:05.000Z")
	r := model.Raindrop{
		ID:         stamp.UnixMilli(),
		Title:      n.Title,
		Excerpt:    n.Excerpt,
		Note:       n.Note,
		Link:       n.URL,
		Cover:      n.Cover,
		Created:    created,
		LastUpdate: created,
		Tags:       append([]string{}, n.Tags...),
		Type:       model.TypeLink,
	}

	h := collections.NewHierarchy(nil)
	if strings.TrimSpace(n.Collection) != "" {
		if imp.hasToken() {
			var err error
			if h, err = imp.hierarchy(ctx, imp.log); err != nil {
				return summary, err
			}
		}
		res := h.Resolve([]string{n.Collection})
		switch {
		case len(res.IDs) > 0:
			r.Collection = &model.CollectionRef{ID: res.IDs[0], Title: h.Title(res.IDs[0])}
		default:
			if id, err := strconv.ParseInt(n.Collection, 10, 64); err == nil {
				r.Collection = &model.CollectionRef{ID: id}
			} else {
				imp.notifier.Notify(unresolvedMessage(res.Unresolved, h))
			}
		}
	}

	opts := model.FetchOptions{
		VaultPath:           n.VaultPath,
		AppendTags:          n.AppendTags,
		UseTitleForFileName: true,
	}
	outcome, path, err := imp.Process(ctx, r, h, opts, model.NewRunID())
	if err != nil {
		summary.Errors++
		imp.metrics.ObserveDocument("error")
		imp.notifier.Notify(fmt.Sprintf("✗ Failed to create note: %v", err))
		return summary, err
	}
	summary.add(outcome, path)
	imp.metrics.ObserveDocument(outcome.String())

	progress.Done()
	if summary.Created > 0 {
		imp.notifier.Notify(fmt.Sprintf("✓ Successfully created note: %s", n.Title))
	} else {
		imp.notifier.Notify(fmt.Sprintf("⚠ Note creation completed with warnings for: %s", n.Title))
	}
	return summary, nil
}

// CollectionItems returns every raindrop of one collection.
func (imp *Importer) CollectionItems(ctx context.Context, collectionID int64) ([]model.Raindrop, error) {
	if err := imp.requireToken(); err != nil {
		return nil, err
	}

	label := strconv.FormatInt(collectionID, 10)
	plan := fetch.Plan{Mode: fetch.ModeCollections, Units: []fetch.Unit{{
		Scope:        fetch.ScopeCollection,
		Label:        label,
		CollectionID: collectionID,
		Query:        raindrop.PageQuery{PerPage: fetch.PerPage},
	}}}

	result, err := fetch.New(fetch.Params{API: imp.api, Logger: imp.log, Metrics: imp.metrics}).Fetch(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(result.Failures) > 0 {
		imp.notifier.Notify(fmt.Sprintf("Error fetching items for collection ID: %d.", collectionID))
		return result.Records, result.Failures[0]
	}
	return result.Records, nil
}

// VerifyToken checks that the configured token is accepted.
func (imp *Importer) VerifyToken(ctx context.Context) (*raindrop.User, error) {
	if err := imp.requireToken(); err != nil {
		return nil, err
	}

	imp.notifier.Notify("Verifying API token...")
	user, err := imp.api.User(ctx)
	if err != nil {
		imp.notifier.Notify(fmt.Sprintf("API Token verification failed: %v", err))
		return nil, err
	}
	imp.notifier.Notify("API Token is valid!")
	return user, nil
}

// CollectionByID returns the metadata of one collection, or nil when it
// cannot be fetched.
func (imp *Importer) CollectionByID(ctx context.Context, id int64) *model.Collection {
	if imp.requireToken() != nil {
		return nil
	}
	c, err := imp.api.Collection(ctx, id)
	if err != nil {
		imp.log.Warn(ctx, "failed to fetch collection info", "collection", id, "error", err)
		return nil
	}
	return c
}

// Collections returns the account's collection hierarchy.
func (imp *Importer) Collections(ctx context.Context) (*collections.Hierarchy, error) {
	if err := imp.requireToken(); err != nil {
		return nil, err
	}
	cols, err := collections.FetchAll(ctx, imp.api, imp.log)
	if err != nil {
		imp.notifier.Notify("Failed to load your Raindrop.io collections for selection.")
		return nil, err
	}
	return collections.NewHierarchy(cols), nil
}
