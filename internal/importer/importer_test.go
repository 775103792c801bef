package importer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikbrunner/rainmd/internal/fetch"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/notice"
	"github.com/nikbrunner/rainmd/internal/raindrop"
	"github.com/nikbrunner/rainmd/internal/storage"
	"github.com/nikbrunner/rainmd/internal/writer"
)

const (
	rootCollections  = `{"result":true,"items":[{"_id":1,"title":"Dev"},{"_id":3,"title":"Reading"},{"_id":-1,"title":"Unsorted"}]}`
	childCollections = `{"result":true,"items":[{"_id":2,"title":"Go","parent":{"$id":1}}]}`
)

func item(id, collection int64, title, typ string) string {
	return fmt.Sprintf(`{"_id":%d,"title":%q,"link":"https://example.com/%d","type":%q,
		"collection":{"$id":%d},"created":"2025-01-15T10:30:00.000Z","lastUpdate":"2025-01-16T10:30:00.000Z","tags":["go"]}`,
		id, title, id, typ, collection)
}

func items(entries ...string) string {
	return `{"result":true,"items":[` + strings.Join(entries, ",") + `]}`
}

type fakeServer struct {
	routes   map[string]string
	requests atomic.Int32
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	body, ok := s.routes[r.URL.Path]
	if !ok {
		body = `{"result":false,"errorMessage":"not found"}`
	}
	fmt.Fprint(w, body)
}

type harness struct {
	imp    *Importer
	notes  *notice.Recorder
	server *fakeServer
	root   string
	ledger *storage.SQLiteLedger
	cfg    *storage.Config
}

func newHarness(t *testing.T, routes map[string]string) *harness {
	t.Helper()

	fs := &fakeServer{routes: routes}
	srv := httptest.NewServer(fs)
	t.Cleanup(srv.Close)

	client, err := raindrop.NewClient(raindrop.ClientParams{
		Token:      "secret",
		BaseURL:    srv.URL,
		HTTP:       srv.Client(),
		Limiter:    raindrop.NewRateLimiter(1000, 0),
		MaxRetries: 1,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)

	ledger, err := storage.NewSQLiteLedger(filepath.Join(t.TempDir(), "imports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	cfg := storage.DefaultConfig()
	cfg.APIToken = "secret"

	h := &harness{
		notes:  &notice.Recorder{},
		server: fs,
		root:   t.TempDir(),
		ledger: ledger,
		cfg:    &cfg,
	}
	h.imp = New(Params{
		API:      client,
		Writer:   writer.NewDirWriter(h.root),
		Ledger:   ledger,
		Config:   h.cfg,
		Notifier: h.notes,
	})
	return h
}

func (h *harness) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(h.root, filepath.FromSlash(rel)))
	require.NoError(t, err, "expected note %s", rel)
	return string(data)
}

func lastNotice(r *notice.Recorder) string {
	n := r.Notices()
	if len(n) == 0 {
		return ""
	}
	return n[len(n)-1]
}

func TestRun_CollectionsMode(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/2": items(
			item(10, 2, "Go Proverbs", "article"),
			item(11, 2, "Effective Go", "link"),
		),
	})

	opts := model.FetchOptions{Collections: "go", VaultPath: "Raindrop", UseTitleForFileName: true}
	summary, err := h.imp.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, []string{"Raindrop/Dev/Go/Go Proverbs.md", "Raindrop/Dev/Go/Effective Go.md"}, summary.Paths)
	assert.Equal(t, "2 notes created.", lastNotice(h.notes))

	note := h.read(t, "Raindrop/Dev/Go/Go Proverbs.md")
	assert.Contains(t, note, `title: "Go Proverbs"`)
	assert.Contains(t, note, `collectionTitle: "Go"`)
	assert.Contains(t, note, `collectionPath: "Dev/Go"`)
	assert.Contains(t, note, "collectionParentId: 1\n")
	assert.Contains(t, note, "[Read Article](https://example.com/10)")

	assert.Contains(t, h.read(t, "Raindrop/Dev/Go/Effective Go.md"), "[Source](https://example.com/11)")

	entries, err := h.ledger.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	progress := strings.Join(h.notes.ProgressUpdates(), "\n")
	assert.Contains(t, progress, "Fetching from collection: Go, page 1...")
	assert.Contains(t, progress, "Found 2 raindrops. Processing...")
	assert.Equal(t, 1, h.notes.Closed())
}

func TestRun_SecondRunSkipsExisting(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/0":           items(item(10, 2, "Go Proverbs", "article"), item(12, 3, "Essay", "article")),
	})
	opts := model.FetchOptions{UseTitleForFileName: true}

	_, err := h.imp.Run(context.Background(), opts)
	require.NoError(t, err)

	summary, err := h.imp.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, "0 notes created. 2 skipped (already exist).", lastNotice(h.notes))

	opts.UpdateExisting = true
	summary, err = h.imp.Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Updated)
}

func TestRun_OneCollectionRejected(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/1":           items(item(20, 1, "A", "link")),
		"/raindrops/2":           `{"result":false,"errorMessage":"boom"}`,
		"/raindrops/3":           items(item(30, 3, "C", "link")),
	})

	summary, err := h.imp.Run(context.Background(), model.FetchOptions{Collections: "Dev, Go, 3", UseTitleForFileName: true})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Created)
	assert.Equal(t, 1, summary.FetchFailures)
	assert.Contains(t, h.notes.Notices(), "Error fetching collection: Go. Skipping.")
	assert.Equal(t, "2 notes created.", lastNotice(h.notes))
	h.read(t, "Dev/A.md")
	h.read(t, "Reading/C.md")
}

func TestRun_MissingToken(t *testing.T) {
	notes := &notice.Recorder{}
	imp := New(Params{Writer: writer.NewDirWriter(t.TempDir()), Notifier: notes})

	_, err := imp.Run(context.Background(), model.FetchOptions{})
	assert.ErrorIs(t, err, raindrop.ErrMissingToken)
	assert.Equal(t, []string{msgMissingToken}, notes.Notices())
	assert.Empty(t, notes.ProgressUpdates())
}

func TestRun_UnresolvedCollections(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
	})

	_, err := h.imp.Run(context.Background(), model.FetchOptions{Collections: "Readng"})
	assert.ErrorIs(t, err, fetch.ErrNoTargets)

	notices := h.notes.Notices()
	require.Len(t, notices, 2)
	assert.True(t, strings.HasPrefix(notices[0], "Could not find collections: Readng. Please check names or use IDs."))
	assert.Contains(t, notices[0], "Reading")
	assert.Equal(t, msgNoTargets, notices[1])
	assert.EqualValues(t, 2, h.server.requests.Load(), "only the collection endpoints should be called")
}

func TestRun_CollectionsUnavailable(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/raindrops/0": items(item(10, 2, "Go Proverbs", "article")),
	})

	summary, err := h.imp.Run(context.Background(), model.FetchOptions{UseTitleForFileName: true})
	require.NoError(t, err)
	assert.Contains(t, h.notes.Notices(), msgNoCollections)
	assert.Equal(t, 1, summary.Created)
	h.read(t, "Go Proverbs.md")
}

func TestRun_TypeFilterEmpty(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/0":           items(item(10, 2, "A", "link")),
	})

	summary, err := h.imp.Run(context.Background(), model.FetchOptions{FilterType: model.TypeVideo})
	require.NoError(t, err)
	assert.Zero(t, summary.Total())
	assert.Equal(t, "No raindrops found matching type 'video'.", lastNotice(h.notes))
}

func TestRun_NothingFound(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/0":           items(),
	})

	_, err := h.imp.Run(context.Background(), model.FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, "No raindrops found in your account.", lastNotice(h.notes))

	_, err = h.imp.Run(context.Background(), model.FetchOptions{FilterTags: "go"})
	require.NoError(t, err)
	assert.Equal(t, "No raindrops found matching your criteria.", lastNotice(h.notes))
}

func TestRun_InvalidOptions(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.imp.Run(context.Background(), model.FetchOptions{TagMatch: "some"})
	assert.Error(t, err)
	assert.Zero(t, h.server.requests.Load())
}

func TestRun_FetchOnlyNew(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/0":           items(item(10, 2, "Old", "link"), item(11, 2, "New", "link")),
	})
	require.NoError(t, h.ledger.Record(context.Background(), storage.Entry{RaindropID: 10, Path: "elsewhere.md", Outcome: "created"}))

	summary, err := h.imp.Run(context.Background(), model.FetchOptions{FetchOnlyNew: true, UseTitleForFileName: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Skipped)

	_, err = os.Stat(filepath.Join(h.root, "Dev", "Go", "Old.md"))
	assert.True(t, errors.Is(err, os.ErrNotExist), "ledgered raindrop should not be written")
}

func TestRun_TemplateSystemDisabled(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrops/0":           items(item(10, 2, "Plain", "article")),
	})
	h.cfg.TemplateSystemEnabled = false

	_, err := h.imp.Run(context.Background(), model.FetchOptions{AppendTags: "imported", UseTitleForFileName: true})
	require.NoError(t, err)

	note := h.read(t, "Dev/Go/Plain.md")
	assert.True(t, strings.HasPrefix(note, "---\nid: 10\ntitle: Plain\n"), note)
	assert.Contains(t, note, "tags:\n- go\n- imported\n")
	assert.Contains(t, note, "\n# Plain\n")
}

func TestImportOne(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrop/10":           `{"result":true,"item":` + item(10, 2, "Go Proverbs", "article") + `}`,
	})

	target := filepath.Join(h.root, "Dev", "Go", "Go Proverbs.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
	require.NoError(t, os.WriteFile(target, []byte("stale"), 0o644))

	summary, err := h.imp.ImportOne(context.Background(), 10, model.FetchOptions{UseTitleForFileName: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, "0 notes created. 1 updated.", lastNotice(h.notes))
	assert.NotEqual(t, "stale", h.read(t, "Dev/Go/Go Proverbs.md"))
}

func TestImportOne_WriteFailureIsReturned(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
		"/raindrop/10":           `{"result":true,"item":` + item(10, 2, "Go Proverbs", "article") + `}`,
	})

	// A file where the collection folder belongs makes the write fail.
	require.NoError(t, os.WriteFile(filepath.Join(h.root, "Dev"), []byte("x"), 0o644))

	summary, err := h.imp.ImportOne(context.Background(), 10, model.FetchOptions{UseTitleForFileName: true})
	assert.ErrorIs(t, err, ErrNoteFailed)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 0, summary.Created+summary.Updated)
}

func TestImportOne_NotFound(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.imp.ImportOne(context.Background(), 99, model.FetchOptions{})
	assert.ErrorIs(t, err, raindrop.ErrRejected)
	assert.True(t, strings.HasPrefix(lastNotice(h.notes), "Failed to fetch Raindrop item 99:"))
}

func TestCreateNote(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Scraped Title</title>
			<meta name="description" content="From the page">
			<meta property="og:image" content="https://example.com/cover.png"></head></html>`)
	}))
	defer page.Close()

	h := newHarness(t, map[string]string{
		"/collections":           rootCollections,
		"/collections/childrens": childCollections,
	})
	h.imp.scraper = page.Client()

	fixed := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = time.Now })

	summary, err := h.imp.CreateNote(context.Background(), NewNote{
		URL:        page.URL + "/post",
		Tags:       []string{"manual"},
		Collection: "Reading",
		VaultPath:  "Inbox",
		Scrape:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, "✓ Successfully created note: Scraped Title", lastNotice(h.notes))

	note := h.read(t, "Inbox/Reading/Scraped Title.md")
	assert.Contains(t, note, fmt.Sprintf("id: %d\n", fixed.UnixMilli()))
	assert.Contains(t, note, "banner: https://example.com/cover.png\n")
	assert.Contains(t, note, "## Description\nFrom the page\n")
	assert.Contains(t, note, "  - manual\n")
	assert.Contains(t, note, "created: 2025-03-01T12:00:00.000Z\n")
}

func TestCreateNote_InvalidURL(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.imp.CreateNote(context.Background(), NewNote{URL: "not a url"})
	assert.Error(t, err)
	assert.Equal(t, "A valid URL is required.", lastNotice(h.notes))
}

func TestCollectionItems(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/raindrops/3": items(item(30, 3, "C", "link")),
	})

	got, err := h.imp.CollectionItems(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.EqualValues(t, 30, got[0].ID)

	_, err = h.imp.CollectionItems(context.Background(), 4)
	assert.ErrorIs(t, err, raindrop.ErrRejected)
	assert.Equal(t, "Error fetching items for collection ID: 4.", lastNotice(h.notes))
}

func TestVerifyToken(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/user": `{"result":true,"user":{"_id":5,"fullName":"Ada","email":"ada@example.com"}}`,
	})

	user, err := h.imp.VerifyToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FullName)
	assert.Equal(t, []string{"Verifying API token...", "API Token is valid!"}, h.notes.Notices())
}

func TestCollectionByID(t *testing.T) {
	h := newHarness(t, map[string]string{
		"/collection/3": `{"result":true,"item":{"_id":3,"title":"Reading","count":4}}`,
	})

	c := h.imp.CollectionByID(context.Background(), 3)
	require.NotNil(t, c)
	assert.Equal(t, "Reading", c.Title)
	assert.Nil(t, h.imp.CollectionByID(context.Background(), 4))
}

func TestSummary_String(t *testing.T) {
	tests := []struct {
		s    Summary
		want string
	}{
		{Summary{}, "0 notes created."},
		{Summary{Created: 3, Updated: 1, Skipped: 2, Errors: 1}, "3 notes created. 1 updated. 2 skipped (already exist). 1 errors."},
		{Summary{Created: 1, Errors: 2}, "1 notes created. 2 errors."},
	}

	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
