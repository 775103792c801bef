package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/cli/browser"
	"golang.org/x/term"

	"github.com/nikbrunner/rainmd/internal/importer"
	"github.com/nikbrunner/rainmd/internal/logging"
	"github.com/nikbrunner/rainmd/internal/metrics"
	"github.com/nikbrunner/rainmd/internal/model"
	"github.com/nikbrunner/rainmd/internal/notice"
	"github.com/nikbrunner/rainmd/internal/picker"
	"github.com/nikbrunner/rainmd/internal/raindrop"
	"github.com/nikbrunner/rainmd/internal/storage"
	"github.com/nikbrunner/rainmd/internal/writer"
)

const envLogLevel = "RAINMD_LOG_LEVEL"

func main() {
	if len(os.Args) < 2 {
		printHelp()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "help", "--help", "-h":
		printHelp()
	case "fetch":
		runFetch(ctx, args)
	case "get":
		runGet(ctx, args)
	case "add":
		runAdd(ctx, args)
	case "collections":
		runCollections(ctx, args)
	case "verify":
		runVerify(ctx, args)
	case "open":
		runOpen(ctx, args)
	case "history":
		runHistory(ctx, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printHelp()
		os.Exit(1)
	}
}

func printHelp() {
	help := `rainmd - Raindrop.io bookmarks as markdown notes

Usage:
  rainmd fetch [flags]          Import raindrops as notes
  rainmd get <id>               Import a single raindrop
  rainmd add <url>              Create a note for a URL
  rainmd collections [-pick]    List collections / pick one and import it
  rainmd verify [-save]         Check the API token
  rainmd open <id>              Open a raindrop's link in the browser
  rainmd history [-limit N]     Show recently imported raindrops
  rainmd help                   Show this help

Fetch flags:
  -collections "a,b,123"   Collection names or ids (empty = all)
  -tags "x,y"              Only raindrops with these tags
  -match all|any           Tag match mode (default all)
  -type TYPE               all, link, article, image, video, document, audio
  -nested                  Include subcollections
  -append-tags "t1,t2"     Extra tags for every note
  -folder PATH             Base folder below the vault
  -id-filenames            Name notes by raindrop id
  -update                  Overwrite existing notes
  -only-new                Skip raindrops imported before
  -default-template        Always use the default template
  -override-templates      Use per-type templates even when toggled off
  -metrics-file PATH       Write Prometheus metrics after the run

Every command accepts -c PATH for an alternative config file.

Environment:
  RAINDROP_TOKEN     API token (overrides the config file)
  RAINMD_FOLDER      Default base folder
  RAINMD_VAULT       Vault root (default: current directory)
  RAINMD_LOG_LEVEL   debug, info, warn or error (default warn)

Data Storage:
  ~/.config/rainmd/config.json
  ~/.config/rainmd/imports.db
`
	fmt.Print(help)
}

// app is everything a command needs, built from the config file.
type app struct {
	cfg        *storage.Config
	configPath string
	client     *raindrop.Client // nil when no token is configured
	ledger     *storage.SQLiteLedger
	writer     *writer.DirWriter
	metrics    *metrics.Metrics
	log        logging.Logger
	importer   *importer.Importer
}

func loadApp(configPath string) *app {
	if configPath == "" {
		var err error
		configPath, err = storage.DefaultConfigFilePath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting config path: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := storage.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	a := &app{
		cfg:        cfg,
		configPath: configPath,
		writer:     writer.NewDirWriter(cfg.VaultDir),
		metrics:    metrics.New(),
		log:        logging.New(os.Stderr, os.Getenv(envLogLevel)),
	}

	a.client, err = newClient(cfg, a.log, a.metrics)
	if err != nil && !errors.Is(err, raindrop.ErrMissingToken) {
		fmt.Fprintf(os.Stderr, "Error creating API client: %v\n", err)
		os.Exit(1)
	}

	if cfg.LedgerPath != "" {
		a.ledger, err = storage.NewSQLiteLedger(cfg.LedgerPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening import ledger: %v\n", err)
			os.Exit(1)
		}
	}

	params := importer.Params{
		Writer:   a.writer,
		Config:   cfg,
		Notifier: notice.NewTerminal(os.Stdout),
		Logger:   a.log,
		Metrics:  a.metrics,
	}
	if a.client != nil {
		params.API = a.client
	}
	if a.ledger != nil {
		params.Ledger = a.ledger
	}
	a.importer = importer.New(params)
	return a
}

func newClient(cfg *storage.Config, log logging.Logger, m *metrics.Metrics) (*raindrop.Client, error) {
	return raindrop.NewClient(raindrop.ClientParams{
		Token:      cfg.APIToken,
		Limiter:    raindrop.NewRateLimiter(cfg.RequestsPerMinute, cfg.RequestDelay.Std()),
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay.Std(),
		Logger:     log,
		Metrics:    m,
	})
}

func (a *app) close() {
	if a.ledger != nil {
		a.ledger.Close()
	}
}

// parseArgs parses fs and returns the first positional argument, which may
// come before or after the flags.
func parseArgs(fs *flag.FlagSet, args []string) string {
	var pos string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		pos, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}
	if pos == "" {
		pos = fs.Arg(0)
	}
	return pos
}

func parseID(s, usage string) int64 {
	if s == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s\n", usage)
		os.Exit(1)
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid raindrop id %q\n", s)
		os.Exit(1)
	}
	return id
}

// runFetch handles the fetch subcommand.
func runFetch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	cols := fs.String("collections", "", "collection names or ids, comma-separated")
	tags := fs.String("tags", "", "tags, comma-separated")
	match := fs.String("match", string(model.TagMatchAll), "tag match mode: all or any")
	typ := fs.String("type", string(model.TypeAll), "content type filter")
	nested := fs.Bool("nested", false, "include subcollections")
	appendTags := fs.String("append-tags", "", "extra tags for every note")
	folder := fs.String("folder", "", "base folder")
	idNames := fs.Bool("id-filenames", false, "name notes by raindrop id")
	update := fs.Bool("update", false, "overwrite existing notes")
	onlyNew := fs.Bool("only-new", false, "skip raindrops imported before")
	defaultTemplate := fs.Bool("default-template", false, "always use the default template")
	override := fs.Bool("override-templates", false, "use per-type templates regardless of toggles")
	metricsFile := fs.String("metrics-file", "", "write Prometheus metrics to this file")
	parseArgs(fs, args)

	a := loadApp(*configPath)
	defer a.close()

	opts := model.FetchOptions{
		VaultPath:             *folder,
		Collections:           *cols,
		FilterTags:            *tags,
		TagMatch:              model.TagMatch(*match),
		FilterType:            model.ContentType(*typ),
		IncludeSubcollections: *nested,
		AppendTags:            *appendTags,
		UseTitleForFileName:   a.cfg.UseTitleForFileName && !*idNames,
		FetchOnlyNew:          *onlyNew,
		UpdateExisting:        a.cfg.UpdateExisting || *update,
		UseDefaultTemplate:    *defaultTemplate,
		OverrideTemplates:     *override,
	}

	summary, err := a.importer.Run(ctx, opts)
	if *metricsFile != "" {
		if werr := a.metrics.WriteTextfile(*metricsFile); werr != nil {
			fmt.Fprintf(os.Stderr, "Error writing metrics: %v\n", werr)
		}
	}
	if err != nil {
		a.close()
		os.Exit(1)
	}
	if summary.Errors > 0 {
		a.close()
		os.Exit(1)
	}
}

// runGet handles the get subcommand.
func runGet(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	folder := fs.String("folder", "", "base folder")
	appendTags := fs.String("append-tags", "", "extra tags for the note")
	copyPath := fs.Bool("copy", false, "copy the note path to the clipboard")
	id := parseID(parseArgs(fs, args), "rainmd get <id> [-folder PATH] [-append-tags TAGS] [-copy]")

	a := loadApp(*configPath)
	defer a.close()

	opts := model.FetchOptions{
		VaultPath:           *folder,
		AppendTags:          *appendTags,
		UseTitleForFileName: a.cfg.UseTitleForFileName,
	}
	summary, err := a.importer.ImportOne(ctx, id, opts)
	if err != nil {
		a.close()
		os.Exit(1)
	}

	if *copyPath && len(summary.Paths) > 0 {
		path := a.writer.Path(summary.Paths[0])
		if err := clipboard.WriteAll(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error copying to clipboard: %v\n", err)
			return
		}
		fmt.Printf("Copied: %s\n", path)
	}
}

// runAdd handles the add subcommand.
func runAdd(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	title := fs.String("title", "", "note title (default: page title)")
	tags := fs.String("tags", "", "tags, comma-separated")
	note := fs.String("note", "", "note text")
	collection := fs.String("collection", "", "collection name or id")
	folder := fs.String("folder", "", "base folder")
	noScrape := fs.Bool("no-scrape", false, "do not fetch page metadata")
	url := parseArgs(fs, args)
	if url == "" {
		fmt.Fprintf(os.Stderr, "Usage: rainmd add <url> [-title T] [-tags a,b] [-note N] [-collection NAME|ID] [-folder PATH]\n")
		os.Exit(1)
	}

	a := loadApp(*configPath)
	defer a.close()

	n := importer.NewNote{
		URL:        url,
		Title:      *title,
		Note:       *note,
		Tags:       model.SplitList(*tags),
		Collection: *collection,
		VaultPath:  *folder,
		Scrape:     !*noScrape,
	}
	if _, err := a.importer.CreateNote(ctx, n); err != nil {
		a.close()
		os.Exit(1)
	}
}

// runCollections lists the collection tree, or lets the user pick one
// collection and imports it.
func runCollections(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("collections", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	pick := fs.Bool("pick", false, "pick a collection and import it")
	folder := fs.String("folder", "", "base folder for the import")
	parseArgs(fs, args)

	a := loadApp(*configPath)
	defer a.close()

	h, err := a.importer.Collections(ctx)
	if err != nil {
		a.close()
		os.Exit(1)
	}
	entries := picker.Entries(h)
	if len(entries) == 0 {
		fmt.Println("No collections found")
		return
	}

	if !*pick {
		for _, e := range entries {
			fmt.Printf("%s%s (%d)  [%d]\n", strings.Repeat("  ", e.Depth), e.Title, e.Count, e.ID)
		}
		return
	}

	program := tea.NewProgram(picker.New(entries))
	finalModel, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running picker: %v\n", err)
		a.close()
		os.Exit(1)
	}

	finalPicker := finalModel.(picker.Picker)
	id, ok := finalPicker.SelectedID()
	if finalPicker.Cancelled() || !ok {
		return
	}

	opts := model.FetchOptions{
		VaultPath:           *folder,
		Collections:         strconv.FormatInt(id, 10),
		UseTitleForFileName: a.cfg.UseTitleForFileName,
		UpdateExisting:      a.cfg.UpdateExisting,
	}
	if _, err := a.importer.Run(ctx, opts); err != nil {
		a.close()
		os.Exit(1)
	}
}

// runVerify checks the API token. Without a configured token it prompts
// for one.
func runVerify(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	save := fs.Bool("save", false, "store a prompted token in the config file")
	parseArgs(fs, args)

	a := loadApp(*configPath)
	defer a.close()

	prompted := false
	if strings.TrimSpace(a.cfg.APIToken) == "" {
		token, err := promptToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading token: %v\n", err)
			a.close()
			os.Exit(1)
		}
		a.cfg.APIToken = token
		prompted = true
		a = rebuild(a)
	}

	user, err := a.importer.VerifyToken(ctx)
	if err != nil {
		a.close()
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s <%s>\n", user.FullName, user.Email)

	if prompted && *save {
		if err := storage.SaveConfig(a.configPath, a.cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			a.close()
			os.Exit(1)
		}
		fmt.Printf("Token saved to %s\n", a.configPath)
	}
}

// rebuild recreates the client and importer after the token changed.
func rebuild(a *app) *app {
	client, err := newClient(a.cfg, a.log, a.metrics)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating API client: %v\n", err)
		a.close()
		os.Exit(1)
	}
	a.client = client

	params := importer.Params{
		API:      client,
		Writer:   a.writer,
		Config:   a.cfg,
		Notifier: notice.NewTerminal(os.Stdout),
		Logger:   a.log,
		Metrics:  a.metrics,
	}
	if a.ledger != nil {
		params.Ledger = a.ledger
	}
	a.importer = importer.New(params)
	return a
}

func promptToken() (string, error) {
	fmt.Print("Raindrop.io API token: ")
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// runOpen opens the link of a raindrop in the default browser.
func runOpen(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("open", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	id := parseID(parseArgs(fs, args), "rainmd open <id>")

	a := loadApp(*configPath)
	defer a.close()

	if a.client == nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", raindrop.ErrMissingToken)
		a.close()
		os.Exit(1)
	}

	r, err := a.client.Raindrop(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching raindrop %d: %v\n", id, err)
		a.close()
		os.Exit(1)
	}

	fmt.Printf("Opening: %s\n", r.Title)
	if err := browser.OpenURL(r.Link); err != nil {
		fmt.Fprintf(os.Stderr, "Error opening browser: %v\n", err)
		a.close()
		os.Exit(1)
	}
}

// runHistory prints the import ledger, newest first.
func runHistory(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	configPath := fs.String("c", "", "config file")
	limit := fs.Int("limit", 20, "number of entries (0 = all)")
	parseArgs(fs, args)

	a := loadApp(*configPath)
	defer a.close()

	if a.ledger == nil {
		fmt.Println("Import ledger disabled (ledgerPath is empty)")
		return
	}

	entries, err := a.ledger.List(ctx, *limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading import ledger: %v\n", err)
		a.close()
		os.Exit(1)
	}
	if len(entries) == 0 {
		fmt.Println("No imports yet")
		return
	}

	for _, e := range entries {
		fmt.Printf("%s  %-7s  %d  %s\n    %s\n",
			e.ImportedAt.Local().Format("2006-01-02 15:04"), e.Outcome, e.RaindropID, e.Title, a.writer.Path(e.Path))
	}
}
