package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/datatables"
	"github.com/fangeriz/gazette/etree"
	"github.com/fangeriz/gazette/goquery"
	"github.com/fangeriz/gazette/monitor"
	"github.com/fangeriz/gazette/resty"
	"github.com/fangeriz/gazette/rod"
	gazslog "github.com/fangeriz/gazette/slog"
	"github.com/fangeriz/gazette/smtp"
	"github.com/fangeriz/gazette/sqlite"
)

func main() {
	ctx := context.Background()

	// A missing .env is fine; secrets may come from the real environment.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Configuration path. Set before calling Run().
	ConfigPath string

	// SQLite database shared by all per-source stores.
	DB *sqlite.DB
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{ConfigPath: defaultConfigPath()}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("gazette"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'gazette --help' to see available commands")
	}
	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	if cli.Config != "" {
		m.ConfigPath = cli.Config
	}
	config, err := LoadConfig(m.ConfigPath)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: pass --config or set GAZETTE_CONFIG to the configuration file")
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	m.DB = sqlite.NewDB(config.DBPath)
	if err := m.DB.Open(); err != nil {
		return fmt.Errorf("failed to open database at %q: %w", config.DBPath, err)
	}
	defer m.Close()

	deps := &Dependencies{
		Ctx:      ctx,
		Stdout:   stdout,
		Stderr:   stderr,
		Config:   config,
		DB:       m.DB,
		Logger:   logger,
		Registry: newRegistry(),
	}
	return kongCtx.Run(deps)
}

// newRegistry builds the extractor registry: specialized extractors keyed
// by parser identifier, with the rule-driven extractor as the fallback.
func newRegistry() *gazette.Registry {
	r := gazette.NewRegistry(goquery.NewRuleExtractor)
	r.Register("boe", etree.NewBOEExtractor)
	r.Register("jorf", goquery.NewJORFExtractor)
	r.Register("kuwait", func(src *gazette.Source) (gazette.Extractor, error) {
		return datatables.NewExtractor(src, kuwaitFieldMap)
	})
	return r
}

// kuwaitFieldMap maps the Kuwait Al-Yawm DataTables response columns to
// publication fields.
var kuwaitFieldMap = datatables.FieldMap{
	Title:       "AdsTitle",
	Section:     "AdsCategoryTitle",
	Department:  "AgentTitle",
	URLTemplate: "/flip?id={EditionID_FK}&no={FromPage}",
}

// kuwaitTwoStep describes the Kuwait edition lookup: the landing page
// embeds the current edition id, which is posted to the ads endpoint with
// the column definitions the server insists on.
func kuwaitTwoStep(src *gazette.Source) resty.TwoStepConfig {
	return resty.TwoStepConfig{
		IDPattern: `data\.EditionID_FK\s*=\s*'(\d+)'`,
		QueryURL:  gazette.JoinURL(src.BaseURL, "/online/AdsMainEditionJson"),
		Headers:   map[string]string{"X-Requested-With": "XMLHttpRequest"},
		Form: func(id string) map[string]string {
			form := map[string]string{
				"draw":             "1",
				"start":            "0",
				"length":           "500",
				"EditionID_FK":     id,
				"AdsTitle":         "",
				"Agents":           "",
				"AdsCategories":    "",
				"search[value]":    "",
				"search[regex]":    "false",
				"order[0][column]": "1",
				"order[0][dir]":    "desc",
			}
			for i, col := range []string{"AdsTitle", "ID", "AgentTitle", "AdsCategoryTitle"} {
				p := fmt.Sprintf("columns[%d]", i)
				form[p+"[data]"] = col
				form[p+"[name]"] = ""
				form[p+"[searchable]"] = "true"
				form[p+"[orderable]"] = "true"
				form[p+"[search][value]"] = ""
				form[p+"[search][regex]"] = "false"
			}
			return form
		},
	}
}

// newFetcher builds the fetch strategy a source configures, wrapped with
// logging.
func newFetcher(src *gazette.Source, logger *slog.Logger) (gazette.Fetcher, error) {
	var (
		fetcher gazette.Fetcher
		err     error
	)
	switch src.Method {
	case gazette.FetchHTTP:
		fetcher, err = resty.NewFetcher(src)
	case gazette.FetchTwoStepAPI:
		fetcher, err = resty.NewTwoStepFetcher(src, kuwaitTwoStep(src))
	case gazette.FetchHeadless:
		var fallback gazette.Fetcher
		fallback, err = resty.NewFetcher(src, resty.WithBrowserHeaders())
		if err != nil {
			return nil, err
		}
		fetcher, err = rod.NewFetcher(src, rod.WithFallback(fallback))
	default:
		return nil, gazette.Errorf(gazette.EINVALID, "source %s: unknown fetch method %q", src.CountryCode, src.Method)
	}
	if err != nil {
		return nil, err
	}
	return gazslog.NewLoggingFetcher(fetcher, src.CountryCode, logger), nil
}

// newMonitor assembles the full pipeline for one source.
func newMonitor(deps *Dependencies, countryCode string, sc SourceConfig, dryRun bool, keywords []string) (*monitor.Monitor, error) {
	src := sc.Source(countryCode)
	if err := src.Validate(); err != nil {
		return nil, err
	}

	fetcher, err := newFetcher(src, deps.Logger)
	if err != nil {
		return nil, err
	}

	extractor, err := deps.Registry.Resolve(src)
	if err != nil {
		fetcher.Close()
		return nil, err
	}

	store, err := sqlite.NewPublicationService(deps.DB, countryCode)
	if err != nil {
		fetcher.Close()
		return nil, err
	}

	var notifier gazette.Notifier
	if dryRun {
		notifier = &writerNotifier{w: deps.Stdout}
	} else {
		notifier, err = smtp.NewNotifier(deps.Config.SMTPNotifierConfig())
		if err != nil {
			fetcher.Close()
			return nil, err
		}
	}

	mon := &monitor.Monitor{
		Source:    src,
		Fetcher:   fetcher,
		Extractor: extractor,
		Store:     gazslog.NewLoggingPublicationStore(store, countryCode, deps.Logger),
		Notifier:  gazslog.NewLoggingNotifier(notifier, deps.Logger),
	}
	if len(keywords) > 0 {
		mon.Filter = monitor.KeywordFilter(keywords...)
	}
	return mon, nil
}

func defaultConfigPath() string {
	if path := os.Getenv("GAZETTE_CONFIG"); path != "" {
		return path
	}
	return "config.json"
}
