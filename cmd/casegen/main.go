package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/casegen"
	"github.com/fwojciec/casegen/coverage"
	"github.com/fwojciec/casegen/crawl"
	"github.com/fwojciec/casegen/dedup"
	"github.com/fwojciec/casegen/explore"
	"github.com/fwojciec/casegen/fs"
	"github.com/fwojciec/casegen/gemini"
	"github.com/fwojciec/casegen/generate"
	"github.com/fwojciec/casegen/goquery"
	casegenhttp "github.com/fwojciec/casegen/http"
	"github.com/fwojciec/casegen/rod"
	casegenslog "github.com/fwojciec/casegen/slog"
	"github.com/fwojciec/casegen/sqlite"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// GeminiAPIKey enables narration when set.
	GeminiAPIKey string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	SessionService casegen.SessionService
	CaseSetService casegen.CaseSetService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:       defaultDBPath(),
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}
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
	// Initialize dependencies struct for Kong binding
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("casegen"),
		kong.Description("Explore a web application and generate candidate end-to-end test cases."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'casegen --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(cli.Config)
	if err != nil {
		return err
	}

	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if cli.Debug {
		deps.Logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	// Open database
	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set CASEGEN_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.SessionService = sqlite.NewSessionService(m.DB)
	m.CaseSetService = sqlite.NewCaseSetService(m.DB)
	deps.Sessions = m.SessionService
	deps.CaseSets = m.CaseSetService

	command := strings.Fields(kongCtx.Command())[0]
	switch command {
	case "explore":
		cfg = cli.Explore.Apply(cfg)
	case "show":
		cfg = cli.Show.Apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	deps.Config = cfg
	if cfg.OutputDir != "" {
		deps.Reports = fs.NewWriter(cfg.OutputDir)
	}

	if command == "explore" {
		registry, err := m.newRegistry(ctx, cfg, deps.Logger, stderr)
		if err != nil {
			return err
		}
		defer registry.Shutdown(context.Background())
		deps.Registry = registry
	}

	return kongCtx.Run(deps)
}

// newRegistry wires the exploration stack for cfg.
func (m *Main) newRegistry(ctx context.Context, cfg Config, logger *slog.Logger, stderr io.Writer) (*explore.Registry, error) {
	r := explore.NewRegistry()
	r.Extractor = casegenslog.NewLoggingExtractor(goquery.NewExtractor(), logger)
	r.Classifier = goquery.NewClassifier()
	r.Sessions = m.SessionService
	r.CaseSets = m.CaseSetService
	r.Deduplicator = &dedup.Deduplicator{Threshold: cfg.SimilarityThreshold}
	r.Reporter = &coverage.Reporter{}
	r.Merge = cfg.Merge
	r.Logger = logger
	r.Config = cfg.Explore
	r.Progress = newProgressPrinter(stderr)

	if cfg.Static {
		r.NewRenderer = func(context.Context) (casegen.Renderer, error) {
			return casegenslog.NewLoggingRenderer(casegenhttp.NewRenderer(
				casegenhttp.WithTimeout(cfg.Explore.PageTimeout),
				casegenhttp.WithUserAgent(cfg.UserAgent),
			), logger), nil
		}
	} else {
		r.NewRenderer = func(context.Context) (casegen.Renderer, error) {
			renderer, err := rod.NewRenderer(rod.WithRenderTimeout(cfg.Explore.PageTimeout))
			if err != nil {
				return nil, err
			}
			return casegenslog.NewLoggingRenderer(renderer, logger), nil
		}
	}

	if cfg.RespectRobots {
		r.LinkPolicy = casegenhttp.NewRobotsPolicy(cfg.UserAgent)
	}
	if cfg.RateLimit > 0 {
		r.Limiter = crawl.NewDomainLimiter(cfg.RateLimit)
	}

	gen := &generate.Generator{
		NarrateConcurrency: cfg.NarrateConcurrency,
		Logger:             logger,
	}
	if m.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  m.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		gen.Narrator = casegenslog.NewLoggingNarrator(gemini.NewNarrator(client, cfg.Model), logger)
	}
	r.Generator = gen

	return r, nil
}

func defaultDBPath() string {
	if path := os.Getenv("CASEGEN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "casegen.db"
	}
	dir := filepath.Join(home, ".casegen")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "casegen.db")
}
