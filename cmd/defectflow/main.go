package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/defectflow/defectflow/internal/collect"
	"github.com/defectflow/defectflow/internal/config"
	"github.com/defectflow/defectflow/internal/extract"
	"github.com/defectflow/defectflow/internal/httpapi"
	"github.com/defectflow/defectflow/internal/llm"
	"github.com/defectflow/defectflow/internal/pipeline"
	"github.com/defectflow/defectflow/internal/store"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "collect":
		if err := runCollect(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "init-db":
		if err := runInitDB(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "set-token":
		if err := runSetToken(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "runs":
		if err := runRuns(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version", "--version", "-v":
		fmt.Printf("defectflow %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runCollect(args []string) error {
	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	platform := fs.String("platform", "github", "issue tracker platform (github, gitee, gitlab)")
	owner := fs.String("owner", "", "repository owner or group")
	repo := fs.String("repo", "", "repository name")
	repoID := fs.String("repo-id", "", "repository identifier for stored records")
	state := fs.String("state", "", "issue state filter (platform default when empty)")
	since := fs.String("since", "", "lower time bound (YYYY-MM-DD or RFC 3339)")
	until := fs.String("until", "", "upper time bound (YYYY-MM-DD or RFC 3339)")
	pageSize := fs.Int("page-size", 0, "issues per page (platform default when 0)")
	workers := fs.Int("workers", 0, "concurrent issue processors (config default when 0)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	pf, err := collect.ParsePlatform(*platform)
	if err != nil {
		return err
	}
	if *repoID == "" {
		return fmt.Errorf("--repo-id is required")
	}
	if *workers > 0 {
		cfg.Collect.Workers = *workers
	}

	st, err := store.NewStore(store.Config{DBPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	runner := newRunner(cfg, st)
	runner.Token = cfg.Tokens[string(pf)]

	inserted, err := runner.Run(context.Background(), pipeline.Params{
		Platform: pf,
		Owner:    *owner,
		Repo:     *repo,
		RepoID:   *repoID,
		State:    *state,
		Since:    *since,
		Until:    *until,
		PageSize: *pageSize,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Collected %s/%s on %s: %d new defect(s)\n", *owner, *repo, pf, inserted)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	listen := fs.String("listen", "", "listen address (overrides config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}

	st, err := store.NewStore(store.Config{DBPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	logger := log.New(os.Stderr, "defectflow ", log.LstdFlags)
	runner := newRunner(cfg, st)
	runner.Logger = logger

	// Tokens from config/env back up the database token store.
	server := httpapi.NewServer(&tokenAwareRunner{runner: runner, tokens: cfg.Tokens}, logger)

	logger.Printf("listening on %s", cfg.ListenAddr)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func runInitDB(args []string) error {
	fs := flag.NewFlagSet("init-db", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	st, err := store.NewStore(store.Config{DBPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("initializing store: %w", err)
	}
	defer st.Close()

	fmt.Println("Database initialized")
	return nil
}

func runSetToken(args []string) error {
	fs := flag.NewFlagSet("set-token", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	platform := fs.String("platform", "", "issue tracker platform (github, gitee, gitlab)")
	token := fs.String("token", "", "access token")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pf, err := collect.ParsePlatform(*platform)
	if err != nil {
		return err
	}
	if *token == "" {
		return fmt.Errorf("--token is required")
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	st, err := store.NewStore(store.Config{DBPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.SetToken(context.Background(), string(pf), *token); err != nil {
		return err
	}
	fmt.Printf("Token stored for %s\n", pf)
	return nil
}

func runRuns(args []string) error {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	configPath := fs.String("config", "", "config file path")
	limit := fs.Int("limit", 20, "number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Resolve(*configPath)
	if err != nil {
		return err
	}

	st, err := store.NewStore(store.Config{DBPath: cfg.DBPath})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	runs, err := st.RecentRuns(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No collection runs recorded")
		return nil
	}
	for _, r := range runs {
		window := ""
		if r.Since != "" || r.Until != "" {
			window = fmt.Sprintf(" window=%s..%s", r.Since, r.Until)
		}
		fmt.Printf("%s  %-7s %-24s inserted=%d%s took=%s\n",
			r.StartedAt.Format(time.RFC3339), r.Platform, r.RepoID, r.Inserted, window, r.Duration)
	}
	return nil
}

func newRunner(cfg config.Config, st store.Store) *pipeline.Runner {
	client := llm.NewHTTPClient(llm.Config{
		Endpoint: cfg.LLM.Endpoint,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		Timeout:  time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})
	return &pipeline.Runner{
		Store:     st,
		Extractor: extract.NewLLMExtractor(client, llm.DefaultRetryPolicy(), nil),
		Workers:   cfg.Collect.Workers,
	}
}

// tokenAwareRunner injects the config/env token fallback for whichever
// platform an API request names, then delegates to the shared runner.
type tokenAwareRunner struct {
	runner *pipeline.Runner
	tokens map[string]string
}

func (t *tokenAwareRunner) Run(ctx context.Context, p pipeline.Params) (int, error) {
	r := *t.runner
	r.Token = t.tokens[string(p.Platform)]
	return r.Run(ctx, p)
}

func printUsage() {
	fmt.Printf(`defectflow %s — Multi-platform defect collection and extraction pipeline

Usage:
  defectflow <command> [arguments]

Commands:
  collect             Run one collection pass over a repository
  serve               Serve the collection HTTP API
  init-db             Create the database schema
  set-token           Store a platform access token
  runs                List recent collection runs
  version             Print version

Collect Flags:
  --platform <name>   github, gitee, or gitlab (default github)
  --owner <owner>     Repository owner or group
  --repo <name>       Repository name
  --repo-id <id>      Identifier used in stored records (required)
  --state <state>     Issue state filter
  --since <bound>     Lower time bound (YYYY-MM-DD or RFC 3339)
  --until <bound>     Upper time bound (YYYY-MM-DD or RFC 3339)
  --page-size <n>     Issues per page
  --workers <n>       Concurrent issue processors

Flags:
  -h, --help          Show this help message
  -v, --version       Print version
`, version)
}
