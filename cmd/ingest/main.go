package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/blogcorpus/ingest"
	"github.com/blogcorpus/ingest/capture"
	"github.com/blogcorpus/ingest/config"
	"github.com/blogcorpus/ingest/fetch"
	"github.com/blogcorpus/ingest/normalize"
	"github.com/blogcorpus/ingest/record"
	"github.com/blogcorpus/ingest/seeds"
)

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseSubcommand splits the argument list into a subcommand and its
// remaining arguments. A leading flag, an empty argument, or no arguments at
// all mean the default "run" subcommand.
func parseSubcommand(args []string) (string, []string) {
	if len(args) == 0 || args[0] == "" || args[0][0] == '-' {
		return "run", args
	}
	return args[0], args[1:]
}

func main() {
	configPath := getEnv("INGEST_CONFIG", "ingest.yaml")

	subcommand, args := parseSubcommand(os.Args[1:])

	switch subcommand {
	case "run":
		runCommand(configPath, args)
	case "records":
		recordsCommand(configPath, args)
	case "seeds":
		seedsCommand(configPath, args)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n\n", subcommand)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("ingest - blog content-ingestion pipeline")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  ingest [command] [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  run        Run the pipeline against the configured seed list (default)")
	fmt.Println("  records    List processed records")
	fmt.Println("  seeds      Show the seed URLs, including feed-discovered ones")
	fmt.Println("  help       Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  INGEST_CONFIG  Path to the YAML config file (default: ingest.yaml)")
}

// loadConfig loads and validates the config file, exiting on error.
func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// resolveSeeds combines configured seed URLs with feed-discovered ones.
func resolveSeeds(cfg *config.Config) ([]string, error) {
	urls := append([]string{}, cfg.SeedURLs...)

	if cfg.FeedURL != "" {
		discovered, err := seeds.FromFeed(cfg.FeedURL, cfg.SeedPathPrefixes)
		if err != nil {
			return nil, fmt.Errorf("failed to discover seeds from feed: %w", err)
		}
		urls = append(urls, discovered...)
	}

	return seeds.Dedupe(urls), nil
}

func runCommand(configPath string, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configFlag := fs.String("config", configPath, "Path to config file")
	skipExisting := fs.Bool("skip-existing", true, "Reuse stored captures instead of re-fetching")
	verbose := fs.Bool("verbose", false, "Enable debug logging")
	fs.Parse(args)

	cfg := loadConfig(*configFlag)

	// The flag only overrides the config file when given explicitly.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "skip-existing" {
			cfg.SkipExisting = *skipExisting
		}
	})

	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	seedURLs, err := resolveSeeds(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(seedURLs) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no seed URLs configured (set seed_urls or feed_url)")
		os.Exit(1)
	}

	rawStore, err := capture.NewStore(cfg.RawDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open raw store: %v\n", err)
		os.Exit(1)
	}
	defer rawStore.Close()

	processedStore, err := record.NewStore(cfg.ProcessedDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open processed store: %v\n", err)
		os.Exit(1)
	}

	var fetcher fetch.PageFetcher
	if cfg.Renderer == "chrome" {
		chrome := fetch.NewChromeFetcher(0)
		defer chrome.Close()
		fetcher = chrome
	} else {
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPOptions{UserAgent: cfg.UserAgent})
	}

	pipeline := ingest.New(
		fetcher,
		rawStore,
		processedStore,
		normalize.New(cfg.MinBodyLength),
		ingest.Options{
			SkipExisting: cfg.SkipExisting,
			FetchTimeout: cfg.FetchTimeout(),
			Concurrency:  cfg.Concurrency,
			CrawlDelay:   cfg.CrawlDelay(),
		},
		logger,
	)

	report, err := pipeline.Run(context.Background(), seedURLs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: pipeline run failed: %v\n", err)
		os.Exit(1)
	}

	printSummary(report)

	if report.Failed() > 0 {
		os.Exit(1)
	}
}

func printSummary(report *ingest.Report) {
	duration := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)
	fmt.Printf("Run %s: %d succeeded, %d failed in %v\n",
		report.RunID, report.Succeeded(), report.Failed(), duration)

	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	fmt.Println("Failed URLs:")
	for _, f := range failures {
		fmt.Printf("  %s: %s\n", f.URL, f.Reason)
	}
}

func recordsCommand(configPath string, args []string) {
	if len(args) < 1 || args[0] != "list" {
		fmt.Fprintln(os.Stderr, "Usage: ingest records list")
		os.Exit(1)
	}

	fs := flag.NewFlagSet("records list", flag.ExitOnError)
	configFlag := fs.String("config", configPath, "Path to config file")
	fs.Parse(args[1:])

	cfg := loadConfig(*configFlag)

	store, err := record.NewStore(cfg.ProcessedDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open processed store: %v\n", err)
		os.Exit(1)
	}

	count := 0
	for rec, err := range store.List() {
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		date := "-"
		if rec.PublishDate != nil {
			date = rec.PublishDate.Format("2006-01-02")
		}
		fmt.Printf("%-40s %-12s %s\n", rec.ID, date, rec.Title)
		count++
	}

	if count == 0 {
		fmt.Println("No records yet.")
	}
}

func seedsCommand(configPath string, args []string) {
	fs := flag.NewFlagSet("seeds", flag.ExitOnError)
	configFlag := fs.String("config", configPath, "Path to config file")
	fs.Parse(args)

	cfg := loadConfig(*configFlag)

	seedURLs, err := resolveSeeds(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, u := range seedURLs {
		fmt.Println(u)
	}
}
