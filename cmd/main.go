// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clause-scan/internal/config"
	"clause-scan/internal/core"
	"clause-scan/internal/export"
	"clause-scan/internal/observability"
	"clause-scan/internal/profiling"
	"clause-scan/internal/schema"
	"clause-scan/internal/version"
	"clause-scan/internal/web"

	"clause-scan/internal/formatters"
	formatterjson "clause-scan/internal/formatters/json"
	_ "clause-scan/internal/formatters/text"
	_ "clause-scan/internal/formatters/yaml"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// cliFlags holds command line flag values
type cliFlags struct {
	clausesFile string
	hitsInput   string
	rulesetFile string
	policyFile  string
	configFile  string
	profileName string

	outputFile  string
	hitsFile    string
	summaryFile string
	profileFile string
	excelFile   string

	format  string
	pretty  bool
	indent  int
	workers int
	verbose bool
	debug   bool
	noColor bool

	webMode bool
	webPort string

	showVersion  bool
	listProfiles bool
}

func main() {
	// Optional .env bootstrap for CLAUSE_SCAN_* variables
	_ = godotenv.Load()

	clausesFile := flag.String("clauses", "", "Path to clause batch file (JSON)")
	hitsInput := flag.String("hits", "", "Path to a prior run's hits file to rescore, skipping matching (JSON)")
	rulesetFile := flag.String("ruleset", "", "Path to ruleset catalog file (JSON)")
	policyFile := flag.String("policy", "", "Path to scoring policy file (JSON, optional)")
	configFile := flag.String("config", "", "Path to configuration file (YAML)")
	profileName := flag.String("profile", "", "Profile name to use from config file")
	listProfiles := flag.Bool("list-profiles", false, "List available profiles in config file")
	outputFile := flag.String("out", "", "Path to output file (if not specified, output to stdout)")
	hitsFile := flag.String("hits-out", "", "Path to write consolidated hits (JSON)")
	summaryFile := flag.String("summary-out", "", "Path to write the summary block alone (JSON)")
	profileFile := flag.String("profile-out", "", "Path to write confidence distribution statistics (JSON)")
	excelFile := flag.String("excel-out", "", "Path to write an .xlsx review workbook")
	format := flag.String("format", "", "Output format: json, yaml, text (default: json)")
	pretty := flag.Bool("pretty", false, "Indent JSON output")
	indent := flag.Int("indent", 0, "JSON indent width (overrides --pretty)")
	workers := flag.Int("workers", 0, "Matcher worker count (default: number of CPUs)")
	verbose := flag.Bool("verbose", false, "Display reasons and per-hit scores in text output")
	debug := flag.Bool("debug", false, "Enable debug logging of pipeline operations")
	noColor := flag.Bool("no-color", false, "Disable colored output")
	showVersion := flag.Bool("version", false, "Show version information")
	webMode := flag.Bool("serve", false, "Start web server mode instead of CLI scoring")
	webPort := flag.String("port", "8080", "Port for web server (default: 8080)")

	flag.Parse()

	flags := cliFlags{
		clausesFile:  *clausesFile,
		hitsInput:    *hitsInput,
		rulesetFile:  *rulesetFile,
		policyFile:   *policyFile,
		configFile:   *configFile,
		profileName:  *profileName,
		outputFile:   *outputFile,
		hitsFile:     *hitsFile,
		summaryFile:  *summaryFile,
		profileFile:  *profileFile,
		excelFile:    *excelFile,
		format:       *format,
		pretty:       *pretty,
		indent:       *indent,
		workers:      *workers,
		verbose:      *verbose,
		debug:        *debug,
		noColor:      *noColor,
		webMode:      *webMode,
		webPort:      *webPort,
		showVersion:  *showVersion,
		listProfiles: *listProfiles,
	}

	if flags.showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg := loadConfiguration(flags.configFile)
	if flags.listProfiles {
		fmt.Println("Available profiles:")
		for _, name := range cfg.ListProfiles() {
			profile := cfg.GetProfile(name)
			fmt.Printf("  %-12s %s\n", name, profile.Description)
		}
		os.Exit(0)
	}
	if flags.profileName != "" {
		if err := cfg.ApplyProfile(flags.profileName); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	applyConfigDefaults(&flags, cfg)

	observer := buildObserver(flags.debug)

	if flags.webMode {
		server := web.NewServer(flags.webPort,
			web.WithWorkers(flags.workers),
			web.WithObserver(observer),
		)
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(flags, observer); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfiguration loads the configuration file or returns default config
func loadConfiguration(configFile string) *config.Config {
	cfg, err := config.LoadConfigOrDefault(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Error loading config file: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration\n")
		cfg, _ = config.LoadConfig("")
	}
	return cfg
}

// applyConfigDefaults fills flags the user left at their zero value from the
// config file's defaults. Explicit flags always win.
func applyConfigDefaults(flags *cliFlags, cfg *config.Config) {
	if flags.format == "" {
		flags.format = cfg.Defaults.Format
	}
	if flags.indent == 0 {
		flags.indent = cfg.Defaults.Indent
	}
	if flags.workers == 0 {
		flags.workers = cfg.Defaults.Workers
	}
	flags.pretty = flags.pretty || cfg.Defaults.Pretty
	flags.verbose = flags.verbose || cfg.Defaults.Verbose
	flags.debug = flags.debug || cfg.Defaults.Debug
	flags.noColor = flags.noColor || cfg.Defaults.NoColor

	// Colors only make sense on a terminal.
	if !isTerminal(os.Stdout) && flags.outputFile == "" {
		flags.noColor = true
	}
}

func buildObserver(debug bool) *observability.StandardObserver {
	level := observability.ObservabilityOff
	if debug {
		level = observability.ObservabilityDebug
	}
	return observability.NewStandardObserver(level, os.Stderr)
}

func run(flags cliFlags, observer *observability.StandardObserver) error {
	if flags.hitsInput != "" && flags.clausesFile != "" {
		return fmt.Errorf("--clauses and --hits are mutually exclusive")
	}

	var result *core.PipelineResult
	var err error
	switch {
	case flags.hitsInput != "":
		result, err = rescoreHits(flags)
	case flags.clausesFile == "":
		return fmt.Errorf("missing required flag: --clauses (or --hits to rescore)")
	case flags.rulesetFile == "":
		return fmt.Errorf("missing required flag: --ruleset")
	default:
		var clauses []schema.Clause
		var ruleset *schema.RulesetRuntime
		var policy schema.Policy
		clauses, ruleset, policy, err = loadInputs(flags)
		if err != nil {
			return err
		}
		result, err = core.Run(context.Background(), core.PipelineConfig{
			Clauses:  clauses,
			Ruleset:  ruleset,
			Policy:   policy,
			Workers:  flags.workers,
			Observer: observer,
		})
	}
	if err != nil {
		return err
	}

	options := formatters.FormatterOptions{
		Pretty:  flags.pretty,
		Indent:  flags.indent,
		NoColor: flags.noColor,
		Verbose: flags.verbose,
	}

	if err := writeDocument(flags, result.Document, options); err != nil {
		return err
	}
	if err := writeSideOutputs(flags, result, options); err != nil {
		return err
	}
	return nil
}

func loadInputs(flags cliFlags) ([]schema.Clause, *schema.RulesetRuntime, schema.Policy, error) {
	policy := schema.DefaultPolicy()

	clauseData, err := os.ReadFile(filepath.Clean(flags.clausesFile))
	if err != nil {
		return nil, nil, policy, fmt.Errorf("reading clauses: %w", err)
	}
	clauses, err := schema.ClausesFromJSON(clauseData)
	if err != nil {
		return nil, nil, policy, fmt.Errorf("parsing clauses: %w", err)
	}

	rulesetData, err := os.ReadFile(filepath.Clean(flags.rulesetFile))
	if err != nil {
		return nil, nil, policy, fmt.Errorf("reading ruleset: %w", err)
	}
	ruleset, err := schema.RulesetFromJSON(rulesetData)
	if err != nil {
		return nil, nil, policy, fmt.Errorf("parsing ruleset: %w", err)
	}

	policy, err = loadPolicy(flags)
	if err != nil {
		return nil, nil, policy, err
	}

	return clauses, ruleset, policy, nil
}

func loadPolicy(flags cliFlags) (schema.Policy, error) {
	policy := schema.DefaultPolicy()
	if flags.policyFile == "" {
		return policy, nil
	}
	policyData, err := os.ReadFile(filepath.Clean(flags.policyFile))
	if err != nil {
		return policy, fmt.Errorf("reading policy: %w", err)
	}
	policy, err = schema.PolicyFromJSON(policyData)
	if err != nil {
		return policy, fmt.Errorf("parsing policy: %w", err)
	}
	return policy, nil
}

// rescoreHits replays a prior run's consolidated hits under the current
// policy without re-running the matchers. The ruleset is optional: hits
// referencing unknown rules score with neutral defaults.
func rescoreHits(flags cliFlags) (*core.PipelineResult, error) {
	hitsData, err := os.ReadFile(filepath.Clean(flags.hitsInput))
	if err != nil {
		return nil, fmt.Errorf("reading hits: %w", err)
	}
	hits, err := schema.HitsFromJSON(hitsData)
	if err != nil {
		return nil, fmt.Errorf("parsing hits: %w", err)
	}

	var ruleset *schema.RulesetRuntime
	if flags.rulesetFile != "" {
		rulesetData, err := os.ReadFile(filepath.Clean(flags.rulesetFile))
		if err != nil {
			return nil, fmt.Errorf("reading ruleset: %w", err)
		}
		ruleset, err = schema.RulesetFromJSON(rulesetData)
		if err != nil {
			return nil, fmt.Errorf("parsing ruleset: %w", err)
		}
	}

	policy, err := loadPolicy(flags)
	if err != nil {
		return nil, err
	}

	document := core.ScoreHits(hits, ruleset, policy)
	return &core.PipelineResult{Document: document, Hits: hits}, nil
}

func writeDocument(flags cliFlags, document *schema.Document, options formatters.FormatterOptions) error {
	name := flags.format
	if name == "" {
		name = "json"
	}
	formatter, err := formatters.Get(strings.ToLower(name))
	if err != nil {
		return err
	}

	output, err := formatter.Format(document, options)
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	if flags.outputFile == "" {
		fmt.Println(output)
		return nil
	}
	if err := os.WriteFile(flags.outputFile, []byte(output+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func writeSideOutputs(flags cliFlags, result *core.PipelineResult, options formatters.FormatterOptions) error {
	if flags.hitsFile != "" {
		payload := map[string]any{"hits": result.Hits}
		if err := writeJSONFile(flags.hitsFile, payload, options); err != nil {
			return fmt.Errorf("writing hits: %w", err)
		}
	}

	if flags.summaryFile != "" {
		payload := map[string]any{"summary": result.Document.Summary}
		if err := writeJSONFile(flags.summaryFile, payload, options); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	if flags.profileFile != "" {
		dist, err := profiling.Profile(result.Document)
		if err != nil {
			return fmt.Errorf("profiling confidences: %w", err)
		}
		if err := writeJSONFile(flags.profileFile, dist, options); err != nil {
			return fmt.Errorf("writing profile: %w", err)
		}
	}

	if flags.excelFile != "" {
		if err := export.WriteWorkbook(flags.excelFile, result.Document); err != nil {
			return fmt.Errorf("writing workbook: %w", err)
		}
	}
	return nil
}

func writeJSONFile(path string, payload any, options formatters.FormatterOptions) error {
	data, err := formatterjson.Encode(payload, options)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// isTerminal checks if the file descriptor is a terminal
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
