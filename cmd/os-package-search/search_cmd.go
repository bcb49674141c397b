package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/config"
	"github.com/open-edge-platform/os-package-search/internal/environment"
	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/search"
	"github.com/open-edge-platform/os-package-search/internal/target"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/slice"
	"github.com/open-edge-platform/os-package-search/internal/utils/system"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Search command flags
var (
	envPrefix      string
	showRequires   bool
	ignoreCase     bool
	indexFlags     []string
	searchFormat   string = "text" // "text" | "json"
	prettyJSON     bool   = true
	targetPlatform string
	targetArch     string
	targetVariant  string
)

// detectHostTarget is replaced in tests.
var detectHostTarget = system.DetectHostTarget

// createSearchCommand creates the search subcommand
func createSearchCommand() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search [flags] [EXPRESSION]",
		Short: "Search for packages and display their information",
		Long: `Search looks up packages in the configured indexes. EXPRESSION is an exact
package name, a versioned specification ("scipy>=0.13", "numpy 1.7*",
"scipy-0.12.0") or a regular expression matched against package names.
Without an expression every package is listed.`,
		Example: `  os-package-search search -p ~/anaconda/envs/myenv/ scipy
  os-package-search search --index Packages.xz --arch amd64 '^libssl'`,
		Args: cobra.MaximumNArgs(1),
		RunE: executeSearch,
	}

	searchCmd.Flags().StringVarP(&envPrefix, "prefix", "p", "",
		"Only show results compatible with the environment at this prefix")
	searchCmd.Flags().BoolVarP(&showRequires, "show-requires", "s", false,
		"Also display package requirements")
	searchCmd.Flags().BoolVar(&ignoreCase, "ignore-case", false,
		"Match regular expressions and target fields case-insensitively")
	searchCmd.Flags().StringArrayVar(&indexFlags, "index", nil,
		"Index file or URL to search (repeatable, replaces the configured indexes)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text",
		"Output format: text or json")
	searchCmd.Flags().BoolVar(&prettyJSON, "pretty", true,
		"Pretty-print JSON output (only for --format json)")
	searchCmd.Flags().AddFlagSet(targetFlagSet())
	return searchCmd
}

// targetFlagSet holds the flags overriding the configured target.
func targetFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("target", pflag.ContinueOnError)
	fs.StringVar(&targetPlatform, "platform", "", "Target platform, e.g. linux-64 (default: config, then host)")
	fs.StringVar(&targetArch, "arch", "", "Target architecture, e.g. x86_64 (default: config, then host)")
	fs.StringVar(&targetVariant, "variant", "", "Build variant tag the build string must contain, e.g. py27")
	return fs
}

// executeSearch handles the search command execution logic
func executeSearch(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	cfg := currentConfig()

	format := strings.ToLower(searchFormat)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid --format %q (expected text|json)", searchFormat)
	}

	expression := ""
	if len(args) > 0 {
		expression = args[0]
	}

	sources := cfg.Indexes
	if len(indexFlags) > 0 {
		sources = make([]config.IndexSource, 0, len(indexFlags))
		for _, s := range slice.Unique(indexFlags) {
			sources = append(sources, indexSourceFromFlag(s))
		}
	}
	if len(sources) == 0 {
		return fmt.Errorf("no package index configured, use --index or the indexes list of %s", config.ConfigFileName)
	}

	idx, err := loadIndex(cmd, cfg, sources)
	if err != nil {
		return fmt.Errorf("failed to load package index: %w", err)
	}

	opts := search.Options{
		IgnoreCase: ignoreCase || cfg.Search.IgnoreCase,
		Workers:    config.NewConfigHelpers(cfg).Workers(),
	}
	searcher := search.New(idx, search.EnvironmentLoaderFunc(loadEnvironment), opts)

	req := search.Request{
		Expression:        expression,
		ShowRequires:      showRequires || cfg.Search.ShowRequires,
		Target:            resolveTarget(cmd, cfg),
		EnvironmentPrefix: envPrefix,
	}
	log.Debugf("searching %q for target %s", expression, req.Target)

	result, err := searcher.Search(req)
	if err != nil {
		return err
	}

	if format == "json" {
		return writeSearchResult(cmd, newResultView(result), prettyJSON)
	}
	return renderSearchText(cmd.OutOrStdout(), result)
}

// indexSourceFromFlag turns an --index value into an index entry.
func indexSourceFromFlag(s string) config.IndexSource {
	if isURL(s) {
		return config.IndexSource{URL: s}
	}
	return config.IndexSource{Path: s}
}

// loadEnvironment adapts environment.Load; a failed load must not come
// back as a typed nil Environment.
func loadEnvironment(prefix string) (search.Environment, error) {
	env, err := environment.Load(prefix)
	if err != nil {
		return nil, err
	}
	return env, nil
}

// resolveTarget applies, in increasing priority, the host, the config file
// and the command line flags.
func resolveTarget(cmd *cobra.Command, cfg *config.GlobalConfig) target.Descriptor {
	d := cfg.Target
	if d.Platform == "" && d.Arch == "" {
		host := detectHostTarget()
		d.Platform, d.Arch = host.Platform, host.Arch
	}
	flags := cmd.Flags()
	if flags.Changed("platform") {
		d.Platform = targetPlatform
	}
	if flags.Changed("arch") {
		d.Arch = targetArch
	}
	if flags.Changed("variant") {
		d.Variant = targetVariant
	}
	return d
}

// renderSearchText prints the result the way the search summary and record
// details are shown on a terminal.
func renderSearchText(w io.Writer, res *search.Result) error {
	compat := ""
	if res.EnvironmentRestricted {
		compat = " compatible with environment " + res.EnvironmentPrefix
	}

	if strings.TrimSpace(res.Expression) == "" {
		return renderListing(w, res)
	}

	switch res.Count {
	case 0:
		_, err := fmt.Fprintf(w, "No matches found for '%s'%s\n", res.Expression, compat)
		return err
	case 1:
		fmt.Fprintf(w, "One match found%s:\n", compat)
	default:
		fmt.Fprintf(w, "%d matches found%s:\n", res.Count, compat)
	}

	for i := range res.Records {
		fmt.Fprintln(w)
		printRecord(w, &res.Records[i], res.ShowRequires)
	}
	_, err := fmt.Fprintln(w)
	return err
}

// renderListing prints every record under a header line per package name.
func renderListing(w io.Writer, res *search.Result) error {
	current := ""
	for i := range res.Records {
		rec := &res.Records[i]
		if rec.Name != current {
			current = rec.Name
			fmt.Fprintf(w, "\n%s\n", current)
		}
		printRecord(w, rec, res.ShowRequires)
	}
	_, err := fmt.Fprintln(w)
	return err
}

func printRecord(w io.Writer, rec *ospackage.PackageInfo, withRequires bool) {
	build := rec.Build
	if build == "" {
		build = "-"
	}
	fmt.Fprintf(w, "   %-24s %-20s %s", rec.Name, rec.Version, build)
	if where := strings.Trim(rec.Platform+"/"+rec.Arch, "/"); where != "" {
		fmt.Fprintf(w, "  [%s]", where)
	}
	fmt.Fprintln(w)

	if !withRequires {
		return
	}
	if len(rec.Requires) == 0 {
		fmt.Fprintln(w, "      requires: (none)")
		return
	}
	fmt.Fprintln(w, "      requires:")
	for _, r := range rec.RequirementStrings() {
		fmt.Fprintf(w, "         %s\n", r)
	}
}

// recordView is the JSON form of a record.
type recordView struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build,omitempty"`
	BuildNumber int      `json:"buildNumber,omitempty"`
	Platform    string   `json:"platform,omitempty"`
	Arch        string   `json:"arch,omitempty"`
	Type        string   `json:"type"`
	Requires    []string `json:"requires,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	URL         string   `json:"url,omitempty"`
	Checksum    string   `json:"checksum,omitempty"`
	Size        int64    `json:"size,omitempty"`
	License     string   `json:"license,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"`
}

// resultView is the JSON form of a search result.
type resultView struct {
	ID                    string       `json:"id"`
	Expression            string       `json:"expression"`
	Count                 int          `json:"count"`
	EnvironmentRestricted bool         `json:"environmentRestricted"`
	EnvironmentPrefix     string       `json:"environmentPrefix,omitempty"`
	Records               []recordView `json:"records"`
}

func newResultView(res *search.Result) resultView {
	v := resultView{
		ID:                    res.ID,
		Expression:            res.Expression,
		Count:                 res.Count,
		EnvironmentRestricted: res.EnvironmentRestricted,
		EnvironmentPrefix:     res.EnvironmentPrefix,
		Records:               make([]recordView, 0, len(res.Records)),
	}
	for i := range res.Records {
		rec := &res.Records[i]
		rv := recordView{
			Name:        rec.Name,
			Version:     rec.Version,
			Build:       rec.Build,
			BuildNumber: rec.BuildNumber,
			Platform:    rec.Platform,
			Arch:        rec.Arch,
			Type:        rec.Type,
			Filename:    rec.Filename,
			URL:         rec.URL,
			Checksum:    rec.Checksum,
			Size:        rec.Size,
			License:     rec.License,
			Description: rec.Description,
			Source:      rec.Source,
		}
		if res.ShowRequires {
			rv.Requires = rec.RequirementStrings()
		}
		v.Records = append(v.Records, rv)
	}
	return v
}

func writeSearchResult(cmd *cobra.Command, v any, pretty bool) error {
	out := cmd.OutOrStdout()

	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	_, err = fmt.Fprintln(out, string(b))
	return err
}
