// Package flagparse defines the command-line surface for pdumpfs and its
// pdumpfs-clean companion. Every flag defaults to its zero value, so a
// caller merging in a config file's defaults (see pkg/config) can treat an
// empty field as "not given on the command line" without a separate
// fs.Visit pass.
package flagparse

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/showtak/pdumpfs/pkg/buildinfo"
	"github.com/showtak/pdumpfs/pkg/util"
)

// stringList accumulates repeated occurrences of a flag (e.g. multiple
// -e/--exclude patterns) in the order they were given.
type stringList []string

func (l *stringList) String() string {
	if l == nil {
		return ""
	}
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// BackupOptions is the parsed command line for the pdumpfs binary.
type BackupOptions struct {
	Source   string
	Dest     string
	BaseName string // empty means "derive from Source"

	ExcludePatterns   []string
	ExcludeGlobs      []string
	ExcludeBySizeRaw  string
	LogFilePath       string
	Quiet             bool
	DryRun            bool
	Backtrace         bool
	ConfigPath        string
	PreHookCommands   []string
	PostHookCommands  []string
	FailFast          bool

	ShowHelp    bool
	ShowVersion bool
}

// ParseBackup parses args (normally os.Args[1:]) into a BackupOptions.
// usage is written to out when -h/--help is requested or parsing fails.
func ParseBackup(args []string, out io.Writer) (*BackupOptions, error) {
	fs := flag.NewFlagSet(buildinfo.Name, flag.ContinueOnError)
	fs.SetOutput(out)

	opts := &BackupOptions{}
	var excludePatterns, excludeGlobs, preHooks, postHooks stringList

	fs.Var(&excludePatterns, "e", "exclude paths matching REGEX (may be repeated)")
	fs.Var(&excludePatterns, "exclude", "exclude paths matching REGEX (may be repeated)")
	fs.StringVar(&opts.ExcludeBySizeRaw, "exclude-by-size", "", "exclude regular files at or above SIZE (e.g. 10M, 1G)")
	fs.Var(&excludeGlobs, "exclude-by-glob", "exclude regular files whose basename matches GLOB (may be repeated)")
	fs.StringVar(&opts.LogFilePath, "l", "", "append the run summary to PATH")
	fs.StringVar(&opts.LogFilePath, "log-file", "", "append the run summary to PATH")
	fs.BoolVar(&opts.Quiet, "q", false, "suppress informational output")
	fs.BoolVar(&opts.Quiet, "quiet", false, "suppress informational output")
	fs.BoolVar(&opts.DryRun, "n", false, "show what would happen without writing anything")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "show what would happen without writing anything")
	fs.BoolVar(&opts.Backtrace, "backtrace", false, "print a stack trace alongside a fatal error")
	fs.StringVar(&opts.ConfigPath, "config", "", "read exclusion and hook settings from a JSON file")
	fs.Var(&preHooks, "pre-hook", "run COMMAND before the walk starts (may be repeated)")
	fs.Var(&postHooks, "post-hook", "run COMMAND after a successful run (may be repeated)")
	fs.BoolVar(&opts.FailFast, "fail-fast", false, "abort before the walk starts if a pre-hook command fails")
	fs.BoolVar(&opts.ShowHelp, "h", false, "show this help message")
	fs.BoolVar(&opts.ShowHelp, "help", false, "show this help message")
	fs.BoolVar(&opts.ShowVersion, "v", false, "print the version and exit")
	fs.BoolVar(&opts.ShowVersion, "version", false, "print the version and exit")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: %s [options] SRC DEST [BASE]\n\n", buildinfo.Name)
		fmt.Fprintln(out, "Create a dated hard-link snapshot of SRC under DEST/YYYY/MM/DD/BASE.")
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.ExcludePatterns = []string(excludePatterns)
	opts.ExcludeGlobs = []string(excludeGlobs)
	opts.PreHookCommands = []string(preHooks)
	opts.PostHookCommands = []string(postHooks)

	if opts.ShowHelp || opts.ShowVersion {
		return opts, nil
	}

	positional := fs.Args()
	switch len(positional) {
	case 2:
		opts.Source, opts.Dest = positional[0], positional[1]
	case 3:
		opts.Source, opts.Dest, opts.BaseName = positional[0], positional[1], positional[2]
	default:
		return nil, fmt.Errorf("expected SRC and DEST (and optionally BASE), got %d positional argument(s)", len(positional))
	}

	return opts, nil
}

// CleanOptions is the parsed command line for the pdumpfs-clean binary.
type CleanOptions struct {
	DestRoot string
	BaseName string

	KeepHourly  int
	KeepDaily   int
	KeepWeekly  int
	KeepMonthly int
	KeepYearly  int

	LogFilePath string
	DryRun      bool
	Quiet       bool
	ShowHelp    bool
	ShowVersion bool
}

// ParseClean parses args for the retention companion binary. All keep-*
// flags default to 0 ("keep none of this bucket"). With every tier at 0 the
// policy keeps nothing, so every snapshot except the one latest points to is
// selected for removal.
func ParseClean(args []string, out io.Writer) (*CleanOptions, error) {
	fs := flag.NewFlagSet("pdumpfs-clean", flag.ContinueOnError)
	fs.SetOutput(out)

	opts := &CleanOptions{}
	fs.IntVar(&opts.KeepHourly, "keep-hourly", 0, "number of hourly buckets to keep one snapshot from")
	fs.IntVar(&opts.KeepDaily, "keep-daily", 0, "number of most recent daily snapshots to always keep")
	fs.IntVar(&opts.KeepWeekly, "keep-weekly", 0, "number of weekly buckets to keep one snapshot from")
	fs.IntVar(&opts.KeepMonthly, "keep-monthly", 0, "number of monthly buckets to keep one snapshot from")
	fs.IntVar(&opts.KeepYearly, "keep-yearly", 0, "number of yearly buckets to keep one snapshot from")
	fs.StringVar(&opts.LogFilePath, "l", "", "append the cleanup summary to PATH")
	fs.StringVar(&opts.LogFilePath, "log-file", "", "append the cleanup summary to PATH")
	fs.BoolVar(&opts.DryRun, "n", false, "list what would be removed without removing it")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "list what would be removed without removing it")
	fs.BoolVar(&opts.Quiet, "q", false, "suppress informational output")
	fs.BoolVar(&opts.Quiet, "quiet", false, "suppress informational output")
	fs.BoolVar(&opts.ShowHelp, "h", false, "show this help message")
	fs.BoolVar(&opts.ShowHelp, "help", false, "show this help message")
	fs.BoolVar(&opts.ShowVersion, "v", false, "print the version and exit")
	fs.BoolVar(&opts.ShowVersion, "version", false, "print the version and exit")

	fs.Usage = func() {
		fmt.Fprintf(out, "Usage: pdumpfs-clean [options] DEST [BASE]\n\n")
		fmt.Fprintln(out, "Remove the DEST/YYYY/MM/DD snapshot directories (those holding BASE) outside the retention window.")
		fmt.Fprintln(out)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if opts.ShowHelp || opts.ShowVersion {
		return opts, nil
	}

	positional := fs.Args()
	switch len(positional) {
	case 1:
		opts.DestRoot = positional[0]
	case 2:
		opts.DestRoot, opts.BaseName = positional[0], positional[1]
	default:
		return nil, fmt.Errorf("expected DEST (and optionally BASE), got %d positional argument(s)", len(positional))
	}

	return opts, nil
}

// ParseSize parses the --exclude-by-size argument, delegating to the
// shared power-of-1024 suffix parser.
func ParseSize(raw string) (int64, error) {
	if raw == "" {
		return -1, nil
	}
	return util.ParseSizeSuffix(raw)
}
