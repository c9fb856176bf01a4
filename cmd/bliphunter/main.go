// Command bliphunter clusters single-detector triggers, picks the loudest
// trigger of each short cluster as a blip candidate and appends accepted
// blips and rejected glitches to two report files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/banshee-data/bliphunter/internal/catalog"
	"github.com/banshee-data/bliphunter/internal/config"
	"github.com/banshee-data/bliphunter/internal/fsutil"
	"github.com/banshee-data/bliphunter/internal/glitch"
	"github.com/banshee-data/bliphunter/internal/monitoring"
	"github.com/banshee-data/bliphunter/internal/report"
	"github.com/banshee-data/bliphunter/internal/source"
	"github.com/banshee-data/bliphunter/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		stop()
		monitoring.NewLogger(os.Stderr, log.InfoLevel).Fatal("bliphunter failed", "err", err)
	}
}

type options struct {
	variant        string
	triggersFile   string
	vetoFile       string
	bankFile       string
	ifo            string
	outputBlips    string
	outputRejected string
	configPath     string
	catalogPath    string
	logLevel       string
	showVersion    bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := flag.NewFlagSet("bliphunter", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.variant, "variant", config.PresetRaw, "threshold preset and input form: raw or vetoed")
	fs.StringVar(&opts.triggersFile, "triggers-file", "", "trigger CSV file, or a .db/.sqlite catalog holding imported triggers")
	fs.StringVar(&opts.vetoFile, "veto-file", "", "veto segments file of start/end pairs (required for vetoed)")
	fs.StringVar(&opts.bankFile, "bank-file", "", "template bank file (required for vetoed)")
	fs.StringVar(&opts.ifo, "ifo", "", "detector id to read, e.g. L1 (required for vetoed; default first in file)")
	fs.StringVar(&opts.outputBlips, "output-blips", "", "report file accepted blips are appended to")
	fs.StringVar(&opts.outputRejected, "output-rejected", "", "report file rejected glitches are appended to")
	fs.StringVar(&opts.configPath, "config", "", "JSON file overriding preset thresholds")
	fs.StringVar(&opts.catalogPath, "catalog", "", "optional SQLite catalog to record the run in")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func (o *options) validate() error {
	var missing []string
	need := func(name, v string) {
		if v == "" {
			missing = append(missing, "-"+name)
		}
	}
	need("triggers-file", o.triggersFile)
	need("output-blips", o.outputBlips)
	need("output-rejected", o.outputRejected)
	switch o.variant {
	case config.PresetRaw:
	case config.PresetVetoed:
		need("veto-file", o.vetoFile)
		need("bank-file", o.bankFile)
		need("ifo", o.ifo)
	default:
		return fmt.Errorf("unknown -variant %q (want %s or %s)", o.variant, config.PresetRaw, config.PresetVetoed)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s variant requires %v", o.variant, missing)
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "bliphunter %s\n", version.String())
		return nil
	}
	level, err := monitoring.ParseLevel(opts.logLevel)
	if err != nil {
		return err
	}
	monitoring.SetLogger(monitoring.NewLogger(stderr, level).Infof)

	if err := opts.validate(); err != nil {
		return err
	}
	params, err := config.Resolve(opts.variant, opts.configPath)
	if err != nil {
		return err
	}

	fsys := fsutil.OSFileSystem{}
	src, closeSrc, err := buildSource(fsys, opts)
	if err != nil {
		return err
	}
	defer closeSrc()

	res, err := glitch.Run(ctx, src, params)
	if err != nil {
		return err
	}

	format := report.FormatRaw
	if opts.variant == config.PresetVetoed {
		format = report.FormatVetoed
	}
	w := &report.Writer{FS: fsys, Format: format, BlipsPath: opts.outputBlips, RejectedPath: opts.outputRejected}
	if err := w.WriteResult(res); err != nil {
		return err
	}

	if opts.catalogPath != "" {
		if err := recordRun(ctx, opts, params, res); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	return nil
}

// buildSource opens the trigger source and, when veto or bank files are
// given, wraps it in the corresponding filters.
func buildSource(fsys fsutil.FileSystem, opts *options) (glitch.Source, func(), error) {
	var (
		src     glitch.Source
		closeFn = func() {}
	)
	if catalog.IsCatalogPath(opts.triggersFile) {
		cat, err := catalog.Open(opts.triggersFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open trigger catalog: %w", err)
		}
		src = &catalog.TriggerSource{Catalog: cat, Detector: opts.ifo}
		closeFn = func() { cat.Close() }
	} else {
		form := source.Raw
		if opts.variant == config.PresetVetoed {
			form = source.Vetoed
		}
		src = &source.CSVSource{FS: fsys, Path: opts.triggersFile, Form: form, Detector: opts.ifo}
	}

	if opts.bankFile != "" {
		bank, err := source.LoadBank(fsys, opts.bankFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		src = &source.BankFilter{Source: src, Bank: bank}
	}
	if opts.vetoFile != "" {
		segs, err := source.LoadSegments(fsys, opts.vetoFile)
		if err != nil {
			closeFn()
			return nil, nil, err
		}
		src = &source.VetoFilter{Source: src, Segments: segs}
	}
	return src, closeFn, nil
}

func recordRun(ctx context.Context, opts *options, params glitch.Params, res *glitch.Result) error {
	cat, err := catalog.Open(opts.catalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()

	detector := opts.ifo
	if detector == "" && len(res.Clusters) > 0 {
		detector = res.Clusters[0].Triggers[0].Detector
	}
	id, err := cat.RecordRun(ctx, catalog.Run{
		Variant:    opts.variant,
		SourcePath: opts.triggersFile,
		Detector:   detector,
		Version:    version.String(),
		Params:     params,
	}, res)
	if err != nil {
		return err
	}
	monitoring.Logf("recorded run %s in %s", id, opts.catalogPath)
	return nil
}
